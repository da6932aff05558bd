// Package policy holds the single access predicate every complaint operation goes through.
package policy

import (
	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"
)

type Action string

const (
	ActionRead       Action = "read"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionTransition Action = "transition"
	ActionListAll    Action = "list-all"
)

// Check returns nil when identity may perform action on complaint, and an
// error wrapping common.ErrForbidden otherwise. complaint may be nil for
// actions that are not about a single document.
func Check(identity model.Identity, action Action, complaint *model.Complaint) error {
	if identity.IsAdmin() {
		return nil
	}
	if identity.Role != model.RoleMember {
		return common.ErrForbidden
	}

	switch action {
	case ActionRead:
		if owns(identity, complaint) {
			return nil
		}
	case ActionUpdate, ActionDelete:
		if owns(identity, complaint) && complaint.Status == model.StatusOpen {
			return nil
		}
		if owns(identity, complaint) {
			return common.Errorf("%w: complaint is no longer open", common.ErrForbidden)
		}
	}
	return common.ErrForbidden
}

func owns(identity model.Identity, complaint *model.Complaint) bool {
	return complaint != nil && complaint.OwnerID != "" && complaint.OwnerID == identity.UserID
}
