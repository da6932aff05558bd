package model

import (
	"time"
)

type ComplaintStatus string
type ComplaintPriority string

const (
	StatusOpen       ComplaintStatus = "open"
	StatusInProgress ComplaintStatus = "in-progress"
	StatusResolved   ComplaintStatus = "resolved"

	PriorityLow    ComplaintPriority = "low"
	PriorityMedium ComplaintPriority = "medium"
	PriorityHigh   ComplaintPriority = "high"
)

// nextStatus is the only forward edge out of each state.
var nextStatus = map[ComplaintStatus]ComplaintStatus{
	StatusOpen:       StatusInProgress,
	StatusInProgress: StatusResolved,
}

func (s ComplaintStatus) Valid() bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusResolved
}

// CanTransition reports whether from -> to is a single forward step.
func CanTransition(from, to ComplaintStatus) bool {
	next, ok := nextStatus[from]
	return ok && next == to
}

type Complaint struct {
	ID            string            `json:"id" bson:"_id"`
	OwnerID       string            `json:"owner_id" bson:"owner_id"`
	Title         string            `json:"title" bson:"title"`
	Description   string            `json:"description" bson:"description"`
	Category      string            `json:"category" bson:"category"`
	Priority      ComplaintPriority `json:"priority" bson:"priority"`
	Status        ComplaintStatus   `json:"status" bson:"status"`
	AdminResponse *string           `json:"admin_response,omitempty" bson:"admin_response,omitempty"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" bson:"updated_at"`
	ResolvedAt    *time.Time        `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
}

// ComplaintFilter narrows a listing. Empty fields are not applied.
type ComplaintFilter struct {
	OwnerID  string
	Status   ComplaintStatus
	Category string
	Limit    int
	Offset   int
}

type ComplaintStats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

type UserStats struct {
	Total   int `json:"total"`
	Members int `json:"members"`
	Admins  int `json:"admins"`
}
