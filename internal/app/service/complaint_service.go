package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"complaint_desk/internal/app/policy"
	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"
	"complaint_desk/internal/domain/repository"
	"complaint_desk/internal/platform/events"
	"complaint_desk/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

type ComplaintService struct {
	complaintRepo repository.ComplaintRepository
	publisher     events.Publisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
	now           func() time.Time
}

func NewComplaintService(complaintRepo repository.ComplaintRepository, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *ComplaintService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ComplaintService{
		complaintRepo: complaintRepo,
		publisher:     publisher,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

type CreateComplaintRequest struct {
	Title       string                  `json:"title" validate:"required,max=200"`
	Description string                  `json:"description" validate:"required,max=5000"`
	Category    string                  `json:"category" validate:"required,max=100"`
	Priority    model.ComplaintPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type UpdateComplaintRequest struct {
	Title       *string                  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string                  `json:"description,omitempty" validate:"omitempty,min=1,max=5000"`
	Category    *string                  `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Priority    *model.ComplaintPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

type TransitionRequest struct {
	Status        model.ComplaintStatus `json:"status" validate:"required,oneof=open in-progress resolved"`
	AdminResponse *string               `json:"admin_response,omitempty" validate:"omitempty,max=2000"`
}

type ListComplaintsRequest struct {
	Status   model.ComplaintStatus `json:"status" validate:"omitempty,oneof=open in-progress resolved"`
	Category string                `json:"category"`
	Limit    int                   `json:"limit" validate:"min=0"`
	Offset   int                   `json:"offset" validate:"min=0"`
}

type ComplaintListResponse struct {
	Complaints []model.Complaint `json:"complaints"`
	Total      int               `json:"total"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
}

func (s *ComplaintService) Create(ctx context.Context, identity model.Identity, req CreateComplaintRequest) (*model.Complaint, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	category, err := normalizeCategory(req.Category)
	if err != nil {
		return nil, err
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}

	now := s.now().UTC()
	complaint := &model.Complaint{
		ID:          uuid.NewString(),
		OwnerID:     identity.UserID,
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Priority:    req.Priority,
		Status:      model.StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.complaintRepo.Create(ctx, complaint); err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}

	s.publish(ctx, events.ComplaintEvent{
		Type:        events.ComplaintCreated,
		ComplaintID: complaint.ID,
		OwnerID:     complaint.OwnerID,
		ActorID:     identity.UserID,
		Status:      complaint.Status,
		OccurredAt:  now,
	})
	return complaint, nil
}

func (s *ComplaintService) Get(ctx context.Context, identity model.Identity, id string) (*model.Complaint, error) {
	complaint, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(identity, policy.ActionRead, complaint); err != nil {
		return nil, err
	}
	return complaint, nil
}

// List returns the caller's own complaints; admins see everyone's.
func (s *ComplaintService) List(ctx context.Context, identity model.Identity, req ListComplaintsRequest) (*ComplaintListResponse, error) {
	filter, err := s.filterFor(req)
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() {
		filter.OwnerID = identity.UserID
	}
	return s.list(ctx, filter)
}

// ListAll is the admin listing across every owner.
func (s *ComplaintService) ListAll(ctx context.Context, identity model.Identity, req ListComplaintsRequest) (*ComplaintListResponse, error) {
	if err := policy.Check(identity, policy.ActionListAll, nil); err != nil {
		return nil, err
	}
	filter, err := s.filterFor(req)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, filter)
}

func (s *ComplaintService) filterFor(req ListComplaintsRequest) (model.ComplaintFilter, error) {
	if err := common.Validate(req); err != nil {
		return model.ComplaintFilter{}, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	filter := model.ComplaintFilter{
		Status: req.Status,
		Limit:  limit,
		Offset: req.Offset,
	}
	if req.Category != "" {
		filter.Category = slug.Make(req.Category)
	}
	return filter, nil
}

func (s *ComplaintService) list(ctx context.Context, filter model.ComplaintFilter) (*ComplaintListResponse, error) {
	complaints, total, err := s.complaintRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return &ComplaintListResponse{
		Complaints: complaints,
		Total:      total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// Update edits the descriptive fields. Owners may only edit while open.
func (s *ComplaintService) Update(ctx context.Context, identity model.Identity, id string, req UpdateComplaintRequest) (*model.Complaint, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	complaint, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(identity, policy.ActionUpdate, complaint); err != nil {
		return nil, err
	}
	// The write only lands if no transition happened since the read above.
	expected := complaint.Status

	if req.Title != nil {
		complaint.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		complaint.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		category, err := normalizeCategory(*req.Category)
		if err != nil {
			return nil, err
		}
		complaint.Category = category
	}
	if req.Priority != nil {
		complaint.Priority = *req.Priority
	}
	if complaint.Title == "" || complaint.Description == "" {
		return nil, fmt.Errorf("%w: title and description cannot be blank", common.ErrValidation)
	}
	complaint.UpdatedAt = s.now().UTC()

	if err := s.complaintRepo.UpdateDetails(ctx, complaint, expected); err != nil {
		return nil, fmt.Errorf("failed to update complaint: %w", err)
	}

	s.publish(ctx, events.ComplaintEvent{
		Type:        events.ComplaintUpdated,
		ComplaintID: complaint.ID,
		OwnerID:     complaint.OwnerID,
		ActorID:     identity.UserID,
		Status:      complaint.Status,
		OccurredAt:  complaint.UpdatedAt,
	})
	return complaint, nil
}

func (s *ComplaintService) Delete(ctx context.Context, identity model.Identity, id string) error {
	complaint, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Check(identity, policy.ActionDelete, complaint); err != nil {
		return err
	}
	if err := s.complaintRepo.Delete(ctx, id, complaint.Status); err != nil {
		return fmt.Errorf("failed to delete complaint: %w", err)
	}

	s.publish(ctx, events.ComplaintEvent{
		Type:        events.ComplaintDeleted,
		ComplaintID: complaint.ID,
		OwnerID:     complaint.OwnerID,
		ActorID:     identity.UserID,
		Status:      complaint.Status,
		OccurredAt:  s.now().UTC(),
	})
	return nil
}

// Transition moves a complaint one step along open -> in-progress -> resolved.
func (s *ComplaintService) Transition(ctx context.Context, identity model.Identity, id string, req TransitionRequest) (*model.Complaint, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	complaint, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(identity, policy.ActionTransition, complaint); err != nil {
		return nil, err
	}

	previous := complaint.Status
	if !model.CanTransition(previous, req.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, previous, req.Status)
	}

	now := s.now().UTC()
	complaint.Status = req.Status
	complaint.UpdatedAt = now
	if req.AdminResponse != nil {
		response := strings.TrimSpace(*req.AdminResponse)
		complaint.AdminResponse = &response
	}
	if req.Status == model.StatusResolved {
		complaint.ResolvedAt = &now
	}

	if err := s.complaintRepo.UpdateStatus(ctx, complaint, previous); err != nil {
		return nil, fmt.Errorf("failed to update complaint status: %w", err)
	}

	s.publish(ctx, events.ComplaintEvent{
		Type:           events.ComplaintStatusChanged,
		ComplaintID:    complaint.ID,
		OwnerID:        complaint.OwnerID,
		ActorID:        identity.UserID,
		Status:         complaint.Status,
		PreviousStatus: previous,
		OccurredAt:     now,
	})
	return complaint, nil
}

func (s *ComplaintService) find(ctx context.Context, id string) (*model.Complaint, error) {
	complaint, err := s.complaintRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("complaint %s: %w", id, err)
	}
	return complaint, nil
}

// publish never fails the request; a lost event is only logged.
func (s *ComplaintService) publish(ctx context.Context, ev events.ComplaintEvent) {
	s.metrics.ComplaintEvent(ev.Type)
	if err := s.publisher.PublishComplaintEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish complaint event",
			"event", ev.Type, "complaint_id", ev.ComplaintID, "error", err)
	}
}

func normalizeCategory(raw string) (string, error) {
	category := slug.Make(raw)
	if category == "" {
		return "", fmt.Errorf("%w: category must contain letters or digits", common.ErrValidation)
	}
	return category, nil
}
