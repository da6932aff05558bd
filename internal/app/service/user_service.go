package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"
	"complaint_desk/internal/domain/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, now: time.Now}
}

type UpdateUserRequest struct {
	Name       *string     `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Department *string     `json:"department,omitempty" validate:"omitempty,max=100"`
	Role       *model.Role `json:"role,omitempty" validate:"omitempty,oneof=member admin"`
}

type UserListResponse struct {
	Users  []model.User `json:"users"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

func (s *UserService) List(ctx context.Context, identity model.Identity, limit, offset int) (*UserListResponse, error) {
	if !identity.IsAdmin() {
		return nil, common.ErrForbidden
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserListResponse{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *UserService) Get(ctx context.Context, identity model.Identity, id string) (*model.User, error) {
	if !identity.IsAdmin() && identity.UserID != id {
		return nil, common.ErrForbidden
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, identity model.Identity, id string, req UpdateUserRequest) (*model.User, error) {
	if !identity.IsAdmin() {
		return nil, common.ErrForbidden
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}

	if req.Role != nil && *req.Role != user.Role && id == identity.UserID {
		return nil, fmt.Errorf("%w: cannot change your own role", common.ErrForbidden)
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
		if user.Name == "" {
			return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
		}
	}
	if req.Department != nil {
		user.Department = strings.TrimSpace(*req.Department)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete removes the account. The user's complaints are kept.
func (s *UserService) Delete(ctx context.Context, identity model.Identity, id string) error {
	if !identity.IsAdmin() {
		return common.ErrForbidden
	}
	if id == identity.UserID {
		return fmt.Errorf("%w: cannot delete your own account", common.ErrForbidden)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	return nil
}
