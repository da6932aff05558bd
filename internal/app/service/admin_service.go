package service

import (
	"context"
	"fmt"

	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"
	"complaint_desk/internal/domain/repository"
)

type AdminService struct {
	userRepo      repository.UserRepository
	complaintRepo repository.ComplaintRepository
}

func NewAdminService(userRepo repository.UserRepository, complaintRepo repository.ComplaintRepository) *AdminService {
	return &AdminService{userRepo: userRepo, complaintRepo: complaintRepo}
}

type StatsResponse struct {
	Complaints model.ComplaintStats `json:"complaints"`
	Users      model.UserStats      `json:"users"`
}

func (s *AdminService) Stats(ctx context.Context, identity model.Identity) (*StatsResponse, error) {
	if !identity.IsAdmin() {
		return nil, common.ErrForbidden
	}

	byStatus, err := s.complaintRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count complaints: %w", err)
	}
	byRole, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	resp := &StatsResponse{
		Complaints: model.ComplaintStats{
			Open:       byStatus[model.StatusOpen],
			InProgress: byStatus[model.StatusInProgress],
			Resolved:   byStatus[model.StatusResolved],
		},
		Users: model.UserStats{
			Members: byRole[model.RoleMember],
			Admins:  byRole[model.RoleAdmin],
		},
	}
	for _, n := range byStatus {
		resp.Complaints.Total += n
	}
	for _, n := range byRole {
		resp.Users.Total += n
	}
	return resp, nil
}
