package service

import (
	"context"
	"testing"

	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"
	"complaint_desk/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_Stats(t *testing.T) {
	store := repository.NewMemoryStore()
	seedUsers(t, store.Users(),
		model.User{ID: "admin", Email: "admin@x.edu", Role: model.RoleAdmin},
		model.User{ID: "alice", Email: "alice@x.edu", Role: model.RoleMember},
		model.User{ID: "bob", Email: "bob@x.edu", Role: model.RoleMember},
	)
	complaints := NewComplaintService(store.Complaints(), nil, nil, nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		c, err := complaints.Create(ctx, alice, CreateComplaintRequest{Title: "t", Description: "d", Category: "misc"})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	_, err := complaints.Transition(ctx, admin, ids[0], TransitionRequest{Status: model.StatusInProgress})
	require.NoError(t, err)
	_, err = complaints.Transition(ctx, admin, ids[1], TransitionRequest{Status: model.StatusInProgress})
	require.NoError(t, err)
	_, err = complaints.Transition(ctx, admin, ids[1], TransitionRequest{Status: model.StatusResolved})
	require.NoError(t, err)

	svc := NewAdminService(store.Users(), store.Complaints())
	stats, err := svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStats{Total: 3, Open: 1, InProgress: 1, Resolved: 1}, stats.Complaints)
	assert.Equal(t, model.UserStats{Total: 3, Members: 2, Admins: 1}, stats.Users)

	_, err = svc.Stats(ctx, alice)
	assert.ErrorIs(t, err, common.ErrForbidden)
}
