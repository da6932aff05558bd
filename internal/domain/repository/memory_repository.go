package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"
)

// MemoryStore keeps users and complaints in process memory. It backs the
// "memory" store driver and the HTTP tests.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]model.User
	complaints map[string]model.Complaint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]model.User),
		complaints: make(map[string]model.Complaint),
	}
}

func (m *MemoryStore) Users() UserRepository {
	return memoryUserRepository{m}
}

func (m *MemoryStore) Complaints() ComplaintRepository {
	return memoryComplaintRepository{m}
}

type memoryUserRepository struct{ m *MemoryStore }

func (r memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, common.ErrDuplicateEmail)
		}
	}
	r.m.users[user.ID] = *user
	return nil
}

func (r memoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r memoryUserRepository) List(_ context.Context, limit, offset int) ([]model.User, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	users := make([]model.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return page(users, limit, offset), len(users), nil
}

func (r memoryUserRepository) Update(_ context.Context, user *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.users[user.ID]
	if !ok {
		return common.ErrNotFound
	}
	existing.Name = user.Name
	existing.Department = user.Department
	existing.Role = user.Role
	existing.UpdatedAt = user.UpdatedAt
	r.m.users[user.ID] = existing
	return nil
}

func (r memoryUserRepository) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.m.users, id)
	return nil
}

func (r memoryUserRepository) CountByRole(_ context.Context) (map[model.Role]int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	counts := map[model.Role]int{}
	for _, u := range r.m.users {
		counts[u.Role]++
	}
	return counts, nil
}

type memoryComplaintRepository struct{ m *MemoryStore }

func (r memoryComplaintRepository) Create(_ context.Context, c *model.Complaint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.complaints[c.ID] = *c
	return nil
}

func (r memoryComplaintRepository) FindByID(_ context.Context, id string) (*model.Complaint, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.complaints[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (r memoryComplaintRepository) List(_ context.Context, filter model.ComplaintFilter) ([]model.Complaint, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var matched []model.Complaint
	for _, c := range r.m.complaints {
		if filter.OwnerID != "" && c.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r memoryComplaintRepository) UpdateDetails(_ context.Context, c *model.Complaint, expected model.ComplaintStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, err := r.guard(c.ID, expected)
	if err != nil {
		return err
	}
	existing.Title = c.Title
	existing.Description = c.Description
	existing.Category = c.Category
	existing.Priority = c.Priority
	existing.UpdatedAt = c.UpdatedAt
	r.m.complaints[c.ID] = existing
	return nil
}

func (r memoryComplaintRepository) UpdateStatus(_ context.Context, c *model.Complaint, expected model.ComplaintStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, err := r.guard(c.ID, expected)
	if err != nil {
		return err
	}
	existing.Status = c.Status
	existing.AdminResponse = c.AdminResponse
	existing.ResolvedAt = c.ResolvedAt
	existing.UpdatedAt = c.UpdatedAt
	r.m.complaints[c.ID] = existing
	return nil
}

func (r memoryComplaintRepository) Delete(_ context.Context, id string, expected model.ComplaintStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, err := r.guard(id, expected); err != nil {
		return err
	}
	delete(r.m.complaints, id)
	return nil
}

// guard must be called with the write lock held.
func (r memoryComplaintRepository) guard(id string, expected model.ComplaintStatus) (model.Complaint, error) {
	existing, ok := r.m.complaints[id]
	if !ok {
		return model.Complaint{}, common.ErrNotFound
	}
	if existing.Status != expected {
		return model.Complaint{}, fmt.Errorf("complaint %s is %s, not %s: %w", id, existing.Status, expected, common.ErrConflict)
	}
	return existing, nil
}

func (r memoryComplaintRepository) CountByStatus(_ context.Context) (map[model.ComplaintStatus]int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	counts := map[model.ComplaintStatus]int{}
	for _, c := range r.m.complaints {
		counts[c.Status]++
	}
	return counts, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
