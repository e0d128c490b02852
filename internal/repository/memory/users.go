package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/repository"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrConflict
		}
	}
	now := time.Now().UTC()
	user.ID = newID()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt
	stored := *user
	s.users[user.ID] = &stored
	s.userSeq++
	s.userOrd[user.ID] = s.userSeq
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			out := *user
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) ListByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.User{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if user, ok := s.users[id]; ok {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (r *userRepository) ListActive(_ context.Context) ([]domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.User{}
	for _, user := range s.users {
		if user.Active {
			result = append(result, *user)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return s.userOrd[result[i].ID] > s.userOrd[result[j].ID]
	})
	return result, nil
}

func (r *userRepository) UpdateRole(_ context.Context, id string, role domain.Role, at time.Time) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user.Role = role
	user.UpdatedAt = at
	out := *user
	return &out, nil
}

func (r *userRepository) UpdatePassword(_ context.Context, id, passwordHash string, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = at
	return nil
}

func (r *userRepository) Deactivate(_ context.Context, id string, at time.Time) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user.Active = false
	user.UpdatedAt = at
	out := *user
	return &out, nil
}
