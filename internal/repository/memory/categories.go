package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/repository"
)

type categoryRepository struct {
	store *Store
}

func (r *categoryRepository) nameTaken(name, exceptID string) bool {
	for id, existing := range r.store.categories {
		if id != exceptID && strings.EqualFold(existing.Name, name) {
			return true
		}
	}
	return false
}

func (r *categoryRepository) Create(_ context.Context, category *domain.Category) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.nameTaken(category.Name, "") {
		return repository.ErrConflict
	}
	now := time.Now().UTC()
	category.ID = newID()
	category.CreatedAt = now
	category.UpdatedAt = now
	stored := *category
	s.categories[category.ID] = &stored
	return nil
}

func (r *categoryRepository) Update(_ context.Context, category *domain.Category) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[category.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(category.Name, category.ID) {
		return repository.ErrConflict
	}
	existing.Name = category.Name
	existing.Description = category.Description
	existing.Color = category.Color
	existing.Active = category.Active
	existing.UpdatedAt = time.Now().UTC()
	category.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *categoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *category
	return &out, nil
}

func (r *categoryRepository) ListActive(_ context.Context) ([]domain.Category, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Category{}
	for _, category := range s.categories {
		if category.Active {
			result = append(result, *category)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *categoryRepository) ListByIDs(_ context.Context, ids []string) ([]domain.Category, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Category{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if category, ok := s.categories[id]; ok {
			result = append(result, *category)
		}
	}
	return result, nil
}

func (r *categoryRepository) SetActive(_ context.Context, id string, active bool) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[id]
	if !ok {
		return repository.ErrNotFound
	}
	category.Active = active
	category.UpdatedAt = time.Now().UTC()
	return nil
}
