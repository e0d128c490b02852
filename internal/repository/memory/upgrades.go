package memory

import (
	"context"
	"sort"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/repository"
)

type upgradeRequestRepository struct {
	store *Store
}

func cloneUpgrade(u *domain.UpgradeRequest) *domain.UpgradeRequest {
	out := *u
	out.ReviewedBy = clonePtr(u.ReviewedBy)
	out.ReviewedAt = clonePtr(u.ReviewedAt)
	return &out
}

func (r *upgradeRequestRepository) CreatePending(_ context.Context, request *domain.UpgradeRequest) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[request.UserID]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range s.upgrades {
		if existing.UserID == request.UserID && existing.Status == domain.UpgradeStatusPending {
			return repository.ErrConflict
		}
	}
	s.upgradeSeq++
	request.ID = newID()
	request.Status = domain.UpgradeStatusPending
	request.AdminNotes = ""
	request.ReviewedBy = nil
	request.ReviewedAt = nil
	request.UpdatedAt = request.CreatedAt
	s.upgrades[request.ID] = cloneUpgrade(request)
	s.upgradeOrd[request.ID] = s.upgradeSeq
	return nil
}

func (r *upgradeRequestRepository) GetByID(_ context.Context, id string) (*domain.UpgradeRequest, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.upgrades[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUpgrade(request), nil
}

func (r *upgradeRequestRepository) List(_ context.Context) ([]domain.UpgradeRequest, error) {
	return r.collect(func(*domain.UpgradeRequest) bool { return true }), nil
}

func (r *upgradeRequestRepository) ListByUser(_ context.Context, userID string) ([]domain.UpgradeRequest, error) {
	return r.collect(func(u *domain.UpgradeRequest) bool { return u.UserID == userID }), nil
}

func (r *upgradeRequestRepository) collect(keep func(*domain.UpgradeRequest) bool) []domain.UpgradeRequest {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.UpgradeRequest{}
	for _, request := range s.upgrades {
		if keep(request) {
			result = append(result, *cloneUpgrade(request))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return s.upgradeOrd[result[i].ID] > s.upgradeOrd[result[j].ID]
	})
	return result
}

func (r *upgradeRequestRepository) Review(_ context.Context, id string, review domain.UpgradeReview) (*domain.UpgradeRequest, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.upgrades[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if request.Status != domain.UpgradeStatusPending {
		return nil, repository.ErrAlreadyReviewed
	}
	if review.Decision == domain.UpgradeStatusApproved {
		user, ok := s.users[request.UserID]
		if !ok || !user.Active || user.Role != request.CurrentRole {
			return nil, repository.ErrRoleChanged
		}
		user.Role = request.RequestedRole
		user.UpdatedAt = review.ReviewedAt
	}
	reviewer := review.ReviewerID
	at := review.ReviewedAt
	request.Status = review.Decision
	request.AdminNotes = review.AdminNotes
	request.ReviewedBy = &reviewer
	request.ReviewedAt = &at
	request.UpdatedAt = at
	return cloneUpgrade(request), nil
}
