package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/events"
	"github.com/quickdesk/helpdesk-api/internal/repository"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

// UpgradeService runs the role upgrade request workflow:
// pending -> approved | rejected, both terminal.
type UpgradeService struct {
	requests repository.UpgradeRequestRepository
	users    repository.UserRepository
	events   publisher
	logger   *zap.Logger
	now      Clock
}

// UpgradeDependencies bundles collaborators for the upgrade service.
type UpgradeDependencies struct {
	UpgradeRepo repository.UpgradeRequestRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       Clock
}

// UpgradeRequestInput is the create payload. CurrentRole is optional; when
// present it must match the caller's stored role.
type UpgradeRequestInput struct {
	CurrentRole   string
	RequestedRole string
	Reason        string
}

// UpgradeReviewInput is the review payload.
type UpgradeReviewInput struct {
	Status     string
	AdminNotes string
}

// UpgradeRequestView is a request with its reviewer populated.
type UpgradeRequestView struct {
	domain.UpgradeRequest
	Reviewer *domain.UserRef
}

// NewUpgradeService constructs the service.
func NewUpgradeService(deps UpgradeDependencies) *UpgradeService {
	now := clockOrDefault(deps.Clock)
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpgradeService{
		requests: deps.UpgradeRepo,
		users:    deps.UserRepo,
		events:   newPublisher(deps.Dispatcher, logger, now),
		logger:   logger,
		now:      now,
	}
}

// Create files a pending request for the caller.
func (s *UpgradeService) Create(ctx context.Context, identity domain.Identity, input UpgradeRequestInput) (*UpgradeRequestView, error) {
	user, err := s.users.GetByID(ctx, identity.ID)
	if err != nil {
		return nil, translateRepoError(err, "user")
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, validationFailed("reason", "reason is required")
	}
	if input.CurrentRole != "" && domain.Role(input.CurrentRole) != user.Role {
		return nil, apperrors.NewInvalidArgument("current role does not match your account", map[string]any{
			"currentRole": user.Role,
		})
	}
	target, ok := user.Role.UpgradeTarget()
	if !ok {
		return nil, apperrors.NewInvalidArgument("admin users cannot request upgrades", nil)
	}
	if domain.Role(input.RequestedRole) != target {
		return nil, apperrors.NewInvalidArgument("invalid upgrade path", map[string]any{
			"currentRole":   user.Role,
			"allowedTarget": target,
		})
	}

	request := &domain.UpgradeRequest{
		UserID:        user.ID,
		UserName:      user.Name,
		UserEmail:     user.Email,
		CurrentRole:   user.Role,
		RequestedRole: target,
		Reason:        reason,
		CreatedAt:     s.now(),
	}
	if err := s.requests.CreatePending(ctx, request); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("you already have a pending upgrade request", nil)
		}
		return nil, translateRepoError(err, "upgrade request")
	}

	s.events.publish(ctx, events.Event{
		Type:      events.EventUpgradeRequested,
		SubjectID: request.ID,
		Actor:     events.ActorOf(identity),
		Payload: events.UpgradeRequestedPayload{
			UserID:        user.ID,
			CurrentRole:   request.CurrentRole,
			RequestedRole: request.RequestedRole,
		},
	})
	return &UpgradeRequestView{UpgradeRequest: *request}, nil
}

// List returns every request, newest first. Admin only.
func (s *UpgradeService) List(ctx context.Context, identity domain.Identity) ([]UpgradeRequestView, error) {
	if err := requireCapability(identity, domain.CapReviewUpgrades); err != nil {
		return nil, err
	}
	requests, err := s.requests.List(ctx)
	if err != nil {
		return nil, translateRepoError(err, "upgrade request")
	}
	return s.populate(ctx, requests)
}

// Mine returns the caller's own requests, newest first.
func (s *UpgradeService) Mine(ctx context.Context, identity domain.Identity) ([]UpgradeRequestView, error) {
	requests, err := s.requests.ListByUser(ctx, identity.ID)
	if err != nil {
		return nil, translateRepoError(err, "upgrade request")
	}
	return s.populate(ctx, requests)
}

// Review approves or rejects a pending request. Admin only. Approval changes the
// requester's role in the same atomic write as the status change.
func (s *UpgradeService) Review(ctx context.Context, identity domain.Identity, id string, input UpgradeReviewInput) (*UpgradeRequestView, error) {
	if err := requireCapability(identity, domain.CapReviewUpgrades); err != nil {
		return nil, err
	}
	decision := domain.UpgradeStatus(input.Status)
	if !decision.Terminal() {
		return nil, apperrors.NewInvalidArgument("status must be approved or rejected", map[string]any{
			"status": input.Status,
		})
	}

	reviewed, err := s.requests.Review(ctx, id, domain.UpgradeReview{
		Decision:   decision,
		AdminNotes: strings.TrimSpace(input.AdminNotes),
		ReviewerID: identity.ID,
		ReviewedAt: s.now(),
	})
	switch {
	case errors.Is(err, repository.ErrAlreadyReviewed):
		return nil, apperrors.NewConflict("upgrade request already reviewed", nil)
	case errors.Is(err, repository.ErrRoleChanged):
		return nil, apperrors.NewConflict("requester no longer holds the role this request was filed from", nil)
	case err != nil:
		return nil, translateRepoError(err, "upgrade request")
	}

	s.logger.Info("upgrade request reviewed",
		zap.String("request_id", reviewed.ID),
		zap.String("decision", string(decision)),
		zap.String("reviewer_id", identity.ID))
	actor := events.ActorOf(identity)
	s.events.publish(ctx, events.Event{
		Type:      events.EventUpgradeReviewed,
		SubjectID: reviewed.ID,
		Actor:     actor,
		Payload: events.UpgradeReviewedPayload{
			UserID:        reviewed.UserID,
			RequestedRole: reviewed.RequestedRole,
			Decision:      decision,
		},
	})
	if decision == domain.UpgradeStatusApproved {
		s.events.publish(ctx, events.Event{
			Type:      events.EventUserRoleChanged,
			SubjectID: reviewed.UserID,
			Actor:     actor,
			Payload:   events.UserRoleChangedPayload{OldRole: reviewed.CurrentRole, NewRole: reviewed.RequestedRole},
		})
	}

	views, err := s.populate(ctx, []domain.UpgradeRequest{*reviewed})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *UpgradeService) populate(ctx context.Context, requests []domain.UpgradeRequest) ([]UpgradeRequestView, error) {
	ids := make([]string, 0, len(requests))
	for _, request := range requests {
		if request.ReviewedBy != nil {
			ids = append(ids, *request.ReviewedBy)
		}
	}
	refs, err := userRefs(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	views := make([]UpgradeRequestView, 0, len(requests))
	for _, request := range requests {
		view := UpgradeRequestView{UpgradeRequest: request}
		if request.ReviewedBy != nil {
			view.Reviewer = refs.lookup(*request.ReviewedBy)
		}
		views = append(views, view)
	}
	return views, nil
}
