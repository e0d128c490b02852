package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/auth"
	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/events"
	"github.com/quickdesk/helpdesk-api/internal/repository"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

// UserService is the admin-facing account management surface.
type UserService struct {
	users  repository.UserRepository
	events publisher
	now    Clock
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	now := clockOrDefault(deps.Clock)
	return &UserService{
		users:  deps.UserRepo,
		events: newPublisher(deps.Dispatcher, deps.Logger, now),
		now:    now,
	}
}

// ListActive returns active accounts newest first. Admin only.
func (s *UserService) ListActive(ctx context.Context, identity domain.Identity) ([]domain.User, error) {
	if err := auth.Authorize(identity, auth.ActionManageUsers, nil).Err(); err != nil {
		return nil, err
	}
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, translateRepoError(err, "user")
	}
	return users, nil
}

// ChangeRole sets a user's role directly. Admin only.
func (s *UserService) ChangeRole(ctx context.Context, identity domain.Identity, userID, rawRole string) (*domain.User, error) {
	if err := auth.Authorize(identity, auth.ActionManageUsers, nil).Err(); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return nil, apperrors.NewInvalidArgument("invalid role", map[string]any{"role": rawRole})
	}
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, translateRepoError(err, "user")
	}
	updated, err := s.users.UpdateRole(ctx, userID, role, s.now())
	if err != nil {
		return nil, translateRepoError(err, "user")
	}
	if current.Role != role {
		s.events.publish(ctx, events.Event{
			Type:      events.EventUserRoleChanged,
			SubjectID: userID,
			Actor:     events.ActorOf(identity),
			Payload:   events.UserRoleChangedPayload{OldRole: current.Role, NewRole: role},
		})
	}
	return updated, nil
}

// Deactivate soft-deletes an account. Admins cannot deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, identity domain.Identity, userID string) error {
	if err := auth.Authorize(identity, auth.ActionManageUsers, nil).Err(); err != nil {
		return err
	}
	if userID == identity.ID {
		return apperrors.NewInvalidArgument("cannot deactivate your own account", nil)
	}
	if _, err := s.users.Deactivate(ctx, userID, s.now()); err != nil {
		return translateRepoError(err, "user")
	}
	s.events.publish(ctx, events.Event{
		Type:      events.EventUserDeactivated,
		SubjectID: userID,
		Actor:     events.ActorOf(identity),
	})
	return nil
}
