package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/events"
	"github.com/quickdesk/helpdesk-api/internal/repository"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

// Clock returns the current time. Services take one so tests can pin timestamps.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}

// publisher stamps and dispatches domain events. Dispatch failures are logged
// and never fail the operation that emitted the event.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

func newPublisher(dispatcher events.Dispatcher, logger *zap.Logger, now Clock) publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return publisher{dispatcher: dispatcher, logger: logger, now: now}
}

func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event dispatch failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
	}
}

// translateRepoError maps repository sentinels onto domain errors. Anything
// unrecognised becomes an internal error so driver details never reach clients.
func translateRepoError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict(resource+" already exists", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}

func requireCapability(identity domain.Identity, capability domain.Capability) error {
	if identity.ID == "" || !identity.Role.Valid() {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !identity.Can(capability) {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if runeLen(body) <= max {
		return body
	}
	runes := []rune(body)
	return string(runes[:max]) + "..."
}

func validationFailed(field, message string) error {
	return apperrors.NewValidationError(message, map[string]any{"field": field})
}
