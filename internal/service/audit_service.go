package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/events"
	"github.com/quickdesk/helpdesk-api/internal/repository"
)

// AuditService writes every domain event to the structured log and records
// ticket events in the ticket activity log.
type AuditService struct {
	dispatcher events.Dispatcher
	history    repository.TicketHistoryRepository
	logger     *zap.Logger
}

// NewAuditService creates the service. A nil history repository disables the
// activity log and keeps the structured log only.
func NewAuditService(dispatcher events.Dispatcher, history repository.TicketHistoryRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		history:    history,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	events.SubscribeAll(a.dispatcher, a.handle)
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.Actor.UserID),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("payload", event.Payload))

	if a.history == nil {
		return nil
	}
	entry, ok := historyEntry(event)
	if !ok {
		return nil
	}
	if err := a.history.Create(ctx, entry); err != nil {
		a.logger.Warn("record ticket history failed",
			zap.String("ticket_id", event.SubjectID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}

// historyEntry maps a ticket event onto an activity log entry. Votes are not recorded.
func historyEntry(event events.Event) (*domain.TicketHistory, bool) {
	entry := &domain.TicketHistory{
		TicketID:  event.SubjectID,
		ActorID:   event.Actor.UserID,
		ActorRole: event.Actor.Role,
		CreatedAt: event.Timestamp,
	}
	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		entry.ChangeType = domain.TicketChangeCreated
		entry.NewValue = stringPtr(payload.TicketNumber)
	case events.TicketStatusChangedPayload:
		entry.ChangeType = domain.TicketChangeStatus
		entry.OldValue = stringPtr(string(payload.OldStatus))
		entry.NewValue = stringPtr(string(payload.NewStatus))
	case events.TicketPriorityChangedPayload:
		entry.ChangeType = domain.TicketChangePriority
		entry.OldValue = stringPtr(string(payload.OldPriority))
		entry.NewValue = stringPtr(string(payload.NewPriority))
	case events.TicketAssignedPayload:
		entry.ChangeType = domain.TicketChangeAssignee
		entry.OldValue = payload.PreviousID
		entry.NewValue = payload.AssigneeID
	case events.TicketCommentAddedPayload:
		entry.ChangeType = domain.TicketChangeComment
		entry.NewValue = stringPtr(payload.CommentID)
	default:
		return nil, false
	}
	return entry, true
}

func stringPtr(s string) *string {
	return &s
}
