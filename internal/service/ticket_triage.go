package service

import (
	"context"
	"errors"
	"strings"

	"github.com/quickdesk/helpdesk-api/internal/auth"
	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/events"
	"github.com/quickdesk/helpdesk-api/internal/repository"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

// ChangePriority re-prioritises a ticket. Agents and admins only.
func (s *TicketService) ChangePriority(ctx context.Context, identity domain.Identity, ticketID, rawPriority string) (*TicketView, error) {
	if err := auth.Authorize(identity, auth.ActionTriage, nil).Err(); err != nil {
		return nil, err
	}
	priority := domain.TicketPriority(strings.TrimSpace(rawPriority))
	if !priority.Valid() {
		return nil, apperrors.NewInvalidArgument("invalid priority", map[string]any{"priority": rawPriority})
	}
	ticket, err := s.loadVisible(ctx, identity, auth.ActionTriage, ticketID)
	if err != nil {
		return nil, err
	}

	updated, err := s.tickets.UpdatePriority(ctx, ticket.ID, priority, s.now())
	if err != nil {
		return nil, translateRepoError(err, "ticket")
	}
	if ticket.Priority != priority {
		s.events.publish(ctx, events.Event{
			Type:      events.EventTicketPriorityChanged,
			SubjectID: ticket.ID,
			Actor:     events.ActorOf(identity),
			Payload:   events.TicketPriorityChangedPayload{OldPriority: ticket.Priority, NewPriority: priority},
		})
	}
	return s.view(ctx, updated, nil)
}

// Assign hands a ticket to an active agent or admin. An empty assignee clears
// the assignment. Agents and admins only.
func (s *TicketService) Assign(ctx context.Context, identity domain.Identity, ticketID, assigneeID string) (*TicketView, error) {
	if err := auth.Authorize(identity, auth.ActionTriage, nil).Err(); err != nil {
		return nil, err
	}

	var assignee *string
	if trimmed := strings.TrimSpace(assigneeID); trimmed != "" {
		user, err := s.users.GetByID(ctx, trimmed)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewInvalidArgument("assignee does not exist", map[string]any{"assigneeId": trimmed})
			}
			return nil, translateRepoError(err, "user")
		}
		if !user.Active || !domain.IdentityOf(user).IsStaff() {
			return nil, apperrors.NewInvalidArgument("assignee must be an active agent or admin", map[string]any{
				"assigneeId": trimmed,
			})
		}
		assignee = &user.ID
	}

	ticket, err := s.loadVisible(ctx, identity, auth.ActionTriage, ticketID)
	if err != nil {
		return nil, err
	}
	updated, err := s.tickets.Assign(ctx, ticket.ID, assignee, s.now())
	if err != nil {
		return nil, translateRepoError(err, "ticket")
	}
	s.events.publish(ctx, events.Event{
		Type:      events.EventTicketAssigned,
		SubjectID: ticket.ID,
		Actor:     events.ActorOf(identity),
		Payload:   events.TicketAssignedPayload{PreviousID: ticket.AssignedTo, AssigneeID: assignee},
	})
	return s.view(ctx, updated, nil)
}
