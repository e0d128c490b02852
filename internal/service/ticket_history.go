package service

import (
	"context"

	"github.com/quickdesk/helpdesk-api/internal/auth"
	"github.com/quickdesk/helpdesk-api/internal/domain"
)

// HistoryEntryView is an activity log entry with its actor populated.
type HistoryEntryView struct {
	domain.TicketHistory
	Actor *domain.UserRef
}

// History returns the ticket's activity log, oldest first. Only staff may read it.
func (s *TicketService) History(ctx context.Context, identity domain.Identity, ticketID string) ([]HistoryEntryView, error) {
	if err := auth.Authorize(identity, auth.ActionViewHistory, nil).Err(); err != nil {
		return nil, err
	}
	ticket, err := s.loadVisible(ctx, identity, auth.ActionViewHistory, ticketID)
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return []HistoryEntryView{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, translateRepoError(err, "ticket history")
	}

	actorIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		actorIDs = append(actorIDs, entry.ActorID)
	}
	actors, err := userRefs(ctx, s.users, actorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]HistoryEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, HistoryEntryView{TicketHistory: entry, Actor: actors.lookup(entry.ActorID)})
	}
	return views, nil
}
