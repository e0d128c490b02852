package memory

import (
	"context"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/repository"
)

type ticketHistoryRepository struct {
	store *Store
}

func cloneHistory(h domain.TicketHistory) domain.TicketHistory {
	h.OldValue = clonePtr(h.OldValue)
	h.NewValue = clonePtr(h.NewValue)
	return h
}

func (r *ticketHistoryRepository) Create(_ context.Context, history *domain.TicketHistory) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[history.TicketID]; !ok {
		return repository.ErrNotFound
	}
	history.ID = newID()
	s.history[history.TicketID] = append(s.history[history.TicketID], cloneHistory(*history))
	return nil
}

func (r *ticketHistoryRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[ticketID]
	out := make([]domain.TicketHistory, 0, len(entries))
	for _, entry := range entries {
		out = append(out, cloneHistory(entry))
	}
	return out, nil
}
