package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/repository"
)

type ticketRepository struct {
	store *Store
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	out := *t
	out.Attachments = cloneAttachments(t.Attachments)
	out.Upvotes = cloneStrings(t.Upvotes)
	out.Downvotes = cloneStrings(t.Downvotes)
	out.Tags = cloneStrings(t.Tags)
	out.AssignedTo = clonePtr(t.AssignedTo)
	out.ResolvedAt = clonePtr(t.ResolvedAt)
	out.ClosedAt = clonePtr(t.ClosedAt)
	out.Comments = nil
	return &out
}

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[ticket.CategoryID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.users[ticket.CreatedBy]; !ok {
		return repository.ErrNotFound
	}
	if ticket.ID == "" {
		ticket.ID = newID()
	}
	if _, exists := s.tickets[ticket.ID]; exists {
		return repository.ErrConflict
	}
	s.ticketSeq++
	ticket.Number = s.ticketSeq
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	s.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (r *ticketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTicket(ticket), nil
}

func (r *ticketRepository) List(_ context.Context, query repository.TicketQuery) ([]domain.Ticket, int, error) {
	s := r.store
	s.mu.RLock()
	matched := make([]*domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		if matches(ticket, query) {
			matched = append(matched, cloneTicket(ticket))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		c := compareTickets(matched[i], matched[j], query.SortField)
		if c != 0 {
			if query.SortDesc {
				return c > 0
			}
			return c < 0
		}
		return matched[i].Number < matched[j].Number
	})

	total := len(matched)
	result := []domain.Ticket{}
	if query.Offset >= total {
		return result, total, nil
	}
	end := total
	if query.Limit > 0 && query.Offset+query.Limit < end {
		end = query.Offset + query.Limit
	}
	for _, ticket := range matched[query.Offset:end] {
		result = append(result, *ticket)
	}
	return result, total, nil
}

func matches(t *domain.Ticket, q repository.TicketQuery) bool {
	if q.CreatedBy != nil && t.CreatedBy != *q.CreatedBy {
		return false
	}
	if q.Status != nil && t.Status != *q.Status {
		return false
	}
	if q.CategoryID != nil && t.CategoryID != *q.CategoryID {
		return false
	}
	if q.Priority != nil && t.Priority != *q.Priority {
		return false
	}
	if q.Search != nil {
		term := strings.ToLower(*q.Search)
		if !strings.Contains(strings.ToLower(t.Subject), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) &&
			!strings.Contains(strings.ToLower(t.TicketNumber()), term) {
			return false
		}
	}
	return true
}

func compareTickets(a, b *domain.Ticket, field repository.SortField) int {
	switch field {
	case repository.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case repository.SortTicketNumber:
		return compareInt(a.Number, b.Number)
	case repository.SortSubject:
		return strings.Compare(strings.ToLower(a.Subject), strings.ToLower(b.Subject))
	case repository.SortStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case repository.SortPriority:
		return compareInt(int64(a.Priority.Rank()), int64(b.Priority.Rank()))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r *ticketRepository) mutate(id string, fn func(t *domain.Ticket)) (*domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(ticket)
	return cloneTicket(ticket), nil
}

func (r *ticketRepository) UpdateStatus(_ context.Context, id string, status domain.TicketStatus, at time.Time) (*domain.Ticket, error) {
	return r.mutate(id, func(t *domain.Ticket) {
		t.Status = status
		switch status {
		case domain.TicketStatusResolved:
			stamp := at
			t.ResolvedAt = &stamp
		case domain.TicketStatusClosed:
			stamp := at
			t.ClosedAt = &stamp
		}
		t.UpdatedAt = at
	})
}

func (r *ticketRepository) UpdatePriority(_ context.Context, id string, priority domain.TicketPriority, at time.Time) (*domain.Ticket, error) {
	return r.mutate(id, func(t *domain.Ticket) {
		t.Priority = priority
		t.UpdatedAt = at
	})
}

func (r *ticketRepository) Assign(_ context.Context, id string, assigneeID *string, at time.Time) (*domain.Ticket, error) {
	return r.mutate(id, func(t *domain.Ticket) {
		t.AssignedTo = clonePtr(assigneeID)
		t.UpdatedAt = at
	})
}

func (r *ticketRepository) Vote(_ context.Context, id, userID string, direction domain.VoteDirection, at time.Time) (domain.VoteTally, error) {
	ticket, err := r.mutate(id, func(t *domain.Ticket) {
		t.Upvotes = without(t.Upvotes, userID)
		t.Downvotes = without(t.Downvotes, userID)
		if direction == domain.VoteUp {
			t.Upvotes = append(t.Upvotes, userID)
		} else {
			t.Downvotes = append(t.Downvotes, userID)
		}
		t.UpdatedAt = at
	})
	if err != nil {
		return domain.VoteTally{}, err
	}
	return domain.VoteTally{
		Upvotes:   len(ticket.Upvotes),
		Downvotes: len(ticket.Downvotes),
		UserVote:  direction,
	}, nil
}

func without(values []string, target string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

func (r *ticketRepository) AddComment(_ context.Context, comment *domain.Comment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[comment.TicketID]
	if !ok {
		return repository.ErrNotFound
	}
	s.commentSeq++
	comment.ID = newID()
	comment.Seq = s.commentSeq
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	stored := *comment
	stored.Attachments = cloneAttachments(comment.Attachments)
	s.comments[comment.TicketID] = append(s.comments[comment.TicketID], stored)
	ticket.UpdatedAt = comment.CreatedAt
	return nil
}

func (r *ticketRepository) ListComments(_ context.Context, ticketID string) ([]domain.Comment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.comments[ticketID]
	result := make([]domain.Comment, 0, len(stored))
	for _, comment := range stored {
		comment.Attachments = cloneAttachments(comment.Attachments)
		result = append(result, comment)
	}
	return result, nil
}
