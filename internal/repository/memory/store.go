// Package memory holds map-backed repositories used when no database is
// configured and in tests. All repositories built from one Store share a single
// lock so cross-aggregate writes such as upgrade approval stay atomic.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/repository"
)

// Store is the shared in-memory state.
type Store struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	categories map[string]*domain.Category
	tickets    map[string]*domain.Ticket
	comments   map[string][]domain.Comment
	upgrades   map[string]*domain.UpgradeRequest
	history    map[string][]domain.TicketHistory

	ticketSeq  int64
	commentSeq int64
	upgradeSeq int64
	upgradeOrd map[string]int64
	userOrd    map[string]int64
	userSeq    int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]*domain.User),
		categories: make(map[string]*domain.Category),
		tickets:    make(map[string]*domain.Ticket),
		comments:   make(map[string][]domain.Comment),
		upgrades:   make(map[string]*domain.UpgradeRequest),
		history:    make(map[string][]domain.TicketHistory),
		upgradeOrd: make(map[string]int64),
		userOrd:    make(map[string]int64),
	}
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return &userRepository{store: s} }

// Categories returns the category repository view.
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepository{store: s} }

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return &ticketRepository{store: s} }

// UpgradeRequests returns the upgrade request repository view.
func (s *Store) UpgradeRequests() repository.UpgradeRequestRepository {
	return &upgradeRequestRepository{store: s}
}

// TicketHistory returns the ticket activity log view.
func (s *Store) TicketHistory() repository.TicketHistoryRepository {
	return &ticketHistoryRepository{store: s}
}

func newID() string {
	return uuid.NewString()
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneAttachments(values []domain.Attachment) []domain.Attachment {
	out := make([]domain.Attachment, len(values))
	copy(out, values)
	return out
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
