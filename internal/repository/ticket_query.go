package repository

import "github.com/quickdesk/helpdesk-api/internal/domain"

// SortField names a sortable ticket attribute.
type SortField string

const (
	SortCreatedAt    SortField = "createdAt"
	SortUpdatedAt    SortField = "updatedAt"
	SortTicketNumber SortField = "ticketNumber"
	SortSubject      SortField = "subject"
	SortStatus       SortField = "status"
	SortPriority     SortField = "priority"
)

// Known reports whether f is a supported sort field.
func (f SortField) Known() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortTicketNumber, SortSubject, SortStatus, SortPriority:
		return true
	}
	return false
}

// TicketQuery is a normalized, already-scoped listing request. Nil filters are
// not applied. Ties on the sort field are broken by ticket number ascending,
// which is insertion order.
type TicketQuery struct {
	CreatedBy  *string
	Status     *domain.TicketStatus
	CategoryID *string
	Priority   *domain.TicketPriority
	Search     *string
	SortField  SortField
	SortDesc   bool
	Limit      int
	Offset     int
}
