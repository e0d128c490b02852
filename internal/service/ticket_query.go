package service

import (
	"context"
	"strings"

	"github.com/quickdesk/helpdesk-api/internal/auth"
	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/repository"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

// Paging defaults.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListTicketsInput is the raw listing request. Blank filters are not applied.
type ListTicketsInput struct {
	Status        string
	CategoryID    string
	Priority      string
	Search        string
	MyTicketsOnly bool
	SortBy        string
	SortOrder     string
	Page          int
	PageSize      int
}

// TicketPage is one page of a listing.
type TicketPage struct {
	Items      []TicketView
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// buildTicketQuery validates paging and filters and applies role scoping. Plain
// users are always pinned to their own tickets; staff may opt in to that narrowing.
func buildTicketQuery(identity domain.Identity, input ListTicketsInput) (repository.TicketQuery, error) {
	if input.Page < 1 {
		return repository.TicketQuery{}, apperrors.NewValidationError("page must be at least 1", map[string]any{
			"field": "page",
		})
	}
	if input.PageSize <= 0 || input.PageSize > MaxPageSize {
		return repository.TicketQuery{}, apperrors.NewValidationError("limit must be between 1 and 100", map[string]any{
			"field": "limit",
		})
	}

	query := repository.TicketQuery{
		SortField: repository.SortCreatedAt,
		SortDesc:  true,
		Limit:     input.PageSize,
		Offset:    (input.Page - 1) * input.PageSize,
	}

	if !identity.IsStaff() || input.MyTicketsOnly {
		owner := identity.ID
		query.CreatedBy = &owner
	}

	if raw := strings.TrimSpace(input.Status); raw != "" {
		status := domain.TicketStatus(raw)
		if !status.Valid() {
			return repository.TicketQuery{}, apperrors.NewValidationError("unknown status filter", map[string]any{
				"field": "status",
				"value": raw,
			})
		}
		query.Status = &status
	}
	if raw := strings.TrimSpace(input.Priority); raw != "" {
		priority := domain.TicketPriority(raw)
		if !priority.Valid() {
			return repository.TicketQuery{}, apperrors.NewValidationError("unknown priority filter", map[string]any{
				"field": "priority",
				"value": raw,
			})
		}
		query.Priority = &priority
	}
	if raw := strings.TrimSpace(input.CategoryID); raw != "" {
		query.CategoryID = &raw
	}
	if raw := strings.TrimSpace(input.Search); raw != "" {
		query.Search = &raw
	}

	if field := repository.SortField(strings.TrimSpace(input.SortBy)); field.Known() {
		query.SortField = field
	}
	query.SortDesc = !strings.EqualFold(strings.TrimSpace(input.SortOrder), "asc")
	return query, nil
}

// List returns the caller's visible tickets, filtered, sorted and paginated.
// Pages past the end are empty, not an error.
func (s *TicketService) List(ctx context.Context, identity domain.Identity, input ListTicketsInput) (*TicketPage, error) {
	if err := auth.Authorize(identity, auth.ActionViewTicket, nil).Err(); err != nil {
		return nil, err
	}
	query, err := buildTicketQuery(identity, input)
	if err != nil {
		return nil, err
	}

	tickets, total, err := s.tickets.List(ctx, query)
	if err != nil {
		return nil, translateRepoError(err, "ticket")
	}
	items, err := s.populate(ctx, tickets)
	if err != nil {
		return nil, err
	}
	return &TicketPage{
		Items:      items,
		Total:      total,
		Page:       input.Page,
		PageSize:   input.PageSize,
		TotalPages: totalPages(total, input.PageSize),
	}, nil
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
