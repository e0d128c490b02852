package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/helpdesk-api/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Create keeps a caller-chosen
// ID so attachment keys can embed it before the row exists. Every mutator is a
// single atomic write against one ticket so concurrent requests never lose updates.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, query TicketQuery) ([]domain.Ticket, int, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, at time.Time) (*domain.Ticket, error)
	UpdatePriority(ctx context.Context, id string, priority domain.TicketPriority, at time.Time) (*domain.Ticket, error)
	Assign(ctx context.Context, id string, assigneeID *string, at time.Time) (*domain.Ticket, error)
	Vote(ctx context.Context, id, userID string, direction domain.VoteDirection, at time.Time) (domain.VoteTally, error)
	AddComment(ctx context.Context, comment *domain.Comment) error
	ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, subject, description, category_id, priority, status,
               created_by, assigned_to, attachments, upvotes, downvotes, tags,
               resolved_at, closed_at, created_at, updated_at`

// ticketNumberText renders ticket_number the way domain.FormatTicketNumber does.
const ticketNumberText = `('QD-' || LPAD(ticket_number::text, GREATEST(6, LENGTH(ticket_number::text)), '0'))`

var sortExpressions = map[SortField]string{
	SortCreatedAt:    "created_at",
	SortUpdatedAt:    "updated_at",
	SortTicketNumber: "ticket_number",
	SortSubject:      "LOWER(subject)",
	SortStatus:       "status",
	SortPriority:     "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'urgent' THEN 4 ELSE 0 END",
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, subject, description, category_id, priority, status, created_by,
                             assigned_to, attachments, tags, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
        RETURNING ticket_number, updated_at`
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Subject,
		ticket.Description,
		ticket.CategoryID,
		ticket.Priority,
		ticket.Status,
		ticket.CreatedBy,
		ticket.AssignedTo,
		nonNilAttachments(ticket.Attachments),
		nonNilStrings(ticket.Tags),
		ticket.CreatedAt,
	).Scan(&ticket.Number, &ticket.UpdatedAt)
	return translatePgError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketQuery) ([]domain.Ticket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id::text=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Search != nil {
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(subject ILIKE %[1]s OR description ILIKE %[1]s OR %[2]s ILIKE %[1]s)",
			placeholder, ticketNumberText))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, translatePgError(err)
	}

	sortExpr, ok := sortExpressions[filter.SortField]
	if !ok {
		sortExpr = sortExpressions[SortCreatedAt]
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s %s, ticket_number ASC LIMIT $%d OFFSET $%d`,
		ticketColumns, where, sortExpr, direction, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translatePgError(err)
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, at time.Time) (*domain.Ticket, error) {
	// resolved_at and closed_at are stamped on entry and never cleared.
	const query = `
        UPDATE tickets SET
            status=$2::text,
            resolved_at = CASE WHEN $2::text = 'resolved' THEN $3::timestamptz ELSE resolved_at END,
            closed_at   = CASE WHEN $2::text = 'closed' THEN $3::timestamptz ELSE closed_at END,
            updated_at=$3
        WHERE id=$1
        RETURNING ` + ticketColumns
	return scanTicket(r.pool.QueryRow(ctx, query, id, string(status), at))
}

func (r *ticketRepository) UpdatePriority(ctx context.Context, id string, priority domain.TicketPriority, at time.Time) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET priority=$2, updated_at=$3
        WHERE id=$1
        RETURNING ` + ticketColumns
	return scanTicket(r.pool.QueryRow(ctx, query, id, priority, at))
}

func (r *ticketRepository) Assign(ctx context.Context, id string, assigneeID *string, at time.Time) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET assigned_to=$2, updated_at=$3
        WHERE id=$1
        RETURNING ` + ticketColumns
	return scanTicket(r.pool.QueryRow(ctx, query, id, assigneeID, at))
}

func (r *ticketRepository) Vote(ctx context.Context, id, userID string, direction domain.VoteDirection, at time.Time) (domain.VoteTally, error) {
	// Clear-then-add happens inside one UPDATE, so the row lock serializes
	// concurrent votes on the same ticket.
	const query = `
        UPDATE tickets SET
            upvotes = CASE WHEN $3::text = 'up'
                THEN array_append(array_remove(upvotes, $2::text), $2::text)
                ELSE array_remove(upvotes, $2::text) END,
            downvotes = CASE WHEN $3::text = 'down'
                THEN array_append(array_remove(downvotes, $2::text), $2::text)
                ELSE array_remove(downvotes, $2::text) END,
            updated_at=$4
        WHERE id=$1
        RETURNING cardinality(upvotes), cardinality(downvotes)`
	tally := domain.VoteTally{UserVote: direction}
	err := r.pool.QueryRow(ctx, query, id, userID, string(direction), at).Scan(&tally.Upvotes, &tally.Downvotes)
	if err != nil {
		return domain.VoteTally{}, translatePgError(err)
	}
	return tally, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Subject,
		&ticket.Description,
		&ticket.CategoryID,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.Attachments,
		&ticket.Upvotes,
		&ticket.Downvotes,
		&ticket.Tags,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilAttachments(values []domain.Attachment) []domain.Attachment {
	if values == nil {
		return []domain.Attachment{}
	}
	return values
}
