package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-api/internal/domain"
)

// AddComment appends a comment and bumps the ticket's updated_at in one transaction.
func (r *ticketRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	const insert = `
        INSERT INTO ticket_comments (ticket_id, author_id, message, is_internal, attachments, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, seq`
	const touch = `UPDATE tickets SET updated_at=$2 WHERE id=$1`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insert,
			comment.TicketID,
			comment.AuthorID,
			comment.Message,
			comment.IsInternal,
			nonNilAttachments(comment.Attachments),
			comment.CreatedAt,
		).Scan(&comment.ID, &comment.Seq); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, touch, comment.TicketID, comment.CreatedAt)
		return err
	})
	return translatePgError(err)
}

func (r *ticketRepository) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, seq, author_id, message, is_internal, attachments, created_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.Comment{}
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.Seq,
			&comment.AuthorID,
			&comment.Message,
			&comment.IsInternal,
			&comment.Attachments,
			&comment.CreatedAt,
		); err != nil {
			return nil, translatePgError(err)
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
