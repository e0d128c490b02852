package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/helpdesk-api/internal/domain"
)

// UpgradeRequestRepository persists role upgrade requests.
type UpgradeRequestRepository interface {
	// CreatePending stores request unless the user already has a pending one,
	// in which case ErrConflict is returned.
	CreatePending(ctx context.Context, request *domain.UpgradeRequest) error
	GetByID(ctx context.Context, id string) (*domain.UpgradeRequest, error)
	List(ctx context.Context) ([]domain.UpgradeRequest, error)
	ListByUser(ctx context.Context, userID string) ([]domain.UpgradeRequest, error)
	// Review moves a pending request to a terminal state. Approval also changes
	// the requester's role in the same transaction.
	Review(ctx context.Context, id string, review domain.UpgradeReview) (*domain.UpgradeRequest, error)
}

type upgradeRequestRepository struct {
	pool *pgxpool.Pool
}

// NewUpgradeRequestRepository constructs repository.
func NewUpgradeRequestRepository(pool *pgxpool.Pool) UpgradeRequestRepository {
	return &upgradeRequestRepository{pool: pool}
}

const upgradeColumns = `id, user_id, user_name, user_email, requester_role, requested_role, reason,
               status, admin_notes, reviewed_by, reviewed_at, created_at, updated_at`

func (r *upgradeRequestRepository) CreatePending(ctx context.Context, request *domain.UpgradeRequest) error {
	const query = `
        INSERT INTO upgrade_requests (user_id, user_name, user_email, requester_role, requested_role,
                                      reason, status, admin_notes, created_at, updated_at)
        SELECT $1,$2,$3,$4,$5,$6,'pending','',$7,$7
        WHERE NOT EXISTS (
            SELECT 1 FROM upgrade_requests WHERE user_id=$1 AND status='pending'
        )
        RETURNING id, status, updated_at`
	err := r.pool.QueryRow(ctx, query,
		request.UserID,
		request.UserName,
		request.UserEmail,
		request.CurrentRole,
		request.RequestedRole,
		request.Reason,
		request.CreatedAt,
	).Scan(&request.ID, &request.Status, &request.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrConflict
	}
	return translatePgError(err)
}

func (r *upgradeRequestRepository) GetByID(ctx context.Context, id string) (*domain.UpgradeRequest, error) {
	const query = `SELECT ` + upgradeColumns + ` FROM upgrade_requests WHERE id=$1`
	return scanUpgradeRequest(r.pool.QueryRow(ctx, query, id))
}

func (r *upgradeRequestRepository) List(ctx context.Context) ([]domain.UpgradeRequest, error) {
	const query = `SELECT ` + upgradeColumns + ` FROM upgrade_requests ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()
	return scanUpgradeRequests(rows)
}

func (r *upgradeRequestRepository) ListByUser(ctx context.Context, userID string) ([]domain.UpgradeRequest, error) {
	const query = `SELECT ` + upgradeColumns + ` FROM upgrade_requests WHERE user_id=$1 ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()
	return scanUpgradeRequests(rows)
}

func (r *upgradeRequestRepository) Review(ctx context.Context, id string, review domain.UpgradeReview) (*domain.UpgradeRequest, error) {
	const lock = `SELECT ` + upgradeColumns + ` FROM upgrade_requests WHERE id=$1 FOR UPDATE`
	const update = `
        UPDATE upgrade_requests SET status=$2, admin_notes=$3, reviewed_by=$4, reviewed_at=$5, updated_at=$5
        WHERE id=$1
        RETURNING ` + upgradeColumns
	const promote = `
        UPDATE users SET role=$2, updated_at=$4
        WHERE id=$1 AND role=$3 AND is_active`

	var reviewed *domain.UpgradeRequest
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanUpgradeRequest(tx.QueryRow(ctx, lock, id))
		if err != nil {
			return err
		}
		if current.Status != domain.UpgradeStatusPending {
			return ErrAlreadyReviewed
		}
		reviewed, err = scanUpgradeRequest(tx.QueryRow(ctx, update,
			id, review.Decision, review.AdminNotes, review.ReviewerID, review.ReviewedAt))
		if err != nil {
			return err
		}
		if review.Decision != domain.UpgradeStatusApproved {
			return nil
		}
		cmd, err := tx.Exec(ctx, promote, current.UserID, current.RequestedRole, current.CurrentRole, review.ReviewedAt)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrRoleChanged
		}
		return nil
	})
	if err != nil {
		return nil, translatePgError(err)
	}
	return reviewed, nil
}

func scanUpgradeRequest(row pgx.Row) (*domain.UpgradeRequest, error) {
	var request domain.UpgradeRequest
	if err := row.Scan(
		&request.ID,
		&request.UserID,
		&request.UserName,
		&request.UserEmail,
		&request.CurrentRole,
		&request.RequestedRole,
		&request.Reason,
		&request.Status,
		&request.AdminNotes,
		&request.ReviewedBy,
		&request.ReviewedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &request, nil
}

func scanUpgradeRequests(rows pgx.Rows) ([]domain.UpgradeRequest, error) {
	result := []domain.UpgradeRequest{}
	for rows.Next() {
		request, err := scanUpgradeRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *request)
	}
	return result, rows.Err()
}
