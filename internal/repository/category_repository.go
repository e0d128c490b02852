package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/helpdesk-api/internal/domain"
)

// CategoryRepository manages ticket categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	ListActive(ctx context.Context) ([]domain.Category, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Category, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository constructs repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categoryColumns = `id, name, description, color, created_by, is_active, created_at, updated_at`

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name, description, color, created_by, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		category.Name,
		category.Description,
		category.Color,
		category.CreatedBy,
		category.Active,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	return translatePgError(err)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE categories SET name=$1, description=$2, color=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		category.Name,
		category.Description,
		category.Color,
		category.Active,
		category.ID,
	).Scan(&category.UpdatedAt)
	return translatePgError(err)
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE id=$1`
	return scanCategory(r.pool.QueryRow(ctx, query, id))
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]domain.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE is_active ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *categoryRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Category, error) {
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE id::text = ANY($1::text[])`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *categoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE categories SET is_active=$2, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, active)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var category domain.Category
	var createdBy *string
	if err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.Color,
		&createdBy,
		&category.Active,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	if createdBy != nil {
		category.CreatedBy = *createdBy
	}
	return &category, nil
}

func scanCategories(rows pgx.Rows) ([]domain.Category, error) {
	result := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *category)
	}
	return result, rows.Err()
}
