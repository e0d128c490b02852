package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/domain"
)

const activeCategoriesKey = "quickdesk:categories:active"

type cachedCategoryRepository struct {
	CategoryRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCategoryRepository keeps the active category list in Redis. Every
// write drops the cached list. Redis failures fall through to the wrapped store.
func NewCachedCategoryRepository(inner CategoryRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) CategoryRepository {
	if client == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &cachedCategoryRepository{CategoryRepository: inner, client: client, ttl: ttl, logger: logger}
}

func (r *cachedCategoryRepository) ListActive(ctx context.Context) ([]domain.Category, error) {
	payload, err := r.client.Get(ctx, activeCategoriesKey).Bytes()
	if err == nil {
		var categories []domain.Category
		if err := json.Unmarshal(payload, &categories); err == nil {
			return categories, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("category cache read failed", zap.Error(err))
	}

	categories, err := r.CategoryRepository.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(categories); err == nil {
		if err := r.client.Set(ctx, activeCategoriesKey, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("category cache write failed", zap.Error(err))
		}
	}
	return categories, nil
}

func (r *cachedCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if err := r.CategoryRepository.Create(ctx, category); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if err := r.CategoryRepository.Update(ctx, category); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedCategoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	if err := r.CategoryRepository.SetActive(ctx, id, active); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedCategoryRepository) invalidate(ctx context.Context) {
	if err := r.client.Del(ctx, activeCategoriesKey).Err(); err != nil {
		r.logger.Warn("category cache invalidation failed", zap.Error(err))
	}
}
