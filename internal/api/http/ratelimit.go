package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/config"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

// NewRateLimiter counts requests per client IP in fixed Redis windows. It is a
// no-op when disabled or when Redis is unavailable, and it lets requests
// through if Redis errors mid-flight.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) fiber.Handler {
	if !cfg.Enabled || rdb == nil || cfg.Requests <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	window := cfg.Window
	if window < time.Second {
		window = time.Minute
	}
	windowSeconds := int64(window / time.Second)

	return func(c *fiber.Ctx) error {
		bucket := time.Now().Unix() / windowSeconds
		key := rateKey(cfg.Prefix, c.IP(), c.Route().Path, bucket)

		ctx := c.UserContext()
		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			return c.Next()
		}

		count := incr.Val()
		remaining := int64(cfg.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count > int64(cfg.Requests) {
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(windowSeconds, 10))
			return apperrors.NewRateLimited("too many requests, try again later")
		}
		return c.Next()
	}
}

func rateKey(prefix, ip, route string, bucket int64) string {
	if prefix == "" {
		prefix = "rl"
	}
	if ip == "" {
		ip = "unknown"
	}
	return prefix + ":ip:" + ip + ":route:" + route + ":" + strconv.FormatInt(bucket, 10)
}
