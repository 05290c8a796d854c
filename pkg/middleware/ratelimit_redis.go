package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRateLimiter is a fixed-window RateLimiter backed by Redis, so that several
// instances share one limit. When Redis is unreachable requests are allowed.
type RedisRateLimiter struct {
	client  redis.Cmdable
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisRateLimiter creates a RedisRateLimiter. Keys are stored under prefix.
func NewRedisRateLimiter(client redis.Cmdable, prefix string, logger *zap.Logger) *RedisRateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRateLimiter{client: client, prefix: prefix, timeout: 100 * time.Millisecond, logger: logger}
}

// Allow implements RateLimiter.
func (l *RedisRateLimiter) Allow(key string, limit int, window time.Duration) (bool, int, time.Duration) {
	if window <= 0 {
		window = time.Second
	}
	if limit <= 0 {
		limit = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	k := l.prefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		l.logger.Warn("Rate limiter unavailable", zap.String("key", k), zap.Error(err))
		return true, limit, window
	}

	reset := ttl.Val()
	if reset < 0 {
		// New key (or one that lost its expiry): start the window now.
		if err := l.client.PExpire(ctx, k, window).Err(); err != nil {
			l.logger.Warn("Failed to set rate limit window", zap.String("key", k), zap.Error(err))
		}
		reset = window
	}

	count := int(incr.Val())
	if count > limit {
		return false, 0, reset
	}
	return true, limit - count, reset
}
