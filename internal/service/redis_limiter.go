package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artasyaskar/puzzleverse-mern/pkg/database"
)

const loginKeyPrefix = "login_failures:"

// RedisLoginLimiter keeps the same fixed window as LoginLimiter in Redis:
// the first failure creates a counter that expires with the window.
type RedisLoginLimiter struct {
	redis  *database.Redis
	max    int
	window time.Duration
}

var _ LoginAttempts = (*RedisLoginLimiter)(nil)

func NewRedisLoginLimiter(r *database.Redis, max int, window time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{redis: r, max: max, window: window}
}

func (l *RedisLoginLimiter) Max() int {
	return l.max
}

func (l *RedisLoginLimiter) Blocked(ctx context.Context, key string) (bool, time.Duration, error) {
	pipe := l.redis.Client.Pipeline()
	count := pipe.Get(ctx, loginKeyPrefix+key)
	ttl := pipe.PTTL(ctx, loginKeyPrefix+key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, fmt.Errorf("failed to read login failures: %w", err)
	}

	failures, err := count.Int()
	if errors.Is(err, redis.Nil) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to parse login failures: %w", err)
	}
	if failures < l.max {
		return false, 0, nil
	}
	return true, l.remaining(ttl.Val()), nil
}

func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, key string) (bool, time.Duration, error) {
	pipe := l.redis.Client.TxPipeline()
	incr := pipe.Incr(ctx, loginKeyPrefix+key)
	pipe.ExpireNX(ctx, loginKeyPrefix+key, l.window)
	ttl := pipe.PTTL(ctx, loginKeyPrefix+key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to record login failure: %w", err)
	}

	if incr.Val() < int64(l.max) {
		return false, 0, nil
	}
	return true, l.remaining(ttl.Val()), nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Client.Del(ctx, loginKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}

// remaining maps PTTL's negative sentinels to a full window.
func (l *RedisLoginLimiter) remaining(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return l.window
	}
	return ttl
}
