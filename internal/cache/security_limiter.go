package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SecurityLimiter throttles sensitive account actions per client. It is a
// defense layer behind the platform gateway's general rate limiting, so it
// stays disabled unless explicitly turned on.
type SecurityLimiter interface {
	// Allow reports whether the action is still within the window budget.
	// Infrastructure failures report allowed: availability wins over
	// throttling accuracy here.
	Allow(ctx context.Context, action, clientKey string) (bool, error)
}

type redisLimiter struct {
	client    *redis.Client
	perMinute int
	window    time.Duration
}

func NewRedisSecurityLimiter(client *redis.Client, perMinute int) SecurityLimiter {
	return &redisLimiter{
		client:    client,
		perMinute: perMinute,
		window:    time.Minute,
	}
}

func (l *redisLimiter) Allow(ctx context.Context, action, clientKey string) (bool, error) {
	if l.client == nil || l.perMinute <= 0 {
		return true, nil
	}

	// Fixed window: bucket key rolls over each minute
	bucket := time.Now().Unix() / int64(l.window.Seconds())
	key := fmt.Sprintf("seclimit:%s:%s:%d", action, clientKey, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("security limiter unavailable: %w", err)
	}

	return incr.Val() <= int64(l.perMinute), nil
}

// noopLimiter admits everything. Used when the limiter is disabled.
type noopLimiter struct{}

func NewNoopSecurityLimiter() SecurityLimiter {
	return noopLimiter{}
}

func (noopLimiter) Allow(ctx context.Context, action, clientKey string) (bool, error) {
	return true, nil
}
