package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Bakhromov-02/task-management/internal/core/ports"
)

// RateLimiter counts requests per key in fixed windows.
// Key format: ratelimit:<scope>:<key>:<window_index>
type RateLimiter struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRateLimiter(client redis.Cmdable) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow records one hit for key in scope and reports whether it is within
// limit for the current window.
func (l *RateLimiter) Allow(ctx context.Context, scope, key string, limit int64, window time.Duration) (ports.RateDecision, error) {
	now := l.now()
	k, resetAt := windowKey(scope, key, now, window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit %s: %w", scope, err)
	}

	count := incr.Val()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return ports.RateDecision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

func windowKey(scope, key string, now time.Time, window time.Duration) (string, time.Time) {
	idx := now.UnixNano() / int64(window)
	resetAt := time.Unix(0, (idx+1)*int64(window)).UTC()
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, key, idx), resetAt
}
