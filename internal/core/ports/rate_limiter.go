package ports

import (
	"context"
	"time"
)

// RateDecision is the outcome of one rate-limit check.
type RateDecision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RateLimiter counts hits per key within a window.
type RateLimiter interface {
	Allow(ctx context.Context, scope, key string, limit int64, window time.Duration) (RateDecision, error)
}
