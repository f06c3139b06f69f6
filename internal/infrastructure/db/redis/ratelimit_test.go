package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestWindowKey(t *testing.T) {
	window := 15 * time.Minute
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	k1, reset1 := windowKey("auth", "10.0.0.1", start, window)
	k2, reset2 := windowKey("auth", "10.0.0.1", start.Add(14*time.Minute), window)
	k3, _ := windowKey("auth", "10.0.0.1", start.Add(15*time.Minute), window)
	k4, _ := windowKey("general", "10.0.0.1", start, window)

	if k1 != k2 {
		t.Fatalf("expected same window, got %s and %s", k1, k2)
	}
	if k1 == k3 {
		t.Fatalf("expected next window to use a new key")
	}
	if k1 == k4 {
		t.Fatalf("expected scopes to be counted separately")
	}
	if !reset1.Equal(start.Add(window)) || !reset2.Equal(reset1) {
		t.Fatalf("unexpected reset time %s", reset1)
	}
}

// fakeRedis implements the commands the limiter pipelines. Any other call
// panics through the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	counts map[string]int64
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) TxPipeline() redis.Pipeliner {
	return &fakePipeline{store: f}
}

type fakePipeline struct {
	redis.Pipeliner
	store *fakeRedis
	ops   []func()
	cmds  []redis.Cmder
}

func (p *fakePipeline) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "incr", key)
	p.ops = append(p.ops, func() {
		p.store.counts[key]++
		cmd.SetVal(p.store.counts[key])
	})
	p.cmds = append(p.cmds, cmd)
	return cmd
}

func (p *fakePipeline) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key, expiration)
	p.ops = append(p.ops, func() {
		p.store.ttls[key] = expiration
		cmd.SetVal(true)
	})
	p.cmds = append(p.cmds, cmd)
	return cmd
}

func (p *fakePipeline) Exec(context.Context) ([]redis.Cmder, error) {
	if p.store.err != nil {
		return nil, p.store.err
	}
	for _, op := range p.ops {
		op()
	}
	return p.cmds, nil
}

func TestRateLimiter_Allow(t *testing.T) {
	store := newFakeRedis()
	limiter := NewRateLimiter(store)
	now := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	window := 15 * time.Minute

	wantRemaining := []int64{2, 1, 0, 0}
	for i, want := range wantRemaining {
		d, err := limiter.Allow(context.Background(), "auth", "10.0.0.1", 3, window)
		if err != nil {
			t.Fatalf("hit %d: %v", i+1, err)
		}
		if d.Allowed != (i < 3) {
			t.Fatalf("hit %d: expected allowed=%v", i+1, i < 3)
		}
		if d.Remaining != want || d.Limit != 3 {
			t.Fatalf("hit %d: expected remaining %d of 3, got %d of %d", i+1, want, d.Remaining, d.Limit)
		}
		if !d.ResetAt.Equal(time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC)) {
			t.Fatalf("hit %d: unexpected reset %s", i+1, d.ResetAt)
		}
	}

	key, _ := windowKey("auth", "10.0.0.1", now, window)
	if store.counts[key] != 4 {
		t.Fatalf("expected 4 hits on %s, got %d", key, store.counts[key])
	}
	if store.ttls[key] != window {
		t.Fatalf("expected key to expire after the window, got %s", store.ttls[key])
	}
}

func TestRateLimiter_NewWindowResetsCount(t *testing.T) {
	store := newFakeRedis()
	limiter := NewRateLimiter(store)
	now := time.Date(2026, 3, 1, 12, 14, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, err := limiter.Allow(context.Background(), "auth", "10.0.0.1", 1, 15*time.Minute); err != nil {
			t.Fatalf("Allow: %v", err)
		}
	}
	now = now.Add(2 * time.Minute)

	d, err := limiter.Allow(context.Background(), "auth", "10.0.0.1", 1, 15*time.Minute)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !d.Allowed || d.Remaining != 0 {
		t.Fatalf("expected first hit of the next window to pass, got %+v", d)
	}
}

func TestRateLimiter_BackendError(t *testing.T) {
	store := newFakeRedis()
	store.err = errors.New("connection refused")
	limiter := NewRateLimiter(store)

	_, err := limiter.Allow(context.Background(), "general", "10.0.0.1", 10, time.Minute)
	if !errors.Is(err, store.err) {
		t.Fatalf("expected backend error to be wrapped, got %v", err)
	}
}
