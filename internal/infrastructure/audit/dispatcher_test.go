package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/api/metrics"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

type stubAuditRepo struct {
	mu      sync.Mutex
	records []domain.AccessDenial
	err     error
}

func (r *stubAuditRepo) InsertDenial(_ context.Context, d *domain.AccessDenial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, *d)
	return nil
}

func (r *stubAuditRepo) snapshot() []domain.AccessDenial {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AccessDenial(nil), r.records...)
}

func denial(actor, op string) domain.AccessDenial {
	return domain.AccessDenial{ActorID: actor, Operation: op, OccurredAt: time.Now().UTC()}
}

func TestDispatcher_PersistsInOrderPerActor(t *testing.T) {
	repo := &stubAuditRepo{}
	d := NewDispatcher(4, 16, repo, zerolog.Nop())
	d.Start(context.Background())

	for _, op := range []string{"op1", "op2", "op3"} {
		d.RecordDenial(context.Background(), denial("actor-1", op))
	}
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	got := repo.snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, op := range []string{"op1", "op2", "op3"} {
		if got[i].Operation != op {
			t.Fatalf("record %d: expected %s, got %s", i, op, got[i].Operation)
		}
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	repo := &stubAuditRepo{}
	d := NewDispatcher(1, 1, repo, zerolog.Nop())
	dropped := metrics.AuditEventsTotal.WithLabelValues("dropped")
	before := testutil.ToFloat64(dropped)

	d.RecordDenial(context.Background(), denial("a", "first"))
	d.RecordDenial(context.Background(), denial("a", "second"))

	if got := testutil.ToFloat64(dropped) - before; got != 1 {
		t.Fatalf("expected 1 dropped record, got %v", got)
	}

	d.Start(context.Background())
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := repo.snapshot(); len(got) != 1 || got[0].Operation != "first" {
		t.Fatalf("expected only the first record to persist, got %+v", got)
	}
}

func TestDispatcher_RecordAfterShutdownIsDropped(t *testing.T) {
	repo := &stubAuditRepo{}
	d := NewDispatcher(1, 4, repo, zerolog.Nop())
	d.Start(context.Background())
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	d.RecordDenial(context.Background(), denial("a", "late"))
	if got := repo.snapshot(); len(got) != 0 {
		t.Fatalf("expected no records, got %+v", got)
	}
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}

func TestDispatcher_WriteFailureIsCounted(t *testing.T) {
	repo := &stubAuditRepo{err: errors.New("write concern")}
	d := NewDispatcher(1, 4, repo, zerolog.Nop())
	failed := metrics.AuditEventsTotal.WithLabelValues("failed")
	before := testutil.ToFloat64(failed)

	d.Start(context.Background())
	d.RecordDenial(context.Background(), denial("a", "x"))
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if got := testutil.ToFloat64(failed) - before; got != 1 {
		t.Fatalf("expected 1 failed write, got %v", got)
	}
}
