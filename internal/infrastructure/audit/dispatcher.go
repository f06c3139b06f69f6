package audit

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/api/metrics"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
	"github.com/Bakhromov-02/task-management/internal/core/ports"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

// Dispatcher persists access denials off the request path. Records are
// sharded by actor id over a fixed set of workers, so one actor's denials are
// written in order. RecordDenial never blocks: a full queue drops the record.
type Dispatcher struct {
	workers []chan domain.AccessDenial
	repo    ports.AuditRepository
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers workers, each buffering
// up to queueSize records. Non-positive values fall back to defaults.
func NewDispatcher(numWorkers, queueSize int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		workers: make([]chan domain.AccessDenial, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AccessDenial, queueSize)
	}
	return d
}

// Start launches the workers. They exit when ctx is cancelled or after
// Shutdown has drained their queues.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// RecordDenial enqueues denial for persistence.
func (d *Dispatcher) RecordDenial(_ context.Context, denial domain.AccessDenial) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
		return
	}

	idx := d.shardIndex(denial.ActorID)
	select {
	case d.workers[idx] <- denial:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("actor_id", denial.ActorID).
			Str("operation", denial.Operation).
			Int("worker_id", idx).
			Msg("audit queue full, record dropped")
	}
}

// Shutdown stops accepting records and waits for queued ones to be written,
// or for ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("audit dispatcher: shutdown timed out"), ctx.Err())
	}
}

func (d *Dispatcher) shardIndex(actorID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AccessDenial) {
	defer d.wg.Done()
	depth := metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case denial, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.write(id, denial)
		}
	}
}

func (d *Dispatcher) write(id int, denial domain.AccessDenial) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	err := d.repo.InsertDenial(ctx, &denial)
	metrics.AuditWriteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("actor_id", denial.ActorID).
			Str("operation", denial.Operation).
			Int("worker_id", id).
			Msg("audit write failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues("persisted").Inc()
}
