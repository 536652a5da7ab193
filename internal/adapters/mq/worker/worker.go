// Package worker drains the interaction queue into the store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/askdesk/internal/adapters/mq/queue"
	"github.com/okian/askdesk/pkg/logger"
	"github.com/okian/askdesk/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	defaultWriteTimeout = 2 * time.Second
	defaultName         = "log-writer"
)

// Appender persists one interaction record.
type Appender interface {
	AppendInteraction(ctx context.Context, rec queue.Record) (int64, error)
}

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Record
}

// Worker writes queued records to the store.
type Worker interface {
	// Run consumes records until the queue is drained, ctx is canceled or
	// Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker. Append failures are logged and counted,
// never retried.
type InMemoryWorker struct {
	queue        Queue
	appender     Appender
	name         string
	writeTimeout time.Duration

	written atomic.Int64
	failed  atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, appender Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:        q,
		appender:     appender,
		name:         defaultName,
		writeTimeout: defaultWriteTimeout,
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != defaultName {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	records := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			if err := w.write(ctx, rec); err != nil {
				w.logger.Error(ctx, "interaction write failed",
					logger.String("question", rec.UserQuestion),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Written returns how many records this worker stored.
func (w *InMemoryWorker) Written() int64 { return w.written.Load() }

// Failed returns how many records this worker failed to store.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

// write stores one record. The append gets its own deadline and is not
// canceled with ctx, so draining during shutdown still completes.
func (w *InMemoryWorker) write(ctx context.Context, rec queue.Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordInteractionWriteLatency(float64(time.Since(start).Milliseconds()))
		metrics.UpdateLogQueueSize(queueLen(w.queue))
	}()

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.writeTimeout)
	defer cancel()

	if _, err := w.appender.AppendInteraction(wctx, rec); err != nil {
		w.failed.Add(1)
		metrics.RecordInteractionFailed()
		metrics.RecordErrorByComponent("worker", "append_failed")
		metrics.RecordErrorByType("append_failed", "low")
		return fmt.Errorf("append interaction: %w", err)
	}
	w.written.Add(1)
	metrics.RecordInteractionWritten()
	return nil
}

func queueLen(q Queue) int {
	if l, ok := q.(interface{ Len(context.Context) int }); ok {
		return l.Len(context.Background())
	}
	return 0
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. Options are applied to every worker.
func NewPool(workerCount int, q Queue, appender Appender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName(defaultName + "-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, appender, workerOpts...)
	}

	metrics.UpdateLogWorkers(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Written returns how many records the pool stored.
func (p *Pool) Written() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Written()
	}
	return n
}

// Failed returns how many records the pool failed to store.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Failed()
	}
	return n
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still busy when ctx expires are stopped and the pending records are lost.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut bool
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-ctx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			worker.shutdownOnce.Do(func() { close(worker.shutdown) })
		}
	}

	metrics.UpdateLogWorkers(0)
	if timedOut {
		return fmt.Errorf("drain interaction queue: %w", ctx.Err())
	}
	return nil
}
