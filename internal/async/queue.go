// Package async runs file jobs on a fixed pool of workers.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrClosed = errors.New("queue is shutting down")

// Job is one file waiting to be ingested.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

// Handler processes a job. Errors are logged by the queue.
type Handler func(ctx context.Context, job Job) error

type Queue struct {
	handle  Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch chan Job
	wg sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewQueue starts the workers immediately.
func NewQueue(handle Handler, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		handle:  handle,
		logger:  logger,
		workers: 2,
		timeout: 3 * time.Minute,
	}
	for _, o := range opts {
		o(q)
	}
	if q.ch == nil {
		q.ch = make(chan Job, 64)
	}
	q.wg.Add(q.workers)
	for id := 1; id <= q.workers; id++ {
		go q.work(id)
	}
	return q
}

func (q *Queue) work(id int) {
	defer q.wg.Done()
	log := q.logger.With("worker_id", id)
	log.Debug("async.worker.started")
	for job := range q.ch {
		q.process(log, job)
	}
	log.Debug("async.worker.stopped")
}

// process runs one job under its own deadline. The job outlives the
// Enqueue caller's context.
func (q *Queue) process(log *slog.Logger, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if err := q.handle(ctx, job); err != nil {
		log.Error("async.job.failed", "path", job.Path, "error", err)
		return
	}
	log.Info("async.job.ok", "path", job.Path, "waited_ms", time.Since(job.SubmittedAt).Milliseconds())
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("async.enqueue.closed", "path", job.Path)
		return ErrClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		return nil
	default:
	}
	q.logger.Warn("async.queue.full", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted")
	case <-done:
		q.logger.Info("async.shutdown.drained")
	}
}
