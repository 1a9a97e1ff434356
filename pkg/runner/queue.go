package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/blade/pkg/domain"
)

var (
	// ErrQueueClosed is returned when a request is submitted after Close.
	ErrQueueClosed = errors.New("run queue closed")
	// ErrQueueFull is returned by Enqueue when the buffer is full.
	ErrQueueFull = errors.New("run queue full")
)

// DefaultQueueSize is the number of requests buffered ahead of the worker.
const DefaultQueueSize = 64

// Engine is what the queue drives.
type Engine interface {
	RunDetailed(ctx context.Context, req domain.RunRequest) domain.RunReport
}

type job struct {
	ctx   context.Context
	req   domain.RunRequest
	reply chan domain.RunReport
}

// Queue hands run requests from any goroutine to a single worker goroutine,
// so that the host is only ever touched from one place and requests run in
// submission order.
type Queue struct {
	engine   Engine
	jobs     chan job
	onReport func(domain.RunReport)
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithQueueSize sets the request buffer size.
func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n >= 0 {
			q.jobs = make(chan job, n)
		}
	}
}

// WithReportHandler is called on the worker goroutine after every run.
func WithReportHandler(fn func(domain.RunReport)) QueueOption {
	return func(q *Queue) {
		q.onReport = fn
	}
}

// WithQueueLogger sets a custom structured logger.
func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// NewQueue starts the worker. Close must be called to stop it.
func NewQueue(engine Engine, opts ...QueueOption) *Queue {
	q := &Queue{
		engine: engine,
		jobs:   make(chan job, DefaultQueueSize),
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	go q.work()
	return q
}

// Enqueue schedules req without waiting for it. It never blocks.
func (q *Queue) Enqueue(ctx context.Context, req domain.RunRequest) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job{ctx: context.WithoutCancel(ctx), req: req}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Submit schedules req and waits for its report.
// If ctx is done first, the request may still run later.
func (q *Queue) Submit(ctx context.Context, req domain.RunRequest) (domain.RunReport, error) {
	reply := make(chan domain.RunReport, 1)
	if err := q.push(ctx, job{ctx: ctx, req: req, reply: reply}); err != nil {
		return domain.RunReport{}, err
	}
	select {
	case rep := <-reply:
		return rep, nil
	case <-ctx.Done():
		return domain.RunReport{}, ctx.Err()
	}
}

func (q *Queue) push(ctx context.Context, j job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting requests, lets the worker drain what was already
// queued and waits for it to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) work() {
	defer close(q.done)
	for j := range q.jobs {
		rep := q.run(j)
		if j.reply != nil {
			j.reply <- rep
		}
		if q.onReport != nil {
			q.onReport(rep)
		}
	}
}

func (q *Queue) run(j job) (rep domain.RunReport) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("run panicked", "phrase", j.req.Phrase, "panic", r)
			rep = domain.RunReport{Reason: domain.ReasonDispatchPanic}
		}
	}()
	if err := j.ctx.Err(); err != nil {
		q.logger.Debug("dropping cancelled request", "phrase", j.req.Phrase)
		return domain.RunReport{Reason: domain.ReasonExecutionFailed, Result: &domain.ExecutionResult{
			Stage: domain.StageFailed,
			Error: fmt.Sprintf("request cancelled: %v", err),
		}}
	}
	return q.engine.RunDetailed(j.ctx, j.req)
}
