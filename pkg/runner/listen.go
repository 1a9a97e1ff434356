package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/aretw0/blade/pkg/domain"
)

// Listener pumps requests from a Handler through a Queue.
type Listener struct {
	queue       *Queue
	handler     Handler
	interceptor Interceptor
	logger      *slog.Logger
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithInterceptors replaces the default interceptor chain (SanitizeInterceptor).
func WithInterceptors(ic ...Interceptor) ListenerOption {
	return func(l *Listener) {
		l.interceptor = MultiInterceptor(ic...)
	}
}

// WithListenerLogger sets a custom structured logger.
func WithListenerLogger(logger *slog.Logger) ListenerOption {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewListener creates a Listener reading from handler.
func NewListener(q *Queue, handler Handler, opts ...ListenerOption) *Listener {
	l := &Listener{
		queue:       q,
		handler:     handler,
		interceptor: SanitizeInterceptor(),
		logger:      q.logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Listen runs until the handler is exhausted or ctx is done.
// It returns nil on end of input and on cancellation.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		req, err := l.handler.Read(ctx)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, context.Canceled), ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrBadRequest):
			l.reject(ctx, err)
			continue
		case err != nil:
			return err
		}

		if err := l.interceptor(ctx, &req); err != nil {
			l.reject(ctx, err)
			continue
		}

		rep, err := l.queue.Submit(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := l.handler.Write(ctx, rep); err != nil {
			return err
		}
	}
}

func (l *Listener) reject(ctx context.Context, err error) {
	l.logger.Warn("request rejected", "err", err)
	rep := domain.RunReport{
		Reason: domain.ReasonRejected,
		Result: &domain.ExecutionResult{Stage: domain.StageFailed, Error: err.Error()},
	}
	if werr := l.handler.Write(ctx, rep); werr != nil {
		l.logger.Warn("failed to write rejection", "err", werr)
	}
}
