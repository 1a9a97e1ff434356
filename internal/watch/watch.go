// Package watch reports changes to a single file on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of events produced by a single save.
const DefaultDebounce = 100 * time.Millisecond

// Option configures File.
type Option func(*options)

type options struct {
	debounce time.Duration
	logger   *slog.Logger
}

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// File watches path and signals the returned channel after every change.
// The parent directory is watched so that editors and atomic writers that
// replace the file through a rename are seen too.
// The channel is closed once ctx is done.
func File(ctx context.Context, path string, opts ...Option) (<-chan struct{}, error) {
	o := options{
		debounce: DefaultDebounce,
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan struct{}, 1)
	go loop(ctx, w, abs, o, out)
	return out, nil
}

func loop(ctx context.Context, w *fsnotify.Watcher, target string, o options, out chan<- struct{}) {
	defer close(out)
	defer w.Close()

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || !relevant(ev.Op) {
				continue
			}
			o.logger.Debug("file event", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			timerCh = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			o.logger.Warn("watcher error", "err", err)
		case <-timerCh:
			timerCh = nil
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) || op.Has(fsnotify.Rename) || op.Has(fsnotify.Remove)
}
