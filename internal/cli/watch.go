package cli

import (
	"context"
	"log/slog"
	"sync"
)

// Reloader is the part of the engine a watch loop needs.
type Reloader interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
	Reload(ctx context.Context) int
}

// WatchReload reloads the configuration every time its source changes until
// ctx is done. onReload, if set, receives the new intent count.
// The returned wait function blocks until the loop has exited.
func WatchReload(ctx context.Context, eng Reloader, logger *slog.Logger, onReload func(int)) (wait func(), err error) {
	changes, err := eng.Watch(ctx)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = createLogger(false)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range changes {
			if ctx.Err() != nil {
				return
			}
			n := eng.Reload(ctx)
			logger.Info("Change detected, configuration reloaded", "count", n)
			if onReload != nil {
				onReload(n)
			}
		}
	}()
	return wg.Wait, nil
}
