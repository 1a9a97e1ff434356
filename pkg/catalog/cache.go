package catalog

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Cache holds the last loaded intent list of a source.
// Safe for concurrent use.
type Cache struct {
	source ports.IntentSource
	logger *slog.Logger

	mu      sync.Mutex
	intents []domain.Intent
	modTime time.Time
	loaded  bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Cache over source. Nothing is loaded until the first Get.
func New(source ports.IntentSource, opts ...Option) *Cache {
	c := &Cache{
		source: source,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached intents, reloading the source first when force is
// set, when nothing was loaded yet, or when the source modification time
// differs from the one recorded at the last load. A zero or earlier time
// counts as a change, so a deleted or replaced source is reloaded.
//
// Source errors never surface: an unavailable or unreadable source yields an
// empty list and the error is logged. The returned slice is a copy.
func (c *Cache) Get(ctx context.Context, force bool) []domain.Intent {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.source == nil {
		return []domain.Intent{}
	}

	mt, err := c.source.ModTime(ctx)
	if err != nil {
		c.logger.Warn("configuration unavailable", "err", err, "dropped", len(c.intents))
		c.intents = nil
		c.loaded = false
		return c.snapshot()
	}

	if force || !c.loaded || !mt.Equal(c.modTime) {
		intents, err := c.source.Load(ctx)
		c.modTime = mt
		c.loaded = true
		if err != nil {
			c.logger.Warn("failed to load configuration", "err", err, "dropped", len(c.intents))
			c.intents = nil
			return c.snapshot()
		}
		c.intents = intents
		c.logger.Debug("configuration loaded", "intents", len(intents), "mod_time", mt)
	}
	return c.snapshot()
}

// Invalidate forces the next Get to reload the source.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
}

// Source returns the underlying source.
func (c *Cache) Source() ports.IntentSource {
	return c.source
}

func (c *Cache) snapshot() []domain.Intent {
	out := make([]domain.Intent, len(c.intents))
	for i, in := range c.intents {
		out[i] = in.Clone()
	}
	return out
}
