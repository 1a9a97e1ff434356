// Package pending stages intents seen at runtime for review and merges them
// into the intent configuration.
package pending

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Catalog lists the configured intents.
type Catalog interface {
	Get(ctx context.Context, force bool) []domain.Intent
}

// Option configures an Injector or a Merger.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	now     func() time.Time
	locker  ports.DistributedLocker
	lockTTL time.Duration
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces time.Now for the timestamps written on intents.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLocker serializes merges across processes.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(o *options) {
		o.locker = l
		if ttl > 0 {
			o.lockTTL = ttl
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:     time.Now,
		lockTTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Injector writes intents that are neither configured nor already pending
// to a PendingStore.
type Injector struct {
	catalog Catalog
	store   ports.PendingStore
	opts    options
}

var _ ports.PendingInjector = (*Injector)(nil)

// NewInjector creates an Injector. catalog may be nil, in which case only
// the pending list is used for deduplication.
func NewInjector(catalog Catalog, store ports.PendingStore, opts ...Option) *Injector {
	return &Injector{catalog: catalog, store: store, opts: newOptions(opts)}
}

// Inject stages every new intent and returns how many were written.
// Each staged intent is stamped with its source and injection time.
func (i *Injector) Inject(ctx context.Context, intents ...domain.Intent) (int, error) {
	if len(intents) == 0 {
		return 0, nil
	}
	current, err := i.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read pending intents: %w", err)
	}

	known := make(map[string]struct{})
	if i.catalog != nil {
		for _, in := range i.catalog.Get(ctx, false) {
			known[nameOf(in)] = struct{}{}
		}
	}
	for _, in := range current {
		known[nameOf(in)] = struct{}{}
	}

	stamp := i.opts.now().Format(time.RFC3339)
	var fresh []domain.Intent
	for _, in := range intents {
		name := nameOf(in)
		if name == "" {
			continue
		}
		if _, dup := known[name]; dup {
			continue
		}
		known[name] = struct{}{}

		staged := in.Clone()
		staged.Name = name
		staged.Source = domain.SourceAutoInjector
		staged.InjectedAt = stamp
		fresh = append(fresh, staged)
	}

	if len(fresh) == 0 {
		i.opts.logger.Debug("no new intent to stage")
		return 0, nil
	}
	if err := i.store.Append(ctx, fresh...); err != nil {
		return 0, fmt.Errorf("failed to stage intents: %w", err)
	}
	i.opts.logger.Info("intents staged for review", "count", len(fresh))
	return len(fresh), nil
}

// nameOf returns the intent name, falling back to a legacy "intent" key.
func nameOf(in domain.Intent) string {
	if name := strings.TrimSpace(in.Name); name != "" {
		return name
	}
	if legacy, ok := in.Extra["intent"].(string); ok {
		return strings.TrimSpace(legacy)
	}
	return ""
}
