package pending

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// MergeLockKey is the lock taken around a merge.
const MergeLockKey = "merge"

// MergeReport lists what a merge did.
type MergeReport struct {
	Added   []string
	Skipped []string
}

// Merger moves reviewed pending intents into the configuration.
type Merger struct {
	source ports.WritableSource
	store  ports.PendingStore
	opts   options
}

// NewMerger creates a Merger writing to source.
func NewMerger(source ports.WritableSource, store ports.PendingStore, opts ...Option) *Merger {
	return &Merger{source: source, store: store, opts: newOptions(opts)}
}

// Merge appends pending intents whose name is not configured yet, stamps
// them with merged_at and a default category, saves the configuration and
// clears the pending list. Nothing is written or cleared when no pending
// intent is new.
func (m *Merger) Merge(ctx context.Context) (MergeReport, error) {
	var report MergeReport

	if m.opts.locker != nil {
		unlock, err := m.opts.locker.Lock(ctx, MergeLockKey, m.opts.lockTTL)
		if err != nil {
			return report, fmt.Errorf("failed to lock configuration: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.opts.logger.Warn("failed to release merge lock", "err", err)
			}
		}()
	}

	base, err := m.source.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load configuration: %w", err)
	}
	queued, err := m.store.List(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read pending intents: %w", err)
	}
	if len(queued) == 0 {
		m.opts.logger.Info("no pending intent to merge")
		return report, nil
	}

	existing := make(map[string]struct{}, len(base))
	for _, in := range base {
		existing[nameOf(in)] = struct{}{}
	}

	stamp := m.opts.now().Format(time.RFC3339)
	merged := base
	for _, in := range queued {
		name := nameOf(in)
		if _, dup := existing[name]; name == "" || dup {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		existing[name] = struct{}{}

		clean := in.Clone()
		clean.Name = name
		delete(clean.Extra, "intent")
		if len(clean.Extra) == 0 {
			clean.Extra = nil
		}
		clean.Source = ""
		clean.InjectedAt = ""
		clean.MergedAt = stamp
		if clean.Category == "" {
			clean.Category = domain.DefaultCategory
		}
		if clean.Params == nil {
			clean.Params = domain.Params{}
		}
		merged = append(merged, clean)
		report.Added = append(report.Added, name)
	}

	if len(report.Added) == 0 {
		m.opts.logger.Info("no new intent to merge", "skipped", len(report.Skipped))
		return report, nil
	}
	if err := m.source.Save(ctx, merged); err != nil {
		return report, fmt.Errorf("failed to save configuration: %w", err)
	}
	if err := m.store.Clear(ctx); err != nil {
		return report, fmt.Errorf("configuration saved but pending list not cleared: %w", err)
	}
	m.opts.logger.Info("pending intents merged", "added", len(report.Added), "skipped", len(report.Skipped))
	return report, nil
}
