// Package enrich records a flattened view of every dispatched intent.
package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/aretw0/blade/pkg/classifier"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Enricher implements ports.Enricher on top of a HistoryStore.
type Enricher struct {
	store      ports.HistoryStore
	classifier *classifier.Classifier
	now        func() time.Time
	logger     *slog.Logger
}

var _ ports.Enricher = (*Enricher)(nil)

// Option configures an Enricher.
type Option func(*Enricher)

// WithClassifier sets the classifier used for the record type.
func WithClassifier(c *classifier.Classifier) Option {
	return func(e *Enricher) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Enricher writing to store. Without WithClassifier the
// default host categories are used to classify operators.
func New(store ports.HistoryStore, opts ...Option) *Enricher {
	e := &Enricher{
		store:      store,
		classifier: classifier.New(classifier.DefaultCategories),
		now:        time.Now,
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Record flattens in into the record kept in history.
func (e *Enricher) Record(ctx context.Context, in domain.Intent, phrase, mode string) domain.EnrichedRecord {
	if phrase == "" {
		phrase = in.Phrase
	}
	if mode == "" {
		mode = domain.ModeVoice
	}
	params := maps.Clone(in.Params)
	if params == nil {
		params = domain.Params{}
	}
	return domain.EnrichedRecord{
		RunID:     domain.RunIDFromContext(ctx),
		Name:      in.Name,
		Phrase:    phrase,
		Operator:  in.Operator,
		Params:    params,
		Type:      e.classifier.Classify(in.Operator),
		Mode:      mode,
		Timestamp: e.now(),
	}
}

// Enrich appends the record of in to the history store.
func (e *Enricher) Enrich(ctx context.Context, in domain.Intent, phrase, mode string) error {
	rec := e.Record(ctx, in, phrase, mode)
	if err := e.store.Record(ctx, rec); err != nil {
		return fmt.Errorf("failed to record %s: %w", in.Name, err)
	}
	e.logger.Debug("intent recorded", "intent", rec.Name, "type", rec.Type, "mode", rec.Mode)
	return nil
}
