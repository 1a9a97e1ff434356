package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// PendingStore implements ports.PendingStore in memory.
// Safe for concurrent use.
type PendingStore struct {
	items []domain.Intent
	mu    sync.RWMutex
}

var _ ports.PendingStore = (*PendingStore)(nil)

// NewPendingStore creates a new in-memory pending store.
func NewPendingStore() *PendingStore {
	return &PendingStore{}
}

// List returns copies of the pending intents.
func (s *PendingStore) List(ctx context.Context) ([]domain.Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Intent, len(s.items))
	for i, in := range s.items {
		out[i] = in.Clone()
	}
	return out, nil
}

// Append stores copies of intents so callers can't mutate them afterwards.
func (s *PendingStore) Append(ctx context.Context, intents ...domain.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range intents {
		s.items = append(s.items, in.Clone())
	}
	return nil
}

// Clear drops every pending intent.
func (s *PendingStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}

// DefaultHistorySize is how many records a HistoryStore keeps by default.
const DefaultHistorySize = 100

// HistoryStore implements ports.HistoryStore as a bounded ring in memory.
// Safe for concurrent use.
type HistoryStore struct {
	records []domain.EnrichedRecord
	limit   int
	mu      sync.RWMutex
}

var _ ports.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore keeps the last limit records (DefaultHistorySize when limit <= 0).
func NewHistoryStore(limit int) *HistoryStore {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &HistoryStore{limit: limit}
}

// Record appends rec, evicting the oldest record once the limit is reached.
func (s *HistoryStore) Record(ctx context.Context, rec domain.EnrichedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if over := len(s.records) - s.limit; over > 0 {
		s.records = slices.Delete(s.records, 0, over)
	}
	return nil
}

// Recent returns up to n records, newest last.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]domain.EnrichedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil, nil
	}
	start := max(0, len(s.records)-n)
	return slices.Clone(s.records[start:]), nil
}
