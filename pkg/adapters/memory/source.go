package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Source implements ports.WritableSource over an in-memory intent list.
// Every write moves its modification time forward.
// Safe for concurrent use.
type Source struct {
	mu      sync.RWMutex
	intents []domain.Intent
	modTime time.Time
	loads   int
}

var _ ports.WritableSource = (*Source)(nil)

// NewSource creates a source holding intents.
func NewSource(intents ...domain.Intent) *Source {
	s := &Source{}
	s.set(intents)
	return s
}

func (s *Source) ModTime(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modTime, nil
}

func (s *Source) Load(ctx context.Context) ([]domain.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	out := make([]domain.Intent, len(s.intents))
	for i, in := range s.intents {
		out[i] = in.Clone()
	}
	return out, nil
}

func (s *Source) Save(ctx context.Context, intents []domain.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(intents)
	return nil
}

// Loads returns how many times Load was called.
func (s *Source) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

func (s *Source) set(intents []domain.Intent) {
	s.intents = make([]domain.Intent, len(intents))
	for i, in := range intents {
		s.intents[i] = in.Clone()
	}
	next := time.Now()
	if !next.After(s.modTime) {
		next = s.modTime.Add(time.Nanosecond)
	}
	s.modTime = next
}
