package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/domain"
)

// Builder manages the configuration construction. Intents keep the order in
// which they were first added, which is the order exact matching scans them.
type Builder struct {
	order   []string
	intents map[string]*IntentBuilder
}

// New creates a new configuration builder.
func New() *Builder {
	return &Builder{
		intents: make(map[string]*IntentBuilder),
	}
}

// Add creates a new intent in the configuration.
// If the intent already exists, it returns the existing builder.
func (b *Builder) Add(name string) *IntentBuilder {
	if ib, ok := b.intents[name]; ok {
		return ib
	}
	ib := &IntentBuilder{
		intent: domain.Intent{Name: name},
	}
	b.intents[name] = ib
	b.order = append(b.order, name)
	return ib
}

// Intents returns the declared intents in declaration order.
func (b *Builder) Intents() []domain.Intent {
	out := make([]domain.Intent, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.intents[name].Build())
	}
	return out
}

// Build compiles the configuration into an in-memory source. Intents without
// a phrase or without anything to dispatch are rejected.
func (b *Builder) Build() (*memory.Source, error) {
	intents := b.Intents()
	var errs []error
	for _, in := range intents {
		if len(in.Variants()) == 0 {
			errs = append(errs, fmt.Errorf("intent %q: no phrase", in.Name))
		}
		if !in.HasOperator() && in.Op == "" && in.Direct == nil {
			errs = append(errs, fmt.Errorf("intent %q: nothing to dispatch", in.Name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to build configuration: %w", err)
	}
	return memory.NewSource(intents...), nil
}
