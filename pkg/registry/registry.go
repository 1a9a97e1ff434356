// Package registry holds host commands grouped by category.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/blade/pkg/ports"
)

// Func adapts plain functions to ports.Command. A nil PollFunc always allows the command.
type Func struct {
	PollFunc func(ctx context.Context) bool
	RunFunc  func(ctx context.Context, args []any, kwargs map[string]any) (ports.Outcome, error)
}

func (f Func) Poll(ctx context.Context) bool {
	if f.PollFunc == nil {
		return true
	}
	return f.PollFunc(ctx)
}

func (f Func) Invoke(ctx context.Context, args []any, kwargs map[string]any) (ports.Outcome, error) {
	if f.RunFunc == nil {
		return ports.Outcome{}, fmt.Errorf("command has no implementation")
	}
	return f.RunFunc(ctx, args, kwargs)
}

// Registry manages the available commands.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]map[string]ports.Command
}

var _ ports.CommandRegistry = (*Registry)(nil)

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]map[string]ports.Command),
	}
}

// Register adds a command to the registry.
// If a command with the same name exists in the category, it is overwritten.
func (r *Registry) Register(category, name string, cmd ports.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commands[category] == nil {
		r.commands[category] = make(map[string]ports.Command)
	}
	r.commands[category][name] = cmd
}

// HasCategory reports whether at least one command is registered under category.
func (r *Registry) HasCategory(category string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands[category]) > 0
}

// Lookup returns the command registered as category.name.
func (r *Registry) Lookup(category, name string) (ports.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[category][name]
	return cmd, ok
}

// Names returns every registered command as "category.name", sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for cat, cmds := range r.commands {
		for name := range cmds {
			out = append(out, cat+"."+name)
		}
	}
	sort.Strings(out)
	return out
}
