package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Manager picks the pipeline for each intent.
type Manager struct {
	exec      ports.Executor
	pipelines []Pipeline
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPipelines replaces the built-in pipelines. Order is priority order.
func WithPipelines(p ...Pipeline) ManagerOption {
	return func(m *Manager) {
		m.pipelines = p
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager over exec with the render, material and
// default pipelines.
func NewManager(exec ports.Executor, opts ...ManagerOption) *Manager {
	m := &Manager{
		exec:   exec,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	m.pipelines = []Pipeline{NewRender(exec), NewMaterial(exec), NewDefault(exec)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pipelines returns the pipelines in priority order.
func (m *Manager) Pipelines() []Pipeline {
	return append([]Pipeline(nil), m.pipelines...)
}

// Select returns the first pipeline matching in. A pipeline whose Match
// fails or panics is skipped. When nothing matches, a default pipeline is
// returned.
func (m *Manager) Select(in domain.Intent) Pipeline {
	for _, p := range m.pipelines {
		ok, err := safeMatch(p, in)
		if err != nil {
			m.logger.Warn("pipeline match failed", "pipeline", p.Name(), "intent", in.Name, "err", err)
			continue
		}
		if ok {
			return p
		}
	}
	return NewDefault(m.exec)
}

// Run executes in through the selected pipeline and reports which one ran.
func (m *Manager) Run(ctx context.Context, in domain.Intent) (domain.ExecutionResult, string) {
	p := m.Select(in)
	m.logger.Debug("pipeline selected", "pipeline", p.Name(), "intent", in.Name)
	return p.Run(ctx, in), p.Name()
}

func safeMatch(p Pipeline, in domain.Intent) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("match panicked: %v", r)
		}
	}()
	return p.Match(in)
}
