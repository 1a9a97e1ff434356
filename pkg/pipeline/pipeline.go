// Package pipeline routes intents to domain-specific execution strategies.
//
// A Pipeline decides whether it handles an intent and runs it, usually by
// delegating to a ports.Executor wrapped in Before and After hooks. The
// Manager tries pipelines in priority order and falls back to the default
// pipeline, which accepts everything.
package pipeline

import (
	"context"
	"slices"
	"strings"

	"github.com/aretw0/blade/pkg/classifier"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Names of the built-in pipelines.
const (
	NameRender   = "render"
	NameMaterial = "material"
	NameDefault  = "default"
)

// Pipeline is one execution strategy.
type Pipeline interface {
	Name() string
	Match(in domain.Intent) (bool, error)
	Run(ctx context.Context, in domain.Intent) domain.ExecutionResult
}

// Before runs ahead of execution and may rewrite the intent.
type Before func(ctx context.Context, in domain.Intent) domain.Intent

// After runs once execution finished and may rewrite the result.
type After func(ctx context.Context, in domain.Intent, res domain.ExecutionResult) domain.ExecutionResult

// Stage is a Pipeline built from a match predicate and an executor.
type Stage struct {
	name   string
	match  func(domain.Intent) (bool, error)
	exec   ports.Executor
	before []Before
	after  []After
}

var _ Pipeline = (*Stage)(nil)

// Option configures a Stage.
type Option func(*Stage)

// WithBefore appends hooks run before execution, in order.
func WithBefore(h ...Before) Option {
	return func(s *Stage) {
		s.before = append(s.before, h...)
	}
}

// WithAfter appends hooks run after execution, in order.
func WithAfter(h ...After) Option {
	return func(s *Stage) {
		s.after = append(s.after, h...)
	}
}

// New creates a custom pipeline. A nil match accepts every intent.
func New(name string, match func(domain.Intent) (bool, error), exec ports.Executor, opts ...Option) *Stage {
	if match == nil {
		match = func(domain.Intent) (bool, error) { return true, nil }
	}
	s := &Stage{name: name, match: match, exec: exec}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stage) Name() string { return s.name }

func (s *Stage) Match(in domain.Intent) (bool, error) { return s.match(in) }

// Run applies the Before hooks, executes, then applies the After hooks.
func (s *Stage) Run(ctx context.Context, in domain.Intent) domain.ExecutionResult {
	for _, h := range s.before {
		in = h(ctx, in)
	}
	res := s.exec.Execute(ctx, in)
	for _, h := range s.after {
		res = h(ctx, in, res)
	}
	return res
}

// NewRender handles render and output intents.
func NewRender(exec ports.Executor, opts ...Option) *Stage {
	return New(NameRender, matchRender, exec, opts...)
}

// NewMaterial handles material and shading intents. It makes sure the
// target object has a material before execution.
func NewMaterial(exec ports.Executor, opts ...Option) *Stage {
	opts = append([]Option{WithBefore(EnsureMaterial)}, opts...)
	return New(NameMaterial, matchMaterial, exec, opts...)
}

// NewDefault accepts every intent.
func NewDefault(exec ports.Executor, opts ...Option) *Stage {
	return New(NameDefault, nil, exec, opts...)
}

// EnsureMaterial adds the material precondition hint to in.
func EnsureMaterial(_ context.Context, in domain.Intent) domain.Intent {
	if slices.Contains(in.Requires, domain.NeedMaterial) || slices.Contains(in.Ensure, domain.NeedMaterial) {
		return in
	}
	out := in.Clone()
	out.Ensure = append(out.Ensure, domain.NeedMaterial)
	return out
}

func matchRender(in domain.Intent) (bool, error) {
	op := classifier.Sanitize(in.Operator)
	return strings.EqualFold(in.Domain, NameRender) ||
		in.HasTag(NameRender) ||
		strings.HasPrefix(op, "render."), nil
}

func matchMaterial(in domain.Intent) (bool, error) {
	return strings.EqualFold(in.Domain, NameMaterial) ||
		in.HasTag(NameMaterial) ||
		in.HasTag("shader") ||
		strings.Contains(in.Operator, ".active_material"), nil
}
