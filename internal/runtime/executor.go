package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/blade/pkg/classifier"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/hostpath"
	"github.com/aretw0/blade/pkg/ports"
)

// IntentResolver is the first execution tier.
type IntentResolver interface {
	ResolveAndExecute(ctx context.Context, in domain.Intent) bool
}

// ExecOptions tunes a single execution.
type ExecOptions struct {
	AutoFix bool
	Retries int
	Delay   time.Duration
}

// DefaultExecOptions returns auto-fix on, one retry and a 50ms delay.
func DefaultExecOptions() ExecOptions {
	return ExecOptions{
		AutoFix: true,
		Retries: domain.DefaultRetries,
		Delay:   domain.DefaultRetryDelay,
	}
}

// ExecOption overrides one execution setting.
type ExecOption func(*ExecOptions)

// WithAutoFix toggles context repair before each fallback pass.
func WithAutoFix(on bool) ExecOption {
	return func(o *ExecOptions) { o.AutoFix = on }
}

// WithRetries sets how many extra fallback passes run after the first.
func WithRetries(n int) ExecOption {
	return func(o *ExecOptions) { o.Retries = max(0, n) }
}

// WithDelay sets the pause between fallback passes.
func WithDelay(d time.Duration) ExecOption {
	return func(o *ExecOptions) { o.Delay = max(0, d) }
}

// Sleeper pauses between passes. It returns false when execution should stop.
type Sleeper func(ctx context.Context, d time.Duration) bool

// Executor runs intents through the resolver and the intent's own fallbacks.
type Executor struct {
	host     ports.Host
	resolver IntentResolver
	preparer *Preparer
	defaults ExecOptions
	sleep    Sleeper
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithResolver replaces the first tier.
func WithResolver(r IntentResolver) ExecutorOption {
	return func(e *Executor) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithExecutorPreparer replaces the preparer used for auto-fix.
func WithExecutorPreparer(p *Preparer) ExecutorOption {
	return func(e *Executor) {
		if p != nil {
			e.preparer = p
		}
	}
}

// WithDefaults sets the options used when Execute is called without overrides.
func WithDefaults(o ExecOptions) ExecutorOption {
	return func(e *Executor) {
		e.defaults = o
	}
}

// WithSleeper replaces the pause between passes.
func WithSleeper(s Sleeper) ExecutorOption {
	return func(e *Executor) {
		if s != nil {
			e.sleep = s
		}
	}
}

// WithExecutorHooks registers observability hooks.
func WithExecutorHooks(h domain.LifecycleHooks) ExecutorOption {
	return func(e *Executor) {
		e.hooks = h
	}
}

// WithExecutorLogger sets a custom structured logger.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an Executor for host.
func NewExecutor(host ports.Host, opts ...ExecutorOption) *Executor {
	e := &Executor{
		host:     host,
		defaults: DefaultExecOptions(),
		sleep:    sleepContext,
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.preparer == nil {
		e.preparer = NewPreparer(host.Scene(), WithPreparerLogger(e.logger))
	}
	if e.resolver == nil {
		e.resolver = NewResolver(host, WithPreparer(e.preparer), WithResolverLogger(e.logger))
	}
	return e
}

// Execute runs in with the executor defaults.
func (e *Executor) Execute(ctx context.Context, in domain.Intent) domain.ExecutionResult {
	return e.ExecuteWith(ctx, in)
}

// ExecuteWith runs in, overriding the executor defaults with opts.
func (e *Executor) ExecuteWith(ctx context.Context, in domain.Intent, opts ...ExecOption) (res domain.ExecutionResult) {
	o := e.defaults
	for _, opt := range opts {
		opt(&o)
	}

	name := in.Name
	if name == "" {
		name = domain.UnnamedIntent
	}
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("execution panicked", "intent", name, "panic", p)
			res = domain.ExecutionResult{Name: name, Stage: domain.StageFailed, Message: "exception", Error: fmt.Sprint(p)}
		}
		if e.hooks.OnExecute != nil {
			e.hooks.OnExecute(ctx, &domain.ExecuteEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventExecute, RunID: domain.RunIDFromContext(ctx)},
				Intent:    name,
				Stage:     res.Stage,
				OK:        res.OK,
				Duration:  time.Since(start),
			})
		}
	}()

	return e.execute(ctx, name, in, o)
}

func (e *Executor) execute(ctx context.Context, name string, in domain.Intent, o ExecOptions) domain.ExecutionResult {
	log := e.logger.With("intent", name)

	if e.resolve(ctx, log, in) {
		return domain.ExecutionResult{Name: name, OK: true, Stage: domain.StageResolver, Message: "resolved"}
	}

	var lastErr error
	passes := max(0, o.Retries) + 1
	for pass := range passes {
		if o.AutoFix {
			if _, err := e.preparer.Prepare(ctx, in); err != nil {
				log.Debug("auto-fix failed", "err", err)
			}
		}

		if strings.TrimSpace(in.Op) != "" {
			err := e.fallbackOps(ctx, in)
			if err == nil {
				log.Info("executed through op fallback", "op", in.Op)
				return domain.ExecutionResult{Name: name, OK: true, Stage: domain.StageFallbackOps, Message: "op " + in.Op}
			}
			lastErr = err
			log.Debug("op fallback failed", "op", in.Op, "err", err, "pass", pass+1)
		}

		if in.Direct != nil && strings.TrimSpace(in.Direct.Path) != "" {
			err := e.fallbackDirect(in.Direct)
			if err == nil {
				log.Info("executed through direct fallback", "path", in.Direct.Path)
				return domain.ExecutionResult{Name: name, OK: true, Stage: domain.StageFallbackDirect, Message: "direct " + in.Direct.Path}
			}
			lastErr = err
			log.Debug("direct fallback failed", "path", in.Direct.Path, "err", err, "pass", pass+1)
		}

		if pass < passes-1 && !e.sleep(ctx, o.Delay) {
			lastErr = errors.Join(lastErr, ctx.Err())
			break
		}
	}

	var direct string
	if in.Direct != nil {
		direct = in.Direct.Path
	}
	res := domain.ExecutionResult{
		Name:    name,
		Stage:   domain.StageFailed,
		Message: fmt.Sprintf("resolver+fallback failed | ops='%s' | direct='%s'", in.Op, direct),
	}
	if lastErr != nil {
		res.Error = lastErr.Error()
	}
	log.Warn("execution failed", "op", in.Op, "direct", direct, "err", lastErr)
	return res
}

func (e *Executor) resolve(ctx context.Context, log *slog.Logger, in domain.Intent) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Warn("resolver panicked", "panic", p)
			ok = false
		}
	}()
	return e.resolver.ResolveAndExecute(ctx, in)
}

func (e *Executor) fallbackOps(ctx context.Context, in domain.Intent) error {
	op := classifier.Sanitize(in.Op)
	category, name, ok := strings.Cut(op, ".")
	if !ok || category == "" || name == "" || strings.Contains(name, ".") {
		return fmt.Errorf("%w: op %q is not category.command", domain.ErrUnknownCommand, in.Op)
	}
	cmd, found := e.host.Commands().Lookup(category, name)
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCommand, op)
	}
	_, err := safeInvoke(ctx, cmd, in.Args, in.Kwargs)
	return err
}

func (e *Executor) fallbackDirect(d *domain.Direct) error {
	path := classifier.Sanitize(d.Path)
	if !classifier.IsStatePath(path) {
		return fmt.Errorf("%w: direct path %q must start with context. or data.", domain.ErrInvalidPath, d.Path)
	}
	return safeCall(func() error { return hostpath.Set(e.host.State(), path, d.Value) })
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
