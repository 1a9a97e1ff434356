package blade

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/blade/internal/runtime"
	"github.com/aretw0/blade/pkg/catalog"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/enrich"
	"github.com/aretw0/blade/pkg/matcher"
	"github.com/aretw0/blade/pkg/pending"
	"github.com/aretw0/blade/pkg/pipeline"
	"github.com/aretw0/blade/pkg/ports"
	"github.com/google/uuid"
)

// Engine is the high-level entry point for the Blade library.
// It turns phrases into intents and dispatches them to the host.
type Engine struct {
	source   ports.IntentSource
	host     ports.Host
	cache    *catalog.Cache
	matcher  *matcher.Matcher
	executor *runtime.Executor
	manager  *pipeline.Manager

	enricher ports.Enricher
	injector ports.PendingInjector

	history      ports.HistoryStore
	pendingStore ports.PendingStore

	matcherOpts  []matcher.Option
	execDefaults runtime.ExecOptions
	pipelines    PipelineFactory
	noManager    bool
	newID        func() string

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

var _ ports.Interpreter = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithThreshold sets the minimum fuzzy score accepted as a match.
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		e.matcherOpts = append(e.matcherOpts, matcher.WithThreshold(t))
	}
}

// WithMatcherOptions forwards options to the phrase matcher.
func WithMatcherOptions(opts ...matcher.Option) Option {
	return func(e *Engine) {
		e.matcherOpts = append(e.matcherOpts, opts...)
	}
}

// WithRetries sets how many extra fallback passes the executor runs.
func WithRetries(n int) Option {
	return func(e *Engine) {
		e.execDefaults.Retries = max(0, n)
	}
}

// WithRetryDelay sets the pause between fallback passes.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.execDefaults.Delay = max(0, d)
	}
}

// WithAutoFix toggles context repair before each fallback pass.
func WithAutoFix(on bool) Option {
	return func(e *Engine) {
		e.execDefaults.AutoFix = on
	}
}

// WithEnricher sets the collaborator that records every validated intent.
func WithEnricher(en ports.Enricher) Option {
	return func(e *Engine) {
		e.enricher = en
	}
}

// WithHistory records every validated intent in store.
// Ignored when WithEnricher is also given.
func WithHistory(store ports.HistoryStore) Option {
	return func(e *Engine) {
		e.history = store
	}
}

// WithPendingInjector sets the collaborator that stages unknown intents.
func WithPendingInjector(in ports.PendingInjector) Option {
	return func(e *Engine) {
		e.injector = in
	}
}

// WithPendingStore stages intents missing from the configuration in store.
// Ignored when WithPendingInjector is also given.
func WithPendingStore(store ports.PendingStore) Option {
	return func(e *Engine) {
		e.pendingStore = store
	}
}

// PipelineFactory builds the pipelines of the engine around its executor.
type PipelineFactory func(exec ports.Executor) []pipeline.Pipeline

// WithPipelines replaces the built-in pipelines. The factory receives the
// engine executor; order is priority order.
func WithPipelines(f PipelineFactory) Option {
	return func(e *Engine) {
		e.pipelines = f
	}
}

// WithoutPipelineManager dispatches every intent straight to the executor.
func WithoutPipelineManager() Option {
	return func(e *Engine) {
		e.noManager = true
	}
}

// WithIDGenerator replaces the run id generator (uuid v4 by default).
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}

// New initializes a Blade Engine reading intents from source and driving host.
func New(source ports.IntentSource, host ports.Host, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("intent source is required")
	}
	if host == nil {
		return nil, fmt.Errorf("host is required")
	}

	eng := &Engine{
		source:       source,
		host:         host,
		execDefaults: runtime.DefaultExecOptions(),
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized so collaborators never get a nil one
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	eng.cache = catalog.New(source, catalog.WithLogger(eng.logger))
	eng.matcher = matcher.New(append([]matcher.Option{matcher.WithLogger(eng.logger)}, eng.matcherOpts...)...)
	eng.executor = runtime.NewExecutor(host,
		runtime.WithDefaults(eng.execDefaults),
		runtime.WithExecutorHooks(eng.hooks),
		runtime.WithExecutorLogger(eng.logger),
	)

	if !eng.noManager {
		mopts := []pipeline.ManagerOption{pipeline.WithLogger(eng.logger)}
		if eng.pipelines != nil {
			mopts = append(mopts, pipeline.WithPipelines(eng.pipelines(eng.executor)...))
		}
		eng.manager = pipeline.NewManager(eng.executor, mopts...)
	}

	if eng.enricher == nil && eng.history != nil {
		eng.enricher = enrich.New(eng.history, enrich.WithLogger(eng.logger))
	}
	if eng.injector == nil && eng.pendingStore != nil {
		eng.injector = pending.NewInjector(eng.cache, eng.pendingStore, pending.WithLogger(eng.logger))
	}

	return eng, nil
}

// Run executes one orchestrated run and reports whether it succeeded.
func (e *Engine) Run(ctx context.Context, req domain.RunRequest) bool {
	return e.RunDetailed(ctx, req).OK
}

// RunDetailed resolves, validates, records and dispatches one request.
// It never panics: failures of any stage end up in the report.
func (e *Engine) RunDetailed(ctx context.Context, req domain.RunRequest) (rep domain.RunReport) {
	start := time.Now()
	rep.RunID = e.newID()
	ctx = domain.ContextWithRunID(ctx, rep.RunID)
	log := e.logger.With("run_id", rep.RunID)

	defer func() {
		if p := recover(); p != nil {
			log.Error("run panicked", "panic", p)
			rep.OK = false
			rep.Reason = domain.ReasonDispatchPanic
		}
		rep.Duration = time.Since(start)
		e.finish(ctx, log, rep)
	}()

	var in domain.Intent
	if req.Intent != nil {
		in = req.Intent.Clone()
		log.Info("pre-built intent received")
	} else {
		phrase := strings.TrimSpace(req.Phrase)
		if phrase == "" {
			log.Warn("no phrase received")
			rep.Reason = domain.ReasonEmptyPhrase
			return rep
		}
		log.Info("phrase received", "phrase", phrase)
		m := e.Match(ctx, phrase)
		rep.Match = &m
		if !m.Matched() {
			log.Warn("no intent detected", "best_score", m.Score)
			rep.Reason = domain.ReasonNoIntent
			return rep
		}
		in = *m.Intent
	}

	unnamed := strings.TrimSpace(in.Name) == "" && strings.TrimSpace(in.ID) == ""
	in = in.Standardize()
	rep.Intent = &in
	log = log.With("intent", in.Name)
	if !in.HasOperator() {
		log.Error("intent has no operator")
		rep.Reason = domain.ReasonMissingOperator
		return rep
	}
	log.Info("intent detected", "operator", in.Operator)

	e.enrich(ctx, log, in, req)
	switch {
	case !req.AllowInjection:
	case unnamed:
		log.Debug("unnamed intent, pending injection skipped")
	default:
		e.inject(ctx, log, in)
	}

	if req.DryRun {
		log.Info("dry run, execution skipped")
		rep.OK = true
		rep.Reason = domain.ReasonDryRun
		return rep
	}

	res, name, ok := e.dispatch(ctx, log, in, req.UsePipelineManager)
	if !ok {
		rep.Reason = domain.ReasonNoExecutor
		return rep
	}
	rep.Result = &res
	rep.Pipeline = name
	if !res.OK {
		log.Error("intent execution failed", "stage", res.Stage, "err", res.Error)
		rep.Reason = domain.ReasonExecutionFailed
		return rep
	}
	rep.OK = true
	rep.Reason = domain.ReasonOK
	return rep
}

func (e *Engine) finish(ctx context.Context, log *slog.Logger, rep domain.RunReport) {
	log.Info("run finished", "ok", rep.OK, "reason", rep.Reason, "duration_ms", float64(rep.Duration.Microseconds())/1000)
	if e.hooks.OnRun == nil {
		return
	}
	ev := &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRun, RunID: rep.RunID},
		Reason:    string(rep.Reason),
		OK:        rep.OK,
		Pipeline:  rep.Pipeline,
		Duration:  rep.Duration,
	}
	if rep.Intent != nil {
		ev.Intent = rep.Intent.Name
	}
	e.hooks.OnRun(ctx, ev)
}

func (e *Engine) enrich(ctx context.Context, log *slog.Logger, in domain.Intent, req domain.RunRequest) {
	if e.enricher == nil {
		log.Debug("no enricher, step skipped")
		return
	}
	err := sideChannel(func() error {
		return e.enricher.Enrich(ctx, in, req.Phrase, req.Mode)
	})
	if err != nil {
		log.Warn("enrichment failed", "err", err)
	}
}

func (e *Engine) inject(ctx context.Context, log *slog.Logger, in domain.Intent) {
	if e.injector == nil {
		log.Debug("no pending injector, step skipped")
		return
	}
	var added int
	err := sideChannel(func() (err error) {
		added, err = e.injector.Inject(ctx, in)
		return err
	})
	if err != nil {
		log.Warn("pending injection failed", "err", err)
		return
	}
	if added > 0 {
		log.Info("intent staged as pending")
	}
}

// dispatch runs in through the pipeline manager, or the executor when the
// manager is disabled. ok is false when neither is available.
func (e *Engine) dispatch(ctx context.Context, log *slog.Logger, in domain.Intent, useManager bool) (res domain.ExecutionResult, name string, ok bool) {
	if useManager && e.manager != nil {
		res, name = e.manager.Run(ctx, in)
		return res, name, true
	}
	if e.executor == nil {
		log.Error("no executor available")
		return res, "", false
	}
	return e.executor.Execute(ctx, in), "", true
}

// sideChannel runs fn and turns a panic into an error.
func sideChannel(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

// Match resolves phrase against the current configuration.
func (e *Engine) Match(ctx context.Context, phrase string) domain.MatchResult {
	m := e.matcher.Match(phrase, e.cache.Get(ctx, false))
	if e.hooks.OnMatch != nil {
		ev := &domain.MatchEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventMatch, RunID: domain.RunIDFromContext(ctx)},
			Phrase:    phrase,
			Score:     m.Score,
			Stage:     m.Stage,
		}
		if m.Intent != nil {
			ev.Intent = m.Intent.Name
		}
		e.hooks.OnMatch(ctx, ev)
	}
	return m
}

// Suggest returns up to limit near misses for phrase.
func (e *Engine) Suggest(ctx context.Context, phrase string, limit int) []matcher.Suggestion {
	return e.matcher.Suggest(phrase, e.cache.Get(ctx, false), limit)
}

// Execute runs a single intent through the execution tiers, bypassing
// matching and pipelines.
func (e *Engine) Execute(ctx context.Context, in domain.Intent) domain.ExecutionResult {
	return e.executor.Execute(ctx, in)
}

// ExecuteBatch runs intents in order and aggregates the results.
func (e *Engine) ExecuteBatch(ctx context.Context, intents []domain.Intent, stopOnError bool) domain.BatchResult {
	return e.executor.ExecuteBatch(ctx, intents, runtime.BatchOptions{StopOnError: stopOnError})
}

// Intents returns the current configuration, reloading it if the source changed.
func (e *Engine) Intents(ctx context.Context) []domain.Intent {
	return e.cache.Get(ctx, false)
}

// Reload forces a configuration reload and returns the number of intents.
func (e *Engine) Reload(ctx context.Context) int {
	return len(e.cache.Get(ctx, true))
}

// Watch returns a channel that signals when the intent source changes.
// Returns error if the source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.source.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("intent source cannot be watched: %w", domain.ErrUnsupported)
}

// Source returns the intent source used by the engine.
func (e *Engine) Source() ports.IntentSource {
	return e.source
}

// Host returns the host driven by the engine.
func (e *Engine) Host() ports.Host {
	return e.host
}
