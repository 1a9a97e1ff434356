package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/blade"
	"github.com/aretw0/blade/internal/config"
	"github.com/aretw0/blade/pkg/adapters/file"
	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/adapters/process"
	"github.com/aretw0/blade/pkg/adapters/redis"
	"github.com/aretw0/blade/pkg/adapters/sqlite"
	"github.com/aretw0/blade/pkg/matcher"
	"github.com/aretw0/blade/pkg/observability"
	"github.com/aretw0/blade/pkg/pending"
	"github.com/aretw0/blade/pkg/persistence/middleware"
	"github.com/aretw0/blade/pkg/ports"
	"github.com/aretw0/blade/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
)

// Stack is an engine wired from settings together with the stores it uses.
type Stack struct {
	Settings config.Settings
	Engine   *blade.Engine
	Host     ports.Host
	Source   *file.IntentFile
	Pending  ports.PendingStore
	History  ports.HistoryStore
	Locker   ports.DistributedLocker
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// NewStack initializes a Blade engine with standard CLI conventions.
// A nil host runs against the in-memory host. extra options are applied
// after the ones derived from settings.
func NewStack(s config.Settings, host ports.Host, logger *slog.Logger, extra ...blade.Option) (*Stack, error) {
	if logger == nil {
		logger = createLogger(false)
	}
	if host == nil {
		host = memory.NewHost()
	}
	st := &Stack{
		Settings: s,
		Host:     host,
		Source:   file.NewIntentFile(s.Config, file.WithLogger(logger)),
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	}

	if err := st.installTools(); err != nil {
		return nil, err
	}
	if err := st.openPending(); err != nil {
		return nil, err
	}
	if err := st.openHistory(); err != nil {
		st.Close()
		return nil, err
	}

	metrics := observability.NewMetrics(st.Registry)
	opts := []blade.Option{
		blade.WithLogger(logger),
		blade.WithThreshold(s.Matcher.Threshold),
		blade.WithMatcherOptions(
			matcher.WithBooster(matcher.NewColorBoost(s.Matcher.ColorBoost)),
			matcher.WithBoostCrossingThreshold(s.Matcher.BoostCrossesThreshold),
		),
		blade.WithRetries(s.Executor.Retries),
		blade.WithRetryDelay(s.Executor.Delay),
		blade.WithAutoFix(s.Executor.AutoFix),
		blade.WithLifecycleHooks(observability.Chain(observability.LogHooks(logger), metrics.Hooks())),
		blade.WithPendingStore(st.Pending),
	}
	if st.History != nil {
		opts = append(opts, blade.WithHistory(st.History))
	}

	engine, err := blade.New(st.Source, host, append(opts, extra...)...)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	st.Engine = engine
	return st, nil
}

func (st *Stack) openPending() error {
	s := st.Settings
	switch s.PendingBackend {
	case config.BackendMemory:
		st.Pending = memory.NewPendingStore()
	case config.BackendRedis:
		store := redis.New(s.Redis.Addr, s.Redis.Password, s.Redis.DB,
			redis.WithPrefix(s.Redis.Prefix),
			redis.WithTTL(s.Redis.TTL),
			redis.WithLogger(st.Logger),
		)
		st.Pending = store
		st.Locker = redis.NewLocker(store.Client(), s.Redis.Prefix)
		st.closers = append(st.closers, store.Close)
	case config.BackendFile, "":
		st.Pending = file.NewPendingFile(s.Pending, file.WithLogger(st.Logger))
	default:
		return fmt.Errorf("unknown pending backend %q", s.PendingBackend)
	}
	return nil
}

func (st *Stack) openHistory() error {
	s := st.Settings
	var store ports.HistoryStore
	switch s.History {
	case config.HistoryNone, "":
		return nil
	case config.HistoryMemory:
		store = memory.NewHistoryStore(s.HistoryLimit)
	default:
		db, err := sqlite.Open(s.History, sqlite.WithLimit(s.HistoryLimit))
		if err != nil {
			return fmt.Errorf("failed to open history %s: %w", s.History, err)
		}
		st.closers = append(st.closers, db.Close)
		store = db
	}

	var mws []middleware.Middleware
	if len(s.HistoryRedact) > 0 {
		redact, err := middleware.NewRedactMiddleware(s.HistoryRedact)
		if err != nil {
			return err
		}
		mws = append(mws, redact)
	}
	if s.HistoryKey != "" {
		cfg := middleware.EncryptionConfig{}
		var err error
		if cfg.ActiveKey, err = middleware.ParseKey(s.HistoryKey); err != nil {
			return err
		}
		for _, old := range s.HistoryOldKeys {
			key, err := middleware.ParseKey(old)
			if err != nil {
				return fmt.Errorf("history_old_keys: %w", err)
			}
			cfg.FallbackKeys = append(cfg.FallbackKeys, key)
		}
		seal, err := middleware.NewEncryptionMiddleware(cfg)
		if err != nil {
			return err
		}
		mws = append(mws, seal)
	}
	st.History = middleware.Chain(store, mws...)
	return nil
}

// installTools registers the external tools of the settings with the host.
func (st *Stack) installTools() error {
	if st.Settings.Tools == "" {
		return nil
	}
	tools, err := process.LoadTools(st.Settings.Tools)
	if err != nil {
		return err
	}
	h, ok := st.Host.(interface{ Registry() *registry.Registry })
	if !ok {
		return fmt.Errorf("host %T does not accept external tools", st.Host)
	}
	runner := process.NewRunner(
		process.WithRegistry(tools),
		process.WithBaseDir(filepath.Dir(st.Settings.Tools)),
		process.WithLogger(st.Logger),
	)
	runner.Install(h.Registry())
	st.Logger.Info("External tools installed", "count", len(tools), "operators", runner.Operators())
	return nil
}

// Merger returns a merger moving pending intents into the intent file,
// serialized by the Redis lock when the Redis backend is used.
func (st *Stack) Merger() *pending.Merger {
	opts := []pending.Option{pending.WithLogger(st.Logger)}
	if st.Locker != nil {
		opts = append(opts, pending.WithLocker(st.Locker, 0))
	}
	return pending.NewMerger(st.Source, st.Pending, opts...)
}

// Close releases the stores opened by NewStack.
func (st *Stack) Close() error {
	var errs []error
	for i := len(st.closers) - 1; i >= 0; i-- {
		errs = append(errs, st.closers[i]())
	}
	st.closers = nil
	return errors.Join(errs...)
}
