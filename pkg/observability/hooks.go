package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/blade/pkg/domain"
)

// Chain combines several hook sets into one. Hooks run in argument order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, s := range sets {
		out.OnMatch = chain(out.OnMatch, s.OnMatch)
		out.OnExecute = chain(out.OnExecute, s.OnExecute)
		out.OnRun = chain(out.OnRun, s.OnRun)
	}
	return out
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LogHooks logs every lifecycle event on logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMatch: func(ctx context.Context, e *domain.MatchEvent) {
			logger.DebugContext(ctx, "match",
				"run_id", e.RunID,
				"phrase", e.Phrase,
				"intent", e.Intent,
				"score", e.Score,
				"stage", e.Stage,
			)
		},
		OnExecute: func(ctx context.Context, e *domain.ExecuteEvent) {
			logger.DebugContext(ctx, "execute",
				"run_id", e.RunID,
				"intent", e.Intent,
				"stage", e.Stage,
				"ok", e.OK,
				"duration", e.Duration,
			)
		},
		OnRun: func(ctx context.Context, e *domain.RunEvent) {
			level := slog.LevelInfo
			if !e.OK && e.Reason != string(domain.ReasonDryRun) {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "run",
				"run_id", e.RunID,
				"intent", e.Intent,
				"reason", e.Reason,
				"pipeline", e.Pipeline,
				"duration", e.Duration,
			)
		},
	}
}
