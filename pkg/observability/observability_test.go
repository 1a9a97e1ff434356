package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	h := m.Hooks()
	ctx := context.Background()

	h.OnMatch(ctx, &domain.MatchEvent{Stage: domain.MatchExact, Score: 1})
	h.OnMatch(ctx, &domain.MatchEvent{Stage: domain.MatchFuzzy, Score: 0.7})
	h.OnMatch(ctx, &domain.MatchEvent{Stage: domain.MatchNone, Score: 0.2})
	h.OnExecute(ctx, &domain.ExecuteEvent{Stage: domain.StageResolver, OK: true, Duration: time.Millisecond})
	h.OnExecute(ctx, &domain.ExecuteEvent{Stage: domain.StageFailed, Duration: time.Millisecond})
	h.OnRun(ctx, &domain.RunEvent{Reason: "ok", OK: true, Pipeline: "default"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Matches.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Matches.WithLabelValues("none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("resolver", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("failed", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("ok", "default")))

	n, err := testutil.GatherAndCount(reg, "blade_match_score")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expected := `
# HELP blade_runs_total Orchestrated runs, by end reason and pipeline.
# TYPE blade_runs_total counter
blade_runs_total{pipeline="default",reason="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "blade_runs_total"))
}

func TestMetrics_Unregistered(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.Hooks().OnRun(context.Background(), &domain.RunEvent{Reason: "no_intent"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("no_intent", "")))
}

func TestChain(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnRun: func(context.Context, *domain.RunEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{
		OnRun:   func(context.Context, *domain.RunEvent) { order = append(order, "b") },
		OnMatch: func(context.Context, *domain.MatchEvent) { order = append(order, "match") },
	}

	h := observability.Chain(a, domain.LifecycleHooks{}, b)
	h.OnRun(context.Background(), &domain.RunEvent{})
	h.OnMatch(context.Background(), &domain.MatchEvent{})
	assert.Nil(t, h.OnExecute)
	assert.Equal(t, []string{"a", "b", "match"}, order)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := observability.LogHooks(logger)

	h.OnRun(context.Background(), &domain.RunEvent{EventBase: domain.EventBase{RunID: "r1"}, Reason: "no_intent"})
	h.OnExecute(context.Background(), &domain.ExecuteEvent{Intent: "cube", Stage: domain.StageResolver, OK: true})

	out := buf.String()
	assert.Contains(t, out, "level=WARN msg=run run_id=r1")
	assert.Contains(t, out, "reason=no_intent")
	assert.Contains(t, out, "intent=cube stage=resolver ok=true")
}
