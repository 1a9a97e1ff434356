package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "blade"

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	Matches      *prometheus.CounterVec
	MatchScore   prometheus.Histogram
	Executions   *prometheus.CounterVec
	ExecDuration *prometheus.HistogramVec
	Runs         *prometheus.CounterVec
	RunDuration  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "matches_total",
			Help:      "Phrases matched, by matcher stage.",
		}, []string{"stage"}),
		MatchScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "match_score",
			Help:      "Best similarity score of each matched phrase.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		Executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "executions_total",
			Help:      "Intent executions, by settling tier and outcome.",
		}, []string{"stage", "ok"}),
		ExecDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "execution_duration_seconds",
			Help:      "Duration of intent executions.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"stage"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Orchestrated runs, by end reason and pipeline.",
		}, []string{"reason", "pipeline"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of orchestrated runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Matches, m.MatchScore, m.Executions, m.ExecDuration, m.Runs, m.RunDuration)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMatch: func(_ context.Context, e *domain.MatchEvent) {
			m.Matches.WithLabelValues(string(e.Stage)).Inc()
			if e.Stage != domain.MatchNone {
				m.MatchScore.Observe(e.Score)
			}
		},
		OnExecute: func(_ context.Context, e *domain.ExecuteEvent) {
			m.Executions.WithLabelValues(string(e.Stage), strconv.FormatBool(e.OK)).Inc()
			m.ExecDuration.WithLabelValues(string(e.Stage)).Observe(e.Duration.Seconds())
		},
		OnRun: func(_ context.Context, e *domain.RunEvent) {
			m.Runs.WithLabelValues(e.Reason, e.Pipeline).Inc()
			m.RunDuration.Observe(e.Duration.Seconds())
		},
	}
}
