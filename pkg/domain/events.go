package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventMatch   EventType = "match"
	EventExecute EventType = "execute"
	EventRun     EventType = "run"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// MatchEvent is emitted after a phrase has been matched (or not).
type MatchEvent struct {
	EventBase
	Phrase string     `json:"phrase"`
	Intent string     `json:"intent,omitempty"`
	Score  float64    `json:"score"`
	Stage  MatchStage `json:"stage"`
}

// ExecuteEvent is emitted once per intent execution.
type ExecuteEvent struct {
	EventBase
	Intent   string        `json:"intent"`
	Stage    Stage         `json:"stage"`
	OK       bool          `json:"ok"`
	Duration time.Duration `json:"duration"`
}

// RunEvent is emitted when the orchestrator finishes a run.
type RunEvent struct {
	EventBase
	Intent   string        `json:"intent,omitempty"`
	Reason   string        `json:"reason"`
	OK       bool          `json:"ok"`
	Pipeline string        `json:"pipeline,omitempty"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnMatch   func(context.Context, *MatchEvent)
	OnExecute func(context.Context, *ExecuteEvent)
	OnRun     func(context.Context, *RunEvent)
}
