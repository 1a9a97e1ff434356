package domain

import (
	"context"
	"time"
)

// Reason explains how an orchestrated run ended.
type Reason string

const (
	ReasonOK              Reason = "ok"
	ReasonDryRun          Reason = "dry_run"
	ReasonEmptyPhrase     Reason = "empty_phrase"
	ReasonNoIntent        Reason = "no_intent"
	ReasonMissingOperator Reason = "missing_operator"
	ReasonExecutionFailed Reason = "execution_failed"
	ReasonNoExecutor      Reason = "no_executor"
	ReasonDispatchPanic   Reason = "dispatch_panic"
	ReasonRejected        Reason = "rejected"
)

// RunRequest is the input of one orchestrated run. Either Phrase or Intent
// must be set; a pre-built Intent bypasses matching.
type RunRequest struct {
	Phrase             string  `json:"phrase,omitempty"`
	Intent             *Intent `json:"intent,omitempty"`
	Mode               string  `json:"mode,omitempty"`
	AllowInjection     bool    `json:"allow_injection"`
	DryRun             bool    `json:"dry_run"`
	UsePipelineManager bool    `json:"use_pipeline_manager"`
}

// NewRunRequest returns a request for phrase with the default run settings.
func NewRunRequest(phrase string) RunRequest {
	return RunRequest{
		Phrase:             phrase,
		Mode:               ModeVoice,
		AllowInjection:     true,
		UsePipelineManager: true,
	}
}

// NewIntentRequest returns a request that dispatches a pre-built intent.
func NewIntentRequest(in Intent) RunRequest {
	req := NewRunRequest("")
	req.Intent = &in
	return req
}

// RunReport describes a finished run. OK is the value a plain Run returns.
type RunReport struct {
	RunID    string           `json:"run_id"`
	OK       bool             `json:"ok"`
	Reason   Reason           `json:"reason"`
	Intent   *Intent          `json:"intent,omitempty"`
	Match    *MatchResult     `json:"match,omitempty"`
	Result   *ExecutionResult `json:"result,omitempty"`
	Pipeline string           `json:"pipeline,omitempty"`
	Duration time.Duration    `json:"duration"`
}

type runIDKey struct{}

// ContextWithRunID returns a copy of ctx carrying the id of the current run.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run id stored in ctx, if any.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
