package domain

import "time"

// MatchStage tells which matcher stage produced a MatchResult.
type MatchStage string

const (
	MatchExact MatchStage = "exact"
	MatchFuzzy MatchStage = "fuzzy"
	MatchNone  MatchStage = "none"
)

// MatchResult is the outcome of matching a phrase against the configured intents.
// Intent is nil when nothing scored above the threshold; Score still carries
// the best score seen.
type MatchResult struct {
	Intent *Intent    `json:"intent,omitempty"`
	Score  float64    `json:"score"`
	Stage  MatchStage `json:"stage"`
}

// Matched reports whether an intent was accepted.
func (m MatchResult) Matched() bool {
	return m.Intent != nil
}

// Stage names the execution tier that settled an intent.
type Stage string

const (
	StageResolver       Stage = "resolver"
	StageFallbackOps    Stage = "fallback_ops"
	StageFallbackDirect Stage = "fallback_direct"
	StageFailed         Stage = "failed"
)

// ExecutionResult reports how a single intent was carried out.
type ExecutionResult struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Stage   Stage  `json:"stage"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResult aggregates several executions. Success+Failed always equals Total.
type BatchResult struct {
	Total        int               `json:"total"`
	Success      int               `json:"success"`
	Failed       int               `json:"failed"`
	NamesSuccess []string          `json:"names_success"`
	NamesFailed  []string          `json:"names_failed"`
	Details      []ExecutionResult `json:"details"`
}

// Add folds one execution into the batch.
func (b *BatchResult) Add(r ExecutionResult) {
	b.Total++
	b.Details = append(b.Details, r)
	if r.OK {
		b.Success++
		b.NamesSuccess = append(b.NamesSuccess, r.Name)
		return
	}
	b.Failed++
	b.NamesFailed = append(b.NamesFailed, r.Name)
}

// OperatorKind is the classification of an operator string.
type OperatorKind string

const (
	KindCommand OperatorKind = "ops"
	KindState   OperatorKind = "context"
	KindUnknown OperatorKind = "unknown"
)

// EnrichedRecord is the flattened view of a dispatched intent kept in history.
type EnrichedRecord struct {
	RunID     string       `json:"run_id,omitempty"`
	Name      string       `json:"name"`
	Phrase    string       `json:"phrase,omitempty"`
	Operator  string       `json:"operator,omitempty"`
	Params    Params       `json:"params,omitempty"`
	Type      OperatorKind `json:"type"`
	Mode      string       `json:"mode"`
	Timestamp time.Time    `json:"timestamp"`
}
