package runtime

import (
	"context"

	"github.com/aretw0/blade/pkg/domain"
)

// BatchOptions tunes ExecuteBatch.
type BatchOptions struct {
	StopOnError bool
	Exec        []ExecOption
}

// ExecuteBatch runs intents in order and aggregates the results.
// With StopOnError, the batch ends after the first failure; Total then
// counts only the intents that ran.
func (e *Executor) ExecuteBatch(ctx context.Context, intents []domain.Intent, opts BatchOptions) domain.BatchResult {
	res := domain.BatchResult{
		NamesSuccess: []string{},
		NamesFailed:  []string{},
		Details:      make([]domain.ExecutionResult, 0, len(intents)),
	}
	for _, in := range intents {
		r := e.ExecuteWith(ctx, in, opts.Exec...)
		res.Add(r)
		if !r.OK && opts.StopOnError {
			break
		}
	}
	return res
}
