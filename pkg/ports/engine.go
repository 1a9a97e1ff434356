package ports

import (
	"context"

	"github.com/aretw0/blade/pkg/domain"
)

// Executor carries out a single intent against the host.
type Executor interface {
	Execute(ctx context.Context, in domain.Intent) domain.ExecutionResult
}

// Interpreter is the engine surface used by adapters (HTTP, MCP) that accept
// phrases from the outside world.
type Interpreter interface {
	RunDetailed(ctx context.Context, req domain.RunRequest) domain.RunReport
	Match(ctx context.Context, phrase string) domain.MatchResult
	Execute(ctx context.Context, in domain.Intent) domain.ExecutionResult
	ExecuteBatch(ctx context.Context, intents []domain.Intent, stopOnError bool) domain.BatchResult
	Intents(ctx context.Context) []domain.Intent
	Reload(ctx context.Context) int
}
