package ports

import (
	"context"

	"github.com/aretw0/blade/pkg/domain"
)

// PendingStore keeps intents seen at runtime that are not in the configuration yet.
type PendingStore interface {
	// List returns pending intents in insertion order.
	List(ctx context.Context) ([]domain.Intent, error)
	// Append adds intents at the end of the pending list.
	Append(ctx context.Context, intents ...domain.Intent) error
	// Clear empties the pending list.
	Clear(ctx context.Context) error
}

// HistoryStore keeps enriched records of dispatched intents.
type HistoryStore interface {
	Record(ctx context.Context, rec domain.EnrichedRecord) error
	// Recent returns up to n records, newest last.
	Recent(ctx context.Context, n int) ([]domain.EnrichedRecord, error)
}

// Enricher receives every validated intent before dispatch.
type Enricher interface {
	Enrich(ctx context.Context, in domain.Intent, phrase, mode string) error
}

// PendingInjector receives every validated intent before dispatch and may
// stage it for review.
type PendingInjector interface {
	Inject(ctx context.Context, intents ...domain.Intent) (int, error)
}
