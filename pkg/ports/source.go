package ports

import (
	"context"
	"time"

	"github.com/aretw0/blade/pkg/domain"
)

// IntentSource is where the intent configuration comes from.
type IntentSource interface {
	// ModTime returns the last modification time of the configuration.
	ModTime(ctx context.Context) (time.Time, error)
	// Load returns the configured intents in configuration order.
	// Items that are not intent records are skipped by the implementation.
	Load(ctx context.Context) ([]domain.Intent, error)
}

// WritableSource is an IntentSource that can be rewritten, used when merging
// pending intents into the configuration.
type WritableSource interface {
	IntentSource
	Save(ctx context.Context, intents []domain.Intent) error
}

// Watchable defines an interface for sources that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that is signaled when the configuration changes.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
