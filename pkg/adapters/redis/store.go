// Package redis keeps pending intents in a Redis list and provides a
// Redis-backed ports.DistributedLocker.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/blade/pkg/catalog"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "blade:"

// PendingStore implements ports.PendingStore as a Redis list of JSON records.
// Several engines pointed at the same server share one pending list.
type PendingStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.PendingStore = (*PendingStore)(nil)

type Option func(*PendingStore)

// WithTTL expires the whole pending list ttl after the last append.
func WithTTL(ttl time.Duration) Option {
	return func(s *PendingStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *PendingStore) {
		s.prefix = prefix
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *PendingStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a pending store connected to address.
func New(address, password string, db int, opts ...Option) *PendingStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a pending store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *PendingStore {
	s := &PendingStore{
		client: client,
		prefix: DefaultPrefix,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PendingStore) key() string {
	return s.prefix + "pending"
}

// List returns pending intents in insertion order. Records that no longer
// decode are skipped.
func (s *PendingStore) List(ctx context.Context) ([]domain.Intent, error) {
	vals, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending intents: %w", err)
	}

	out := make([]domain.Intent, 0, len(vals))
	for i, v := range vals {
		var raw map[string]any
		if err := json.Unmarshal([]byte(v), &raw); err != nil {
			s.logger.Warn("skipping unreadable pending record", "index", i, "err", err)
			continue
		}
		in, err := catalog.Decode(raw)
		if err != nil {
			s.logger.Warn("skipping invalid pending record", "index", i, "err", err)
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

// Append pushes intents at the tail of the list in a single round trip.
func (s *PendingStore) Append(ctx context.Context, intents ...domain.Intent) error {
	if len(intents) == 0 {
		return nil
	}

	values := make([]any, 0, len(intents))
	for _, in := range intents {
		raw, err := catalog.Encode(in)
		if err != nil {
			return err
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("failed to marshal intent %q: %w", in.Name, err)
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(), values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append pending intents: %w", err)
	}
	return nil
}

// Clear deletes the pending list.
func (s *PendingStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear pending intents: %w", err)
	}
	return nil
}

// Client returns the underlying client, so a Locker can share the connection.
func (s *PendingStore) Client() *backend.Client {
	return s.client
}

// Close closes the redis client.
func (s *PendingStore) Close() error {
	return s.client.Close()
}
