// Package file stores intent configurations and pending intents as YAML
// files on the local filesystem.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aretw0/blade/internal/watch"
	"github.com/aretw0/blade/pkg/catalog"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Option configures the file adapters.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newConfig(opts []Option) config {
	c := config{logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// IntentFile is a YAML document holding a list of intents.
// A missing file is an empty configuration.
type IntentFile struct {
	Path string

	mu     sync.Mutex
	logger *slog.Logger
}

var (
	_ ports.WritableSource = (*IntentFile)(nil)
	_ ports.Watchable      = (*IntentFile)(nil)
)

// NewIntentFile creates a source reading path.
func NewIntentFile(path string, opts ...Option) *IntentFile {
	c := newConfig(opts)
	return &IntentFile{Path: path, logger: c.logger}
}

// ModTime returns the file modification time, or the zero time when the
// file does not exist.
func (f *IntentFile) ModTime(ctx context.Context) (time.Time, error) {
	info, err := os.Stat(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", f.Path, err)
	}
	return info.ModTime(), nil
}

// Load reads the configured intents in file order.
// A document that is not a list yields no intents and a warning.
func (f *IntentFile) Load(ctx context.Context) ([]domain.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := readList(f.Path)
	if errors.Is(err, domain.ErrNotAList) {
		f.logger.Warn("configuration ignored", "path", f.Path, "err", err)
		return []domain.Intent{}, nil
	}
	if err != nil {
		return nil, err
	}
	return catalog.DecodeAll(items, f.logger.With("path", f.Path)), nil
}

// Save rewrites the file with intents.
func (f *IntentFile) Save(ctx context.Context, intents []domain.Intent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return writeList(f.Path, intents)
}

// Watch signals whenever the file is written or replaced.
func (f *IntentFile) Watch(ctx context.Context) (<-chan struct{}, error) {
	return watch.File(ctx, f.Path, watch.WithLogger(f.logger))
}

// ReadRaw parses path into its raw records without decoding them.
// It is used by the validator, which reports on keys the decoder would drop.
func ReadRaw(path string) ([]any, error) {
	return readList(path)
}

func readList(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []any{}, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	switch v := doc.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s holds a %T", domain.ErrNotAList, path, doc)
	}
}

func writeList(path string, intents []domain.Intent) error {
	if intents == nil {
		intents = []domain.Intent{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(intents); err != nil {
		return fmt.Errorf("failed to marshal intents: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal intents: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}
