package file

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/blade/pkg/catalog"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// PendingFile implements ports.PendingStore as a YAML list of intents.
// Safe for concurrent use within one process.
type PendingFile struct {
	Path string

	mu     sync.Mutex
	logger *slog.Logger
}

var _ ports.PendingStore = (*PendingFile)(nil)

// NewPendingFile creates a pending store backed by path.
func NewPendingFile(path string, opts ...Option) *PendingFile {
	c := newConfig(opts)
	return &PendingFile{Path: path, logger: c.logger}
}

func (p *PendingFile) List(ctx context.Context) ([]domain.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.read()
}

// Append rewrites the file with intents added at the end.
// A pending file that does not hold a list is replaced.
func (p *PendingFile) Append(ctx context.Context, intents ...domain.Intent) error {
	if len(intents) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.read()
	if err != nil {
		return err
	}
	return writeList(p.Path, append(current, intents...))
}

func (p *PendingFile) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return writeList(p.Path, nil)
}

func (p *PendingFile) read() ([]domain.Intent, error) {
	items, err := readList(p.Path)
	if errors.Is(err, domain.ErrNotAList) {
		p.logger.Warn("pending file is not a list, starting over", "path", p.Path)
		return []domain.Intent{}, nil
	}
	if err != nil {
		return nil, err
	}
	return catalog.DecodeAll(items, p.logger.With("path", p.Path)), nil
}
