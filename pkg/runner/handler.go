package runner

import (
	"context"

	"github.com/aretw0/blade/pkg/domain"
)

// Handler is the strategy for exchanging requests and reports with a producer.
// It allows switching between plain text and structured JSON lines.
type Handler interface {
	// Read returns the next request. It returns io.EOF once the producer is done.
	Read(ctx context.Context) (domain.RunRequest, error)

	// Write presents a finished run.
	Write(ctx context.Context, rep domain.RunReport) error
}

// ContentRenderer transforms text before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)
