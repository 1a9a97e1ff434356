package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aretw0/blade/pkg/domain"
)

// JSONHandler exchanges JSON lines. Each input line is either a JSON string
// (a phrase) or a request object; each report is written as one JSON object.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder

	mu sync.Mutex
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

// Read decodes the next non-blank line. Object fields left out take the
// defaults of domain.NewRunRequest.
func (h *JSONHandler) Read(ctx context.Context) (domain.RunRequest, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.RunRequest{}, err
		}
		line, err := h.Reader.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err != nil {
				return domain.RunRequest{}, err
			}
			continue
		}
		req, decErr := decodeRequest(line)
		if decErr != nil {
			return domain.RunRequest{}, decErr
		}
		return req, nil
	}
}

func decodeRequest(line []byte) (domain.RunRequest, error) {
	if line[0] == '"' {
		var phrase string
		if err := json.Unmarshal(line, &phrase); err != nil {
			return domain.RunRequest{}, fmt.Errorf("%w: invalid phrase line: %w", ErrBadRequest, err)
		}
		return domain.NewRunRequest(phrase), nil
	}
	req := domain.NewRunRequest("")
	if err := json.Unmarshal(line, &req); err != nil {
		return domain.RunRequest{}, fmt.Errorf("%w: invalid request line: %w", ErrBadRequest, err)
	}
	return req, nil
}

// Write encodes rep as one line.
func (h *JSONHandler) Write(ctx context.Context, rep domain.RunReport) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(rep)
}
