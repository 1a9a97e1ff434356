package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/blade/pkg/domain"
)

// TextHandler reads one phrase per line and prints a one-line summary per run.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Mode     string
	Prompt   string

	lines     chan lineResult
	startOnce sync.Once
}

type lineResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextRenderer configures the content renderer.
func WithTextRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextMode sets the mode recorded for every request (text by default).
func WithTextMode(mode string) TextHandlerOption {
	return func(h *TextHandler) {
		if mode != "" {
			h.Mode = mode
		}
	}
}

// WithPrompt sets the prompt printed before each read. Empty disables it.
func WithPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = prompt
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Mode:   domain.ModeText,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// The pump goroutine owns the reader so that Read can honour ctx while a
// line is still being typed.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.lines = make(chan lineResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	defer close(h.lines)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.lines <- lineResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.lines <- lineResult{err: err}
			}
			return
		}
	}
}

// Read skips blank lines and returns the next phrase.
func (h *TextHandler) Read(ctx context.Context) (domain.RunRequest, error) {
	h.initPump()
	for {
		if h.Prompt != "" {
			fmt.Fprint(h.Writer, h.Prompt)
		}
		select {
		case <-ctx.Done():
			return domain.RunRequest{}, ctx.Err()
		case res, ok := <-h.lines:
			if !ok {
				return domain.RunRequest{}, io.EOF
			}
			if res.err != nil {
				return domain.RunRequest{}, res.err
			}
			phrase := strings.TrimSpace(res.text)
			if phrase == "" {
				continue
			}
			req := domain.NewRunRequest(phrase)
			req.Mode = h.Mode
			return req, nil
		}
	}
}

// Write prints the report summary.
func (h *TextHandler) Write(ctx context.Context, rep domain.RunReport) error {
	out := Summary(rep)
	if h.Renderer != nil {
		if rendered, err := h.Renderer(out); err == nil {
			out = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(out))
	return err
}

// Summary formats a report as a single line of markdown.
func Summary(rep domain.RunReport) string {
	name := "-"
	if rep.Intent != nil {
		name = rep.Intent.Name
	}
	status := "ok"
	if !rep.OK {
		status = "failed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** `%s` (%s", status, name, rep.Reason)
	if rep.Match != nil && rep.Match.Stage != domain.MatchNone {
		fmt.Fprintf(&b, ", %s match %.2f", rep.Match.Stage, rep.Match.Score)
	}
	if rep.Result != nil && rep.Result.Stage != "" {
		fmt.Fprintf(&b, ", %s", rep.Result.Stage)
	}
	if rep.Pipeline != "" {
		fmt.Fprintf(&b, ", pipeline %s", rep.Pipeline)
	}
	b.WriteString(")")
	if rep.Result != nil && rep.Result.Error != "" {
		fmt.Fprintf(&b, ": %s", rep.Result.Error)
	}
	return b.String()
}
