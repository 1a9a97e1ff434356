package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/blade/internal/presentation/tui"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/runner"
)

// ListenOptions contains the configuration of an interactive session.
type ListenOptions struct {
	JSON   bool
	DryRun bool
	// NoInjection keeps phrases out of the pending list.
	NoInjection bool
	Mode        string
	In          io.Reader
	Out         io.Writer
}

// Listen reads phrases (or JSON requests, one per line) until end of input or
// cancellation and runs each of them on a single worker goroutine.
func Listen(ctx context.Context, eng runner.Engine, opts ListenOptions, logger *slog.Logger) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if logger == nil {
		logger = createLogger(false)
	}

	var handler runner.Handler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		mode := opts.Mode
		if mode == "" {
			mode = domain.ModeText
		}
		textOpts := []runner.TextHandlerOption{
			runner.WithTextRenderer(tui.RendererFor(opts.Out)),
			runner.WithTextMode(mode),
		}
		if tui.IsTerminal(opts.Out) {
			textOpts = append(textOpts, runner.WithPrompt("> "))
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, textOpts...)
	}

	interceptors := []runner.Interceptor{runner.SanitizeInterceptor()}
	if opts.DryRun {
		interceptors = append(interceptors, runner.DryRunInterceptor())
	}
	if opts.NoInjection {
		interceptors = append(interceptors, runner.NoInjectionInterceptor())
	}

	queue := runner.NewQueue(eng, runner.WithQueueLogger(logger))
	defer queue.Close()

	listener := runner.NewListener(queue, handler,
		runner.WithInterceptors(interceptors...),
		runner.WithListenerLogger(logger),
	)
	logger.Info("Listening", "json", opts.JSON, "dry_run", opts.DryRun)
	return handleExecutionError(listener.Listen(ctx))
}
