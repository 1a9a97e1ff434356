// Package process exposes allow-listed local programs as host commands.
//
// Intents cannot name a program: only tools registered from a trusted
// configuration file are reachable, under "<category>.<name>".
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/blade/pkg/ports"
)

// EnvPrefix prefixes the environment variables carrying keyword arguments.
const EnvPrefix = "BLADE_ARG_"

// defaultWaitDelay is how long a cancelled process may take to exit after
// the interrupt before it is killed.
const defaultWaitDelay = 2 * time.Second

// Registrar receives host commands. *registry.Registry implements it.
type Registrar interface {
	Register(category, name string, cmd ports.Command)
}

// Runner follows a Strict Registry pattern for security (Allow-Listing).
type Runner struct {
	registry  map[string]ProcessConfig
	baseDir   string
	waitDelay time.Duration
	logger    *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			tool.Name = name
			r.registry[name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithWaitDelay bounds how long a cancelled process may keep running.
func WithWaitDelay(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.waitDelay = d
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:  make(map[string]ProcessConfig),
		waitDelay: defaultWaitDelay,
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted script/command to the allow-list in the default category.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = ProcessConfig{
		Name:    name,
		Command: command,
		Args:    args,
	}
}

// Operators lists the operators of the registered tools, sorted.
func (r *Runner) Operators() []string {
	out := make([]string, 0, len(r.registry))
	for _, tool := range r.registry {
		out = append(out, tool.Operator())
	}
	slices.Sort(out)
	return out
}

// Command returns the host command running the named tool.
func (r *Runner) Command(name string) (ports.Command, bool) {
	tool, ok := r.registry[name]
	if !ok {
		return nil, false
	}
	return &Command{tool: tool, runner: r}, true
}

// Install registers every tool with reg.
func (r *Runner) Install(reg Registrar) {
	for _, name := range slices.Sorted(maps.Keys(r.registry)) {
		tool := r.registry[name]
		cat := tool.Category
		if cat == "" {
			cat = DefaultCategory
		}
		reg.Register(cat, name, &Command{tool: tool, runner: r})
		r.logger.Debug("external tool registered", "operator", tool.Operator(), "command", tool.Command)
	}
}

// Command runs one allow-listed process.
type Command struct {
	tool   ProcessConfig
	runner *Runner
}

// Poll reports whether the program can be found.
func (c *Command) Poll(ctx context.Context) bool {
	_, err := exec.LookPath(c.tool.Command)
	return err == nil
}

// Invoke runs the process. Security: arguments never become command line
// flags. Keyword arguments are passed as BLADE_ARG_<KEY> environment
// variables and positional arguments as a JSON array in BLADE_ARGS.
// Stdout is the outcome value, decoded when it is JSON.
func (c *Command) Invoke(ctx context.Context, args []any, kwargs map[string]any) (ports.Outcome, error) {
	if c.tool.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.tool.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.tool.Command, c.tool.Args...)
	cmd.Dir = c.runner.baseDir
	if runtime.GOOS != "windows" {
		// Ask nicely first, WaitDelay kills stragglers.
		cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	}
	cmd.WaitDelay = c.runner.waitDelay

	env := cmd.Environ()
	for k, v := range c.tool.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range kwargs {
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+envValue(v))
	}
	if len(args) > 0 {
		if raw, err := json.Marshal(args); err == nil {
			env = append(env, "BLADE_ARGS="+string(raw))
		}
	}
	cmd.Env = env

	// Capture Output
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := c.runner.logger.With("operator", c.tool.Operator())
	start := time.Now()
	err := cmd.Run()
	if err != nil {
		log.Warn("external tool failed", "err", err, "duration", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ports.Outcome{}, fmt.Errorf("%s: %w", c.tool.Operator(), ctxErr)
		}
		return ports.Outcome{}, fmt.Errorf("%s: execution failed: %w. Stderr: %s",
			c.tool.Operator(), err, strings.TrimSpace(stderr.String()))
	}
	log.Debug("external tool finished", "duration", time.Since(start))

	return ports.Outcome{Status: ports.StatusFinished, Value: decodeOutput(stdout.String())}, nil
}

// envValue serializes primitives with fmt and everything else as JSON.
func envValue(v any) string {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	}
	if raw, err := json.Marshal(v); err == nil {
		return string(raw)
	}
	return fmt.Sprintf("%v", v)
}

// decodeOutput parses JSON objects and arrays and returns anything else as a trimmed string.
func decodeOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
