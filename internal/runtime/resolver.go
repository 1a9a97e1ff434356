package runtime

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"strings"

	"github.com/aretw0/blade/pkg/classifier"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/hostpath"
	"github.com/aretw0/blade/pkg/ports"
)

// Resolver dispatches an intent's operator to the host.
type Resolver struct {
	host       ports.Host
	classifier *classifier.Classifier
	preparer   *Preparer
	logger     *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClassifier replaces the operator classifier.
func WithClassifier(c *classifier.Classifier) ResolverOption {
	return func(r *Resolver) {
		if c != nil {
			r.classifier = c
		}
	}
}

// WithPreparer replaces the context preparer.
func WithPreparer(p *Preparer) ResolverOption {
	return func(r *Resolver) {
		if p != nil {
			r.preparer = p
		}
	}
}

// WithResolverLogger sets a custom structured logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver for host. By default operators are
// classified against the host's own command categories.
func NewResolver(host ports.Host, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		host:   host,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.classifier == nil {
		r.classifier = classifier.New(host.Commands())
	}
	if r.preparer == nil {
		r.preparer = NewPreparer(host.Scene(), WithPreparerLogger(r.logger))
	}
	return r
}

// ResolveAndExecute runs the intent's operator and reports success.
// It never panics.
func (r *Resolver) ResolveAndExecute(ctx context.Context, in domain.Intent) (ok bool) {
	log := r.logger.With("intent", in.Name, "operator", in.Operator)
	defer func() {
		if p := recover(); p != nil {
			log.Error("resolver panicked", "panic", p)
			ok = false
		}
	}()

	op := strings.TrimSpace(in.Operator)
	if op == "" {
		log.Warn("intent has no operator")
		return false
	}

	kind := r.classifier.Classify(op)
	if classifier.IsStatePath(op) {
		kind = domain.KindState
	}

	switch kind {
	case domain.KindCommand:
		return r.runCommand(ctx, log, in, classifier.Sanitize(op))
	case domain.KindState:
		return r.assignState(ctx, log, in, classifier.Sanitize(op))
	}

	log.Debug("operator not recognized, trying it as a state path")
	if r.assignState(ctx, log, in, classifier.Sanitize(op)) {
		return true
	}
	log.Warn("operator is neither a command nor a state path")
	return false
}

func (r *Resolver) runCommand(ctx context.Context, log *slog.Logger, in domain.Intent, op string) bool {
	parts := strings.Split(op, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		log.Warn("command operator must be category.command")
		return false
	}
	category, name := parts[0], parts[1]

	cmd, found := r.host.Commands().Lookup(category, name)
	if !found {
		log.Warn("command not found", "err", domain.ErrUnknownCommand)
		return false
	}

	ready, err := safePoll(ctx, cmd)
	if err != nil {
		log.Warn("poll failed", "err", err)
	}
	if !ready {
		changed, err := r.preparer.PrepareForCommand(ctx, category, name, in)
		if err != nil {
			log.Warn("context repair failed", "err", err)
		}
		log.Debug("context repaired", "changed", changed)

		if ready, err = safePoll(ctx, cmd); !ready {
			log.Warn("command cannot run in current context", "err", domain.ErrPreconditionFailed, "poll_err", err)
			return false
		}
	}

	out, err := safeInvoke(ctx, cmd, nil, maps.Clone(map[string]any(in.Params)))
	if err != nil {
		log.Warn("command failed", "err", err)
		return false
	}
	log.Info("command executed", "status", out.Status)
	return true
}

func (r *Resolver) assignState(ctx context.Context, log *slog.Logger, in domain.Intent, path string) bool {
	value, ok := in.Params.Value()
	if !ok {
		log.Warn("state path needs a value param", "err", domain.ErrMissingValue)
		return false
	}

	if strings.HasPrefix(path, "context.") {
		n := needsOf(in)
		if strings.HasPrefix(path, "context.object") || strings.HasPrefix(path, "context.active_object") {
			n.object = true
		}
		if n.any() {
			if _, err := r.preparer.apply(ctx, n); err != nil {
				log.Warn("context repair failed", "err", err)
			}
		}
	}

	if in.Params.NormalizeHint() == domain.NormalizeColor {
		value = NormalizeColor(value)
	}

	if strings.Contains(path, "diffuse_color") && r.setShaderColor(log, path, value) {
		return true
	}

	if err := safeCall(func() error { return hostpath.Set(r.host.State(), path, value) }); err != nil {
		log.Warn("state assignment failed", "path", path, "err", err)
		return false
	}
	log.Info("state assigned", "path", path)
	return true
}

// setShaderColor writes the base color of a node-based material instead of
// its viewport color. It returns false when the strategy does not apply.
func (r *Resolver) setShaderColor(log *slog.Logger, path string, value any) bool {
	parsed, err := hostpath.Parse(path)
	if err != nil {
		return false
	}
	last := parsed.Steps[len(parsed.Steps)-1]
	if last.IsKey || last.Attr != "diffuse_color" {
		return false
	}
	target, err := hostpath.Resolve(r.host.State(), parsed)
	if err != nil {
		return false
	}
	mat, ok := target.Parent.(ports.NodeMaterial)
	if !ok || !mat.UsesNodes() {
		return false
	}
	color, ok := rgba(value)
	if !ok {
		return false
	}
	var done bool
	err = safeCall(func() (err error) {
		done, err = mat.SetBaseColor(color)
		return err
	})
	if err != nil {
		log.Debug("shader color failed, falling back to attribute", "err", err)
		return false
	}
	if done {
		log.Info("shader base color set", "material", mat.Name())
	}
	return done
}
