// Package classifier decides whether an operator names a host command or a state path.
package classifier

import (
	"strings"

	"github.com/aretw0/blade/pkg/domain"
)

// Categories reports whether a command category exists on the host.
type Categories interface {
	HasCategory(category string) bool
}

// CategorySet is a static set of command categories.
type CategorySet map[string]struct{}

// NewCategorySet builds a set from names.
func NewCategorySet(names ...string) CategorySet {
	s := make(CategorySet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s CategorySet) HasCategory(category string) bool {
	_, ok := s[category]
	return ok
}

// DefaultCategories lists the command categories of a stock host.
var DefaultCategories = NewCategorySet(
	"action", "anim", "armature", "camera", "clip", "collection", "constraint",
	"curve", "cycles", "ed", "export_scene", "file", "font", "geometry",
	"gpencil", "graph", "image", "import_scene", "lattice", "marker", "mask",
	"material", "mball", "mesh", "nla", "node", "object", "outliner", "paint",
	"particle", "pose", "render", "rigidbody", "scene", "screen", "script",
	"sculpt", "sequencer", "sound", "surface", "text", "texture", "transform",
	"ui", "uv", "view2d", "view3d", "wm", "world",
)

// Host namespace prefixes rewritten by Sanitize.
const (
	CommandPrefix = "bpy.ops."
	ContextPrefix = "bpy.context."
	DataPrefix    = "bpy.data."
)

// Sanitize trims op and strips the host namespace, so that
// "bpy.ops.mesh.x" becomes "mesh.x" and "bpy.context.y" becomes "context.y".
func Sanitize(op string) string {
	op = strings.TrimSpace(op)
	switch {
	case strings.HasPrefix(op, CommandPrefix):
		return strings.TrimPrefix(op, CommandPrefix)
	case strings.HasPrefix(op, ContextPrefix):
		return "context." + strings.TrimPrefix(op, ContextPrefix)
	case strings.HasPrefix(op, DataPrefix):
		return "data." + strings.TrimPrefix(op, DataPrefix)
	}
	return op
}

// IsStatePath reports whether op is rooted at "context." or "data.",
// with or without the host namespace.
func IsStatePath(op string) bool {
	op = Sanitize(op)
	return strings.HasPrefix(op, "context.") || strings.HasPrefix(op, "data.")
}

// Classifier classifies operators against a set of known categories.
type Classifier struct {
	categories Categories
}

// New returns a Classifier. A nil cats uses DefaultCategories.
func New(cats Categories) *Classifier {
	if cats == nil {
		cats = DefaultCategories
	}
	return &Classifier{categories: cats}
}

// Classify returns the operator kind. It never fails; anything it does not
// recognize is KindUnknown.
func (c *Classifier) Classify(op string) domain.OperatorKind {
	op = Sanitize(op)
	if op == "" {
		return domain.KindUnknown
	}
	if IsStatePath(op) {
		return domain.KindState
	}
	parts := strings.Split(op, ".")
	if len(parts) >= 2 && c.categories.HasCategory(parts[0]) {
		return domain.KindCommand
	}
	return domain.KindUnknown
}

// Classify is a shortcut for New(DefaultCategories).Classify(op).
func Classify(op string) domain.OperatorKind {
	return New(nil).Classify(op)
}
