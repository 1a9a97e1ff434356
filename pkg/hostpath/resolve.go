package hostpath

import (
	"fmt"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Target is the last hop of a path: the parent value and the attribute or
// key to assign on it.
type Target struct {
	Parent any
	Step   Step
}

// Assign writes value at the target.
func (t Target) Assign(value any) error {
	if t.Step.IsKey {
		c, ok := t.Parent.(ports.Container)
		if !ok {
			return fmt.Errorf("%w: %T is not indexable", domain.ErrNotAssignable, t.Parent)
		}
		return c.SetIndexed(t.Step.Key, value)
	}
	n, ok := t.Parent.(ports.Node)
	if !ok {
		return fmt.Errorf("%w: %T has no attributes", domain.ErrNotAssignable, t.Parent)
	}
	return n.SetAttr(t.Step.Attr, value)
}

// Value reads the current value at the target.
func (t Target) Value() (any, error) {
	return walk(t.Parent, t.Step)
}

// Resolve walks every step of path but the last and returns the assignment target.
func Resolve(roots ports.StateRoots, path Path) (Target, error) {
	if roots == nil {
		return Target{}, fmt.Errorf("%w: no state roots", domain.ErrInvalidPath)
	}
	root, ok := roots.Root(path.Root)
	if !ok {
		return Target{}, fmt.Errorf("%w: root %q not available", domain.ErrInvalidPath, path.Root)
	}
	if len(path.Steps) == 0 {
		return Target{}, fmt.Errorf("%w: %q has no step after root", domain.ErrInvalidPath, path.Root)
	}

	var cur any = root
	for i, step := range path.Steps[:len(path.Steps)-1] {
		next, err := walk(cur, step)
		if err != nil {
			return Target{}, fmt.Errorf("%w: %s at step %d: %v", domain.ErrInvalidPath, path, i+1, err)
		}
		if next == nil {
			return Target{}, fmt.Errorf("%w: %s: step %d is empty", domain.ErrInvalidPath, path, i+1)
		}
		cur = next
	}
	return Target{Parent: cur, Step: path.Steps[len(path.Steps)-1]}, nil
}

// Set parses raw, resolves it against roots and assigns value.
func Set(roots ports.StateRoots, raw string, value any) error {
	path, err := Parse(raw)
	if err != nil {
		return err
	}
	target, err := Resolve(roots, path)
	if err != nil {
		return err
	}
	if err := target.Assign(value); err != nil {
		return fmt.Errorf("assign %s: %w", path, err)
	}
	return nil
}

// Get parses raw, resolves it against roots and reads the value.
func Get(roots ports.StateRoots, raw string) (any, error) {
	path, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	target, err := Resolve(roots, path)
	if err != nil {
		return nil, err
	}
	return target.Value()
}

func walk(cur any, step Step) (any, error) {
	if step.IsKey {
		c, ok := cur.(ports.Container)
		if !ok {
			return nil, fmt.Errorf("%T is not indexable", cur)
		}
		return c.GetIndexed(step.Key)
	}
	n, ok := cur.(ports.Node)
	if !ok {
		return nil, fmt.Errorf("%T has no attribute %q", cur, step.Attr)
	}
	return n.GetAttr(step.Attr)
}
