package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
	"github.com/aretw0/blade/pkg/registry"
)

var finished = ports.Outcome{Status: ports.StatusFinished}

func (h *Host) register(category, name string, poll func() bool, run func(args []any, kw map[string]any) (ports.Outcome, error)) {
	cmd := registry.Func{
		RunFunc: func(_ context.Context, args []any, kw map[string]any) (ports.Outcome, error) {
			if poll != nil && !poll() {
				return ports.Outcome{}, fmt.Errorf("%s.%s: poll failed, context is incorrect", category, name)
			}
			out, err := run(args, kw)
			if err == nil {
				h.Invocations = append(h.Invocations, category+"."+name)
			}
			return out, err
		},
	}
	if poll != nil {
		cmd.PollFunc = func(context.Context) bool { return poll() }
	}
	h.commands.Register(category, name, cmd)
}

func (h *Host) registerDefaults() {
	s := h.scene
	hasActive := func() bool { return s.active != nil }
	activeMesh := func() bool { return s.active != nil && s.active.kind == TypeMesh }
	activeMaterials := func() bool { return s.active != nil && s.active.SupportsMaterials() }

	for _, p := range []struct{ command, kind string }{
		{"primitive_cube_add", "cube"},
		{"primitive_plane_add", "plane"},
		{"primitive_uv_sphere_add", "sphere"},
		{"primitive_cylinder_add", "cylinder"},
		{"primitive_cone_add", "cone"},
		{"primitive_torus_add", "torus"},
		{"primitive_monkey_add", "monkey"},
	} {
		h.register("mesh", p.command, nil, func(_ []any, kw map[string]any) (ports.Outcome, error) {
			obj, err := s.AddPrimitive(context.Background(), p.kind)
			if err != nil {
				return ports.Outcome{}, err
			}
			o := obj.(*Object)
			if err := applyTransformKwargs(o, kw); err != nil {
				s.Remove(o)
				return ports.Outcome{}, err
			}
			return ports.Outcome{Status: ports.StatusFinished, Value: o.name}, nil
		})
	}

	h.register("object", "select_all", nil, func(_ []any, kw map[string]any) (ports.Outcome, error) {
		action, _ := kw["action"].(string)
		switch strings.ToUpper(action) {
		case "", "SELECT":
			s.DeselectAll()
			for _, o := range s.objects {
				if o.Visible() {
					s.Select(o, true)
				}
			}
		case "DESELECT":
			s.DeselectAll()
		case "TOGGLE":
			if len(s.selected) > 0 {
				s.DeselectAll()
			} else {
				for _, o := range s.objects {
					if o.Visible() {
						s.Select(o, true)
					}
				}
			}
		default:
			return ports.Outcome{}, fmt.Errorf("select_all: unknown action %q", action)
		}
		return finished, nil
	})

	h.register("object", "delete", func() bool { return len(s.selected) > 0 }, func(_ []any, _ map[string]any) (ports.Outcome, error) {
		for _, o := range append([]*Object(nil), s.selected...) {
			s.Remove(o)
		}
		return finished, nil
	})

	h.register("object", "shade_smooth", activeMesh, func(_ []any, _ map[string]any) (ports.Outcome, error) {
		s.active.Smooth = true
		return finished, nil
	})
	h.register("object", "shade_flat", activeMesh, func(_ []any, _ map[string]any) (ports.Outcome, error) {
		s.active.Smooth = false
		return finished, nil
	})

	h.register("object", "material_slot_add", activeMaterials, func(_ []any, _ map[string]any) (ports.Outcome, error) {
		return finished, s.active.AddMaterialSlot()
	})

	h.register("object", "modifier_add", activeMesh, func(_ []any, kw map[string]any) (ports.Outcome, error) {
		kind, _ := kw["type"].(string)
		if kind == "" {
			kind = "SUBSURF"
		}
		s.active.Modifiers = append(s.active.Modifiers, strings.ToUpper(kind))
		return finished, nil
	})

	h.register("object", "camera_add", nil, func(_ []any, kw map[string]any) (ports.Outcome, error) {
		o := s.Link(NewObject("Camera", TypeCamera))
		return ports.Outcome{Status: ports.StatusFinished, Value: o.name}, applyTransformKwargs(o, kw)
	})
	h.register("object", "light_add", nil, func(_ []any, kw map[string]any) (ports.Outcome, error) {
		o := s.Link(NewObject("Light", TypeLight))
		return ports.Outcome{Status: ports.StatusFinished, Value: o.name}, applyTransformKwargs(o, kw)
	})

	h.register("material", "new", nil, func(_ []any, kw map[string]any) (ports.Outcome, error) {
		name, _ := kw["name"].(string)
		m := s.newMaterial(name)
		return ports.Outcome{Status: ports.StatusFinished, Value: m.name}, nil
	})

	h.register("render", "render", nil, func(_ []any, _ map[string]any) (ports.Outcome, error) {
		s.Render.Renders++
		return finished, nil
	})

	h.register("transform", "translate", hasActive, func(_ []any, kw map[string]any) (ports.Outcome, error) {
		delta, err := vectorKwarg(kw, "value", 3)
		if err != nil {
			return ports.Outcome{}, err
		}
		for i := range s.active.Location {
			s.active.Location[i] += delta[i]
		}
		return finished, nil
	})
	h.register("transform", "resize", hasActive, func(_ []any, kw map[string]any) (ports.Outcome, error) {
		factor, err := vectorKwarg(kw, "value", 3)
		if err != nil {
			return ports.Outcome{}, err
		}
		for i := range s.active.Scale {
			s.active.Scale[i] *= factor[i]
		}
		return finished, nil
	})
}

func applyTransformKwargs(o *Object, kw map[string]any) error {
	if v, ok := kw["location"]; ok {
		if err := o.Location.assign(v); err != nil {
			return fmt.Errorf("location: %w", err)
		}
	}
	if v, ok := kw["size"]; ok {
		size, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("size: %w", err)
		}
		for i := range o.Scale {
			o.Scale[i] = size / 2
		}
	}
	if v, ok := kw["radius"]; ok {
		r, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("radius: %w", err)
		}
		for i := range o.Scale {
			o.Scale[i] = r
		}
	}
	return nil
}

func vectorKwarg(kw map[string]any, key string, n int) ([]float64, error) {
	raw, ok := kw[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", domain.ErrMissingValue, key)
	}
	v, err := toFloats(raw)
	if err != nil {
		return nil, err
	}
	if len(v) != n {
		return nil, fmt.Errorf("%q needs %d values, got %d", key, n, len(v))
	}
	return v, nil
}
