package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// CompatibleTypes are the object types the preparer may pick as active object.
var CompatibleTypes = []string{"MESH", "CURVE", "SURFACE", "META", "GPENCIL"}

// materialHints in an operator mean the command touches materials.
var materialHints = []string{"material", "diffuse_color", "shading", "active_material"}

// Preparer brings the host into the state a command expects.
type Preparer struct {
	scene        ports.Scene
	materialName string
	logger       *slog.Logger
}

// PreparerOption configures a Preparer.
type PreparerOption func(*Preparer)

// WithMaterialName sets the name of the material created for bare objects.
func WithMaterialName(name string) PreparerOption {
	return func(p *Preparer) {
		if name != "" {
			p.materialName = name
		}
	}
}

// WithPreparerLogger sets a custom structured logger.
func WithPreparerLogger(logger *slog.Logger) PreparerOption {
	return func(p *Preparer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPreparer creates a Preparer acting on scene.
func NewPreparer(scene ports.Scene, opts ...PreparerOption) *Preparer {
	p := &Preparer{
		scene:        scene,
		materialName: domain.DefaultMaterialName,
		logger:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type needs struct {
	object, material, slot bool
}

func (n needs) any() bool { return n.object || n.material || n.slot }

func needsOf(in domain.Intent) needs {
	var n needs
	for _, h := range in.Needs() {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case domain.NeedActiveObject:
			n.object = true
		case domain.NeedMaterial:
			n.object, n.material = true, true
		case domain.NeedMaterialSlot:
			n.object, n.slot = true, true
		}
	}
	ops := strings.ToLower(in.Operator + " " + in.Op)
	for _, hint := range materialHints {
		if strings.Contains(ops, hint) {
			n = needs{object: true, material: true, slot: true}
			break
		}
	}
	return n
}

// Prepare applies the fixups the intent asks for through requires/ensure or
// implies through its operator. It reports whether host state changed.
// It is a no-op when no fixup is needed or every precondition already holds.
func (p *Preparer) Prepare(ctx context.Context, in domain.Intent) (bool, error) {
	n := needsOf(in)
	if !n.any() {
		return false, nil
	}
	return p.apply(ctx, n)
}

// PrepareForCommand is used when a command refused to run: it always makes
// sure an object is active, and attaches a material for commands that act on
// material slots or modifiers.
func (p *Preparer) PrepareForCommand(ctx context.Context, category, command string, in domain.Intent) (bool, error) {
	n := needsOf(in)
	n.object = true
	if category == "object" && (command == "material_slot_add" || command == "modifier_add") {
		n.material = true
	}
	return p.apply(ctx, n)
}

func (p *Preparer) apply(ctx context.Context, n needs) (changed bool, err error) {
	if p.scene == nil {
		return false, fmt.Errorf("%w: no scene to prepare", domain.ErrUnsupported)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host panicked while preparing context: %v", r)
		}
	}()

	obj, changed, err := p.EnsureActiveObject(ctx)
	if err != nil {
		return changed, err
	}
	if n.material {
		c, err := p.EnsureMaterial(ctx, obj)
		changed = changed || c
		if err != nil {
			return changed, err
		}
	}
	if n.slot || n.material {
		c, err := p.EnsureMaterialSlot(obj)
		changed = changed || c
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// EnsureActiveObject keeps a visible active object, or promotes the most
// recently selected visible object, or the most recently created visible
// compatible object, or adds a cube. The chosen object ends up as the only
// selected object.
func (p *Preparer) EnsureActiveObject(ctx context.Context) (ports.Object, bool, error) {
	if a := p.scene.ActiveObject(); a != nil && a.Visible() {
		return a, false, nil
	}

	pick := lastMatching(p.scene.SelectedObjects(), func(o ports.Object) bool {
		return o.Visible()
	})
	if pick == nil {
		pick = lastMatching(p.scene.Objects(), func(o ports.Object) bool {
			return o.Visible() && slices.Contains(CompatibleTypes, o.Type())
		})
	}
	if pick == nil {
		obj, err := p.scene.AddPrimitive(ctx, "cube")
		if err != nil {
			return nil, false, fmt.Errorf("add default object: %w", err)
		}
		p.logger.Info("created default object", "object", obj.Name())
		pick = obj
	}

	p.scene.DeselectAll()
	p.scene.Select(pick, true)
	p.scene.SetActive(pick)
	p.logger.Debug("active object set", "object", pick.Name())
	return pick, true, nil
}

// EnsureMaterial attaches the default material to obj when it has none and
// marks the first material active when none is.
func (p *Preparer) EnsureMaterial(ctx context.Context, obj ports.Object) (bool, error) {
	if !obj.SupportsMaterials() {
		return false, fmt.Errorf("%w: %s object %q cannot hold materials", domain.ErrUnsupported, obj.Type(), obj.Name())
	}

	if len(obj.Materials()) == 0 {
		mat, ok := p.scene.Material(p.materialName)
		if !ok {
			var err error
			if mat, err = p.scene.NewMaterial(p.materialName); err != nil {
				return false, fmt.Errorf("create material: %w", err)
			}
		}
		if err := obj.AppendMaterial(mat); err != nil {
			return false, fmt.Errorf("attach material: %w", err)
		}
		if err := obj.SetActiveMaterialIndex(len(obj.Materials()) - 1); err != nil {
			return true, err
		}
		p.logger.Info("material attached", "object", obj.Name(), "material", mat.Name())
		return true, nil
	}

	if obj.ActiveMaterial() == nil {
		if err := obj.SetActiveMaterialIndex(0); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// EnsureMaterialSlot adds a material slot when obj has none.
func (p *Preparer) EnsureMaterialSlot(obj ports.Object) (bool, error) {
	if obj.MaterialSlotCount() > 0 {
		return false, nil
	}
	if err := obj.AddMaterialSlot(); err != nil {
		return false, fmt.Errorf("add material slot: %w", err)
	}
	return true, nil
}

func lastMatching(objs []ports.Object, keep func(ports.Object) bool) ports.Object {
	for i := len(objs) - 1; i >= 0; i-- {
		if keep(objs[i]) {
			return objs[i]
		}
	}
	return nil
}
