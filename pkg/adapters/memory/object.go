package memory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Object types of the in-memory scene.
const (
	TypeMesh    = "MESH"
	TypeCurve   = "CURVE"
	TypeSurface = "SURFACE"
	TypeMeta    = "META"
	TypeGPencil = "GPENCIL"
	TypeCamera  = "CAMERA"
	TypeLight   = "LIGHT"
	TypeEmpty   = "EMPTY"
)

var materialTypes = []string{TypeMesh, TypeCurve, TypeSurface, TypeMeta, TypeGPencil}

// Object is an in-memory scene object.
type Object struct {
	name      string
	kind      string
	Hidden    bool
	Location  Vector
	Rotation  Vector
	Scale     Vector
	Color     Vector
	Smooth    bool
	Modifiers []string

	materials []*Material
	slots     int
	activeMat int
}

var (
	_ ports.Object = (*Object)(nil)
	_ ports.Node   = (*Object)(nil)
)

// NewObject creates a detached object of the given type.
func NewObject(name, kind string) *Object {
	return &Object{
		name:     name,
		kind:     kind,
		Location: Vector{0, 0, 0},
		Rotation: Vector{0, 0, 0},
		Scale:    Vector{1, 1, 1},
		Color:    Vector{1, 1, 1, 1},
	}
}

func (o *Object) Name() string  { return o.name }
func (o *Object) Type() string  { return o.kind }
func (o *Object) Visible() bool { return !o.Hidden }

func (o *Object) SupportsMaterials() bool {
	return slices.Contains(materialTypes, o.kind)
}

func (o *Object) Materials() []ports.Material {
	out := make([]ports.Material, len(o.materials))
	for i, m := range o.materials {
		out[i] = m
	}
	return out
}

func (o *Object) ActiveMaterial() ports.Material {
	if m := o.activeMaterial(); m != nil {
		return m
	}
	return nil
}

func (o *Object) activeMaterial() *Material {
	if o.activeMat < 0 || o.activeMat >= len(o.materials) {
		return nil
	}
	return o.materials[o.activeMat]
}

// AppendMaterial adds m in a new slot, like linking a material to mesh data.
func (o *Object) AppendMaterial(m ports.Material) error {
	if !o.SupportsMaterials() {
		return fmt.Errorf("%w: %s object %q has no material slots", domain.ErrUnsupported, o.kind, o.name)
	}
	mat, ok := m.(*Material)
	if !ok {
		return fmt.Errorf("%w: foreign material %T", domain.ErrUnsupported, m)
	}
	o.materials = append(o.materials, mat)
	o.slots = max(o.slots, len(o.materials))
	if o.activeMat < 0 {
		o.activeMat = 0
	}
	return nil
}

func (o *Object) SetActiveMaterialIndex(i int) error {
	if i < 0 || i >= len(o.materials) {
		return fmt.Errorf("material index %d out of range for %q", i, o.name)
	}
	o.activeMat = i
	return nil
}

func (o *Object) MaterialSlotCount() int { return o.slots }

func (o *Object) AddMaterialSlot() error {
	if !o.SupportsMaterials() {
		return fmt.Errorf("%w: %s object %q has no material slots", domain.ErrUnsupported, o.kind, o.name)
	}
	o.slots++
	return nil
}

// DetachMaterials empties every slot but keeps the slots themselves.
func (o *Object) DetachMaterials() {
	o.materials = nil
	o.activeMat = -1
}

func (o *Object) GetAttr(name string) (any, error) {
	switch name {
	case "name":
		return o.name, nil
	case "type":
		return o.kind, nil
	case "location":
		return o.Location, nil
	case "rotation_euler":
		return o.Rotation, nil
	case "scale":
		return o.Scale, nil
	case "color":
		return o.Color, nil
	case "hide_viewport":
		return o.Hidden, nil
	case "active_material":
		if m := o.activeMaterial(); m != nil {
			return m, nil
		}
		return nil, nil
	case "material_slots":
		return Collection[*Material]{items: func() []*Material { return o.materials }}, nil
	case "modifiers":
		return strings.Join(o.Modifiers, ","), nil
	}
	return nil, fmt.Errorf("object %q has no attribute %q", o.name, name)
}

func (o *Object) SetAttr(name string, value any) (err error) {
	switch name {
	case "name":
		o.name, err = toString(value)
	case "location":
		err = o.Location.assign(value)
	case "rotation_euler":
		err = o.Rotation.assign(value)
	case "scale":
		err = o.Scale.assign(value)
	case "color":
		err = o.Color.assign(value)
	case "hide_viewport":
		o.Hidden, err = toBool(value)
	case "active_material":
		mat, ok := value.(*Material)
		if !ok {
			return fmt.Errorf("%w: active_material needs a material, got %T", domain.ErrNotAssignable, value)
		}
		if o.activeMat >= 0 && o.activeMat < len(o.materials) {
			o.materials[o.activeMat] = mat
			return nil
		}
		return o.AppendMaterial(mat)
	default:
		err = unknownAttr("object "+o.name, name)
	}
	return err
}

// ClearActiveMaterial leaves materials attached but none of them active.
func (o *Object) ClearActiveMaterial() {
	o.activeMat = -1
}
