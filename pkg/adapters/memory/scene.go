package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Primitive kinds accepted by Scene.AddPrimitive.
var primitives = map[string]string{
	"cube":     "Cube",
	"plane":    "Plane",
	"sphere":   "Sphere",
	"cylinder": "Cylinder",
	"cone":     "Cone",
	"torus":    "Torus",
	"monkey":   "Suzanne",
}

// Scene is the in-memory scene: objects, selection and materials.
type Scene struct {
	objects   []*Object
	selected  []*Object
	active    *Object
	materials []*Material
	Render    *RenderSettings
	Frame     *FrameRange
}

var _ ports.Scene = (*Scene)(nil)

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{
		Render: &RenderSettings{Engine: "BLENDER_EEVEE", ResolutionX: 1920, ResolutionY: 1080},
		Frame:  &FrameRange{Start: 1, End: 250},
	}
}

func (s *Scene) ActiveObject() ports.Object {
	if s.active == nil {
		return nil
	}
	return s.active
}

// Active returns the concrete active object.
func (s *Scene) Active() *Object { return s.active }

func (s *Scene) SetActive(obj ports.Object) {
	o, ok := obj.(*Object)
	if !ok || !slices.Contains(s.objects, o) {
		s.active = nil
		return
	}
	s.active = o
}

func (s *Scene) SelectedObjects() []ports.Object {
	return toPorts(s.selected)
}

func (s *Scene) Objects() []ports.Object {
	return toPorts(s.objects)
}

// All returns the concrete objects in creation order.
func (s *Scene) All() []*Object { return slices.Clone(s.objects) }

// Object returns the object called name.
func (s *Scene) Object(name string) (*Object, bool) {
	for _, o := range s.objects {
		if o.name == name {
			return o, true
		}
	}
	return nil, false
}

func (s *Scene) Select(obj ports.Object, selected bool) {
	o, ok := obj.(*Object)
	if !ok {
		return
	}
	idx := slices.Index(s.selected, o)
	switch {
	case selected && idx < 0:
		s.selected = append(s.selected, o)
	case !selected && idx >= 0:
		s.selected = slices.Delete(s.selected, idx, idx+1)
	}
}

// IsSelected reports whether obj is selected.
func (s *Scene) IsSelected(obj *Object) bool {
	return slices.Contains(s.selected, obj)
}

func (s *Scene) DeselectAll() {
	s.selected = nil
}

// Link adds obj to the scene, selects it and makes it active.
func (s *Scene) Link(obj *Object) *Object {
	obj.name = s.uniqueObjectName(obj.name)
	s.objects = append(s.objects, obj)
	s.DeselectAll()
	s.Select(obj, true)
	s.active = obj
	return obj
}

// Remove deletes obj from the scene.
func (s *Scene) Remove(obj *Object) {
	if i := slices.Index(s.objects, obj); i >= 0 {
		s.objects = slices.Delete(s.objects, i, i+1)
	}
	s.Select(obj, false)
	if s.active == obj {
		s.active = nil
	}
}

// AddPrimitive creates a mesh primitive and makes it the selected, active object.
func (s *Scene) AddPrimitive(_ context.Context, kind string) (ports.Object, error) {
	base, ok := primitives[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: primitive %q", domain.ErrUnsupported, kind)
	}
	return s.Link(NewObject(base, TypeMesh)), nil
}

func (s *Scene) Material(name string) (ports.Material, bool) {
	if m, ok := s.material(name); ok {
		return m, true
	}
	return nil, false
}

func (s *Scene) material(name string) (*Material, bool) {
	for _, m := range s.materials {
		if m.name == name {
			return m, true
		}
	}
	return nil, false
}

func (s *Scene) NewMaterial(name string) (ports.Material, error) {
	return s.newMaterial(name), nil
}

func (s *Scene) newMaterial(name string) *Material {
	if name == "" {
		name = "Material"
	}
	unique := name
	for n := 1; ; n++ {
		if _, taken := s.material(unique); !taken {
			break
		}
		unique = fmt.Sprintf("%s.%03d", name, n)
	}
	m := newMaterial(unique)
	m.useNodes = true
	s.materials = append(s.materials, m)
	return m
}

// MaterialsList returns every material in creation order.
func (s *Scene) MaterialsList() []*Material { return slices.Clone(s.materials) }

func (s *Scene) uniqueObjectName(name string) string {
	unique := name
	for n := 1; ; n++ {
		if _, taken := s.Object(unique); !taken {
			return unique
		}
		unique = fmt.Sprintf("%s.%03d", name, n)
	}
}

func toPorts(objs []*Object) []ports.Object {
	out := make([]ports.Object, len(objs))
	for i, o := range objs {
		out[i] = o
	}
	return out
}

// RenderSettings holds the render configuration of the scene.
type RenderSettings struct {
	Engine      string
	ResolutionX int
	ResolutionY int
	FilePath    string
	Renders     int
}

func (r *RenderSettings) GetAttr(name string) (any, error) {
	switch name {
	case "engine":
		return r.Engine, nil
	case "resolution_x":
		return r.ResolutionX, nil
	case "resolution_y":
		return r.ResolutionY, nil
	case "filepath":
		return r.FilePath, nil
	}
	return nil, fmt.Errorf("render settings have no attribute %q", name)
}

func (r *RenderSettings) SetAttr(name string, value any) (err error) {
	switch name {
	case "engine":
		r.Engine, err = toString(value)
	case "resolution_x":
		r.ResolutionX, err = toInt(value)
	case "resolution_y":
		r.ResolutionY, err = toInt(value)
	case "filepath":
		r.FilePath, err = toString(value)
	default:
		err = unknownAttr("render settings", name)
	}
	return err
}

// FrameRange is the animation range of the scene.
type FrameRange struct {
	Start, End, Current int
}

func (s *Scene) GetAttr(name string) (any, error) {
	switch name {
	case "render":
		return s.Render, nil
	case "frame_start":
		return s.Frame.Start, nil
	case "frame_end":
		return s.Frame.End, nil
	case "frame_current":
		return s.Frame.Current, nil
	case "objects":
		return s.objectCollection(), nil
	}
	return nil, fmt.Errorf("scene has no attribute %q", name)
}

func (s *Scene) SetAttr(name string, value any) (err error) {
	switch name {
	case "frame_start":
		s.Frame.Start, err = toInt(value)
	case "frame_end":
		s.Frame.End, err = toInt(value)
	case "frame_current":
		s.Frame.Current, err = toInt(value)
	default:
		err = unknownAttr("scene", name)
	}
	return err
}

func (s *Scene) objectCollection() Collection[*Object] {
	return Collection[*Object]{items: func() []*Object { return s.objects }}
}

func (s *Scene) materialCollection() Collection[*Material] {
	return Collection[*Material]{items: func() []*Material { return s.materials }}
}
