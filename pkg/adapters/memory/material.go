package memory

import (
	"fmt"

	"github.com/aretw0/blade/pkg/ports"
)

// Material is an in-memory material with a principled shader node.
type Material struct {
	name         string
	DiffuseColor Vector
	BaseColor    Vector
	Metallic     float64
	Roughness    float64
	useNodes     bool
	hasShader    bool
}

var (
	_ ports.NodeMaterial = (*Material)(nil)
	_ ports.Node         = (*Material)(nil)
)

func newMaterial(name string) *Material {
	return &Material{
		name:         name,
		DiffuseColor: Vector{0.8, 0.8, 0.8, 1},
		BaseColor:    Vector{0.8, 0.8, 0.8, 1},
		Roughness:    0.5,
		hasShader:    true,
	}
}

func (m *Material) Name() string    { return m.name }
func (m *Material) UsesNodes() bool { return m.useNodes }

// SetUseNodes toggles the node graph.
func (m *Material) SetUseNodes(on bool) { m.useNodes = on }

// RemoveShader drops the principled node from the graph.
func (m *Material) RemoveShader() { m.hasShader = false }

// SetBaseColor writes the base color input of the principled node.
func (m *Material) SetBaseColor(rgba [4]float64) (bool, error) {
	if !m.useNodes || !m.hasShader {
		return false, nil
	}
	copy(m.BaseColor, rgba[:])
	return true, nil
}

func (m *Material) GetAttr(name string) (any, error) {
	switch name {
	case "name":
		return m.name, nil
	case "diffuse_color":
		return m.DiffuseColor, nil
	case "base_color":
		return m.BaseColor, nil
	case "metallic":
		return m.Metallic, nil
	case "roughness":
		return m.Roughness, nil
	case "use_nodes":
		return m.useNodes, nil
	}
	return nil, fmt.Errorf("material %q has no attribute %q", m.name, name)
}

func (m *Material) SetAttr(name string, value any) (err error) {
	switch name {
	case "name":
		m.name, err = toString(value)
	case "diffuse_color":
		err = m.DiffuseColor.assign(value)
	case "metallic":
		m.Metallic, err = toFloat(value)
	case "roughness":
		m.Roughness, err = toFloat(value)
	case "use_nodes":
		m.useNodes, err = toBool(value)
	default:
		err = unknownAttr("material "+m.name, name)
	}
	return err
}
