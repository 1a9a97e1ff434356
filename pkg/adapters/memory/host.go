package memory

import (
	"fmt"
	"slices"

	"github.com/aretw0/blade/pkg/ports"
	"github.com/aretw0/blade/pkg/registry"
)

// Host is an in-memory stand-in for the host application. It keeps a scene,
// a state tree rooted at "context" and "data", and a command registry with
// the usual modelling commands.
//
// Host is not safe for concurrent use; drive it from a single goroutine
// (see runner.Queue).
type Host struct {
	scene    *Scene
	commands *registry.Registry

	// Invocations lists every command that ran, as "category.name".
	Invocations []string
}

var _ ports.Host = (*Host)(nil)

// NewHost returns a host with an empty scene and the default commands.
func NewHost() *Host {
	h := &Host{
		scene:    NewScene(),
		commands: registry.NewRegistry(),
	}
	h.registerDefaults()
	return h
}

func (h *Host) Commands() ports.CommandRegistry { return h.commands }
func (h *Host) State() ports.StateRoots         { return h }
func (h *Host) Scene() ports.Scene              { return h.scene }

// Registry returns the concrete command registry, to add or replace commands.
func (h *Host) Registry() *registry.Registry { return h.commands }

// SceneData returns the concrete scene.
func (h *Host) SceneData() *Scene { return h.scene }

// Root implements ports.StateRoots.
func (h *Host) Root(name string) (ports.Node, bool) {
	switch name {
	case "context":
		return contextRoot{h.scene}, true
	case "data":
		return dataRoot{h.scene}, true
	}
	return nil, false
}

// Ran reports whether the command category.name was invoked at least once.
func (h *Host) Ran(command string) bool {
	return slices.Contains(h.Invocations, command)
}

type contextRoot struct{ scene *Scene }

func (c contextRoot) GetAttr(name string) (any, error) {
	switch name {
	case "object", "active_object":
		if c.scene.active == nil {
			return nil, nil
		}
		return c.scene.active, nil
	case "scene":
		return c.scene, nil
	case "selected_objects":
		return Collection[*Object]{items: func() []*Object { return c.scene.selected }}, nil
	}
	return nil, fmt.Errorf("context has no attribute %q", name)
}

func (c contextRoot) SetAttr(name string, _ any) error {
	return unknownAttr("context", name)
}

type dataRoot struct{ scene *Scene }

func (d dataRoot) GetAttr(name string) (any, error) {
	switch name {
	case "objects":
		return d.scene.objectCollection(), nil
	case "materials":
		return d.scene.materialCollection(), nil
	case "scenes":
		return Collection[*Scene]{items: func() []*Scene { return []*Scene{d.scene} }}, nil
	}
	return nil, fmt.Errorf("data has no attribute %q", name)
}

func (d dataRoot) SetAttr(name string, _ any) error {
	return unknownAttr("data", name)
}

// Name lets the scene be looked up in data.scenes.
func (s *Scene) Name() string { return "Scene" }
