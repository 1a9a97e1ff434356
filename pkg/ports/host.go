package ports

import (
	"context"
	"fmt"
	"strconv"
)

// Status is what a host command reports after it ran.
type Status string

const (
	StatusFinished     Status = "FINISHED"
	StatusCancelled    Status = "CANCELLED"
	StatusPassThrough  Status = "PASS_THROUGH"
	StatusRunningModal Status = "RUNNING_MODAL"
)

// Outcome is the explicit result of a host command invocation.
// Any outcome returned without error counts as success for the engine.
type Outcome struct {
	Status Status
	Value  any
}

// Command is a single invokable host operation.
type Command interface {
	// Poll reports whether the command can run in the current host context.
	Poll(ctx context.Context) bool
	// Invoke runs the command with positional and keyword arguments.
	Invoke(ctx context.Context, args []any, kwargs map[string]any) (Outcome, error)
}

// CommandRegistry is the host's catalog of commands, grouped by category.
type CommandRegistry interface {
	HasCategory(category string) bool
	Lookup(category, command string) (Command, bool)
}

// Key addresses an element of a Container, either by position or by name.
type Key struct {
	Index int
	Name  string
	Named bool
}

// IndexKey returns a positional key.
func IndexKey(i int) Key { return Key{Index: i} }

// NameKey returns a named key.
func NameKey(name string) Key { return Key{Name: name, Named: true} }

func (k Key) String() string {
	if k.Named {
		return strconv.Quote(k.Name)
	}
	return fmt.Sprint(k.Index)
}

// Node is a host value with named attributes.
type Node interface {
	GetAttr(name string) (any, error)
	SetAttr(name string, value any) error
}

// Container is a host value with indexed or keyed elements.
type Container interface {
	GetIndexed(key Key) (any, error)
	SetIndexed(key Key, value any) error
}

// StateRoots exposes the named roots of the host state tree ("context", "data").
type StateRoots interface {
	Root(name string) (Node, bool)
}

// Material is a host material.
type Material interface {
	Name() string
}

// NodeMaterial is implemented by materials driven by a shader node graph.
type NodeMaterial interface {
	Material
	UsesNodes() bool
	// SetBaseColor writes the base color input of the main shader node.
	// It returns false when the graph has no such node.
	SetBaseColor(rgba [4]float64) (bool, error)
}

// Object is a host scene object.
type Object interface {
	Name() string
	Type() string
	Visible() bool
	SupportsMaterials() bool
	Materials() []Material
	ActiveMaterial() Material
	AppendMaterial(m Material) error
	SetActiveMaterialIndex(i int) error
	MaterialSlotCount() int
	AddMaterialSlot() error
}

// Scene is the part of the host the context preparer repairs.
type Scene interface {
	ActiveObject() Object
	SetActive(obj Object)
	// SelectedObjects returns selected objects in selection order.
	SelectedObjects() []Object
	// Objects returns every scene object in creation order.
	Objects() []Object
	Select(obj Object, selected bool)
	DeselectAll()
	AddPrimitive(ctx context.Context, kind string) (Object, error)
	Material(name string) (Material, bool)
	NewMaterial(name string) (Material, error)
}

// Host bundles everything the engine needs from the host application.
type Host interface {
	Commands() CommandRegistry
	State() StateRoots
	Scene() Scene
}
