package hostpath_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/hostpath"
	"github.com/aretw0/blade/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tree is a map-backed value that is both a Node and a Container.
type tree map[string]any

func (t tree) GetAttr(name string) (any, error) {
	v, ok := t[name]
	if !ok {
		return nil, fmt.Errorf("no attribute %q", name)
	}
	return v, nil
}

func (t tree) SetAttr(name string, v any) error {
	if _, ok := t[name]; !ok {
		return fmt.Errorf("%w: no attribute %q", domain.ErrNotAssignable, name)
	}
	t[name] = v
	return nil
}

func (t tree) GetIndexed(k ports.Key) (any, error) { return t.GetAttr(k.Name) }
func (t tree) SetIndexed(k ports.Key, v any) error { return t.SetAttr(k.Name, v) }

type list []any

func (l list) GetIndexed(k ports.Key) (any, error) {
	if k.Named || k.Index < 0 || k.Index >= len(l) {
		return nil, errors.New("index out of range")
	}
	return l[k.Index], nil
}

func (l list) SetIndexed(k ports.Key, v any) error {
	if k.Named || k.Index < 0 || k.Index >= len(l) {
		return errors.New("index out of range")
	}
	l[k.Index] = v
	return nil
}

type roots map[string]ports.Node

func (r roots) Root(name string) (ports.Node, bool) {
	n, ok := r[name]
	return n, ok
}

func fixture() (roots, tree, list) {
	color := list{0.8, 0.8, 0.8, 1.0}
	mat := tree{"name": "Blade.Red", "diffuse_color": color}
	obj := tree{"name": "Cube", "active_material": mat, "location": list{0.0, 0.0, 0.0}}
	data := tree{"materials": tree{"Blade.Red": mat}, "objects": list{obj}}
	ctx := tree{"object": obj}
	return roots{"context": ctx, "data": data}, mat, color
}

func TestParse(t *testing.T) {
	p, err := hostpath.Parse("bpy.data.materials['Blade.Red'].diffuse_color[0]")
	require.NoError(t, err)
	assert.Equal(t, "data", p.Root)
	require.Len(t, p.Steps, 4)
	assert.Equal(t, "materials", p.Steps[0].Attr)
	assert.True(t, p.Steps[1].IsKey)
	assert.Equal(t, ports.NameKey("Blade.Red"), p.Steps[1].Key)
	assert.Equal(t, "diffuse_color", p.Steps[2].Attr)
	assert.Equal(t, ports.IndexKey(0), p.Steps[3].Key)
	assert.Equal(t, `data.materials["Blade.Red"].diffuse_color[0]`, p.String())

	p, err = hostpath.Parse(`context.scene["it's"].frame_end`)
	require.NoError(t, err)
	assert.Equal(t, "it's", p.Steps[1].Key.Name)

	p, err = hostpath.Parse(`data.texts['a\'b']`)
	require.NoError(t, err)
	assert.Equal(t, "a'b", p.Steps[1].Key.Name)
}

func TestParse_Errors(t *testing.T) {
	bad := []string{
		"",
		"context",
		"scene.frame_end",
		"os.system('rm')",
		"context.object.",
		"context..object",
		"context.object[",
		"context.object[abc]",
		"context.object['open",
		"context.object[0",
		"context.object name",
		"__import__('os')",
	}
	for _, raw := range bad {
		_, err := hostpath.Parse(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidPath, "path %q", raw)
	}
}

func TestSet_Attribute(t *testing.T) {
	r, mat, _ := fixture()
	require.NoError(t, hostpath.Set(r, "context.object.active_material.name", "Renamed"))
	assert.Equal(t, "Renamed", mat["name"])
}

func TestSet_Indexed(t *testing.T) {
	r, _, color := fixture()
	require.NoError(t, hostpath.Set(r, "bpy.data.materials['Blade.Red'].diffuse_color[0]", 1.0))
	assert.Equal(t, 1.0, color[0])

	require.NoError(t, hostpath.Set(r, "data.objects[0].location[2]", 3.5))
	v, err := hostpath.Get(r, "context.object.location[2]")
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
}

func TestSet_Errors(t *testing.T) {
	r, _, _ := fixture()

	err := hostpath.Set(r, "context.object.missing.name", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidPath)

	err = hostpath.Set(r, "context.object.unknown_attr", 1)
	assert.ErrorIs(t, err, domain.ErrNotAssignable)

	err = hostpath.Set(r, "context.object.name[0]", "x")
	assert.ErrorIs(t, err, domain.ErrNotAssignable)

	err = hostpath.Set(roots{"context": tree{}}, "data.objects[0].name", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidPath)

	err = hostpath.Set(nil, "data.objects[0].name", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}

func TestResolve_ReturnsParent(t *testing.T) {
	r, mat, _ := fixture()
	p, err := hostpath.Parse("context.object.active_material.diffuse_color")
	require.NoError(t, err)
	target, err := hostpath.Resolve(r, p)
	require.NoError(t, err)
	assert.Equal(t, mat, target.Parent)
	assert.Equal(t, "diffuse_color", target.Step.Attr)
	assert.False(t, target.Step.IsKey)
}
