package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/blade/internal/runtime"
	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreparer_NoHintsIsNoop(t *testing.T) {
	h := memory.NewHost()
	p := runtime.NewPreparer(h.Scene())

	changed, err := p.Prepare(context.Background(), domain.Intent{Name: "cube", Operator: "mesh.primitive_cube_add"})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, h.Scene().Objects())
}

func TestPreparer_CreatesDefaultObjectOnce(t *testing.T) {
	h := memory.NewHost()
	p := runtime.NewPreparer(h.Scene())
	in := domain.Intent{Name: "smooth", Requires: []string{"active_object"}}

	changed, err := p.Prepare(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, changed)
	active := h.SceneData().Active()
	require.NotNil(t, active)
	assert.Equal(t, "Cube", active.Name())

	changed, err = p.Prepare(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, changed, "second call must not change anything")
	assert.Len(t, h.Scene().Objects(), 1)
}

func TestPreparer_PrefersLastSelectedVisible(t *testing.T) {
	h := memory.NewHost()
	s := h.SceneData()
	a := s.Link(memory.NewObject("A", memory.TypeMesh))
	b := s.Link(memory.NewObject("B", memory.TypeMesh))
	s.Select(a, true)
	s.Select(b, true)
	b.Hidden = true
	s.SetActive(nil)

	obj, changed, err := runtime.NewPreparer(s).EnsureActiveObject(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "A", obj.Name())
	assert.Equal(t, a, s.Active())
	assert.True(t, s.IsSelected(a))
	assert.False(t, s.IsSelected(b))
}

func TestPreparer_FallsBackToLastCompatibleObject(t *testing.T) {
	h := memory.NewHost()
	s := h.SceneData()
	s.Link(memory.NewObject("Curve", memory.TypeCurve))
	s.Link(memory.NewObject("Mesh", memory.TypeMesh)).Hidden = true
	s.Link(memory.NewObject("Camera", memory.TypeCamera))
	s.DeselectAll()
	s.SetActive(nil)

	obj, changed, err := runtime.NewPreparer(s).EnsureActiveObject(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Curve", obj.Name())
	assert.Len(t, s.All(), 3, "no object should be created")
}

func TestPreparer_MaterialHints(t *testing.T) {
	h := memory.NewHost()
	p := runtime.NewPreparer(h.Scene())
	in := domain.Intent{Name: "red", Operator: "context.object.active_material.diffuse_color"}

	changed, err := p.Prepare(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, changed)

	obj := h.SceneData().Active()
	require.NotNil(t, obj)
	require.NotNil(t, obj.ActiveMaterial())
	assert.Equal(t, domain.DefaultMaterialName, obj.ActiveMaterial().Name())
	assert.Equal(t, 1, obj.MaterialSlotCount())

	changed, err = p.Prepare(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, changed)

	// A second bare object reuses the existing default material.
	h.SceneData().SetActive(h.SceneData().Link(memory.NewObject("Other", memory.TypeMesh)))
	_, err = p.Prepare(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, h.SceneData().MaterialsList(), 1)
}

func TestPreparer_ActivatesFirstMaterial(t *testing.T) {
	h := memory.NewHost()
	s := h.SceneData()
	obj := s.Link(memory.NewObject("Cube", memory.TypeMesh))
	mat, _ := s.NewMaterial("Existing")
	require.NoError(t, obj.AppendMaterial(mat))
	obj.ClearActiveMaterial()

	changed, err := runtime.NewPreparer(s, runtime.WithMaterialName("Unused")).
		Prepare(context.Background(), domain.Intent{Ensure: []string{"material"}})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Existing", obj.ActiveMaterial().Name())
	_, created := s.Material("Unused")
	assert.False(t, created)
}

func TestPreparer_UnsupportedObject(t *testing.T) {
	h := memory.NewHost()
	s := h.SceneData()
	s.Link(memory.NewObject("Camera", memory.TypeCamera))

	_, err := runtime.NewPreparer(s).Prepare(context.Background(), domain.Intent{Requires: []string{"material"}})
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestPreparer_PrepareForCommand(t *testing.T) {
	h := memory.NewHost()
	p := runtime.NewPreparer(h.Scene())

	changed, err := p.PrepareForCommand(context.Background(), "object", "material_slot_add", domain.Intent{})
	require.NoError(t, err)
	assert.True(t, changed)
	obj := h.SceneData().Active()
	require.NotNil(t, obj)
	assert.NotNil(t, obj.ActiveMaterial())
}
