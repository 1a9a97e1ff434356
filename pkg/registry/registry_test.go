package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/blade/pkg/ports"
	"github.com/aretw0/blade/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := registry.NewRegistry()
	assert.False(t, r.HasCategory("mesh"))

	calls := 0
	r.Register("mesh", "primitive_cube_add", registry.Func{
		RunFunc: func(_ context.Context, _ []any, kw map[string]any) (ports.Outcome, error) {
			calls++
			return ports.Outcome{Status: ports.StatusFinished, Value: kw["size"]}, nil
		},
	})
	r.Register("object", "delete", registry.Func{
		PollFunc: func(context.Context) bool { return false },
	})

	assert.True(t, r.HasCategory("mesh"))
	assert.Equal(t, []string{"mesh.primitive_cube_add", "object.delete"}, r.Names())

	cmd, ok := r.Lookup("mesh", "primitive_cube_add")
	require.True(t, ok)
	assert.True(t, cmd.Poll(context.Background()))
	out, err := cmd.Invoke(context.Background(), nil, map[string]any{"size": 2})
	require.NoError(t, err)
	assert.Equal(t, ports.StatusFinished, out.Status)
	assert.Equal(t, 2, out.Value)
	assert.Equal(t, 1, calls)

	del, ok := r.Lookup("object", "delete")
	require.True(t, ok)
	assert.False(t, del.Poll(context.Background()))
	_, err = del.Invoke(context.Background(), nil, nil)
	assert.Error(t, err)

	_, ok = r.Lookup("mesh", "missing")
	assert.False(t, ok)
}
