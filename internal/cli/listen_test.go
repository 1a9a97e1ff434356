package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListen_Text(t *testing.T) {
	st, err := NewStack(testSettings(t), nil, nil)
	require.NoError(t, err)
	defer st.Close()

	var out bytes.Buffer
	err = Listen(context.Background(), st.Engine, ListenOptions{
		In:  strings.NewReader("ajoute un cube\n\nxyzzy\n"),
		Out: &out,
	}, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "**ok** `add_cube`"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "**failed** `-` (no_intent"), lines[1])
	assert.True(t, st.Host.(*memory.Host).Ran("mesh.primitive_cube_add"))
}

func TestListen_JSONDryRun(t *testing.T) {
	st, err := NewStack(testSettings(t), nil, nil)
	require.NoError(t, err)
	defer st.Close()

	var out bytes.Buffer
	err = Listen(context.Background(), st.Engine, ListenOptions{
		JSON:        true,
		DryRun:      true,
		NoInjection: true,
		In:          strings.NewReader(`"ajoute un cube"` + "\n" + `{"intent": {"name": "smooth", "operator": "object.shade_smooth"}}` + "\n"),
		Out:         &out,
	}, nil)
	require.NoError(t, err)

	dec := json.NewDecoder(&out)
	var reports []domain.RunReport
	for dec.More() {
		var r domain.RunReport
		require.NoError(t, dec.Decode(&r))
		reports = append(reports, r)
	}
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Equal(t, domain.ReasonDryRun, r.Reason)
	}
	assert.Empty(t, st.Host.(*memory.Host).Invocations)

	pending, err := st.Pending.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending, "injection disabled")
}
