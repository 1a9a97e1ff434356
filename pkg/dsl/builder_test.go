package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/blade"
	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_RunsAgainstEngine(t *testing.T) {
	b := dsl.New()

	b.Add("add_cube").
		Say("ajoute un cube", "crée un cube").
		Command("mesh.primitive_cube_add", map[string]any{"size": 2.0})

	b.Add("color_red").
		Say("change en rouge").
		Set("context.object.active_material.diffuse_color", []any{1, 0, 0}).
		Normalize("color").
		Ensure(domain.NeedMaterialSlot)

	src, err := b.Build()
	require.NoError(t, err)

	host := memory.NewHost()
	eng, err := blade.New(src, host, blade.WithRetryDelay(0))
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, eng.Run(ctx, domain.NewRunRequest("crée un cube")))
	assert.True(t, eng.Run(ctx, domain.NewRunRequest("change en rouge")))
	assert.True(t, host.Ran("mesh.primitive_cube_add"))

	names := []string{}
	for _, in := range eng.Intents(ctx) {
		names = append(names, in.Name)
	}
	assert.Equal(t, []string{"add_cube", "color_red"}, names)
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := dsl.New()
	b.Add("smooth").Say("lisse")
	b.Add("smooth").Alias("adoucis").Command("object.shade_smooth")

	intents := b.Intents()
	require.Len(t, intents, 1)
	assert.Equal(t, []string{"lisse", "adoucis"}, intents[0].Variants())
	assert.Equal(t, "object.shade_smooth", intents[0].Operator)
}

func TestBuilder_Fallbacks(t *testing.T) {
	b := dsl.New()
	b.Add("render_eevee").
		Say("rendu eevee").
		Domain("render").
		Tag("render").
		Describe("render", "Switch the engine to Eevee").
		Fallback("render.engine_set", []any{"EEVEE"}, nil).
		Direct("context.scene.render.engine", "BLENDER_EEVEE")

	in := b.Intents()[0]
	assert.False(t, in.HasOperator())
	assert.Equal(t, "render.engine_set", in.Op)
	require.NotNil(t, in.Direct)
	assert.Equal(t, "context.scene.render.engine", in.Direct.Path)
	assert.True(t, in.HasTag("RENDER"))

	_, err := b.Build()
	assert.NoError(t, err, "fallbacks alone are enough to dispatch")
}

func TestBuilder_RejectsIncompleteIntents(t *testing.T) {
	b := dsl.New()
	b.Add("silent").Command("mesh.primitive_cube_add")
	b.Add("idle").Say("ne fais rien")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `intent "silent": no phrase`)
	assert.Contains(t, err.Error(), `intent "idle": nothing to dispatch`)
}

func TestIntentBuilder_BuildCopiesParams(t *testing.T) {
	ib := dsl.New().Add("cube").Say("cube").Command("mesh.primitive_cube_add").Param("size", 1.0)
	in := ib.Build()
	in.Params["size"] = 9.0
	assert.Equal(t, 1.0, ib.Build().Params["size"])
}
