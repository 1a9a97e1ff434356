package enrich_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/enrich"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnricher_Enrich(t *testing.T) {
	at := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	history := memory.NewHistoryStore(0)
	e := enrich.New(history, enrich.WithClock(func() time.Time { return at }))
	ctx := domain.ContextWithRunID(context.Background(), "run-42")

	params := domain.Params{"size": 2}
	in := domain.Intent{Name: "add_cube", Phrase: "ajoute un cube", Operator: "bpy.ops.mesh.primitive_cube_add", Params: params}
	require.NoError(t, e.Enrich(ctx, in, "", ""))
	require.NoError(t, e.Enrich(ctx, domain.Intent{Name: "red", Operator: "context.object.color"}, "mets en rouge", domain.ModeText))
	require.NoError(t, e.Enrich(ctx, domain.Intent{Name: "odd", Operator: "what.is.this"}, "hm", domain.ModeUI))

	recs, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, domain.EnrichedRecord{
		RunID:     "run-42",
		Name:      "add_cube",
		Phrase:    "ajoute un cube",
		Operator:  "bpy.ops.mesh.primitive_cube_add",
		Params:    domain.Params{"size": 2},
		Type:      domain.KindCommand,
		Mode:      domain.ModeVoice,
		Timestamp: at,
	}, recs[0])
	assert.Equal(t, domain.KindState, recs[1].Type)
	assert.Equal(t, "mets en rouge", recs[1].Phrase)
	assert.Equal(t, domain.Params{}, recs[1].Params)
	assert.Equal(t, domain.KindUnknown, recs[2].Type)

	params["size"] = 3
	assert.Equal(t, 2, recs[0].Params["size"], "record does not alias the intent params")
}
