package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPendingStoreContract runs a suite of tests to verify that a PendingStore
// implementation adheres to the defined interface contract.
// The store must be empty when the suite starts.
func RunPendingStoreContract(t *testing.T, store PendingStore) {
	ctx := context.Background()

	t.Run("Empty List", func(t *testing.T) {
		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Append preserves order and fields", func(t *testing.T) {
		err := store.Append(ctx,
			domain.Intent{
				Name:       "add_cube",
				Phrases:    []string{"ajoute un cube"},
				Operator:   "mesh.primitive_cube_add",
				Params:     domain.Params{"size": 2},
				Source:     domain.SourceAutoInjector,
				InjectedAt: "2026-01-02T03:04:05Z",
			},
			domain.Intent{Name: "smooth", Operator: "object.shade_smooth"},
		)
		require.NoError(t, err)

		err = store.Append(ctx, domain.Intent{Name: "red", Operator: "context.object.color"})
		require.NoError(t, err)

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "add_cube", list[0].Name)
		assert.Equal(t, "smooth", list[1].Name)
		assert.Equal(t, "red", list[2].Name)
		assert.Equal(t, "mesh.primitive_cube_add", list[0].Operator)
		assert.Equal(t, []string{"ajoute un cube"}, list[0].Phrases)
		assert.Equal(t, domain.SourceAutoInjector, list[0].Source)
		assert.Equal(t, "2026-01-02T03:04:05Z", list[0].InjectedAt)
		assert.EqualValues(t, 2, toInt(list[0].Params["size"]))
	})

	t.Run("Append nothing is a no-op", func(t *testing.T) {
		require.NoError(t, store.Append(ctx))
		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

// RunHistoryStoreContract runs a suite of tests to verify that a HistoryStore
// implementation adheres to the defined interface contract.
// The store must be empty when the suite starts.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Empty", func(t *testing.T) {
		recs, err := store.Recent(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("Record and Recent", func(t *testing.T) {
		for i := range 5 {
			err := store.Record(ctx, domain.EnrichedRecord{
				RunID:     fmt.Sprintf("run-%d", i),
				Name:      fmt.Sprintf("intent_%d", i),
				Phrase:    "ajoute un cube",
				Operator:  "mesh.primitive_cube_add",
				Params:    domain.Params{"size": 1},
				Type:      domain.KindCommand,
				Mode:      domain.ModeText,
				Timestamp: base.Add(time.Duration(i) * time.Second),
			})
			require.NoError(t, err)
		}

		recs, err := store.Recent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "intent_2", recs[0].Name)
		assert.Equal(t, "intent_4", recs[2].Name, "newest record comes last")
		assert.Equal(t, domain.KindCommand, recs[2].Type)
		assert.Equal(t, domain.ModeText, recs[2].Mode)
		assert.Equal(t, "run-4", recs[2].RunID)
		assert.True(t, base.Add(4*time.Second).Equal(recs[2].Timestamp))
	})

	t.Run("Recent larger than history", func(t *testing.T) {
		recs, err := store.Recent(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, recs, 5)
	})
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case uint64:
		return int(n)
	}
	return -1
}
