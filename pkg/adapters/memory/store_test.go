package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingStore_Contract(t *testing.T) {
	ports.RunPendingStoreContract(t, memory.NewPendingStore())
}

func TestHistoryStore_Contract(t *testing.T) {
	ports.RunHistoryStoreContract(t, memory.NewHistoryStore(0))
}

func TestHistoryStore_Evicts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewHistoryStore(3)
	for i := range 5 {
		require.NoError(t, store.Record(ctx, domain.EnrichedRecord{Name: fmt.Sprintf("n%d", i)}))
	}
	recs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "n2", recs[0].Name)
	assert.Equal(t, "n4", recs[2].Name)

	none, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPendingStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPendingStore()
	in := domain.Intent{Name: "a", Params: domain.Params{"k": 1}}
	require.NoError(t, store.Append(ctx, in))
	in.Params["k"] = 2

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, list[0].Params["k"])
}

func TestSource_ModTimeAdvances(t *testing.T) {
	ctx := context.Background()
	src := memory.NewSource(domain.Intent{Name: "a"})
	first, err := src.ModTime(ctx)
	require.NoError(t, err)

	require.NoError(t, src.Save(ctx, []domain.Intent{{Name: "a"}, {Name: "b"}}))
	second, err := src.ModTime(ctx)
	require.NoError(t, err)
	assert.True(t, second.After(first))

	list, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 1, src.Loads())
	assert.WithinDuration(t, time.Now(), second, time.Minute)
}
