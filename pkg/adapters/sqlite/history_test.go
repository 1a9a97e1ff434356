package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/blade/pkg/adapters/sqlite"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, opts ...sqlite.Option) *sqlite.HistoryStore {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "db", "history.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHistoryStore_Contract(t *testing.T) {
	ports.RunHistoryStoreContract(t, open(t))
}

func TestHistoryStore_Memory(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ports.RunHistoryStoreContract(t, store)
}

func TestHistoryStore_Limit(t *testing.T) {
	store := open(t, sqlite.WithLimit(3))
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, store.Record(ctx, domain.EnrichedRecord{Name: fmt.Sprintf("n%d", i)}))
	}
	recs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "n2", recs[0].Name)
	assert.Equal(t, "n4", recs[2].Name)
	assert.False(t, recs[0].Timestamp.IsZero(), "missing timestamps are stamped on write")
}

func TestHistoryStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, domain.EnrichedRecord{
		Name:      "cube",
		Params:    domain.Params{"value": []any{1, 0, 0}},
		Timestamp: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.Close())

	store, err = sqlite.Open(path)
	require.NoError(t, err)
	defer store.Close()
	recs, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "cube", recs[0].Name)
	assert.Equal(t, []any{1.0, 0.0, 0.0}, recs[0].Params["value"])
	assert.Nil(t, mustRecent(t, store, 0))
}

func mustRecent(t *testing.T, s *sqlite.HistoryStore, n int) []domain.EnrichedRecord {
	t.Helper()
	recs, err := s.Recent(context.Background(), n)
	require.NoError(t, err)
	return recs
}
