package pending_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/adapters/redis"
	"github.com/aretw0/blade/pkg/catalog"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/pending"
	"github.com/aretw0/blade/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2026, 4, 5, 6, 7, 8, 900, time.UTC)

func clock() time.Time { return fixed }

func TestInjector_Dedupes(t *testing.T) {
	ctx := context.Background()
	src := memory.NewSource(domain.Intent{Name: "add_cube", Operator: "mesh.primitive_cube_add"})
	store := memory.NewPendingStore()
	require.NoError(t, store.Append(ctx, domain.Intent{Name: "smooth"}))

	inj := pending.NewInjector(catalog.New(src), store, pending.WithClock(clock))
	n, err := inj.Inject(ctx,
		domain.Intent{Name: "add_cube"},
		domain.Intent{Name: "smooth"},
		domain.Intent{Name: "paint_red", Operator: "context.object.color"},
		domain.Intent{Name: "paint_red"},
		domain.Intent{Extra: map[string]any{"intent": "legacy"}},
		domain.Intent{},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "paint_red", list[1].Name)
	assert.Equal(t, "context.object.color", list[1].Operator)
	assert.Equal(t, domain.SourceAutoInjector, list[1].Source)
	assert.Equal(t, "2026-04-05T06:07:08Z", list[1].InjectedAt)
	assert.Equal(t, "legacy", list[2].Name)
}

func TestInjector_NothingNew(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPendingStore()
	inj := pending.NewInjector(nil, store)

	n, err := inj.Inject(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = inj.Inject(ctx, domain.Intent{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = inj.Inject(ctx, domain.Intent{Name: "a"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

type brokenStore struct{ ports.PendingStore }

func (brokenStore) List(context.Context) ([]domain.Intent, error) {
	return nil, errors.New("disk on fire")
}

func TestInjector_StoreError(t *testing.T) {
	inj := pending.NewInjector(nil, brokenStore{})
	_, err := inj.Inject(context.Background(), domain.Intent{Name: "a"})
	assert.ErrorContains(t, err, "disk on fire")
}

func TestMerger_Merge(t *testing.T) {
	ctx := context.Background()
	src := memory.NewSource(domain.Intent{Name: "add_cube", Operator: "mesh.primitive_cube_add"})
	store := memory.NewPendingStore()
	require.NoError(t, store.Append(ctx,
		domain.Intent{Name: "add_cube", Source: domain.SourceAutoInjector},
		domain.Intent{
			Name:       "paint_red",
			Phrases:    []string{"mets en rouge"},
			Operator:   "context.object.color",
			Source:     domain.SourceAutoInjector,
			InjectedAt: "2026-01-01T00:00:00Z",
		},
		domain.Intent{Name: "render", Category: "output"},
	))

	report, err := pending.NewMerger(src, store, pending.WithClock(clock)).Merge(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"paint_red", "render"}, report.Added)
	assert.Equal(t, []string{"add_cube"}, report.Skipped)

	got, err := src.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	red := got[1]
	assert.Equal(t, "paint_red", red.Name)
	assert.Equal(t, []string{"mets en rouge"}, red.Phrases)
	assert.Equal(t, domain.DefaultCategory, red.Category)
	assert.Equal(t, "2026-04-05T06:07:08Z", red.MergedAt)
	assert.Empty(t, red.Source)
	assert.Empty(t, red.InjectedAt)
	assert.NotNil(t, red.Params)
	assert.Equal(t, "output", got[2].Category)

	left, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestMerger_NothingNewKeepsPending(t *testing.T) {
	ctx := context.Background()
	src := memory.NewSource(domain.Intent{Name: "add_cube"})
	store := memory.NewPendingStore()
	require.NoError(t, store.Append(ctx, domain.Intent{Name: "add_cube"}))
	before, _ := src.ModTime(ctx)

	report, err := pending.NewMerger(src, store).Merge(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Added)

	after, _ := src.ModTime(ctx)
	assert.Equal(t, before, after, "configuration not rewritten")
	left, _ := store.List(ctx)
	assert.Len(t, left, 1)

	empty, err := pending.NewMerger(src, memory.NewPendingStore()).Merge(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Added)
	assert.Empty(t, empty.Skipped)
}

func TestMerger_Locked(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()
	locker := redis.NewLocker(client, "test:").WithRetryInterval(10 * time.Millisecond)

	ctx := context.Background()
	src := memory.NewSource()
	store := memory.NewPendingStore()
	require.NoError(t, store.Append(ctx, domain.Intent{Name: "a"}))

	unlock, err := locker.Lock(ctx, pending.MergeLockKey, time.Minute)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = pending.NewMerger(src, store, pending.WithLocker(locker, time.Minute)).Merge(short)
	require.ErrorIs(t, err, redis.ErrLockAcquire)

	require.NoError(t, unlock(ctx))
	report, err := pending.NewMerger(src, store, pending.WithLocker(locker, time.Minute)).Merge(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, report.Added)
	assert.False(t, mr.Exists("test:lock:"+pending.MergeLockKey), "lock released")
}
