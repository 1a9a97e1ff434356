package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/blade/pkg/adapters/redis"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestPendingStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunPendingStoreContract(t, redis.NewFromClient(client))
}

func TestPendingStore_PrefixAndExtra(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	err := store.Append(ctx, domain.Intent{
		Name:  "cube",
		Extra: map[string]any{"owner": "modeling"},
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:pending"))
	assert.False(t, mr.Exists(redis.DefaultPrefix+"pending"))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "modeling", list[0].Extra["owner"])
}

func TestPendingStore_SkipsCorruptRecords(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, domain.Intent{Name: "a"}))
	_, err := mr.Push(redis.DefaultPrefix+"pending", "{not json")
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, domain.Intent{Name: "b"}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)
}

func TestPendingStore_TTL(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, domain.Intent{Name: "cube"}))
	mr.FastForward(2 * time.Second)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPendingStore_ConnectionError(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	mr.Close()

	_, err := store.List(context.Background())
	assert.Error(t, err)
	assert.Error(t, store.Append(context.Background(), domain.Intent{Name: "x"}))
}

func TestLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "intents.yaml", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:intents.yaml"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:intents.yaml"))
}

func TestLocker_Contention(t *testing.T) {
	_, client := newClient(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:").WithRetryInterval(10 * time.Millisecond)
	ctx := context.Background()

	unlock, err := first.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = second.Lock(short, "shared", 5*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, redis.ErrLockAcquire))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	require.NoError(t, unlock(ctx))
	unlock2, err := second.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_UnlockKeepsForeignLock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)

	// The lock expired and someone else took it.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("test:lock:k", "someone-else"))

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("test:lock:k"))
}
