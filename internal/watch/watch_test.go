package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/blade/internal/watch"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFile_SignalsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := watch.File(ctx, path, watch.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("- name: cube\n"), 0o644))

	select {
	case _, ok := <-ch:
		require.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFile_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := watch.File(ctx, path, watch.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))

	select {
	case <-ch:
		t.Fatal("sibling write must not be reported")
	case <-time.After(200 * time.Millisecond):
	}
	cancel()
	for range ch {
	}
}

func TestFile_MissingDirectory(t *testing.T) {
	_, err := watch.File(context.Background(), filepath.Join(t.TempDir(), "nope", "intents.yaml"))
	require.Error(t, err)
}
