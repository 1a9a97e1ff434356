package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/blade/internal/config"
	"github.com/aretw0/blade/pkg/adapters/file"
	"github.com/aretw0/blade/pkg/adapters/memory"
	"github.com/aretw0/blade/pkg/adapters/redis"
	"github.com/aretw0/blade/pkg/adapters/sqlite"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/persistence/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const intentsYAML = `
- name: add_cube
  phrases: [ajoute un cube]
  operator: mesh.primitive_cube_add
- name: color_red
  phrase: change en rouge
  operator: context.object.active_material.diffuse_color
  params:
    value: [1, 0, 0]
    normalize: color
`

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	dir := t.TempDir()
	s := config.Default()
	s.Config = filepath.Join(dir, "intents.yaml")
	s.Pending = filepath.Join(dir, "pending.yaml")
	s.Executor.Delay = 0
	require.NoError(t, os.WriteFile(s.Config, []byte(intentsYAML), 0o644))
	return s
}

func TestNewStack_Defaults(t *testing.T) {
	s := testSettings(t)
	st, err := NewStack(s, nil, nil)
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &file.PendingFile{}, st.Pending)
	assert.IsType(t, &memory.HistoryStore{}, st.History)
	assert.Nil(t, st.Locker)

	ctx := context.Background()
	rep := st.Engine.RunDetailed(ctx, domain.NewRunRequest("ajoute un cube"))
	require.True(t, rep.OK, "reason: %s", rep.Reason)
	assert.True(t, st.Host.(*memory.Host).Ran("mesh.primitive_cube_add"))

	recs, err := st.History.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "add_cube", recs[0].Name)

	n, err := testutil.GatherAndCount(st.Registry, "blade_runs_total", "blade_matches_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewStack_FuzzyColorUsesSettings(t *testing.T) {
	s := testSettings(t)

	st, err := NewStack(s, nil, nil)
	require.NoError(t, err)
	defer st.Close()
	assert.True(t, st.Engine.Run(context.Background(), domain.NewRunRequest("peins en rouge")))

	s.Matcher.Threshold = 0.9
	strict, err := NewStack(s, nil, nil)
	require.NoError(t, err)
	defer strict.Close()
	rep := strict.Engine.RunDetailed(context.Background(), domain.NewRunRequest("peins en rouge"))
	assert.Equal(t, domain.ReasonNoIntent, rep.Reason)
}

func TestNewStack_NoHistoryAndMemoryPending(t *testing.T) {
	s := testSettings(t)
	s.History = config.HistoryNone
	s.PendingBackend = config.BackendMemory

	st, err := NewStack(s, nil, nil)
	require.NoError(t, err)
	defer st.Close()
	assert.Nil(t, st.History)
	assert.IsType(t, &memory.PendingStore{}, st.Pending)
}

func TestNewStack_SQLiteHistory(t *testing.T) {
	s := testSettings(t)
	s.History = filepath.Join(t.TempDir(), "history.db")

	st, err := NewStack(s, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.HistoryStore{}, st.History)

	require.True(t, st.Engine.Run(context.Background(), domain.NewRunRequest("ajoute un cube")))
	require.NoError(t, st.Close())

	reopened, err := sqlite.Open(s.History)
	require.NoError(t, err)
	defer reopened.Close()
	recs, err := reopened.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.KindCommand, recs[0].Type)
}

func TestNewStack_RedisPendingAndMerge(t *testing.T) {
	mr := miniredis.RunT(t)
	s := testSettings(t)
	s.PendingBackend = config.BackendRedis
	s.Redis.Addr = mr.Addr()
	s.Redis.Prefix = "test:"

	st, err := NewStack(s, nil, nil)
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &redis.PendingStore{}, st.Pending)
	require.NotNil(t, st.Locker)

	ctx := context.Background()
	in := domain.Intent{Name: "smooth", Phrases: []string{"lisse"}, Operator: "object.shade_smooth"}
	st.Engine.Run(ctx, domain.NewIntentRequest(in))
	assert.True(t, mr.Exists("test:pending"))

	report, err := st.Merger().Merge(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"smooth"}, report.Added)
	assert.Equal(t, 3, st.Engine.Reload(ctx))

	list, err := st.Pending.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.False(t, mr.Exists("test:lock:merge"), "merge lock is released")
}

func TestNewStack_SealedHistory(t *testing.T) {
	s := testSettings(t)
	s.History = filepath.Join(t.TempDir(), "history.db")
	s.HistoryKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	s.HistoryRedact = []string{"^value$"}

	st, err := NewStack(s, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, st.Engine.Run(ctx, domain.NewRunRequest("change en rouge")))

	recs, err := st.History.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "change en rouge", recs[0].Phrase)
	assert.Equal(t, middleware.Masked, recs[0].Params["value"])
	require.NoError(t, st.Close())

	raw, err := sqlite.Open(s.History)
	require.NoError(t, err)
	defer raw.Close()
	stored, err := raw.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, strings.HasPrefix(stored[0].Phrase, middleware.EnvelopePrefix))

	s.HistoryKey = "short"
	_, err = NewStack(s, nil, nil)
	assert.Error(t, err)
}

func TestNewStack_ExternalTools(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("tests rely on sh")
	}
	s := testSettings(t)
	s.Tools = filepath.Join(filepath.Dir(s.Config), "tools.yaml")
	require.NoError(t, os.WriteFile(s.Tools, []byte("tools:\n  - name: touch_marker\n    command: sh\n    args: [-c, 'touch marker']\n"), 0o644))
	require.NoError(t, os.WriteFile(s.Config, []byte(intentsYAML+`
- name: mark
  phrase: marque
  operator: script.touch_marker
`), 0o644))

	st, err := NewStack(s, nil, nil)
	require.NoError(t, err)
	defer st.Close()

	rep := st.Engine.RunDetailed(context.Background(), domain.NewRunRequest("marque"))
	require.True(t, rep.OK, "reason: %s", rep.Reason)
	assert.FileExists(t, filepath.Join(filepath.Dir(s.Tools), "marker"))
}

func TestNewStack_HistoryPath(t *testing.T) {
	s := testSettings(t)
	s.History = filepath.Join(t.TempDir(), "missing", "dir", "history.db")
	st, err := NewStack(s, nil, nil)
	require.NoError(t, err, "missing directories are created")
	require.NoError(t, st.Close())
	assert.FileExists(t, s.History)

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	s.History = filepath.Join(blocker, "history.db")
	st, err = NewStack(s, nil, nil)
	if err == nil {
		st.Close()
	}
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	s := config.Default()
	_, err := NewLogger(s)
	require.NoError(t, err)

	s.LogFormat = "xml"
	_, err = NewLogger(s)
	assert.Error(t, err)

	s.LogFormat = "json"
	s.LogLevel = "loud"
	_, err = NewLogger(s)
	assert.Error(t, err)
}
