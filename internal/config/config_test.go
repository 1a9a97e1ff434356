package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/blade/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), s)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blade.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
config: scenes/intents.yaml
pending_backend: redis
redis:
  addr: cache:6379
  db: 2
matcher:
  threshold: 0.6
executor:
  delay: 200ms
  retries: 3
`), 0o644))

	t.Setenv("BLADE_EXECUTOR_RETRIES", "5")
	t.Setenv("BLADE_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("threshold", 0.5, "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse([]string{"--threshold=0.75"}))

	s, err := config.Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "scenes/intents.yaml", s.Config)
	assert.Equal(t, config.BackendRedis, s.PendingBackend)
	assert.Equal(t, "cache:6379", s.Redis.Addr)
	assert.Equal(t, 2, s.Redis.DB)
	assert.Equal(t, 200*time.Millisecond, s.Executor.Delay)
	assert.Equal(t, 5, s.Executor.Retries, "env beats file")
	assert.Equal(t, "debug", s.LogLevel)
	assert.InDelta(t, 0.75, s.Matcher.Threshold, 1e-9, "flag beats file")
	assert.True(t, s.Executor.AutoFix, "defaults fill the gaps")
}

func TestLoad_UnchangedFlagKeepsDefault(t *testing.T) {
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("retries", 9, "")
	require.NoError(t, flags.Parse(nil))

	s, err := config.Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Executor.Retries, s.Executor.Retries)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err, "an explicit settings file must exist")

	path := filepath.Join(t.TempDir(), "blade.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pending_backend: s3\nmatcher:\n  threshold: 1.5\n"), 0o644))
	_, err = config.Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending_backend")
	assert.Contains(t, err.Error(), "matcher.threshold")
}
