package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: mafia-test\n"))
	require.NoError(t, err)

	assert.Equal(t, "mafia-test", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 60*time.Second, cfg.Game.PhaseDuration)
	assert.True(t, cfg.Game.EnforceDeadline)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "nats", cfg.Feed.Driver)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, time.Second, cfg.Scheduler.Tick)
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
game:
  phase_duration: 90s
  enforce_deadline: false
store:
  driver: memory
redis:
  host: redis.local
  port: 6380
scheduler:
  worker_count: 4
  tick: 500ms
`))
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Game.PhaseDuration)
	assert.False(t, cfg.Game.EnforceDeadline)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "redis.local:6380", cfg.Redis.GetAddr())
	assert.Equal(t, 4, cfg.Scheduler.WorkerCount)
	assert.Equal(t, 500*time.Millisecond, cfg.Scheduler.Tick)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MAFIA_PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("MAFIA_PHASE_DURATION", "15s")
	t.Setenv("MAFIA_ENFORCE_DEADLINE", "false")
	t.Setenv("MAFIA_STORE_DRIVER", "memory")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := Load(writeConfig(t, "jwt:\n  secret_key: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "from-env", cfg.JWT.SecretKey)
	assert.Equal(t, 15*time.Second, cfg.Game.PhaseDuration)
	assert.False(t, cfg.Game.EnforceDeadline)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "cache", cfg.Redis.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
