package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 50051, cfg.Server.GRPCPort)
	assert.Equal(t, 50, cfg.Escrow.ListLimit)
	assert.Equal(t, "Tournament Escrow", cfg.Escrow.Name)
	assert.Equal(t, 30*time.Second, cfg.Payout.RetryInterval)
	assert.Equal(t, 5*time.Minute, cfg.Payout.PendingTimeout)
	assert.Equal(t, 5, cfg.Payout.MaxAttempts)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  grpc_port: 7000
  log_level: debug
storage:
  backend: redis
  cache_size: 16
escrow:
  owner_id: escrow.owner
payout:
  retry_interval: 1m
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	t.Setenv("ESCROW_SERVER_GRPC_PORT", "7100")
	t.Setenv("ESCROW_REDIS_ADDRESS", "redis:6380")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Server.GRPCPort)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, 16, cfg.Storage.CacheSize)
	assert.Equal(t, "redis:6380", cfg.Redis.Address)
	assert.Equal(t, "escrow.owner", cfg.Escrow.OwnerID)
	assert.Equal(t, time.Minute, cfg.Payout.RetryInterval)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [1, 2"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestEnvLoader(t *testing.T) {
	env := NewEnvLoader("ESCROW")
	t.Setenv("ESCROW_CONFIG_PATH", "/etc/escrow")
	t.Setenv("ESCROW_DEV_LOGGER", "yes")
	t.Setenv("ESCROW_BROKEN_FLAG", "maybe")

	assert.Equal(t, "/etc/escrow", env.GetString("CONFIG_PATH", "./config"))
	assert.Equal(t, "fallback", env.GetString("MISSING", "fallback"))
	assert.True(t, env.GetBool("DEV_LOGGER", false))
	assert.True(t, env.GetBool("BROKEN_FLAG", true))
	assert.False(t, env.GetBool("MISSING", false))
	assert.Equal(t, "PLAIN", NewEnvLoader("").buildKey("PLAIN"))
}
