package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 300*time.Second, cfg.Server.CacheTTL)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Realtime.Backend)
	assert.Equal(t, "society:changes", cfg.Realtime.ChannelPrefix)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, "http://localhost:8080", cfg.Client.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Client.Timeout)
	assert.False(t, cfg.Push.Enabled())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
server:
  port: 9090
  cache_ttl_seconds: 30
database:
  driver: sqlite
  dsn: "file::memory:"
realtime:
  backend: redis
  redis:
    addr: "localhost:6379"
push:
  vapid_public_key: pub
  vapid_private_key: priv
worker_pool:
  size: 4
client:
  base_url: "http://society.local"
  http_proxy: "http://proxy:3128"
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.CacheTTL)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.Realtime.Backend)
	assert.Equal(t, "localhost:6379", cfg.Realtime.Redis.Addr)
	assert.Equal(t, "society:changes", cfg.Realtime.ChannelPrefix)
	assert.True(t, cfg.Push.Enabled())
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 4, cfg.WorkerPool.Size)
	assert.Equal(t, "http://society.local", cfg.Client.BaseURL)
	assert.Equal(t, "http://proxy:3128", cfg.Client.HTTPProxy)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
