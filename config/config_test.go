package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 5*time.Minute, cfg.AttemptTimeout.Std())
	assert.Equal(t, 100000, cfg.MaxShots)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.PostgresDSN)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
attempt_timeout: 30s
max_shots: 5000
redis_addr: "localhost:6379"
result_cache_ttl: 10m
postgres_dsn: "host=db user=qb dbname=qbridge sslmode=disable"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.AttemptTimeout.Std())
	assert.Equal(t, 5000, cfg.MaxShots)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 10*time.Minute, cfg.ResultCacheTTL.Std())
	assert.NotEmpty(t, cfg.PostgresDSN)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("attempt_timeout: soon\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"QB_LISTEN_ADDR":     ":7070",
		"QB_REDIS_ADDR":      "cache:6379",
		"QB_POSTGRES_DSN":    "host=pg",
		"QB_ATTEMPT_TIMEOUT": "90s",
	}
	cfg.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, "host=pg", cfg.PostgresDSN)
	assert.Equal(t, 90*time.Second, cfg.AttemptTimeout.Std())
}
