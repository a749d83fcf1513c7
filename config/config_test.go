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

	path := filepath.Join(t.TempDir(), "vserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "vserver_db", cfg.Storage.Key)
	assert.Equal(t, "routes.yaml", cfg.Routes.File)
	assert.Equal(t, RequestIDV4, cfg.Server.RequestID)
	assert.Zero(t, cfg.Server.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad(t *testing.T) {
	t.Run("merges over defaults", func(t *testing.T) {
		path := writeConfig(t, `
storage:
  backend: memory
routes:
  file: api.yaml
  watch: true
server:
  delay: 150ms
  jitter: 50ms
  timeout: 5s
  request_id: v7
  access_log: true
  headers:
    Access-Control-Allow-Origin: "*"
logging:
  level: debug
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, BackendMemory, cfg.Storage.Backend)
		assert.Equal(t, "vserver_db", cfg.Storage.Key)
		assert.Equal(t, "api.yaml", cfg.Routes.File)
		assert.True(t, cfg.Routes.Watch)
		assert.Equal(t, 150*time.Millisecond, cfg.Server.Delay)
		assert.Equal(t, 50*time.Millisecond, cfg.Server.Jitter)
		assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
		assert.Equal(t, RequestIDV7, cfg.Server.RequestID)
		assert.True(t, cfg.Server.AccessLog)
		assert.Equal(t, map[string]string{"Access-Control-Allow-Origin": "*"}, cfg.Server.Headers)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 10, cfg.Logging.MaxSize)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := Load(writeConfig(t, "storage: [\n"))
		assert.Error(t, err)
	})

	t.Run("invalid duration", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  delay: soon\n"))
		assert.Error(t, err)
	})

	t.Run("env overrides level", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "warn")

		cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := LoadOrDefault("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		_, err := LoadOrDefault(writeConfig(t, "storage:\n  backend: redis\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"file backend without dir", func(c *Config) { c.Storage.Dir = "" }},
		{"empty key", func(c *Config) { c.Storage.Key = "" }},
		{"negative quota", func(c *Config) { c.Storage.Quota = -1 }},
		{"negative delay", func(c *Config) { c.Server.Delay = -time.Second }},
		{"negative timeout", func(c *Config) { c.Server.Timeout = -time.Second }},
		{"unknown request id", func(c *Config) { c.Server.RequestID = "v1" }},
		{"log file without path", func(c *Config) {
			c.Logging.LogToFile = true
			c.Logging.LogFilePath = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("memory backend needs no dir", func(t *testing.T) {
		cfg := Default()
		cfg.Storage.Backend = BackendMemory
		cfg.Storage.Dir = ""
		assert.NoError(t, cfg.Validate())
	})
}
