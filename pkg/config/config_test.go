package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/gofetch/pkg/retry"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gofetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
retries: 2
interval: 250ms
retry_not_found: true
timeout: 5s
concurrency: 8
user_agent: uploader/2.0
rate_limit: 12.5
rate_burst: 3
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.True(t, cfg.RetryNotFound)
	assert.False(t, cfg.NoProxy)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "uploader/2.0", cfg.UserAgent)
	assert.InDelta(t, 12.5, cfg.RateLimit, 0.0001)
	assert.Equal(t, 3, cfg.RateBurst)
	assert.Equal(t, LogConfig{Level: "debug", Pretty: true}, cfg.Log)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "retries: 2\nconcurrency: 8\n")

	t.Setenv("GOFETCH_RETRIES", "7")
	t.Setenv("GOFETCH_RETRY_NOT_FOUND", "true")
	t.Setenv("GOFETCH_NO_PROXY", "true")
	t.Setenv("GOFETCH_INTERVAL", "1s")
	t.Setenv("GOFETCH_LOG_LEVEL", "warn")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retries)
	assert.True(t, cfg.RetryNotFound)
	assert.True(t, cfg.NoProxy)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Concurrency)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "negative retries", content: "retries: -1\n"},
		{name: "zero concurrency", content: "concurrency: 0\n"},
		{name: "unknown log level", env: map[string]string{"GOFETCH_LOG_LEVEL": "verbose"}},
		{name: "zero interval", env: map[string]string{"GOFETCH_INTERVAL": "0s"}},
		{name: "malformed yaml", content: "retries: [1, 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.content != "" {
				path = writeConfigFile(t, tt.content)
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Default()))

	cfg := Default()
	cfg.Timeout = 0
	assert.Error(t, Validate(cfg))
}

func TestRetryConfig(t *testing.T) {
	cfg := Default()
	cfg.Retries = 3
	cfg.Interval = time.Second

	assert.Equal(t, retry.Config{Retries: 3, Interval: time.Second}, cfg.RetryConfig())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "retries", envKey("GOFETCH_RETRIES"))
	assert.Equal(t, "retry_not_found", envKey("GOFETCH_RETRY_NOT_FOUND"))
	assert.Equal(t, "log.level", envKey("GOFETCH_LOG_LEVEL"))
	assert.Equal(t, "log.pretty", envKey("GOFETCH_LOG_PRETTY"))
}
