package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, 15*time.Second, cfg.Refresh.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Refresh.SourceTimeout)
	assert.True(t, cfg.Hooks.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9000"
refresh:
  interval: 1m
  max_concurrent: 3
hooks:
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, 3, cfg.Refresh.MaxConcurrent)
	assert.Equal(t, 5*time.Second, cfg.Hooks.Timeout)
	// Untouched keys keep defaults.
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STATUSBAR_LOG__LEVEL", "debug")
	t.Setenv("STATUSBAR_SERVER__PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("STATUSBAR_LOG__LEVEL", "loud")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}
