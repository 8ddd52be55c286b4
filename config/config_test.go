package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsteps/walkops/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "walkops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 3000
store:
  backend: memory
scheduler:
  enabled: false
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.False(t, cfg.Scheduler.Enabled)

	// Untouched defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:3000", cfg.GetServerAddress())
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 3000\n")
	t.Setenv("SERVER_PORT", "4000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "store:\n  backend: postgres\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsBadPort(t *testing.T) {
	path := writeConfig(t, "server:\n  port: -1\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_SqliteRequiresPath(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = ""
	assert.Error(t, cfg.Validate())
}
