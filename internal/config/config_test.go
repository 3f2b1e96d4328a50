package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".devdeps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
func:
  version: "3"
test_tool:
  update_interval: 24h
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "3", cfg.Func.Version)
	assert.Equal(t, 24*time.Hour, cfg.TestTool.UpdateInterval)
	// untouched keys keep their defaults
	assert.Equal(t, "~0.2.0", cfg.TestTool.VersionRange)
	assert.Equal(t, "4.3.3", cfg.Ngrok.Version)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("DEVDEPS_NGROK_VERSION", "5.0.0")
	t.Setenv("DEVDEPS_NETWORK_RETRY_ATTEMPTS", "7")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "5.0.0", cfg.Ngrok.Version)
	assert.Equal(t, uint(7), cfg.Network.RetryAttempts)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := DefaultConfig()
			cfg.Func.SymlinkDir = "devTools/func"

			require.NoError(t, SaveConfig(cfg, path))
			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestResolveConfigRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConfigRoot = "/opt/fx"
	root, err := cfg.ResolveConfigRoot()
	require.NoError(t, err)
	assert.Equal(t, "/opt/fx", root)

	cfg.ConfigRoot = ""
	root, err = cfg.ResolveConfigRoot()
	require.NoError(t, err)
	assert.Equal(t, ".fx", filepath.Base(root))
}

func TestGetConfigPathExplicit(t *testing.T) {
	assert.Equal(t, "custom.yaml", GetConfigPath("custom.yaml"))
}
