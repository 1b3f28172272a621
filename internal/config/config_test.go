package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, "global", cfg.Workspace)
	require.Equal(t, time.Hour, cfg.RegistryRefreshInterval)
	require.Zero(t, cfg.MaxParallelInstalls)
	require.False(t, cfg.Tracing.Enabled)
}

func TestConfig_Paths_FillsDefaultsFromRoot(t *testing.T) {
	cfg := Config{RootDir: "/var/cask"}
	paths, err := cfg.Paths()
	require.NoError(t, err)
	require.Equal(t, "/var/cask", paths.Root)
	require.Equal(t, filepath.Join("/var/cask", "cask.db"), paths.DB)
	require.Equal(t, filepath.Join("/var/cask", "pool"), paths.Pool)
	require.Equal(t, filepath.Join("/var/cask", "workspaces"), paths.Workspaces)
}

func TestConfig_Paths_RespectsOverrides(t *testing.T) {
	cfg := Config{
		RootDir:       "/var/cask",
		DBPath:        "/elsewhere/state.db",
		PoolDir:       "/pool",
		WorkspacesDir: "/ws",
	}
	paths, err := cfg.Paths()
	require.NoError(t, err)
	require.Equal(t, "/elsewhere/state.db", paths.DB)
	require.Equal(t, "/pool", paths.Pool)
	require.Equal(t, "/ws", paths.Workspaces)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "registry_refresh_interval")

	// Second write must refuse to clobber.
	require.Error(t, WriteDefaultConfig(path))
}
