// Package config provides configuration types and defaults for cask.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// TracingConfig holds OpenTelemetry tracing options.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"` // "none", "file", "stdout", "otlp"
	FilePath     string  `mapstructure:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// Config holds all configuration options for cask.
type Config struct {
	// RootDir is the base directory for the database, the package pool,
	// and workspaces. Default: ~/.cask
	RootDir string `mapstructure:"root_dir"`

	// DBPath overrides the database location. Default: <root_dir>/cask.db
	DBPath string `mapstructure:"db_path"`

	// PoolDir overrides the shared package pool location.
	// Default: <root_dir>/pool
	PoolDir string `mapstructure:"pool_dir"`

	// WorkspacesDir overrides the workspaces location.
	// Default: <root_dir>/workspaces
	WorkspacesDir string `mapstructure:"workspaces_dir"`

	// Workspace is the active workspace for install/update/remove/list.
	Workspace string `mapstructure:"workspace"`

	// RegistryRefreshInterval is how long a remote registry's manifest is
	// considered fresh. File registries are always re-read.
	RegistryRefreshInterval time.Duration `mapstructure:"registry_refresh_interval"`

	// MaxParallelInstalls bounds concurrent package tasks in a bulk
	// operation. 0 means unbounded (one task per package).
	MaxParallelInstalls int `mapstructure:"max_parallel_installs"`

	Debug   bool          `mapstructure:"debug"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// Paths are the resolved filesystem roots injected into the store, pool,
// and workspace components. They are always absolute and never global.
type Paths struct {
	Root       string
	DB         string
	Pool       string
	Workspaces string
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Workspace:               "global",
		RegistryRefreshInterval: time.Hour,
		MaxParallelInstalls:     0,
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Paths resolves the configured directories, filling defaults relative to
// the root dir. An empty root resolves to ~/.cask.
func (c Config) Paths() (Paths, error) {
	root := c.RootDir
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		root = filepath.Join(home, ".cask")
	}

	p := Paths{
		Root:       root,
		DB:         c.DBPath,
		Pool:       c.PoolDir,
		Workspaces: c.WorkspacesDir,
	}
	if p.DB == "" {
		p.DB = filepath.Join(root, "cask.db")
	}
	if p.Pool == "" {
		p.Pool = filepath.Join(root, "pool")
	}
	if p.Workspaces == "" {
		p.Workspaces = filepath.Join(root, "workspaces")
	}
	return p, nil
}
