package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultConfigTemplate is written when no config file exists anywhere.
const defaultConfigTemplate = `# cask configuration
# root_dir: ~/.cask
# workspace: global

# How long remote registry manifests stay fresh. File registries are
# always re-read.
registry_refresh_interval: 1h

# Concurrent package tasks per bulk operation. 0 = unbounded.
max_parallel_installs: 0

# tracing:
#   enabled: true
#   exporter: file          # none, file, stdout, otlp
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`

// WriteDefaultConfig writes the commented default config to the given path,
// creating parent directories as needed. Fails if the file already exists.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
