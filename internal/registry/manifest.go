// Package registry fetches registry manifests and reconciles them into the
// known-package table: new versions are added, vanished versions dropped,
// and cross-registry collisions rejected before any write.
package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/cask/internal/domain"
)

// maxSchemaVersion is the newest manifest schema this build understands.
const maxSchemaVersion = 1

// Manifest is the document a registry serves.
type Manifest struct {
	SchemaVersion int               `yaml:"schema_version"`
	Name          string            `yaml:"name"`
	URI           string            `yaml:"uri"`
	Description   string            `yaml:"description"`
	Packages      []ManifestPackage `yaml:"packages"`
}

// ManifestPackage is one package entry in a manifest.
type ManifestPackage struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Homepage    string   `yaml:"homepage"`
	License     string   `yaml:"license"`
	Source      string   `yaml:"source"`
	Build       string   `yaml:"build"`
	Artifacts   []string `yaml:"artifacts"`
}

// ParseManifest parses and validates manifest text. The whole manifest is
// rejected if the schema version is unsupported, the registry name is
// missing or unsafe, or any package name or version is not filesystem-safe.
func ParseManifest(text string) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal([]byte(text), &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}

	if m.SchemaVersion > maxSchemaVersion {
		return Manifest{}, fmt.Errorf("unsupported manifest schema_version %d (max %d)", m.SchemaVersion, maxSchemaVersion)
	}
	if !domain.SafeName(m.Name) {
		return Manifest{}, &domain.InvalidNameError{Kind: "registry name", Value: m.Name}
	}

	for _, pkg := range m.Packages {
		if !domain.SafeName(pkg.Name) {
			return Manifest{}, &domain.InvalidNameError{Kind: "package name", Value: pkg.Name}
		}
		if !domain.SafeName(pkg.Version) {
			return Manifest{}, &domain.InvalidNameError{Kind: "package version", Value: pkg.Version}
		}
	}

	return m, nil
}

// KnownPackages converts the manifest entries into known packages owned by
// the manifest's registry name.
func (m Manifest) KnownPackages() []domain.KnownPackage {
	pkgs := make([]domain.KnownPackage, len(m.Packages))
	for i, p := range m.Packages {
		pkgs[i] = domain.KnownPackage{
			Name:        p.Name,
			Version:     p.Version,
			Description: p.Description,
			Homepage:    p.Homepage,
			License:     p.License,
			Source:      p.Source,
			Build:       p.Build,
			Artifacts:   p.Artifacts,
			Registry:    m.Name,
		}
	}
	return pkgs
}
