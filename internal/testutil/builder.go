package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/infrastructure/sqlite"
	"github.com/zjrosen/cask/internal/version"
)

// Builder accumulates fixtures and inserts them in dependency order:
// registries and their packages first, then workspaces, bindings, and pool
// entries.
type Builder struct {
	t          *testing.T
	db         *sqlite.DB
	registries []domain.Registry
	packages   map[string][]domain.KnownPackage // keyed by registry name
	workspaces []string
	bindings   []domain.WorkspacePackage
	installed  [][2]string
}

// NewBuilder creates a builder for the given test database.
func NewBuilder(t *testing.T, db *sqlite.DB) *Builder {
	t.Helper()
	return &Builder{t: t, db: db, packages: map[string][]domain.KnownPackage{}}
}

// WithRegistry adds a registry with a fetch timestamp of now.
func (b *Builder) WithRegistry(name, uri string) *Builder {
	now := time.Now()
	b.registries = append(b.registries, domain.Registry{Name: name, URI: uri, LastFetched: &now})
	return b
}

// WithPackage adds a known package to a registry added earlier.
func (b *Builder) WithPackage(registry, name, ver string, opts ...PackageOption) *Builder {
	pkg := domain.KnownPackage{Name: name, Version: ver, Registry: registry}
	for _, opt := range opts {
		opt(&pkg)
	}
	b.packages[registry] = append(b.packages[registry], pkg)
	return b
}

// WithWorkspace adds a workspace row.
func (b *Builder) WithWorkspace(name string) *Builder {
	b.workspaces = append(b.workspaces, name)
	return b
}

// WithBinding binds a package version into a workspace. The requested spec
// uses request syntax ("*", "~1", "1.0.0").
func (b *Builder) WithBinding(workspace, name, ver, requested string) *Builder {
	b.bindings = append(b.bindings, domain.WorkspacePackage{
		Workspace: workspace,
		Name:      name,
		Version:   ver,
		Requested: version.ParseSpec(requested),
	})
	return b
}

// WithInstalled records a pool entry for (name, version).
func (b *Builder) WithInstalled(name, ver string) *Builder {
	b.installed = append(b.installed, [2]string{name, ver})
	return b
}

// Build inserts all accumulated fixtures.
func (b *Builder) Build() {
	b.t.Helper()

	for _, reg := range b.registries {
		require.NoError(b.t, b.db.Registries().Create(reg))
	}
	for registry, pkgs := range b.packages {
		require.NoError(b.t, b.db.KnownPackages().SyncRegistry(registry, pkgs))
	}
	for _, ws := range b.workspaces {
		require.NoError(b.t, b.db.Workspaces().Create(ws))
	}
	for _, binding := range b.bindings {
		require.NoError(b.t, b.db.Workspaces().SaveBinding(binding))
	}
	for _, entry := range b.installed {
		claimed, err := b.db.Installed().Claim(entry[0], entry[1])
		require.NoError(b.t, err)
		require.True(b.t, claimed, "pool entry %s@%s already present", entry[0], entry[1])
	}
}
