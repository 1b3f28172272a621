package domain

// RegistryRepository persists registries.
type RegistryRepository interface {
	// Create inserts a new registry. Returns AlreadyExistsError when a
	// registry with the same URI (or non-empty name) exists.
	Create(reg Registry) error
	// Update overwrites a registry's name and last-fetched timestamp,
	// keyed by URI.
	Update(reg Registry) error
	// FindByName returns the registry with the given name.
	FindByName(name string) (Registry, error)
	// List returns all registries ordered by name.
	List() ([]Registry, error)
	// Delete removes a registry by name. Its known packages are removed
	// with it.
	Delete(name string) error
}

// KnownPackageRepository persists registry-known package versions.
type KnownPackageRepository interface {
	// SyncRegistry atomically reconciles a registry's namespace: it fails
	// with CollisionError if any (name, version) is owned by a different
	// registry, removes pairs previously known for this registry but
	// absent from pkgs, and upserts every entry in pkgs. No partial
	// writes occur on failure.
	SyncRegistry(registry string, pkgs []KnownPackage) error
	// Find returns the known package for an exact (name, version).
	Find(name, ver string) (KnownPackage, error)
	// FindByName returns all known versions of a package, ordered by
	// version string descending.
	FindByName(name string) ([]KnownPackage, error)
	// List returns every known package ordered by name, then version
	// descending.
	List() ([]KnownPackage, error)
}

// WorkspaceRepository persists workspaces and their package bindings.
type WorkspaceRepository interface {
	// Create inserts a workspace. Returns AlreadyExistsError on duplicates.
	Create(name string) error
	// Delete removes a workspace and all of its bindings.
	// Returns ErrGlobalWorkspace for the global workspace.
	Delete(name string) error
	// Exists reports whether the workspace exists.
	Exists(name string) (bool, error)
	// List returns all workspace names in sorted order.
	List() ([]Workspace, error)

	// SaveBinding upserts the binding for (workspace, package name),
	// replacing any prior version bound under the same name.
	SaveBinding(binding WorkspacePackage) error
	// DeleteBinding removes a single binding. Returns NotFoundError if
	// the binding does not exist.
	DeleteBinding(workspace, name string) error
	// FindBinding returns the binding for (workspace, package name).
	FindBinding(workspace, name string) (WorkspacePackage, error)
	// ListBindings returns a workspace's bindings ordered by package name.
	ListBindings(workspace string) ([]WorkspacePackage, error)
	// CountRefs returns how many bindings across all workspaces reference
	// the exact (name, version).
	CountRefs(name, ver string) (int, error)
}

// InstalledPackageRepository tracks physical pool entries.
type InstalledPackageRepository interface {
	// Claim atomically records (name, version) as installed. It returns
	// true when this call inserted the row and false when the row already
	// existed; concurrent claimers see exactly one true.
	Claim(name, ver string) (bool, error)
	// Release removes the pool entry row, used when a claimed build fails.
	Release(name, ver string) error
	// Exists reports whether a pool entry exists.
	Exists(name, ver string) (bool, error)
	// List returns all pool entries ordered by name, then version.
	List() ([]InstalledPackage, error)
	// Unreferenced returns pool entries with zero workspace bindings
	// across all workspaces.
	Unreferenced() ([]InstalledPackage, error)
}

// Store bundles the repositories the engine operates on.
type Store interface {
	Registries() RegistryRepository
	KnownPackages() KnownPackageRepository
	Workspaces() WorkspaceRepository
	Installed() InstalledPackageRepository
}
