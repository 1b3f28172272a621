package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/cask/internal/version"
)

// ErrGlobalWorkspace is returned when trying to remove the global workspace.
var ErrGlobalWorkspace = errors.New("the global workspace cannot be removed")

// NotFoundError indicates a package, registry, or workspace does not exist.
type NotFoundError struct {
	Kind string // "package", "registry", "workspace", "installed package"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// AlreadyExistsError indicates a duplicate registry, workspace, or pool entry.
type AlreadyExistsError struct {
	Kind string
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// InvalidNameError indicates a name or version that is not filesystem-safe.
type InvalidNameError struct {
	Kind  string
	Value string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid %s %q: only alphanumerics, '-', '_' and '.' are allowed", e.Kind, e.Value)
}

// CollisionError indicates two registries claim the same (name, version).
type CollisionError struct {
	Package  string
	Version  string
	Registry string // registry attempting the write
	OwnedBy  string // registry that already owns the pair
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("package %s@%s from registry %q is already provided by registry %q",
		e.Package, e.Version, e.Registry, e.OwnedBy)
}

// BuildError indicates a build command exited non-zero. Inside a bulk
// install it is captured into the InstallLog rather than propagated.
type BuildError struct {
	Package  string
	Version  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build of %s@%s failed with exit code %d", e.Package, e.Version, e.ExitCode)
}

// StoreError wraps a persistence failure with the operation that caused it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Conflicts accumulates mutually incompatible version requests per package
// name during change-set computation. A non-empty Conflicts fails the whole
// operation, reporting every conflicting name at once.
type Conflicts map[string][]version.Spec

// Add records a conflicting set of specs for a package name.
func (c Conflicts) Add(name string, specs []version.Spec) {
	c[name] = append(c[name], specs...)
}

// Names returns the conflicting package names in sorted order.
func (c Conflicts) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConflictsError is the terminal error for a change-set whose requests
// could not be merged.
type ConflictsError struct {
	Conflicts Conflicts
}

func (e *ConflictsError) Error() string {
	var parts []string
	for _, name := range e.Conflicts.Names() {
		specs := e.Conflicts[name]
		strs := make([]string, len(specs))
		for i, s := range specs {
			strs[i] = s.String()
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", name, strings.Join(strs, ", ")))
	}
	return "conflicting version requests: " + strings.Join(parts, "; ")
}
