// Package domain holds the core entities of the package manager and the
// store contract the engine relies on. It has no persistence or transport
// concerns of its own.
package domain

import (
	"time"

	"github.com/zjrosen/cask/internal/version"
)

// KnownPackage is one (name, version) recorded from a registry manifest.
// The pair (Name, Version) is unique across all registries; a registry may
// never claim a pair another registry already owns.
type KnownPackage struct {
	Name        string
	Version     string
	Description string
	Homepage    string
	License     string
	Source      string   // download URL for the source artifact; empty for meta-packages
	Build       string   // shell command run in the build work dir; empty for meta-packages
	Artifacts   []string // relative paths copied into the pool after a successful build
	Registry    string   // owning registry name
}

// Display renders the package as name@version with optional metadata.
func (p KnownPackage) Display() string {
	out := p.Name + "@" + p.Version
	if p.Description != "" {
		out += " - " + p.Description
	}
	if p.Homepage != "" {
		out += " <" + p.Homepage + ">"
	}
	if p.License != "" {
		out += " [" + p.License + "]"
	}
	if p.Registry != "" {
		out += " (" + p.Registry + ")"
	}
	return out
}

// WorkspacePackage binds one exact package version into a workspace.
// A workspace holds at most one binding per package name.
type WorkspacePackage struct {
	Workspace string
	Name      string
	Version   string       // exact resolved version
	Requested version.Spec // original request, kept for display
}

// Display renders the binding as name@version with its original request.
func (p WorkspacePackage) Display() string {
	return p.Name + "@" + p.Version + " (resolved from " + p.Requested.String() + ")"
}

// InstalledPackage is a physically built artifact set in the shared pool,
// independent of any workspace. At most one pool entry exists per
// (name, version); it is destroyed only by garbage collection once no
// workspace binding references it.
type InstalledPackage struct {
	Name      string
	Version   string
	CreatedAt time.Time
}

// Workspace is an isolated named environment owning a bin/ directory of
// symlinks into pool artifact directories. The "global" workspace always
// exists and cannot be removed.
type Workspace struct {
	Name string
}

// GlobalWorkspace is the name of the default workspace.
const GlobalWorkspace = "global"

// InstallLog is the result of one package's install attempt within a bulk
// operation. Per-package failures are data, not operation errors.
type InstallLog struct {
	Package    string
	Version    string
	Success    bool
	ExitCode   int
	Stdout     string
	Stderr     string
	NewInstall bool   // built fresh into the pool rather than reusing an entry
	Removed    bool   // the binding was removed rather than installed
	// Unreferenced marks a removal that left the pool entry with no
	// bindings in any workspace, making it eligible for gc.
	Unreferenced bool
	Err          string // failure outside the build itself (resolve, download, link)
}
