// Package workspace manages workspace directories and the bin/ symlinks
// that expose pool artifacts, alongside the workspace rows in the store.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/log"
)

// Manager creates and removes workspaces and maintains their bin/ symlinks.
// The workspaces root is injected; nothing here reads global state.
type Manager struct {
	repo domain.WorkspaceRepository
	root string
}

// NewManager creates a workspace manager rooted at the given directory.
func NewManager(repo domain.WorkspaceRepository, root string) *Manager {
	return &Manager{repo: repo, root: root}
}

// Dir returns the directory of a workspace.
func (m *Manager) Dir(name string) string {
	return filepath.Join(m.root, name)
}

// BinDir returns the bin/ directory of a workspace.
func (m *Manager) BinDir(name string) string {
	return filepath.Join(m.root, name, "bin")
}

// EnsureGlobal makes sure the global workspace's directories exist. The row
// itself is seeded by the schema.
func (m *Manager) EnsureGlobal() error {
	return os.MkdirAll(m.BinDir(domain.GlobalWorkspace), 0700)
}

// Create records a new workspace and creates its directories.
func (m *Manager) Create(name string) error {
	if !domain.SafeName(name) {
		return &domain.InvalidNameError{Kind: "workspace name", Value: name}
	}
	if err := m.repo.Create(name); err != nil {
		return err
	}
	if err := os.MkdirAll(m.BinDir(name), 0700); err != nil {
		return fmt.Errorf("create workspace directory: %w", err)
	}
	log.Info(log.CatWorkspace, "Workspace created", "name", name)
	return nil
}

// Remove deletes a workspace's row, bindings, and directory. The global
// workspace cannot be removed.
func (m *Manager) Remove(name string) error {
	if err := m.repo.Delete(name); err != nil {
		return err
	}
	if err := os.RemoveAll(m.Dir(name)); err != nil {
		return fmt.Errorf("remove workspace directory: %w", err)
	}
	log.Info(log.CatWorkspace, "Workspace removed", "name", name)
	return nil
}

// List returns all workspaces.
func (m *Manager) List() ([]domain.Workspace, error) {
	return m.repo.List()
}

// Exists reports whether the workspace exists in the store.
func (m *Manager) Exists(name string) (bool, error) {
	return m.repo.Exists(name)
}

// Link creates a symlink in the workspace's bin/ for every artifact,
// pointing into the given pool directory. An existing link for the same
// basename is replaced, so rebinding a package to a new version is a
// link-over.
func (m *Manager) Link(name, poolDir string, artifacts []string) error {
	bin := m.BinDir(name)
	if err := os.MkdirAll(bin, 0700); err != nil {
		return fmt.Errorf("create bin directory: %w", err)
	}

	for _, artifact := range artifacts {
		target := filepath.Join(poolDir, artifact)
		link := filepath.Join(bin, filepath.Base(artifact))
		if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("replace symlink %s: %w", link, err)
		}
		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("create symlink %s: %w", link, err)
		}
		log.Debug(log.CatWorkspace, "Artifact linked", "workspace", name, "link", link, "target", target)
	}
	return nil
}

// Unlink removes the bin/ symlinks for the given artifacts. Links that are
// already gone are not an error.
func (m *Manager) Unlink(name string, artifacts []string) error {
	bin := m.BinDir(name)
	for _, artifact := range artifacts {
		link := filepath.Join(bin, filepath.Base(artifact))
		if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove symlink %s: %w", link, err)
		}
	}
	return nil
}

// Links returns the basenames currently linked in the workspace's bin/
// directory, sorted. A missing bin directory yields an empty list.
func (m *Manager) Links(name string) ([]string, error) {
	entries, err := os.ReadDir(m.BinDir(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	links := make([]string, 0, len(entries))
	for _, e := range entries {
		links = append(links, e.Name())
	}
	sort.Strings(links)
	return links, nil
}
