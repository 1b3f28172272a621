// Package presentation converts domain entities into output DTOs and
// formats them as text or JSON for the CLI.
package presentation

import (
	"time"

	"github.com/zjrosen/cask/internal/domain"
)

// PackageDTO represents a known package version for presentation.
type PackageDTO struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Homepage    string `json:"homepage,omitempty"`
	License     string `json:"license,omitempty"`
	Registry    string `json:"registry"`
	Display     string `json:"display"`
}

// BindingDTO represents a workspace's package binding for presentation.
type BindingDTO struct {
	Workspace string `json:"workspace"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Requested string `json:"requested"`
	Display   string `json:"display"`
}

// RegistryDTO represents a registry for presentation.
type RegistryDTO struct {
	Name        string     `json:"name"`
	URI         string     `json:"uri"`
	LastFetched *time.Time `json:"last_fetched,omitempty"`
}

// WorkspaceDTO represents a workspace for presentation.
type WorkspaceDTO struct {
	Name string `json:"name"`
}

// InstallLogDTO represents one package's bulk-operation result.
type InstallLogDTO struct {
	Package    string `json:"package"`
	Version    string `json:"version"`
	Success    bool   `json:"success"`
	NewInstall bool   `json:"new_install"`
	Removed    bool   `json:"removed,omitempty"`
	// Unreferenced reports that a removal left the pool entry eligible
	// for gc.
	Unreferenced bool   `json:"unreferenced,omitempty"`
	ExitCode     int    `json:"exit_code,omitempty"`
	Stdout       string `json:"stdout,omitempty"`
	Stderr       string `json:"stderr,omitempty"`
	Error        string `json:"error,omitempty"`
}

// FromKnownPackage converts a known package to its DTO.
func FromKnownPackage(p domain.KnownPackage) PackageDTO {
	return PackageDTO{
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		Homepage:    p.Homepage,
		License:     p.License,
		Registry:    p.Registry,
		Display:     p.Display(),
	}
}

// FromKnownPackages converts a slice of known packages to DTOs.
func FromKnownPackages(pkgs []domain.KnownPackage) []PackageDTO {
	dtos := make([]PackageDTO, len(pkgs))
	for i, p := range pkgs {
		dtos[i] = FromKnownPackage(p)
	}
	return dtos
}

// FromBinding converts a workspace binding to its DTO.
func FromBinding(b domain.WorkspacePackage) BindingDTO {
	return BindingDTO{
		Workspace: b.Workspace,
		Name:      b.Name,
		Version:   b.Version,
		Requested: b.Requested.String(),
		Display:   b.Display(),
	}
}

// FromBindings converts a slice of bindings to DTOs.
func FromBindings(bindings []domain.WorkspacePackage) []BindingDTO {
	dtos := make([]BindingDTO, len(bindings))
	for i, b := range bindings {
		dtos[i] = FromBinding(b)
	}
	return dtos
}

// FromRegistries converts a slice of registries to DTOs.
func FromRegistries(regs []domain.Registry) []RegistryDTO {
	dtos := make([]RegistryDTO, len(regs))
	for i, r := range regs {
		dtos[i] = RegistryDTO{Name: r.Name, URI: r.URI, LastFetched: r.LastFetched}
	}
	return dtos
}

// FromWorkspaces converts a slice of workspaces to DTOs.
func FromWorkspaces(workspaces []domain.Workspace) []WorkspaceDTO {
	dtos := make([]WorkspaceDTO, len(workspaces))
	for i, w := range workspaces {
		dtos[i] = WorkspaceDTO{Name: w.Name}
	}
	return dtos
}

// FromInstallLogs converts a slice of install logs to DTOs.
func FromInstallLogs(logs []domain.InstallLog) []InstallLogDTO {
	dtos := make([]InstallLogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = InstallLogDTO{
			Package:    l.Package,
			Version:    l.Version,
			Success:      l.Success,
			NewInstall:   l.NewInstall,
			Removed:      l.Removed,
			Unreferenced: l.Unreferenced,
			ExitCode:     l.ExitCode,
			Stdout:       l.Stdout,
			Stderr:       l.Stderr,
			Error:        l.Err,
		}
	}
	return dtos
}
