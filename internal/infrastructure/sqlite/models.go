package sqlite

import (
	"encoding/json"
	"time"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/version"
)

// registryModel maps the registries table. Name and last_fetched_at are
// NULL until the first successful fetch assigns them.
type registryModel struct {
	URI           string
	Name          *string
	LastFetchedAt *int64 // Unix timestamp, nullable
}

func toRegistryModel(r domain.Registry) registryModel {
	m := registryModel{URI: r.URI}
	if r.Name != "" {
		name := r.Name
		m.Name = &name
	}
	if r.LastFetched != nil {
		ts := r.LastFetched.Unix()
		m.LastFetchedAt = &ts
	}
	return m
}

func (m registryModel) toDomain() domain.Registry {
	r := domain.Registry{URI: m.URI}
	if m.Name != nil {
		r.Name = *m.Name
	}
	if m.LastFetchedAt != nil {
		t := time.Unix(*m.LastFetchedAt, 0)
		r.LastFetched = &t
	}
	return r
}

// knownPackageModel maps the known_packages table. Artifacts are stored as
// a JSON array of relative paths.
type knownPackageModel struct {
	Name        string
	Version     string
	Description string
	Homepage    string
	License     string
	Source      string
	Build       string
	Artifacts   string
	Registry    string
}

func toKnownPackageModel(p domain.KnownPackage) (knownPackageModel, error) {
	artifacts := p.Artifacts
	if artifacts == nil {
		artifacts = []string{}
	}
	encoded, err := json.Marshal(artifacts)
	if err != nil {
		return knownPackageModel{}, err
	}
	return knownPackageModel{
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		Homepage:    p.Homepage,
		License:     p.License,
		Source:      p.Source,
		Build:       p.Build,
		Artifacts:   string(encoded),
		Registry:    p.Registry,
	}, nil
}

func (m knownPackageModel) toDomain() (domain.KnownPackage, error) {
	var artifacts []string
	if err := json.Unmarshal([]byte(m.Artifacts), &artifacts); err != nil {
		return domain.KnownPackage{}, err
	}
	if len(artifacts) == 0 {
		artifacts = nil
	}
	return domain.KnownPackage{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Homepage:    m.Homepage,
		License:     m.License,
		Source:      m.Source,
		Build:       m.Build,
		Artifacts:   artifacts,
		Registry:    m.Registry,
	}, nil
}

// workspacePackageModel maps the workspace_packages table. The requested
// spec is stored in request syntax ("*", "~prefix", exact).
type workspacePackageModel struct {
	Workspace string
	Name      string
	Version   string
	Requested string
}

func toWorkspacePackageModel(p domain.WorkspacePackage) workspacePackageModel {
	return workspacePackageModel{
		Workspace: p.Workspace,
		Name:      p.Name,
		Version:   p.Version,
		Requested: p.Requested.String(),
	}
}

func (m workspacePackageModel) toDomain() domain.WorkspacePackage {
	return domain.WorkspacePackage{
		Workspace: m.Workspace,
		Name:      m.Name,
		Version:   m.Version,
		Requested: version.ParseSpec(m.Requested),
	}
}
