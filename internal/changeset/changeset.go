// Package changeset turns user package requests and a workspace's current
// bindings into a plan of additions, changes, and removals, detecting
// conflicting version requests before any install work starts.
package changeset

import (
	"sort"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/log"
	"github.com/zjrosen/cask/internal/version"
)

// Change is one planned install or update for a package name.
type Change struct {
	Name string
	// Spec is the effective constraint the install resolves against.
	Spec version.Spec
	// Version is the resolved target version. It is set by update planning
	// and left empty for installs, which resolve at execution time.
	Version string
	// Previous is the binding being replaced; nil for additions.
	Previous *domain.WorkspacePackage
}

// Plan is the computed diff between requests and current bindings.
type Plan struct {
	Workspace string
	Added     []Change
	Changed   []Change
	Removed   []domain.WorkspacePackage
}

// Empty reports whether the plan contains no work.
func (p Plan) Empty() bool {
	return len(p.Added) == 0 && len(p.Changed) == 0 && len(p.Removed) == 0
}

// Installs returns all changes that result in an install, additions first.
func (p Plan) Installs() []Change {
	out := make([]Change, 0, len(p.Added)+len(p.Changed))
	out = append(out, p.Added...)
	out = append(out, p.Changed...)
	return out
}

// Engine computes change-set plans.
type Engine struct {
	known domain.KnownPackageRepository
}

// NewEngine creates a change-set engine over the known-package table.
func NewEngine(known domain.KnownPackageRepository) *Engine {
	return &Engine{known: known}
}

// Install plans an install of the given requests into a workspace with the
// given current bindings. Duplicate names have their specs merged into one
// effective constraint; a request for an already-bound name must be
// compatible with that binding's requested spec. Every conflicting name is
// reported at once via ConflictsError.
func (e *Engine) Install(workspace string, requests []version.Request, bound []domain.WorkspacePackage) (Plan, error) {
	plan := Plan{Workspace: workspace}
	conflicts := domain.Conflicts{}

	names, specsByName := groupRequests(requests)
	bindings := indexBindings(bound)

	for _, name := range names {
		specs := specsByName[name]
		merged, ok := version.MergeSpecs(specs)
		if !ok {
			conflicts.Add(name, specs)
			continue
		}

		binding, isBound := bindings[name]
		if !isBound {
			plan.Added = append(plan.Added, Change{Name: name, Spec: merged})
			continue
		}

		// A new request is checked against the current binding only, not
		// against requests that produced earlier bindings.
		if !merged.IsCompatible(binding.Requested) {
			conflicts.Add(name, []version.Spec{binding.Requested, merged})
			continue
		}
		prev := binding
		plan.Changed = append(plan.Changed, Change{Name: name, Spec: merged, Previous: &prev})
	}

	if len(conflicts) > 0 {
		return Plan{}, &domain.ConflictsError{Conflicts: conflicts}
	}

	log.Debug(log.CatResolve, "Install plan computed",
		"workspace", workspace, "added", len(plan.Added), "changed", len(plan.Changed))
	return plan, nil
}

// Update plans an update of every bound package in the workspace. A package
// is included only when the latest known version of its name differs from
// the bound version; packages with nothing newer, or whose name is no
// longer known, are silently excluded.
func (e *Engine) Update(workspace string, bound []domain.WorkspacePackage) (Plan, error) {
	plan := Plan{Workspace: workspace}

	for _, binding := range bound {
		known, err := e.known.FindByName(binding.Name)
		if err != nil {
			return Plan{}, err
		}
		if len(known) == 0 {
			continue
		}
		latest := known[0].Version
		if latest == binding.Version {
			continue
		}
		prev := binding
		plan.Changed = append(plan.Changed, Change{
			Name:     binding.Name,
			Spec:     version.Any(),
			Version:  latest,
			Previous: &prev,
		})
	}

	log.Debug(log.CatResolve, "Update plan computed", "workspace", workspace, "changed", len(plan.Changed))
	return plan, nil
}

// Remove plans a removal of the named packages. Every name must currently
// be bound in the workspace; the first unbound name fails the whole plan
// before anything is removed.
func (e *Engine) Remove(workspace string, names []string, bound []domain.WorkspacePackage) (Plan, error) {
	plan := Plan{Workspace: workspace}
	bindings := indexBindings(bound)

	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		binding, ok := bindings[name]
		if !ok {
			return Plan{}, &domain.NotFoundError{Kind: "package", Name: name}
		}
		plan.Removed = append(plan.Removed, binding)
	}

	return plan, nil
}

// groupRequests collects specs per package name; names come back sorted so
// plan output is stable.
func groupRequests(requests []version.Request) ([]string, map[string][]version.Spec) {
	var names []string
	specs := map[string][]version.Spec{}
	for _, req := range requests {
		if _, ok := specs[req.Name]; !ok {
			names = append(names, req.Name)
		}
		specs[req.Name] = append(specs[req.Name], req.Spec)
	}
	sort.Strings(names)
	return names, specs
}

func indexBindings(bound []domain.WorkspacePackage) map[string]domain.WorkspacePackage {
	out := make(map[string]domain.WorkspacePackage, len(bound))
	for _, b := range bound {
		out[b.Name] = b
	}
	return out
}
