package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/cask/internal/changeset"
	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/fetch"
	"github.com/zjrosen/cask/internal/log"
	"github.com/zjrosen/cask/internal/pubsub"
	"github.com/zjrosen/cask/internal/workspace"
)

// Progress stages published while a plan executes.
const (
	StageResolved = "resolved"
	StageBuilding = "building"
	StageBound    = "bound"
	StageRemoved  = "removed"
	StageFailed   = "failed"
)

// ProgressEvent reports one package's progress through a bulk operation.
type ProgressEvent struct {
	Workspace string
	Package   string
	Version   string
	Stage     string
}

// Orchestrator executes change-set plans. Each package gets its own
// concurrent task; a package failing to build is recorded in its log and
// never aborts its siblings.
type Orchestrator struct {
	store      domain.Store
	pool       *Pool
	workspaces *workspace.Manager
	downloader fetch.Downloader
	builder    Builder
	events     *pubsub.Broker[ProgressEvent]
	tracer     trace.Tracer
	// limit bounds concurrent package tasks; 0 means one task per package.
	limit int
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(
	store domain.Store,
	pool *Pool,
	workspaces *workspace.Manager,
	downloader fetch.Downloader,
	builder Builder,
	limit int,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		pool:       pool,
		workspaces: workspaces,
		downloader: downloader,
		builder:    builder,
		events:     pubsub.NewBroker[ProgressEvent](),
		tracer:     otel.Tracer("cask/install"),
		limit:      limit,
	}
}

// Events exposes the progress event stream.
func (o *Orchestrator) Events() *pubsub.Broker[ProgressEvent] { return o.events }

// StreamProgress writes one line per progress event to w until the returned
// stop function is called. Bulk commands use it to surface per-package
// stages while a plan executes.
func (o *Orchestrator) StreamProgress(ctx context.Context, w io.Writer) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	listener := pubsub.NewContinuousListener(ctx, o.events)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			event, ok := listener.Next()
			if !ok {
				return
			}
			p := event.Payload
			fmt.Fprintf(w, "%s %s@%s\n", p.Stage, p.Package, p.Version)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Close shuts down the progress stream.
func (o *Orchestrator) Close() { o.events.Close() }

type resolvedChange struct {
	change changeset.Change
	pkg    domain.KnownPackage
}

// Execute runs a plan against its workspace and returns one log per
// package. Version resolution happens up front: an unresolvable name fails
// the whole operation before any task starts. After that, per-package
// failures are data in the returned logs, and the error return is reserved
// for orchestration faults.
func (o *Orchestrator) Execute(ctx context.Context, plan changeset.Plan) ([]domain.InstallLog, error) {
	ctx, span := o.tracer.Start(ctx, "install.execute", trace.WithAttributes(
		attribute.String("workspace", plan.Workspace),
		attribute.Int("installs", len(plan.Installs())),
		attribute.Int("removals", len(plan.Removed)),
	))
	defer span.End()

	installs := plan.Installs()
	resolved := make([]resolvedChange, len(installs))
	for i, change := range installs {
		pkg, err := o.resolve(change)
		if err != nil {
			return nil, err
		}
		resolved[i] = resolvedChange{change: change, pkg: pkg}
		o.events.Publish(pubsub.UpdatedEvent, ProgressEvent{
			Workspace: plan.Workspace, Package: pkg.Name, Version: pkg.Version, Stage: StageResolved,
		})
	}

	logs := make([]domain.InstallLog, len(resolved)+len(plan.Removed))

	var g errgroup.Group
	if o.limit > 0 {
		g.SetLimit(o.limit)
	}
	for i, rc := range resolved {
		g.Go(func() error {
			logs[i] = o.installOne(ctx, plan.Workspace, rc)
			return nil
		})
	}
	for i, binding := range plan.Removed {
		g.Go(func() error {
			logs[len(resolved)+i] = o.removeOne(ctx, binding)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return logs, nil
}

// resolve picks the version a change installs: the planned target version
// when the plan fixed one, otherwise the highest known version matching the
// change's spec.
func (o *Orchestrator) resolve(change changeset.Change) (domain.KnownPackage, error) {
	known := o.store.KnownPackages()
	if change.Version != "" {
		return known.Find(change.Name, change.Version)
	}

	versions, err := known.FindByName(change.Name)
	if err != nil {
		return domain.KnownPackage{}, err
	}
	for _, pkg := range versions {
		if change.Spec.Matches(pkg.Version) {
			return pkg, nil
		}
	}
	return domain.KnownPackage{}, &domain.NotFoundError{
		Kind: "package",
		Name: change.Name + "@" + change.Spec.String(),
	}
}

func (o *Orchestrator) installOne(ctx context.Context, ws string, rc resolvedChange) domain.InstallLog {
	pkg := rc.pkg
	ctx, span := o.tracer.Start(ctx, "install.package", trace.WithAttributes(
		attribute.String("package", pkg.Name),
		attribute.String("version", pkg.Version),
	))
	defer span.End()

	entry := domain.InstallLog{Package: pkg.Name, Version: pkg.Version}

	// A cancelled operation stops scheduling work; tasks already staging
	// run to completion.
	if err := ctx.Err(); err != nil {
		return o.failed(ws, entry, err)
	}

	o.events.Publish(pubsub.UpdatedEvent, ProgressEvent{
		Workspace: ws, Package: pkg.Name, Version: pkg.Version, Stage: StageBuilding,
	})

	var result BuildResult
	poolDir, built, err := o.pool.Ensure(pkg.Name, pkg.Version, func(destDir string) error {
		var stageErr error
		result, stageErr = o.stage(ctx, pkg, destDir)
		return stageErr
	})
	entry.Stdout = result.Stdout
	entry.Stderr = result.Stderr
	if err != nil {
		return o.failed(ws, entry, err)
	}
	entry.NewInstall = built

	if err := o.bind(ws, rc, poolDir); err != nil {
		return o.failed(ws, entry, err)
	}

	entry.Success = true
	o.events.Publish(pubsub.UpdatedEvent, ProgressEvent{
		Workspace: ws, Package: pkg.Name, Version: pkg.Version, Stage: StageBound,
	})
	log.Info(log.CatInstall, "Package bound",
		"workspace", ws, "package", pkg.Name, "version", pkg.Version, "new_install", built)
	return entry
}

// stage populates a pool directory: download the source (meta-packages
// have none), run the build command in a throwaway work dir, and copy the
// declared artifacts over. The work dir is removed on every path.
func (o *Orchestrator) stage(ctx context.Context, pkg domain.KnownPackage, destDir string) (BuildResult, error) {
	workDir := filepath.Join(os.TempDir(), "cask-build-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0700); err != nil {
		return BuildResult{}, fmt.Errorf("create build directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	if pkg.Source != "" {
		data, err := o.downloader.Download(ctx, pkg.Source)
		if err != nil {
			return BuildResult{}, err
		}
		name := path.Base(pkg.Source)
		if err := os.WriteFile(filepath.Join(workDir, name), data, 0600); err != nil {
			return BuildResult{}, fmt.Errorf("write source archive: %w", err)
		}
	}

	var result BuildResult
	if pkg.Build != "" {
		var err error
		result, err = o.builder.Build(ctx, workDir, pkg.Build)
		if err != nil {
			return result, err
		}
		if result.ExitCode != 0 {
			return result, &domain.BuildError{
				Package:  pkg.Name,
				Version:  pkg.Version,
				ExitCode: result.ExitCode,
				Stdout:   result.Stdout,
				Stderr:   result.Stderr,
			}
		}
	}

	return result, copyArtifacts(workDir, destDir, pkg.Artifacts)
}

// bind links the pool artifacts into the workspace and writes the binding.
// For an update, the replaced version's stale links are removed only after
// the new version is linked, so a failed update never leaves the workspace
// without a usable binary.
func (o *Orchestrator) bind(ws string, rc resolvedChange, poolDir string) error {
	pkg := rc.pkg
	if err := o.workspaces.Link(ws, poolDir, pkg.Artifacts); err != nil {
		return err
	}

	if prev := rc.change.Previous; prev != nil && prev.Version != pkg.Version {
		if stale := o.staleArtifacts(prev, pkg.Artifacts); len(stale) > 0 {
			if err := o.workspaces.Unlink(ws, stale); err != nil {
				return err
			}
		}
	}

	return o.store.Workspaces().SaveBinding(domain.WorkspacePackage{
		Workspace: ws,
		Name:      pkg.Name,
		Version:   pkg.Version,
		Requested: rc.change.Spec,
	})
}

// staleArtifacts returns the replaced version's artifacts whose link names
// are not reused by the new version. Links that share a basename were
// already re-pointed by Link and must not be removed.
func (o *Orchestrator) staleArtifacts(prev *domain.WorkspacePackage, current []string) []string {
	old, err := o.store.KnownPackages().Find(prev.Name, prev.Version)
	if err != nil {
		return nil
	}

	kept := make(map[string]bool, len(current))
	for _, a := range current {
		kept[filepath.Base(a)] = true
	}

	var stale []string
	for _, a := range old.Artifacts {
		if !kept[filepath.Base(a)] {
			stale = append(stale, a)
		}
	}
	return stale
}

func (o *Orchestrator) removeOne(ctx context.Context, binding domain.WorkspacePackage) domain.InstallLog {
	_, span := o.tracer.Start(ctx, "install.remove", trace.WithAttributes(
		attribute.String("package", binding.Name),
		attribute.String("version", binding.Version),
	))
	defer span.End()

	entry := domain.InstallLog{Package: binding.Name, Version: binding.Version, Removed: true}

	if err := ctx.Err(); err != nil {
		return o.failed(binding.Workspace, entry, err)
	}

	if pkg, err := o.store.KnownPackages().Find(binding.Name, binding.Version); err == nil {
		if err := o.workspaces.Unlink(binding.Workspace, pkg.Artifacts); err != nil {
			return o.failed(binding.Workspace, entry, err)
		}
	}

	if err := o.store.Workspaces().DeleteBinding(binding.Workspace, binding.Name); err != nil {
		return o.failed(binding.Workspace, entry, err)
	}

	if refs, err := o.store.Workspaces().CountRefs(binding.Name, binding.Version); err == nil {
		entry.Unreferenced = refs == 0
	}

	entry.Success = true
	o.events.Publish(pubsub.DeletedEvent, ProgressEvent{
		Workspace: binding.Workspace, Package: binding.Name, Version: binding.Version, Stage: StageRemoved,
	})
	log.Info(log.CatInstall, "Package removed",
		"workspace", binding.Workspace, "package", binding.Name, "version", binding.Version)
	return entry
}

// failed finalizes a log entry for a per-package failure. Build failures
// keep their exit code and captured output; everything else lands in Err.
func (o *Orchestrator) failed(ws string, entry domain.InstallLog, err error) domain.InstallLog {
	var buildErr *domain.BuildError
	if errors.As(err, &buildErr) {
		entry.ExitCode = buildErr.ExitCode
		entry.Stdout = buildErr.Stdout
		entry.Stderr = buildErr.Stderr
	} else {
		entry.Err = err.Error()
	}

	o.events.Publish(pubsub.UpdatedEvent, ProgressEvent{
		Workspace: ws, Package: entry.Package, Version: entry.Version, Stage: StageFailed,
	})
	log.Warn(log.CatInstall, "Package task failed",
		"workspace", ws, "package", entry.Package, "version", entry.Version,
		"exit_code", entry.ExitCode, "error", strings.TrimSpace(entry.Err))
	return entry
}
