package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/cask/internal/changeset"
	"github.com/zjrosen/cask/internal/config"
	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/fetch"
	"github.com/zjrosen/cask/internal/infrastructure/sqlite"
	"github.com/zjrosen/cask/internal/install"
	"github.com/zjrosen/cask/internal/log"
	"github.com/zjrosen/cask/internal/presentation"
	"github.com/zjrosen/cask/internal/registry"
	"github.com/zjrosen/cask/internal/tracing"
	"github.com/zjrosen/cask/internal/workspace"
)

// app bundles the wired components a command needs. Construction resolves
// paths from config and injects them explicitly; nothing reads globals.
type app struct {
	cfg        config.Config
	paths      config.Paths
	db         *sqlite.DB
	workspaces *workspace.Manager
	registries *registry.Service
	engine     *changeset.Engine
	orch       *install.Orchestrator
	tracing    *tracing.Provider
	cleanups   []func()
}

func newApp() (*app, error) {
	paths, err := cfg.Paths()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	a := &app{cfg: cfg, paths: paths}

	if cfg.Debug || os.Getenv("CASK_DEBUG") != "" {
		if err := os.MkdirAll(paths.Root, 0700); err == nil {
			if closeLog, logErr := log.Init(filepath.Join(paths.Root, "cask.log")); logErr == nil {
				a.cleanups = append(a.cleanups, closeLog)
				a.tailLog()
			}
		}
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.tracing = provider

	db, err := sqlite.NewDB(paths.DB)
	if err != nil {
		return nil, err
	}
	a.db = db

	a.workspaces = workspace.NewManager(db.Workspaces(), paths.Workspaces)
	if err := a.workspaces.EnsureGlobal(); err != nil {
		_ = db.Close()
		return nil, err
	}

	downloader := fetch.NewHTTPDownloader()
	a.registries = registry.NewService(db, fetch.NewManifestFetcher(downloader), cfg.RegistryRefreshInterval)
	a.engine = changeset.NewEngine(db.KnownPackages())

	pool := install.NewPool(db.Installed(), paths.Pool)
	a.orch = install.NewOrchestrator(db, pool, a.workspaces, downloader, install.ShellBuilder{}, cfg.MaxParallelInstalls)

	return a, nil
}

func (a *app) close() {
	if a.orch != nil {
		a.orch.Close()
	}
	if a.tracing != nil {
		_ = a.tracing.Shutdown(context.Background())
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	for _, fn := range a.cleanups {
		fn()
	}
}

// streamProgress mirrors per-package progress to stderr while a plan runs.
// The returned stop function ends the mirror and waits for it to exit.
func (a *app) streamProgress(ctx context.Context) func() {
	return a.orch.StreamProgress(ctx, os.Stderr)
}

// tailLog mirrors debug log entries to stderr for the life of the command.
func (a *app) tailLog() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cleanups = append(a.cleanups, cancel)

	listener := log.NewListener(ctx)
	if listener == nil {
		return
	}
	go func() {
		for {
			event, ok := listener.Next()
			if !ok {
				return
			}
			fmt.Fprint(os.Stderr, event.Payload)
		}
	}()
}

// workspaceName returns the active workspace and verifies it exists.
func (a *app) workspaceName() (string, error) {
	name := a.cfg.Workspace
	if name == "" {
		name = domain.GlobalWorkspace
	}
	exists, err := a.workspaces.Exists(name)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", &domain.NotFoundError{Kind: "workspace", Name: name}
	}
	return name, nil
}

// refreshRegistries fetches every due registry before resolution. A failed
// refresh degrades to stale data rather than blocking the operation.
func (a *app) refreshRegistries(ctx context.Context) {
	if err := a.registries.RefreshDue(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: registry refresh: %v\n", err)
	}
}

func (a *app) formatter() *presentation.Formatter {
	return presentation.NewFormatter(os.Stdout, jsonOutput)
}
