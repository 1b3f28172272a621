package registry

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/cask/internal/cachemanager"
	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/fetch"
	"github.com/zjrosen/cask/internal/log"
)

// Service owns registry lifecycle: initialize, refresh, and staleness.
type Service struct {
	registries domain.RegistryRepository
	known      domain.KnownPackageRepository
	fetcher    fetch.Fetcher
	manifests  *cachemanager.ReadThroughCache[string, string, domain.Registry]
	interval   time.Duration
	now        func() time.Time
}

// NewService creates a registry service. interval is how long remote
// manifests stay fresh; file registries are always re-read.
func NewService(store domain.Store, fetcher fetch.Fetcher, interval time.Duration) *Service {
	cache := cachemanager.NewInMemoryCacheManager[string, string](
		"manifests", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval,
	)
	s := &Service{
		registries: store.Registries(),
		known:      store.KnownPackages(),
		fetcher:    fetcher,
		interval:   interval,
		now:        time.Now,
	}
	s.manifests = cachemanager.NewReadThroughCache(cache, func(ctx context.Context, reg domain.Registry) (string, error) {
		return s.fetcher.Fetch(ctx, reg)
	})
	return s
}

// Initialize performs the first fetch for a new registry URI, assigns the
// name from the manifest, and persists the registry and its packages.
// Fails if a registry with the same name or URI already exists.
func (s *Service) Initialize(ctx context.Context, uri string) (domain.Registry, error) {
	reg := domain.Registry{URI: uri}

	manifest, err := s.fetchManifest(ctx, reg)
	if err != nil {
		return domain.Registry{}, err
	}

	if _, err := s.registries.FindByName(manifest.Name); err == nil {
		return domain.Registry{}, &domain.AlreadyExistsError{Kind: "registry", Name: manifest.Name}
	}

	now := s.now()
	reg.Name = manifest.Name
	reg.LastFetched = &now
	if err := s.registries.Create(reg); err != nil {
		return domain.Registry{}, err
	}

	if err := s.known.SyncRegistry(manifest.Name, manifest.KnownPackages()); err != nil {
		return domain.Registry{}, err
	}

	log.Info(log.CatRegistry, "Registry initialized", "name", manifest.Name, "uri", uri, "packages", len(manifest.Packages))
	return reg, nil
}

// Fetch refreshes a registry: download and parse the manifest, reconcile
// the known-package table, and stamp the fetch time. No rows are written
// when validation or collision checks fail.
func (s *Service) Fetch(ctx context.Context, reg domain.Registry) (domain.Registry, error) {
	manifest, err := s.fetchManifest(ctx, reg)
	if err != nil {
		return domain.Registry{}, err
	}

	if reg.Name != "" && manifest.Name != reg.Name {
		return domain.Registry{}, fmt.Errorf("registry %q served a manifest named %q", reg.Name, manifest.Name)
	}

	if err := s.known.SyncRegistry(manifest.Name, manifest.KnownPackages()); err != nil {
		return domain.Registry{}, err
	}

	now := s.now()
	reg.Name = manifest.Name
	reg.LastFetched = &now
	if err := s.registries.Update(reg); err != nil {
		return domain.Registry{}, err
	}

	log.Debug(log.CatRegistry, "Registry refreshed", "name", reg.Name, "packages", len(manifest.Packages))
	return reg, nil
}

// ShouldUpdate reports whether the registry is due for a refresh.
func (s *Service) ShouldUpdate(reg domain.Registry) bool {
	return reg.ShouldUpdate(s.interval, s.now())
}

// RefreshDue fetches every registry that is due, one concurrent task per
// registry. A failing registry does not stop the others; the first error
// is reported after all tasks finish.
func (s *Service) RefreshDue(ctx context.Context) error {
	registries, err := s.registries.List()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, reg := range registries {
		if !s.ShouldUpdate(reg) {
			continue
		}
		g.Go(func() error {
			if _, err := s.Fetch(ctx, reg); err != nil {
				log.ErrorErr(log.CatRegistry, "Registry refresh failed", err, "uri", reg.URI)
				return fmt.Errorf("refresh registry %s: %w", reg.URI, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// fetchManifest retrieves and validates a registry's manifest. Remote
// manifests are served from the read-through cache inside the freshness
// window; file manifests always bypass it.
func (s *Service) fetchManifest(ctx context.Context, reg domain.Registry) (Manifest, error) {
	text, err := s.manifests.Get(ctx, reg.URI, reg, s.interval, reg.IsFile())
	if err != nil {
		return Manifest{}, err
	}
	return ParseManifest(text)
}
