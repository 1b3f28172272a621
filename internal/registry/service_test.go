package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/infrastructure/sqlite"
)

// fakeFetcher serves manifest text by URI and counts fetches.
type fakeFetcher struct {
	manifests map[string]string
	calls     map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{manifests: map[string]string{}, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, reg domain.Registry) (string, error) {
	f.calls[reg.URI]++
	text, ok := f.manifests[reg.URI]
	if !ok {
		return "", errors.New("fetch failed: " + reg.URI)
	}
	return text, nil
}

func newTestService(t *testing.T) (*Service, *fakeFetcher, domain.Store) {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "cask.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fetcher := newFakeFetcher()
	return NewService(db, fetcher, time.Hour), fetcher, db
}

const coreManifest = `
schema_version: 1
name: core
packages:
  - name: alpha
    version: 1.0.0
    source: file:///src/alpha-1.0.0.tar.gz
    build: make install
    artifacts: [bin/alpha]
  - name: alpha
    version: 1.1.0
    source: file:///src/alpha-1.1.0.tar.gz
    build: make install
    artifacts: [bin/alpha]
  - name: beta
    version: 0.2.0
    source: file:///src/beta-0.2.0.tar.gz
    build: make install
    artifacts: [bin/beta]
`

func TestService_Initialize(t *testing.T) {
	ctx := context.Background()
	svc, fetcher, store := newTestService(t)
	fetcher.manifests["file:///core.yaml"] = coreManifest

	reg, err := svc.Initialize(ctx, "file:///core.yaml")
	require.NoError(t, err)
	require.Equal(t, "core", reg.Name)
	require.NotNil(t, reg.LastFetched)

	pkgs, err := store.KnownPackages().List()
	require.NoError(t, err)
	require.Len(t, pkgs, 3)

	found, err := store.Registries().FindByName("core")
	require.NoError(t, err)
	require.Equal(t, "file:///core.yaml", found.URI)
}

func TestService_Initialize_DuplicateNameFails(t *testing.T) {
	ctx := context.Background()
	svc, fetcher, _ := newTestService(t)
	fetcher.manifests["file:///a.yaml"] = coreManifest
	fetcher.manifests["file:///b.yaml"] = coreManifest

	_, err := svc.Initialize(ctx, "file:///a.yaml")
	require.NoError(t, err)

	_, err = svc.Initialize(ctx, "file:///b.yaml")
	var exists *domain.AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	require.Equal(t, "core", exists.Name)
}

func TestService_Initialize_FetchFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService(t)

	_, err := svc.Initialize(ctx, "file:///missing.yaml")
	require.Error(t, err)

	registries, err := store.Registries().List()
	require.NoError(t, err)
	require.Empty(t, registries)
}

func TestService_Fetch_UnchangedManifestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, fetcher, store := newTestService(t)
	fetcher.manifests["file:///core.yaml"] = coreManifest

	reg, err := svc.Initialize(ctx, "file:///core.yaml")
	require.NoError(t, err)

	before, err := store.KnownPackages().List()
	require.NoError(t, err)

	_, err = svc.Fetch(ctx, reg)
	require.NoError(t, err)

	after, err := store.KnownPackages().List()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestService_Fetch_RemovesVanishedVersions(t *testing.T) {
	ctx := context.Background()
	svc, fetcher, store := newTestService(t)
	fetcher.manifests["file:///core.yaml"] = coreManifest

	reg, err := svc.Initialize(ctx, "file:///core.yaml")
	require.NoError(t, err)

	fetcher.manifests["file:///core.yaml"] = `
schema_version: 1
name: core
packages:
  - name: alpha
    version: 1.1.0
    source: file:///src/alpha-1.1.0.tar.gz
    build: make install
    artifacts: [bin/alpha]
`
	_, err = svc.Fetch(ctx, reg)
	require.NoError(t, err)

	pkgs, err := store.KnownPackages().List()
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	require.Equal(t, "alpha", pkgs[0].Name)
	require.Equal(t, "1.1.0", pkgs[0].Version)
}

func TestService_Fetch_CollisionLeavesBothRegistriesUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, fetcher, store := newTestService(t)
	fetcher.manifests["file:///core.yaml"] = coreManifest
	fetcher.manifests["file:///extra.yaml"] = `
schema_version: 1
name: extra
packages:
  - name: gamma
    version: 2.0.0
    source: file:///src/gamma-2.0.0.tar.gz
    build: make install
    artifacts: [bin/gamma]
`

	_, err := svc.Initialize(ctx, "file:///core.yaml")
	require.NoError(t, err)
	extra, err := svc.Initialize(ctx, "file:///extra.yaml")
	require.NoError(t, err)

	before, err := store.KnownPackages().List()
	require.NoError(t, err)

	// extra now claims a (name, version) owned by core
	fetcher.manifests["file:///extra.yaml"] = `
schema_version: 1
name: extra
packages:
  - name: alpha
    version: 1.0.0
    source: file:///src/alpha-1.0.0.tar.gz
    build: make install
    artifacts: [bin/alpha]
`
	_, err = svc.Fetch(ctx, extra)
	var collision *domain.CollisionError
	require.ErrorAs(t, err, &collision)
	require.Equal(t, "alpha", collision.Package)
	require.Equal(t, "core", collision.OwnedBy)

	after, err := store.KnownPackages().List()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestService_Fetch_RejectsRenamedManifest(t *testing.T) {
	ctx := context.Background()
	svc, fetcher, _ := newTestService(t)
	fetcher.manifests["file:///core.yaml"] = coreManifest

	reg, err := svc.Initialize(ctx, "file:///core.yaml")
	require.NoError(t, err)

	fetcher.manifests["file:///core.yaml"] = "schema_version: 1\nname: renamed\n"
	_, err = svc.Fetch(ctx, reg)
	require.ErrorContains(t, err, "renamed")
}

func TestService_FileRegistriesBypassManifestCache(t *testing.T) {
	ctx := context.Background()
	svc, fetcher, _ := newTestService(t)
	fetcher.manifests["file:///core.yaml"] = coreManifest

	reg, err := svc.Initialize(ctx, "file:///core.yaml")
	require.NoError(t, err)
	_, err = svc.Fetch(ctx, reg)
	require.NoError(t, err)

	require.Equal(t, 2, fetcher.calls["file:///core.yaml"])
}

func TestService_RefreshDue(t *testing.T) {
	ctx := context.Background()
	svc, fetcher, store := newTestService(t)
	fetcher.manifests["file:///core.yaml"] = coreManifest

	reg, err := svc.Initialize(ctx, "file:///core.yaml")
	require.NoError(t, err)

	// stamp the registry stale so the next sweep refreshes it
	stale := time.Now().Add(-2 * time.Hour)
	reg.LastFetched = &stale
	require.NoError(t, store.Registries().Update(reg))

	require.NoError(t, svc.RefreshDue(ctx))

	refreshed, err := store.Registries().FindByName("core")
	require.NoError(t, err)
	require.True(t, refreshed.LastFetched.After(stale))
}

func TestService_RefreshDue_FailureDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	svc, fetcher, store := newTestService(t)
	fetcher.manifests["file:///core.yaml"] = coreManifest
	fetcher.manifests["file:///extra.yaml"] = "schema_version: 1\nname: extra\n"

	_, err := svc.Initialize(ctx, "file:///core.yaml")
	require.NoError(t, err)
	_, err = svc.Initialize(ctx, "file:///extra.yaml")
	require.NoError(t, err)

	// extra's manifest disappears; core keeps serving
	delete(fetcher.manifests, "file:///extra.yaml")

	err = svc.RefreshDue(ctx)
	require.Error(t, err)
	require.ErrorContains(t, err, "file:///extra.yaml")

	refreshed, err := store.Registries().FindByName("core")
	require.NoError(t, err)
	require.NotNil(t, refreshed.LastFetched)
}
