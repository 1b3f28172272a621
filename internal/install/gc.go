package install

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/log"
)

// GarbageCollect deletes every pool entry that no workspace binding
// references, one concurrent task per entry. A failure deleting one entry
// does not block the others; the first failure is returned after all tasks
// finish, alongside the entries that were removed.
func (o *Orchestrator) GarbageCollect(ctx context.Context) ([]domain.InstalledPackage, error) {
	_, span := o.tracer.Start(ctx, "install.gc")
	defer span.End()

	eligible, err := o.store.Installed().Unreferenced()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("eligible", len(eligible)))

	var (
		mu      sync.Mutex
		removed []domain.InstalledPackage
	)
	var g errgroup.Group
	if o.limit > 0 {
		g.SetLimit(o.limit)
	}
	for _, pkg := range eligible {
		g.Go(func() error {
			if err := o.pool.Remove(pkg.Name, pkg.Version); err != nil {
				log.ErrorErr(log.CatGC, "Failed to collect pool entry", err,
					"package", pkg.Name, "version", pkg.Version)
				return err
			}
			mu.Lock()
			removed = append(removed, pkg)
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()

	log.Info(log.CatGC, "Garbage collection finished", "eligible", len(eligible), "removed", len(removed))
	return removed, err
}
