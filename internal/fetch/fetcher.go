package fetch

import (
	"context"
	"fmt"
	"os"

	"github.com/zjrosen/cask/internal/domain"
)

// Fetcher returns raw manifest text for a registry. Implementations must be
// side-effect-free on the registry and safe to retry.
type Fetcher interface {
	Fetch(ctx context.Context, reg domain.Registry) (string, error)
}

// ManifestFetcher is the production Fetcher: file registries are read from
// disk, remote registries go through the Downloader.
type ManifestFetcher struct {
	downloader Downloader
}

// NewManifestFetcher creates a fetcher over the given downloader.
func NewManifestFetcher(downloader Downloader) *ManifestFetcher {
	return &ManifestFetcher{downloader: downloader}
}

var _ Fetcher = (*ManifestFetcher)(nil)

// Fetch returns the manifest text for the registry.
func (f *ManifestFetcher) Fetch(ctx context.Context, reg domain.Registry) (string, error) {
	if reg.IsFile() {
		content, err := os.ReadFile(reg.FilePath()) //nolint:gosec // G304: registry path comes from the registry row
		if err != nil {
			return "", fmt.Errorf("read registry manifest %s: %w", reg.FilePath(), err)
		}
		return string(content), nil
	}

	content, err := f.downloader.Download(ctx, reg.URI)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
