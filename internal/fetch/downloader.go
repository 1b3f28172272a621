// Package fetch provides the download collaborators: a Downloader for raw
// byte content over HTTP(S) and a Fetcher for registry manifest text.
// Both are small interfaces so tests can substitute deterministic fakes.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zjrosen/cask/internal/log"
)

// Downloader retrieves raw byte content from a URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// HTTPDownloader is the production Downloader backed by net/http.
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader creates a downloader with a sane default timeout.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

var _ Downloader = (*HTTPDownloader)(nil)

// Download fetches the URL and returns the response body.
// Non-2xx statuses are errors.
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	log.Debug(log.CatFetch, "Downloaded", "url", url, "bytes", len(body))
	return body, nil
}
