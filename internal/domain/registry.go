package domain

import (
	"strings"
	"time"
)

// Registry is a named source of package manifests located at a file path or
// HTTP(S) URL. The name is assigned from the manifest on first successful
// fetch; until then the registry is known only by its URI.
type Registry struct {
	Name        string // empty until initialized
	URI         string
	LastFetched *time.Time
}

// IsFile reports whether the registry URI is a local file path.
// Anything that is not an http(s) URL is treated as a file path.
func (r Registry) IsFile() bool {
	return !strings.HasPrefix(r.URI, "http://") && !strings.HasPrefix(r.URI, "https://")
}

// FilePath returns the local path for a file registry, stripping an
// optional file:// scheme.
func (r Registry) FilePath() string {
	return strings.TrimPrefix(r.URI, "file://")
}

// ShouldUpdate reports whether the registry is due for a refresh.
// File registries are always stale; remote registries are stale once the
// refresh interval has elapsed since the last fetch, or if never fetched.
func (r Registry) ShouldUpdate(interval time.Duration, now time.Time) bool {
	if r.IsFile() {
		return true
	}
	if r.LastFetched == nil {
		return true
	}
	return now.Sub(*r.LastFetched) >= interval
}
