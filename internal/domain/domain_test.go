package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cask/internal/version"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"ripgrep", true},
		{"rip-grep_2.0", true},
		{"1.0.0-alpha2", true},
		{"", false},
		{"a b", false},
		{"a/b", false},
		{"a@1", false},
		{"../escape", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.want, SafeName(tt.input))
		})
	}
}

func TestRegistry_IsFile(t *testing.T) {
	require.True(t, Registry{URI: "/tmp/registry.yaml"}.IsFile())
	require.True(t, Registry{URI: "file:///tmp/registry.yaml"}.IsFile())
	require.False(t, Registry{URI: "http://example.com/registry.yaml"}.IsFile())
	require.False(t, Registry{URI: "https://example.com/registry.yaml"}.IsFile())
}

func TestRegistry_FilePath(t *testing.T) {
	require.Equal(t, "/tmp/r.yaml", Registry{URI: "file:///tmp/r.yaml"}.FilePath())
	require.Equal(t, "/tmp/r.yaml", Registry{URI: "/tmp/r.yaml"}.FilePath())
}

func TestRegistry_ShouldUpdate(t *testing.T) {
	now := time.Now()
	recent := now.Add(-time.Minute)
	stale := now.Add(-2 * time.Hour)
	interval := time.Hour

	// File registries are always stale.
	require.True(t, Registry{URI: "/tmp/r.yaml", LastFetched: &recent}.ShouldUpdate(interval, now))

	// Remote registries: never fetched, or interval elapsed.
	require.True(t, Registry{URI: "https://x/r.yaml"}.ShouldUpdate(interval, now))
	require.True(t, Registry{URI: "https://x/r.yaml", LastFetched: &stale}.ShouldUpdate(interval, now))
	require.False(t, Registry{URI: "https://x/r.yaml", LastFetched: &recent}.ShouldUpdate(interval, now))
}

func TestWorkspacePackage_Display(t *testing.T) {
	wp := WorkspacePackage{
		Workspace: "global",
		Name:      "test-package",
		Version:   "0.1.1",
		Requested: version.Any(),
	}
	require.Equal(t, "test-package@0.1.1 (resolved from *)", wp.Display())

	wp.Requested = version.Partial("0.1")
	require.Equal(t, "test-package@0.1.1 (resolved from ~0.1)", wp.Display())
}

func TestKnownPackage_Display(t *testing.T) {
	pkg := KnownPackage{Name: "jq", Version: "1.7"}
	require.Equal(t, "jq@1.7", pkg.Display())

	pkg.Description = "JSON processor"
	pkg.License = "MIT"
	pkg.Registry = "core"
	require.Equal(t, "jq@1.7 - JSON processor [MIT] (core)", pkg.Display())

	pkg.Homepage = "https://jqlang.org"
	require.Equal(t, "jq@1.7 - JSON processor <https://jqlang.org> [MIT] (core)", pkg.Display())
}

func TestConflictsError_ReportsAllNames(t *testing.T) {
	conflicts := Conflicts{}
	conflicts.Add("b", []version.Spec{version.Exact("1.0.0"), version.Exact("1.0.1")})
	conflicts.Add("a", []version.Spec{version.Partial("2"), version.Exact("1.0.0")})

	err := &ConflictsError{Conflicts: conflicts}
	require.Equal(t, []string{"a", "b"}, conflicts.Names())
	require.Contains(t, err.Error(), "a (~2, 1.0.0)")
	require.Contains(t, err.Error(), "b (1.0.0, 1.0.1)")
}
