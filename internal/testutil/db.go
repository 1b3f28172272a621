// Package testutil provides a throwaway database and fluent fixture
// builders for tests that need registries, packages, and workspaces
// pre-seeded.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cask/internal/infrastructure/sqlite"
)

// NewDB opens a migrated database under a per-test temp dir and closes it
// when the test ends.
func NewDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "cask.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
