package sqlite

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/version"
)

func TestInstalled_ClaimOnce(t *testing.T) {
	db := newTestDB(t)
	repo := db.Installed()

	claimed, err := repo.Claim("jq", "1.7")
	require.NoError(t, err)
	require.True(t, claimed, "first claim wins")

	claimed, err = repo.Claim("jq", "1.7")
	require.NoError(t, err)
	require.False(t, claimed, "second claim joins the existing entry")

	exists, err := repo.Exists("jq", "1.7")
	require.NoError(t, err)
	require.True(t, exists)
}

// TestInstalled_ConcurrentClaims verifies exactly one of many concurrent
// claimers wins for the same (name, version).
func TestInstalled_ConcurrentClaims(t *testing.T) {
	db := newTestDB(t)
	repo := db.Installed()

	const claimers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := repo.Claim("jq", "1.7")
			require.NoError(t, err)
			if claimed {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins, "exactly one concurrent claim must succeed")
}

func TestInstalled_Release(t *testing.T) {
	db := newTestDB(t)
	repo := db.Installed()

	claimed, err := repo.Claim("jq", "1.7")
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, repo.Release("jq", "1.7"))

	exists, err := repo.Exists("jq", "1.7")
	require.NoError(t, err)
	require.False(t, exists)

	// A fresh claim succeeds again after release.
	claimed, err = repo.Claim("jq", "1.7")
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestInstalled_Unreferenced(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Installed().Claim("jq", "1.7")
	require.NoError(t, err)
	_, err = db.Installed().Claim("ripgrep", "14.0.0")
	require.NoError(t, err)

	require.NoError(t, db.Workspaces().SaveBinding(domain.WorkspacePackage{
		Workspace: "global", Name: "jq", Version: "1.7", Requested: version.Any(),
	}))

	unreferenced, err := db.Installed().Unreferenced()
	require.NoError(t, err)
	require.Len(t, unreferenced, 1)
	require.Equal(t, "ripgrep", unreferenced[0].Name)

	// Once the binding is gone, jq becomes eligible too.
	require.NoError(t, db.Workspaces().DeleteBinding("global", "jq"))
	unreferenced, err = db.Installed().Unreferenced()
	require.NoError(t, err)
	require.Len(t, unreferenced, 2)
}

// TestInstalled_BindingToDifferentVersionDoesNotProtect verifies reference
// counting keys on the exact (name, version), not the name alone.
func TestInstalled_BindingToDifferentVersionDoesNotProtect(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Installed().Claim("jq", "1.6")
	require.NoError(t, err)

	require.NoError(t, db.Workspaces().SaveBinding(domain.WorkspacePackage{
		Workspace: "global", Name: "jq", Version: "1.7", Requested: version.Any(),
	}))

	unreferenced, err := db.Installed().Unreferenced()
	require.NoError(t, err)
	require.Len(t, unreferenced, 1)
	require.Equal(t, "1.6", unreferenced[0].Version)
}
