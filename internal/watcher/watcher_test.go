package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) (*Watcher, <-chan string) {
	t.Helper()
	w, err := New(50 * time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w, w.Start()
}

func waitForChange(t *testing.T, changes <-chan string) string {
	t.Helper()
	select {
	case path := <-changes:
		return path
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change notification")
		return ""
	}
}

func TestWatcher_ReportsManifestWrites(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("schema_version: 1\n"), 0600))

	w, changes := newTestWatcher(t)
	require.NoError(t, w.Watch(manifest))

	require.NoError(t, os.WriteFile(manifest, []byte("schema_version: 1\nname: core\n"), 0600))

	require.Equal(t, manifest, waitForChange(t, changes))
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("a"), 0600))

	w, changes := newTestWatcher(t)
	require.NoError(t, w.Watch(manifest))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("b"), 0600))

	select {
	case path := <-changes:
		t.Fatalf("unexpected notification for %s", path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("a"), 0600))

	w, changes := newTestWatcher(t)
	require.NoError(t, w.Watch(manifest))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(manifest, []byte("edit"), 0600))
	}

	waitForChange(t, changes)

	select {
	case <-changes:
		t.Fatal("burst of writes produced more than one notification")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_SeesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("a"), 0600))

	w, changes := newTestWatcher(t)
	require.NoError(t, w.Watch(manifest))

	tmp := filepath.Join(dir, ".registry.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("b"), 0600))
	require.NoError(t, os.Rename(tmp, manifest))

	require.Equal(t, manifest, waitForChange(t, changes))
}
