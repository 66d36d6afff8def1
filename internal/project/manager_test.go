package project

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctxmemd/ctxd/internal/rpcmetrics"
	"github.com/ctxmemd/ctxd/internal/storage"
)

func newTestManager(t *testing.T, maxProjects int) (*Manager, string) {
	t.Helper()
	dataDir := t.TempDir()
	st := storage.New(dataDir)
	if err := st.EnsureDataDir(); err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	return NewManager(st, maxProjects, rpcmetrics.New()), root
}

func mkProjectDir(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestInitAndGetProject(t *testing.T) {
	mgr, root := newTestManager(t, 3)
	dir := mkProjectDir(t, root, "test_project")

	if mgr.IsInitialized(dir) {
		t.Fatalf("expected not initialized")
	}

	proj, err := mgr.InitProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if proj.Manifest.Name != "test_project" {
		t.Fatalf("name = %q", proj.Manifest.Name)
	}

	if !mgr.IsInitialized(dir) {
		t.Fatalf("expected initialized")
	}

	cached, err := mgr.GetProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cached.Hash != proj.Hash {
		t.Fatalf("hash mismatch")
	}
}

func TestLRUEviction_S6(t *testing.T) {
	mgr, root := newTestManager(t, 2)

	var dirs []string
	for i := 0; i < 3; i++ {
		dirs = append(dirs, mkProjectDir(t, root, fmt.Sprintf("project_%d", i)))
	}
	for _, d := range dirs {
		if _, err := mgr.InitProject(d); err != nil {
			t.Fatal(err)
		}
	}
	if mgr.LoadedCount() != 2 {
		t.Fatalf("loaded count = %d, want 2", mgr.LoadedCount())
	}

	mgr.EvictAllExcept(dirs[0])
	if mgr.LoadedCount() != 1 {
		t.Fatalf("loaded count after evict_all_except = %d, want 1", mgr.LoadedCount())
	}
}

func TestGetProjectNotInitialized(t *testing.T) {
	mgr, root := newTestManager(t, 3)
	dir := mkProjectDir(t, root, "uninitialized")

	if _, err := mgr.GetProject(dir); err != ErrNotInitialized {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
}

func TestInitAlreadyInitialized(t *testing.T) {
	mgr, root := newTestManager(t, 3)
	dir := mkProjectDir(t, root, "test_project")

	if _, err := mgr.InitProject(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.InitProject(dir); err != ErrAlreadyInitialized {
		t.Fatalf("err = %v, want ErrAlreadyInitialized", err)
	}
}

func TestIsInitializedNonexistentPath(t *testing.T) {
	mgr, root := newTestManager(t, 3)
	if mgr.IsInitialized(filepath.Join(root, "nonexistent")) {
		t.Fatalf("nonexistent path must not report initialized")
	}
}

func TestEvictLRU(t *testing.T) {
	mgr, root := newTestManager(t, 5)
	for i := 0; i < 2; i++ {
		d := mkProjectDir(t, root, fmt.Sprintf("project_%d", i))
		if _, err := mgr.InitProject(d); err != nil {
			t.Fatal(err)
		}
	}
	if mgr.LoadedCount() != 2 {
		t.Fatalf("loaded count = %d", mgr.LoadedCount())
	}
	mgr.EvictLRU()
	if mgr.LoadedCount() != 1 {
		t.Fatalf("loaded count after evict_lru = %d, want 1", mgr.LoadedCount())
	}
}

func TestGetProjectRecordsCacheHitRate(t *testing.T) {
	dataDir := t.TempDir()
	st := storage.New(dataDir)
	if err := st.EnsureDataDir(); err != nil {
		t.Fatal(err)
	}
	metrics := rpcmetrics.New()
	mgr := NewManager(st, 3, metrics)
	root := t.TempDir()

	dir := mkProjectDir(t, root, "project")
	if _, err := mgr.InitProject(dir); err != nil {
		t.Fatal(err)
	}
	mgr.EvictLRU()

	if _, err := mgr.GetProject(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.GetProject(dir); err != nil {
		t.Fatal(err)
	}

	snap := metrics.Snapshot()
	if snap.CacheHitRate != 0.5 {
		t.Fatalf("cache_hit_rate = %v, want 0.5 (1 miss then 1 hit)", snap.CacheHitRate)
	}
}

func TestLoadedCountNeverExceedsCapacity(t *testing.T) {
	mgr, root := newTestManager(t, 3)
	for i := 0; i < 10; i++ {
		d := mkProjectDir(t, root, fmt.Sprintf("project_%d", i))
		if _, err := mgr.InitProject(d); err != nil {
			t.Fatal(err)
		}
		if mgr.LoadedCount() > 3 {
			t.Fatalf("loaded count %d exceeds capacity 3", mgr.LoadedCount())
		}
	}
}
