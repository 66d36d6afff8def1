package memstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/ctxmemd/ctxd/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.Storage, string) {
	t.Helper()
	dir := t.TempDir()
	st := storage.New(dir)
	if err := st.EnsureDataDir(); err != nil {
		t.Fatal(err)
	}
	hash := "deadbeefdeadbeef"
	if err := st.EnsureProjectDir(hash); err != nil {
		t.Fatal(err)
	}
	return New(st), st, hash
}

func writeRawLine(t *testing.T, st *storage.Storage, hash string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.ExperienceLog(hash).AppendDurable(data); err != nil {
		t.Fatal(err)
	}
}

func TestReplayCorrectness_S1(t *testing.T) {
	store, st, hash := newTestStore(t)

	writeRawLine(t, st, hash, Entry{Schema: EntrySchema, ID: "mem-1", Kind: "note", Content: "initial", CreatedAt: 10, UpdatedAt: 10})
	writeRawLine(t, st, hash, Entry{Schema: EntrySchema, ID: "mem-1", Kind: "note", Content: "patched", CreatedAt: 10, UpdatedAt: 20})
	writeRawLine(t, st, hash, Entry{Schema: EntrySchema, ID: "mem-2", Kind: "note", Content: "x", CreatedAt: 12, UpdatedAt: 12})
	writeRawLine(t, st, hash, Entry{Schema: EntrySchema, ID: "mem-2", Kind: "note", Content: "x", CreatedAt: 12, UpdatedAt: 30, Deleted: true})

	stats, err := store.Sync(hash)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.Live != 1 || stats.Tombstones != 1 {
		t.Fatalf("stats = %+v, want {2 1 1}", stats)
	}

	got, ok, err := store.Get(hash, "mem-1")
	if err != nil || !ok {
		t.Fatalf("get mem-1: %v ok=%v", err, ok)
	}
	if got.Content != "patched" || got.UpdatedAt != 20 {
		t.Fatalf("got %+v", got)
	}

	_, ok, err = store.Get(hash, "mem-2")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("mem-2 expected absent (tombstoned)")
	}

	list, err := store.List(hash, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "mem-1" {
		t.Fatalf("list = %+v", list)
	}
}

func TestPatchDeleteRevive_S2(t *testing.T) {
	store, _, hash := newTestStore(t)

	_, err := store.Put(hash, Entry{ID: "mem-1", Kind: "note", Content: "original", CreatedAt: 1, UpdatedAt: 1})
	if err != nil {
		t.Fatal(err)
	}

	tags := []string{"x"}
	content := "patched"
	stored, err := store.Patch(hash, "mem-1", Patch{Content: &content, Tags: &tags})
	if err != nil {
		t.Fatal(err)
	}
	if stored.Content != "patched" || len(stored.Tags) != 1 || stored.Tags[0] != "x" || stored.UpdatedAt < 2 {
		t.Fatalf("stored = %+v", stored)
	}

	if _, err := store.Delete(hash, "mem-1", 0); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(hash, "mem-1"); ok {
		t.Fatalf("expected absent after delete")
	}
	list, _ := store.List(hash, 10)
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}

	hidden := "hidden-update"
	if _, err := store.Patch(hash, "mem-1", Patch{Content: &hidden}); err != nil {
		t.Fatal(err)
	}
	latest, ok, err := store.GetLatest(hash, "mem-1")
	if err != nil || !ok {
		t.Fatalf("get_latest: %v ok=%v", err, ok)
	}
	if !latest.Deleted || latest.Content != "hidden-update" {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestConcurrentWritesDeterministicTieBreak_S3(t *testing.T) {
	store, st, hash := newTestStore(t)
	_ = st

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Put(hash, Entry{ID: fmt.Sprintf("unique-%03d", i), Kind: "note", Content: "v", CreatedAt: 1, UpdatedAt: 1})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	for i := 0; i < 40; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Put(hash, Entry{ID: "shared", Kind: "note", Content: fmt.Sprintf("shared-v%03d", i), CreatedAt: 1, UpdatedAt: int64(10000 + i)})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	shared, ok, err := store.Get(hash, "shared")
	if err != nil || !ok {
		t.Fatalf("get shared: %v ok=%v", err, ok)
	}
	if shared.UpdatedAt != 10039 || shared.Content != "shared-v039" {
		t.Fatalf("shared = %+v", shared)
	}

	list, err := store.List(hash, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 65 {
		t.Fatalf("list len = %d, want 65", len(list))
	}

	n, err := st.ExperienceLog(hash).Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 64+40 {
		t.Fatalf("log line count = %d, want 104", n)
	}

	var wg2 sync.WaitGroup
	for _, content := range []string{"alpha", "omega", "beta"} {
		content := content
		wg2.Add(1)
		go func() {
			defer wg2.Done()
			_, err := store.Put(hash, Entry{ID: "tie-break", Kind: "note", Content: content, CreatedAt: 5, UpdatedAt: 50000})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg2.Wait()

	tie, ok, err := store.Get(hash, "tie-break")
	if err != nil || !ok {
		t.Fatalf("get tie-break: %v ok=%v", err, ok)
	}
	if tie.Content != "omega" {
		t.Fatalf("tie-break winner = %q, want omega", tie.Content)
	}
}

func TestRestartSafety_S4(t *testing.T) {
	dir := t.TempDir()
	st := storage.New(dir)
	if err := st.EnsureDataDir(); err != nil {
		t.Fatal(err)
	}
	hash := "cafebabecafebabe"
	if err := st.EnsureProjectDir(hash); err != nil {
		t.Fatal(err)
	}

	store1 := New(st)
	if _, err := store1.Put(hash, Entry{ID: "a", Kind: "note", Content: "one", CreatedAt: 1, UpdatedAt: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := store1.Put(hash, Entry{ID: "b", Kind: "note", Content: "two", CreatedAt: 1, UpdatedAt: 1}); err != nil {
		t.Fatal(err)
	}

	store2 := New(st)
	list, err := store2.List(hash, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("list = %+v, want 2 entries", list)
	}
}

func TestAckImpliesDurable_S5(t *testing.T) {
	store, st, hash := newTestStore(t)
	if _, err := store.Put(hash, Entry{ID: "a", Kind: "note", Content: "one", CreatedAt: 1, UpdatedAt: 1}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(st.ExperienceLogPath(hash))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty log after put")
	}
}

func TestComparatorTotality(t *testing.T) {
	a := Entry{UpdatedAt: 1, CreatedAt: 1, ID: "x", Kind: "k", Content: "c"}
	b := Entry{UpdatedAt: 1, CreatedAt: 1, ID: "x", Kind: "k", Content: "d"}
	if compare(a, b) == 0 {
		t.Fatalf("distinct entries must not compare equal")
	}
	if compare(a, b) != -compare(b, a) {
		t.Fatalf("comparator not antisymmetric")
	}
}

func TestBoundaryBehaviors(t *testing.T) {
	store, _, hash := newTestStore(t)

	list, err := store.List(hash, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("limit=0 must yield empty list")
	}

	if _, err := store.Patch(hash, "", Patch{}); !IsInvalidEntry(err) {
		t.Fatalf("blank id on patch must be invalid_request, got %v", err)
	}
}
