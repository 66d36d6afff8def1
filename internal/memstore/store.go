package memstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ctxmemd/ctxd/internal/storage"
)

// SyncStats summarizes the outcome of rebuilding a project's index from its
// log.
type SyncStats struct {
	Total      int
	Live       int
	Tombstones int
}

// projectMemory is the per-project state: a write-serializing gate and a
// reader-preferring index guarded by its own lock. The gate is held across
// the log append; the index lock is held only for in-memory map access and
// must never span a suspension point.
type projectMemory struct {
	gate sync.Mutex

	indexMu sync.RWMutex
	synced  bool
	entries map[string]Entry
}

func newProjectMemory() *projectMemory {
	return &projectMemory{entries: make(map[string]Entry)}
}

// Store holds the authoritative in-memory view of the latest version per
// id per project, backed by each project's append-only log.
type Store struct {
	storage *storage.Storage

	mu       sync.RWMutex
	projects map[string]*projectMemory
}

// New returns a Store backed by the given storage root.
func New(st *storage.Storage) *Store {
	return &Store{storage: st, projects: make(map[string]*projectMemory)}
}

// projectFor returns the per-project state for hash, creating it if this
// is the first reference. The outer map lock is only ever held for this
// pointer copy, never across I/O.
func (s *Store) projectFor(hash string) *projectMemory {
	s.mu.RLock()
	pm, ok := s.projects[hash]
	s.mu.RUnlock()
	if ok {
		return pm
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pm, ok := s.projects[hash]; ok {
		return pm
	}
	pm = newProjectMemory()
	s.projects[hash] = pm
	return pm
}

// Sync acquires the project's write gate, replays the entire log from
// scratch, and installs the rebuilt index. Safe to call concurrently with
// itself and with other mutators; the gate serializes them.
func (s *Store) Sync(hash string) (SyncStats, error) {
	pm := s.projectFor(hash)
	pm.gate.Lock()
	defer pm.gate.Unlock()
	return s.syncLocked(hash, pm)
}

// syncLocked rebuilds the index; caller must already hold pm.gate.
func (s *Store) syncLocked(hash string, pm *projectMemory) (SyncStats, error) {
	lines, err := s.storage.ExperienceLog(hash).ReadAll()
	if err != nil {
		return SyncStats{}, fmt.Errorf("memstore: read log: %w", err)
	}

	rebuilt := make(map[string]Entry)
	for _, line := range lines {
		var probe struct {
			Schema string `json:"schema"`
		}
		if err := json.Unmarshal(line, &probe); err != nil || probe.Schema != EntrySchema {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		applyLatest(rebuilt, e)
	}

	stats := SyncStats{Total: len(rebuilt)}
	for _, e := range rebuilt {
		if e.Deleted {
			stats.Tombstones++
		} else {
			stats.Live++
		}
	}

	pm.indexMu.Lock()
	pm.entries = rebuilt
	pm.synced = true
	pm.indexMu.Unlock()

	return stats, nil
}

// ensureSynced replays the log once, on first use of a project's state,
// under the caller's already-held gate.
func (s *Store) ensureSynced(hash string, pm *projectMemory) error {
	pm.indexMu.RLock()
	synced := pm.synced
	pm.indexMu.RUnlock()
	if synced {
		return nil
	}
	_, err := s.syncLocked(hash, pm)
	return err
}

// applyLatest inserts candidate into index iff no entry exists for its id,
// or candidate strictly outranks the existing entry under the comparator.
func applyLatest(index map[string]Entry, candidate Entry) {
	existing, ok := index[candidate.ID]
	if !ok || greater(candidate, existing) {
		index[candidate.ID] = candidate
	}
}

// Put upserts entry: blank id is replaced with a generated UUID, non-positive
// timestamps are filled from wall-clock time, the entry is validated,
// durably appended under the project gate, then applied to the index.
func (s *Store) Put(hash string, entry Entry) (Entry, error) {
	pm := s.projectFor(hash)
	pm.gate.Lock()
	defer pm.gate.Unlock()

	if err := s.ensureSynced(hash, pm); err != nil {
		return Entry{}, err
	}

	now := time.Now().Unix()
	if strings.TrimSpace(entry.ID) == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt <= 0 {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt <= 0 {
		entry.UpdatedAt = now
	}
	entry.Schema = EntrySchema

	if err := entry.Validate(); err != nil {
		return Entry{}, err
	}

	if err := s.appendDurable(hash, entry); err != nil {
		return Entry{}, err
	}

	pm.indexMu.Lock()
	applyLatest(pm.entries, entry)
	pm.indexMu.Unlock()

	return entry, nil
}

// Patch applies a three-valued partial update to the current version of
// id, computing a monotonically advanced updated_at, and durably appends
// the result as a new version.
func (s *Store) Patch(hash, id string, patch Patch) (Entry, error) {
	if strings.TrimSpace(id) == "" {
		return Entry{}, ErrInvalidEntry("id must not be blank")
	}
	pm := s.projectFor(hash)
	pm.gate.Lock()
	defer pm.gate.Unlock()

	if err := s.ensureSynced(hash, pm); err != nil {
		return Entry{}, err
	}

	pm.indexMu.RLock()
	current, ok := pm.entries[id]
	pm.indexMu.RUnlock()
	if !ok {
		return Entry{}, ErrNotFound
	}

	updated := current.clone()
	if patch.Content != nil {
		updated.Content = *patch.Content
	}
	if patch.Kind != nil {
		updated.Kind = *patch.Kind
	}
	if patch.Tags != nil {
		updated.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.Deleted != nil {
		updated.Deleted = *patch.Deleted
	}
	if v, ok := patch.SessionID.Value(); ok {
		updated.SessionID = &v
	} else if patch.SessionID.IsNull() {
		updated.SessionID = nil
	}
	if v, ok := patch.SubagentID.Value(); ok {
		updated.SubagentID = &v
	} else if patch.SubagentID.IsNull() {
		updated.SubagentID = nil
	}

	now := time.Now().Unix()
	candidate := now
	if patch.UpdatedAt != nil {
		candidate = *patch.UpdatedAt
	}
	if candidate <= current.UpdatedAt {
		candidate = current.UpdatedAt + 1
	}
	updated.UpdatedAt = candidate
	updated.Schema = EntrySchema

	if err := updated.Validate(); err != nil {
		return Entry{}, err
	}

	if err := s.appendDurable(hash, updated); err != nil {
		return Entry{}, err
	}

	pm.indexMu.Lock()
	applyLatest(pm.entries, updated)
	pm.indexMu.Unlock()

	return updated, nil
}

// Delete is patch restricted to flipping deleted=true, with updated_at
// derived from deletedAt (or now if deletedAt <= 0).
func (s *Store) Delete(hash, id string, deletedAt int64) (Entry, error) {
	deleted := true
	p := Patch{Deleted: &deleted}
	if deletedAt > 0 {
		p.UpdatedAt = &deletedAt
	}
	return s.Patch(hash, id, p)
}

// GetLatest returns the latest version of id, including tombstones.
func (s *Store) GetLatest(hash, id string) (Entry, bool, error) {
	pm := s.projectFor(hash)
	pm.gate.Lock()
	err := s.ensureSynced(hash, pm)
	pm.gate.Unlock()
	if err != nil {
		return Entry{}, false, err
	}

	pm.indexMu.RLock()
	defer pm.indexMu.RUnlock()
	e, ok := pm.entries[id]
	return e, ok, nil
}

// Get returns the latest live version of id, filtering tombstones.
func (s *Store) Get(hash, id string) (Entry, bool, error) {
	e, ok, err := s.GetLatest(hash, id)
	if err != nil || !ok || e.Deleted {
		return Entry{}, false, err
	}
	return e, true, nil
}

// List returns live entries sorted oldest-to-newest by the comparator,
// truncated to the last limit entries.
func (s *Store) List(hash string, limit int) ([]Entry, error) {
	pm := s.projectFor(hash)
	pm.gate.Lock()
	err := s.ensureSynced(hash, pm)
	pm.gate.Unlock()
	if err != nil {
		return nil, err
	}

	pm.indexMu.RLock()
	live := make([]Entry, 0, len(pm.entries))
	for _, e := range pm.entries {
		if !e.Deleted {
			live = append(live, e)
		}
	}
	pm.indexMu.RUnlock()

	sort.Slice(live, func(i, j int) bool { return compare(live[i], live[j]) < 0 })

	if limit <= 0 {
		return nil, nil
	}
	if limit < len(live) {
		live = live[len(live)-limit:]
	}
	return live, nil
}

func (s *Store) appendDurable(hash string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("memstore: serialize entry: %w", err)
	}
	if err := s.storage.ExperienceLog(hash).AppendDurable(data); err != nil {
		return fmt.Errorf("memstore: append: %w", err)
	}
	return nil
}
