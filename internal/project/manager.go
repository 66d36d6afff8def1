package project

import (
	"fmt"
	"sync"

	"github.com/ctxmemd/ctxd/internal/pathhash"
	"github.com/ctxmemd/ctxd/internal/rpcmetrics"
	"github.com/ctxmemd/ctxd/internal/storage"
)

// Manager maps canonical project paths to loaded Project handles, bounded
// by an LRU admission policy, with single-writer initialization.
type Manager struct {
	storage *storage.Storage
	metrics *rpcmetrics.Metrics

	mu    sync.RWMutex
	cache *lruCache
}

// NewManager returns a Manager backed by storage with the given cache
// capacity (the configured max_projects). metrics may be nil, in which
// case cache-lookup accounting is skipped.
func NewManager(st *storage.Storage, maxProjects int, metrics *rpcmetrics.Metrics) *Manager {
	return &Manager{storage: st, cache: newLRUCache(maxProjects), metrics: metrics}
}

func (m *Manager) recordLookup(hit bool) {
	if m.metrics != nil {
		m.metrics.RecordCacheLookup(hit)
	}
}

// IsInitialized reports whether path canonicalizes and has a manifest on
// disk. Canonicalization failure (e.g. the path does not exist) yields
// false, not an error.
func (m *Manager) IsInitialized(path string) bool {
	canonical, err := pathhash.Canonicalize(path)
	if err != nil {
		return false
	}
	hash := storage.ProjectHash(canonical)
	return m.storage.ManifestExists(hash)
}

// InitProject creates a new project at path: writes its manifest and
// admits it into the cache. Fails ErrAlreadyInitialized if a manifest
// already exists.
func (m *Manager) InitProject(path string) (*Project, error) {
	canonical, err := pathhash.Canonicalize(path)
	if err != nil {
		return nil, ErrInvalidPath
	}
	hash := storage.ProjectHash(canonical)

	if m.storage.ManifestExists(hash) {
		return nil, ErrAlreadyInitialized
	}

	if err := m.storage.EnsureProjectDir(hash); err != nil {
		return nil, fmt.Errorf("project: create storage dir: %w", err)
	}

	manifest := storage.NewManifest(canonical, displayName(canonical))
	if err := m.storage.SaveManifest(hash, manifest); err != nil {
		return nil, fmt.Errorf("project: write manifest: %w", err)
	}

	proj := &Project{Hash: hash, Path: canonical, Manifest: manifest}

	m.mu.Lock()
	m.cache.put(canonical, proj)
	m.mu.Unlock()

	return proj, nil
}

// GetProject returns the cached handle for path, loading it from disk on a
// cache miss. Fails ErrNotInitialized if no manifest exists.
func (m *Manager) GetProject(path string) (*Project, error) {
	canonical, err := pathhash.Canonicalize(path)
	if err != nil {
		return nil, ErrInvalidPath
	}

	m.mu.Lock()
	if proj, ok := m.cache.get(canonical); ok {
		m.mu.Unlock()
		m.recordLookup(true)
		return proj, nil
	}
	m.mu.Unlock()
	m.recordLookup(false)

	proj, err := m.loadProject(canonical)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache.put(canonical, proj)
	m.mu.Unlock()

	return proj, nil
}

func (m *Manager) loadProject(canonical string) (*Project, error) {
	hash := storage.ProjectHash(canonical)
	if !m.storage.ManifestExists(hash) {
		return nil, ErrNotInitialized
	}
	manifest, err := m.storage.LoadManifest(hash)
	if err != nil {
		return nil, fmt.Errorf("project: load manifest: %w", err)
	}
	return &Project{Hash: hash, Path: canonical, Manifest: manifest}, nil
}

// LoadedCount returns the number of projects currently cached.
func (m *Manager) LoadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache.len()
}

// EvictLRU drops the least-recently-used cached project.
func (m *Manager) EvictLRU() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.popOldest()
}

// EvictAllExcept drops every cached project except the one at keep (if
// cached).
func (m *Manager) EvictAllExcept(keep string) {
	canonical, err := pathhash.Canonicalize(keep)
	if err != nil {
		canonical = ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.cache.keys() {
		if k != canonical {
			m.cache.pop(k)
		}
	}
}

// GetTree loads the project's skeleton tree via Storage.
func (m *Manager) GetTree(path string) (storage.Tree, error) {
	proj, err := m.GetProject(path)
	if err != nil {
		return storage.Tree{}, err
	}
	return m.storage.LoadTree(proj.Path, false)
}

func displayName(canonicalPath string) string {
	base := canonicalPath
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	if base == "" {
		return canonicalPath
	}
	return base
}
