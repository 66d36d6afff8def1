// Package storage owns the on-disk layout for project data: the project
// directory tree, the manifest file, and the append-only log primitive that
// backs both the memory store and the experience log.
package storage

import (
	"os"
	"path/filepath"

	"github.com/ctxmemd/ctxd/internal/pathhash"
)

// Storage roots all per-project state under a single data directory.
type Storage struct {
	dataDir string
}

// New returns a Storage rooted at dataDir. It does not create the directory;
// call EnsureDataDir for that.
func New(dataDir string) *Storage {
	return &Storage{dataDir: dataDir}
}

// DataDir returns the configured root data directory.
func (s *Storage) DataDir() string { return s.dataDir }

// EnsureDataDir creates the data directory and its projects subdirectory.
func (s *Storage) EnsureDataDir() error {
	return os.MkdirAll(filepath.Join(s.dataDir, "projects"), 0o755)
}

// ProjectHash computes the storage key for a canonical project path.
func ProjectHash(canonicalPath string) string {
	return pathhash.Hash(canonicalPath)
}

// ProjectDir returns the storage directory for a project hash.
func (s *Storage) ProjectDir(hash string) string {
	return filepath.Join(s.dataDir, "projects", hash)
}

// ManifestPath returns the manifest.json path for a project hash.
func (s *Storage) ManifestPath(hash string) string {
	return filepath.Join(s.ProjectDir(hash), "manifest.json")
}

// SkeletonPath returns the skeleton.json path for a project hash.
func (s *Storage) SkeletonPath(hash string) string {
	return filepath.Join(s.ProjectDir(hash), "skeleton.json")
}

// EnrichedPath returns the enriched tree path for a project hash. msgpack
// selects the binary encoding; otherwise JSON is used.
func (s *Storage) EnrichedPath(hash string, msgpack bool) string {
	if msgpack {
		return filepath.Join(s.ProjectDir(hash), "enriched.msgpack")
	}
	return filepath.Join(s.ProjectDir(hash), "enriched.json")
}

// ExperienceLogPath returns the shared memory+experience log path for a
// project hash.
func (s *Storage) ExperienceLogPath(hash string) string {
	return filepath.Join(s.ProjectDir(hash), "experience.jsonl")
}

// SnapshotsDir returns the snapshots directory for a project hash.
func (s *Storage) SnapshotsDir(hash string) string {
	return filepath.Join(s.ProjectDir(hash), "snapshots")
}

// EnsureProjectDir creates the storage directory for a project hash.
func (s *Storage) EnsureProjectDir(hash string) error {
	return os.MkdirAll(s.ProjectDir(hash), 0o755)
}

// ManifestExists reports whether a project has been initialized.
func (s *Storage) ManifestExists(hash string) bool {
	_, err := os.Stat(s.ManifestPath(hash))
	return err == nil
}
