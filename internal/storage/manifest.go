package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ManifestVersion is the current on-disk schema version for manifest.json.
const ManifestVersion = 1

// Manifest is the per-project initialization record. Its presence on disk
// is what "a project is initialized" means.
type Manifest struct {
	Version      uint32   `json:"version"`
	ProjectPath  string   `json:"project_path"`
	Name         string   `json:"name"`
	CreatedAt    string   `json:"created_at"`
	LastScan     *string  `json:"last_scan"`
	FileCount    int      `json:"file_count"`
	Languages    []string `json:"languages"`
	Frameworks   []string `json:"frameworks"`
	Enriched     bool     `json:"enriched"`
}

// NewManifest builds the initial manifest for a freshly-created project.
func NewManifest(projectPath, name string) Manifest {
	return Manifest{
		Version:     ManifestVersion,
		ProjectPath: projectPath,
		Name:        name,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		LastScan:    nil,
		FileCount:   0,
		Languages:   []string{},
		Frameworks:  []string{},
		Enriched:    false,
	}
}

// LoadManifest reads and parses manifest.json for the given project hash.
func (s *Storage) LoadManifest(hash string) (Manifest, error) {
	data, err := os.ReadFile(s.ManifestPath(hash))
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", hash, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", hash, err)
	}
	return m, nil
}

// SaveManifest atomically writes manifest.json for the given project hash.
func (s *Storage) SaveManifest(hash string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest %s: %w", hash, err)
	}
	return writeFileAtomic(s.ManifestPath(hash), data, 0o644)
}
