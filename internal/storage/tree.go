package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// TreeNode is one entry in a project's file/symbol tree.
type TreeNode struct {
	Path     string     `json:"path" msgpack:"path"`
	IsDir    bool       `json:"is_dir" msgpack:"is_dir"`
	Language string     `json:"language,omitempty" msgpack:"language,omitempty"`
	Content  string     `json:"content,omitempty" msgpack:"content,omitempty"`
	Children []TreeNode `json:"children,omitempty" msgpack:"children,omitempty"`
}

// Tree is the skeleton (structure-only) or enriched (structure+content)
// representation of a project's files, saved and loaded by Storage.
type Tree struct {
	Root TreeNode `json:"root" msgpack:"root"`
}

// SaveSkeleton writes the structure-only tree as JSON.
func (s *Storage) SaveSkeleton(hash string, t Tree) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal skeleton %s: %w", hash, err)
	}
	return writeFileAtomic(s.SkeletonPath(hash), data, 0o644)
}

// LoadSkeleton reads the structure-only tree.
func (s *Storage) LoadSkeleton(hash string) (Tree, error) {
	data, err := os.ReadFile(s.SkeletonPath(hash))
	if err != nil {
		return Tree{}, fmt.Errorf("read skeleton %s: %w", hash, err)
	}
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return Tree{}, fmt.Errorf("parse skeleton %s: %w", hash, err)
	}
	return t, nil
}

// SaveEnriched writes the full tree, preferring MessagePack, matching the
// wire codec's own primary/fallback convention.
func (s *Storage) SaveEnriched(hash string, t Tree) error {
	data, err := msgpack.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal enriched tree %s: %w", hash, err)
	}
	return writeFileAtomic(s.EnrichedPath(hash, true), data, 0o644)
}

// LoadTree resolves the hash for the given canonical path and loads either
// the enriched tree (if present and requested) or the skeleton, falling
// back from MessagePack to JSON on parse failure.
func (s *Storage) LoadTree(canonicalPath string, enriched bool) (Tree, error) {
	hash := ProjectHash(canonicalPath)
	if enriched {
		if data, err := os.ReadFile(s.EnrichedPath(hash, true)); err == nil {
			var t Tree
			if err := msgpack.Unmarshal(data, &t); err == nil {
				return t, nil
			}
		}
		if data, err := os.ReadFile(s.EnrichedPath(hash, false)); err == nil {
			var t Tree
			if err := json.Unmarshal(data, &t); err == nil {
				return t, nil
			}
		}
	}
	return s.LoadSkeleton(hash)
}
