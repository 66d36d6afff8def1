// Package treeview pins the TreeStorage collaborator: loading a project's
// file/symbol tree, whether as a bare skeleton or fully enriched with file
// contents. Ranking and symbol-extraction quality are explicitly out of
// scope here; this just resolves the hash and deserializes what Storage
// already has on disk.
package treeview

import "github.com/ctxmemd/ctxd/internal/storage"

// TreeStorage resolves a canonical project path to its saved tree.
type TreeStorage interface {
	LoadTree(canonicalPath string, enriched bool) (storage.Tree, error)
}

// Default wraps a storage.Storage to satisfy TreeStorage directly.
type Default struct {
	storage *storage.Storage
}

// New returns the default TreeStorage backed by st.
func New(st *storage.Storage) *Default {
	return &Default{storage: st}
}

func (d *Default) LoadTree(canonicalPath string, enriched bool) (storage.Tree, error) {
	return d.storage.LoadTree(canonicalPath, enriched)
}
