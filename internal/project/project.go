// Package project implements the per-project lifecycle: canonical-path
// identity, manifest-backed initialization, and an LRU-bounded cache of
// loaded projects.
package project

import (
	"errors"

	"github.com/ctxmemd/ctxd/internal/storage"
)

// Project is a loaded handle to one project's identity and manifest. It is
// shared-ownership: callers keep using their own handle even if the cache
// evicts its reference.
type Project struct {
	Hash     string
	Path     string
	Manifest storage.Manifest
}

// Errors returned by Manager operations, mapped to wire error codes by the
// handler layer.
var (
	ErrInvalidPath        = errors.New("project: invalid path")
	ErrAlreadyInitialized = errors.New("project: already initialized")
	ErrNotInitialized     = errors.New("project: not initialized")
)
