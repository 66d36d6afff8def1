// Package handler is the pure translation layer between decoded wire
// requests and the MemoryStore/ProjectManager/collaborator calls that
// satisfy them.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ctxmemd/ctxd/internal/config"
	"github.com/ctxmemd/ctxd/internal/contextrender"
	"github.com/ctxmemd/ctxd/internal/memstore"
	"github.com/ctxmemd/ctxd/internal/pathhash"
	"github.com/ctxmemd/ctxd/internal/project"
	"github.com/ctxmemd/ctxd/internal/rpc"
	"github.com/ctxmemd/ctxd/internal/rpcmetrics"
	"github.com/ctxmemd/ctxd/internal/scanner"
	"github.com/ctxmemd/ctxd/internal/storage"
	"github.com/ctxmemd/ctxd/internal/treeview"
	"github.com/ctxmemd/ctxd/internal/validation"
)

// Version is the daemon's reported version string.
const Version = "0.1.0"

// Handler dispatches each request action to the appropriate store/manager
// call, enforcing the init-gate and mapping errors to wire error codes.
type Handler struct {
	store     *memstore.Store
	projects  *project.Manager
	storage   *storage.Storage
	trees     treeview.TreeStorage
	renderer  contextrender.ContextRenderer
	scanner   scanner.Scanner
	metrics   *rpcmetrics.Metrics
	logger    *slog.Logger
	startedAt time.Time
	shuttingDown atomic.Bool
	requestShutdown func()
	autoInit  config.AutoInit
}

// New builds a Handler wired to the daemon's components.
func New(
	store *memstore.Store,
	projects *project.Manager,
	st *storage.Storage,
	trees treeview.TreeStorage,
	renderer contextrender.ContextRenderer,
	sc scanner.Scanner,
	metrics *rpcmetrics.Metrics,
	logger *slog.Logger,
	requestShutdown func(),
	autoInit config.AutoInit,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store: store, projects: projects, storage: st,
		trees: trees, renderer: renderer, scanner: sc,
		metrics: metrics, logger: logger, startedAt: time.Now(),
		requestShutdown: requestShutdown,
		autoInit:        autoInit,
	}
}

// Handle dispatches one request and returns its response. It satisfies
// rpc.Handler.
func (h *Handler) Handle(ctx context.Context, req rpc.Request) rpc.Response {
	if h.shuttingDown.Load() && req.Action != rpc.ActionShutdown {
		return rpc.Err(rpc.ErrCodeShuttingDown, "daemon is shutting down")
	}

	switch req.Action {
	case rpc.ActionPing:
		return h.handlePing()
	case rpc.ActionStatus:
		return h.handleStatus()
	case rpc.ActionCheckInit:
		return h.handleCheckInit(req)
	case rpc.ActionInitProject:
		return h.handleInitProject(req)
	case rpc.ActionGetContext:
		return h.handleGetContext(req)
	case rpc.ActionPrepareContext:
		return h.handlePrepareContext(req)
	case rpc.ActionNotifyFileChange:
		return h.handleNotifyFileChange(req)
	case rpc.ActionGraftExperience:
		return h.handleGraftExperience(req)
	case rpc.ActionMemoryPut:
		return h.handleMemoryPut(req)
	case rpc.ActionMemoryPatch:
		return h.handleMemoryPatch(req)
	case rpc.ActionMemoryDelete:
		return h.handleMemoryDelete(req)
	case rpc.ActionMemoryGet:
		return h.handleMemoryGet(req)
	case rpc.ActionMemoryList:
		return h.handleMemoryList(req)
	case rpc.ActionMemorySync:
		return h.handleMemorySync(req)
	case rpc.ActionShutdown:
		return h.handleShutdown()
	default:
		return rpc.Err(rpc.ErrCodeInvalidRequest, "unknown action")
	}
}

func (h *Handler) handlePing() rpc.Response {
	return rpc.OkWith(rpc.ResponseData{Type: rpc.DataTypePong, Timestamp: time.Now().Unix()})
}

func (h *Handler) handleStatus() rpc.Response {
	var snap rpcmetrics.Snapshot
	if h.metrics != nil {
		snap = h.metrics.Snapshot()
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return rpc.OkWith(rpc.ResponseData{
		Type:             rpc.DataTypeStatus,
		Version:          Version,
		UptimeSecs:       int64(time.Since(h.startedAt).Seconds()),
		ProjectsLoaded:   h.projects.LoadedCount(),
		MemoryUsageBytes: mem.Alloc,
		RequestsTotal:    snap.RequestsTotal,
		CacheHitRate:     snap.CacheHitRate,
		AvgLatencyMs:     snap.AvgLatencyMs,
	})
}

func (h *Handler) handleCheckInit(req rpc.Request) rpc.Response {
	if req.Cwd == "" {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "cwd must not be blank")
	}
	initialized := h.projects.IsInitialized(req.Cwd)
	return rpc.OkWith(rpc.ResponseData{Type: rpc.DataTypeInitStatus, Initialized: initialized})
}

func (h *Handler) handleInitProject(req rpc.Request) rpc.Response {
	if req.Cwd == "" {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "cwd must not be blank")
	}

	proj, err := h.projects.InitProject(req.Cwd)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrInvalidPath):
			return rpc.Err(rpc.ErrCodeInvalidRequest, "invalid path")
		case errors.Is(err, project.ErrAlreadyInitialized):
			return rpc.Err(rpc.ErrCodeInvalidRequest, "project already initialized")
		default:
			return rpc.Err(rpc.ErrCodeInternal, err.Error())
		}
	}

	runScan := func() {
		tree, fileCount, languages, err := h.scanner.Scan(proj.Path, scanner.Options{})
		if err != nil {
			h.logger.Error("init scan failed", "project", proj.Path, "err", err)
			return
		}
		if err := h.storage.SaveSkeleton(proj.Hash, tree); err != nil {
			h.logger.Error("save skeleton failed", "project", proj.Path, "err", err)
			return
		}
		manifest := proj.Manifest
		manifest.FileCount = fileCount
		manifest.Languages = languages
		now := time.Now().UTC().Format(time.RFC3339)
		manifest.LastScan = &now
		if err := h.storage.SaveManifest(proj.Hash, manifest); err != nil {
			h.logger.Error("save manifest after scan failed", "project", proj.Path, "err", err)
		}
	}

	if req.AsyncMode {
		go runScan()
	} else {
		runScan()
	}

	return rpc.Ok()
}

func (h *Handler) handleGetContext(req rpc.Request) rpc.Response {
	if resp, ok := h.checkInitGate(req.Cwd); !ok {
		return resp
	}
	canonical, err := pathhash.Canonicalize(req.Cwd)
	if err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "invalid path")
	}

	tree, err := h.trees.LoadTree(canonical, false)
	if err != nil {
		// A project with no scan yet renders an empty context rather than
		// failing the request outright.
		tree = storage.Tree{}
	}

	prompt := ""
	if req.Prompt != nil {
		prompt = *req.Prompt
	}
	text, nodes, err := h.renderer.Render(contextrender.Scope{Prompt: prompt}, tree)
	if err != nil {
		return rpc.Err(rpc.ErrCodeInternal, err.Error())
	}
	return rpc.OkWith(rpc.ResponseData{Type: rpc.DataTypeContext, Context: text, Nodes: nodes})
}

func (h *Handler) handlePrepareContext(req rpc.Request) rpc.Response {
	cwd := req.Cwd
	go func() {
		canonical, err := pathhash.Canonicalize(cwd)
		if err != nil {
			h.logger.Debug("prepare_context: invalid path", "cwd", cwd)
			return
		}
		if _, err := h.trees.LoadTree(canonical, true); err != nil {
			h.logger.Debug("prepare_context: warm failed", "cwd", cwd, "err", err)
		}
	}()
	return rpc.Ack()
}

func (h *Handler) handleNotifyFileChange(req rpc.Request) rpc.Response {
	h.logger.Debug("notify_file_change", "cwd", req.Cwd, "path", req.Path, "change_type", req.ChangeType)
	// TODO: feed into incremental re-indexing once the scanner supports it.
	if h.autoInit.Enabled && req.Cwd != "" && !h.projects.IsInitialized(req.Cwd) {
		go h.maybeAutoInit(req.Cwd)
	}
	return rpc.Ack()
}

// maybeAutoInit scans cwd and, if it has crossed the configured min_files
// threshold, initializes it the same way an explicit init_project would.
// Runs off the request path so a burst of file-change notifications never
// blocks on a full directory walk.
func (h *Handler) maybeAutoInit(cwd string) {
	_, fileCount, _, err := h.scanner.Scan(cwd, scanner.Options{ExcludePatterns: h.autoInit.ExcludePatterns})
	if err != nil {
		h.logger.Debug("auto_init: scan failed", "cwd", cwd, "err", err)
		return
	}
	if fileCount < h.autoInit.MinFiles {
		return
	}
	proj, err := h.projects.InitProject(cwd)
	if err != nil {
		if !errors.Is(err, project.ErrAlreadyInitialized) {
			h.logger.Debug("auto_init: init failed", "cwd", cwd, "err", err)
		}
		return
	}
	h.logger.Info("auto_init: project initialized", "cwd", cwd, "file_count", fileCount)

	tree, fileCount, languages, err := h.scanner.Scan(proj.Path, scanner.Options{})
	if err != nil {
		h.logger.Error("auto_init: scan failed", "project", proj.Path, "err", err)
		return
	}
	if err := h.storage.SaveSkeleton(proj.Hash, tree); err != nil {
		h.logger.Error("auto_init: save skeleton failed", "project", proj.Path, "err", err)
		return
	}
	manifest := proj.Manifest
	manifest.FileCount = fileCount
	manifest.Languages = languages
	now := time.Now().UTC().Format(time.RFC3339)
	manifest.LastScan = &now
	if err := h.storage.SaveManifest(proj.Hash, manifest); err != nil {
		h.logger.Error("auto_init: save manifest failed", "project", proj.Path, "err", err)
	}
}

func (h *Handler) handleGraftExperience(req rpc.Request) rpc.Response {
	if req.Experience == nil {
		return rpc.Ack()
	}
	canonical, err := pathhash.Canonicalize(req.Cwd)
	if err != nil {
		return rpc.Ack()
	}
	hash := storage.ProjectHash(canonical)
	exp := *req.Experience
	go func() {
		if exp.Timestamp <= 0 {
			exp.Timestamp = time.Now().Unix()
		}
		if err := h.storage.AppendExperience(hash, exp); err != nil {
			h.logger.Error("graft_experience failed", "cwd", req.Cwd, "err", err)
		}
	}()
	return rpc.Ack()
}

func (h *Handler) handleMemoryPut(req rpc.Request) rpc.Response {
	if resp, ok := h.checkInitGate(req.Cwd); !ok {
		return resp
	}
	if req.Entry == nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "entry must be present")
	}
	hash, err := h.hashFor(req.Cwd)
	if err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "invalid path")
	}

	entry := *req.Entry
	if strings.TrimSpace(entry.ID) == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if entry.CreatedAt <= 0 {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	if err := validation.PutValidator()(entry); err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, err.Error())
	}

	stored, err := h.store.Put(hash, entry)
	if err != nil {
		return mapStoreError(err)
	}
	return rpc.OkWith(rpc.ResponseData{Type: rpc.DataTypeMemory, Entry: &stored})
}

func (h *Handler) handleMemoryPatch(req rpc.Request) rpc.Response {
	if resp, ok := h.checkInitGate(req.Cwd); !ok {
		return resp
	}
	if err := validation.NotBlankPathID(req.ID); err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, err.Error())
	}
	if req.Patch == nil || req.Patch.IsEmpty() {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "patch must set at least one field")
	}
	hash, err := h.hashFor(req.Cwd)
	if err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "invalid path")
	}

	stored, err := h.store.Patch(hash, req.ID, *req.Patch)
	if err != nil {
		return mapStoreError(err)
	}
	return rpc.OkWith(rpc.ResponseData{Type: rpc.DataTypeMemory, Entry: &stored})
}

func (h *Handler) handleMemoryDelete(req rpc.Request) rpc.Response {
	if resp, ok := h.checkInitGate(req.Cwd); !ok {
		return resp
	}
	if err := validation.NotBlankPathID(req.ID); err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, err.Error())
	}
	hash, err := h.hashFor(req.Cwd)
	if err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "invalid path")
	}

	stored, err := h.store.Delete(hash, req.ID, 0)
	if err != nil {
		return mapStoreError(err)
	}
	return rpc.OkWith(rpc.ResponseData{Type: rpc.DataTypeMemory, Entry: &stored})
}

func (h *Handler) handleMemoryGet(req rpc.Request) rpc.Response {
	if resp, ok := h.checkInitGate(req.Cwd); !ok {
		return resp
	}
	if err := validation.NotBlankPathID(req.ID); err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, err.Error())
	}
	hash, err := h.hashFor(req.Cwd)
	if err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "invalid path")
	}

	entry, ok, err := h.store.Get(hash, req.ID)
	if err != nil {
		return mapStoreError(err)
	}
	if !ok {
		return rpc.OkWith(rpc.ResponseData{Type: rpc.DataTypeMemory})
	}
	return rpc.OkWith(rpc.ResponseData{Type: rpc.DataTypeMemory, Entry: &entry})
}

func (h *Handler) handleMemoryList(req rpc.Request) rpc.Response {
	if resp, ok := h.checkInitGate(req.Cwd); !ok {
		return resp
	}
	hash, err := h.hashFor(req.Cwd)
	if err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "invalid path")
	}

	entries, err := h.store.List(hash, req.Limit)
	if err != nil {
		return mapStoreError(err)
	}
	return rpc.OkWith(rpc.ResponseData{Type: rpc.DataTypeMemoryList, Entries: entries})
}

func (h *Handler) handleMemorySync(req rpc.Request) rpc.Response {
	if resp, ok := h.checkInitGate(req.Cwd); !ok {
		return resp
	}
	hash, err := h.hashFor(req.Cwd)
	if err != nil {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "invalid path")
	}
	if _, err := h.store.Sync(hash); err != nil {
		return mapStoreError(err)
	}
	// MemoryStore.Sync's {total, live, tombstones} stats are an API-level
	// return value only; the wire handler does not surface them.
	return rpc.Ok()
}

func (h *Handler) handleShutdown() rpc.Response {
	h.shuttingDown.Store(true)
	if h.requestShutdown != nil {
		go h.requestShutdown()
	}
	return rpc.Ack()
}

// checkInitGate enforces the init-gate shared by every memory/context
// request: uninitialized projects fail fast with not_initialized.
func (h *Handler) checkInitGate(cwd string) (rpc.Response, bool) {
	if cwd == "" {
		return rpc.Err(rpc.ErrCodeInvalidRequest, "cwd must not be blank"), false
	}
	if !h.projects.IsInitialized(cwd) {
		return rpc.Err(rpc.ErrCodeNotInitialized, "project is not initialized"), false
	}
	return rpc.Response{}, true
}

func (h *Handler) hashFor(cwd string) (string, error) {
	canonical, err := pathhash.Canonicalize(cwd)
	if err != nil {
		return "", err
	}
	return storage.ProjectHash(canonical), nil
}

func mapStoreError(err error) rpc.Response {
	switch {
	case errors.Is(err, memstore.ErrNotFound):
		return rpc.Err(rpc.ErrCodeInvalidRequest, "entry not found")
	case memstore.IsInvalidEntry(err):
		return rpc.Err(rpc.ErrCodeInvalidRequest, err.Error())
	default:
		return rpc.Err(rpc.ErrCodeInternal, err.Error())
	}
}
