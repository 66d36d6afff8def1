package handler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctxmemd/ctxd/internal/config"
	"github.com/ctxmemd/ctxd/internal/contextrender"
	"github.com/ctxmemd/ctxd/internal/memstore"
	"github.com/ctxmemd/ctxd/internal/project"
	"github.com/ctxmemd/ctxd/internal/rpc"
	"github.com/ctxmemd/ctxd/internal/rpcmetrics"
	"github.com/ctxmemd/ctxd/internal/scanner"
	"github.com/ctxmemd/ctxd/internal/storage"
	"github.com/ctxmemd/ctxd/internal/treeview"
)

func newTestHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	dataDir := t.TempDir()
	st := storage.New(dataDir)
	if err := st.EnsureDataDir(); err != nil {
		t.Fatal(err)
	}
	projDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(projDir, "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}

	metrics := rpcmetrics.New()
	mgr := project.NewManager(st, 3, metrics)
	store := memstore.New(st)
	h := New(store, mgr, st, treeview.New(st), contextrender.New(), scanner.New(), metrics, nil, nil, config.AutoInit{})
	return h, projDir
}

func TestPingAndCheckInit(t *testing.T) {
	h, projDir := newTestHandler(t)
	ctx := context.Background()

	resp := h.Handle(ctx, rpc.Request{Action: rpc.ActionPing})
	if resp.Status != rpc.StatusOK || resp.Data.Type != rpc.DataTypePong {
		t.Fatalf("ping resp = %+v", resp)
	}

	resp = h.Handle(ctx, rpc.Request{Action: rpc.ActionCheckInit, Cwd: projDir})
	if resp.Status != rpc.StatusOK || resp.Data.Initialized {
		t.Fatalf("check_init resp = %+v", resp)
	}

	resp = h.Handle(ctx, rpc.Request{Action: rpc.ActionInitProject, Cwd: projDir})
	if resp.Status != rpc.StatusOK {
		t.Fatalf("init_project resp = %+v", resp)
	}

	resp = h.Handle(ctx, rpc.Request{Action: rpc.ActionCheckInit, Cwd: projDir})
	if !resp.Data.Initialized {
		t.Fatalf("expected initialized after init_project")
	}
}

func TestMemoryRequiresInit(t *testing.T) {
	h, projDir := newTestHandler(t)
	ctx := context.Background()

	entry := memstore.Entry{Kind: "note", Content: "hello"}
	resp := h.Handle(ctx, rpc.Request{Action: rpc.ActionMemoryPut, Cwd: projDir, Entry: &entry})
	if resp.Status != rpc.StatusError || resp.Code != rpc.ErrCodeNotInitialized {
		t.Fatalf("resp = %+v, want not_initialized", resp)
	}
}

func TestMemoryPutGetListPatchDelete(t *testing.T) {
	h, projDir := newTestHandler(t)
	ctx := context.Background()

	h.Handle(ctx, rpc.Request{Action: rpc.ActionInitProject, Cwd: projDir})

	entry := memstore.Entry{Kind: "note", Content: "hello"}
	resp := h.Handle(ctx, rpc.Request{Action: rpc.ActionMemoryPut, Cwd: projDir, Entry: &entry})
	if resp.Status != rpc.StatusOK || resp.Data.Entry == nil {
		t.Fatalf("put resp = %+v", resp)
	}
	id := resp.Data.Entry.ID
	if id == "" {
		t.Fatalf("expected generated id")
	}

	resp = h.Handle(ctx, rpc.Request{Action: rpc.ActionMemoryGet, Cwd: projDir, ID: id})
	if resp.Status != rpc.StatusOK || resp.Data.Entry == nil || resp.Data.Entry.Content != "hello" {
		t.Fatalf("get resp = %+v", resp)
	}

	resp = h.Handle(ctx, rpc.Request{Action: rpc.ActionMemoryList, Cwd: projDir, Limit: 10})
	if resp.Status != rpc.StatusOK || len(resp.Data.Entries) != 1 {
		t.Fatalf("list resp = %+v", resp)
	}

	content := "updated"
	resp = h.Handle(ctx, rpc.Request{Action: rpc.ActionMemoryPatch, Cwd: projDir, ID: id, Patch: &memstore.Patch{Content: &content}})
	if resp.Status != rpc.StatusOK || resp.Data.Entry.Content != "updated" {
		t.Fatalf("patch resp = %+v", resp)
	}

	resp = h.Handle(ctx, rpc.Request{Action: rpc.ActionMemoryDelete, Cwd: projDir, ID: id})
	if resp.Status != rpc.StatusOK || !resp.Data.Entry.Deleted {
		t.Fatalf("delete resp = %+v", resp)
	}

	resp = h.Handle(ctx, rpc.Request{Action: rpc.ActionMemoryGet, Cwd: projDir, ID: id})
	if resp.Status != rpc.StatusOK || resp.Data.Entry != nil {
		t.Fatalf("get after delete resp = %+v", resp)
	}
}

func TestMemoryPatchEmptyRejected(t *testing.T) {
	h, projDir := newTestHandler(t)
	ctx := context.Background()
	h.Handle(ctx, rpc.Request{Action: rpc.ActionInitProject, Cwd: projDir})

	resp := h.Handle(ctx, rpc.Request{Action: rpc.ActionMemoryPatch, Cwd: projDir, ID: "x", Patch: &memstore.Patch{}})
	if resp.Status != rpc.StatusError || resp.Code != rpc.ErrCodeInvalidRequest {
		t.Fatalf("resp = %+v, want invalid_request", resp)
	}
}

func TestAutoInitCrossesMinFiles(t *testing.T) {
	h, projDir := newTestHandler(t)
	h.autoInit = config.AutoInit{Enabled: true, MinFiles: 1}

	if h.projects.IsInitialized(projDir) {
		t.Fatalf("project should start uninitialized")
	}

	h.maybeAutoInit(projDir)

	if !h.projects.IsInitialized(projDir) {
		t.Fatalf("expected auto_init to initialize a directory past min_files")
	}
}

func TestAutoInitBelowMinFilesNoOp(t *testing.T) {
	h, projDir := newTestHandler(t)
	h.autoInit = config.AutoInit{Enabled: true, MinFiles: 100}

	h.maybeAutoInit(projDir)

	if h.projects.IsInitialized(projDir) {
		t.Fatalf("directory below min_files must not be auto-initialized")
	}
}

func TestShutdownAcks(t *testing.T) {
	h, _ := newTestHandler(t)
	called := make(chan struct{}, 1)
	h.requestShutdown = func() { called <- struct{}{} }

	resp := h.Handle(context.Background(), rpc.Request{Action: rpc.ActionShutdown})
	if resp.Status != rpc.StatusAck {
		t.Fatalf("resp = %+v, want ack", resp)
	}
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatalf("expected shutdown to be requested")
	}
}
