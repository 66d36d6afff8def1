// Package daemon wires the daemon's lifecycle: configuration, the PID
// lock, the component graph, the accept loop, and uniform signal-driven
// shutdown.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ctxmemd/ctxd/internal/config"
	"github.com/ctxmemd/ctxd/internal/contextrender"
	"github.com/ctxmemd/ctxd/internal/handler"
	"github.com/ctxmemd/ctxd/internal/lockfile"
	"github.com/ctxmemd/ctxd/internal/memstore"
	"github.com/ctxmemd/ctxd/internal/project"
	"github.com/ctxmemd/ctxd/internal/rpc"
	"github.com/ctxmemd/ctxd/internal/rpcmetrics"
	"github.com/ctxmemd/ctxd/internal/scanner"
	"github.com/ctxmemd/ctxd/internal/storage"
	"github.com/ctxmemd/ctxd/internal/treeview"
)

// Daemon owns the process-wide singletons (PID lock, socket) and the
// in-process component graph.
type Daemon struct {
	cfg    config.Config
	logger *slog.Logger

	lock   *lockfile.Lock
	server *rpc.Server

	shutdownOnce sync.Once
	cancel       context.CancelFunc
}

// New constructs a Daemon from configuration, without starting it.
func New(cfg config.Config, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{cfg: cfg, logger: logger}
}

// Run acquires the PID lock, opens the socket, and blocks accepting
// connections until SIGINT/SIGTERM or a shutdown request is handled.
// Cleanup (socket and PID file removal) happens on every exit path.
func (d *Daemon) Run() error {
	st := storage.New(d.cfg.DataDir)
	if err := st.EnsureDataDir(); err != nil {
		return fmt.Errorf("daemon: ensure data dir: %w", err)
	}

	lock, err := lockfile.Acquire(d.cfg.PIDFile)
	if err != nil {
		return fmt.Errorf("daemon: acquire pid lock: %w", err)
	}
	d.lock = lock
	defer d.lock.Release()

	metrics := rpcmetrics.New()
	projects := project.NewManager(st, d.cfg.MaxProjects, metrics)
	store := memstore.New(st)

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	defer cancel()

	h := handler.New(store, projects, st, treeview.New(st), contextrender.New(), scanner.New(), metrics, d.logger, d.Shutdown, d.cfg.AutoInit)

	d.server = rpc.NewServer(d.cfg.SocketPath, h, d.logger, metrics)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		d.logger.Info("received signal, shutting down", "signal", sig.String())
		d.Shutdown()
	}()
	defer signal.Stop(sigCh)

	d.logger.Info("daemon starting", "socket_path", d.cfg.SocketPath, "data_dir", d.cfg.DataDir)
	return d.server.Run(ctx)
}

// Shutdown requests a graceful stop. Idempotent.
func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
		if d.server != nil {
			d.server.Shutdown()
		}
	})
}
