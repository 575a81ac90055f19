// Package daemon assembles the layman daemon: the compositor connection,
// the event listener, the control server, the config watcher and the
// dispatch loop, all feeding one queue.
package daemon

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/grovetools/layman/config"
	"github.com/grovetools/layman/internal/daemon/engine"
	"github.com/grovetools/layman/internal/daemon/listener"
	"github.com/grovetools/layman/internal/daemon/pidfile"
	"github.com/grovetools/layman/internal/daemon/queue"
	"github.com/grovetools/layman/internal/daemon/server"
	"github.com/grovetools/layman/internal/daemon/store"
	"github.com/grovetools/layman/internal/daemon/watcher"
	"github.com/grovetools/layman/internal/layout/builtin"
	"github.com/grovetools/layman/internal/orchestrator"
	"github.com/grovetools/layman/logging"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/paths"
	"github.com/sourcegraph/conc/pool"
)

const shutdownTimeout = 5 * time.Second

// Options describes one daemon run. Zero values select the defaults.
type Options struct {
	// ConfigPath is the config file. When Explicit is false a missing
	// file means defaults.
	ConfigPath string
	Explicit   bool

	// Socket overrides socketPath from the config.
	Socket string

	PidFile     string
	PresetsDir  string
	SessionsDir string

	// Conn replaces the i3/sway IPC connection.
	Conn compositor.Conn

	// Ready, when set, is closed once the socket accepts connections.
	Ready chan<- struct{}
}

func (o *Options) setDefaults() {
	if o.ConfigPath == "" {
		o.ConfigPath = config.DefaultPath()
	}
	if o.PidFile == "" {
		o.PidFile = paths.PidFilePath()
	}
	if o.PresetsDir == "" {
		o.PresetsDir = paths.PresetsDir()
	}
	if o.SessionsDir == "" {
		o.SessionsDir = paths.SessionsDir()
	}
}

// LoadConfig loads the file named by opts.
func (o Options) LoadConfig() (*config.Config, error) {
	if o.Explicit {
		return config.Load(o.ConfigPath)
	}
	return config.LoadOrDefault(o.ConfigPath, logging.NewLogger("config"))
}

// Run starts the daemon and blocks until ctx is canceled or a component
// fails. The subscription is opened before the initial tree snapshot so
// no event between the two is lost.
func Run(ctx context.Context, opts Options) error {
	opts.setDefaults()

	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	logging.Configure(cfg.Logging)
	defer logging.CloseFiles()
	logger := logging.NewLogger("layman")

	if err := paths.EnsureDirs(); err != nil {
		logger.WithError(err).Warn("Failed to create layman directories")
	}

	if err := pidfile.Acquire(opts.PidFile); err != nil {
		return err
	}
	defer func() {
		if err := pidfile.Release(opts.PidFile); err != nil {
			logger.Errorf("Failed to release pidfile: %v", err)
		}
	}()

	conn := opts.Conn
	if conn == nil {
		conn = compositor.NewI3(logging.NewLogger("compositor"))
	}
	client := compositor.NewCache(
		compositor.NewBatcher(conn, cfg.Layman.BatchCommands),
		cfg.Layman.TreeCacheAge(),
	)

	q := queue.New(queue.DefaultCapacity)
	orch, err := orchestrator.New(client, builtin.NewRegistry(), config.NewOptions(cfg),
		logging.NewLogger("orchestrator"),
		orchestrator.WithStore(store.New(opts.PresetsDir, opts.SessionsDir)),
		orchestrator.WithLoader(opts.LoadConfig),
	)
	if err != nil {
		return err
	}

	lst := listener.New(conn, q, logging.NewLogger("listener"))
	if err := lst.Arm(ctx); err != nil {
		return err
	}
	initial, err := client.Tree(ctx)
	if err != nil {
		return err
	}

	socket := opts.Socket
	if socket == "" {
		socket = cfg.Layman.SocketPath
	}
	srv := server.New(q, cfg.Layman.ReplyTimeout(), logging.NewLogger("server"))
	if err := srv.Listen(socket); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown error: %v", err)
		}
	}()

	eng := engine.New(q, client, orch, logging.NewLogger("engine"),
		engine.WithDebounce(cfg.Layman.EventDebounce()))

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(lst.Run)
	p.Go(srv.Serve)
	p.Go(func(ctx context.Context) error {
		return eng.Run(ctx, initial)
	})

	if cfg.Layman.WatchEnabled() {
		w, err := watcher.New(opts.ConfigPath, watcher.DefaultDebounce, func(string) {
			if err := q.Put(ctx, queue.NewCommand(uuid.NewString(), "reload")); err != nil {
				logger.WithError(err).Debug("Dropped config reload")
			}
		})
		if err != nil {
			logger.WithError(err).WithField("path", opts.ConfigPath).Warn("Config watching disabled")
		} else {
			p.Go(func(ctx context.Context) error {
				w.Start(ctx)
				return nil
			})
		}
	}

	logger.WithField("pid", os.Getpid()).WithField("socket", socket).Info("Starting daemon")
	if opts.Ready != nil {
		close(opts.Ready)
	}

	err = p.Wait()
	logger.Info("layman stopped")
	return err
}
