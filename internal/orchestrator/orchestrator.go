// Package orchestrator owns the per-workspace state of the daemon. It
// routes compositor events and control commands to the layout manager of
// the right workspace and rebuilds a manager that fails.
//
// Every method is called from the dispatch loop goroutine only.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"

	"github.com/grovetools/layman/config"
	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/internal/daemon/store"
	"github.com/grovetools/layman/internal/layout"
	"github.com/grovetools/layman/logging"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/tree"
	"github.com/sirupsen/logrus"
)

// nativeLayouts are handed to the compositor instead of a manager. The
// names are those of the layout command, not of the tree.
var nativeLayouts = map[string]bool{
	"splitv":   true,
	"splith":   true,
	"tabbed":   true,
	"stacking": true,
}

// IsNativeLayout reports whether name is a layout the compositor
// implements itself.
func IsNativeLayout(name string) bool {
	return nativeLayouts[name]
}

// Loader reads the configuration again for a reload.
type Loader func() (*config.Config, error)

// Orchestrator holds every WorkspaceState.
type Orchestrator struct {
	client   compositor.Client
	registry *layout.Registry
	opts     *config.Options
	store    *store.Store
	loader   Loader
	logger   *logrus.Entry

	states map[string]*WorkspaceState
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStore enables the preset and session commands.
func WithStore(s *store.Store) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithLoader enables the reload command.
func WithLoader(l Loader) Option {
	return func(o *Orchestrator) {
		o.loader = l
	}
}

// New creates an orchestrator. It registers the layout variants of opts
// and checks that every configured default layout exists, so a bad
// config fails at startup.
func New(client compositor.Client, registry *layout.Registry, opts *config.Options, logger *logrus.Entry, options ...Option) (*Orchestrator, error) {
	if logger == nil {
		logger = logging.NewLogger("orchestrator")
	}
	if err := registry.LoadVariants(opts); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		client:   client,
		registry: registry,
		opts:     opts,
		logger:   logger,
		states:   make(map[string]*WorkspaceState),
	}
	if err := o.checkLayouts(opts); err != nil {
		return nil, err
	}
	for _, opt := range options {
		opt(o)
	}
	return o, nil
}

// checkLayouts verifies that every defaultLayout in opts names a native
// or registered layout.
func (o *Orchestrator) checkLayouts(opts *config.Options) error {
	cfg := opts.Config()
	check := func(name, scope string) error {
		if name == "" || IsNativeLayout(name) || o.registry.Has(name) {
			return nil
		}
		return errors.UnknownLayout(name, scope, o.registry.Available())
	}
	if err := check(cfg.Layman.DefaultLayout, "layman"); err != nil {
		return err
	}
	names := make([]string, 0, len(cfg.Workspace))
	for name := range cfg.Workspace {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := check(cfg.Workspace[name].DefaultLayout, name); err != nil {
			return err
		}
	}
	return nil
}

// State returns the state of a workspace, if it was initialized.
func (o *Orchestrator) State(name string) (*WorkspaceState, bool) {
	st, ok := o.states[name]
	return st, ok
}

// Options returns the options currently in effect.
func (o *Orchestrator) Options() *config.Options {
	return o.opts
}

// InitWorkspace creates the state of ws and applies its default layout.
// A workspace that already has state is left alone.
func (o *Orchestrator) InitWorkspace(ctx context.Context, ws *tree.Node) {
	if _, ok := o.states[ws.Name]; ok {
		return
	}
	st := newState(ws.Name, o.opts.Settings().HistorySize())
	st.Excluded = o.opts.IsExcluded(ws.Name)
	st.reset(ws)
	o.states[ws.Name] = st

	logger := o.logger.WithField("workspace", ws.Name)
	logger.Debugf("Workspace window ids: %v", st.Windows())
	if st.Excluded {
		logger.Debug("Workspace excluded")
		return
	}
	if err := o.SetWorkspaceLayout(ctx, ws, ws.Name, o.opts.DefaultLayout(ws.Name)); err != nil {
		logger.WithError(err).Error("Failed to set default layout")
	}
}

// ensure returns the state of ws, initializing it when the workspace was
// never seen. fresh reports that initialization happened, in which case
// the workspace's current windows are already accounted for.
func (o *Orchestrator) ensure(ctx context.Context, ws *tree.Node) (st *WorkspaceState, fresh bool) {
	if st, ok := o.states[ws.Name]; ok {
		return st, false
	}
	o.InitWorkspace(ctx, ws)
	return o.states[ws.Name], true
}

// WindowCreated ignores windows the workspace already tracks. The
// subscription is armed before the startup snapshot, so a window opened in
// between is both in the snapshot and replayed as a new event.
func (o *Orchestrator) WindowCreated(ctx context.Context, ev compositor.Event, ws, win *tree.Node) {
	st, fresh := o.ensure(ctx, ws)
	if fresh {
		return
	}
	if st.Has(win.ID) {
		o.logger.WithField("window", win.ID).Debug("Window already tracked")
		return
	}
	st.track(win)
	o.windowAdded(ctx, ev, st, ws, win)
}

// WindowClosed finds the workspace that tracked the window. The window
// is gone from root, and so is its workspace if it was the last window of
// an unfocused one.
func (o *Orchestrator) WindowClosed(ctx context.Context, ev compositor.Event, root *tree.Node) {
	id := ev.ContainerID()
	st := o.owner(id)
	if st == nil {
		o.logger.WithField("window", id).Debug("Closed window was not tracked")
		return
	}
	ws := root.FindWorkspace(st.Name)

	st.forget(id)
	st.History.Remove(id)
	if st.FakeFullscreen && st.FakeFullscreenWindowID == id {
		st.FakeFullscreen = false
		st.FakeFullscreenWindowID = 0
		st.SavedStackLayout = ""
	}
	o.windowRemoved(ctx, ev, st, ws, ev.Container)
}

func (o *Orchestrator) WindowFocused(ctx context.Context, ev compositor.Event, ws, win *tree.Node) {
	st, _ := o.ensure(ctx, ws)
	if st.Excluded {
		return
	}
	st.History.Push(win.ID)
	if st.Manager == nil {
		return
	}
	o.guard(ctx, st, ws, func() error {
		return st.Manager.WindowFocused(ctx, ev, ws, win)
	})
}

// WindowMoved handles a window moving within its workspace or to another
// one. toWs is the workspace the window is on now.
func (o *Orchestrator) WindowMoved(ctx context.Context, ev compositor.Event, root, toWs, win *tree.Node) {
	from := o.owner(win.ID)
	to, fresh := o.ensure(ctx, toWs)

	switch {
	case from == nil:
		if fresh {
			return
		}
		to.track(win)
		o.windowAdded(ctx, ev, to, toWs, win)
	case from == to:
		if to.Excluded || to.Manager == nil {
			return
		}
		o.guard(ctx, to, toWs, func() error {
			return to.Manager.WindowMoved(ctx, ev, toWs, win)
		})
	default:
		o.logger.WithField("window", win.ID).
			Debugf("Window moved from workspace %s to %s", from.Name, to.Name)
		from.forget(win.ID)
		from.History.Remove(win.ID)
		o.windowRemoved(ctx, ev, from, root.FindWorkspace(from.Name), win)
		if fresh {
			return
		}
		to.track(win)
		o.windowAdded(ctx, ev, to, toWs, win)
	}
}

// WindowFloating handles a window toggling between floating and tiled.
// Managers that do not support floating see it as a removal or an
// addition.
func (o *Orchestrator) WindowFloating(ctx context.Context, ev compositor.Event, ws, win *tree.Node) {
	st, fresh := o.ensure(ctx, ws)
	if fresh {
		return
	}
	if st.tracksAs(win) {
		o.logger.WithField("window", win.ID).Debug("Floating state unchanged")
		return
	}
	st.track(win)
	if st.Excluded {
		return
	}
	if st.Manager != nil && st.Manager.Capabilities().SupportsFloating {
		o.guard(ctx, st, ws, func() error {
			return st.Manager.WindowFloating(ctx, ev, ws, win)
		})
		return
	}
	if win.IsFloating() {
		o.windowRemoved(ctx, ev, st, ws, win)
	} else {
		o.windowAdded(ctx, ev, st, ws, win)
	}
}

func (o *Orchestrator) windowAdded(ctx context.Context, ev compositor.Event, st *WorkspaceState, ws, win *tree.Node) {
	if st.Excluded {
		o.logger.WithField("workspace", st.Name).Debug("Workspace excluded")
		return
	}
	if st.Manager == nil {
		o.setNativeLayout(ctx, st)
		return
	}
	o.logger.WithField("workspace", st.Name).Debugf("Calling windowAdded for window id %d", win.ID)
	o.guard(ctx, st, ws, func() error {
		return st.Manager.WindowAdded(ctx, ev, ws, win)
	})
}

// windowRemoved accepts a nil ws for a workspace that no longer exists.
func (o *Orchestrator) windowRemoved(ctx context.Context, ev compositor.Event, st *WorkspaceState, ws, win *tree.Node) {
	if st.Excluded {
		o.logger.WithField("workspace", st.Name).Debug("Workspace excluded")
		return
	}
	if st.Manager == nil {
		if ws != nil {
			o.setNativeLayout(ctx, st)
		}
		return
	}
	o.logger.WithField("workspace", st.Name).Debugf("Calling windowRemoved for window id %d", win.ID)
	o.guard(ctx, st, ws, func() error {
		return st.Manager.WindowRemoved(ctx, ev, ws, win)
	})
}

// owner returns the state tracking window id, or nil.
func (o *Orchestrator) owner(id int64) *WorkspaceState {
	for _, name := range o.names() {
		if st := o.states[name]; st.Has(id) {
			return st
		}
	}
	return nil
}

func (o *Orchestrator) names() []string {
	names := make([]string, 0, len(o.states))
	for name := range o.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// setNativeLayout applies a native layout to a workspace holding a single
// window. With more windows the compositor cannot be told reliably.
func (o *Orchestrator) setNativeLayout(ctx context.Context, st *WorkspaceState) {
	logger := o.logger.WithField("workspace", st.Name)
	if len(st.WindowIDs) != 1 {
		logger.Debugf("Workspace has %d windows. ignoring.", len(st.WindowIDs))
		return
	}
	if st.Manager != nil || !IsNativeLayout(st.LayoutName) {
		logger.Debugf("Workspace has layout %s. ignoring.", st.LayoutName)
		return
	}
	id := st.Windows()[0]
	o.run(ctx, fmt.Sprintf("[con_id=%d] split none", id))
	o.run(ctx, fmt.Sprintf("[con_id=%d] layout %s", id, st.LayoutName))
}

// SetWorkspaceLayout replaces the layout of workspace name. An empty
// layoutName rebuilds the current one. ws is nil when the workspace does
// not exist in the tree. On error the state keeps its previous layout.
func (o *Orchestrator) SetWorkspaceLayout(ctx context.Context, ws *tree.Node, name, layoutName string) error {
	st, ok := o.states[name]
	if !ok {
		return errors.LookupMiss("workspace", name)
	}
	if layoutName == "" {
		layoutName = st.LayoutName
	}
	logger := o.logger.WithField("workspace", name)
	if st.Excluded {
		logger.Errorf("Attempting to set layout for excluded workspace %s", name)
		return nil
	}

	if IsNativeLayout(layoutName) {
		st.Manager = nil
		st.LayoutName = layoutName
		if ws != nil {
			o.setNativeLayout(ctx, st)
		}
	} else {
		m, err := o.registry.Create(ctx, layoutName, layout.Params{
			Client:        o.client,
			Workspace:     ws,
			WorkspaceName: name,
			Options:       o.opts,
		})
		if err != nil {
			return err
		}
		st.Manager = m
		st.LayoutName = layoutName
	}
	logger.Debugf("Initialized workspace %s with layout %s", name, layoutName)
	return nil
}

// guard runs one manager call. A returned error or a panic discards the
// manager and builds a fresh one of the same layout from a new snapshot.
// The failure is logged and never propagated.
func (o *Orchestrator) guard(ctx context.Context, st *WorkspaceState, ws *tree.Node, call func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		return call()
	}()
	if err == nil {
		return
	}

	layoutName := st.LayoutName
	o.logger.WithError(errors.AlgorithmFailure(layoutName, st.Name, err)).
		Error("Layout manager failed, rebuilding")

	fresh := ws
	if root, treeErr := o.client.Tree(ctx); treeErr != nil {
		o.logger.WithError(treeErr).Warn("Failed to fetch tree for rebuild")
	} else {
		fresh = root.FindWorkspace(st.Name)
	}
	if err := o.SetWorkspaceLayout(ctx, fresh, st.Name, ""); err != nil {
		o.logger.WithError(err).WithField("workspace", st.Name).Error("Failed to rebuild layout manager")
	}
}

// Reload reads the configuration again and applies it. Existing managers
// keep the options they were built with until they are rebuilt. On error
// the running configuration stays in effect.
func (o *Orchestrator) Reload(ctx context.Context) error {
	if o.loader == nil {
		return errors.New(errors.ErrCodeInternal, "reload is not available")
	}
	cfg, err := o.loader()
	if err != nil {
		return err
	}
	opts := config.NewOptions(cfg)
	if err := o.registry.LoadVariants(opts); err != nil {
		return err
	}
	if err := o.checkLayouts(opts); err != nil {
		_ = o.registry.LoadVariants(o.opts)
		return err
	}
	o.opts = opts
	for _, st := range o.states {
		st.Excluded = opts.IsExcluded(st.Name)
	}
	logging.Configure(cfg.Logging)
	o.logger.Info("Reloaded layman config")
	return nil
}

func (o *Orchestrator) run(ctx context.Context, cmd string) {
	_ = compositor.Run(ctx, o.client, o.logger, cmd)
}
