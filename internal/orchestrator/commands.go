package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/internal/daemon/store"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/tree"
)

// OnCommand runs a control-channel line. Each ';'-separated command is
// handled in turn; the replies are joined with newlines.
func (o *Orchestrator) OnCommand(ctx context.Context, text string) string {
	var replies []string
	for _, cmd := range compositor.SplitCommands(text) {
		reply, err := o.HandleCommand(ctx, cmd)
		if err != nil {
			o.logger.WithError(err).WithField("command", cmd).Error("Command failed")
			reply = "Error: " + errors.Message(err)
		}
		if reply != "" {
			replies = append(replies, reply)
		}
	}
	if len(replies) == 0 {
		return "OK"
	}
	return strings.Join(replies, "\n")
}

// HandleCommand runs a single command, without ';'.
func (o *Orchestrator) HandleCommand(ctx context.Context, cmd string) (string, error) {
	cmd = strings.TrimSpace(cmd)

	switch {
	case cmd == "reload":
		if err := o.Reload(ctx); err != nil {
			return "", err
		}
		return "Reloaded config", nil
	case cmd == "dump":
		return o.Dump()
	case cmd == "status":
		return o.Status(false)
	case cmd == "status --json":
		return o.Status(true)
	case strings.HasPrefix(cmd, "session "):
		return o.sessionCommand(ctx, strings.TrimPrefix(cmd, "session "))
	case strings.HasPrefix(cmd, "preset "):
		return o.presetCommand(ctx, strings.TrimPrefix(cmd, "preset "))
	}

	root, err := o.client.Tree(ctx)
	if err != nil {
		return "", err
	}
	ws := root.FocusedWorkspace()
	if ws == nil || o.opts.IsExcluded(ws.Name) {
		o.run(ctx, cmd)
		return "Passed to compositor: " + cmd, nil
	}
	st, _ := o.ensure(ctx, ws)
	if st.Excluded {
		o.run(ctx, cmd)
		return "Passed to compositor: " + cmd, nil
	}

	if rest, ok := strings.CutPrefix(cmd, "layout "); ok {
		return o.layoutCommand(ctx, cmd, rest, st, ws)
	}

	if sub, ok := strings.CutPrefix(cmd, "window "); ok {
		if sub == "focus previous" {
			return o.focusPrevious(ctx, st), nil
		}
		if o.passThrough(ctx, sub, st) {
			return "", nil
		}
		return o.toManager(ctx, st, ws, sub), nil
	}
	if sub, ok := strings.CutPrefix(cmd, "stack "); ok {
		return o.toManager(ctx, st, ws, sub), nil
	}
	if strings.HasPrefix(cmd, "master ") {
		return o.toManager(ctx, st, ws, cmd), nil
	}

	if o.passThrough(ctx, cmd, st) {
		return "", nil
	}
	if st.Manager == nil {
		o.logger.WithField("workspace", st.Name).Debug("No manager for workspace, ignoring")
		return "", nil
	}
	o.guard(ctx, st, ws, func() error {
		return st.Manager.OnCommand(ctx, cmd, ws)
	})
	return "", nil
}

func (o *Orchestrator) layoutCommand(ctx context.Context, cmd, rest string, st *WorkspaceState, ws *tree.Node) (string, error) {
	if name, ok := strings.CutPrefix(rest, "set "); ok {
		name = strings.TrimSpace(name)
		if err := o.SetWorkspaceLayout(ctx, ws, ws.Name, name); err != nil {
			return "", err
		}
		return "Layout set to " + name, nil
	}
	if rest == "maximize" {
		o.ToggleFakeFullscreen(ctx, ws, st)
		return "Maximize toggled", nil
	}
	msg := fmt.Sprintf("Unknown layout command: '%s'", cmd)
	o.logger.Error(msg)
	return msg, nil
}

// passThrough sends move and focus commands to the compositor unless the
// manager handles them itself. It reports whether it did.
func (o *Orchestrator) passThrough(ctx context.Context, cmd string, st *WorkspaceState) bool {
	var caps struct{ move, focus bool }
	if st.Manager != nil {
		c := st.Manager.Capabilities()
		caps.move, caps.focus = c.OverridesMoveBinds, c.OverridesFocusBinds
	}
	if (strings.HasPrefix(cmd, "move") && !caps.move) || (strings.HasPrefix(cmd, "focus") && !caps.focus) {
		o.logger.WithField("workspace", st.Name).Debugf("Handling bind \"%s\"", cmd)
		o.run(ctx, cmd)
		return true
	}
	return false
}

func (o *Orchestrator) toManager(ctx context.Context, st *WorkspaceState, ws *tree.Node, sub string) string {
	if st.Manager == nil {
		o.logger.WithField("workspace", st.Name).Debug("No manager for workspace, ignoring")
		return "No manager for workspace " + st.Name
	}
	name := st.Manager.Name()
	o.guard(ctx, st, ws, func() error {
		return st.Manager.OnCommand(ctx, sub, ws)
	})
	return fmt.Sprintf("Processed by %s: %s", name, sub)
}

func (o *Orchestrator) focusPrevious(ctx context.Context, st *WorkspaceState) string {
	id, ok := st.History.Previous()
	if !ok {
		o.logger.Debug("No previous window in focus history")
		return "No previous focus history"
	}
	o.run(ctx, fmt.Sprintf("[con_id=%d] focus", id))
	return fmt.Sprintf("Focus previous: window %d", id)
}

// ToggleFakeFullscreen shows only the focused window of ws while keeping
// bars visible. A manager does it through its maximize command; native
// layouts switch to tabbed and back.
func (o *Orchestrator) ToggleFakeFullscreen(ctx context.Context, ws *tree.Node, st *WorkspaceState) {
	logger := o.logger.WithField("workspace", st.Name)

	if st.FakeFullscreen {
		st.FakeFullscreen = false
		st.FakeFullscreenWindowID = 0
		if st.Manager != nil {
			o.guard(ctx, st, ws, func() error {
				return st.Manager.OnCommand(ctx, "maximize", ws)
			})
		} else if st.SavedStackLayout != "" {
			if ids := st.Windows(); len(ids) > 0 {
				o.run(ctx, fmt.Sprintf("[con_id=%d] layout %s", ids[0], commandLayout(st.SavedStackLayout)))
			}
			st.SavedStackLayout = ""
		}
		logger.Debug("Exited fake fullscreen")
		return
	}

	focused := ws.FindFocused()
	if focused == nil || !focused.IsLeaf() {
		logger.Debug("No focused window for fake fullscreen")
		return
	}
	st.FakeFullscreenWindowID = focused.ID
	if st.Manager != nil {
		o.guard(ctx, st, ws, func() error {
			return st.Manager.OnCommand(ctx, "maximize", ws)
		})
	} else if ids := st.Windows(); len(ids) > 0 {
		if focused.Parent != nil {
			st.SavedStackLayout = focused.Parent.Layout
		}
		o.run(ctx, fmt.Sprintf("[con_id=%d] layout tabbed", ids[0]))
	}
	st.FakeFullscreen = true
	logger.Debug("Entered fake fullscreen")
}

// commandLayout maps a tree layout to the argument of the layout command.
func commandLayout(treeLayout string) string {
	if treeLayout == tree.LayoutStacked {
		return "stacking"
	}
	return treeLayout
}

func (o *Orchestrator) sessionCommand(ctx context.Context, sub string) (string, error) {
	if o.store == nil {
		return "", errors.New(errors.ErrCodeInternal, "session storage is not configured")
	}
	action, name, _ := strings.Cut(strings.TrimSpace(sub), " ")
	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}

	switch action {
	case "save":
		root, err := o.client.Tree(ctx)
		if err != nil {
			return "", err
		}
		path, err := o.store.Sessions.Save(name, o.snapshotSession(name, root))
		if err != nil {
			return "", err
		}
		msg := "Session saved to " + path
		o.logger.Debug(msg)
		return msg, nil
	case "restore":
		sess, err := o.store.Sessions.Load(name)
		if err != nil {
			return "", err
		}
		if sess == nil {
			return "Session not found: " + name, nil
		}
		if err := o.restoreSession(ctx, sess); err != nil {
			return "", err
		}
		return fmt.Sprintf("Session %s restored", name), nil
	case "list":
		names, err := o.store.Sessions.List()
		if err != nil {
			return "", err
		}
		return "Sessions: " + listOrNone(names), nil
	case "delete":
		if _, err := o.store.Sessions.Delete(name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Session %s deleted", name), nil
	}
	msg := fmt.Sprintf("Unknown session command: '%s'", sub)
	o.logger.Error(msg)
	return msg, nil
}

// windowLister is implemented by managers that keep a window order.
type windowLister interface {
	WindowIDs() []int64
}

func (o *Orchestrator) snapshotSession(name string, root *tree.Node) *store.Session {
	sess := &store.Session{Name: name, SavedAt: time.Now()}
	for _, ws := range root.Workspaces() {
		entry := store.WorkspaceSession{Workspace: ws.Name, LayoutName: ws.Layout}
		if entry.LayoutName == "" {
			entry.LayoutName = tree.LayoutSplitH
		}
		entry.WindowIDs = ws.LeafIDs()
		if st, ok := o.states[ws.Name]; ok {
			entry.LayoutName = st.LayoutName
			if l, ok := st.Manager.(windowLister); ok {
				entry.WindowIDs = l.WindowIDs()
			}
		}
		for i, id := range entry.WindowIDs {
			slot := store.WindowSlot{ID: id, Index: i}
			if win := ws.FindByID(id); win != nil {
				slot.AppID, slot.Class = win.AppID, win.Class
			}
			entry.Windows = append(entry.Windows, slot)
		}
		sess.Workspaces = append(sess.Workspaces, entry)
	}
	return sess
}

// restoreSession applies the saved layout of every workspace that exists
// now. Failures are logged and the rest of the session still applies.
func (o *Orchestrator) restoreSession(ctx context.Context, sess *store.Session) error {
	root, err := o.client.Tree(ctx)
	if err != nil {
		return err
	}
	for _, saved := range sess.Workspaces {
		ws := root.FindWorkspace(saved.Workspace)
		if ws == nil {
			o.logger.WithField("workspace", saved.Workspace).Debug("Saved workspace does not exist, skipping")
			continue
		}
		st, _ := o.ensure(ctx, ws)
		if st.Excluded || saved.LayoutName == "" {
			continue
		}
		if err := o.SetWorkspaceLayout(ctx, ws, ws.Name, saved.LayoutName); err != nil {
			o.logger.WithError(err).WithField("workspace", ws.Name).Error("Failed to restore layout")
		}
	}
	return nil
}

func (o *Orchestrator) presetCommand(ctx context.Context, sub string) (string, error) {
	if o.store == nil {
		return "", errors.New(errors.ErrCodeInternal, "preset storage is not configured")
	}
	action, name, _ := strings.Cut(strings.TrimSpace(sub), " ")
	name = strings.TrimSpace(name)

	switch {
	case action == "save" && name != "":
		ws, err := o.focusedWorkspace(ctx)
		if err != nil {
			return "", err
		}
		st, ok := o.stateOf(ws)
		if !ok {
			return o.logError("No focused workspace for preset save"), nil
		}
		preset := &store.Preset{
			Name:       name,
			LayoutName: st.LayoutName,
			Options:    o.opts.Merged(st.Name, ""),
			SavedAt:    time.Now(),
		}
		if _, err := o.store.Presets.Save(name, preset); err != nil {
			return "", err
		}
		return "Preset saved: " + name, nil
	case action == "load" && name != "":
		preset, err := o.store.Presets.Load(name)
		if err != nil {
			return "", err
		}
		if preset == nil {
			return o.logError("Preset not found: " + name), nil
		}
		ws, err := o.focusedWorkspace(ctx)
		if err != nil {
			return "", err
		}
		if ws == nil {
			return o.logError("No focused workspace for preset load"), nil
		}
		o.ensure(ctx, ws)
		if err := o.SetWorkspaceLayout(ctx, ws, ws.Name, preset.LayoutName); err != nil {
			return "", err
		}
		return fmt.Sprintf("Preset loaded: %s (%s)", name, preset.LayoutName), nil
	case action == "list":
		names, err := o.store.Presets.List()
		if err != nil {
			return "", err
		}
		return "Presets: " + listOrNone(names), nil
	case action == "delete" && name != "":
		if _, err := o.store.Presets.Delete(name); err != nil {
			return "", err
		}
		return fmt.Sprintf("Preset %s deleted", name), nil
	}
	return o.logError(fmt.Sprintf("Unknown preset command: '%s'", sub)), nil
}

func (o *Orchestrator) focusedWorkspace(ctx context.Context) (*tree.Node, error) {
	root, err := o.client.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return root.FocusedWorkspace(), nil
}

func (o *Orchestrator) stateOf(ws *tree.Node) (*WorkspaceState, bool) {
	if ws == nil {
		return nil, false
	}
	return o.State(ws.Name)
}

func (o *Orchestrator) logError(msg string) string {
	o.logger.Error(msg)
	return msg
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
