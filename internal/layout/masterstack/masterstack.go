// Package masterstack implements the MasterStack layout: one master window
// (or a column of them) on one side of the workspace and every other window
// in a stack on the other side. Once the stack grows past
// visibleStackLimit, the overflow is nested into a stacking substack.
//
// The manager keeps the logical order in windowIDs, master first, and
// issues the swap, move and resize commands that make the compositor tree
// match it.
package masterstack

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/internal/layout"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/tree"
)

// Name is the registry name of the layout.
const Name = "MasterStack"

const moveMark = "move_target"

// MasterStack is the layout manager for one workspace.
type MasterStack struct {
	layout.Base
	knobs

	// windowIDs holds the tiled windows, master first.
	windowIDs   []int64
	floatingIDs map[int64]struct{}

	substack      bool
	lastFocusedID int64
	maximized     bool

	masterWidthBeforeMaximize int64
	lastKnownMasterWidth      int64
}

var _ layout.Manager = (*MasterStack)(nil)

// New is the layout.Factory for MasterStack. Windows already on the
// workspace are arranged immediately, the focused one becoming master.
func New(ctx context.Context, p layout.Params) (layout.Manager, error) {
	k, err := loadKnobs(p)
	if err != nil {
		return nil, err
	}
	m := &MasterStack{
		Base:        layout.NewBase(p, Name),
		knobs:       k,
		floatingIDs: make(map[int64]struct{}),
	}
	if p.Workspace != nil {
		m.arrange(ctx, p.Workspace)
		for _, f := range p.Workspace.FloatingLeaves() {
			m.floatingIDs[f.ID] = struct{}{}
		}
		m.Logger.Debugf("floating window ids: %v", m.floatingList())
	}
	if err := m.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MasterStack) Capabilities() layout.Capabilities {
	return layout.Capabilities{
		OverridesMoveBinds:  true,
		OverridesFocusBinds: true,
		SupportsFloating:    true,
	}
}

func (m *MasterStack) WindowAdded(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	if win.IsFloating() {
		m.floatingIDs[win.ID] = struct{}{}
		m.Logger.Debugf("floating window ids: %v", m.floatingList())
		return nil
	}
	m.push(ctx, ws, win, nil)
	m.Logger.Debugf("Added window id: %d", win.ID)
	return m.Err()
}

func (m *MasterStack) WindowRemoved(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	if win.IsFloating() {
		if _, ok := m.floatingIDs[win.ID]; !ok {
			m.Logger.Errorf("Floating window ID %d not found", win.ID)
			return nil
		}
		delete(m.floatingIDs, win.ID)
		m.Logger.Debugf("floating window ids: %v", m.floatingList())
		return nil
	}
	m.pop(ctx, win)
	m.Logger.Debugf("Removed window id: %d", win.ID)
	return m.Err()
}

func (m *MasterStack) WindowFocused(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	if win.IsFloating() {
		return nil
	}
	m.lastFocusedID = win.ID
	m.updateMasterWidth(ws, win)
	return nil
}

// WindowMoved only refreshes the tracked master width: the compositor
// sends no event for a mouse resize, so every move or focus is used to
// catch up.
func (m *MasterStack) WindowMoved(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	if win.IsFloating() {
		return nil
	}
	m.updateMasterWidth(ws, win)
	return nil
}

func (m *MasterStack) WindowFloating(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	if win.IsFloating() {
		m.Logger.Debugf("Transitioning window id %d to floating", win.ID)
		m.pop(ctx, win)
		m.floatingIDs[win.ID] = struct{}{}
	} else {
		m.Logger.Debugf("Transitioning window id %d to not floating", win.ID)
		delete(m.floatingIDs, win.ID)
		m.push(ctx, ws, win, nil)
	}
	m.Logger.Debugf("floating window ids: %v", m.floatingList())
	return m.Err()
}

// OnCommand runs one of the layout's sub-commands against ws, the
// focused workspace.
func (m *MasterStack) OnCommand(ctx context.Context, cmd string, ws *tree.Node) error {
	m.Logger.Debugf("received command '%s' with window ids %v", cmd, m.windowIDs)

	switch cmd {
	case "focus up":
		m.focusRelative(ctx, ws, -1)
	case "focus down":
		m.focusRelative(ctx, ws, 1)
	case "focus master":
		if len(m.windowIDs) == 0 {
			m.Logger.Debug("No windows to focus")
			break
		}
		m.run(ctx, "[con_id=%d] focus", m.windowIDs[0])
	case "toggle":
		m.toggleStackLayout(ctx)
	case "side toggle":
		m.toggleStackSide(ctx, ws)
	case "maximize":
		m.toggleMaximize(ctx, ws)
	case "master add":
		m.addMaster(ctx, ws)
	case "master remove":
		m.removeMaster(ctx, ws)
	default:
		m.onFocusedCommand(ctx, cmd, ws)
	}
	return m.Err()
}

// onFocusedCommand handles the sub-commands that act on the focused
// window, which must be tracked.
func (m *MasterStack) onFocusedCommand(ctx context.Context, cmd string, ws *tree.Node) {
	focused := ws.FindFocused()
	if focused == nil {
		m.Logger.Debug("no focused window, ignoring")
		return
	}
	if m.indexOf(focused.ID) < 0 {
		m.Logger.Debugf("focused window %d not in tracked window ids %v, ignoring", focused.ID, m.windowIDs)
		return
	}

	switch {
	case cmd == "move up":
		m.moveRelative(ctx, focused, -1)
	case cmd == "move down":
		m.moveRelative(ctx, focused, 1)
	case cmd == "move right":
		m.moveHorizontally(ctx, ws, focused, Right)
	case cmd == "move left":
		m.moveHorizontally(ctx, ws, focused, Left)
	case cmd == "move to master":
		m.moveToIndex(ctx, focused, 0)
	case cmd == "rotate ccw":
		m.rotate(ctx, ws, false)
	case cmd == "rotate cw":
		m.rotate(ctx, ws, true)
	case cmd == "swap master":
		master := ws.FindByID(m.windowIDs[0])
		if master == nil {
			m.Fail(errors.LookupMiss("master window", m.windowIDs[0]))
			return
		}
		m.swap(ctx, focused, master)
	case strings.HasPrefix(cmd, "move to index"):
		m.moveToIndexCommand(ctx, cmd, focused)
	default:
		m.Logger.Errorf("Unknown command: '%s'", cmd)
	}
}

func (m *MasterStack) moveToIndexCommand(ctx context.Context, cmd string, focused *tree.Node) {
	fields := strings.Split(cmd, " ")
	if len(fields) == 4 {
		if index, err := strconv.Atoi(fields[3]); err == nil {
			if index >= 0 && index < len(m.windowIDs) {
				m.moveToIndex(ctx, focused, index)
			} else {
				m.Logger.Debugf("index %d out of range.", index)
			}
			return
		}
	}
	m.Logger.Debug("Usage: move to index <i>")
}

func (m *MasterStack) DumpState() map[string]any {
	state := m.Base.DumpState()
	state["windowIds"] = append([]int64{}, m.windowIDs...)
	state["floatingWindowIds"] = m.floatingList()
	state["masterWidth"] = m.masterWidth
	state["stackLayout"] = m.stackLayout.String()
	state["stackSide"] = m.stackSide.String()
	state["visibleStackLimit"] = m.visibleStackLimit
	state["masterCount"] = m.masterCount
	state["substackExists"] = m.substack
	state["lastFocusedWindowId"] = m.lastFocusedID
	state["maximized"] = m.maximized
	return state
}

// WindowIDs returns the tracked tiled windows, master first.
func (m *MasterStack) WindowIDs() []int64 {
	return append([]int64{}, m.windowIDs...)
}

func (m *MasterStack) run(ctx context.Context, format string, args ...any) {
	m.Command(ctx, fmt.Sprintf(format, args...))
}

func (m *MasterStack) moveCommand(ctx context.Context, moveID, targetID int64) {
	m.run(ctx, "[con_id=%d] mark --add %s", targetID, moveMark)
	m.run(ctx, "[con_id=%d] move window to mark %s", moveID, moveMark)
	m.run(ctx, "[con_id=%d] unmark %s", targetID, moveMark)
	m.Logger.Debugf("Moved window %d to mark on window %d", moveID, targetID)
}

func (m *MasterStack) swapCommand(ctx context.Context, firstID, secondID int64) {
	m.run(ctx, "[con_id=%d] swap container with con_id %d", firstID, secondID)
}

func (m *MasterStack) indexOf(id int64) int {
	for i, w := range m.windowIDs {
		if w == id {
			return i
		}
	}
	return -1
}

func (m *MasterStack) floatingList() []int64 {
	ids := make([]int64, 0, len(m.floatingIDs))
	for id := range m.floatingIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *MasterStack) insertAt(i int, id int64) {
	m.windowIDs = append(m.windowIDs, 0)
	copy(m.windowIDs[i+1:], m.windowIDs[i:])
	m.windowIDs[i] = id
}

func (m *MasterStack) remove(id int64) {
	if i := m.indexOf(id); i >= 0 {
		m.windowIDs = append(m.windowIDs[:i], m.windowIDs[i+1:]...)
	}
}

func (m *MasterStack) updateMasterWidth(ws, win *tree.Node) {
	if len(m.windowIDs) == 0 {
		return
	}
	var master *tree.Node
	if win != nil && win.ID == m.windowIDs[0] {
		master = win
	} else {
		master = ws.FindByID(m.windowIDs[0])
	}
	if master == nil || master.Rect.Width <= 0 {
		return
	}
	if old := m.lastKnownMasterWidth; old != master.Rect.Width {
		m.lastKnownMasterWidth = master.Rect.Width
		m.Logger.Debugf("Master width updated: %dpx -> %dpx", old, master.Rect.Width)
	}
}
