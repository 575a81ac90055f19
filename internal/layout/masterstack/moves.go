package masterstack

import (
	"context"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/pkg/tree"
)

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}

// moveToIndex moves win to position target of windowIDs.
func (m *MasterStack) moveToIndex(ctx context.Context, win *tree.Node, target int) {
	if target < 0 || target >= len(m.windowIDs) {
		m.Logger.Warnf("Move target %d outside window list of %d", target, len(m.windowIDs))
		return
	}
	if len(m.windowIDs) <= 1 {
		m.Logger.Debug("not enough windows to move any")
		return
	}
	source := m.indexOf(win.ID)
	if source < 0 {
		return
	}
	if source == target {
		m.Logger.Debug("noop move. likely a bug.")
		return
	}

	if m.maximized {
		m.moveMaximized(ctx, win, source, target)
	} else if !m.moveNormal(ctx, win, source, target) && m.substack {
		m.rebalanceAfterMove(ctx, win, source, target)
	}

	m.remove(win.ID)
	m.insertAt(target, win.ID)
	m.Logger.Debugf("window ids: %v", m.windowIDs)
}

// moveMaximized moves a window within the single tabbed container.
func (m *MasterStack) moveMaximized(ctx context.Context, win *tree.Node, source, target int) {
	if target == 0 {
		m.moveCommand(ctx, win.ID, m.windowIDs[0])
		m.swapCommand(ctx, win.ID, m.windowIDs[0])
		return
	}
	anchor := target
	if target < source {
		anchor = target - 1
	}
	m.moveCommand(ctx, win.ID, m.windowIDs[anchor])
}

// moveNormal issues the commands for a move in master/stack shape. It
// reports whether the substack is still balanced afterwards.
func (m *MasterStack) moveNormal(ctx context.Context, win *tree.Node, source, target int) bool {
	masterID := m.windowIDs[0]
	topOfStackID := m.windowIDs[1]

	switch {
	case (source == 0 && target == 1) || (source == 1 && target == 0):
		m.swapCommand(ctx, masterID, topOfStackID)
	case source == 0:
		// Master into the stack.
		m.swapCommand(ctx, topOfStackID, masterID)
		m.moveCommand(ctx, masterID, m.windowIDs[target])
	case target == 0:
		// Stack window becomes master.
		m.swapCommand(ctx, masterID, m.windowIDs[source])
		m.moveCommand(ctx, masterID, m.windowIDs[1])
		m.swapCommand(ctx, masterID, m.windowIDs[1])
	case source-target == 1 || target-source == 1:
		m.swapCommand(ctx, m.windowIDs[source], m.windowIDs[target])
		return true
	case target == 1:
		m.moveCommand(ctx, m.windowIDs[source], topOfStackID)
		m.swapCommand(ctx, m.windowIDs[source], topOfStackID)
	case m.substack && target == m.visibleStackLimit && source > m.visibleStackLimit:
		// Top of the substack from deeper inside it.
		m.moveCommand(ctx, win.ID, m.windowIDs[target])
		m.swapCommand(ctx, win.ID, m.windowIDs[target])
	default:
		anchor := target
		if source > target {
			anchor = target - 1
		}
		m.moveCommand(ctx, win.ID, m.windowIDs[anchor])
	}
	return false
}

// rebalanceAfterMove keeps exactly visibleStackLimit windows outside the
// substack after a window crossed its boundary.
func (m *MasterStack) rebalanceAfterMove(ctx context.Context, win *tree.Node, source, target int) {
	limit := m.visibleStackLimit
	if source >= limit && target < limit {
		// Out of the substack: demote the last visible window.
		lastVisible := m.windowIDs[limit-1]
		firstSubIdx := limit
		if m.windowIDs[firstSubIdx] == win.ID {
			firstSubIdx++
		}
		if firstSubIdx >= len(m.windowIDs) {
			m.Logger.Debug("Substack emptied by move, nothing to demote into")
			return
		}
		firstSub := m.windowIDs[firstSubIdx]
		m.moveCommand(ctx, lastVisible, firstSub)
		m.swapCommand(ctx, lastVisible, firstSub)
	}
	if source < limit && target >= limit {
		// Into the substack: promote its top window.
		lastVisible := m.windowIDs[limit-1]
		firstSub := m.windowIDs[limit]
		m.moveCommand(ctx, firstSub, lastVisible)
	}
}

func (m *MasterStack) moveRelative(ctx context.Context, win *tree.Node, delta int) {
	source := m.indexOf(win.ID)
	if source < 0 {
		return
	}
	m.moveToIndex(ctx, win, wrapIndex(source+delta, len(m.windowIDs)))
}

// rotate turns the window order one step. Clockwise with the stack on the
// left (or counter-clockwise with it on the right) sends the master to the
// bottom of the stack; the other way brings the bottom window to master.
func (m *MasterStack) rotate(ctx context.Context, ws *tree.Node, clockwise bool) {
	if len(m.windowIDs) <= 1 {
		return
	}
	if (m.stackSide == Left) == clockwise {
		master := ws.FindByID(m.windowIDs[0])
		if master == nil {
			m.Fail(errors.LookupMiss("master window", m.windowIDs[0]))
			return
		}
		m.moveToIndex(ctx, master, len(m.windowIDs)-1)
		return
	}
	lastID := m.windowIDs[len(m.windowIDs)-1]
	last := ws.FindByID(lastID)
	if last == nil {
		m.Fail(errors.LookupMiss("window", lastID))
		return
	}
	m.moveToIndex(ctx, last, 0)
}

// swap exchanges two tracked windows.
func (m *MasterStack) swap(ctx context.Context, source, target *tree.Node) {
	if len(m.windowIDs) == 0 || source.ID == target.ID {
		return
	}
	si, ti := m.indexOf(source.ID), m.indexOf(target.ID)
	if si < 0 || ti < 0 {
		return
	}
	m.swapCommand(ctx, source.ID, target.ID)
	m.windowIDs[si], m.windowIDs[ti] = m.windowIDs[ti], m.windowIDs[si]
	m.Logger.Debugf("window ids: %v", m.windowIDs)
}

// moveHorizontally handles "move left" and "move right".
func (m *MasterStack) moveHorizontally(ctx context.Context, ws, win *tree.Node, to Side) {
	if len(m.windowIDs) < 2 {
		return
	}
	source := m.indexOf(win.ID)
	if source < 0 {
		m.Fail(errors.LookupMiss("tracked window", win.ID))
		return
	}
	isMaster := win.ID == m.windowIDs[0]

	switch {
	case m.maximized:
		delta := -1
		if to == Right {
			delta = 1
		}
		m.moveToIndex(ctx, win, wrapIndex(source+delta, len(m.windowIDs)))
	case m.stackLayout == Tabbed || m.stackLayout == SplitH:
		m.moveInHorizontalStack(ctx, ws, win, source, isMaster, to)
	default:
		if m.stackSide == to && isMaster {
			m.moveToIndex(ctx, win, 1)
		} else if m.stackSide != to && !isMaster {
			m.moveToIndex(ctx, win, 0)
		}
	}
}

func (m *MasterStack) moveInHorizontalStack(ctx context.Context, ws, win *tree.Node, source int, isMaster bool, to Side) {
	if m.stackSide == Left {
		// Master towards the stack, or the bottom of the stack away from it.
		if (m.stackSide == to && isMaster) || (m.stackSide != to && source+1 == len(m.windowIDs)) {
			master := ws.FindByID(m.windowIDs[0])
			bottom := ws.FindByID(m.windowIDs[len(m.windowIDs)-1])
			if master == nil || bottom == nil {
				m.Fail(errors.LookupMiss("window", m.windowIDs[0]))
				return
			}
			m.swap(ctx, master, bottom)
			return
		}
		if (isMaster && m.stackSide != to) || (source == 1 && m.stackSide == to) {
			return
		}
	}
	delta := 1
	if to == Left {
		delta = -1
	}
	m.moveRelative(ctx, win, delta)
}

func (m *MasterStack) focusRelative(ctx context.Context, ws *tree.Node, delta int) {
	if m.lastFocusedID == 0 {
		m.Logger.Debug("No last focused window, ignoring focus command")
		return
	}
	if ws.FindByID(m.lastFocusedID) == nil {
		m.Logger.Debugf("Last focused window %d not found in tree", m.lastFocusedID)
		return
	}
	source := m.indexOf(m.lastFocusedID)
	if source < 0 {
		return
	}
	target := wrapIndex(source+delta, len(m.windowIDs))
	m.run(ctx, "[con_id=%d] focus", m.windowIDs[target])
}

func (m *MasterStack) toggleStackLayout(ctx context.Context) {
	m.stackLayout = m.stackLayout.Next()
	if !m.maximized {
		m.destroySubstackIfExists(ctx)
		m.setStackLayout(ctx)
		m.createSubstackIfNeeded(ctx)
	}
	m.Logger.Debugf("Changed stackLayout to %s", m.stackLayout)
}

// toggleStackSide swaps the master with the stack container.
func (m *MasterStack) toggleStackSide(ctx context.Context, ws *tree.Node) {
	if len(m.windowIDs) >= 2 {
		firstStack := ws.FindByID(m.windowIDs[1])
		if firstStack == nil {
			m.Logger.Debug("Couldn't find the first stack window. Probably a bug.")
			return
		}
		if firstStack.Parent == nil {
			m.Fail(errors.LookupMiss("parent of window", firstStack.ID))
			return
		}
		m.swapCommand(ctx, m.windowIDs[0], firstStack.Parent.ID)

		// Swapping containers swaps their widths too; restore the master's.
		master := ws.FindByID(m.windowIDs[0])
		if master == nil {
			m.Fail(errors.LookupMiss("master window", m.windowIDs[0]))
			return
		}
		m.run(ctx, "[con_id=%d] resize set width %d px", master.ID, master.Rect.Width)
	}
	m.stackSide = m.stackSide.Opposite()
}

// toggleMaximize folds every window into one tabbed container, or
// restores master/stack shape. The flag flips even with fewer than two
// windows, so a later toggle restores.
func (m *MasterStack) toggleMaximize(ctx context.Context, ws *tree.Node) {
	if len(m.windowIDs) >= 2 {
		masterID := m.windowIDs[0]
		if !m.maximized {
			master := ws.FindByID(masterID)
			if master == nil {
				m.Fail(errors.LookupMiss("master window", masterID))
				return
			}
			m.masterWidthBeforeMaximize = master.Rect.Width

			m.destroySubstackIfExists(ctx)
			m.moveCommand(ctx, masterID, m.windowIDs[1])
			m.swapCommand(ctx, masterID, m.windowIDs[1])
			m.run(ctx, "[con_id=%d] layout tabbed", masterID)
		} else {
			m.run(ctx, "[con_id=%d] layout splitv", masterID)
			m.createSubstackIfNeeded(ctx)
			m.run(ctx, "[con_id=%d] move %s", masterID, m.stackSide.Opposite())
			m.run(ctx, "[con_id=%d] resize set width %d px", masterID, m.masterWidthBeforeMaximize)
			m.setStackLayout(ctx)
		}
	}

	m.maximized = !m.maximized
	if m.maximized {
		m.Logger.Debug("Maximized")
	} else {
		m.Logger.Debug("Unmaximized")
	}
}
