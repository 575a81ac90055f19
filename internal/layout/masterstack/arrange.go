package masterstack

import (
	"context"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/pkg/tree"
)

// arrange rebuilds windowIDs from the leaves of ws, focused window first,
// and moves every window into master/stack shape.
func (m *MasterStack) arrange(ctx context.Context, ws *tree.Node) {
	windows := ws.Leaves()
	if len(windows) == 0 {
		return
	}

	if focused := ws.FindFocused(); focused != nil {
		for i, w := range windows {
			if w.ID == focused.ID {
				windows = append(windows[:i:i], windows[i+1:]...)
				windows = append([]*tree.Node{focused}, windows...)
				break
			}
		}
	}

	m.Logger.Debugf("Arranging %d windows", len(windows))
	// The substack is rebuilt from scratch below.
	m.destroySubstackIfExists(ctx)
	m.windowIDs = m.windowIDs[:0]
	var previous *tree.Node
	for _, w := range windows {
		m.push(ctx, ws, w, previous)
		previous = w
	}

	if n := len(ws.Leaves()); len(m.windowIDs) != n {
		m.Logger.Errorf("Window count mismatch: arranged %d but workspace has %d leaves", len(m.windowIDs), n)
	}

	m.removeExtraNesting(ctx, ws)

	if m.masterCount > 1 && len(m.windowIDs) > m.masterCount {
		m.arrangeMasters(ctx)
	}
}

// push inserts win into the layout. With after, win goes right below it.
// Without after, win is inserted at the index of the last focused window,
// which moves one down, or becomes master when nothing was focused. A
// window already in the layout is ignored.
func (m *MasterStack) push(ctx context.Context, ws, win, after *tree.Node) {
	if m.indexOf(win.ID) >= 0 {
		m.Logger.Debugf("Window %d already in window ids, not adding it again", win.ID)
		return
	}
	at := 0
	if after != nil {
		if i := m.indexOf(after.ID); i < 0 {
			m.Logger.Debugf("Window %d to positionAfter not found in windowIds.", after.ID)
		} else {
			at = i + 1
		}
	} else if m.lastFocusedID != 0 {
		if ws.FindByID(m.lastFocusedID) == nil {
			m.Logger.Debugf("Last focused window %d not found.", m.lastFocusedID)
		} else if i := m.indexOf(m.lastFocusedID); i < 0 {
			m.Logger.Debugf("Last focused window %d not found in windowIds.", m.lastFocusedID)
		} else {
			at = i
		}
	}

	switch len(m.windowIDs) {
	case 0:
		m.Logger.Debug("Too few windows to arrange")
	case 1:
		// Second window: create the master and the stack.
		masterID, firstStackID := m.windowIDs[0], win.ID
		if at == 0 {
			masterID, firstStackID = win.ID, m.windowIDs[0]
		}
		if m.stackSide == Left {
			m.run(ctx, "[con_id=%d] splith", firstStackID)
			m.moveCommand(ctx, masterID, firstStackID)
		} else {
			m.run(ctx, "[con_id=%d] splith", masterID)
			m.moveCommand(ctx, firstStackID, masterID)
		}
		m.run(ctx, "[con_id=%d] splitv", firstStackID)
	default:
		switch {
		case at == 0:
			// New master.
			m.swapCommand(ctx, win.ID, m.windowIDs[0])
			m.moveCommand(ctx, m.windowIDs[0], m.windowIDs[1])
			m.swapCommand(ctx, m.windowIDs[0], m.windowIDs[1])
		case at == 1 || (m.substack && at == m.visibleStackLimit):
			// New top of the stack or of the substack.
			m.moveCommand(ctx, win.ID, m.windowIDs[at])
			m.swapCommand(ctx, win.ID, m.windowIDs[at])
		default:
			m.moveCommand(ctx, win.ID, m.windowIDs[at-1])
		}
	}

	// A new visible stack window pushes the last visible one down into
	// the substack.
	if m.substack && at < m.visibleStackLimit && len(m.windowIDs) > m.visibleStackLimit {
		lastVisible := m.windowIDs[m.visibleStackLimit-1]
		firstSub := m.windowIDs[m.visibleStackLimit]
		m.moveCommand(ctx, lastVisible, firstSub)
		m.swapCommand(ctx, lastVisible, firstSub)
	}

	m.insertAt(at, win.ID)
	m.Logger.Debugf("window ids: %v", m.windowIDs)
	m.createSubstackIfNeeded(ctx)
	if len(m.windowIDs) == 2 {
		m.setStackLayout(ctx)
		m.setMasterWidth(ctx)
		m.removeExtraNesting(ctx, ws)
	}
}

// pop removes win from the layout and repairs the master and substack.
func (m *MasterStack) pop(ctx context.Context, win *tree.Node) {
	m.Logger.Debugf("Removing window id: %d", win.ID)
	source := m.indexOf(win.ID)
	if source < 0 {
		m.Logger.Debug("Window not found in window list. This is probably a bug.")
		return
	}
	m.remove(win.ID)
	m.Logger.Debugf("window ids: %v", m.windowIDs)

	if source == 0 && len(m.windowIDs) >= 2 {
		newMaster := m.windowIDs[0]
		m.run(ctx, "[con_id=%d] move %s", newMaster, m.stackSide.Opposite())

		// The stack went full width before the new master moved out, so
		// give the new master the width of the one it replaces.
		switch {
		case win.Rect.Width > 0:
			m.run(ctx, "[con_id=%d] resize set width %d px", newMaster, win.Rect.Width)
		case m.lastKnownMasterWidth > 0:
			m.run(ctx, "[con_id=%d] resize set width %d px", newMaster, m.lastKnownMasterWidth)
		default:
			m.run(ctx, "[con_id=%d] resize set width %d ppt", newMaster, m.masterWidth)
		}
	}

	if m.substack {
		if source < m.visibleStackLimit && m.visibleStackLimit >= 2 {
			// Promote the top of the substack into the visible stack.
			lastVisible := m.windowIDs[m.visibleStackLimit-2]
			firstSub := m.windowIDs[m.visibleStackLimit-1]
			m.moveCommand(ctx, firstSub, lastVisible)
		}
		if !m.shouldSubstackExist() {
			m.destroySubstackIfExists(ctx)
		}
	}
}

// removeExtraNesting drops a split container wrapped around the master.
// It reads a fresh tree, since the container may only have been created by
// the commands of the current call.
func (m *MasterStack) removeExtraNesting(ctx context.Context, ws *tree.Node) {
	if ws == nil || len(m.windowIDs) == 0 {
		return
	}
	root := m.Tree(ctx)
	if root == nil {
		return
	}
	master := root.FindByID(m.windowIDs[0])
	if master == nil {
		m.Logger.Debug("Master not found after arranging windows")
		return
	}
	if master.Parent == nil {
		m.Fail(errors.LookupMiss("parent of window", master.ID))
		return
	}
	if master.Parent.ID != ws.ID {
		m.run(ctx, "[con_id=%d] split none", master.Parent.ID)
	}
}

func (m *MasterStack) setMasterWidth(ctx context.Context) {
	if len(m.windowIDs) == 0 {
		return
	}
	m.run(ctx, "[con_id=%d] resize set width %d ppt", m.windowIDs[0], m.masterWidth)
	m.Logger.Debugf("Set window %d width to %d ppt", m.windowIDs[0], m.masterWidth)
}

func (m *MasterStack) setStackLayout(ctx context.Context) {
	if len(m.windowIDs) > 1 {
		m.run(ctx, "[con_id=%d] layout %s", m.windowIDs[1], m.stackLayout)
	}
}

func (m *MasterStack) shouldSubstackExist() bool {
	return m.stackLayout == SplitV &&
		m.visibleStackLimit > 0 &&
		len(m.windowIDs) > m.visibleStackLimit
}

func (m *MasterStack) createSubstackIfNeeded(ctx context.Context) {
	if !m.shouldSubstackExist() || m.substack {
		return
	}
	firstSub := m.windowIDs[m.visibleStackLimit]
	m.run(ctx, "[con_id=%d] splitv, layout stacking", firstSub)
	rest := m.windowIDs[m.visibleStackLimit+1:]
	for i := len(rest) - 1; i >= 0; i-- {
		m.moveCommand(ctx, rest[i], firstSub)
	}
	m.substack = true
}

func (m *MasterStack) destroySubstackIfExists(ctx context.Context) {
	if !m.substack {
		return
	}
	if m.visibleStackLimit > 0 && len(m.windowIDs) >= m.visibleStackLimit {
		lastVisible := m.windowIDs[m.visibleStackLimit-1]
		rest := m.windowIDs[m.visibleStackLimit:]
		for i := len(rest) - 1; i >= 0; i-- {
			m.moveCommand(ctx, rest[i], lastVisible)
		}
	}
	m.substack = false
}

// arrangeMasters stacks the first masterCount windows vertically in the
// master area.
func (m *MasterStack) arrangeMasters(ctx context.Context) {
	masters := m.windowIDs[:min(m.masterCount, len(m.windowIDs))]
	if len(masters) <= 1 {
		return
	}
	m.run(ctx, "[con_id=%d] splitv", masters[0])
	for i := 1; i < len(masters); i++ {
		m.moveCommand(ctx, masters[i], masters[i-1])
	}
	m.Logger.Debugf("Arranged %d masters vertically", len(masters))
}

func (m *MasterStack) addMaster(ctx context.Context, ws *tree.Node) {
	if m.masterCount >= len(m.windowIDs) {
		m.Logger.Debug("Cannot add more masters than windows")
		return
	}
	m.masterCount++
	m.Logger.Debugf("Master count increased to %d", m.masterCount)
	m.arrange(ctx, ws)
}

func (m *MasterStack) removeMaster(ctx context.Context, ws *tree.Node) {
	if m.masterCount <= 1 {
		m.Logger.Debug("Cannot have fewer than 1 master")
		return
	}
	m.masterCount--
	m.Logger.Debugf("Master count decreased to %d", m.masterCount)
	m.arrange(ctx, ws)
}
