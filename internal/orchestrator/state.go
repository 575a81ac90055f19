package orchestrator

import (
	"sort"

	"github.com/grovetools/layman/internal/layout"
	"github.com/grovetools/layman/pkg/tree"
)

// WorkspaceState is everything layman tracks about one workspace. It is
// created the first time the workspace is seen and lives as long as the
// daemon.
type WorkspaceState struct {
	Name string

	// Manager is nil for native layouts.
	Manager    layout.Manager
	LayoutName string

	// WindowIDs holds the tiled windows last observed on the workspace.
	WindowIDs map[int64]struct{}
	// FloatingIDs holds its floating windows, so their close events can
	// be routed.
	FloatingIDs map[int64]struct{}

	Excluded bool
	History  *FocusHistory

	FakeFullscreen         bool
	FakeFullscreenWindowID int64
	SavedStackLayout       string
}

func newState(name string, historySize int) *WorkspaceState {
	return &WorkspaceState{
		Name:        name,
		LayoutName:  layout.NoneName,
		WindowIDs:   make(map[int64]struct{}),
		FloatingIDs: make(map[int64]struct{}),
		History:     NewFocusHistory(historySize),
	}
}

// reset replaces the window sets with the windows of ws.
func (s *WorkspaceState) reset(ws *tree.Node) {
	s.WindowIDs = make(map[int64]struct{})
	s.FloatingIDs = make(map[int64]struct{})
	for _, id := range ws.LeafIDs() {
		s.WindowIDs[id] = struct{}{}
	}
	for _, f := range ws.FloatingLeaves() {
		s.FloatingIDs[f.ID] = struct{}{}
	}
}

// track records win in the set matching its floating state.
func (s *WorkspaceState) track(win *tree.Node) {
	if win.IsFloating() {
		delete(s.WindowIDs, win.ID)
		s.FloatingIDs[win.ID] = struct{}{}
		return
	}
	delete(s.FloatingIDs, win.ID)
	s.WindowIDs[win.ID] = struct{}{}
}

// tracksAs reports whether win is already in the set matching its
// floating state.
func (s *WorkspaceState) tracksAs(win *tree.Node) bool {
	set := s.WindowIDs
	if win.IsFloating() {
		set = s.FloatingIDs
	}
	_, ok := set[win.ID]
	return ok
}

// forget removes id from both window sets.
func (s *WorkspaceState) forget(id int64) {
	delete(s.WindowIDs, id)
	delete(s.FloatingIDs, id)
}

// Has reports whether id is a tiled or floating window of the workspace.
func (s *WorkspaceState) Has(id int64) bool {
	_, tiled := s.WindowIDs[id]
	_, floating := s.FloatingIDs[id]
	return tiled || floating
}

// Windows returns the tiled window IDs in ascending order.
func (s *WorkspaceState) Windows() []int64 {
	return sortedIDs(s.WindowIDs)
}

// Floating returns the floating window IDs in ascending order.
func (s *WorkspaceState) Floating() []int64 {
	return sortedIDs(s.FloatingIDs)
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
