package orchestrator

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/layman/config"
	"github.com/grovetools/layman/internal/daemon/store"
	"github.com/grovetools/layman/internal/layout/builtin"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/compositor/mocks"
	"github.com/grovetools/layman/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeWindowRoot() *tree.Node {
	return mocks.Focus(mocks.Root(
		mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200), mocks.Window(300)),
	), 100)
}

func TestLayoutCommands(t *testing.T) {
	f := newFixture(t, threeWindowRoot(), masterStackConfig, nil)

	tests := []struct {
		cmd   string
		reply string
	}{
		{"stack toggle", "Processed by MasterStack: toggle"},
		{"master add", "Processed by MasterStack: master add"},
		{"layout bogus", "Unknown layout command: 'layout bogus'"},
		{"layout set Spiral", "Error: unknown layout 'Spiral' for workspace 1. Available layouts: MasterStack, none"},
		{"window move down", "Processed by MasterStack: move down"},
		{"", "OK"},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			assert.Equal(t, tt.reply, f.o.OnCommand(f.ctx, tt.cmd))
		})
	}
	assert.Equal(t, "MasterStack", f.state("1").LayoutName)
}

func TestOnCommandJoinsReplies(t *testing.T) {
	f := newFixture(t, threeWindowRoot(), masterStackConfig, nil)

	reply := f.o.OnCommand(f.ctx, "stack toggle; ; master add")
	assert.Equal(t, "Processed by MasterStack: toggle\nProcessed by MasterStack: master add", reply)
}

func TestMoveAndFocusPassThroughWithoutOverride(t *testing.T) {
	f := newFixture(t, threeWindowRoot(), masterStackConfig, nil)

	assert.Equal(t, "Layout set to splitv", f.o.OnCommand(f.ctx, "layout set splitv"))
	assert.Nil(t, f.state("1").Manager)

	f.client.Reset()
	reply, err := f.o.HandleCommand(f.ctx, "window move down")
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Equal(t, []string{"move down"}, f.client.Issued())

	f.client.Reset()
	_, err = f.o.HandleCommand(f.ctx, "focus left")
	require.NoError(t, err)
	assert.Equal(t, []string{"focus left"}, f.client.Issued())

	assert.Equal(t, "No manager for workspace 1", f.o.OnCommand(f.ctx, "window rotate cw"))
	assert.Equal(t, "No manager for workspace 1", f.o.OnCommand(f.ctx, "stack toggle"))
}

func TestManagerOverridesMove(t *testing.T) {
	f := newFixture(t, threeWindowRoot(), masterStackConfig, nil)

	_, err := f.o.HandleCommand(f.ctx, "window move down")
	require.NoError(t, err)
	assert.Zero(t, f.client.CountContaining("] move down"))
	assert.NotContains(t, f.client.Issued(), "move down")
}

func TestCommandOnExcludedWorkspacePassesThrough(t *testing.T) {
	root := mocks.Focus(mocks.Root(mocks.Workspace(10, "9", mocks.Window(100))), 100)
	f := newFixture(t, root, masterStackConfig+"excludeWorkspaces = [\"9\"]\n", nil)

	assert.Equal(t, "Passed to compositor: splitv", f.o.OnCommand(f.ctx, "splitv"))
	assert.Equal(t, []string{"splitv"}, f.client.Issued())
}

func TestFocusPrevious(t *testing.T) {
	root := threeWindowRoot()
	f := newFixture(t, root, masterStackConfig, nil)
	ws := root.FindWorkspace("1")

	for _, id := range []int64{200, 300} {
		win := root.FindByID(id)
		f.o.WindowFocused(f.ctx, event("focus", win), ws, win)
	}
	assert.Equal(t, []int64{300, 200}, f.state("1").History.Entries())

	assert.Equal(t, "Focus previous: window 200", f.o.OnCommand(f.ctx, "window focus previous"))
	assert.Contains(t, f.client.Issued(), "[con_id=200] focus")
	assert.Equal(t, "No previous focus history", f.o.OnCommand(f.ctx, "window focus previous"))
}

func TestFakeFullscreenNative(t *testing.T) {
	root := mocks.Focus(mocks.Root(
		mocks.Workspace(10, "1", mocks.Split(50, tree.LayoutStacked, mocks.Window(100), mocks.Window(200))),
	), 200)
	f := newFixture(t, root, "[layman]\ndefaultLayout = \"splitv\"\n", nil)

	assert.Equal(t, "Maximize toggled", f.o.OnCommand(f.ctx, "layout maximize"))
	st := f.state("1")
	assert.True(t, st.FakeFullscreen)
	assert.Equal(t, int64(200), st.FakeFullscreenWindowID)
	assert.Equal(t, tree.LayoutStacked, st.SavedStackLayout)
	assert.Equal(t, []string{"[con_id=100] layout tabbed"}, f.client.Issued())

	f.client.Reset()
	assert.Equal(t, "Maximize toggled", f.o.OnCommand(f.ctx, "layout maximize"))
	assert.False(t, st.FakeFullscreen)
	assert.Empty(t, st.SavedStackLayout)
	assert.Equal(t, []string{"[con_id=100] layout stacking"}, f.client.Issued())
}

func TestFakeFullscreenWithManager(t *testing.T) {
	root := threeWindowRoot()
	f := newFixture(t, root, masterStackConfig, nil)

	assert.Equal(t, "Maximize toggled", f.o.OnCommand(f.ctx, "layout maximize"))
	st := f.state("1")
	assert.True(t, st.FakeFullscreen)
	assert.Equal(t, true, st.Manager.DumpState()["maximized"])

	// Closing the fullscreen window leaves fullscreen.
	f.close(mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(200), mocks.Window(300))), 200), mocks.Window(100))
	assert.False(t, st.FakeFullscreen)
	assert.Zero(t, st.FakeFullscreenWindowID)
}

func TestPresetCommands(t *testing.T) {
	s := store.New(t.TempDir(), t.TempDir())
	f := newFixture(t, threeWindowRoot(), masterStackConfig, nil, WithStore(s))

	assert.Equal(t, "Presets: (none)", f.o.OnCommand(f.ctx, "preset list"))
	assert.Equal(t, "Preset saved: work", f.o.OnCommand(f.ctx, "preset save work"))
	assert.Equal(t, "Presets: work", f.o.OnCommand(f.ctx, "preset list"))

	f.o.OnCommand(f.ctx, "layout set splith")
	assert.Equal(t, "Preset loaded: work (MasterStack)", f.o.OnCommand(f.ctx, "preset load work"))
	assert.Equal(t, "MasterStack", f.state("1").LayoutName)

	assert.Equal(t, "Preset not found: nope", f.o.OnCommand(f.ctx, "preset load nope"))
	assert.Equal(t, "Preset work deleted", f.o.OnCommand(f.ctx, "preset delete work"))
	assert.Equal(t, "Unknown preset command: 'save'", f.o.OnCommand(f.ctx, "preset save"))
}

func TestSessionCommands(t *testing.T) {
	s := store.New(t.TempDir(), t.TempDir())
	f := newFixture(t, threeWindowRoot(), masterStackConfig, nil, WithStore(s))

	reply := f.o.OnCommand(f.ctx, "session save")
	assert.True(t, strings.HasPrefix(reply, "Session saved to "), reply)
	assert.Equal(t, "Sessions: default", f.o.OnCommand(f.ctx, "session list"))

	saved, err := s.Sessions.Load("default")
	require.NoError(t, err)
	require.NotNil(t, saved)
	ws, ok := saved.Find("1")
	require.True(t, ok)
	assert.Equal(t, "MasterStack", ws.LayoutName)
	assert.ElementsMatch(t, []int64{100, 200, 300}, ws.WindowIDs)
	assert.Len(t, ws.Windows, 3)

	f.o.OnCommand(f.ctx, "layout set tabbed")
	assert.Equal(t, "Session default restored", f.o.OnCommand(f.ctx, "session restore"))
	assert.Equal(t, "MasterStack", f.state("1").LayoutName)

	assert.Equal(t, "Session not found: other", f.o.OnCommand(f.ctx, "session restore other"))
	assert.Equal(t, "Session default deleted", f.o.OnCommand(f.ctx, "session delete default"))
	assert.Equal(t, "Unknown session command: 'pack'", f.o.OnCommand(f.ctx, "session pack"))
}

func TestStoreCommandsWithoutStore(t *testing.T) {
	f := newFixture(t, threeWindowRoot(), masterStackConfig, nil)
	assert.Equal(t, "Error: session storage is not configured", f.o.OnCommand(f.ctx, "session list"))
}

func TestDumpAndStatus(t *testing.T) {
	root := mocks.Focus(mocks.Root(
		mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200)),
		mocks.Workspace(20, "9", mocks.Window(300)),
	), 100)
	f := newFixture(t, root, masterStackConfig+"excludeWorkspaces = [\"9\"]\n", nil)

	dump := f.o.OnCommand(f.ctx, "dump")
	assert.Contains(t, dump, "layoutName: MasterStack")
	assert.Contains(t, dump, "stackLayout: splitv")
	assert.Contains(t, dump, "defaultLayout: MasterStack")
	assert.Contains(t, dump, "isExcluded: true")

	assert.Equal(t, "1: MasterStack (2 windows)\n9: none (1 windows) [excluded]", f.o.OnCommand(f.ctx, "status"))

	var statuses []WorkspaceStatus
	require.NoError(t, json.Unmarshal([]byte(f.o.OnCommand(f.ctx, "status --json")), &statuses))
	require.Len(t, statuses, 2)
	assert.Equal(t, WorkspaceStatus{Workspace: "1", Layout: "MasterStack", Windows: 2}, statuses[0])
	assert.True(t, statuses[1].Excluded)
}

func TestDumpIncludesCompositorStats(t *testing.T) {
	ctx := context.Background()
	mock := mocks.NewMockClient(threeWindowRoot())
	client := compositor.NewCache(compositor.NewBatcher(mock, true), time.Minute)
	cfg, err := config.LoadFromBytes([]byte(masterStackConfig))
	require.NoError(t, err)
	o, err := New(client, builtin.NewRegistry(), config.NewOptions(cfg), nil)
	require.NoError(t, err)

	_, err = client.Tree(ctx)
	require.NoError(t, err)
	_, err = client.Tree(ctx)
	require.NoError(t, err)

	dump, err := o.Dump()
	require.NoError(t, err)
	assert.Contains(t, dump, "compositor:")
	assert.Contains(t, dump, "treeCacheHits: 1")
	assert.Contains(t, dump, "pendingCommands: 0")

	plain := newFixture(t, threeWindowRoot(), masterStackConfig, nil)
	dump, err = plain.o.Dump()
	require.NoError(t, err)
	assert.NotContains(t, dump, "compositor:")
}
