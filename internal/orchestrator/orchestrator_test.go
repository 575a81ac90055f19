package orchestrator

import (
	"context"
	"sort"
	"testing"

	"github.com/grovetools/layman/config"
	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/internal/layout"
	"github.com/grovetools/layman/internal/layout/builtin"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/compositor/mocks"
	"github.com/grovetools/layman/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const masterStackConfig = `
[layman]
defaultLayout = "MasterStack"
`

// flaky is a manager whose next WindowAdded runs fail.
type flaky struct {
	layout.Base
	fail func() error
}

func (f *flaky) WindowAdded(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	if f.fail == nil {
		return nil
	}
	fail := f.fail
	f.fail = nil
	return fail()
}

// counter is a factory for flaky managers that records every build.
type counter struct {
	created []*flaky
	seen    [][]int64
	err     error
}

func (c *counter) factory(ctx context.Context, p layout.Params) (layout.Manager, error) {
	if c.err != nil {
		return nil, c.err
	}
	m := &flaky{Base: layout.NewBase(p, "Flaky")}
	c.created = append(c.created, m)
	c.seen = append(c.seen, p.Workspace.LeafIDs())
	return m, nil
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	o      *Orchestrator
	client *mocks.MockClient
}

func newFixture(t *testing.T, root *tree.Node, cfgText string, c *counter, options ...Option) *fixture {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(cfgText))
	require.NoError(t, err)

	registry := builtin.NewRegistry()
	if c != nil {
		registry.Register("Flaky", c.factory)
	}
	client := mocks.NewMockClient(root)
	o, err := New(client, registry, config.NewOptions(cfg), nil, options...)
	require.NoError(t, err)

	f := &fixture{t: t, ctx: context.Background(), o: o, client: client}
	for _, ws := range root.Workspaces() {
		o.InitWorkspace(f.ctx, ws)
	}
	client.Reset()
	return f
}

func (f *fixture) state(name string) *WorkspaceState {
	f.t.Helper()
	st, ok := f.o.State(name)
	require.True(f.t, ok, "workspace %s has no state", name)
	return st
}

// create replaces the tree with root and delivers a new-window event.
func (f *fixture) create(root *tree.Node, id int64) {
	f.client.SetRoot(root)
	win := root.FindByID(id)
	f.o.WindowCreated(f.ctx, event("new", win), win.Workspace(), win)
}

func (f *fixture) close(root *tree.Node, gone *tree.Node) {
	f.client.SetRoot(root)
	f.o.WindowClosed(f.ctx, event("close", gone), root)
}

func event(change string, win *tree.Node) compositor.Event {
	return compositor.Event{Type: compositor.WindowEvent, Change: change, Container: win}
}

// assertTracksTree checks that the tracked windows of workspace name are
// the leaves of the workspace in root.
func assertTracksTree(t *testing.T, f *fixture, root *tree.Node, name string) {
	t.Helper()
	want := root.FindWorkspace(name).LeafIDs()
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	assert.Equal(t, want, f.state(name).Windows())
}

func TestNewRejectsUnknownDefaultLayout(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte("[workspace.3]\ndefaultLayout = \"Spiral\"\n"))
	require.NoError(t, err)

	_, err = New(mocks.NewMockClient(mocks.Root()), builtin.NewRegistry(), config.NewOptions(cfg), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnknownLayout))
	assert.Contains(t, err.Error(), "unknown layout 'Spiral' for workspace 3. Available layouts: MasterStack, none")
}

func TestInitWorkspace(t *testing.T) {
	ws := mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200))
	ws.FloatingNodes = []*tree.Node{mocks.FloatingWindow(300)}
	root := mocks.Focus(mocks.Root(ws, mocks.Workspace(20, "9", mocks.Window(400))), 100)

	f := newFixture(t, root, masterStackConfig+"excludeWorkspaces = [\"9\"]\n", nil)

	st := f.state("1")
	require.NotNil(t, st.Manager)
	assert.Equal(t, "MasterStack", st.Manager.Name())
	assert.Equal(t, "MasterStack", st.LayoutName)
	assert.Equal(t, []int64{100, 200}, st.Windows())
	assert.Equal(t, []int64{300}, st.Floating())

	excluded := f.state("9")
	assert.True(t, excluded.Excluded)
	assert.Nil(t, excluded.Manager)
	assert.Equal(t, []int64{400}, excluded.Windows())

	// A second init keeps the existing state.
	f.o.InitWorkspace(f.ctx, root.FindWorkspace("1"))
	assert.Same(t, st, f.state("1"))
}

func TestGuardRebuildsFromFreshSnapshot(t *testing.T) {
	cfgText := "[layman]\ndefaultLayout = \"Flaky\"\n"

	for name, fail := range map[string]func() error{
		"error": func() error { return errors.LookupMiss("window", 999) },
		"panic": func() error { panic("boom") },
	} {
		t.Run(name, func(t *testing.T) {
			c := &counter{}
			root := mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100))), 100)
			f := newFixture(t, root, cfgText, c)
			require.Len(t, c.created, 1)
			c.created[0].fail = fail

			f.create(mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200))), 200), 200)

			require.Len(t, c.created, 2, "exactly one rebuild")
			assert.Equal(t, []int64{100, 200}, c.seen[1], "rebuilt from the current tree")
			st := f.state("1")
			assert.Same(t, c.created[1], st.Manager)
			assert.Equal(t, "Flaky", st.LayoutName)
			assert.Equal(t, []int64{100, 200}, st.Windows())
		})
	}
}

func TestGuardKeepsStateWhenRebuildFails(t *testing.T) {
	c := &counter{}
	root := mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100))), 100)
	f := newFixture(t, root, "[layman]\ndefaultLayout = \"Flaky\"\n", c)
	c.created[0].fail = func() error { return errors.New(errors.ErrCodeIPCFailed, "gone") }
	c.err = errors.ConfigInvalid("broken")

	assert.NotPanics(t, func() {
		f.create(mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200))), 200), 200)
	})
	st := f.state("1")
	assert.Same(t, c.created[0], st.Manager)
	assert.Equal(t, "Flaky", st.LayoutName)
}

func TestNoRebuildWithoutFailure(t *testing.T) {
	c := &counter{}
	root := mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100))), 100)
	f := newFixture(t, root, "[layman]\ndefaultLayout = \"Flaky\"\n", c)

	f.create(mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200))), 200), 200)
	assert.Len(t, c.created, 1)
}

func TestWindowIDsFollowTree(t *testing.T) {
	root := mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100))), 100)
	f := newFixture(t, root, masterStackConfig, nil)

	steps := []struct {
		name string
		run  func() *tree.Node
	}{
		{"add 200", func() *tree.Node {
			r := mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200)))
			f.create(r, 200)
			return r
		}},
		{"add 300", func() *tree.Node {
			r := mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200), mocks.Window(300)))
			f.create(r, 300)
			return r
		}},
		{"close 200", func() *tree.Node {
			r := mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(300)))
			f.close(r, mocks.Window(200))
			return r
		}},
		{"add 400", func() *tree.Node {
			r := mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(300), mocks.Window(400)))
			f.create(r, 400)
			return r
		}},
		{"close 100", func() *tree.Node {
			r := mocks.Root(mocks.Workspace(10, "1", mocks.Window(300), mocks.Window(400)))
			f.close(r, mocks.Window(100))
			return r
		}},
	}

	for _, step := range steps {
		r := step.run()
		assertTracksTree(t, f, r, "1")

		ms, ok := f.state("1").Manager.(interface{ WindowIDs() []int64 })
		require.True(t, ok)
		ids := ms.WindowIDs()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		assert.Equal(t, f.state("1").Windows(), ids, step.name)
	}
}

func TestReplayedEventsDoNotDuplicateWindows(t *testing.T) {
	root := mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200))), 100)
	f := newFixture(t, root, masterStackConfig, nil)
	st := f.state("1")
	ms, ok := st.Manager.(interface{ WindowIDs() []int64 })
	require.True(t, ok)
	require.Len(t, ms.WindowIDs(), 2)

	f.create(root, 200)

	assert.Len(t, ms.WindowIDs(), 2)
	assert.ElementsMatch(t, []int64{100, 200}, ms.WindowIDs())
	assertTracksTree(t, f, root, "1")
	assert.Empty(t, f.client.Issued(), "nothing to rearrange")

	win := root.FindByID(200)
	f.o.WindowFloating(f.ctx, event("floating", win), win.Workspace(), win)
	assert.Len(t, ms.WindowIDs(), 2)
	assert.Empty(t, f.client.Issued())
}

func TestWindowMovedBetweenWorkspaces(t *testing.T) {
	root := mocks.Focus(mocks.Root(
		mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200)),
		mocks.Workspace(20, "2", mocks.Window(300)),
	), 100)
	f := newFixture(t, root, masterStackConfig, nil)

	moved := mocks.Root(
		mocks.Workspace(10, "1", mocks.Window(100)),
		mocks.Workspace(20, "2", mocks.Window(300), mocks.Window(200)),
	)
	f.client.SetRoot(moved)
	win := moved.FindByID(200)
	f.o.WindowMoved(f.ctx, event("move", win), moved, win.Workspace(), win)

	assertTracksTree(t, f, moved, "1")
	assertTracksTree(t, f, moved, "2")
}

func TestWindowMovedToNewWorkspace(t *testing.T) {
	root := mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200))), 100)
	f := newFixture(t, root, masterStackConfig, nil)

	moved := mocks.Root(
		mocks.Workspace(10, "1", mocks.Window(100)),
		mocks.Workspace(30, "3", mocks.Window(200)),
	)
	f.client.SetRoot(moved)
	win := moved.FindByID(200)
	f.o.WindowMoved(f.ctx, event("move", win), moved, win.Workspace(), win)

	assertTracksTree(t, f, moved, "1")
	assertTracksTree(t, f, moved, "3")
	assert.Equal(t, "MasterStack", f.state("3").LayoutName)
}

func TestWindowClosedOnVanishedWorkspace(t *testing.T) {
	root := mocks.Focus(mocks.Root(
		mocks.Workspace(10, "1", mocks.Window(100)),
		mocks.Workspace(20, "2", mocks.Window(300)),
	), 100)
	f := newFixture(t, root, masterStackConfig, nil)

	f.close(mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100))), 100), mocks.Window(300))

	assert.Empty(t, f.state("2").Windows())
	assert.Equal(t, "MasterStack", f.state("2").LayoutName)
}

func TestWindowFloatingToggle(t *testing.T) {
	root := mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200))), 100)
	f := newFixture(t, root, masterStackConfig, nil)

	ws := mocks.Workspace(10, "1", mocks.Window(100))
	ws.FloatingNodes = []*tree.Node{mocks.FloatingWindow(200)}
	floated := mocks.Root(ws)
	f.client.SetRoot(floated)
	win := floated.FindByID(200)
	f.o.WindowFloating(f.ctx, event("floating", win), win.Workspace(), win)

	st := f.state("1")
	assert.Equal(t, []int64{100}, st.Windows())
	assert.Equal(t, []int64{200}, st.Floating())

	tiled := mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200)))
	f.client.SetRoot(tiled)
	win = tiled.FindByID(200)
	f.o.WindowFloating(f.ctx, event("floating", win), win.Workspace(), win)

	assert.Equal(t, []int64{100, 200}, st.Windows())
	assert.Empty(t, st.Floating())
}

func TestNativeLayoutAppliedToSingleWindow(t *testing.T) {
	root := mocks.Root(mocks.Workspace(10, "1"))
	f := newFixture(t, root, "[layman]\ndefaultLayout = \"tabbed\"\n", nil)
	assert.Nil(t, f.state("1").Manager)

	f.create(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100))), 100)
	assert.Equal(t, []string{
		"[con_id=100] split none",
		"[con_id=100] layout tabbed",
	}, f.client.Issued())

	f.client.Reset()
	f.create(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200))), 200)
	assert.Empty(t, f.client.Issued(), "ignored with more than one window")
}

func TestExcludedWorkspaceIsLeftAlone(t *testing.T) {
	root := mocks.Root(mocks.Workspace(10, "9", mocks.Window(100)))
	f := newFixture(t, root, masterStackConfig+"excludeWorkspaces = [\"9\"]\n", nil)

	f.create(mocks.Root(mocks.Workspace(10, "9", mocks.Window(100), mocks.Window(200))), 200)
	assert.Empty(t, f.client.Issued())
	assert.Nil(t, f.state("9").Manager)

	require.NoError(t, f.o.SetWorkspaceLayout(f.ctx, nil, "9", "MasterStack"))
	assert.Nil(t, f.state("9").Manager)
}

func TestSetWorkspaceLayoutUnknownKeepsState(t *testing.T) {
	root := mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100))), 100)
	f := newFixture(t, root, masterStackConfig, nil)
	before := f.state("1").Manager

	err := f.o.SetWorkspaceLayout(f.ctx, root.FindWorkspace("1"), "1", "Spiral")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Same(t, before, f.state("1").Manager)
	assert.Equal(t, "MasterStack", f.state("1").LayoutName)
}

func TestReload(t *testing.T) {
	root := mocks.Focus(mocks.Root(mocks.Workspace(10, "1", mocks.Window(100))), 100)
	next := masterStackConfig + "\n[layout.Wide]\nbase = \"MasterStack\"\nmasterWidth = 70\n"
	var loadErr error
	loader := func() (*config.Config, error) {
		if loadErr != nil {
			return nil, loadErr
		}
		return config.LoadFromBytes([]byte(next))
	}
	f := newFixture(t, root, masterStackConfig, nil, WithLoader(loader))

	assert.Equal(t, "Reloaded config", f.o.OnCommand(f.ctx, "reload"))
	assert.Equal(t, "Layout set to Wide", f.o.OnCommand(f.ctx, "layout set Wide"))
	dump := f.state("1").Manager.DumpState()
	assert.Equal(t, 70, dump["masterWidth"])

	loadErr = errors.ConfigInvalid("bad toml")
	before := f.o.Options()
	assert.Equal(t, "Error: invalid configuration: bad toml", f.o.OnCommand(f.ctx, "reload"))
	assert.Same(t, before, f.o.Options())
}
