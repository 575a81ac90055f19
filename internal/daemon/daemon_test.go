package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/internal/daemon/pidfile"
	"github.com/grovetools/layman/pkg/compositor/mocks"
	client "github.com/grovetools/layman/pkg/daemon"
	"github.com/grovetools/layman/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `[layman]
defaultLayout = "MasterStack"
`

type harness struct {
	opts   Options
	conn   *mocks.MockClient
	client *client.RemoteClient
}

func newHarness(t *testing.T, cfg string) *harness {
	t.Helper()
	testutil.IsolateHome(t)

	dir := t.TempDir()
	cfgPath := testutil.WriteConfig(t, dir, cfg)
	socket := testutil.SocketPath(t)

	conn := mocks.NewMockClient(mocks.Focus(mocks.Root(
		mocks.Workspace(10, "1", mocks.Window(100), mocks.Window(200)),
	), 100))

	return &harness{
		opts: Options{
			ConfigPath:  cfgPath,
			Explicit:    true,
			Socket:      socket,
			PidFile:     filepath.Join(dir, "layman.pid"),
			PresetsDir:  filepath.Join(dir, "presets"),
			SessionsDir: filepath.Join(dir, "sessions"),
			Conn:        conn,
		},
		conn:   conn,
		client: client.NewRemoteClient(socket).WithTimeout(2 * time.Second),
	}
}

// start runs the daemon until the test ends.
func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	h.opts.Ready = ready
	done := make(chan error, 1)
	go func() { done <- Run(ctx, h.opts) }()

	select {
	case <-ready:
	case err := <-done:
		cancel()
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("daemon did not start")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
		running, _, _ := pidfile.IsRunning(h.opts.PidFile)
		assert.False(t, running)
	})
}

func (h *harness) send(t *testing.T, cmd string) string {
	t.Helper()
	reply, err := h.client.Send(context.Background(), cmd)
	require.NoError(t, err)
	return reply
}

func TestDaemonServesCommands(t *testing.T) {
	h := newHarness(t, testConfig+"watchConfig = false\n")
	h.start(t)

	assert.Equal(t, "1: MasterStack (2 windows)", h.send(t, "status"))
	assert.Equal(t, "Layout set to splitv", h.send(t, "layout set splitv"))
	assert.Equal(t, "1: splitv (2 windows)", h.send(t, "status"))

	running, pid, err := pidfile.IsRunning(h.opts.PidFile)
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)
}

func TestDaemonReloadsEditedConfig(t *testing.T) {
	h := newHarness(t, testConfig)
	h.start(t)

	assert.NotContains(t, h.send(t, "dump"), "masterWidth: 70")
	require.NoError(t, os.WriteFile(h.opts.ConfigPath, []byte(testConfig+"masterWidth = 70\n"), 0o644))

	assert.Eventually(t, func() bool {
		reply, err := h.client.Send(context.Background(), "dump")
		return err == nil && strings.Contains(reply, "masterWidth: 70")
	}, 5*time.Second, 50*time.Millisecond)
}

func TestDaemonRefusesSecondInstance(t *testing.T) {
	h := newHarness(t, testConfig)
	// The parent of the test binary is alive for the whole test.
	require.NoError(t, os.WriteFile(h.opts.PidFile, []byte(strconv.Itoa(os.Getppid())), 0o644))

	err := Run(context.Background(), h.opts)
	assert.True(t, errors.Is(err, errors.ErrCodeDaemonAlreadyRunning), "got %v", err)
}

func TestDaemonFailsOnUnknownDefaultLayout(t *testing.T) {
	h := newHarness(t, "[layman]\ndefaultLayout = \"Spiral\"\n")

	err := Run(context.Background(), h.opts)
	assert.True(t, errors.Is(err, errors.ErrCodeUnknownLayout), "got %v", err)
	_, statErr := os.Stat(h.opts.PidFile)
	assert.True(t, os.IsNotExist(statErr))
}
