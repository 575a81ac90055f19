package server

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/layman/internal/daemon/queue"
	"github.com/grovetools/layman/logging"
	"github.com/grovetools/layman/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, timeout time.Duration) (*Server, *queue.Queue, string) {
	t.Helper()
	socket := filepath.Join(filepath.Dir(testutil.SocketPath(t)), "run", "layman.sock")
	q := queue.New(8)
	s := New(q, timeout, logging.NewLogger("server-test"))
	require.NoError(t, s.Listen(socket))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s, q, socket
}

func send(t *testing.T, socket, line string) string {
	t.Helper()
	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(line))
	require.NoError(t, err)
	reply, _ := bufio.NewReader(conn).ReadString('\n')
	return strings.TrimSuffix(reply, "\n")
}

func TestRoundTrip(t *testing.T) {
	_, q, socket := startServer(t, time.Second)

	go func() {
		m := (<-q.C()).(*queue.CommandMessage)
		assert.NotEmpty(t, m.ID)
		m.Respond("handled: " + m.Text)
	}()

	assert.Equal(t, "handled: layout set MasterStack", send(t, socket, "layout set MasterStack\n"))
}

func TestSocketPermissions(t *testing.T) {
	_, _, socket := startServer(t, time.Second)

	info, err := os.Stat(socket)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStaleSocketIsReplaced(t *testing.T) {
	socket := testutil.SocketPath(t)
	require.NoError(t, os.WriteFile(socket, []byte("stale"), 0644))

	s := New(queue.New(1), time.Second, logging.NewLogger("server-test"))
	require.NoError(t, s.Listen(socket))
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestEmptyLineClosesWithoutEnqueue(t *testing.T) {
	_, q, socket := startServer(t, time.Second)

	assert.Equal(t, "", send(t, socket, "   \n"))
	assert.Equal(t, 0, q.Len())
}

func TestReplyTimeout(t *testing.T) {
	_, q, socket := startServer(t, 50*time.Millisecond)

	assert.Equal(t, TimeoutReply, send(t, socket, "dump\n"))
	// The message stays queued; answering late must not block anyone.
	m := (<-q.C()).(*queue.CommandMessage)
	m.Respond("too late")
}

func TestSlowClientDoesNotBlockOthers(t *testing.T) {
	_, q, socket := startServer(t, time.Second)

	idle, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer idle.Close()

	go func() {
		m := (<-q.C()).(*queue.CommandMessage)
		m.Respond("OK")
	}()
	assert.Equal(t, "OK", send(t, socket, "status\n"))
}
