package daemon

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve answers every connection with handler(line) and closes it.
func serve(t *testing.T, handler func(string) string) string {
	t.Helper()
	socket := testutil.SocketPath(t)
	l, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				line, _ := bufio.NewReader(conn).ReadString('\n')
				reply := handler(strings.TrimSpace(line))
				if reply != "" {
					_, _ = conn.Write([]byte(reply + "\n"))
				}
			}()
		}
	}()
	return socket
}

func TestSendRoundTrip(t *testing.T) {
	socket := serve(t, func(line string) string {
		return "got " + line + "\nsecond line"
	})

	client, err := New(socket)
	require.NoError(t, err)
	assert.True(t, client.IsRunning())

	reply, err := client.Send(context.Background(), "  layout set MasterStack ")
	require.NoError(t, err)
	assert.Equal(t, "got layout set MasterStack\nsecond line", reply)
}

func TestSendRejectsBadInput(t *testing.T) {
	client := NewRemoteClient(filepath.Join(t.TempDir(), "none.sock"))

	_, err := client.Send(context.Background(), "   ")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = client.Send(context.Background(), "dump\nreload")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestNewWithoutDaemon(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.sock"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDaemonNotRunning))
}

func TestSendTimesOut(t *testing.T) {
	socket := serve(t, func(string) string {
		time.Sleep(500 * time.Millisecond)
		return "late"
	})

	client := NewRemoteClient(socket).WithTimeout(50 * time.Millisecond)
	_, err := client.Send(context.Background(), "dump")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeControlTimeout))
}
