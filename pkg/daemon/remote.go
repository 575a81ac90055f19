package daemon

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/grovetools/layman/errors"
)

// DefaultTimeout bounds a whole exchange. It is a little longer than the
// daemon's own reply timeout so the daemon's timeout message wins.
const DefaultTimeout = 12 * time.Second

// RemoteClient talks to the daemon over its Unix socket.
type RemoteClient struct {
	socketPath string
	timeout    time.Duration
}

// NewRemoteClient creates a client for the daemon listening on socketPath.
func NewRemoteClient(socketPath string) *RemoteClient {
	return &RemoteClient{socketPath: socketPath, timeout: DefaultTimeout}
}

// WithTimeout overrides the exchange timeout.
func (c *RemoteClient) WithTimeout(d time.Duration) *RemoteClient {
	if d > 0 {
		c.timeout = d
	}
	return c
}

func (c *RemoteClient) Send(ctx context.Context, command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "empty command")
	}
	if strings.Contains(command, "\n") {
		return "", errors.New(errors.ErrCodeInvalidInput, "command must be a single line")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return "", errors.DaemonNotRunning(c.socketPath, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, command+"\n"); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}
	reply, err := io.ReadAll(conn)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return "", errors.ControlTimeout(command, c.timeout)
		}
		return "", fmt.Errorf("failed to read reply: %w", err)
	}
	return strings.TrimRight(string(reply), "\n"), nil
}

// IsRunning probes the socket with a short dial.
func (c *RemoteClient) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.socketPath, 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Close is a no-op; connections are per command.
func (c *RemoteClient) Close() error {
	return nil
}

var _ Client = (*RemoteClient)(nil)
