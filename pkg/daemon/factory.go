package daemon

import (
	"os"

	"github.com/grovetools/layman/errors"
)

// New returns a client for the daemon at socketPath. It fails with
// DAEMON_NOT_RUNNING when nothing is listening there.
func New(socketPath string) (Client, error) {
	if _, err := os.Stat(socketPath); err != nil {
		return nil, errors.DaemonNotRunning(socketPath, err)
	}
	client := NewRemoteClient(socketPath)
	if !client.IsRunning() {
		return nil, errors.DaemonNotRunning(socketPath, nil)
	}
	return client, nil
}
