// Package daemon is the client side of layman's control socket. Each
// command opens a connection, writes one line and reads the reply until
// the daemon closes the connection.
package daemon

import "context"

// Client sends commands to a running layman daemon.
type Client interface {
	// Send runs one command line, which may hold several ';'-separated
	// commands, and returns the daemon's reply.
	Send(ctx context.Context, command string) (string, error)

	// IsRunning returns true if the daemon is accepting connections.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}
