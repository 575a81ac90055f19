// Package compositor defines the contract the daemon uses to talk to an
// i3-compatible compositor, plus consumer-side helpers layered on top of it.
package compositor

import (
	"context"
	"fmt"
	"strings"

	"github.com/grovetools/layman/pkg/tree"
	"github.com/sirupsen/logrus"
)

// EventType identifies a subscription channel of the IPC protocol.
type EventType string

const (
	WindowEvent    EventType = "window"
	WorkspaceEvent EventType = "workspace"
	BindingEvent   EventType = "binding"
)

// Result is the outcome of one sub-command of a run_command request.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Event is a decoded push event. Only the fields relevant to Type are set.
type Event struct {
	Type   EventType
	Change string

	// Container is the window a window event is about. It carries no
	// ancestry, so handlers re-fetch the tree to place it.
	Container *tree.Node

	// Current is the workspace a workspace event is about.
	Current *tree.Node

	// Binding is the command text of a binding event.
	Binding string
}

// ContainerID returns the ID of the event's container, or 0.
func (e Event) ContainerID() int64 {
	if e.Container == nil {
		return 0
	}
	return e.Container.ID
}

// Key identifies an event for duplicate suppression.
func (e Event) Key() string {
	switch e.Type {
	case WindowEvent:
		return fmt.Sprintf("%s:%s:%d", e.Type, e.Change, e.ContainerID())
	case WorkspaceEvent:
		name := ""
		if e.Current != nil {
			name = e.Current.Name
		}
		return fmt.Sprintf("%s:%s:%s", e.Type, e.Change, name)
	default:
		return fmt.Sprintf("%s:%s:%s", e.Type, e.Change, e.Binding)
	}
}

// Client is the synchronous request side of the IPC protocol.
type Client interface {
	// Tree returns a freshly fetched, linked snapshot of the whole tree.
	Tree(ctx context.Context) (*tree.Node, error)

	// Command runs cmd, which may hold several ';'-joined sub-commands, and
	// returns one Result per sub-command.
	Command(ctx context.Context, cmd string) ([]Result, error)
}

// Subscriber is the push side of the IPC protocol.
type Subscriber interface {
	// Subscribe delivers events of the given types until ctx is canceled or
	// the connection fails, then closes the channel.
	Subscribe(ctx context.Context, types ...EventType) (<-chan Event, error)
}

// Conn is a full compositor connection.
type Conn interface {
	Client
	Subscriber
}

// Flusher is implemented by clients that buffer commands.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Invalidator is implemented by clients that cache snapshots.
type Invalidator interface {
	Invalidate()
}

// Stats are the counters kept by the wrapping clients. They appear in the
// dump command output.
type Stats struct {
	TreeCacheHits   int `yaml:"treeCacheHits" json:"treeCacheHits"`
	BatchesSent     int `yaml:"batchesSent" json:"batchesSent"`
	PendingCommands int `yaml:"pendingCommands" json:"pendingCommands"`
}

// StatsReporter is implemented by clients that keep Stats.
type StatsReporter interface {
	Stats() Stats
}

// Run issues cmd and logs every sub-command result. Failed sub-commands are
// logged, not returned: the caller never reads back command success. The
// returned error is a transport failure only.
func Run(ctx context.Context, c Client, logger *logrus.Entry, cmd string) error {
	logger.WithField("cmd", cmd).Debug("Running command")
	results, err := c.Command(ctx, cmd)
	if err != nil {
		logger.WithError(err).WithField("cmd", cmd).Error("Command round-trip failed")
		return err
	}
	for _, r := range results {
		if r.Success {
			logger.Debug("Command succeeded")
			continue
		}
		logger.WithField("cmd", cmd).Errorf("Command failed: %s", r.Error)
	}
	return nil
}

// SplitCommands splits a ';'-joined command line into trimmed, non-empty
// segments.
func SplitCommands(line string) []string {
	var out []string
	for _, part := range strings.Split(line, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
