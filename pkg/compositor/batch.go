package compositor

import (
	"context"
	"strings"

	"github.com/grovetools/layman/pkg/tree"
)

// Batcher coalesces the commands issued while handling one message into a
// single run_command round-trip. Reading the tree flushes first, so a
// handler never observes a tree that lags its own commands.
//
// A Batcher is owned by the dispatch loop and is not safe for concurrent use.
type Batcher struct {
	next    Client
	enabled bool
	pending []string
	batches int
}

// NewBatcher wraps next. A disabled batcher forwards every call unchanged.
func NewBatcher(next Client, enabled bool) *Batcher {
	return &Batcher{next: next, enabled: enabled}
}

// Tree flushes pending commands, then fetches the tree.
func (b *Batcher) Tree(ctx context.Context) (*tree.Node, error) {
	if err := b.Flush(ctx); err != nil {
		return nil, err
	}
	return b.next.Tree(ctx)
}

// Command queues cmd and reports optimistic success.
func (b *Batcher) Command(ctx context.Context, cmd string) ([]Result, error) {
	if !b.enabled {
		return b.next.Command(ctx, cmd)
	}
	b.pending = append(b.pending, cmd)
	return []Result{{Success: true}}, nil
}

func (b *Batcher) Stats() Stats {
	return Stats{BatchesSent: b.batches, PendingCommands: len(b.pending)}
}

// Flush sends every queued command as one request.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	line := strings.Join(b.pending, "; ")
	b.pending = b.pending[:0]
	b.batches++
	_, err := b.next.Command(ctx, line)
	return err
}
