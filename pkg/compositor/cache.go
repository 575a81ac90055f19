package compositor

import (
	"context"
	"time"

	"github.com/grovetools/layman/pkg/tree"
)

// DefaultCacheMaxAge bounds how long a snapshot is reused.
const DefaultCacheMaxAge = time.Second

// Cache reuses the last snapshot until it expires or a command is issued.
// The dispatch loop invalidates it before each message, so a snapshot never
// outlives the message that fetched it.
//
// A Cache is owned by the dispatch loop and is not safe for concurrent use.
type Cache struct {
	next    Client
	maxAge  time.Duration
	now     func() time.Time
	snap    *tree.Node
	fetched time.Time
	hits    int
}

// NewCache wraps next. A zero maxAge disables caching.
func NewCache(next Client, maxAge time.Duration) *Cache {
	return &Cache{next: next, maxAge: maxAge, now: time.Now}
}

// Tree returns the cached snapshot while it is fresh.
func (c *Cache) Tree(ctx context.Context) (*tree.Node, error) {
	if c.maxAge > 0 && c.snap != nil && c.now().Sub(c.fetched) < c.maxAge {
		c.hits++
		return c.snap, nil
	}
	snap, err := c.next.Tree(ctx)
	if err != nil {
		return nil, err
	}
	c.snap = snap
	c.fetched = c.now()
	return snap, nil
}

// Command drops the snapshot, since the command may change the tree.
func (c *Cache) Command(ctx context.Context, cmd string) ([]Result, error) {
	c.Invalidate()
	return c.next.Command(ctx, cmd)
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.snap = nil
}

// Flush forwards to the wrapped client when it buffers commands.
func (c *Cache) Flush(ctx context.Context) error {
	if f, ok := c.next.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

// Stats adds the cache hits to the stats of the wrapped client.
func (c *Cache) Stats() Stats {
	var s Stats
	if r, ok := c.next.(StatsReporter); ok {
		s = r.Stats()
	}
	s.TreeCacheHits += c.hits
	return s
}
