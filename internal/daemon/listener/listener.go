// Package listener turns the compositor's push events into queue messages.
package listener

import (
	"context"
	"fmt"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/internal/daemon/queue"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/sirupsen/logrus"
)

// Subscriptions are the event types the daemon subscribes to.
var Subscriptions = []compositor.EventType{
	compositor.WindowEvent,
	compositor.WorkspaceEvent,
	compositor.BindingEvent,
}

var windowChanges = map[string]bool{
	"new":      true,
	"close":    true,
	"move":     true,
	"floating": true,
	"focus":    true,
}

// Accept reports whether the daemon handles ev. Everything else is
// dropped here so the dispatch loop never sees it.
func Accept(ev compositor.Event) bool {
	switch ev.Type {
	case compositor.WindowEvent:
		return windowChanges[ev.Change]
	case compositor.WorkspaceEvent:
		return ev.Change == "init"
	case compositor.BindingEvent:
		return true
	}
	return false
}

// Listener forwards accepted events to the queue.
type Listener struct {
	sub    compositor.Subscriber
	q      *queue.Queue
	logger *logrus.Entry
	events <-chan compositor.Event
}

func New(sub compositor.Subscriber, q *queue.Queue, logger *logrus.Entry) *Listener {
	return &Listener{sub: sub, q: q, logger: logger}
}

// Arm opens the subscription. Events that arrive between Arm and Run
// are buffered by the subscription, so arming before the initial tree
// scan closes the window in which events could be missed.
func (l *Listener) Arm(ctx context.Context) error {
	if l.events != nil {
		return nil
	}
	events, err := l.sub.Subscribe(ctx, Subscriptions...)
	if err != nil {
		return errors.IPCFailed("subscribe", err)
	}
	l.events = events
	return nil
}

// Run forwards events until ctx is canceled. It returns an error if the
// subscription ends on its own.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.Arm(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-l.events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.IPCFailed("subscribe", fmt.Errorf("event stream closed"))
			}
			if !Accept(ev) {
				l.logger.WithField("event", ev.Key()).Debug("Ignoring event")
				continue
			}
			if err := l.q.Put(ctx, &queue.EventMessage{Event: ev}); err != nil {
				return nil
			}
		}
	}
}
