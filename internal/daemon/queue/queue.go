// Package queue holds the messages producers hand to the dispatch loop and
// the FIFO that carries them.
package queue

import (
	"context"

	"github.com/grovetools/layman/pkg/compositor"
)

// DefaultCapacity bounds how far producers may run ahead of the dispatch
// loop before Put blocks.
const DefaultCapacity = 256

// Message is either an *EventMessage or a *CommandMessage. Messages are
// not modified after Put.
type Message interface {
	isMessage()
}

// EventMessage carries one compositor push event, uninterpreted.
type EventMessage struct {
	Event compositor.Event
}

// CommandMessage carries one control-channel request.
type CommandMessage struct {
	// ID correlates the request with its log lines.
	ID   string
	Text string
	// Reply, when non-nil, receives exactly one value. It must have a
	// buffer of one so the dispatch loop never blocks on a departed client.
	Reply chan string
}

func (*EventMessage) isMessage()   {}
func (*CommandMessage) isMessage() {}

// NewCommand builds a command message with a fresh one-shot reply slot.
func NewCommand(id, text string) *CommandMessage {
	return &CommandMessage{ID: id, Text: text, Reply: make(chan string, 1)}
}

// Respond delivers the reply, if anyone asked for one. Only the first
// call has an effect.
func (m *CommandMessage) Respond(reply string) {
	if m.Reply == nil {
		return
	}
	select {
	case m.Reply <- reply:
	default:
	}
}

// Queue is the single FIFO shared by all producers. Only one goroutine may
// receive from it.
type Queue struct {
	ch chan Message
}

// New creates a queue with the given capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan Message, capacity)}
}

// Put enqueues m, blocking while the queue is full.
func (q *Queue) Put(ctx context.Context, m Message) error {
	select {
	case q.ch <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// C returns the receive side for the dispatch loop.
func (q *Queue) C() <-chan Message {
	return q.ch
}

// Len reports how many messages are waiting.
func (q *Queue) Len() int {
	return len(q.ch)
}
