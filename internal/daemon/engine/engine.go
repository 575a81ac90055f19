// Package engine runs the dispatch loop: the single consumer of the message
// queue and the only caller of the orchestrator.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/internal/daemon/queue"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/profiling"
	"github.com/grovetools/layman/pkg/tree"
	"github.com/sirupsen/logrus"
)

// BindingMarker prefixes binding commands that layman handles itself.
const BindingMarker = "nop layman"

// PanicReply answers a command whose handling panicked.
const PanicReply = "Error: Command execution failed."

// Orchestrator receives the interpreted messages. All calls come from the
// dispatch loop goroutine.
type Orchestrator interface {
	InitWorkspace(ctx context.Context, ws *tree.Node)
	WindowCreated(ctx context.Context, ev compositor.Event, ws, win *tree.Node)
	WindowClosed(ctx context.Context, ev compositor.Event, root *tree.Node)
	WindowFocused(ctx context.Context, ev compositor.Event, ws, win *tree.Node)
	WindowMoved(ctx context.Context, ev compositor.Event, root, toWs, win *tree.Node)
	WindowFloating(ctx context.Context, ev compositor.Event, ws, win *tree.Node)
	HandleCommand(ctx context.Context, text string) (string, error)
	OnCommand(ctx context.Context, text string) string
}

// Engine consumes the queue strictly in order, one message at a time.
type Engine struct {
	queue     *queue.Queue
	client    compositor.Client
	orch      Orchestrator
	debouncer *Debouncer
	logger    *logrus.Entry

	handled uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce drops same-key events arriving within window of each other.
func WithDebounce(window time.Duration) Option {
	return func(e *Engine) {
		e.debouncer = NewDebouncer(window)
	}
}

// New creates a new Engine instance.
func New(q *queue.Queue, client compositor.Client, orch Orchestrator, logger *logrus.Entry, opts ...Option) *Engine {
	e := &Engine{
		queue:  q,
		client: client,
		orch:   orch,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bootstrap initializes every workspace present in root. It runs on the
// dispatch goroutine before the first message.
func (e *Engine) Bootstrap(ctx context.Context, root *tree.Node) {
	for _, ws := range root.Workspaces() {
		e.orch.InitWorkspace(ctx, ws)
	}
	e.settle(ctx)
}

// Run bootstraps from initial, when non-nil, then handles messages until
// ctx is canceled.
func (e *Engine) Run(ctx context.Context, initial *tree.Node) error {
	if initial != nil {
		e.Bootstrap(ctx, initial)
	}
	e.logger.Info("layman started")

	for {
		select {
		case <-ctx.Done():
			e.logger.WithField("messages", e.handled).Info("layman stopped")
			return nil
		case m := <-e.queue.C():
			e.Handle(ctx, m)
		}
	}
}

// Handle processes one message to completion.
func (e *Engine) Handle(ctx context.Context, m queue.Message) {
	e.handled++
	defer profiling.Start(kindOf(m)).Stop()
	if inv, ok := e.client.(compositor.Invalidator); ok {
		inv.Invalidate()
	}
	defer e.settle(ctx)

	switch msg := m.(type) {
	case *queue.EventMessage:
		e.handleEvent(ctx, msg.Event)
	case *queue.CommandMessage:
		msg.Respond(e.runCommand(ctx, msg))
	default:
		e.logger.Errorf("Unexpected message type %T", m)
	}
}

// kindOf names a message for the timing profile.
func kindOf(m queue.Message) string {
	if msg, ok := m.(*queue.EventMessage); ok {
		return fmt.Sprintf("event:%s:%s", msg.Event.Type, msg.Event.Change)
	}
	return "command"
}

// settle flushes commands buffered while handling a message.
func (e *Engine) settle(ctx context.Context) {
	if f, ok := e.client.(compositor.Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			e.logger.WithError(err).Error("Failed to flush batched commands")
		}
	}
}

func (e *Engine) runCommand(ctx context.Context, msg *queue.CommandMessage) (reply string) {
	logger := e.logger.WithField("request_id", msg.ID)
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("command", msg.Text).
				WithField("stack", string(debug.Stack())).
				Errorf("Error handling command: %v", r)
			reply = PanicReply
		}
	}()
	logger.WithField("command", msg.Text).Debug("Handling command")
	return e.orch.OnCommand(ctx, msg.Text)
}

func (e *Engine) handleEvent(ctx context.Context, ev compositor.Event) {
	if !e.debouncer.Accept(ev.Key()) {
		e.logger.WithField("event", ev.Key()).Debug("Debounced event")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("event", ev.Key()).
				WithField("stack", string(debug.Stack())).
				Errorf("Error handling event: %v", r)
		}
	}()

	switch ev.Type {
	case compositor.WindowEvent:
		e.onWindow(ctx, ev)
	case compositor.WorkspaceEvent:
		e.onWorkspace(ctx, ev)
	case compositor.BindingEvent:
		e.onBinding(ctx, ev)
	default:
		e.logger.WithField("event", ev.Key()).Warn("Invalid event received")
	}
}

func (e *Engine) onWindow(ctx context.Context, ev compositor.Event) {
	id := ev.ContainerID()
	logger := e.logger.WithField("window", id).WithField("change", ev.Change)

	switch ev.Change {
	case "new", "close", "move", "floating", "focus":
	default:
		logger.Debug("Unexpected window event type")
		return
	}

	// The event payload has no ancestry; place the window in a fresh tree.
	root, err := e.client.Tree(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch tree")
		return
	}
	logger.Debug("Handling window event")

	if ev.Change == "close" {
		e.orch.WindowClosed(ctx, ev, root)
		return
	}

	win := root.FindByID(id)
	ws := win.Workspace()
	if win == nil || ws == nil {
		logger.WithError(errors.LookupMiss("window", id)).Debug("Window vanished before handling")
		return
	}

	switch ev.Change {
	case "new":
		e.orch.WindowCreated(ctx, ev, ws, win)
	case "move":
		e.orch.WindowMoved(ctx, ev, root, ws, win)
	case "floating":
		e.orch.WindowFloating(ctx, ev, ws, win)
	case "focus":
		focused := ws.FindFocused()
		if focused == nil || focused.ID != id {
			var current int64
			if focused != nil {
				current = focused.ID
			}
			logger.WithField("current", current).Warn("Stale focus event, skipping")
			return
		}
		e.orch.WindowFocused(ctx, ev, ws, win)
	}
}

func (e *Engine) onWorkspace(ctx context.Context, ev compositor.Event) {
	if ev.Change != "init" || ev.Current == nil {
		e.logger.WithField("event", ev.Key()).Debug("Unexpected workspace event")
		return
	}
	logger := e.logger.WithField("workspace", ev.Current.Name)
	logger.Debug("Handling workspace init")

	ws := ev.Current
	if root, err := e.client.Tree(ctx); err != nil {
		logger.WithError(err).Warn("Failed to fetch tree, using event payload")
	} else if found := root.FindWorkspace(ev.Current.Name); found != nil {
		ws = found
	}
	e.orch.InitWorkspace(ctx, ws)
}

// onBinding handles bindings whose first command is the marker. Marker
// segments are handled as layman commands and the rest go to the
// compositor, in their original order.
func (e *Engine) onBinding(ctx context.Context, ev compositor.Event) {
	command := strings.TrimSpace(ev.Binding)
	if !strings.HasPrefix(command, BindingMarker) {
		return
	}
	e.logger.WithField("binding", command).Debug("Handling binding event")

	for _, segment := range compositor.SplitCommands(command) {
		if !strings.HasPrefix(segment, BindingMarker) {
			_ = compositor.Run(ctx, e.client, e.logger, segment)
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(segment, BindingMarker))
		if text == "" {
			continue
		}
		reply, err := e.orch.HandleCommand(ctx, text)
		if err != nil {
			e.logger.WithError(err).WithField("command", text).Error("Binding command failed")
			continue
		}
		if reply != "" {
			e.logger.WithField("command", text).Debug(reply)
		}
	}
}

