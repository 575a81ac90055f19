package layout

import (
	"context"

	"github.com/grovetools/layman/logging"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/tree"
	"github.com/sirupsen/logrus"
)

// Base supplies no-op event handlers and command plumbing. Managers embed
// it and override what they need.
//
// Commands issued through Base are fire-and-forget: a failing sub-command
// is logged only. A transport failure is remembered, later commands of the
// same call are skipped, and Err hands it back so the manager method can
// return it.
type Base struct {
	Client        compositor.Client
	WorkspaceName string
	Logger        *logrus.Entry

	name string
	err  error
}

// NewBase prepares a Base for a manager called name.
func NewBase(p Params, name string) Base {
	return Base{
		Client:        p.Client,
		WorkspaceName: p.WorkspaceName,
		Logger: logging.NewLogger("layout").WithFields(logrus.Fields{
			"workspace": p.WorkspaceName,
			"layout":    name,
		}),
		name: name,
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Capabilities() Capabilities { return Capabilities{} }

func (b *Base) WindowAdded(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	return nil
}

func (b *Base) WindowRemoved(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	return nil
}

func (b *Base) WindowFocused(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	return nil
}

func (b *Base) WindowMoved(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	return nil
}

func (b *Base) WindowFloating(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error {
	return nil
}

func (b *Base) OnCommand(ctx context.Context, cmd string, ws *tree.Node) error {
	return nil
}

func (b *Base) DumpState() map[string]any {
	return map[string]any{
		"layout":        b.name,
		"workspaceName": b.WorkspaceName,
	}
}

// Command runs cmd unless an earlier command failed to reach the
// compositor.
func (b *Base) Command(ctx context.Context, cmd string) {
	if b.err != nil {
		b.Logger.WithField("cmd", cmd).Debug("Skipping command after IPC failure")
		return
	}
	if err := compositor.Run(ctx, b.Client, b.Logger, cmd); err != nil {
		b.err = err
	}
}

// Tree fetches a fresh snapshot, recording a failure like Command does.
func (b *Base) Tree(ctx context.Context) *tree.Node {
	if b.err != nil {
		return nil
	}
	root, err := b.Client.Tree(ctx)
	if err != nil {
		b.err = err
		return nil
	}
	return root
}

// Err returns and clears the recorded IPC failure.
func (b *Base) Err() error {
	err := b.err
	b.err = nil
	return err
}

// Fail records err unless an earlier failure is already recorded.
func (b *Base) Fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// None is the "none" layout: it leaves the workspace to the compositor.
type None struct {
	Base
}

// NoneName is the name of the pass-through layout.
const NoneName = "none"

// NewNone is the Factory for the "none" layout.
func NewNone(ctx context.Context, p Params) (Manager, error) {
	return &None{Base: NewBase(p, NoneName)}, nil
}
