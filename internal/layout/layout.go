// Package layout defines the contract between the orchestrator and the
// window-arrangement algorithms, and the registry that names them.
package layout

import (
	"context"

	"github.com/grovetools/layman/config"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/tree"
)

// Capabilities tell the orchestrator which commands and events a manager
// wants to see.
type Capabilities struct {
	// OverridesMoveBinds routes "move ..." commands to the manager instead
	// of the compositor.
	OverridesMoveBinds bool
	// OverridesFocusBinds routes "focus ..." commands to the manager.
	OverridesFocusBinds bool
	// SupportsFloating delivers floating toggles to WindowFloating. Without
	// it they are treated as removals and additions.
	SupportsFloating bool
}

// Manager arranges the windows of one workspace. An instance belongs to a
// single workspace and is only called from the dispatch loop.
//
// Returning an error makes the orchestrator discard the instance and build
// a fresh one from the current tree.
type Manager interface {
	Name() string
	Capabilities() Capabilities

	WindowAdded(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error
	// WindowRemoved may receive a nil ws: a workspace that lost its last
	// window while unfocused no longer exists.
	WindowRemoved(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error
	WindowFocused(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error
	// WindowMoved is called for moves within the workspace.
	WindowMoved(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error
	WindowFloating(ctx context.Context, ev compositor.Event, ws, win *tree.Node) error

	OnCommand(ctx context.Context, cmd string, ws *tree.Node) error

	// DumpState describes the manager's internal state for `dump`.
	DumpState() map[string]any
}

// Params is what a Factory gets to build a manager.
type Params struct {
	Client compositor.Client
	// Workspace is nil when the workspace has no windows and is not
	// focused, so it does not exist in the tree.
	Workspace     *tree.Node
	WorkspaceName string
	Options       *config.Options
	// Variant names the [layout.<name>] table the manager was created
	// through, or is empty.
	Variant string
}

// Decode decodes the manager's options for this workspace into target.
func (p Params) Decode(target any) error {
	if p.Options == nil {
		return nil
	}
	return p.Options.Decode(p.WorkspaceName, p.Variant, target)
}

// Factory builds a manager. It returns a configuration error when the
// options are invalid.
type Factory func(ctx context.Context, p Params) (Manager, error)
