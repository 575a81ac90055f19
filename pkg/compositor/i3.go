package compositor

import (
	"context"
	"os"
	"sync"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/pkg/tree"
	"github.com/sirupsen/logrus"
	"go.i3wm.org/i3/v4"
)

var socketHookOnce sync.Once

// I3 talks to i3 or sway over the IPC socket.
type I3 struct {
	logger *logrus.Entry
}

// NewI3 returns a connection to the running compositor. When SWAYSOCK is
// set, the sway socket is used instead of asking the i3 binary.
func NewI3(logger *logrus.Entry) *I3 {
	socketHookOnce.Do(func() {
		if sock := os.Getenv("SWAYSOCK"); sock != "" {
			i3.SocketPathHook = func() (string, error) {
				return sock, nil
			}
		}
	})
	return &I3{logger: logger}
}

// Tree fetches and links the full container tree.
func (c *I3) Tree(ctx context.Context) (*tree.Node, error) {
	t, err := i3.GetTree()
	if err != nil {
		return nil, errors.IPCFailed("get_tree", err)
	}
	return convertNode(t.Root).Link(), nil
}

// Command runs cmd. A sub-command reporting failure is returned in the
// results rather than as an error.
func (c *I3) Command(ctx context.Context, cmd string) ([]Result, error) {
	crs, err := i3.RunCommand(cmd)
	if len(crs) > 0 {
		results := make([]Result, 0, len(crs))
		for _, cr := range crs {
			results = append(results, Result{Success: cr.Success, Error: cr.Error})
		}
		return results, nil
	}
	if err != nil {
		return nil, errors.IPCFailed("run_command", err)
	}
	return nil, nil
}

// Subscribe starts a receiver goroutine that converts compositor events
// until ctx is canceled or the socket fails.
func (c *I3) Subscribe(ctx context.Context, types ...EventType) (<-chan Event, error) {
	i3Types := make([]i3.EventType, 0, len(types))
	for _, t := range types {
		switch t {
		case WindowEvent:
			i3Types = append(i3Types, i3.WindowEventType)
		case WorkspaceEvent:
			i3Types = append(i3Types, i3.WorkspaceEventType)
		case BindingEvent:
			i3Types = append(i3Types, i3.BindingEventType)
		}
	}

	recv := i3.Subscribe(i3Types...)
	out := make(chan Event)

	go func() {
		<-ctx.Done()
		recv.Close()
	}()

	go func() {
		defer close(out)
		for recv.Next() {
			ev, ok := convertEvent(recv.Event())
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
		if err := recv.Close(); err != nil && ctx.Err() == nil {
			c.logger.WithError(err).Error("Event subscription ended")
		}
	}()

	return out, nil
}

func convertEvent(ev i3.Event) (Event, bool) {
	switch e := ev.(type) {
	case *i3.WindowEvent:
		container := convertNode(&e.Container)
		return Event{Type: WindowEvent, Change: e.Change, Container: container}, true
	case *i3.WorkspaceEvent:
		current := convertNode(&e.Current).Link()
		return Event{Type: WorkspaceEvent, Change: e.Change, Current: current}, true
	case *i3.BindingEvent:
		return Event{Type: BindingEvent, Change: e.Change, Binding: e.Binding.Command}, true
	}
	return Event{}, false
}

func convertNode(n *i3.Node) *tree.Node {
	if n == nil {
		return nil
	}
	out := &tree.Node{
		ID:      int64(n.ID),
		Name:    n.Name,
		Type:    string(n.Type),
		Layout:  string(n.Layout),
		Focused: n.Focused,
		Rect: tree.Rect{
			X:      n.Rect.X,
			Y:      n.Rect.Y,
			Width:  n.Rect.Width,
			Height: n.Rect.Height,
		},
		Floating: string(n.Floating),
		Class:    n.WindowProperties.Class,
	}
	for _, c := range n.Nodes {
		out.Nodes = append(out.Nodes, convertNode(c))
	}
	for _, c := range n.FloatingNodes {
		out.FloatingNodes = append(out.FloatingNodes, convertNode(c))
	}
	return out
}
