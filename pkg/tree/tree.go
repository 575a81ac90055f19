// Package tree models a read-only snapshot of the compositor's container tree.
//
// A snapshot is fetched per handler, linked once so every node knows its
// parent, and discarded when the handler returns. Nothing in the daemon keeps
// a reference into a snapshot across messages.
package tree

import "strings"

// Node types reported by i3 and sway.
const (
	TypeRoot        = "root"
	TypeOutput      = "output"
	TypeWorkspace   = "workspace"
	TypeCon         = "con"
	TypeFloatingCon = "floating_con"
	TypeDockarea    = "dockarea"
)

// Container layouts reported by i3 and sway.
const (
	LayoutSplitH   = "splith"
	LayoutSplitV   = "splitv"
	LayoutStacked  = "stacked"
	LayoutTabbed   = "tabbed"
	LayoutOutput   = "output"
	LayoutDockarea = "dockarea"
)

// Rect is a node's geometry in pixels.
type Rect struct {
	X      int64 `json:"x" yaml:"x"`
	Y      int64 `json:"y" yaml:"y"`
	Width  int64 `json:"width" yaml:"width"`
	Height int64 `json:"height" yaml:"height"`
}

// Node is one container of the tree. JSON tags follow the get_tree reply so
// fixtures can be written in the compositor's own format.
type Node struct {
	ID             int64   `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	Type           string  `json:"type" yaml:"type"`
	Layout         string  `json:"layout" yaml:"layout"`
	Rect           Rect    `json:"rect" yaml:"rect"`
	Focused        bool    `json:"focused" yaml:"focused"`
	Floating       string  `json:"floating,omitempty" yaml:"floating,omitempty"`
	FullscreenMode int64   `json:"fullscreen_mode" yaml:"fullscreen_mode"`
	AppID          string  `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	Class          string  `json:"class,omitempty" yaml:"class,omitempty"`
	Nodes          []*Node `json:"nodes" yaml:"nodes,omitempty"`
	FloatingNodes  []*Node `json:"floating_nodes" yaml:"floating_nodes,omitempty"`

	Parent *Node `json:"-" yaml:"-"`
}

// Link sets the Parent pointer of every descendant and returns n.
func (n *Node) Link() *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Nodes {
		c.Parent = n
		c.Link()
	}
	for _, c := range n.FloatingNodes {
		c.Parent = n
		c.Link()
	}
	return n
}

// Descendants returns every node below n in breadth-first order, tiled
// children before floating ones at each level.
func (n *Node) Descendants() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	queue := append([]*Node{}, n.Nodes...)
	queue = append(queue, n.FloatingNodes...)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		out = append(out, c)
		queue = append(queue, c.Nodes...)
		queue = append(queue, c.FloatingNodes...)
	}
	return out
}

// IsFloating reports whether the node is floating on either compositor:
// sway marks the window itself as floating_con, i3 sets floating to
// auto_on/user_on.
func (n *Node) IsFloating() bool {
	if n == nil {
		return false
	}
	return n.Type == TypeFloatingCon || strings.Contains(n.Floating, "on")
}

// IsLeaf reports whether the node is a window: a con with no children that
// does not live in a dock area.
func (n *Node) IsLeaf() bool {
	if n == nil || len(n.Nodes) > 0 {
		return false
	}
	if n.Type != TypeCon && n.Type != TypeFloatingCon {
		return false
	}
	return n.Parent == nil || n.Parent.Type != TypeDockarea
}

// Leaves returns the tiled windows below n in breadth-first order.
func (n *Node) Leaves() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	queue := append([]*Node{}, n.Nodes...)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c.Type == TypeCon && len(c.Nodes) == 0 && !c.IsFloating() {
			if c.Parent == nil || c.Parent.Type != TypeDockarea {
				out = append(out, c)
			}
			continue
		}
		queue = append(queue, c.Nodes...)
	}
	return out
}

// FloatingLeaves returns the floating windows below n. On i3 the window is
// the child of a floating_con wrapper, on sway it is the floating_con.
func (n *Node) FloatingLeaves() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, f := range n.FloatingNodes {
		if len(f.Nodes) == 0 {
			out = append(out, f)
			continue
		}
		for _, d := range f.Descendants() {
			if d.IsLeaf() {
				out = append(out, d)
			}
		}
	}
	return out
}

// LeafIDs returns the IDs of Leaves.
func (n *Node) LeafIDs() []int64 {
	leaves := n.Leaves()
	ids := make([]int64, 0, len(leaves))
	for _, l := range leaves {
		ids = append(ids, l.ID)
	}
	return ids
}

// FindByID returns the descendant (or n itself) with the given ID.
func (n *Node) FindByID(id int64) *Node {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return n
	}
	for _, d := range n.Descendants() {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// FindFocused returns the focused descendant of n, if any.
func (n *Node) FindFocused() *Node {
	for _, d := range n.Descendants() {
		if d.Focused {
			return d
		}
	}
	return nil
}

// Workspace returns the workspace containing n, or n when it is a workspace.
func (n *Node) Workspace() *Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == TypeWorkspace {
			return p
		}
	}
	return nil
}

// Workspaces returns every named workspace, skipping internal ones such as
// i3's __i3_scratch.
func (n *Node) Workspaces() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(c *Node) {
		if c == nil {
			return
		}
		if c.Type == TypeWorkspace {
			if !strings.HasPrefix(c.Name, "__") {
				out = append(out, c)
			}
			return
		}
		for _, child := range c.Nodes {
			walk(child)
		}
	}
	walk(n)
	return out
}

// FindWorkspace returns the workspace with the given name.
func (n *Node) FindWorkspace(name string) *Node {
	for _, ws := range n.Workspaces() {
		if ws.Name == name {
			return ws
		}
	}
	return nil
}

// FocusedWorkspace returns the workspace that holds the focused node. An
// empty focused workspace is itself the focused node.
func (n *Node) FocusedWorkspace() *Node {
	if n == nil {
		return nil
	}
	if f := n.FindFocused(); f != nil {
		return f.Workspace()
	}
	return nil
}
