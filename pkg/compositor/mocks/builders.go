package mocks

import "github.com/grovetools/layman/pkg/tree"

// Root builds root -> output -> workspaces and links it.
func Root(workspaces ...*tree.Node) *tree.Node {
	output := &tree.Node{ID: 2, Name: "eDP-1", Type: tree.TypeOutput, Layout: tree.LayoutOutput, Nodes: workspaces}
	root := &tree.Node{ID: 1, Name: "root", Type: tree.TypeRoot, Nodes: []*tree.Node{output}}
	return root.Link()
}

// Workspace builds a workspace with the given tiled children.
func Workspace(id int64, name string, children ...*tree.Node) *tree.Node {
	return &tree.Node{ID: id, Name: name, Type: tree.TypeWorkspace, Layout: tree.LayoutSplitH, Nodes: children}
}

// Window builds a tiled leaf.
func Window(id int64) *tree.Node {
	return &tree.Node{ID: id, Type: tree.TypeCon, Layout: "none"}
}

// WindowWidth builds a tiled leaf with the given pixel width.
func WindowWidth(id int64, width int64) *tree.Node {
	w := Window(id)
	w.Rect.Width = width
	return w
}

// FloatingWindow builds a sway-style floating window.
func FloatingWindow(id int64) *tree.Node {
	return &tree.Node{ID: id, Type: tree.TypeFloatingCon}
}

// Split builds a split container.
func Split(id int64, layout string, children ...*tree.Node) *tree.Node {
	return &tree.Node{ID: id, Type: tree.TypeCon, Layout: layout, Nodes: children}
}

// Focus marks id as the only focused node of root.
func Focus(root *tree.Node, id int64) *tree.Node {
	for _, d := range root.Descendants() {
		d.Focused = d.ID == id
	}
	return root
}

// Clone deep-copies n without parent links.
func Clone(n *tree.Node) *tree.Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Parent = nil
	out.Nodes = nil
	out.FloatingNodes = nil
	for _, c := range n.Nodes {
		out.Nodes = append(out.Nodes, Clone(c))
	}
	for _, c := range n.FloatingNodes {
		out.FloatingNodes = append(out.FloatingNodes, Clone(c))
	}
	return &out
}
