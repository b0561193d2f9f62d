package calltarget

import "github.com/reglet-dev/hostbridge/domain/ports"

// Node is a named call site. Nodes are compared by identity.
type Node struct {
	parent      ports.Node
	name        string
	transparent bool
}

var _ ports.Node = (*Node)(nil)

// NewNode creates a call site under parent (nil for a top-level site).
func NewNode(name string, parent ports.Node) *Node {
	return &Node{name: name, parent: normalizeParent(parent)}
}

// NewTransparentNode creates a helper node whose calls are charged to its parent.
func NewTransparentNode(name string, parent ports.Node) *Node {
	return &Node{name: name, parent: normalizeParent(parent), transparent: true}
}

// normalizeParent turns a typed nil *Node into an untyped nil.
func normalizeParent(parent ports.Node) ports.Node {
	if p, ok := parent.(*Node); ok && p == nil {
		return nil
	}
	return parent
}

// Parent implements ports.Node.
func (n *Node) Parent() ports.Node {
	return n.parent
}

// Name returns the call-site name.
func (n *Node) Name() string { return n.name }

// Transparent reports whether the node is skipped when resolving the encapsulating node.
func (n *Node) Transparent() bool { return n.transparent }

func (n *Node) String() string { return n.name }
