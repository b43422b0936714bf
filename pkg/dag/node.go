// Package dag optimizes one basic block at a time by building a value
// graph of the block, folding constants and sharing common subexpressions
// while it is built, then regenerating only the code whose values are
// still observed.
package dag

import "github.com/anchor-lang/anchorc/pkg/quad"

// NodeID indexes a node in its graph's arena.
type NodeID int

// NoNode is the absent child.
const NoNode NodeID = -1

// LeafOp is the Op of leaf nodes.
const LeafOp = "leaf"

// Node is a value in the block: either a leaf (a literal, the value a
// variable had on block entry, or a value produced by a side effect) or
// an operator applied to earlier nodes.
type Node struct {
	ID          NodeID
	Op          string
	Left, Right NodeID
	Labels      []string // names currently bound to this value

	// Leaf only: the literal text, or the variable whose entry value the
	// leaf stands for. Empty for values produced by side effects.
	Value string
	Entry bool

	// Internal only: the instruction that created the node.
	Origin quad.Quad
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Op == LeafOp
}

// IsLiteral reports whether n is a literal leaf.
func (n *Node) IsLiteral() bool {
	return n.IsLeaf() && !n.Entry && n.Value != ""
}

// Canonical returns the preferred name for n: its first non-temporary
// label, else its first label, else "".
func (n *Node) Canonical() string {
	for _, l := range n.Labels {
		if !quad.IsTemp(l) {
			return l
		}
	}
	if len(n.Labels) > 0 {
		return n.Labels[0]
	}
	return ""
}

func (n *Node) removeLabel(name string) {
	for i, l := range n.Labels {
		if l == name {
			n.Labels = append(n.Labels[:i], n.Labels[i+1:]...)
			return
		}
	}
}
