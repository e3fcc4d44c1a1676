package semantic

import (
	"iter"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/semantic/internal/ast"
	"github.com/jward/semantic/internal/diag"
)

// Node wraps a visited syntax node with the data the builder derived for it.
type Node struct {
	ID     NodeID
	Kind   Kind
	TS     *sitter.Node
	Parent NodeID
	// Scope is the scope in effect at the node. For a node that introduces
	// a scope this is the enclosing scope, not the one it introduces.
	Scope ScopeID
}

// Span returns the node's byte range.
func (n *Node) Span() diag.Span {
	return diag.Span{Start: n.TS.StartByte(), End: n.TS.EndByte()}
}

// Nodes is the table of visited nodes, indexed by NodeID.
type Nodes struct {
	nodes []Node
}

func newNodes(capacity uint32) *Nodes {
	return &Nodes{nodes: make([]Node, 1, capacity+1)} // index 0 reserved for NoNodeID
}

func (t *Nodes) add(ts *sitter.Node, kind ast.Kind, parent NodeID, scope ScopeID) NodeID {
	id := NodeID(mustUint32(len(t.nodes), "node"))
	t.nodes = append(t.nodes, Node{ID: id, Kind: kind, TS: ts, Parent: parent, Scope: scope})
	return id
}

// Len returns the number of nodes, excluding the sentinel.
func (t *Nodes) Len() int { return len(t.nodes) - 1 }

// Get returns the node or nil if id is out of range.
func (t *Nodes) Get(id NodeID) *Node {
	if !id.IsValid() || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Kind returns the node's kind.
func (t *Nodes) Kind(id NodeID) Kind {
	if n := t.Get(id); n != nil {
		return n.Kind
	}
	return ast.KindOther
}

// ScopeID returns the scope in effect at the node.
func (t *Nodes) ScopeID(id NodeID) ScopeID {
	if n := t.Get(id); n != nil {
		return n.Scope
	}
	return NoScopeID
}

// ParentID returns the parent node.
func (t *Nodes) ParentID(id NodeID) NodeID {
	if n := t.Get(id); n != nil {
		return n.Parent
	}
	return NoNodeID
}

// Span returns the node's byte range.
func (t *Nodes) Span(id NodeID) diag.Span {
	if n := t.Get(id); n != nil {
		return n.Span()
	}
	return diag.Span{}
}

// Ancestors yields id's parent, grandparent and so on up to the program.
func (t *Nodes) Ancestors(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for p := t.ParentID(id); p.IsValid(); p = t.ParentID(p) {
			if !yield(p) {
				return
			}
		}
	}
}

// All yields every node in pre-order.
func (t *Nodes) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for i := 1; i < len(t.nodes); i++ {
			if !yield(&t.nodes[i]) {
				return
			}
		}
	}
}
