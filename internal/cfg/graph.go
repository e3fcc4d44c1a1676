// Package cfg holds per-body control-flow graphs: basic blocks of
// instructions joined by unconditional, conditional and exception edges.
package cfg

import (
	"fmt"
	"iter"
	"math"

	"github.com/jward/semantic/internal/ast"
)

// BlockID identifies a basic block within one graph.
type BlockID uint32

const (
	// EntryBlock is where every graph starts.
	EntryBlock BlockID = 0
	// ExitBlock is the single normal exit.
	ExitBlock BlockID = 1
	// NoBlock marks an absent block.
	NoBlock BlockID = math.MaxUint32
)

// EdgeKind classifies control transfer between blocks.
type EdgeKind uint8

const (
	EdgeUnconditional EdgeKind = iota
	EdgeConditional
	EdgeException
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeUnconditional:
		return "unconditional"
	case EdgeConditional:
		return "conditional"
	case EdgeException:
		return "exception"
	}
	return fmt.Sprintf("EdgeKind(%d)", uint8(k))
}

// InstrKind classifies an instruction.
type InstrKind uint8

const (
	InstrStatement InstrKind = iota
	InstrCondition
	InstrIteration
	InstrCase
	InstrReturn
	InstrThrow
	InstrBreak
	InstrContinue
)

var instrNames = [...]string{
	InstrStatement: "stmt",
	InstrCondition: "cond",
	InstrIteration: "iter",
	InstrCase:      "case",
	InstrReturn:    "return",
	InstrThrow:     "throw",
	InstrBreak:     "break",
	InstrContinue:  "continue",
}

func (k InstrKind) String() string {
	if int(k) < len(instrNames) {
		return instrNames[k]
	}
	return fmt.Sprintf("InstrKind(%d)", uint8(k))
}

// Instruction is one entry in a block.
type Instruction struct {
	Kind InstrKind
	Node ast.NodeID
}

// Edge is a directed control transfer.
type Edge struct {
	From BlockID
	To   BlockID
	Kind EdgeKind
}

// Block is a basic block.
type Block struct {
	ID           BlockID
	Instructions []Instruction

	succ []uint32 // indexes into Graph.edges
	pred []uint32
}

// Graph is an immutable control-flow graph for one program or function body.
type Graph struct {
	// Node is the syntax node whose body the graph describes.
	Node ast.NodeID

	blocks  []Block
	edges   []Edge
	blockOf map[ast.NodeID]BlockID
	abrupt  BlockID
	errSink BlockID
	reach   []bool
}

// Len returns the number of blocks.
func (g *Graph) Len() int { return len(g.blocks) }

// Block returns the block with the given id. The result must not be modified.
func (g *Graph) Block(id BlockID) *Block {
	if int(id) >= len(g.blocks) {
		return nil
	}
	return &g.blocks[id]
}

// Blocks iterates over all blocks in id order.
func (g *Graph) Blocks() iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		for i := range g.blocks {
			if !yield(&g.blocks[i]) {
				return
			}
		}
	}
}

// Edges returns every edge in creation order. Callers must not modify it.
func (g *Graph) Edges() []Edge { return g.edges }

// Successors returns the outgoing edges of a block.
func (g *Graph) Successors(id BlockID) []Edge {
	b := g.Block(id)
	if b == nil {
		return nil
	}
	out := make([]Edge, len(b.succ))
	for i, e := range b.succ {
		out[i] = g.edges[e]
	}
	return out
}

// Predecessors returns the incoming edges of a block.
func (g *Graph) Predecessors(id BlockID) []Edge {
	b := g.Block(id)
	if b == nil {
		return nil
	}
	out := make([]Edge, len(b.pred))
	for i, e := range b.pred {
		out[i] = g.edges[e]
	}
	return out
}

// BlockOf returns the block holding the node's first instruction.
func (g *Graph) BlockOf(node ast.NodeID) (BlockID, bool) {
	id, ok := g.blockOf[node]
	return id, ok
}

// AbruptExit returns the sink for uncaught throws, if one was needed.
func (g *Graph) AbruptExit() (BlockID, bool) {
	return g.abrupt, g.abrupt != NoBlock
}

// ErrorSink returns the sink for invalid jumps, if one was needed.
func (g *Graph) ErrorSink() (BlockID, bool) {
	return g.errSink, g.errSink != NoBlock
}

// Reachable reports whether id can be reached from the entry block along
// any edge kind.
func (g *Graph) Reachable(id BlockID) bool {
	return int(id) < len(g.reach) && g.reach[id]
}

// IsNodeReachable reports whether the block holding node is reachable.
// Nodes with no instruction in this graph report false.
func (g *Graph) IsNodeReachable(node ast.NodeID) bool {
	id, ok := g.blockOf[node]
	return ok && g.Reachable(id)
}

// ReachableFrom returns, for every block, whether it is reachable from start.
func (g *Graph) ReachableFrom(start BlockID) []bool {
	seen := make([]bool, len(g.blocks))
	if int(start) >= len(g.blocks) {
		return seen
	}
	stack := []BlockID{start}
	seen[start] = true
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.blocks[id].succ {
			to := g.edges[e].To
			if !seen[to] {
				seen[to] = true
				stack = append(stack, to)
			}
		}
	}
	return seen
}

// Unreachable iterates over the instructions in blocks the entry cannot reach.
func (g *Graph) Unreachable() iter.Seq[Instruction] {
	return func(yield func(Instruction) bool) {
		for i := range g.blocks {
			if g.reach[i] {
				continue
			}
			for _, in := range g.blocks[i].Instructions {
				if !yield(in) {
					return
				}
			}
		}
	}
}
