package cfg

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/jward/semantic/internal/ast"
)

// Snapshot is the flat, serializable form of a Graph. Reachability and
// adjacency are recomputed when the graph is restored.
type Snapshot struct {
	Node    ast.NodeID             `msgpack:"node"`
	Blocks  [][]Instruction        `msgpack:"blocks"`
	Edges   []Edge                 `msgpack:"edges"`
	BlockOf map[ast.NodeID]BlockID `msgpack:"block_of"`
	Abrupt  BlockID                `msgpack:"abrupt"`
	ErrSink BlockID                `msgpack:"error_sink"`
}

// Snapshot flattens the graph.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		Node:    g.Node,
		Blocks:  make([][]Instruction, len(g.blocks)),
		Edges:   g.edges,
		BlockOf: g.blockOf,
		Abrupt:  g.abrupt,
		ErrSink: g.errSink,
	}
	for i := range g.blocks {
		s.Blocks[i] = g.blocks[i].Instructions
	}
	return s
}

// FromSnapshot rebuilds a graph. It fails when an edge or location names a
// block the snapshot does not have.
func FromSnapshot(s Snapshot) (*Graph, error) {
	if len(s.Blocks) < 2 {
		return nil, fmt.Errorf("cfg: snapshot of node %d has %d blocks, need entry and exit", s.Node, len(s.Blocks))
	}
	n := BlockID(len(s.Blocks))
	g := &Graph{
		Node:    s.Node,
		blocks:  make([]Block, len(s.Blocks)),
		edges:   make([]Edge, 0, len(s.Edges)),
		blockOf: make(map[ast.NodeID]BlockID, len(s.BlockOf)),
		abrupt:  s.Abrupt,
		errSink: s.ErrSink,
	}
	for i, instrs := range s.Blocks {
		g.blocks[i] = Block{ID: BlockID(i), Instructions: instrs}
	}
	for _, e := range s.Edges {
		if e.From >= n || e.To >= n {
			return nil, fmt.Errorf("cfg: snapshot edge %d -> %d out of range", e.From, e.To)
		}
		idx, err := safecast.Conv[uint32](len(g.edges))
		if err != nil {
			return nil, fmt.Errorf("cfg: snapshot edges: %w", err)
		}
		g.edges = append(g.edges, e)
		g.blocks[e.From].succ = append(g.blocks[e.From].succ, idx)
		g.blocks[e.To].pred = append(g.blocks[e.To].pred, idx)
	}
	for node, id := range s.BlockOf {
		if id >= n {
			return nil, fmt.Errorf("cfg: snapshot places node %d in missing block %d", node, id)
		}
		g.blockOf[node] = id
	}
	for _, sink := range []BlockID{s.Abrupt, s.ErrSink} {
		if sink != NoBlock && sink >= n {
			return nil, fmt.Errorf("cfg: snapshot sink %d out of range", sink)
		}
	}
	g.reach = g.ReachableFrom(EntryBlock)
	return g, nil
}
