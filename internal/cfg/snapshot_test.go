package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/semantic/internal/ast"
	"github.com/jward/semantic/internal/diag"
)

func TestSnapshotRestoresGraph(t *testing.T) {
	t.Parallel()
	b, _ := newTestBuilder(t)
	b.Try(1, func() {
		b.If(2, nil, func() { b.Throw(3) }, nil)
		b.Return(4)
	}, nil, func() { b.Statement(5) })
	b.Statement(6)
	b.Break(7, "", diag.Span{})
	g := b.Finish()

	restored, err := FromSnapshot(g.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, g.DOT(), restored.DOT())
	assert.Equal(t, g.Edges(), restored.Edges())
	for id := range g.Len() {
		assert.Equal(t, g.Reachable(BlockID(id)), restored.Reachable(BlockID(id)))
	}
	for _, node := range []uint32{1, 2, 3, 4, 5, 6, 7} {
		want, wok := g.BlockOf(ast.NodeID(node))
		got, gok := restored.BlockOf(ast.NodeID(node))
		assert.Equal(t, wok, gok)
		assert.Equal(t, want, got)
	}
	wantAbrupt, _ := g.AbruptExit()
	gotAbrupt, ok := restored.AbruptExit()
	assert.True(t, ok, "finally rethrows into the abrupt exit")
	assert.Equal(t, wantAbrupt, gotAbrupt)
	wantSink, _ := g.ErrorSink()
	gotSink, ok := restored.ErrorSink()
	assert.True(t, ok, "stray break lands in the error sink")
	assert.Equal(t, wantSink, gotSink)
}

func TestFromSnapshotRejectsBadEdges(t *testing.T) {
	t.Parallel()
	_, err := FromSnapshot(Snapshot{Blocks: make([][]Instruction, 2), Edges: []Edge{{From: 0, To: 5}}, Abrupt: NoBlock, ErrSink: NoBlock})
	assert.Error(t, err)

	_, err = FromSnapshot(Snapshot{Blocks: make([][]Instruction, 1)})
	assert.Error(t, err)
}
