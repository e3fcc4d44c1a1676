package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBag_CollectsInOrder(t *testing.T) {
	t.Parallel()
	b := NewBag(2)
	b.Report(KindRedeclaration, Span{Start: 10, End: 11}, "x redeclared")
	b.Report(KindInvalidLabel, Span{Start: 2, End: 7}, "no label")

	require.Equal(t, 2, b.Len())
	assert.Equal(t, KindRedeclaration, b.Items()[0].Kind)
	assert.Equal(t, 1, b.Count(KindInvalidLabel))
	assert.Equal(t, 0, b.Count(KindSyntax))

	sorted := b.Sorted()
	assert.Equal(t, uint32(2), sorted[0].Span.Start)
	// Sorting returns a copy.
	assert.Equal(t, uint32(10), b.Items()[0].Span.Start)
}

func TestZeroBag(t *testing.T) {
	t.Parallel()
	var b Bag
	b.Report(KindSyntax, Span{}, "oops")
	assert.Equal(t, 1, b.Len())
}

func TestTee(t *testing.T) {
	t.Parallel()
	a, b := NewBag(0), NewBag(0)
	var sink Sink = Tee{a, nil, b}
	sink.Report(KindInvalidJump, Span{Start: 1, End: 2}, "jump")
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestSpan(t *testing.T) {
	t.Parallel()
	s := Span{Start: 3, End: 8}
	assert.Equal(t, uint32(5), s.Len())
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(8))
	assert.Equal(t, "3..8", s.String())
	assert.Equal(t, uint32(0), Span{Start: 5, End: 1}.Len())
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "redeclaration", KindRedeclaration.String())
	assert.Equal(t, "Kind(200)", Kind(200).String())
}

func TestLineIndex(t *testing.T) {
	t.Parallel()
	x := NewLineIndex([]byte("ab\ncd\n\nefg"))
	assert.Equal(t, 4, x.Lines())

	tests := []struct {
		offset    uint32
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3}, // the newline itself
		{3, 2, 1},
		{6, 3, 1},
		{7, 4, 1},
		{9, 4, 3},
		{10, 4, 4}, // end of input
	}
	for _, tt := range tests {
		line, col := x.Position(tt.offset)
		assert.Equal(t, tt.line, line, "line of %d", tt.offset)
		assert.Equal(t, tt.col, col, "col of %d", tt.offset)
	}
}
