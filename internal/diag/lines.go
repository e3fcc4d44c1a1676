package diag

import "sort"

// LineIndex maps byte offsets to 1-based line and column numbers.
// Columns count bytes.
type LineIndex struct {
	starts []uint32
}

// NewLineIndex records the start of every line in src.
func NewLineIndex(src []byte) *LineIndex {
	starts := []uint32{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &LineIndex{starts: starts}
}

// Lines returns the number of lines.
func (x *LineIndex) Lines() int { return len(x.starts) }

// Position returns the line and column of offset.
func (x *LineIndex) Position(offset uint32) (line, col int) {
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset }) - 1
	return i + 1, int(offset-x.starts[i]) + 1
}
