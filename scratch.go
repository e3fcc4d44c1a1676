package semantic

import (
	"runtime"

	"github.com/jward/semantic/internal/pool"
)

// maxSpareBuckets caps the reference buckets a scratch keeps between
// analyses.
const maxSpareBuckets = 64

// scratch holds builder buffers whose capacity outlives one analysis.
type scratch struct {
	pending []pendingFrame
	spare   []map[string][]ReferenceID
	hoisted map[ScopeID]map[string]struct{}
}

var scratchPool = pool.New(newScratch,
	pool.WithMaxIdle[*scratch](runtime.GOMAXPROCS(0)),
	pool.WithReset((*scratch).reset))

func newScratch() *scratch {
	return &scratch{pending: make([]pendingFrame, 0, 16)}
}

// reset empties s for the next analysis. Buckets still held by open frames,
// left behind by a cancelled run, go back to the spare list.
func (s *scratch) reset() {
	for i := range s.pending {
		if m := s.pending[i].refs; m != nil {
			clear(m)
			s.spare = append(s.spare, m)
		}
		s.pending[i] = pendingFrame{}
	}
	s.pending = s.pending[:0]
	if len(s.spare) > maxSpareBuckets {
		clear(s.spare[maxSpareBuckets:])
		s.spare = s.spare[:maxSpareBuckets]
	}
	clear(s.hoisted)
}
