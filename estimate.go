package semantic

import (
	"fmt"
	"math"

	"github.com/jward/semantic/internal/parse"
)

// Stats counts the entries of each table in a bundle. Before construction
// it is an estimate used to pre-size storage.
type Stats struct {
	Nodes      uint32
	Scopes     uint32
	Symbols    uint32
	References uint32
}

func (s Stats) String() string {
	return fmt.Sprintf("nodes=%d scopes=%d symbols=%d references=%d", s.Nodes, s.Scopes, s.Symbols, s.References)
}

// WithExcess adds fractional headroom to every count. Negative fractions
// are ignored.
func (s Stats) WithExcess(fraction float64) Stats {
	if !(fraction > 0) {
		return s
	}
	grow := func(n uint32) uint32 {
		v := float64(n) * (1 + fraction)
		if v >= math.MaxUint32 {
			return math.MaxUint32
		}
		return uint32(v)
	}
	return Stats{
		Nodes:      grow(s.Nodes),
		Scopes:     grow(s.Scopes),
		Symbols:    grow(s.Symbols),
		References: grow(s.References),
	}
}

// covers reports whether s is at least actual for the tables that must not
// outgrow their estimate.
func (s Stats) covers(actual Stats) bool {
	return actual.Scopes <= s.Scopes && actual.Symbols <= s.Symbols && actual.References <= s.References
}

// Estimate predicts the table sizes Analyze will produce for tree. The
// strategy is chosen at build time; see estimate_span.go and
// estimate_count.go.
func Estimate(tree *parse.Tree) Stats {
	if tree == nil || tree.Tree == nil {
		return Stats{}
	}
	est := estimate(tree)
	if debug {
		limit := upperBound(len(tree.Source))
		debugAssert(limit.covers(est), "estimate %s exceeds bound %s", est, limit)
	}
	return est
}

// upperBound is the most scopes, symbols and references any source of n
// bytes can produce: every symbol and reference needs at least one byte of
// identifier, and every scope but the program needs at least one byte of
// syntax.
func upperBound(n int) Stats {
	b := clampUint32(n)
	return Stats{
		Nodes:      math.MaxUint32,
		Scopes:     satAdd(b, 1),
		Symbols:    b,
		References: b,
	}
}

func clampUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if uint64(n) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}

func satAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}
