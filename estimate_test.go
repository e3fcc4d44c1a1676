package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/semantic/internal/parse"
)

var estimateSources = []struct {
	name string
	src  string
	st   parse.SourceType
}{
	{"empty", ``, script},
	{"statements", `let a = b; a++; f(a, b, c);`, script},
	{"functions", `function f(x) { return x => y => x + y; } const g = function () {};`, script},
	{"control flow", `for (let i = 0; i < n; i++) { try { if (i) continue; } catch (e) {} finally {} } switch (x) { case 1: break; }`, script},
	{"classes", `class A extends B { static { let s; } #p = 1; get q() { return this.#p; } }`, module},
	{"typescript", `type T<U> = U[]; interface I<V> { v: V } function h<W>(w: W): W { return w; } declare function k<X>(x: X): X; namespace N { export const n = 1; }`, tsMod},
	{"jsx", `const C = () => <div><C a={b} /></div>;`, jsx},
}

func TestEstimateCoversActualCounts(t *testing.T) {
	for _, tt := range estimateSources {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := parse.Parse(context.Background(), []byte(tt.src), tt.st)
			require.NoError(t, err)
			est := Estimate(tree)

			s, err := Analyze(context.Background(), tree)
			require.NoError(t, err)
			defer s.Close()

			actual := s.Stats()
			assert.True(t, est.covers(actual), "estimate %s, actual %s", est, actual)
			assert.True(t, upperBound(len(tt.src)).covers(est), "estimate %s over bound", est)
			assert.Equal(t, est, s.Estimate())
		})
	}
}

func TestEstimateWithStatsSkipsEstimation(t *testing.T) {
	want := Stats{Nodes: 100, Scopes: 10, Symbols: 20, References: 30}
	s := analyze(t, `let a = 1;`, script, WithStats(want))
	assert.Equal(t, want, s.Estimate())

	s = analyze(t, `let a = 1;`, script, WithStats(want), WithExcessCapacity(0.5))
	assert.Equal(t, Stats{Nodes: 150, Scopes: 15, Symbols: 30, References: 45}, s.Estimate())
}

func TestStatsWithExcess(t *testing.T) {
	st := Stats{Nodes: 10, Scopes: 10, Symbols: 10, References: 10}
	assert.Equal(t, Stats{Nodes: 15, Scopes: 15, Symbols: 15, References: 15}, st.WithExcess(0.5))
	assert.Equal(t, st, st.WithExcess(0))
	assert.Equal(t, st, st.WithExcess(-1))

	huge := Stats{Nodes: 1 << 31, Scopes: 1 << 31}
	got := huge.WithExcess(2)
	assert.Equal(t, uint32(1<<32-1), got.Nodes)
}

func TestEstimateNilTree(t *testing.T) {
	assert.Equal(t, Stats{}, Estimate(nil))
}
