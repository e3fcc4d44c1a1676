//go:build !(386 || arm || mips || mipsle || wasm)

package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/semantic/internal/parse"
)

func TestSpanEstimate(t *testing.T) {
	tests := []struct {
		src  string
		want Stats
	}{
		{`let a = b;`, Stats{Nodes: 22, Scopes: 1, Symbols: 3, References: 3}},
		{`function f() { return x => x; }`, Stats{Nodes: 27, Scopes: 3, Symbols: 5, References: 5}},
		{`for (;;) {} // 1 2 3`, Stats{Nodes: 19, Scopes: 3, Symbols: 1, References: 1}},
		{`x < y`, Stats{Nodes: 20, Scopes: 2, Symbols: 2, References: 2}},
	}
	for _, tt := range tests {
		tree, err := parse.Parse(context.Background(), []byte(tt.src), parse.Script)
		require.NoError(t, err)
		assert.Equal(t, tt.want, Estimate(tree), tt.src)
		tree.Close()
	}
}
