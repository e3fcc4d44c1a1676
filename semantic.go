package semantic

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/jward/semantic/internal/cfg"
	"github.com/jward/semantic/internal/diag"
	"github.com/jward/semantic/internal/parse"
)

// Semantic is the immutable result of analyzing one file.
type Semantic struct {
	tree        *parse.Tree
	nodes       *Nodes
	scopes      *ScopeTree
	symbols     *SymbolTable
	graphs      map[NodeID]*cfg.Graph
	introduced  map[NodeID]ScopeID
	diagnostics []diag.Diagnostic
	labels      []NodeID
	estimate    Stats
}

// Source returns the analyzed source text.
func (s *Semantic) Source() []byte { return s.tree.Source }

// SourceType returns how the source was interpreted.
func (s *Semantic) SourceType() SourceType { return s.tree.Type }

// Tree returns the syntax tree the bundle was built from.
func (s *Semantic) Tree() *Tree { return s.tree }

// Nodes returns the node table.
func (s *Semantic) Nodes() *Nodes { return s.nodes }

// Scopes returns the scope tree.
func (s *Semantic) Scopes() *ScopeTree { return s.scopes }

// Symbols returns the symbol and reference tables.
func (s *Semantic) Symbols() *SymbolTable { return s.symbols }

// Text returns the source text of span.
func (s *Semantic) Text(span Span) string {
	if int(span.End) > len(s.tree.Source) || span.Start > span.End {
		return ""
	}
	return string(s.tree.Source[span.Start:span.End])
}

// ScopeOf returns the scope introduced by node, or NoScopeID if the node
// does not introduce one. Compare with Nodes().ScopeID, the scope in
// effect at the node.
func (s *Semantic) ScopeOf(node NodeID) ScopeID {
	return s.introduced[node]
}

// CFG returns the control-flow graph of the body introduced by node: the
// program, a function, a class static block or a namespace body. It
// returns nil when graphs were disabled or node has no body.
func (s *Semantic) CFG(node NodeID) *Graph {
	return s.graphs[node]
}

// ProgramCFG returns the graph of the top-level statements.
func (s *Semantic) ProgramCFG() *Graph {
	return s.graphs[programNode]
}

// CFGs yields every graph ordered by the node that introduced it.
func (s *Semantic) CFGs() iter.Seq2[NodeID, *Graph] {
	return func(yield func(NodeID, *Graph) bool) {
		ids := make([]NodeID, 0, len(s.graphs))
		for id := range s.graphs {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			if !yield(id, s.graphs[id]) {
				return
			}
		}
	}
}

// GraphOf returns the graph that contains node's statement, walking up to
// the nearest body that owns a graph.
func (s *Semantic) GraphOf(node NodeID) *Graph {
	if g := s.graphs[node]; g != nil {
		if _, ok := g.BlockOf(node); ok {
			return g
		}
	}
	for p := range s.nodes.Ancestors(node) {
		if g := s.graphs[p]; g != nil {
			return g
		}
	}
	return nil
}

// UnreachableNodes returns the statements recorded in blocks no path from
// a graph's entry reaches, in node order.
func (s *Semantic) UnreachableNodes() []NodeID {
	var out []NodeID
	for _, g := range s.CFGs() {
		for ins := range g.Unreachable() {
			if ins.Node.IsValid() {
				out = append(out, ins.Node)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Diagnostics returns the structural diagnostics in source order.
func (s *Semantic) Diagnostics() []Diagnostic { return s.diagnostics }

// UnusedLabels returns labeled statements no break or continue targets.
func (s *Semantic) UnusedLabels() []NodeID { return s.labels }

// Stats returns the actual table sizes.
func (s *Semantic) Stats() Stats {
	return Stats{
		Nodes:      mustUint32(s.nodes.Len(), "node"),
		Scopes:     mustUint32(s.scopes.Len(), "scope"),
		Symbols:    mustUint32(s.symbols.Len(), "symbol"),
		References: mustUint32(s.symbols.ReferenceCount(), "reference"),
	}
}

// Estimate returns the sizes the tables were reserved with.
func (s *Semantic) Estimate() Stats { return s.estimate }

// Close releases the syntax tree. The bundle must not be used afterwards.
func (s *Semantic) Close() {
	s.tree.Close()
}

// Option configures Analyze.
type Option func(*options)

type options struct {
	cfg    bool
	sink   diag.Sink
	excess float64
	stats  *Stats
	hooks  Hooks
	logger *slog.Logger
}

// WithCFG controls control-flow graph construction. Enabled by default.
// Label diagnostics are produced by the graph builder and are skipped when
// graphs are disabled.
func WithCFG(enabled bool) Option {
	return func(o *options) { o.cfg = enabled }
}

// WithSink forwards every diagnostic to sink as it is produced, in
// addition to collecting it in the bundle.
func WithSink(sink diag.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// WithExcessCapacity adds fractional headroom to the size estimate.
func WithExcessCapacity(fraction float64) Option {
	return func(o *options) { o.excess = fraction }
}

// WithStats supplies table sizes and skips estimation.
func WithStats(st Stats) Option {
	return func(o *options) { o.stats = &st }
}

// WithHooks observes the traversal.
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = h }
}

// WithLogger sets the logger for debug output. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Analyze builds the scope tree, symbol table and control-flow graphs for
// tree in one traversal. Structural problems in the source are reported as
// diagnostics, never as errors; an error means the context was cancelled
// or the input was unusable. The bundle takes ownership of tree.
func Analyze(ctx context.Context, tree *parse.Tree, opts ...Option) (*Semantic, error) {
	if tree == nil || tree.Tree == nil {
		return nil, errors.New("semantic: nil tree")
	}
	o := options{cfg: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.hooks == nil {
		o.hooks = NopHooks{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	var est Stats
	if o.stats != nil {
		est = *o.stats
	} else {
		est = Estimate(tree)
	}
	est = est.WithExcess(o.excess)

	sc := scratchPool.Get()
	defer scratchPool.Put(sc, nil)
	b := newBuilder(ctx, tree, est, &o, sc)
	b.run()
	if b.err != nil {
		return nil, fmt.Errorf("semantic: analyze %s: %w", tree.Path, b.err)
	}

	s := &Semantic{
		tree:        tree,
		nodes:       b.nodes,
		scopes:      b.scopes,
		symbols:     b.symbols,
		graphs:      b.graphs,
		introduced:  b.introduced,
		diagnostics: b.bag.Sorted(),
		labels:      b.unusedLabels,
		estimate:    est,
	}
	if debug && o.stats == nil {
		debugAssert(est.covers(s.Stats()), "estimate %s below actual %s", est, s.Stats())
	}
	o.logger.Debug("semantic: analyzed",
		"path", tree.Path,
		"nodes", s.nodes.Len(),
		"scopes", s.scopes.Len(),
		"symbols", s.symbols.Len(),
		"references", s.symbols.ReferenceCount(),
		"diagnostics", len(s.diagnostics))
	return s, nil
}

// AnalyzeSource parses src and analyzes it.
func AnalyzeSource(ctx context.Context, src []byte, st SourceType, opts ...Option) (*Semantic, error) {
	tree, err := parse.Parse(ctx, src, st)
	if err != nil {
		return nil, fmt.Errorf("semantic: %w", err)
	}
	s, err := Analyze(ctx, tree, opts...)
	if err != nil {
		tree.Close()
		return nil, err
	}
	return s, nil
}
