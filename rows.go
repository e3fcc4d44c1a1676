package semantic

import (
	"fmt"

	"github.com/jward/semantic/internal/ast"
	"github.com/jward/semantic/internal/diag"
	"github.com/jward/semantic/internal/store"
)

// buildBatch flattens a bundle into the rows stored for f.
func buildBatch(sem *Semantic, f *store.File) (*store.BatchedStore, error) {
	lines := diag.NewLineIndex(sem.Source())
	f.LineCount = lines.Lines()
	pos := func(sp Span) store.Position {
		line, col := lines.Position(sp.Start)
		return store.Position{StartByte: sp.Start, EndByte: sp.End, Line: line, Col: col}
	}

	b := store.NewBatchedStore(f)
	nodes, scopes, syms := sem.Nodes(), sem.Scopes(), sem.Symbols()

	for id := range scopes.All() {
		n := scopes.NodeID(id)
		b.AddScope(store.Scope{
			ScopeID:  uint32(id),
			ParentID: uint32(scopes.Parent(id)),
			Flags:    scopes.Flags(id).String(),
			NodeKind: nodes.Kind(n).String(),
			Position: pos(nodes.Span(n)),
		})
	}

	for sym := range syms.All() {
		var reads, writes int
		for ref := range syms.ResolvedReferences(sym.ID) {
			if ref.Flags.IsRead() || ref.Flags.IsType() {
				reads++
			}
			if ref.Flags.IsWrite() {
				writes++
			}
		}
		var redecls []store.Position
		for _, sp := range sym.Redeclarations {
			redecls = append(redecls, pos(sp))
		}
		b.AddSymbol(store.Symbol{
			SymbolID:       uint32(sym.ID),
			ScopeID:        uint32(sym.Scope),
			Name:           sym.Name,
			Flags:          sym.Flags.String(),
			Exported:       sem.isExported(sym),
			Reads:          reads,
			Writes:         writes,
			Redeclarations: redecls,
			Position:       pos(sym.Span),
		})
	}

	for ref := range syms.References() {
		b.AddReference(store.Reference{
			ReferenceID: uint32(ref.ID),
			ScopeID:     uint32(ref.Scope),
			SymbolID:    uint32(ref.Symbol),
			Name:        ref.Name,
			Flags:       ref.Flags.String(),
			Position:    pos(ref.Span),
		})
	}

	for _, d := range sem.Diagnostics() {
		b.AddDiagnostic(store.Diagnostic{
			Kind:     d.Kind.String(),
			Message:  d.Message,
			Position: pos(d.Span),
		})
	}

	dead := sem.UnreachableNodes()
	deadSet := make(map[NodeID]bool, len(dead))
	for _, id := range dead {
		deadSet[id] = true
	}
	for _, id := range dead {
		var parent NodeID
		for p := range nodes.Ancestors(id) {
			if deadSet[p] {
				parent = p
				break
			}
		}
		b.AddUnreachable(store.Unreachable{
			NodeID:   uint32(id),
			ParentID: uint32(parent),
			NodeKind: nodes.Kind(id).String(),
			Position: pos(nodes.Span(id)),
		})
	}

	for _, id := range sem.UnusedLabels() {
		label, span := sem.labelOf(id)
		b.AddUnusedLabel(store.UnusedLabel{
			NodeID:   uint32(id),
			Label:    label,
			Position: pos(span),
		})
	}

	for id, g := range sem.CFGs() {
		blob, err := store.EncodeCFG(g)
		if err != nil {
			return nil, fmt.Errorf("semantic: encode graph of node %d: %w", id, err)
		}
		b.AddCFG(store.CFG{
			NodeID: uint32(id),
			Blocks: g.Len(),
			Edges:  len(g.Edges()),
			Graph:  blob,
		})
	}
	return b, nil
}

// isExported reports whether a symbol is declared directly inside an
// export statement, without an intervening scope.
func (s *Semantic) isExported(sym *Symbol) bool {
	for p := range s.nodes.Ancestors(sym.Node) {
		if s.nodes.Kind(p) == ast.KindExportStatement {
			return true
		}
		if s.ScopeOf(p).IsValid() {
			return false
		}
	}
	return false
}

// labelOf returns the label name and span of a labeled statement.
func (s *Semantic) labelOf(id NodeID) (string, Span) {
	n := s.nodes.Get(id)
	if n == nil {
		return "", Span{}
	}
	if l := n.TS.ChildByFieldName("label"); l != nil {
		sp := Span{Start: l.StartByte(), End: l.EndByte()}
		return s.Text(sp), sp
	}
	return "", n.Span()
}
