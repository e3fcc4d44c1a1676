//go:build 386 || arm || mips || mipsle || wasm

package semantic

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/semantic/internal/ast"
	"github.com/jward/semantic/internal/parse"
)

// estimate counts with a cursor walk. Used where the span heuristic's
// address arithmetic is not worth the risk.
func estimate(tree *parse.Tree) Stats {
	st := Stats{Scopes: 1}
	cur := sitter.NewTreeCursor(tree.Root())
	defer cur.Close()

	for {
		n := cur.CurrentNode()
		if n.IsNamed() {
			switch k := ast.KindOf(n); k {
			case ast.KindComment:
			case ast.KindIdentifier, ast.KindShorthandPropertyIdentifier,
				ast.KindShorthandPropertyIdentifierPattern, ast.KindTypeIdentifier:
				st.Nodes++
				st.Symbols++
				st.References++
			default:
				st.Nodes++
				if introducesScope(k) {
					st.Scopes++
				}
			}
		}
		if cur.GoToFirstChild() {
			continue
		}
		for !cur.GoToNextSibling() {
			if !cur.GoToParent() {
				return st
			}
		}
	}
}

func introducesScope(k ast.Kind) bool {
	if k.IsFunction() || k.IsClass() {
		return true
	}
	switch k {
	case ast.KindStatementBlock, ast.KindClassStaticBlock, ast.KindCatchClause,
		ast.KindForStatement, ast.KindForInStatement, ast.KindSwitchBody,
		ast.KindInterfaceDeclaration, ast.KindTypeAliasDeclaration,
		ast.KindInternalModule, ast.KindModule, ast.KindTypeParameters:
		return true
	}
	return false
}
