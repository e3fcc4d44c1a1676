package semantic

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/semantic/internal/ast"
	"github.com/jward/semantic/internal/diag"
	"github.com/jward/semantic/internal/parse"
)

var (
	script = parse.SourceType{}
	module = parse.SourceType{Module: true}
	tsMod  = parse.SourceType{Module: true, TypeScript: true}
	jsx    = parse.SourceType{Module: true, JSX: true}
)

func analyze(t *testing.T, src string, st parse.SourceType, opts ...Option) *Semantic {
	t.Helper()
	s, err := AnalyzeSource(context.Background(), []byte(src), st, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// symbolsNamed returns every symbol called name in declaration order.
func symbolsNamed(s *Semantic, name string) []*Symbol {
	var out []*Symbol
	for sym := range s.Symbols().All() {
		if sym.Name == name {
			out = append(out, sym)
		}
	}
	return out
}

func symbolNamed(t *testing.T, s *Semantic, name string) *Symbol {
	t.Helper()
	syms := symbolsNamed(s, name)
	require.Len(t, syms, 1, "symbols named %q", name)
	return syms[0]
}

func referencesNamed(s *Semantic, name string) []*Reference {
	var out []*Reference
	for ref := range s.Symbols().References() {
		if ref.Name == name {
			out = append(out, ref)
		}
	}
	return out
}

// nodeWithText finds the first node of kind whose source text is text.
func nodeWithText(t *testing.T, s *Semantic, kind ast.Kind, text string) NodeID {
	t.Helper()
	for n := range s.Nodes().All() {
		if n.Kind == kind && s.Text(n.Span()) == text {
			return n.ID
		}
	}
	require.Failf(t, "node not found", "%s %q", kind, text)
	return NoNodeID
}

func TestVarHoistsToFunctionScope(t *testing.T) {
	s := analyze(t, `function f(){ if (true) { var x = 1; } return x; }`, script)

	f := symbolNamed(t, s, "f")
	x := symbolNamed(t, s, "x")
	fnScope := s.ScopeOf(f.Node)
	require.True(t, fnScope.IsValid())
	assert.Equal(t, fnScope, x.Scope)
	assert.True(t, x.Flags.Has(SymbolFunctionScoped))

	refs := referencesNamed(s, "x")
	require.Len(t, refs, 1)
	assert.Equal(t, x.ID, refs[0].Symbol)
	assert.Empty(t, s.Diagnostics())
}

func TestLetStaysInBlock(t *testing.T) {
	s := analyze(t, `function f(){ { let x = 1; } return x; }`, script)

	f := symbolNamed(t, s, "f")
	x := symbolNamed(t, s, "x")
	fnScope := s.ScopeOf(f.Node)
	assert.NotEqual(t, fnScope, x.Scope)
	assert.Equal(t, fnScope, s.Scopes().Parent(x.Scope))
	assert.Equal(t, ScopeFlags(0), s.Scopes().Flags(x.Scope)&^ScopeStrictMode)

	refs := referencesNamed(s, "x")
	require.Len(t, refs, 1)
	assert.True(t, refs[0].IsGlobal())
	assert.Empty(t, s.Symbols().ReferenceIDs(x.ID))
	assert.Contains(t, s.Scopes().UnresolvedNames(), "x")
}

func TestHoistedFunctionResolvesBeforeDeclaration(t *testing.T) {
	for _, src := range []string{
		`function f(){ return g(); function g(){ return 1; } }`,
		`function f(){ function g(){ return 1; } return g(); }`,
	} {
		s := analyze(t, src, script)
		f := symbolNamed(t, s, "f")
		g := symbolNamed(t, s, "g")
		assert.Equal(t, s.ScopeOf(f.Node), g.Scope, src)
		assert.True(t, g.Flags.Has(SymbolFunction|SymbolFunctionScoped), src)

		refs := referencesNamed(s, "g")
		require.Len(t, refs, 1, src)
		assert.Equal(t, g.ID, refs[0].Symbol, src)
	}
}

func TestScopeIntroducingNodesDifferFromEnclosingScope(t *testing.T) {
	src := `
function f() { return () => 1; }
class C { static { let a = 1; } m() {} }
namespace N { export const y = 1; }
`
	s := analyze(t, src, tsMod)

	checked := 0
	for n := range s.Nodes().All() {
		introduced := s.ScopeOf(n.ID)
		if !introduced.IsValid() {
			continue
		}
		if n.ID == programNode {
			assert.Equal(t, s.Scopes().Root(), introduced)
			assert.Equal(t, s.Scopes().Root(), n.Scope)
			continue
		}
		assert.NotEqual(t, n.Scope, introduced, "%s at %s", n.Kind, n.Span())
		assert.Equal(t, n.Scope, s.Scopes().Parent(introduced), "%s at %s", n.Kind, n.Span())
		checked++
	}
	assert.GreaterOrEqual(t, checked, 6)

	block := nodeWithText(t, s, ast.KindClassStaticBlock, "static { let a = 1; }")
	assert.True(t, s.Scopes().Flags(s.ScopeOf(block)).Has(ScopeClassStaticBlock))
	n := symbolNamed(t, s, "N")
	assert.True(t, n.Flags.Has(SymbolNamespace))
	assert.True(t, s.Scopes().Flags(s.ScopeOf(n.Node)).Has(ScopeModuleBlock))
	assert.NotNil(t, s.CFG(n.Node))
	assert.NotNil(t, s.CFG(block))
}

func TestScopeParentChainsReachRoot(t *testing.T) {
	src := `
function a() { function b() { { for (let i = 0; i < 1; i++) { try {} catch (e) { class K { static {} } } } } } }
switch (x) { case 1: { let y; } }
`
	s := analyze(t, src, script)
	root := s.Scopes().Root()
	for id := range s.Scopes().All() {
		steps := 0
		cur := id
		for cur != root {
			cur = s.Scopes().Parent(cur)
			require.True(t, cur.IsValid(), "scope %d has a broken chain", id)
			steps++
			require.LessOrEqual(t, steps, s.Scopes().Len())
		}
	}
	assert.False(t, s.Scopes().Parent(root).IsValid())
	assert.True(t, s.Scopes().Flags(root).Has(ScopeTop))

	for n := range s.Nodes().All() {
		last := n.ID
		for p := range s.Nodes().Ancestors(n.ID) {
			last = p
		}
		assert.Equal(t, programNode, last)
	}
}

func TestUnreachableAfterReturn(t *testing.T) {
	s := analyze(t, `function f(){ return 1; console.log(2); }`, script)

	stmt := nodeWithText(t, s, ast.KindExpressionStatement, "console.log(2);")
	g := s.GraphOf(stmt)
	require.NotNil(t, g)
	assert.Equal(t, symbolNamed(t, s, "f").Node, g.Node)
	assert.False(t, g.IsNodeReachable(stmt))
	assert.Contains(t, s.UnreachableNodes(), stmt)

	ret := nodeWithText(t, s, ast.KindReturnStatement, "return 1;")
	assert.True(t, g.IsNodeReachable(ret))
}

func TestIfBranchesReconverge(t *testing.T) {
	s := analyze(t, `function f(a){ if(a){ x=1; } return 2; }`, script)
	ret := nodeWithText(t, s, ast.KindReturnStatement, "return 2;")
	g := s.GraphOf(ret)
	join, ok := g.BlockOf(ret)
	require.True(t, ok)
	assert.Len(t, g.Predecessors(join), 2)

	s = analyze(t, `function f(a){ if(a){ return 1; } return 2; }`, script)
	ret = nodeWithText(t, s, ast.KindReturnStatement, "return 2;")
	early := nodeWithText(t, s, ast.KindReturnStatement, "return 1;")
	g = s.GraphOf(ret)
	join, _ = g.BlockOf(ret)
	branch, _ := g.BlockOf(early)
	preds := g.Predecessors(join)
	require.Len(t, preds, 1)
	assert.NotEqual(t, branch, preds[0].From)
	assert.True(t, g.Reachable(join))
}

func TestUndeclaredNameIsGlobal(t *testing.T) {
	s := analyze(t, `function f(){ return undeclaredName; }`, script)
	refs := referencesNamed(s, "undeclaredName")
	require.Len(t, refs, 1)
	assert.False(t, refs[0].Symbol.IsValid())
	assert.Equal(t, []ReferenceID{refs[0].ID}, s.Scopes().RootUnresolved()["undeclaredName"])
	assert.Empty(t, s.Diagnostics())
}

func TestLetRedeclarationReportsOnce(t *testing.T) {
	src := `let x; let x;`
	s := analyze(t, src, script)

	diags := s.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindRedeclaration, diags[0].Kind)
	assert.Equal(t, "x", s.Text(diags[0].Span))
	assert.Equal(t, uint32(strings.LastIndex(src, "x")), diags[0].Span.Start)

	x := symbolNamed(t, s, "x")
	assert.Equal(t, uint32(4), x.Span.Start, "first declaration is canonical")
	assert.Equal(t, []diag.Span{diags[0].Span}, s.Symbols().Redeclarations(x.ID))
}

func TestRedeclarationPolicy(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		diags int
	}{
		{"var var", `var a; var a;`, 0},
		{"function var", `function a(){} var a;`, 0},
		{"param var", `function f(a){ var a; }`, 0},
		{"var let", `var a; let a;`, 1},
		{"let var", `let a; var a;`, 1},
		{"var through block", `let a; { var a; }`, 1},
		{"hoisted past let", `{ let a; { var a; } }`, 1},
		{"let after nested var", `{ { var a; } let a; }`, 1},
		{"param let", `function f(a){ let a; }`, 1},
		{"class class", `class A {} class A {}`, 1},
		{"const in sibling blocks", `{ const a = 1; } { const a = 2; }`, 0},
		{"catch var", `try {} catch (e) { var e; }`, 0},
		{"catch let", `try {} catch (e) { let e; }`, 1},
		{"catch pattern var", `try {} catch ({ e }) { var e; }`, 1},
		{"function expression name", `(function f(){ var f; let g; })`, 0},
		{"block functions in sloppy code", `{ function g(){} function g(){} }`, 0},
		{"block functions in strict code", `"use strict"; { function g(){} function g(){} }`, 1},
		{"block function let", `{ function g(){} let g; }`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := analyze(t, tt.src, script)
			assert.Len(t, s.Diagnostics(), tt.diags, "%v", s.Diagnostics())
			for _, d := range s.Diagnostics() {
				assert.Equal(t, diag.KindRedeclaration, d.Kind)
			}
		})
	}
}

func TestRepeatedBlockFunctionInModule(t *testing.T) {
	s := analyze(t, `{ function g(){} function g(){} }`, module)
	require.Len(t, s.Diagnostics(), 1)
	assert.Equal(t, diag.KindRedeclaration, s.Diagnostics()[0].Kind)
}

func TestTypeScopesNeedTypeParameters(t *testing.T) {
	s := analyze(t, "type T = U;\ninterface I { a: T }\n", tsMod)
	assert.Equal(t, 1, s.Scopes().Len(), "no type parameters, no scope")

	s = analyze(t, "interface G<T> { a: T }\ntype A<U> = U[];\n", tsMod)
	assert.Equal(t, 3, s.Scopes().Len())
	for _, name := range []string{"T", "U"} {
		tp := symbolNamed(t, s, name)
		assert.NotEqual(t, s.Scopes().Root(), tp.Scope)
		for _, r := range referencesNamed(s, name) {
			assert.Equal(t, tp.ID, r.Symbol, "body sees %s", name)
		}
	}
}

func TestCatchParameter(t *testing.T) {
	s := analyze(t, `try { f(); } catch (e) { e = 1; log(e); }`, script)

	e := symbolNamed(t, s, "e")
	assert.True(t, e.Flags.Has(SymbolCatchVariable))
	assert.True(t, s.Scopes().Flags(e.Scope).Has(ScopeCatchClause))

	var writes, reads int
	for ref := range s.Symbols().ResolvedReferences(e.ID) {
		if ref.Flags.IsWrite() {
			writes++
		}
		if ref.Flags.IsRead() {
			reads++
		}
		assert.Equal(t, e.Scope, ref.Scope, "body shares the catch scope")
	}
	assert.Equal(t, 1, writes)
	assert.Equal(t, 1, reads)
}

func TestStrictMode(t *testing.T) {
	s := analyze(t, `function f(){ "use strict"; function g(){} } function h(){}`, script)
	assert.False(t, s.Scopes().Flags(s.Scopes().Root()).IsStrict())
	assert.True(t, s.Scopes().Flags(s.ScopeOf(symbolNamed(t, s, "f").Node)).IsStrict())
	assert.True(t, s.Scopes().Flags(s.ScopeOf(symbolNamed(t, s, "g").Node)).IsStrict())
	assert.False(t, s.Scopes().Flags(s.ScopeOf(symbolNamed(t, s, "h").Node)).IsStrict())

	s = analyze(t, `class C { m() {} }`, script)
	m := nodeWithText(t, s, ast.KindMethodDefinition, "m() {}")
	assert.True(t, s.Scopes().Flags(s.ScopeOf(m)).IsStrict())

	s = analyze(t, `export function f(){}`, module)
	assert.True(t, s.Scopes().Flags(s.Scopes().Root()).IsStrict())
}

func TestReservedBindingInStrictMode(t *testing.T) {
	s := analyze(t, `"use strict"; var eval = 1; let yield2 = 2;`, script)
	require.Len(t, s.Diagnostics(), 1)
	assert.Equal(t, diag.KindReservedBinding, s.Diagnostics()[0].Kind)
	assert.Len(t, symbolsNamed(s, "eval"), 1, "binding is still recorded")

	s = analyze(t, `var eval = 1;`, script)
	assert.Empty(t, s.Diagnostics())
}

func TestDuplicateParameters(t *testing.T) {
	s := analyze(t, `function f(a, a) {}`, script)
	assert.Empty(t, s.Diagnostics())
	a := symbolNamed(t, s, "a")
	assert.Len(t, a.Redeclarations, 1)

	for _, src := range []string{
		`function f(a, a) { "use strict"; }`,
		`const f = (a, a) => a;`,
		`function f(a, [a]) {}`,
	} {
		s := analyze(t, src, script)
		require.Len(t, s.Diagnostics(), 1, src)
		assert.Equal(t, diag.KindDuplicateParameter, s.Diagnostics()[0].Kind, src)
	}
}

func TestFunctionAndClassExpressionNames(t *testing.T) {
	s := analyze(t, `var v = function fn(){ return fn; }; fn; var c = class K { m() { return K; } }; K;`, script)

	fn := symbolNamed(t, s, "fn")
	assert.Equal(t, s.ScopeOf(fn.Node), fn.Scope)
	refs := referencesNamed(s, "fn")
	require.Len(t, refs, 2)
	assert.Equal(t, fn.ID, refs[0].Symbol)
	assert.True(t, refs[1].IsGlobal())

	k := symbolNamed(t, s, "K")
	assert.True(t, s.Scopes().Flags(k.Scope).Has(ScopeClass))
	refs = referencesNamed(s, "K")
	require.Len(t, refs, 2)
	assert.Equal(t, k.ID, refs[0].Symbol)
	assert.True(t, refs[1].IsGlobal())
}

func TestParameterDefaultsDoNotSeeBody(t *testing.T) {
	s := analyze(t, `function f(a = b, c = a) { var b; }`, script)
	refs := referencesNamed(s, "b")
	require.Len(t, refs, 1)
	assert.True(t, refs[0].IsGlobal())

	refs = referencesNamed(s, "a")
	require.Len(t, refs, 1)
	assert.Equal(t, symbolNamed(t, s, "a").ID, refs[0].Symbol)
}

func TestReferenceFlags(t *testing.T) {
	s := analyze(t, `let x, y, a, b, o; x = 1; y += 1; a++; [a, b] = o; ({ b } = o); o.p = x;`, script)

	flags := func(name string) []ReferenceFlags {
		var out []ReferenceFlags
		for _, r := range referencesNamed(s, name) {
			out = append(out, r.Flags)
		}
		return out
	}
	assert.Equal(t, []ReferenceFlags{RefWrite, RefRead}, flags("x"))
	assert.Equal(t, []ReferenceFlags{RefRead | RefWrite}, flags("y"))
	assert.Equal(t, []ReferenceFlags{RefRead | RefWrite, RefWrite}, flags("a"))
	assert.Equal(t, []ReferenceFlags{RefWrite, RefWrite}, flags("b"))
	assert.Equal(t, []ReferenceFlags{RefRead, RefRead, RefRead}, flags("o"))
	for ref := range s.Symbols().References() {
		assert.True(t, ref.Symbol.IsValid(), "%s", ref.Name)
	}
}

func TestImportsAndExports(t *testing.T) {
	src := `
import a, { b as c } from "m";
import * as ns from "n";
a(c, ns);
export { a };
export { z } from "other";
`
	s := analyze(t, src, module)
	for _, name := range []string{"a", "c", "ns"} {
		sym := symbolNamed(t, s, name)
		assert.True(t, sym.Flags.Has(SymbolImport|SymbolConst), name)
		assert.Equal(t, s.Scopes().Root(), sym.Scope, name)
	}
	assert.Empty(t, symbolsNamed(s, "b"))
	assert.Len(t, referencesNamed(s, "a"), 2)
	assert.Empty(t, referencesNamed(s, "z"))
	assert.Empty(t, s.Scopes().RootUnresolved())
}

func TestJSXIntrinsicTagsAreNotReferences(t *testing.T) {
	s := analyze(t, `const Card = 1; const el = <div className="x"><Card /></div>;`, jsx)
	assert.Empty(t, referencesNamed(s, "div"))
	refs := referencesNamed(s, "Card")
	require.Len(t, refs, 1)
	assert.Equal(t, symbolNamed(t, s, "Card").ID, refs[0].Symbol)
}

func TestTypeScriptDeclarations(t *testing.T) {
	src := `
interface Foo { a: number }
interface Foo { b: string }
const Foo = 1;
type Alias<T> = T[];
function id<T>(x: T): T { return x; }
let v: Foo = Foo;
enum Color { Red }
declare function over(a: string): void;
`
	s := analyze(t, src, tsMod)
	assert.Empty(t, s.Diagnostics())

	foo := symbolNamed(t, s, "Foo")
	assert.True(t, foo.Flags.Has(SymbolInterface|SymbolConst))
	assert.Len(t, foo.Redeclarations, 2)

	refs := referencesNamed(s, "Foo")
	require.Len(t, refs, 2)
	assert.True(t, refs[0].Flags.IsType())
	assert.True(t, refs[1].Flags.IsRead())
	for _, r := range refs {
		assert.Equal(t, foo.ID, r.Symbol)
	}

	ts := symbolsNamed(s, "T")
	require.Len(t, ts, 2)
	for _, tp := range ts {
		assert.True(t, tp.Flags.Has(SymbolTypeParameter))
		assert.NotEqual(t, s.Scopes().Root(), tp.Scope)
	}
	for _, r := range referencesNamed(s, "T") {
		assert.True(t, r.Symbol.IsValid())
	}
	assert.Empty(t, referencesNamed(s, "a"), "signature parameters are not references")
	assert.True(t, symbolNamed(t, s, "Color").Flags.Has(SymbolEnum))
	assert.True(t, symbolNamed(t, s, "over").Flags.Has(SymbolFunction))
}

func TestLabels(t *testing.T) {
	src := `outer: for (;;) { inner: for (;;) { continue outer; } } unused: x; break missing;`
	s := analyze(t, src, script)

	var labels []string
	for _, id := range s.UnusedLabels() {
		labels = append(labels, s.Text(s.Nodes().Span(id)))
	}
	assert.Equal(t, []string{"inner: for (;;) { continue outer; }", "unused: x;"}, labels)

	require.Len(t, s.Diagnostics(), 1)
	assert.Equal(t, diag.KindInvalidLabel, s.Diagnostics()[0].Kind)
	assert.Equal(t, "break missing;", s.Text(s.Diagnostics()[0].Span))
}

func TestCFGOptions(t *testing.T) {
	s := analyze(t, `function f(){ return 1; }`, script)
	require.NotNil(t, s.ProgramCFG())
	f := symbolNamed(t, s, "f")
	require.NotNil(t, s.CFG(f.Node))

	var nodes []NodeID
	for id := range s.CFGs() {
		nodes = append(nodes, id)
	}
	assert.Equal(t, []NodeID{programNode, f.Node}, nodes)

	s = analyze(t, `function f(){ return 1; } break nowhere;`, script, WithCFG(false))
	assert.Nil(t, s.ProgramCFG())
	assert.Nil(t, s.CFG(symbolNamed(t, s, "f").Node))
	assert.Empty(t, s.Diagnostics())
	assert.Equal(t, 2, s.Scopes().Len())
}

type countingHooks struct {
	NopHooks
	enter, leave, enterScope, leaveScope int
	depth, maxDepth                      int
}

func (h *countingHooks) EnterNode(*Node) {
	h.enter++
	h.depth++
	h.maxDepth = max(h.maxDepth, h.depth)
}

func (h *countingHooks) LeaveNode(*Node) {
	h.leave++
	h.depth--
}

func (h *countingHooks) EnterScope(ScopeID, ScopeFlags) { h.enterScope++ }
func (h *countingHooks) LeaveScope(ScopeID)             { h.leaveScope++ }

func TestHooksObserveTraversal(t *testing.T) {
	h := &countingHooks{}
	s := analyze(t, `function f(a){ { let b = a; } } class C { static { } }`, script, WithHooks(h))

	assert.Equal(t, s.Nodes().Len(), h.enter)
	assert.Equal(t, h.enter, h.leave)
	assert.Equal(t, 0, h.depth)
	assert.Greater(t, h.maxDepth, 3)
	assert.Equal(t, s.Scopes().Len(), h.enterScope)
	assert.Equal(t, h.enterScope, h.leaveScope)
}

func TestWithSinkForwardsDiagnostics(t *testing.T) {
	bag := diag.NewBag(0)
	s := analyze(t, `let a; let a; continue;`, script, WithSink(bag))
	assert.Equal(t, 2, bag.Len())
	assert.Len(t, s.Diagnostics(), 2)
	assert.Equal(t, 1, bag.Count(diag.KindInvalidJump))
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	src := `
function f(a) {
  try { if (a) return g(a); } catch (e) { throw e; } finally { log(); }
  switch (a) { case 1: a++; default: break; }
  for (const k in a) { if (k) continue; }
}
`
	first := analyze(t, src, script)
	second := analyze(t, src, script)
	assert.Equal(t, first.Stats(), second.Stats())

	for id, g := range first.CFGs() {
		other := second.CFG(id)
		require.NotNil(t, other)
		assert.Equal(t, g.DOT(), other.DOT())
	}
	var a, b []SymbolID
	for ref := range first.Symbols().References() {
		a = append(a, ref.Symbol)
	}
	for ref := range second.Symbols().References() {
		b = append(b, ref.Symbol)
	}
	assert.Equal(t, a, b)
}

func TestAnalyzeHonoursCancellation(t *testing.T) {
	src := []byte(strings.Repeat("a;\n", 5000))
	tree, err := parse.Parse(context.Background(), src, script)
	require.NoError(t, err)
	defer tree.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Analyze(ctx, tree)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAnalyzeRejectsNilTree(t *testing.T) {
	_, err := Analyze(context.Background(), nil)
	assert.Error(t, err)
}

func TestNodesRecordEffectiveScope(t *testing.T) {
	s := analyze(t, `function f(){ let a = 1; }`, script)
	f := symbolNamed(t, s, "f")
	a := symbolNamed(t, s, "a")

	assert.Equal(t, ast.KindFunctionDeclaration, s.Nodes().Kind(f.Node))
	assert.Equal(t, s.Scopes().Root(), s.Nodes().ScopeID(f.Node))
	assert.Equal(t, ast.KindVariableDeclarator, s.Nodes().Kind(a.Node))
	assert.Equal(t, s.ScopeOf(f.Node), s.Nodes().ScopeID(a.Node))
	assert.Equal(t, "a = 1", s.Text(s.Nodes().Span(a.Node)))
	assert.Equal(t, "a", s.Text(a.Span))
}

func TestSyntaxErrorsAreDiagnostics(t *testing.T) {
	s := analyze(t, "let a = 1;\n)))\na;", script)

	var syntax int
	for _, d := range s.Diagnostics() {
		if d.Kind == diag.KindSyntax {
			syntax++
		}
	}
	assert.Positive(t, syntax)
	assert.Len(t, symbolsNamed(s, "a"), 1, "analysis continues past the error")
}
