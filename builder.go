package semantic

import (
	"context"
	"fmt"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/semantic/internal/ast"
	"github.com/jward/semantic/internal/cfg"
	"github.com/jward/semantic/internal/diag"
	"github.com/jward/semantic/internal/parse"
)

// programNode is the id of the root node of every bundle.
const programNode NodeID = 1

// mode says what an identifier means at the current position.
type mode uint8

const (
	modeRead mode = iota
	modeWrite
	modeReadWrite
	modeType
	modeBind
	modeSkip
)

// decl describes the declaration being bound while mode is modeBind.
// An invalid node means the first node entered becomes the declaring node.
type decl struct {
	flags SymbolFlags
	node  NodeID
}

// builder performs the single traversal that produces a bundle.
type builder struct {
	ctx  context.Context
	tree *parse.Tree
	src  []byte
	opts *options

	nodes   *Nodes
	scopes  *ScopeTree
	symbols *SymbolTable
	bag     *diag.Bag
	sink    diag.Sink

	graphs       map[NodeID]*cfg.Graph
	introduced   map[NodeID]ScopeID
	flow         *cfg.Builder
	unusedLabels []NodeID

	node  NodeID
	scope ScopeID
	mode  mode
	decl  decl

	paramNames  map[string]struct{}
	paramStrict bool

	*scratch

	visited int
	err     error
}

func newBuilder(ctx context.Context, tree *parse.Tree, est Stats, o *options, sc *scratch) *builder {
	bag := diag.NewBag(0)
	return &builder{
		ctx:        ctx,
		tree:       tree,
		src:        tree.Source,
		opts:       o,
		nodes:      newNodes(est.Nodes),
		scopes:     newScopeTree(est.Scopes),
		symbols:    newSymbolTable(est.Symbols, est.References),
		bag:        bag,
		sink:       diag.Tee{bag, o.sink},
		graphs:     make(map[NodeID]*cfg.Graph),
		introduced: make(map[NodeID]ScopeID),
		scratch:    sc,
	}
}

func (b *builder) run() {
	root := b.tree.Root()
	flags := ScopeTop
	if b.tree.Type.Module || hasUseStrict(root, b.src) {
		flags |= ScopeStrictMode
	}
	// The program scope exists before the program node so the node's
	// scope in effect is the root itself.
	b.enterScope(programNode, flags)
	id := b.enterNode(root, ast.KindProgram)
	b.flow = b.newFlow(id)
	b.statements(root)
	b.finishFlow(id)
	b.leaveNode()
	b.leaveScope()
	b.finalize()
}

func (b *builder) finalize() {
	for i := 1; i < len(b.symbols.symbols); i++ {
		slices.Sort(b.symbols.symbols[i].references)
	}
	for _, refs := range b.scopes.unresolved {
		slices.Sort(refs)
	}
	if b.scopes.unresolved == nil {
		b.scopes.unresolved = map[string][]ReferenceID{}
	}
	slices.Sort(b.unusedLabels)
}

func (b *builder) enterNode(ts *sitter.Node, kind ast.Kind) NodeID {
	b.visited++
	if b.visited&4095 == 0 && b.err == nil {
		b.err = b.ctx.Err()
	}
	id := b.nodes.add(ts, kind, b.node, b.scope)
	if b.mode == modeBind && !b.decl.node.IsValid() {
		b.decl.node = id
	}
	b.node = id
	b.opts.hooks.EnterNode(b.nodes.Get(id))
	return id
}

func (b *builder) leaveNode() {
	b.opts.hooks.LeaveNode(b.nodes.Get(b.node))
	b.node = b.nodes.ParentID(b.node)
}

func (b *builder) enterScope(node NodeID, flags ScopeFlags) ScopeID {
	if b.scope.IsValid() {
		flags |= b.scopes.Flags(b.scope) & ScopeStrictMode
	}
	id := b.scopes.add(b.scope, flags, node)
	b.introduced[node] = id
	b.scope = id
	b.pushFrame(id)
	b.opts.hooks.EnterScope(id, flags)
	return id
}

func (b *builder) leaveScope() {
	id := b.scope
	b.popFrame()
	b.scope = b.scopes.Parent(id)
	b.opts.hooks.LeaveScope(id)
}

func (b *builder) newFlow(node NodeID) *cfg.Builder {
	if !b.opts.cfg {
		return nil
	}
	return cfg.NewBuilder(node, b.sink, 0)
}

func (b *builder) finishFlow(node NodeID) {
	if b.flow == nil {
		return
	}
	b.unusedLabels = append(b.unusedLabels, b.flow.UnusedLabels()...)
	b.graphs[node] = b.flow.Finish()
}

// body runs fn with a fresh graph for the body introduced by node.
func (b *builder) body(node NodeID, fn func()) {
	outer := b.flow
	b.flow = b.newFlow(node)
	fn()
	b.finishFlow(node)
	b.flow = outer
}

func (b *builder) text(ts *sitter.Node) string {
	return string(b.src[ts.StartByte():ts.EndByte()])
}

func spanOf(ts *sitter.Node) diag.Span {
	return diag.Span{Start: ts.StartByte(), End: ts.EndByte()}
}

// same reports whether a and b are the same syntax node.
func same(a, b *sitter.Node) bool {
	return a != nil && b != nil &&
		a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (b *builder) forEachChild(ts *sitter.Node, fn func(c *sitter.Node)) {
	if ts == nil {
		return
	}
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		if b.err != nil {
			return
		}
		c := ts.NamedChild(i)
		if c == nil || ast.KindOf(c) == ast.KindComment {
			continue
		}
		fn(c)
	}
}

func (b *builder) statements(ts *sitter.Node) {
	b.forEachChild(ts, func(c *sitter.Node) { b.visit(c) })
}

// children visits ts's children as plain expressions. modeSkip survives so
// whole subtrees can be numbered without producing references.
func (b *builder) children(ts *sitter.Node) {
	prev := b.mode
	if prev != modeSkip {
		b.mode = modeRead
	}
	b.forEachChild(ts, func(c *sitter.Node) { b.visit(c) })
	b.mode = prev
}

// childrenKeep visits ts's children in the current mode.
func (b *builder) childrenKeep(ts *sitter.Node) {
	b.forEachChild(ts, func(c *sitter.Node) { b.visit(c) })
}

func (b *builder) visitAs(m mode, ts *sitter.Node) NodeID {
	if ts == nil {
		return NoNodeID
	}
	prev := b.mode
	b.mode = m
	id := b.visit(ts)
	b.mode = prev
	return id
}

// bind visits a binding target, declaring every name in it with flags.
func (b *builder) bind(ts *sitter.Node, flags SymbolFlags, node NodeID) {
	if ts == nil {
		return
	}
	prevMode, prevDecl := b.mode, b.decl
	b.mode = modeBind
	b.decl = decl{flags: flags, node: node}
	b.visit(ts)
	b.mode, b.decl = prevMode, prevDecl
}

// visit numbers a named node and dispatches on its kind. It returns the
// node's id, or NoNodeID for skipped nodes.
func (b *builder) visit(ts *sitter.Node) NodeID {
	if ts == nil || b.err != nil || !ts.IsNamed() {
		return NoNodeID
	}
	kind := ast.KindOf(ts)
	if kind == ast.KindComment {
		return NoNodeID
	}
	id := b.enterNode(ts, kind)
	b.dispatch(id, ts, kind)
	b.leaveNode()
	return id
}

func (b *builder) dispatch(id NodeID, ts *sitter.Node, kind ast.Kind) {
	switch kind {
	case ast.KindIdentifier, ast.KindShorthandPropertyIdentifierPattern:
		b.identifier(id, ts)
	case ast.KindShorthandPropertyIdentifier:
		if b.mode != modeSkip {
			b.reference(id, ts, RefRead)
		}
	case ast.KindTypeIdentifier:
		switch b.mode {
		case modeBind:
			b.identifier(id, ts)
		case modeSkip:
		default:
			b.reference(id, ts, RefType)
		}
	case ast.KindPropertyIdentifier, ast.KindStatementIdentifier:
		// Names, never references.
	case ast.KindError:
		b.sink.Report(diag.KindSyntax, spanOf(ts), "unexpected syntax")
		b.children(ts)

	case ast.KindFunctionDeclaration, ast.KindGeneratorFunctionDeclaration:
		b.flow.Statement(id)
		b.function(id, ts, kind)
	case ast.KindFunctionExpression, ast.KindGeneratorFunction,
		ast.KindArrowFunction, ast.KindMethodDefinition:
		b.function(id, ts, kind)
	case ast.KindClassDeclaration:
		b.flow.Statement(id)
		b.class(id, ts, true)
	case ast.KindClassExpression:
		b.class(id, ts, false)
	case ast.KindClassStaticBlock:
		b.staticBlock(id, ts)
	case ast.KindRequiredParameter, ast.KindOptionalParameter:
		b.parameter(ts)

	case ast.KindStatementBlock:
		b.flow.Block(func() {
			b.enterScope(id, 0)
			b.statements(ts)
			b.leaveScope()
		})
	case ast.KindLexicalDeclaration, ast.KindVariableDeclaration:
		b.flow.Statement(id)
		b.variables(ts, kind)
	case ast.KindIfStatement:
		b.ifStatement(id, ts)
	case ast.KindForStatement:
		b.forStatement(id, ts)
	case ast.KindForInStatement:
		b.forInStatement(id, ts)
	case ast.KindWhileStatement:
		b.flow.While(id,
			func() { b.visit(ts.ChildByFieldName("condition")) },
			func() { b.visit(ts.ChildByFieldName("body")) })
	case ast.KindDoStatement:
		b.flow.DoWhile(id,
			func() { b.visit(ts.ChildByFieldName("body")) },
			func() { b.visit(ts.ChildByFieldName("condition")) })
	case ast.KindSwitchStatement:
		b.switchStatement(id, ts)
	case ast.KindTryStatement:
		b.tryStatement(id, ts)
	case ast.KindCatchClause:
		b.catchClause(id, ts)
	case ast.KindBreakStatement, ast.KindContinueStatement:
		b.jump(id, ts, kind)
	case ast.KindLabeledStatement:
		label := ts.ChildByFieldName("label")
		name := ""
		if label != nil {
			name = b.text(label)
		}
		b.flow.Labeled(id, name, func() { b.childrenKeep(ts) })
	case ast.KindReturnStatement:
		b.children(ts)
		b.flow.Return(id)
	case ast.KindThrowStatement:
		b.children(ts)
		b.flow.Throw(id)
	case ast.KindExpressionStatement, ast.KindEmptyStatement:
		b.flow.Statement(id)
		b.children(ts)

	case ast.KindAssignmentExpression:
		b.assignment(ts, modeWrite)
	case ast.KindAugmentedAssignmentExpression:
		b.assignment(ts, modeReadWrite)
	case ast.KindUpdateExpression:
		b.visitAs(modeReadWrite, ts.ChildByFieldName("argument"))
	case ast.KindObjectPattern, ast.KindArrayPattern, ast.KindRestPattern,
		ast.KindParenthesizedExpression:
		b.childrenKeep(ts)
	case ast.KindPairPattern:
		b.fields(ts, "value", modeRead)
	case ast.KindAssignmentPattern, ast.KindObjectAssignmentPattern:
		b.fields(ts, "left", modeRead)

	case ast.KindImportStatement:
		b.flow.Statement(id)
		b.importStatement(ts)
	case ast.KindImportClause, ast.KindNamedImports:
		b.childrenKeep(ts)
	case ast.KindImportSpecifier, ast.KindNamespaceImport:
		b.importBinding(id, ts)
	case ast.KindExportStatement:
		b.flow.Statement(id)
		if ts.ChildByFieldName("source") != nil {
			// Re-exports name bindings of another module.
			b.visitChildrenAs(modeSkip, ts)
		} else {
			b.children(ts)
		}
	case ast.KindExportSpecifier:
		if b.mode == modeSkip {
			b.childrenKeep(ts)
			return
		}
		b.visitAs(modeRead, ts.ChildByFieldName("name"))
		b.visitAs(modeSkip, ts.ChildByFieldName("alias"))

	case ast.KindJSXOpeningElement, ast.KindJSXSelfClosingElement:
		name := ts.ChildByFieldName("name")
		b.forEachChild(ts, func(c *sitter.Node) {
			if same(c, name) && b.intrinsicTag(c) {
				b.visitAs(modeSkip, c)
				return
			}
			b.visitAs(modeRead, c)
		})
	case ast.KindJSXClosingElement:
		b.visitChildrenAs(modeSkip, ts)

	case ast.KindInterfaceDeclaration:
		b.flow.Statement(id)
		b.typeDeclaration(id, ts, SymbolInterface)
	case ast.KindTypeAliasDeclaration:
		b.flow.Statement(id)
		b.typeDeclaration(id, ts, SymbolTypeAlias)
	case ast.KindTypeParameter:
		name := ts.ChildByFieldName("name")
		b.forEachChild(ts, func(c *sitter.Node) {
			if same(c, name) {
				b.bind(c, SymbolTypeParameter, id)
				return
			}
			b.visitAs(modeRead, c)
		})
	case ast.KindEnumDeclaration:
		b.flow.Statement(id)
		b.bind(ts.ChildByFieldName("name"), SymbolEnum|SymbolBlockScoped, id)
		b.visitAs(modeRead, ts.ChildByFieldName("body"))
	case ast.KindInternalModule, ast.KindModule:
		if kind == ast.KindModule {
			b.flow.Statement(id)
		}
		b.namespace(id, ts)
	case ast.KindNestedIdentifier, ast.KindNestedTypeIdentifier:
		b.qualifiedName(ts, kind)

	default:
		typ := ts.Type()
		switch {
		case signatureTypes[typ]:
			b.signature(id, ts)
			return
		case typ == "import_require_clause":
			b.childrenKeep(ts)
			return
		case strings.HasSuffix(typ, "_statement") || strings.HasSuffix(typ, "_declaration"):
			b.flow.Statement(id)
		}
		b.children(ts)
	}
}

// fields visits the named field in the current mode and every other child
// in mode m.
func (b *builder) fields(ts *sitter.Node, keep string, m mode) {
	target := ts.ChildByFieldName(keep)
	b.forEachChild(ts, func(c *sitter.Node) {
		if same(c, target) {
			b.visit(c)
			return
		}
		b.visitAs(m, c)
	})
}

func (b *builder) visitChildrenAs(m mode, ts *sitter.Node) {
	prev := b.mode
	b.mode = m
	b.forEachChild(ts, func(c *sitter.Node) { b.visit(c) })
	b.mode = prev
}

func (b *builder) assignment(ts *sitter.Node, target mode) {
	left := ts.ChildByFieldName("left")
	b.forEachChild(ts, func(c *sitter.Node) {
		if same(c, left) {
			b.visitAs(target, c)
			return
		}
		b.visitAs(modeRead, c)
	})
}

// identifier binds or references a name according to the current mode.
func (b *builder) identifier(id NodeID, ts *sitter.Node) {
	switch b.mode {
	case modeBind:
		name := b.text(ts)
		if b.decl.flags.Has(SymbolParameter) && b.paramNames != nil {
			if _, dup := b.paramNames[name]; dup && b.paramStrict {
				b.sink.Report(diag.KindDuplicateParameter, spanOf(ts), fmt.Sprintf("duplicate parameter name %q", name))
			}
			b.paramNames[name] = struct{}{}
		}
		b.declare(name, spanOf(ts), b.decl.flags, b.decl.node)
	case modeSkip:
	case modeWrite:
		b.reference(id, ts, RefWrite)
	case modeReadWrite:
		b.reference(id, ts, RefRead|RefWrite)
	case modeType:
		b.reference(id, ts, RefType)
	default:
		b.reference(id, ts, RefRead)
	}
}

// function builds a function, arrow or method. A declaration's name binds
// in the enclosing scope; an expression's name binds in its own scope.
func (b *builder) function(id NodeID, ts *sitter.Node, kind ast.Kind) {
	name := ts.ChildByFieldName("name")
	params := ts.ChildByFieldName("parameters")
	if params == nil {
		params = ts.ChildByFieldName("parameter")
	}
	body := ts.ChildByFieldName("body")

	flags := ScopeFunction
	switch kind {
	case ast.KindArrowFunction:
		flags |= ScopeArrow
	case ast.KindMethodDefinition:
		flags |= methodFlags(ts, name, b.src)
	}
	if body != nil && ast.KindOf(body) == ast.KindStatementBlock && hasUseStrict(body, b.src) {
		flags |= ScopeStrictMode
	}
	declaration := kind == ast.KindFunctionDeclaration || kind == ast.KindGeneratorFunctionDeclaration

	outer := b.flow
	entered := false
	enter := func() {
		if !entered {
			entered = true
			b.enterScope(id, flags)
			b.flow = b.newFlow(id)
		}
	}
	pastName := name == nil
	b.forEachChild(ts, func(c *sitter.Node) {
		switch {
		case same(c, name):
			pastName = true
			switch {
			case declaration:
				b.bind(c, b.functionFlags(), id)
			case kind == ast.KindMethodDefinition:
				b.visitAs(modeRead, c)
			default:
				enter()
				b.bind(c, SymbolFunction, id)
			}
		case same(c, params):
			enter()
			b.parameters(c, kind)
		case same(c, body):
			enter()
			b.functionBody(c)
		default:
			if pastName {
				enter()
			}
			b.visitAs(modeRead, c)
		}
	})
	enter()
	b.finishFlow(id)
	b.flow = outer
	b.leaveScope()
}

func (b *builder) functionFlags() SymbolFlags {
	if b.scopes.Flags(b.scope).IsVar() {
		return SymbolFunction | SymbolFunctionScoped
	}
	return SymbolFunction | SymbolBlockScoped
}

// functionBody walks a body that shares the function's scope. An arrow's
// expression body is its return value.
func (b *builder) functionBody(ts *sitter.Node) {
	if ast.KindOf(ts) != ast.KindStatementBlock {
		b.flow.Return(b.visitAs(modeRead, ts))
		return
	}
	b.enterNode(ts, ast.KindStatementBlock)
	b.statements(ts)
	b.leaveNode()
}

func (b *builder) parameters(ts *sitter.Node, kind ast.Kind) {
	const flags = SymbolFunctionScoped | SymbolParameter
	if ast.KindOf(ts) != ast.KindFormalParameters {
		b.bind(ts, flags, NoNodeID)
		return
	}
	simple := simpleParameters(ts)
	prevNames, prevStrict := b.paramNames, b.paramStrict
	b.paramNames = make(map[string]struct{}, ts.NamedChildCount())
	b.paramStrict = b.scopes.Flags(b.scope).IsStrict() || !simple ||
		kind == ast.KindArrowFunction || kind == ast.KindMethodDefinition

	b.enterNode(ts, ast.KindFormalParameters)
	b.forEachChild(ts, func(c *sitter.Node) { b.bind(c, flags, NoNodeID) })
	b.leaveNode()

	b.paramNames, b.paramStrict = prevNames, prevStrict
	if !simple {
		// Initializers must not see declarations in the body.
		b.flushPending()
	}
}

// parameter handles a TypeScript parameter: the pattern keeps the current
// mode, annotations and defaults are expressions.
func (b *builder) parameter(ts *sitter.Node) {
	pattern := ts.ChildByFieldName("pattern")
	b.forEachChild(ts, func(c *sitter.Node) {
		if same(c, pattern) {
			b.visit(c)
			return
		}
		b.visitAs(modeRead, c)
	})
}

func simpleParameters(ts *sitter.Node) bool {
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		c := ts.NamedChild(i)
		switch ast.KindOf(c) {
		case ast.KindComment, ast.KindIdentifier:
		case ast.KindRequiredParameter, ast.KindOptionalParameter:
			p := c.ChildByFieldName("pattern")
			if c.ChildByFieldName("value") != nil || p == nil || ast.KindOf(p) != ast.KindIdentifier {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func methodFlags(ts, name *sitter.Node, src []byte) ScopeFlags {
	var flags ScopeFlags
	if name != nil && string(src[name.StartByte():name.EndByte()]) == "constructor" {
		flags |= ScopeConstructor
	}
	for i := 0; i < int(ts.ChildCount()); i++ {
		c := ts.Child(i)
		if c == nil || c.IsNamed() {
			continue
		}
		switch c.Type() {
		case "get":
			flags |= ScopeGetter
		case "set":
			flags |= ScopeSetter
		}
	}
	return flags
}

func (b *builder) class(id NodeID, ts *sitter.Node, declaration bool) {
	name := ts.ChildByFieldName("name")
	entered := false
	enter := func() {
		if !entered {
			entered = true
			b.enterScope(id, ScopeClass|ScopeStrictMode)
		}
	}
	pastName := name == nil
	b.forEachChild(ts, func(c *sitter.Node) {
		if same(c, name) {
			pastName = true
			if !declaration {
				enter()
			}
			b.bind(c, SymbolClass|SymbolBlockScoped, id)
			return
		}
		if pastName {
			enter()
		}
		b.visitAs(modeRead, c)
	})
	enter()
	b.leaveScope()
}

func (b *builder) staticBlock(id NodeID, ts *sitter.Node) {
	b.enterScope(id, ScopeClassStaticBlock)
	b.body(id, func() {
		body := ts.ChildByFieldName("body")
		if body == nil {
			b.statements(ts)
			return
		}
		b.enterNode(body, ast.KindStatementBlock)
		b.statements(body)
		b.leaveNode()
	})
	b.leaveScope()
}

func (b *builder) variables(ts *sitter.Node, kind ast.Kind) {
	flags := SymbolFunctionScoped
	if kind == ast.KindLexicalDeclaration {
		flags = SymbolBlockScoped
		if k := ts.ChildByFieldName("kind"); k != nil && k.Type() == "const" {
			flags |= SymbolConst
		}
	}
	b.forEachChild(ts, func(c *sitter.Node) {
		if ast.KindOf(c) != ast.KindVariableDeclarator {
			b.visitAs(modeRead, c)
			return
		}
		did := b.enterNode(c, ast.KindVariableDeclarator)
		name := c.ChildByFieldName("name")
		b.forEachChild(c, func(part *sitter.Node) {
			if same(part, name) {
				b.bind(part, flags, did)
				return
			}
			b.visitAs(modeRead, part)
		})
		b.leaveNode()
	})
}

func (b *builder) ifStatement(id NodeID, ts *sitter.Node) {
	var els func()
	if alt := ts.ChildByFieldName("alternative"); alt != nil {
		els = func() { b.visit(alt) }
	}
	b.flow.If(id,
		func() { b.visit(ts.ChildByFieldName("condition")) },
		func() { b.visit(ts.ChildByFieldName("consequence")) },
		els)
}

func (b *builder) forStatement(id NodeID, ts *sitter.Node) {
	init := ts.ChildByFieldName("initializer")
	cond := ts.ChildByFieldName("condition")
	update := ts.ChildByFieldName("increment")
	body := ts.ChildByFieldName("body")

	b.enterScope(id, 0)
	var condFn func()
	if cond != nil && ast.KindOf(cond) != ast.KindEmptyStatement {
		condFn = func() { b.visitAs(modeRead, cond) }
	}
	b.flow.For(id,
		func() { b.visit(init) },
		condFn,
		func() { b.visitAs(modeRead, update) },
		func() { b.visit(body) })
	b.leaveScope()
}

// forInStatement builds for-in and for-of. The head is numbered in source
// order; only the iterated expression and the body carry control flow.
func (b *builder) forInStatement(id NodeID, ts *sitter.Node) {
	left := ts.ChildByFieldName("left")
	right := ts.ChildByFieldName("right")
	body := ts.ChildByFieldName("body")

	b.enterScope(id, 0)
	var flags SymbolFlags
	if k := ts.ChildByFieldName("kind"); k != nil {
		switch k.Type() {
		case "var":
			flags = SymbolFunctionScoped
		case "let":
			flags = SymbolBlockScoped
		default:
			flags = SymbolBlockScoped | SymbolConst
		}
	}
	if flags != 0 {
		b.bind(left, flags, id)
	} else {
		b.visitAs(modeWrite, left)
	}
	b.visitAs(modeRead, ts.ChildByFieldName("value"))
	b.flow.ForIn(id,
		func() { b.visitAs(modeRead, right) },
		nil,
		func() { b.visit(body) })
	b.leaveScope()
}

func (b *builder) switchStatement(id NodeID, ts *sitter.Node) {
	value := ts.ChildByFieldName("value")
	body := ts.ChildByFieldName("body")
	if body == nil {
		b.flow.Statement(id)
		b.children(ts)
		return
	}

	var cases []cfg.Case
	b.forEachChild(body, func(c *sitter.Node) {
		kind := ast.KindOf(c)
		test := c.ChildByFieldName("value")
		cases = append(cases, cfg.Case{
			Default: kind == ast.KindSwitchDefault,
			Enter:   func() NodeID { return b.enterNode(c, kind) },
			Test:    func() { b.visitAs(modeRead, test) },
			Body: func() {
				b.forEachChild(c, func(stmt *sitter.Node) {
					if !same(stmt, test) {
						b.visit(stmt)
					}
				})
				b.leaveNode()
			},
		})
	})

	bodyID := NoNodeID
	b.flow.Switch(id, func() {
		b.visitAs(modeRead, value)
		bodyID = b.enterNode(body, ast.KindSwitchBody)
		b.enterScope(bodyID, 0)
	}, cases)
	b.leaveScope()
	b.leaveNode()
}

func (b *builder) tryStatement(id NodeID, ts *sitter.Node) {
	block := ts.ChildByFieldName("body")
	var handler, finalizer func()
	if h := ts.ChildByFieldName("handler"); h != nil {
		handler = func() { b.visit(h) }
	}
	if f := ts.ChildByFieldName("finalizer"); f != nil {
		finalizer = func() { b.visit(f) }
	}
	b.flow.Try(id, func() { b.visit(block) }, handler, finalizer)
}

// catchClause binds the parameter in a scope shared with the body.
func (b *builder) catchClause(id NodeID, ts *sitter.Node) {
	param := ts.ChildByFieldName("parameter")
	body := ts.ChildByFieldName("body")
	b.enterScope(id, ScopeCatchClause)
	b.forEachChild(ts, func(c *sitter.Node) {
		switch {
		case same(c, param):
			flags := SymbolCatchVariable
			if ast.KindOf(c) != ast.KindIdentifier {
				flags |= SymbolBlockScoped
			}
			b.bind(c, flags, id)
		case same(c, body):
			b.enterNode(c, ast.KindStatementBlock)
			b.statements(c)
			b.leaveNode()
		default:
			b.visitAs(modeRead, c)
		}
	})
	b.leaveScope()
}

func (b *builder) jump(id NodeID, ts *sitter.Node, kind ast.Kind) {
	label := ts.ChildByFieldName("label")
	name := ""
	if label != nil {
		name = b.text(label)
	}
	if kind == ast.KindBreakStatement {
		b.flow.Break(id, name, spanOf(ts))
	} else {
		b.flow.Continue(id, name, spanOf(ts))
	}
	b.childrenKeep(ts)
}

func (b *builder) importStatement(ts *sitter.Node) {
	b.forEachChild(ts, func(c *sitter.Node) {
		switch ast.KindOf(c) {
		case ast.KindImportClause:
			b.bind(c, SymbolImport|SymbolBlockScoped|SymbolConst, NoNodeID)
		case ast.KindString:
			b.visitAs(modeSkip, c)
		default:
			if c.Type() == "import_require_clause" {
				b.bind(c, SymbolImport|SymbolBlockScoped|SymbolConst, NoNodeID)
				return
			}
			b.visitAs(modeRead, c)
		}
	})
}

// importBinding binds the local name of a specifier or namespace import.
func (b *builder) importBinding(id NodeID, ts *sitter.Node) {
	if b.mode != modeBind {
		b.visitChildrenAs(modeSkip, ts)
		return
	}
	flags := b.decl.flags
	local := ts.ChildByFieldName("alias")
	if local == nil {
		local = ts.ChildByFieldName("name")
	}
	b.forEachChild(ts, func(c *sitter.Node) {
		if local == nil && ast.KindOf(c) == ast.KindIdentifier || same(c, local) {
			b.bind(c, flags, id)
			return
		}
		b.visitAs(modeSkip, c)
	})
}

func (b *builder) intrinsicTag(name *sitter.Node) bool {
	if ast.KindOf(name) != ast.KindIdentifier {
		return false
	}
	text := b.text(name)
	return text != "" && (text[0] >= 'a' && text[0] <= 'z' || strings.Contains(text, "-"))
}

// typeDeclaration binds an interface or type alias name. Type parameters
// open a scope that also covers the body or aliased type.
func (b *builder) typeDeclaration(id NodeID, ts *sitter.Node, flags SymbolFlags) {
	name := ts.ChildByFieldName("name")
	entered := false
	b.forEachChild(ts, func(c *sitter.Node) {
		if same(c, name) {
			b.bind(c, flags, id)
			return
		}
		if !entered && ast.KindOf(c) == ast.KindTypeParameters {
			entered = true
			b.enterScope(id, 0)
		}
		b.visitAs(modeRead, c)
	})
	if entered {
		b.leaveScope()
	}
}

func (b *builder) namespace(id NodeID, ts *sitter.Node) {
	name := ts.ChildByFieldName("name")
	body := ts.ChildByFieldName("body")
	b.forEachChild(ts, func(c *sitter.Node) {
		switch {
		case same(c, name):
			if ast.KindOf(c) == ast.KindString {
				b.visitAs(modeSkip, c)
				return
			}
			b.bind(c, SymbolNamespace|SymbolBlockScoped, id)
		case same(c, body):
			b.enterScope(id, ScopeModuleBlock)
			b.body(id, func() {
				b.enterNode(c, ast.KindStatementBlock)
				b.statements(c)
				b.leaveNode()
			})
			b.leaveScope()
		default:
			b.visitAs(modeRead, c)
		}
	})
}

// qualifiedName visits A.B.C: only the leftmost name binds or references.
func (b *builder) qualifiedName(ts *sitter.Node, kind ast.Kind) {
	first := true
	b.forEachChild(ts, func(c *sitter.Node) {
		if !first {
			b.visitAs(modeSkip, c)
			return
		}
		first = false
		if kind == ast.KindNestedTypeIdentifier && b.mode != modeSkip {
			b.visitAs(modeType, c)
			return
		}
		b.visit(c)
	})
}

var signatureTypes = map[string]bool{
	"function_signature":        true,
	"method_signature":          true,
	"abstract_method_signature": true,
	"call_signature":            true,
	"construct_signature":       true,
	"function_type":             true,
	"constructor_type":          true,
	"index_signature":           true,
}

// signature handles bodiless TypeScript signatures. Parameter names are
// skipped; their annotations are type references. Type parameters get a
// scope of their own.
func (b *builder) signature(id NodeID, ts *sitter.Node) {
	name := ts.ChildByFieldName("name")
	entered := false
	b.forEachChild(ts, func(c *sitter.Node) {
		switch {
		case same(c, name):
			switch {
			case ts.Type() == "function_signature":
				b.bind(c, b.functionFlags(), id)
			case ts.Type() == "index_signature":
				b.visitAs(modeSkip, c)
			default:
				b.visitAs(modeRead, c)
			}
		case ast.KindOf(c) == ast.KindTypeParameters:
			if !entered {
				entered = true
				b.enterScope(id, 0)
			}
			b.visitAs(modeRead, c)
		case ast.KindOf(c) == ast.KindFormalParameters:
			b.visitAs(modeSkip, c)
		default:
			b.visitAs(modeRead, c)
		}
	})
	if entered {
		b.leaveScope()
	}
}

// hasUseStrict reports whether a program or function body starts with a
// "use strict" directive.
func hasUseStrict(body *sitter.Node, src []byte) bool {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" || stmt.Type() == "hash_bang_line" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
			return false
		}
		str := stmt.NamedChild(0)
		if str.Type() != "string" {
			return false
		}
		text := string(src[str.StartByte():str.EndByte()])
		if len(text) >= 2 && text[1:len(text)-1] == "use strict" {
			return true
		}
	}
	return false
}
