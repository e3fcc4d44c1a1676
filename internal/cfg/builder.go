package cfg

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/jward/semantic/internal/ast"
	"github.com/jward/semantic/internal/diag"
)

type frameKind uint8

const (
	frameLoop frameKind = iota
	frameSwitch
	frameLabel
	frameCatch
	frameFinally
)

// frame is one entry of the control stack. Jumps walk it from the top.
type frame struct {
	kind frameKind

	breakTo    BlockID
	continueTo BlockID

	// Label frames.
	label     string
	labelNode ast.NodeID
	used      bool
	loop      int // index of the labeled loop frame, -1 if the label is not on a loop

	// Catch and finally frames: where exceptions raised in the region go.
	handler BlockID
	exits   []exit
}

// exit is a jump that entered a finally region and must continue to
// target once the region completes.
type exit struct {
	target BlockID
	depth  int
	kind   EdgeKind
}

// Case is one clause of a switch statement. When Enter is set it is called
// as the case block opens and its result replaces Node, so callers can
// number the clause node in traversal order.
type Case struct {
	Node    ast.NodeID
	Default bool
	Enter   func() ast.NodeID
	Test    func()
	Body    func()
}

// Builder constructs one Graph. The structured methods take callbacks that
// visit the corresponding children; the callbacks may call back into the
// builder for nested statements.
//
// Every method leaves the builder positioned on the block where the next
// statement belongs. After a jump that block has no predecessors.
//
// A nil Builder records nothing but still runs every callback, so a walker
// can drive the same code path with graph construction disabled.
type Builder struct {
	g       *Graph
	current BlockID
	frames  []frame
	pending []int // label frames waiting for the next statement
	sink    diag.Sink

	unusedLabels []ast.NodeID
}

// NewBuilder starts a graph for the body introduced by node. blockHint
// pre-sizes the block arena; 0 picks a default.
func NewBuilder(node ast.NodeID, sink diag.Sink, blockHint int) *Builder {
	if blockHint < 2 {
		blockHint = 8
	}
	if sink == nil {
		sink = diag.NopSink{}
	}
	g := &Graph{
		Node:    node,
		blocks:  make([]Block, 0, blockHint),
		edges:   make([]Edge, 0, blockHint),
		blockOf: make(map[ast.NodeID]BlockID),
		abrupt:  NoBlock,
		errSink: NoBlock,
	}
	b := &Builder{g: g, sink: sink}
	b.alloc() // entry
	b.alloc() // exit
	b.current = EntryBlock
	return b
}

// Current returns the block receiving instructions.
func (b *Builder) Current() BlockID {
	if b == nil {
		return NoBlock
	}
	return b.current
}

// UnusedLabels returns labels no break or continue named.
func (b *Builder) UnusedLabels() []ast.NodeID {
	if b == nil {
		return nil
	}
	return b.unusedLabels
}

func (b *Builder) alloc() BlockID {
	n, err := safecast.Conv[uint32](len(b.g.blocks))
	if err != nil {
		panic(fmt.Errorf("cfg: block arena overflow: %w", err))
	}
	id := BlockID(n)
	b.g.blocks = append(b.g.blocks, Block{ID: id})
	return id
}

// newBlock allocates a block. Inside a try or catch region the block gets
// an exception edge to the region's handler.
func (b *Builder) newBlock() BlockID {
	id := b.alloc()
	for i := len(b.frames) - 1; i >= 0; i-- {
		if k := b.frames[i].kind; k == frameCatch || k == frameFinally {
			b.addEdge(id, b.frames[i].handler, EdgeException)
			break
		}
	}
	return id
}

func (b *Builder) addEdge(from, to BlockID, kind EdgeKind) {
	for _, e := range b.g.blocks[from].succ {
		if old := b.g.edges[e]; old.To == to && old.Kind == kind {
			return
		}
	}
	n, err := safecast.Conv[uint32](len(b.g.edges))
	if err != nil {
		panic(fmt.Errorf("cfg: edge arena overflow: %w", err))
	}
	b.g.edges = append(b.g.edges, Edge{From: from, To: to, Kind: kind})
	b.g.blocks[from].succ = append(b.g.blocks[from].succ, n)
	b.g.blocks[to].pred = append(b.g.blocks[to].pred, n)
}

// dead reports whether no edge can enter id.
func (b *Builder) dead(id BlockID) bool {
	return id != EntryBlock && len(b.g.blocks[id].pred) == 0
}

// link adds a structural edge unless from is dead.
func (b *Builder) link(from, to BlockID, kind EdgeKind) {
	if b.dead(from) {
		return
	}
	b.addEdge(from, to, kind)
}

func (b *Builder) append(kind InstrKind, node ast.NodeID) {
	blk := &b.g.blocks[b.current]
	blk.Instructions = append(blk.Instructions, Instruction{Kind: kind, Node: node})
	if _, ok := b.g.blockOf[node]; !ok && node.IsValid() {
		b.g.blockOf[node] = b.current
	}
}

func (b *Builder) push(f frame) int {
	b.frames = append(b.frames, f)
	return len(b.frames) - 1
}

func (b *Builder) pop() frame {
	f := b.frames[len(b.frames)-1]
	b.frames = b.frames[:len(b.frames)-1]
	return f
}

// takeLabels returns and clears the label frames directly preceding the
// statement being entered.
func (b *Builder) takeLabels() []int {
	p := b.pending
	b.pending = nil
	return p
}

func (b *Builder) claimLabels(labels []int, loop int) {
	for _, i := range labels {
		b.frames[i].loop = loop
	}
}

func (b *Builder) abruptExit() BlockID {
	if b.g.abrupt == NoBlock {
		b.g.abrupt = b.alloc()
	}
	return b.g.abrupt
}

func (b *Builder) errorSink() BlockID {
	if b.g.errSink == NoBlock {
		b.g.errSink = b.alloc()
	}
	return b.g.errSink
}

// jump routes control from a block to target, which belongs to the frame
// at depth (-1 for the function exit). A finally region in between
// captures the jump and replays it once the region completes.
func (b *Builder) jump(from, target BlockID, depth int, kind EdgeKind) {
	if b.dead(from) {
		return
	}
	for i := len(b.frames) - 1; i > depth; i-- {
		f := &b.frames[i]
		if f.kind != frameFinally {
			continue
		}
		b.addEdge(from, f.handler, kind)
		ex := exit{target: target, depth: depth, kind: kind}
		for _, old := range f.exits {
			if old == ex {
				return
			}
		}
		f.exits = append(f.exits, ex)
		return
	}
	b.addEdge(from, target, kind)
}

// throwFrom routes an exception raised in from to the nearest catch, or to
// the abrupt exit.
func (b *Builder) throwFrom(from BlockID) {
	for i := len(b.frames) - 1; i >= 0; i-- {
		if b.frames[i].kind == frameCatch {
			b.jump(from, b.frames[i].handler, i, EdgeException)
			return
		}
	}
	b.jump(from, b.abruptExit(), -1, EdgeException)
}

// Statement records a simple statement in the current block.
func (b *Builder) Statement(node ast.NodeID) {
	if b == nil {
		return
	}
	b.takeLabels()
	b.append(InstrStatement, node)
}

// Block runs body as a nested statement list.
func (b *Builder) Block(body func()) {
	if b == nil {
		run(body)
		return
	}
	b.takeLabels()
	body()
}

// If builds a two-way branch. els may be nil.
func (b *Builder) If(node ast.NodeID, cond, then, els func()) {
	if b == nil {
		run(cond)
		run(then)
		run(els)
		return
	}
	b.takeLabels()
	b.append(InstrCondition, node)
	run(cond)
	head := b.current

	thenBlock := b.newBlock()
	b.link(head, thenBlock, EdgeConditional)
	b.current = thenBlock
	run(then)
	thenEnd := b.current

	elseEnd := NoBlock
	if els != nil {
		elseBlock := b.newBlock()
		b.link(head, elseBlock, EdgeConditional)
		b.current = elseBlock
		els()
		elseEnd = b.current
	}

	join := b.newBlock()
	b.link(thenEnd, join, EdgeUnconditional)
	if elseEnd != NoBlock {
		b.link(elseEnd, join, EdgeUnconditional)
	} else {
		b.link(head, join, EdgeConditional)
	}
	b.current = join
}

// While builds a pre-tested loop.
func (b *Builder) While(node ast.NodeID, cond, body func()) {
	if b == nil {
		run(cond)
		run(body)
		return
	}
	labels := b.takeLabels()
	header := b.newBlock()
	b.link(b.current, header, EdgeUnconditional)
	b.current = header
	b.append(InstrCondition, node)
	run(cond)

	bodyBlock := b.newBlock()
	after := b.newBlock()
	b.link(header, bodyBlock, EdgeConditional)
	b.link(header, after, EdgeConditional)

	idx := b.push(frame{kind: frameLoop, breakTo: after, continueTo: header})
	b.claimLabels(labels, idx)
	b.current = bodyBlock
	run(body)
	b.link(b.current, header, EdgeUnconditional)
	b.pop()
	b.current = after
}

// For builds a C-style loop. Any callback may be nil; a nil cond loops
// forever unless the body breaks.
func (b *Builder) For(node ast.NodeID, init, cond, update, body func()) {
	if b == nil {
		run(init)
		run(cond)
		run(body)
		run(update)
		return
	}
	labels := b.takeLabels()
	run(init)

	header := b.newBlock()
	b.link(b.current, header, EdgeUnconditional)
	b.current = header
	if cond != nil {
		b.append(InstrCondition, node)
		cond()
	} else {
		b.append(InstrIteration, node)
	}

	bodyBlock := b.newBlock()
	after := b.newBlock()
	updateBlock := b.newBlock()
	if cond != nil {
		b.link(header, bodyBlock, EdgeConditional)
		b.link(header, after, EdgeConditional)
	} else {
		b.link(header, bodyBlock, EdgeUnconditional)
	}

	idx := b.push(frame{kind: frameLoop, breakTo: after, continueTo: updateBlock})
	b.claimLabels(labels, idx)
	b.current = bodyBlock
	run(body)
	b.link(b.current, updateBlock, EdgeUnconditional)

	b.current = updateBlock
	run(update)
	b.link(updateBlock, header, EdgeUnconditional)
	b.pop()
	b.current = after
}

// ForIn builds a for-in or for-of loop. right is evaluated once before the
// loop; left binds each iteration value at the top of the body.
func (b *Builder) ForIn(node ast.NodeID, right, left, body func()) {
	if b == nil {
		run(right)
		run(left)
		run(body)
		return
	}
	labels := b.takeLabels()
	run(right)

	header := b.newBlock()
	b.link(b.current, header, EdgeUnconditional)
	b.current = header
	b.append(InstrIteration, node)

	bodyBlock := b.newBlock()
	after := b.newBlock()
	b.link(header, bodyBlock, EdgeConditional)
	b.link(header, after, EdgeConditional)

	idx := b.push(frame{kind: frameLoop, breakTo: after, continueTo: header})
	b.claimLabels(labels, idx)
	b.current = bodyBlock
	run(left)
	run(body)
	b.link(b.current, header, EdgeUnconditional)
	b.pop()
	b.current = after
}

// DoWhile builds a post-tested loop.
func (b *Builder) DoWhile(node ast.NodeID, body, cond func()) {
	if b == nil {
		run(body)
		run(cond)
		return
	}
	labels := b.takeLabels()
	bodyBlock := b.newBlock()
	b.link(b.current, bodyBlock, EdgeUnconditional)
	condBlock := b.newBlock()
	after := b.newBlock()

	idx := b.push(frame{kind: frameLoop, breakTo: after, continueTo: condBlock})
	b.claimLabels(labels, idx)
	b.current = bodyBlock
	run(body)
	b.link(b.current, condBlock, EdgeUnconditional)

	b.current = condBlock
	b.append(InstrCondition, node)
	run(cond)
	b.link(condBlock, bodyBlock, EdgeConditional)
	b.link(condBlock, after, EdgeConditional)
	b.pop()
	b.current = after
}

// Switch builds a multi-way branch. Cases are entered from the header in
// source order and fall through to the next case unless they jump.
func (b *Builder) Switch(node ast.NodeID, disc func(), cases []Case) {
	if b == nil {
		run(disc)
		for _, c := range cases {
			if c.Enter != nil {
				c.Enter()
			}
			run(c.Test)
			run(c.Body)
		}
		return
	}
	b.takeLabels()
	run(disc)
	b.append(InstrCondition, node)
	header := b.current
	after := b.newBlock()

	b.push(frame{kind: frameSwitch, breakTo: after})
	prevEnd := NoBlock
	hasDefault := false
	for _, c := range cases {
		caseBlock := b.newBlock()
		b.link(header, caseBlock, EdgeConditional)
		if prevEnd != NoBlock {
			b.link(prevEnd, caseBlock, EdgeUnconditional)
		}
		b.current = caseBlock
		caseNode := c.Node
		if c.Enter != nil {
			caseNode = c.Enter()
		}
		b.append(InstrCase, caseNode)
		run(c.Test)
		run(c.Body)
		prevEnd = b.current
		hasDefault = hasDefault || c.Default
	}
	if prevEnd != NoBlock {
		b.link(prevEnd, after, EdgeUnconditional)
	}
	if !hasDefault {
		b.link(header, after, EdgeConditional)
	}
	b.pop()
	b.current = after
}

// Try builds a try statement. handler or finalizer may be nil, not both.
// The finalizer body is built once; every path leaving the try or catch
// body is routed through it and resumes at its original destination.
func (b *Builder) Try(node ast.NodeID, block, handler, finalizer func()) {
	if b == nil {
		run(block)
		run(handler)
		run(finalizer)
		return
	}
	b.takeLabels()
	b.append(InstrStatement, node)

	finEntry := NoBlock
	if finalizer != nil {
		finEntry = b.newBlock()
		b.push(frame{kind: frameFinally, handler: finEntry})
	}
	catchEntry := NoBlock
	if handler != nil {
		catchEntry = b.newBlock()
		b.push(frame{kind: frameCatch, handler: catchEntry})
	}

	tryEntry := b.newBlock()
	b.link(b.current, tryEntry, EdgeUnconditional)
	b.current = tryEntry
	run(block)
	ends := []BlockID{b.current}

	if handler != nil {
		b.pop()
		b.current = catchEntry
		handler()
		ends = append(ends, b.current)
	}

	if finalizer == nil {
		after := b.newBlock()
		for _, end := range ends {
			b.link(end, after, EdgeUnconditional)
		}
		b.current = after
		return
	}

	normal := false
	for _, end := range ends {
		if !b.dead(end) {
			b.addEdge(end, finEntry, EdgeUnconditional)
			normal = true
		}
	}
	fin := b.pop()

	b.current = finEntry
	finalizer()
	finEnd := b.current

	after := b.newBlock()
	if normal {
		b.link(finEnd, after, EdgeUnconditional)
	}
	for _, ex := range fin.exits {
		b.jump(finEnd, ex.target, ex.depth, ex.kind)
	}
	// Exceptions that entered the finalizer propagate once it completes.
	b.throwFrom(finEnd)
	b.current = after
}

// Labeled runs body under a label. A loop entered directly by body can be
// the target of a labeled continue.
func (b *Builder) Labeled(node ast.NodeID, label string, body func()) {
	if b == nil {
		run(body)
		return
	}
	after := b.newBlock()
	idx := b.push(frame{kind: frameLabel, breakTo: after, label: label, labelNode: node, loop: -1})
	b.pending = append(b.pending, idx)
	run(body)
	b.pending = nil
	b.link(b.current, after, EdgeUnconditional)
	f := b.pop()
	if !f.used {
		b.unusedLabels = append(b.unusedLabels, node)
	}
	b.current = after
}

// Break records a break. An empty label targets the nearest loop or switch.
// Unmatched breaks are reported and routed to the error sink.
func (b *Builder) Break(node ast.NodeID, label string, span diag.Span) {
	if b == nil {
		return
	}
	b.takeLabels()
	b.append(InstrBreak, node)
	idx := -1
	for i := len(b.frames) - 1; i >= 0; i-- {
		f := &b.frames[i]
		if label == "" && (f.kind == frameLoop || f.kind == frameSwitch) ||
			label != "" && f.kind == frameLabel && f.label == label {
			idx = i
			f.used = f.used || label != ""
			break
		}
	}
	switch {
	case idx >= 0:
		b.jump(b.current, b.frames[idx].breakTo, idx, EdgeUnconditional)
	case label != "":
		b.invalid(diag.KindInvalidLabel, span, fmt.Sprintf("use of undefined label %q", label))
	default:
		b.invalid(diag.KindInvalidJump, span, "illegal break statement")
	}
	b.current = b.newBlock()
}

// Continue records a continue. An empty label targets the nearest loop.
func (b *Builder) Continue(node ast.NodeID, label string, span diag.Span) {
	if b == nil {
		return
	}
	b.takeLabels()
	b.append(InstrContinue, node)
	loop := -1
	for i := len(b.frames) - 1; i >= 0; i-- {
		f := &b.frames[i]
		if label == "" && f.kind == frameLoop {
			loop = i
			break
		}
		if label != "" && f.kind == frameLabel && f.label == label {
			f.used = true
			loop = f.loop
			if loop < 0 {
				b.invalid(diag.KindInvalidLabel, span, fmt.Sprintf("label %q does not denote a loop", label))
				b.current = b.newBlock()
				return
			}
			break
		}
	}
	switch {
	case loop >= 0:
		b.jump(b.current, b.frames[loop].continueTo, loop, EdgeUnconditional)
	case label != "":
		b.invalid(diag.KindInvalidLabel, span, fmt.Sprintf("use of undefined label %q", label))
	default:
		b.invalid(diag.KindInvalidJump, span, "illegal continue statement")
	}
	b.current = b.newBlock()
}

func (b *Builder) invalid(kind diag.Kind, span diag.Span, msg string) {
	b.sink.Report(kind, span, msg)
	b.link(b.current, b.errorSink(), EdgeUnconditional)
}

// Return records a return and routes it to the exit block.
func (b *Builder) Return(node ast.NodeID) {
	if b == nil {
		return
	}
	b.takeLabels()
	b.append(InstrReturn, node)
	b.jump(b.current, ExitBlock, -1, EdgeUnconditional)
	b.current = b.newBlock()
}

// Throw records a throw and routes it to the nearest catch.
func (b *Builder) Throw(node ast.NodeID) {
	if b == nil {
		return
	}
	b.takeLabels()
	b.append(InstrThrow, node)
	b.throwFrom(b.current)
	b.current = b.newBlock()
}

// Finish closes the graph. Falling off the end of the body reaches the
// exit block. The builder must not be used afterwards.
func (b *Builder) Finish() *Graph {
	if b == nil {
		return nil
	}
	b.link(b.current, ExitBlock, EdgeUnconditional)
	g := b.g
	g.reach = g.ReachableFrom(EntryBlock)
	b.g = nil
	return g
}

func run(fn func()) {
	if fn != nil {
		fn()
	}
}
