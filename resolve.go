package semantic

import sitter "github.com/smacker/go-tree-sitter"

// pendingFrame holds the references of one open scope that no binding has
// claimed yet, keyed by name.
type pendingFrame struct {
	scope ScopeID
	refs  map[string][]ReferenceID
}

func (b *builder) pushFrame(scope ScopeID) {
	b.pending = append(b.pending, pendingFrame{scope: scope})
}

// popFrame closes the innermost scope: names it binds resolve, the rest
// move to the parent's bucket, or become globals at the root.
func (b *builder) popFrame() {
	top := b.pending[len(b.pending)-1]
	b.pending = b.pending[:len(b.pending)-1]
	b.settle(top, len(b.pending)-1)
	b.recycle(top.refs)
}

// flushPending settles the innermost frame without closing its scope.
func (b *builder) flushPending() {
	i := len(b.pending) - 1
	top := b.pending[i]
	b.pending[i].refs = nil
	b.settle(top, i-1)
	b.recycle(top.refs)
}

// settle resolves f against its scope's bindings and merges the residue
// into the frame at index parent, or into the globals when parent < 0.
func (b *builder) settle(f pendingFrame, parent int) {
	for name, refs := range f.refs {
		if sym, ok := b.scopes.GetBinding(f.scope, name); ok {
			for _, ref := range refs {
				b.symbols.resolve(ref, sym)
			}
			continue
		}
		if parent < 0 {
			if b.scopes.unresolved == nil {
				b.scopes.unresolved = make(map[string][]ReferenceID)
			}
			b.scopes.unresolved[name] = append(b.scopes.unresolved[name], refs...)
			continue
		}
		p := &b.pending[parent]
		if p.refs == nil {
			p.refs = b.bucket()
		}
		if prev, ok := p.refs[name]; ok {
			p.refs[name] = append(prev, refs...)
		} else {
			p.refs[name] = refs
		}
	}
}

// reference records a use of ts's name in the current scope.
func (b *builder) reference(id NodeID, ts *sitter.Node, flags ReferenceFlags) {
	span := spanOf(ts)
	name := b.text(ts)
	ref := b.symbols.addReference(name, span, flags, b.scope, id)
	top := &b.pending[len(b.pending)-1]
	if top.refs == nil {
		top.refs = b.bucket()
	}
	top.refs[name] = append(top.refs[name], ref)
}

// drain resolves the references waiting in scope's bucket for name to a
// symbol just bound there.
func (b *builder) drain(scope ScopeID, name string, sym SymbolID) {
	for i := len(b.pending) - 1; i >= 0; i-- {
		f := &b.pending[i]
		if f.scope != scope {
			continue
		}
		for _, ref := range f.refs[name] {
			b.symbols.resolve(ref, sym)
		}
		delete(f.refs, name)
		return
	}
}

func (b *builder) bucket() map[string][]ReferenceID {
	if n := len(b.spare); n > 0 {
		m := b.spare[n-1]
		b.spare = b.spare[:n-1]
		return m
	}
	return make(map[string][]ReferenceID, 8)
}

func (b *builder) recycle(m map[string][]ReferenceID) {
	if m == nil {
		return
	}
	clear(m)
	b.spare = append(b.spare, m)
}
