package semantic

import (
	"iter"
	"sort"
	"strings"
)

// ScopeID identifies a scope. The program scope is always 1.
type ScopeID uint32

// NoScopeID marks the absence of a scope.
const NoScopeID ScopeID = 0

// IsValid reports whether the id refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// ScopeFlags describe what introduced a scope and how it behaves.
type ScopeFlags uint16

const (
	ScopeStrictMode ScopeFlags = 1 << iota
	ScopeTop
	ScopeFunction
	ScopeArrow
	ScopeClassStaticBlock
	ScopeModuleBlock
	ScopeConstructor
	ScopeGetter
	ScopeSetter
	ScopeCatchClause
	ScopeClass
)

// ScopeVar marks the scopes var declarations hoist to.
const ScopeVar = ScopeTop | ScopeFunction | ScopeClassStaticBlock | ScopeModuleBlock

var scopeFlagNames = []struct {
	flag ScopeFlags
	name string
}{
	{ScopeStrictMode, "strict"},
	{ScopeTop, "top"},
	{ScopeFunction, "function"},
	{ScopeArrow, "arrow"},
	{ScopeClassStaticBlock, "static-block"},
	{ScopeModuleBlock, "module-block"},
	{ScopeConstructor, "constructor"},
	{ScopeGetter, "getter"},
	{ScopeSetter, "setter"},
	{ScopeCatchClause, "catch"},
	{ScopeClass, "class"},
}

// Has reports whether all bits of f2 are set.
func (f ScopeFlags) Has(f2 ScopeFlags) bool { return f&f2 == f2 }

// Any reports whether any bit of f2 is set.
func (f ScopeFlags) Any(f2 ScopeFlags) bool { return f&f2 != 0 }

// IsStrict reports whether code in the scope is strict.
func (f ScopeFlags) IsStrict() bool { return f&ScopeStrictMode != 0 }

// IsVar reports whether var declarations bind here.
func (f ScopeFlags) IsVar() bool { return f&ScopeVar != 0 }

func (f ScopeFlags) String() string {
	if f == 0 {
		return "block"
	}
	var parts []string
	for _, fn := range scopeFlagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

type scopeData struct {
	parent   ScopeID
	flags    ScopeFlags
	node     NodeID
	bindings map[string]SymbolID
	order    []SymbolID
	children []ScopeID
}

// ScopeTree is the lexical scope hierarchy of one file.
type ScopeTree struct {
	scopes     []scopeData
	unresolved map[string][]ReferenceID
}

func newScopeTree(capacity uint32) *ScopeTree {
	return &ScopeTree{scopes: make([]scopeData, 1, capacity+1)} // index 0 reserved for NoScopeID
}

func (t *ScopeTree) add(parent ScopeID, flags ScopeFlags, node NodeID) ScopeID {
	id := ScopeID(mustUint32(len(t.scopes), "scope"))
	t.scopes = append(t.scopes, scopeData{parent: parent, flags: flags, node: node})
	if parent.IsValid() {
		t.scopes[parent].children = append(t.scopes[parent].children, id)
	}
	return id
}

func (t *ScopeTree) bind(id ScopeID, name string, sym SymbolID) {
	s := &t.scopes[id]
	if s.bindings == nil {
		s.bindings = make(map[string]SymbolID, 4)
	}
	s.bindings[name] = sym
	s.order = append(s.order, sym)
}

func (t *ScopeTree) get(id ScopeID) *scopeData {
	if !id.IsValid() || int(id) >= len(t.scopes) {
		return nil
	}
	return &t.scopes[id]
}

// Len returns the number of scopes, excluding the sentinel.
func (t *ScopeTree) Len() int { return len(t.scopes) - 1 }

// Root returns the program scope.
func (t *ScopeTree) Root() ScopeID {
	if len(t.scopes) < 2 {
		return NoScopeID
	}
	return 1
}

// Flags returns a scope's flags.
func (t *ScopeTree) Flags(id ScopeID) ScopeFlags {
	if s := t.get(id); s != nil {
		return s.flags
	}
	return 0
}

// Parent returns the enclosing scope, NoScopeID for the root.
func (t *ScopeTree) Parent(id ScopeID) ScopeID {
	if s := t.get(id); s != nil {
		return s.parent
	}
	return NoScopeID
}

// NodeID returns the node that introduced the scope.
func (t *ScopeTree) NodeID(id ScopeID) NodeID {
	if s := t.get(id); s != nil {
		return s.node
	}
	return NoNodeID
}

// Children returns the scopes nested directly in id.
func (t *ScopeTree) Children(id ScopeID) []ScopeID {
	if s := t.get(id); s != nil {
		return s.children
	}
	return nil
}

// GetBinding looks name up in id only.
func (t *ScopeTree) GetBinding(id ScopeID, name string) (SymbolID, bool) {
	if s := t.get(id); s != nil {
		sym, ok := s.bindings[name]
		return sym, ok
	}
	return NoSymbolID, false
}

// FindBinding looks name up in id and its ancestors, innermost first.
func (t *ScopeTree) FindBinding(id ScopeID, name string) (SymbolID, bool) {
	for s := id; s.IsValid(); s = t.Parent(s) {
		if sym, ok := t.GetBinding(s, name); ok {
			return sym, true
		}
	}
	return NoSymbolID, false
}

// Bindings yields the symbols declared directly in id in declaration order.
func (t *ScopeTree) Bindings(id ScopeID) iter.Seq[SymbolID] {
	return func(yield func(SymbolID) bool) {
		s := t.get(id)
		if s == nil {
			return
		}
		for _, sym := range s.order {
			if !yield(sym) {
				return
			}
		}
	}
}

// Ancestors yields id itself, then each enclosing scope up to the root.
func (t *ScopeTree) Ancestors(id ScopeID) iter.Seq[ScopeID] {
	return func(yield func(ScopeID) bool) {
		for s := id; s.IsValid(); s = t.Parent(s) {
			if !yield(s) {
				return
			}
		}
	}
}

// All yields every scope id in creation order.
func (t *ScopeTree) All() iter.Seq[ScopeID] {
	return func(yield func(ScopeID) bool) {
		for i := 1; i < len(t.scopes); i++ {
			if !yield(ScopeID(i)) {
				return
			}
		}
	}
}

// RootUnresolved returns the references no declaration captured, keyed by
// name. These are globals.
func (t *ScopeTree) RootUnresolved() map[string][]ReferenceID {
	return t.unresolved
}

// UnresolvedNames returns the global names in sorted order.
func (t *ScopeTree) UnresolvedNames() []string {
	names := make([]string, 0, len(t.unresolved))
	for name := range t.unresolved {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
