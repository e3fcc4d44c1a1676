package semantic

import (
	"fmt"
	"iter"
	"strings"

	"fortio.org/safecast"

	"github.com/jward/semantic/internal/diag"
)

// SymbolID identifies a symbol.
type SymbolID uint32

// NoSymbolID marks the absence of a symbol. A reference resolved to
// NoSymbolID is a global.
const NoSymbolID SymbolID = 0

// IsValid reports whether the id refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }

// ReferenceID identifies a reference.
type ReferenceID uint32

// NoReferenceID marks the absence of a reference.
const NoReferenceID ReferenceID = 0

// IsValid reports whether the id refers to an allocated reference.
func (id ReferenceID) IsValid() bool { return id != NoReferenceID }

// SymbolFlags describe how a name was declared.
type SymbolFlags uint16

const (
	SymbolFunctionScoped SymbolFlags = 1 << iota
	SymbolBlockScoped
	SymbolConst
	SymbolClass
	SymbolCatchVariable
	SymbolFunction
	SymbolParameter
	SymbolImport
	SymbolTypeAlias
	SymbolInterface
	SymbolEnum
	SymbolNamespace
	SymbolTypeParameter
)

// SymbolTypeOnly marks declarations that exist only in the type space.
const SymbolTypeOnly = SymbolTypeAlias | SymbolInterface | SymbolTypeParameter

var symbolFlagNames = []struct {
	flag SymbolFlags
	name string
}{
	{SymbolFunctionScoped, "var"},
	{SymbolBlockScoped, "block"},
	{SymbolConst, "const"},
	{SymbolClass, "class"},
	{SymbolCatchVariable, "catch"},
	{SymbolFunction, "function"},
	{SymbolParameter, "param"},
	{SymbolImport, "import"},
	{SymbolTypeAlias, "type"},
	{SymbolInterface, "interface"},
	{SymbolEnum, "enum"},
	{SymbolNamespace, "namespace"},
	{SymbolTypeParameter, "type-param"},
}

// Has reports whether all bits of f2 are set.
func (f SymbolFlags) Has(f2 SymbolFlags) bool { return f&f2 == f2 }

// Any reports whether any bit of f2 is set.
func (f SymbolFlags) Any(f2 SymbolFlags) bool { return f&f2 != 0 }

func (f SymbolFlags) String() string {
	var parts []string
	for _, fn := range symbolFlagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ReferenceFlags describe how a reference uses its name.
type ReferenceFlags uint8

const (
	RefRead ReferenceFlags = 1 << iota
	RefWrite
	RefType
)

// IsRead reports whether the reference reads the value.
func (f ReferenceFlags) IsRead() bool { return f&RefRead != 0 }

// IsWrite reports whether the reference assigns the value.
func (f ReferenceFlags) IsWrite() bool { return f&RefWrite != 0 }

// IsType reports whether the reference is in a type position.
func (f ReferenceFlags) IsType() bool { return f&RefType != 0 }

func (f ReferenceFlags) String() string {
	var parts []string
	if f.IsRead() {
		parts = append(parts, "read")
	}
	if f.IsWrite() {
		parts = append(parts, "write")
	}
	if f.IsType() {
		parts = append(parts, "type")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Symbol is one declared name.
type Symbol struct {
	ID    SymbolID
	Name  string
	Span  diag.Span
	Flags SymbolFlags
	Scope ScopeID
	// Node is the declaring construct (declarator, function, parameter,
	// import specifier, ...), not the identifier.
	Node NodeID
	// Redeclarations holds the spans of later declarations of the same
	// binding. The first declaration is canonical.
	Redeclarations []diag.Span
	references     []ReferenceID
}

// Reference is one use of a name.
type Reference struct {
	ID    ReferenceID
	Name  string
	Span  diag.Span
	Node  NodeID
	Scope ScopeID
	Flags ReferenceFlags
	// Symbol is set at most once, when the reference resolves.
	Symbol SymbolID
}

// IsGlobal reports whether no declaration captured the reference.
func (r *Reference) IsGlobal() bool { return !r.Symbol.IsValid() }

// SymbolTable holds every symbol and reference of one file.
type SymbolTable struct {
	symbols    []Symbol
	references []Reference
}

func newSymbolTable(symbols, references uint32) *SymbolTable {
	return &SymbolTable{
		symbols:    make([]Symbol, 1, symbols+1), // index 0 reserved for NoSymbolID
		references: make([]Reference, 1, references+1),
	}
}

func (t *SymbolTable) addSymbol(name string, span diag.Span, flags SymbolFlags, scope ScopeID, node NodeID) SymbolID {
	id := SymbolID(mustUint32(len(t.symbols), "symbol"))
	t.symbols = append(t.symbols, Symbol{ID: id, Name: name, Span: span, Flags: flags, Scope: scope, Node: node})
	return id
}

func (t *SymbolTable) addReference(name string, span diag.Span, flags ReferenceFlags, scope ScopeID, node NodeID) ReferenceID {
	id := ReferenceID(mustUint32(len(t.references), "reference"))
	t.references = append(t.references, Reference{ID: id, Name: name, Span: span, Node: node, Scope: scope, Flags: flags})
	return id
}

// resolve links a reference to a symbol. A reference resolves once.
func (t *SymbolTable) resolve(ref ReferenceID, sym SymbolID) {
	r := &t.references[ref]
	if r.Symbol.IsValid() {
		panic(fmt.Sprintf("semantic: reference %d resolved twice", ref))
	}
	r.Symbol = sym
	t.symbols[sym].references = append(t.symbols[sym].references, ref)
}

// Len returns the number of symbols.
func (t *SymbolTable) Len() int { return len(t.symbols) - 1 }

// ReferenceCount returns the number of references.
func (t *SymbolTable) ReferenceCount() int { return len(t.references) - 1 }

// Get returns the symbol or nil. The result must not be modified.
func (t *SymbolTable) Get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(t.symbols) {
		return nil
	}
	return &t.symbols[id]
}

// Name returns the symbol's name.
func (t *SymbolTable) Name(id SymbolID) string {
	if s := t.Get(id); s != nil {
		return s.Name
	}
	return ""
}

// Flags returns the symbol's flags.
func (t *SymbolTable) Flags(id SymbolID) SymbolFlags {
	if s := t.Get(id); s != nil {
		return s.Flags
	}
	return 0
}

// Span returns the span of the symbol's canonical declaration.
func (t *SymbolTable) Span(id SymbolID) diag.Span {
	if s := t.Get(id); s != nil {
		return s.Span
	}
	return diag.Span{}
}

// ScopeID returns the scope the symbol is bound in.
func (t *SymbolTable) ScopeID(id SymbolID) ScopeID {
	if s := t.Get(id); s != nil {
		return s.Scope
	}
	return NoScopeID
}

// Redeclarations returns the spans of later declarations of the symbol.
func (t *SymbolTable) Redeclarations(id SymbolID) []diag.Span {
	if s := t.Get(id); s != nil {
		return s.Redeclarations
	}
	return nil
}

// ResolvedReferences yields the references bound to a symbol in source order.
func (t *SymbolTable) ResolvedReferences(id SymbolID) iter.Seq[*Reference] {
	return func(yield func(*Reference) bool) {
		s := t.Get(id)
		if s == nil {
			return
		}
		for _, ref := range s.references {
			if !yield(&t.references[ref]) {
				return
			}
		}
	}
}

// ReferenceIDs returns the ids of the references bound to a symbol.
func (t *SymbolTable) ReferenceIDs(id SymbolID) []ReferenceID {
	if s := t.Get(id); s != nil {
		return s.references
	}
	return nil
}

// Reference returns a reference or nil.
func (t *SymbolTable) Reference(id ReferenceID) *Reference {
	if !id.IsValid() || int(id) >= len(t.references) {
		return nil
	}
	return &t.references[id]
}

// All yields every symbol in declaration order.
func (t *SymbolTable) All() iter.Seq[*Symbol] {
	return func(yield func(*Symbol) bool) {
		for i := 1; i < len(t.symbols); i++ {
			if !yield(&t.symbols[i]) {
				return
			}
		}
	}
}

// References yields every reference in source order.
func (t *SymbolTable) References() iter.Seq[*Reference] {
	return func(yield func(*Reference) bool) {
		for i := 1; i < len(t.references); i++ {
			if !yield(&t.references[i]) {
				return
			}
		}
	}
}

func mustUint32(n int, what string) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("semantic: %s arena overflow: %w", what, err))
	}
	return v
}
