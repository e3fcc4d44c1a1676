package semantic

import (
	"fmt"

	"github.com/jward/semantic/internal/diag"
)

// strictReserved are names that cannot be bound in strict mode code.
var strictReserved = map[string]bool{
	"eval":       true,
	"arguments":  true,
	"implements": true,
	"interface":  true,
	"let":        true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"static":     true,
	"yield":      true,
}

const lexicalFlags = SymbolBlockScoped | SymbolConst | SymbolClass

// typeMeaning marks declarations that name a type.
const typeMeaning = SymbolTypeOnly | SymbolClass | SymbolEnum | SymbolNamespace | SymbolImport

// valueMeaning marks declarations that name a runtime value.
const valueMeaning = SymbolFunctionScoped | SymbolBlockScoped | SymbolConst | SymbolClass |
	SymbolCatchVariable | SymbolFunction | SymbolParameter | SymbolImport | SymbolEnum | SymbolNamespace

// declare binds name and returns its symbol. Function-scoped declarations
// hoist to the nearest var scope; everything else binds in the current
// scope. A redeclaration returns the canonical symbol and records the new
// span on it; a legal one also merges its flags in.
func (b *builder) declare(name string, span diag.Span, flags SymbolFlags, node NodeID) SymbolID {
	target := b.scope
	reported := false
	if flags.Has(SymbolFunctionScoped) && !flags.Has(SymbolParameter) {
		for s := b.scope; ; s = b.scopes.Parent(s) {
			if b.scopes.Flags(s).IsVar() || !b.scopes.Parent(s).IsValid() {
				target = s
				break
			}
			if old, ok := b.scopes.GetBinding(s, name); ok && !reported && conflicts(b.symbols.Flags(old), flags) {
				b.redeclaration(name, span)
				reported = true
			}
			b.markHoisted(s, name)
		}
	}

	if strictReserved[name] && b.scopes.Flags(target).IsStrict() {
		b.sink.Report(diag.KindReservedBinding, span,
			fmt.Sprintf("binding %q is not allowed in strict mode", name))
	}

	if old, ok := b.scopes.GetBinding(target, name); ok {
		prev := &b.symbols.symbols[old]
		// A function expression's own name yields to any declaration in
		// its body.
		if prev.Flags != SymbolFunction {
			switch {
			case conflicts(prev.Flags, flags) && !b.repeatedBlockFunction(target, prev.Flags, flags):
				if !reported {
					b.redeclaration(name, span)
				}
			case !reported:
				prev.Flags |= flags
			}
			prev.Redeclarations = append(prev.Redeclarations, span)
			return old
		}
	} else if !flags.Has(SymbolFunctionScoped) && !reported && b.isHoisted(target, name) &&
		flags.Any(lexicalFlags) {
		b.redeclaration(name, span)
	}

	id := b.symbols.addSymbol(name, span, flags, target, node)
	b.scopes.bind(target, name, id)
	b.drain(target, name, id)
	return id
}

func (b *builder) redeclaration(name string, span diag.Span) {
	b.sink.Report(diag.KindRedeclaration, span,
		fmt.Sprintf("identifier %q has already been declared", name))
}

func (b *builder) markHoisted(s ScopeID, name string) {
	if b.hoisted == nil {
		b.hoisted = make(map[ScopeID]map[string]struct{})
	}
	names := b.hoisted[s]
	if names == nil {
		names = make(map[string]struct{}, 2)
		b.hoisted[s] = names
	}
	names[name] = struct{}{}
}

func (b *builder) isHoisted(s ScopeID, name string) bool {
	_, ok := b.hoisted[s][name]
	return ok
}

// repeatedBlockFunction reports a function declared twice in the same block
// of sloppy code, which stays legal for web compatibility.
func (b *builder) repeatedBlockFunction(s ScopeID, old, cur SymbolFlags) bool {
	const blockFunction = SymbolFunction | SymbolBlockScoped
	return old.Has(blockFunction) && cur.Has(blockFunction) && !b.scopes.Flags(s).IsStrict()
}

// conflicts reports whether declaring cur where old is already bound is an
// error. Var-like declarations may repeat; anything lexical may not.
// Declarations in disjoint meaning spaces, a type and a plain value, never
// collide.
func conflicts(old, cur SymbolFlags) bool {
	if mergeable(old, cur) {
		return false
	}
	sharesValue := old.Any(valueMeaning) && cur.Any(valueMeaning)
	sharesType := old.Any(typeMeaning) && cur.Any(typeMeaning)
	switch {
	case sharesValue:
		return old.Any(lexicalFlags) || cur.Any(lexicalFlags)
	case sharesType:
		return true
	}
	return false
}

// mergeable reports TypeScript declaration merging.
func mergeable(old, cur SymbolFlags) bool {
	switch {
	case old.Has(SymbolInterface) && cur.Any(SymbolInterface|SymbolClass),
		cur.Has(SymbolInterface) && old.Has(SymbolClass):
		return true
	case old.Has(SymbolEnum) && cur.Has(SymbolEnum):
		return true
	case old.Has(SymbolNamespace) && cur.Any(SymbolNamespace|SymbolFunction|SymbolClass|SymbolEnum),
		cur.Has(SymbolNamespace) && old.Any(SymbolFunction|SymbolClass|SymbolEnum):
		return true
	}
	return false
}
