// Package diag carries the non-fatal findings produced while building
// semantic data. Analysis never stops on a diagnostic.
package diag

import (
	"fmt"
	"sort"
)

// Span is a half-open byte range into the analyzed source.
type Span struct {
	Start uint32
	End   uint32
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Contains reports whether offset falls inside the span.
func (s Span) Contains(offset uint32) bool {
	return offset >= s.Start && offset < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Kind classifies a diagnostic.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindRedeclaration: a binding conflicts with an earlier one in scope.
	KindRedeclaration
	// KindInvalidLabel: break/continue names a label that is not in scope.
	KindInvalidLabel
	// KindInvalidJump: break/continue with no enclosing target.
	KindInvalidJump
	// KindReservedBinding: strict mode forbids binding this name.
	KindReservedBinding
	// KindDuplicateParameter: strict mode forbids repeated parameter names.
	KindDuplicateParameter
	// KindSyntax: the parser reported an error node.
	KindSyntax
)

var kindNames = [...]string{
	KindUnknown:            "unknown",
	KindRedeclaration:      "redeclaration",
	KindInvalidLabel:       "invalid-label",
	KindInvalidJump:        "invalid-jump",
	KindReservedBinding:    "reserved-binding",
	KindDuplicateParameter: "duplicate-parameter",
	KindSyntax:             "syntax",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Kind    Kind
	Span    Span
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s]: %s", d.Span, d.Kind, d.Message)
}

// Sink receives diagnostics as they are found.
type Sink interface {
	Report(kind Kind, span Span, msg string)
}

// NopSink drops everything.
type NopSink struct{}

func (NopSink) Report(Kind, Span, string) {}

// Bag collects diagnostics in report order. A zero Bag is ready to use.
type Bag struct {
	items []Diagnostic
}

// NewBag returns a Bag with room for capacity diagnostics.
func NewBag(capacity int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, capacity)}
}

func (b *Bag) Report(kind Kind, span Span, msg string) {
	b.items = append(b.items, Diagnostic{Kind: kind, Span: span, Message: msg})
}

// Len returns the number of collected diagnostics.
func (b *Bag) Len() int { return len(b.items) }

// Items returns the collected diagnostics. Callers must not modify the slice.
func (b *Bag) Items() []Diagnostic { return b.items }

// Count returns how many diagnostics of kind were collected.
func (b *Bag) Count(kind Kind) int {
	n := 0
	for i := range b.items {
		if b.items[i].Kind == kind {
			n++
		}
	}
	return n
}

// Sorted returns a copy ordered by span start, then kind.
func (b *Bag) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start < out[j].Span.Start
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Tee forwards every report to each sink in order.
type Tee []Sink

func (t Tee) Report(kind Kind, span Span, msg string) {
	for _, s := range t {
		if s != nil {
			s.Report(kind, span, msg)
		}
	}
}

var (
	_ Sink = NopSink{}
	_ Sink = (*Bag)(nil)
	_ Sink = Tee(nil)
)
