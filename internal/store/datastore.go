package store

// DataStore is the read side rule scripts query. *Store satisfies it; tests
// may substitute an in-memory fake.
type DataStore interface {
	ScopesByFile(fileID int64) ([]*Scope, error)
	SymbolsByFile(fileID int64) ([]*Symbol, error)
	ReferencesByFile(fileID int64) ([]*Reference, error)
	DiagnosticsByFile(fileID int64) ([]*Diagnostic, error)
	UnreachableByFile(fileID int64) ([]*Unreachable, error)
	UnusedLabelsByFile(fileID int64) ([]*UnusedLabel, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
