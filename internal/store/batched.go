package store

import "sync"

// BatchedStore buffers the rows of one analyzed file in memory so workers
// never touch SQLite; CommitBatch writes them in a single transaction.
//
// Thread safety: the mutex protects slice appends, so one batch may be
// filled from several goroutines.
type BatchedStore struct {
	File *File

	mu           sync.Mutex
	Scopes       []Scope
	Symbols      []Symbol
	References   []Reference
	Diagnostics  []Diagnostic
	Unreachable  []Unreachable
	UnusedLabels []UnusedLabel
	CFGs         []CFG
}

// NewBatchedStore creates a batch for f. f.ID is assigned on commit.
func NewBatchedStore(f *File) *BatchedStore {
	return &BatchedStore{File: f}
}

func (b *BatchedStore) AddScope(s Scope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Scopes = append(b.Scopes, s)
}

func (b *BatchedStore) AddSymbol(s Symbol) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Symbols = append(b.Symbols, s)
}

func (b *BatchedStore) AddReference(r Reference) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.References = append(b.References, r)
}

func (b *BatchedStore) AddDiagnostic(d Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Diagnostics = append(b.Diagnostics, d)
}

func (b *BatchedStore) AddUnreachable(u Unreachable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Unreachable = append(b.Unreachable, u)
}

func (b *BatchedStore) AddUnusedLabel(l UnusedLabel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.UnusedLabels = append(b.UnusedLabels, l)
}

func (b *BatchedStore) AddCFG(c CFG) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CFGs = append(b.CFGs, c)
}

// Rows returns the number of buffered rows, the file record excluded.
func (b *BatchedStore) Rows() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Scopes) + len(b.Symbols) + len(b.References) + len(b.Diagnostics) +
		len(b.Unreachable) + len(b.UnusedLabels) + len(b.CFGs)
}
