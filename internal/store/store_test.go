package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/semantic/internal/cfg"
	"github.com/jward/semantic/internal/diag"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func testFile(path string) *File {
	return &File{
		Path:        path,
		SourceType:  "javascript/module",
		Hash:        "abc123",
		LineCount:   3,
		RunID:       "run-1",
		LastIndexed: time.Now().Truncate(time.Second),
	}
}

// testBatch builds a batch with one row in every table.
func testBatch(t *testing.T, path string) *BatchedStore {
	t.Helper()
	b := NewBatchedStore(testFile(path))
	b.AddScope(Scope{ScopeID: 1, Flags: "top", NodeKind: "program", Position: Position{0, 40, 1, 1}})
	b.AddScope(Scope{ScopeID: 2, ParentID: 1, Flags: "function", NodeKind: "function_declaration", Position: Position{0, 30, 1, 1}})
	b.AddSymbol(Symbol{SymbolID: 1, ScopeID: 1, Name: "f", Flags: "function|var", Reads: 1,
		Redeclarations: []Position{{20, 21, 2, 5}}, Position: Position{9, 10, 1, 10}})
	b.AddReference(Reference{ReferenceID: 1, ScopeID: 1, SymbolID: 1, Name: "f", Flags: "read", Position: Position{32, 33, 3, 1}})
	b.AddReference(Reference{ReferenceID: 2, ScopeID: 2, Name: "console", Flags: "read", Position: Position{14, 21, 1, 15}})
	b.AddDiagnostic(Diagnostic{Kind: diag.KindRedeclaration.String(), Message: "identifier \"f\" has already been declared", Position: Position{20, 21, 2, 5}})
	b.AddUnreachable(Unreachable{NodeID: 9, ParentID: 4, NodeKind: "expression_statement", Position: Position{25, 28, 2, 10}})
	b.AddUnusedLabel(UnusedLabel{NodeID: 12, Label: "outer", Position: Position{34, 40, 3, 3}})

	cb := cfg.NewBuilder(4, nil, 0)
	cb.Return(5)
	cb.Statement(9)
	g := cb.Finish()
	data, err := EncodeCFG(g)
	require.NoError(t, err)
	b.AddCFG(CFG{NodeID: 4, Blocks: g.Len(), Edges: len(g.Edges()), Graph: data})
	return b
}

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range Tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestFile_InsertAndLookup(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	f := testFile("/src/a.js")
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := s.FileByPath("/src/a.js")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "javascript/module", got.SourceType)
	assert.Equal(t, "abc123", got.Hash)
	assert.Equal(t, "run-1", got.RunID)
	assert.True(t, f.LastIndexed.Equal(got.LastIndexed))

	missing, err := s.FileByPath("/nope.js")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCommitBatch_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	batch := testBatch(t, "/src/a.js")
	require.Equal(t, 9, batch.Rows())
	require.NoError(t, s.CommitBatch(batch))
	fileID := batch.File.ID
	require.Positive(t, fileID)

	scopes, err := s.ScopesByFile(fileID)
	require.NoError(t, err)
	require.Len(t, scopes, 2)
	assert.Equal(t, uint32(0), scopes[0].ParentID, "root has no parent")
	assert.Equal(t, uint32(1), scopes[1].ParentID)
	assert.Equal(t, "function_declaration", scopes[1].NodeKind)

	syms, err := s.SymbolsByFile(fileID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "f", syms[0].Name)
	assert.Equal(t, 1, syms[0].Reads)
	assert.Equal(t, []Position{{20, 21, 2, 5}}, syms[0].Redeclarations)
	assert.Equal(t, Position{9, 10, 1, 10}, syms[0].Position)

	refs, err := s.ReferencesByFile(fileID)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, uint32(1), refs[0].SymbolID)
	assert.Equal(t, uint32(0), refs[1].SymbolID, "global stored as NULL")

	globals, err := s.GlobalReferences(fileID)
	require.NoError(t, err)
	require.Len(t, globals, 1)
	assert.Equal(t, "console", globals[0].Name)

	diags, err := s.DiagnosticsByFile(fileID)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "redeclaration", diags[0].Kind)

	dead, err := s.UnreachableByFile(fileID)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, uint32(4), dead[0].ParentID)

	labels, err := s.UnusedLabelsByFile(fileID)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "outer", labels[0].Label)

	cfgs, err := s.CFGsByFile(fileID)
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	g, err := cfgs[0].Decode()
	require.NoError(t, err)
	assert.False(t, g.IsNodeReachable(9))
	assert.True(t, g.IsNodeReachable(5))
	assert.Equal(t, cfgs[0].Blocks, g.Len())
}

func TestCommitBatch_ReplacesPreviousVersion(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	first := testBatch(t, "/src/a.js")
	require.NoError(t, s.CommitBatch(first))
	require.NoError(t, s.ReplaceFindings(first.File.ID, []*Finding{{Rule: "no-undef", Message: "console is not defined"}}))

	second := NewBatchedStore(testFile("/src/a.js"))
	second.File.Hash = "def456"
	second.AddSymbol(Symbol{SymbolID: 1, ScopeID: 1, Name: "g", Flags: "var"})
	require.NoError(t, s.CommitBatch(second))
	assert.Greater(t, second.File.ID, first.File.ID)

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["files"])
	assert.Equal(t, 1, counts["symbols"])
	assert.Equal(t, 0, counts["references_"])
	assert.Equal(t, 0, counts["cfgs"])
	assert.Equal(t, 0, counts["findings"], "findings of the old version are dropped")

	got, err := s.FileByPath("/src/a.js")
	require.NoError(t, err)
	assert.Equal(t, "def456", got.Hash)
}

func TestDeleteFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	a := testBatch(t, "/src/a.js")
	b := testBatch(t, "/src/b.js")
	require.NoError(t, s.CommitBatch(a))
	require.NoError(t, s.CommitBatch(b))

	require.NoError(t, s.DeleteFile(a.File.ID))

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "/src/b.js", files[0].Path)

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 2, counts["scopes"])
	assert.Equal(t, 1, counts["cfgs"])
}

func TestFileIDsNotReused(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	a := testBatch(t, "/src/a.js")
	require.NoError(t, s.CommitBatch(a))
	require.NoError(t, s.DeleteFile(a.File.ID))

	b := testBatch(t, "/src/b.js")
	require.NoError(t, s.CommitBatch(b))
	assert.Greater(t, b.File.ID, a.File.ID, "a deleted file's id is never handed out again")
}

func TestFindings(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	b := testBatch(t, "/src/b.js")
	a := testBatch(t, "/src/a.js")
	require.NoError(t, s.CommitBatch(b))
	require.NoError(t, s.CommitBatch(a))

	require.NoError(t, s.ReplaceFindings(b.File.ID, []*Finding{
		{Rule: "no-undef", Message: "x", Position: Position{StartByte: 5}},
	}))
	aFindings := []*Finding{
		{Rule: "no-unreachable", Message: "y", Position: Position{StartByte: 9}},
		{Rule: "no-undef", Message: "z", Position: Position{StartByte: 1}},
	}
	require.NoError(t, s.ReplaceFindings(a.File.ID, aFindings))
	assert.Positive(t, aFindings[0].ID)
	assert.Equal(t, a.File.ID, aFindings[1].FileID)

	all, err := s.Findings()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"z", "y", "x"}, []string{all[0].Message, all[1].Message, all[2].Message})
	assert.Equal(t, "/src/a.js", all[0].Path)

	require.NoError(t, s.ReplaceFindings(a.File.ID, nil))
	left, err := s.FindingsByFile(a.File.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("rules_hash")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("rules_hash", "one"))
	require.NoError(t, s.SetMetadata("rules_hash", "two"))
	v, err = s.GetMetadata("rules_hash")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

func TestSymbolsByName(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.CommitBatch(testBatch(t, "/src/a.js")))
	require.NoError(t, s.CommitBatch(testBatch(t, "/src/b.js")))

	syms, err := s.SymbolsByName("f")
	require.NoError(t, err)
	assert.Len(t, syms, 2)
}

func TestBatchedStore_ConcurrentAdds(t *testing.T) {
	t.Parallel()
	b := NewBatchedStore(testFile("/src/a.js"))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				b.AddReference(Reference{ReferenceID: uint32(i*100 + j + 1), Name: "x", Flags: "read"})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, b.Rows())
}

func TestScriptsHash(t *testing.T) {
	t.Parallel()
	a := ScriptsHash(map[string][]byte{"x.risor": []byte("1"), "y.risor": []byte("2")})
	b := ScriptsHash(map[string][]byte{"y.risor": []byte("2"), "x.risor": []byte("1")})
	c := ScriptsHash(map[string][]byte{"x.risor": []byte("12"), "y.risor": []byte("")})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, ContentHash([]byte("abc")), 64)
}
