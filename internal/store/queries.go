package store

import (
	"database/sql"
	"errors"
	"fmt"
)

type scanner interface{ Scan(...any) error }

// queryRows runs query and scans every row with scan.
func queryRows[T any](db *sql.DB, scan func(scanner) (*T, error), query string, args ...any) ([]*T, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- File operations ---

const fileCols = "id, path, source_type, hash, line_count, run_id, last_indexed"

func scanFile(sc scanner) (*File, error) {
	f := &File{}
	var runID sql.NullString
	if err := sc.Scan(&f.ID, &f.Path, &f.SourceType, &f.Hash, &f.LineCount, &runID, &f.LastIndexed); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	f.RunID = runID.String
	return f, nil
}

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, source_type, hash, line_count, run_id, last_indexed) VALUES (?, ?, ?, ?, ?, ?)",
		f.Path, f.SourceType, f.Hash, f.LineCount, f.RunID, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// FileByPath returns the file indexed at path, or nil if there is none.
func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	files, err := queryRows(s.db, scanFile, "SELECT "+fileCols+" FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	return files, nil
}

// --- Analysis results ---

func scanScope(sc scanner) (*Scope, error) {
	scope := &Scope{}
	var parent sql.NullInt64
	var kind sql.NullString
	err := sc.Scan(&scope.FileID, &scope.ScopeID, &parent, &scope.Flags, &kind,
		&scope.StartByte, &scope.EndByte, &scope.Line, &scope.Col)
	if err != nil {
		return nil, fmt.Errorf("scan scope: %w", err)
	}
	scope.ParentID = uint32(parent.Int64)
	scope.NodeKind = kind.String
	return scope, nil
}

func (s *Store) ScopesByFile(fileID int64) ([]*Scope, error) {
	return queryRows(s.db, scanScope,
		`SELECT file_id, scope_id, parent_id, flags, node_kind, start_byte, end_byte, start_line, start_col
		 FROM scopes WHERE file_id = ? ORDER BY scope_id`, fileID)
}

func scanSymbol(sc scanner) (*Symbol, error) {
	sym := &Symbol{}
	var redecl sql.NullString
	err := sc.Scan(&sym.FileID, &sym.SymbolID, &sym.ScopeID, &sym.Name, &sym.Flags,
		&sym.Exported, &sym.Reads, &sym.Writes, &redecl,
		&sym.StartByte, &sym.EndByte, &sym.Line, &sym.Col)
	if err != nil {
		return nil, fmt.Errorf("scan symbol: %w", err)
	}
	sym.Redeclarations = unmarshalPositions(redecl.String)
	return sym, nil
}

const symbolCols = `file_id, symbol_id, scope_id, name, flags, exported, reads, writes, redeclarations,
	start_byte, end_byte, start_line, start_col`

func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return queryRows(s.db, scanSymbol, "SELECT "+symbolCols+" FROM symbols WHERE file_id = ? ORDER BY symbol_id", fileID)
}

// SymbolsByName returns symbols called name across every file.
func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return queryRows(s.db, scanSymbol, "SELECT "+symbolCols+" FROM symbols WHERE name = ? ORDER BY file_id, symbol_id", name)
}

func scanReference(sc scanner) (*Reference, error) {
	ref := &Reference{}
	var sym sql.NullInt64
	err := sc.Scan(&ref.FileID, &ref.ReferenceID, &ref.ScopeID, &sym, &ref.Name, &ref.Flags,
		&ref.StartByte, &ref.EndByte, &ref.Line, &ref.Col)
	if err != nil {
		return nil, fmt.Errorf("scan reference: %w", err)
	}
	ref.SymbolID = uint32(sym.Int64)
	return ref, nil
}

const referenceCols = `file_id, reference_id, scope_id, symbol_id, name, flags,
	start_byte, end_byte, start_line, start_col`

func (s *Store) ReferencesByFile(fileID int64) ([]*Reference, error) {
	return queryRows(s.db, scanReference, "SELECT "+referenceCols+" FROM references_ WHERE file_id = ? ORDER BY reference_id", fileID)
}

// GlobalReferences returns the references in a file that resolved to no
// symbol.
func (s *Store) GlobalReferences(fileID int64) ([]*Reference, error) {
	return queryRows(s.db, scanReference,
		"SELECT "+referenceCols+" FROM references_ WHERE file_id = ? AND symbol_id IS NULL ORDER BY reference_id", fileID)
}

func scanDiagnostic(sc scanner) (*Diagnostic, error) {
	d := &Diagnostic{}
	if err := sc.Scan(&d.ID, &d.FileID, &d.Kind, &d.Message, &d.StartByte, &d.EndByte, &d.Line, &d.Col); err != nil {
		return nil, fmt.Errorf("scan diagnostic: %w", err)
	}
	return d, nil
}

func (s *Store) DiagnosticsByFile(fileID int64) ([]*Diagnostic, error) {
	return queryRows(s.db, scanDiagnostic,
		`SELECT id, file_id, kind, message, start_byte, end_byte, start_line, start_col
		 FROM diagnostics WHERE file_id = ? ORDER BY start_byte, id`, fileID)
}

func scanUnreachable(sc scanner) (*Unreachable, error) {
	u := &Unreachable{}
	var parent sql.NullInt64
	if err := sc.Scan(&u.FileID, &u.NodeID, &parent, &u.NodeKind, &u.StartByte, &u.EndByte, &u.Line, &u.Col); err != nil {
		return nil, fmt.Errorf("scan unreachable: %w", err)
	}
	u.ParentID = uint32(parent.Int64)
	return u, nil
}

func (s *Store) UnreachableByFile(fileID int64) ([]*Unreachable, error) {
	return queryRows(s.db, scanUnreachable,
		`SELECT file_id, node_id, parent_id, node_kind, start_byte, end_byte, start_line, start_col
		 FROM unreachable WHERE file_id = ? ORDER BY node_id`, fileID)
}

func scanUnusedLabel(sc scanner) (*UnusedLabel, error) {
	l := &UnusedLabel{}
	if err := sc.Scan(&l.FileID, &l.NodeID, &l.Label, &l.StartByte, &l.EndByte, &l.Line, &l.Col); err != nil {
		return nil, fmt.Errorf("scan unused label: %w", err)
	}
	return l, nil
}

func (s *Store) UnusedLabelsByFile(fileID int64) ([]*UnusedLabel, error) {
	return queryRows(s.db, scanUnusedLabel,
		`SELECT file_id, node_id, label, start_byte, end_byte, start_line, start_col
		 FROM unused_labels WHERE file_id = ? ORDER BY node_id`, fileID)
}

func scanCFG(sc scanner) (*CFG, error) {
	c := &CFG{}
	if err := sc.Scan(&c.FileID, &c.NodeID, &c.Blocks, &c.Edges, &c.Graph); err != nil {
		return nil, fmt.Errorf("scan cfg: %w", err)
	}
	return c, nil
}

// CFGsByFile returns the encoded graphs of a file ordered by body node.
func (s *Store) CFGsByFile(fileID int64) ([]*CFG, error) {
	return queryRows(s.db, scanCFG,
		"SELECT file_id, node_id, blocks, edges, graph FROM cfgs WHERE file_id = ? ORDER BY node_id", fileID)
}

// --- Findings ---

// ReplaceFindings swaps the findings of one file for fs in a single
// transaction. Each finding's FileID and ID are set.
func (s *Store) ReplaceFindings(fileID int64, fs []*Finding) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace findings: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM findings WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("replace findings: delete: %w", err)
	}
	if len(fs) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO findings (file_id, rule, message, start_byte, end_byte, start_line, start_col)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("replace findings: prepare: %w", err)
		}
		defer stmt.Close()
		for _, f := range fs {
			res, err := stmt.Exec(fileID, f.Rule, f.Message, f.StartByte, f.EndByte, f.Line, f.Col)
			if err != nil {
				return fmt.Errorf("replace findings: %s: %w", f.Rule, err)
			}
			if f.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("replace findings: last insert id: %w", err)
			}
			f.FileID = fileID
		}
	}
	return tx.Commit()
}

func scanFinding(sc scanner) (*Finding, error) {
	f := &Finding{}
	if err := sc.Scan(&f.ID, &f.FileID, &f.Path, &f.Rule, &f.Message, &f.StartByte, &f.EndByte, &f.Line, &f.Col); err != nil {
		return nil, fmt.Errorf("scan finding: %w", err)
	}
	return f, nil
}

const findingQuery = `SELECT f.id, f.file_id, files.path, f.rule, f.message, f.start_byte, f.end_byte, f.start_line, f.start_col
	FROM findings f JOIN files ON files.id = f.file_id`

func (s *Store) FindingsByFile(fileID int64) ([]*Finding, error) {
	return queryRows(s.db, scanFinding, findingQuery+" WHERE f.file_id = ? ORDER BY f.start_byte, f.id", fileID)
}

// Findings returns every finding ordered by path and position.
func (s *Store) Findings() ([]*Finding, error) {
	return queryRows(s.db, scanFinding, findingQuery+" ORDER BY files.path, f.start_byte, f.rule, f.id")
}
