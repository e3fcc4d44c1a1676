package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// CommitBatch writes a file and all of its buffered rows in a single
// transaction. Any earlier record for the same path, and every row derived
// from it, is replaced.
//
// Insert order respects FK dependencies: the file record first, then
// scopes, symbols, references and the remaining per-file tables.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	f := batch.File
	if err := deleteByPathTx(tx, f.Path); err != nil {
		return fmt.Errorf("commit batch: replace %s: %w", f.Path, err)
	}
	res, err := tx.Exec(
		"INSERT INTO files (path, source_type, hash, line_count, run_id, last_indexed) VALUES (?, ?, ?, ?, ?, ?)",
		f.Path, f.SourceType, f.Hash, f.LineCount, f.RunID, f.LastIndexed,
	)
	if err != nil {
		return fmt.Errorf("commit batch: file %s: %w", f.Path, err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("commit batch: last insert id: %w", err)
	}

	batch.mu.Lock()
	defer batch.mu.Unlock()

	inserts := []struct {
		what  string
		query string
		n     int
		args  func(i int) []any
	}{
		{"scope", `INSERT INTO scopes (file_id, scope_id, parent_id, flags, node_kind, start_byte, end_byte, start_line, start_col)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(batch.Scopes), func(i int) []any {
			r := &batch.Scopes[i]
			return []any{fileID, r.ScopeID, nullID(r.ParentID), r.Flags, r.NodeKind, r.StartByte, r.EndByte, r.Line, r.Col}
		}},
		{"symbol", `INSERT INTO symbols (file_id, symbol_id, scope_id, name, flags, exported, reads, writes, redeclarations,
			start_byte, end_byte, start_line, start_col) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(batch.Symbols), func(i int) []any {
			r := &batch.Symbols[i]
			return []any{fileID, r.SymbolID, r.ScopeID, r.Name, r.Flags, r.Exported, r.Reads, r.Writes,
				marshalPositions(r.Redeclarations), r.StartByte, r.EndByte, r.Line, r.Col}
		}},
		{"reference", `INSERT INTO references_ (file_id, reference_id, scope_id, symbol_id, name, flags,
			start_byte, end_byte, start_line, start_col) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(batch.References), func(i int) []any {
			r := &batch.References[i]
			return []any{fileID, r.ReferenceID, r.ScopeID, nullID(r.SymbolID), r.Name, r.Flags, r.StartByte, r.EndByte, r.Line, r.Col}
		}},
		{"diagnostic", `INSERT INTO diagnostics (file_id, kind, message, start_byte, end_byte, start_line, start_col)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, len(batch.Diagnostics), func(i int) []any {
			r := &batch.Diagnostics[i]
			return []any{fileID, r.Kind, r.Message, r.StartByte, r.EndByte, r.Line, r.Col}
		}},
		{"unreachable", `INSERT INTO unreachable (file_id, node_id, parent_id, node_kind, start_byte, end_byte, start_line, start_col)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, len(batch.Unreachable), func(i int) []any {
			r := &batch.Unreachable[i]
			return []any{fileID, r.NodeID, nullID(r.ParentID), r.NodeKind, r.StartByte, r.EndByte, r.Line, r.Col}
		}},
		{"unused label", `INSERT INTO unused_labels (file_id, node_id, label, start_byte, end_byte, start_line, start_col)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, len(batch.UnusedLabels), func(i int) []any {
			r := &batch.UnusedLabels[i]
			return []any{fileID, r.NodeID, r.Label, r.StartByte, r.EndByte, r.Line, r.Col}
		}},
		{"cfg", `INSERT INTO cfgs (file_id, node_id, blocks, edges, graph) VALUES (?, ?, ?, ?, ?)`, len(batch.CFGs), func(i int) []any {
			r := &batch.CFGs[i]
			return []any{fileID, r.NodeID, r.Blocks, r.Edges, r.Graph}
		}},
	}
	for _, ins := range inserts {
		if ins.n == 0 {
			continue
		}
		if err := execEach(tx, ins.query, ins.n, ins.args); err != nil {
			return fmt.Errorf("commit batch: %s: %w", ins.what, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	f.ID = fileID
	return nil
}

// execEach runs a prepared insert once per row.
func execEach(tx *sql.Tx, query string, n int, args func(i int) []any) error {
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range n {
		if _, err := stmt.Exec(args(i)...); err != nil {
			return err
		}
	}
	return nil
}

// deleteByPathTx removes the file at path and its rows, if present.
func deleteByPathTx(tx *sql.Tx, path string) error {
	var id int64
	err := tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return deleteFileTx(tx, id)
}

// deleteFileTx removes a file record after every row that references it.
func deleteFileTx(tx *sql.Tx, fileID int64) error {
	for i := len(Tables) - 1; i >= 0; i-- {
		var err error
		switch table := Tables[i]; table {
		case "metadata":
		case "files":
			_, err = tx.Exec("DELETE FROM files WHERE id = ?", fileID)
		default:
			_, err = tx.Exec("DELETE FROM "+table+" WHERE file_id = ?", fileID)
		}
		if err != nil {
			return fmt.Errorf("delete %s: %w", Tables[i], err)
		}
	}
	return nil
}
