package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for indexed analysis results.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Tables lists every table Migrate creates, in dependency order.
var Tables = []string{
	"files", "scopes", "symbols", "references_", "diagnostics",
	"unreachable", "unused_labels", "cfgs", "findings", "metadata",
}

// Local ids (scope_id, symbol_id, node_id, ...) are the analyzer's per-file
// ids; rows are keyed by (file_id, local id).
const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  path            TEXT NOT NULL UNIQUE,
  source_type     TEXT NOT NULL,
  hash            TEXT,
  line_count      INTEGER,
  run_id          TEXT,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scopes (
  file_id         INTEGER NOT NULL REFERENCES files(id),
  scope_id        INTEGER NOT NULL,
  parent_id       INTEGER,
  flags           TEXT NOT NULL,
  node_kind       TEXT,
  start_byte      INTEGER,
  end_byte        INTEGER,
  start_line      INTEGER,
  start_col       INTEGER,
  PRIMARY KEY (file_id, scope_id)
);

CREATE TABLE IF NOT EXISTS symbols (
  file_id         INTEGER NOT NULL REFERENCES files(id),
  symbol_id       INTEGER NOT NULL,
  scope_id        INTEGER NOT NULL,
  name            TEXT NOT NULL,
  flags           TEXT NOT NULL,
  exported        BOOLEAN DEFAULT FALSE,
  reads           INTEGER DEFAULT 0,
  writes          INTEGER DEFAULT 0,
  redeclarations  TEXT,
  start_byte      INTEGER,
  end_byte        INTEGER,
  start_line      INTEGER,
  start_col       INTEGER,
  PRIMARY KEY (file_id, symbol_id)
);

CREATE TABLE IF NOT EXISTS references_ (
  file_id         INTEGER NOT NULL REFERENCES files(id),
  reference_id    INTEGER NOT NULL,
  scope_id        INTEGER NOT NULL,
  symbol_id       INTEGER,
  name            TEXT NOT NULL,
  flags           TEXT NOT NULL,
  start_byte      INTEGER,
  end_byte        INTEGER,
  start_line      INTEGER,
  start_col       INTEGER,
  PRIMARY KEY (file_id, reference_id)
);

CREATE TABLE IF NOT EXISTS diagnostics (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  kind            TEXT NOT NULL,
  message         TEXT NOT NULL,
  start_byte      INTEGER,
  end_byte        INTEGER,
  start_line      INTEGER,
  start_col       INTEGER
);

CREATE TABLE IF NOT EXISTS unreachable (
  file_id         INTEGER NOT NULL REFERENCES files(id),
  node_id         INTEGER NOT NULL,
  parent_id       INTEGER,
  node_kind       TEXT NOT NULL,
  start_byte      INTEGER,
  end_byte        INTEGER,
  start_line      INTEGER,
  start_col       INTEGER,
  PRIMARY KEY (file_id, node_id)
);

CREATE TABLE IF NOT EXISTS unused_labels (
  file_id         INTEGER NOT NULL REFERENCES files(id),
  node_id         INTEGER NOT NULL,
  label           TEXT NOT NULL,
  start_byte      INTEGER,
  end_byte        INTEGER,
  start_line      INTEGER,
  start_col       INTEGER,
  PRIMARY KEY (file_id, node_id)
);

CREATE TABLE IF NOT EXISTS cfgs (
  file_id         INTEGER NOT NULL REFERENCES files(id),
  node_id         INTEGER NOT NULL,
  blocks          INTEGER NOT NULL,
  edges           INTEGER NOT NULL,
  graph           BLOB NOT NULL,
  PRIMARY KEY (file_id, node_id)
);

CREATE TABLE IF NOT EXISTS findings (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  rule            TEXT NOT NULL,
  message         TEXT NOT NULL,
  start_byte      INTEGER,
  end_byte        INTEGER,
  start_line      INTEGER,
  start_col       INTEGER
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_source_type ON files(source_type);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_references_name ON references_(name);
CREATE INDEX IF NOT EXISTS idx_references_symbol ON references_(file_id, symbol_id);
CREATE INDEX IF NOT EXISTS idx_diagnostics_file ON diagnostics(file_id);
CREATE INDEX IF NOT EXISTS idx_findings_file ON findings(file_id);
CREATE INDEX IF NOT EXISTS idx_findings_rule ON findings(rule);
`

// DeleteFile transactionally removes a file and every row derived from it.
func (s *Store) DeleteFile(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := deleteFileTx(tx, fileID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetMetadata returns the value stored under key, or "" if unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return v, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// Counts returns the row count of every table.
func (s *Store) Counts() (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
