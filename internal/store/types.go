package store

import "time"

// Position locates a row in its source file. Lines and columns are 1-based;
// columns count bytes.
type Position struct {
	StartByte uint32
	EndByte   uint32
	Line      int
	Col       int
}

type File struct {
	ID          int64
	Path        string
	SourceType  string
	Hash        string
	LineCount   int
	RunID       string
	LastIndexed time.Time
}

type Scope struct {
	FileID   int64
	ScopeID  uint32
	ParentID uint32 // 0 for the root
	Flags    string
	NodeKind string
	Position
}

type Symbol struct {
	FileID         int64
	SymbolID       uint32
	ScopeID        uint32
	Name           string
	Flags          string
	Exported       bool
	Reads          int
	Writes         int
	Redeclarations []Position
	Position
}

type Reference struct {
	FileID      int64
	ReferenceID uint32
	ScopeID     uint32
	SymbolID    uint32 // 0 when the reference is global
	Name        string
	Flags       string
	Position
}

type Diagnostic struct {
	ID      int64
	FileID  int64
	Kind    string
	Message string
	Position
}

// Unreachable is a node the control-flow graph of its body cannot reach.
type Unreachable struct {
	FileID   int64
	NodeID   uint32
	ParentID uint32
	NodeKind string
	Position
}

type UnusedLabel struct {
	FileID int64
	NodeID uint32
	Label  string
	Position
}

// CFG is an encoded control-flow graph for one body.
type CFG struct {
	FileID int64
	NodeID uint32
	Blocks int
	Edges  int
	Graph  []byte
}

// Finding is a rule violation reported by a lint script.
type Finding struct {
	ID      int64
	FileID  int64
	Path    string // filled by queries that join files
	Rule    string
	Message string
	Position
}
