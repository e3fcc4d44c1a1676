package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIPosition is a 1-based line and byte column.
type CLIPosition struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// CLIReport is the analysis of one file.
type CLIReport struct {
	File        string          `json:"file"`
	SourceType  string          `json:"source_type"`
	Scopes      []CLIScope      `json:"scopes"`
	Symbols     []CLISymbol     `json:"symbols"`
	References  []CLIReference  `json:"references"`
	Globals     []string        `json:"globals"`
	Diagnostics []CLIDiagnostic `json:"diagnostics"`
	Unreachable []CLINode       `json:"unreachable"`
}

type CLIScope struct {
	ID     uint32 `json:"id"`
	Parent uint32 `json:"parent,omitempty"`
	Flags  string `json:"flags"`
	Kind   string `json:"kind"`
	CLIPosition
}

type CLISymbol struct {
	ID             uint32        `json:"id"`
	Name           string        `json:"name"`
	Flags          string        `json:"flags"`
	Scope          uint32        `json:"scope"`
	RefCount       int           `json:"ref_count"`
	Redeclarations []CLIPosition `json:"redeclarations,omitempty"`
	CLIPosition
}

// CLIReference is one identifier use. Symbol is 0 for globals.
type CLIReference struct {
	ID     uint32 `json:"id"`
	Name   string `json:"name"`
	Flags  string `json:"flags"`
	Scope  uint32 `json:"scope"`
	Symbol uint32 `json:"symbol,omitempty"`
	CLIPosition
}

type CLIDiagnostic struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	CLIPosition
}

type CLINode struct {
	ID   uint32 `json:"id"`
	Kind string `json:"kind"`
	CLIPosition
}

// CLIFinding is a lint rule violation.
type CLIFinding struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
	File    string `json:"file"`
	CLIPosition
}

// CLIIndexSummary describes one index run.
type CLIIndexSummary struct {
	Root       string         `json:"root"`
	Database   string         `json:"database"`
	Files      map[string]int `json:"files"`
	Rows       map[string]int `json:"rows"`
	DurationMS int64          `json:"duration_ms"`
}
