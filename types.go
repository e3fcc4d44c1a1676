package semantic

import (
	"github.com/jward/semantic/internal/ast"
	"github.com/jward/semantic/internal/cfg"
	"github.com/jward/semantic/internal/diag"
	"github.com/jward/semantic/internal/parse"
)

// Public aliases for the internal types that appear in the Semantic API.
// They are identical to the internal types; no conversion is needed.

type NodeID = ast.NodeID
type Kind = ast.Kind
type Span = diag.Span
type Diagnostic = diag.Diagnostic
type DiagnosticKind = diag.Kind
type Sink = diag.Sink
type Graph = cfg.Graph
type BlockID = cfg.BlockID
type SourceType = parse.SourceType
type Tree = parse.Tree

// NoNodeID marks the absence of a node.
const NoNodeID = ast.NoNodeID
