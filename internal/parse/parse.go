// Package parse wraps the tree-sitter JavaScript and TypeScript grammars:
// it decides how a file is interpreted and produces the syntax tree the
// semantic builder walks.
package parse

import (
	"context"
	"errors"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	// ErrUnsupportedLanguage is returned for files with no JS/TS extension.
	ErrUnsupportedLanguage = errors.New("parse: unsupported file type")
	// ErrFileTooLarge is returned when a file exceeds the configured limit.
	ErrFileTooLarge = errors.New("parse: file too large")
)

// DefaultMaxFileSize bounds the files ParseFile accepts.
const DefaultMaxFileSize = 4 << 20

// Tree is a parsed source file.
type Tree struct {
	Tree   *sitter.Tree
	Source []byte
	Type   SourceType
	Path   string
}

// Root returns the program node.
func (t *Tree) Root() *sitter.Node {
	return t.Tree.RootNode()
}

// HasErrors reports whether tree-sitter produced error or missing nodes.
func (t *Tree) HasErrors() bool {
	return t.Root().HasError()
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t != nil && t.Tree != nil {
		t.Tree.Close()
		t.Tree = nil
	}
}

// Parser is a reusable tree-sitter parser. It is not safe for concurrent use.
type Parser struct {
	ts *sitter.Parser
}

// NewParser allocates a parser.
func NewParser() *Parser {
	return &Parser{ts: sitter.NewParser()}
}

// Close frees the parser.
func (p *Parser) Close() {
	if p.ts != nil {
		p.ts.Close()
		p.ts = nil
	}
}

// Parse parses src as st. path is informational and may be empty.
func (p *Parser) Parse(ctx context.Context, src []byte, st SourceType, path string) (*Tree, error) {
	p.ts.SetLanguage(LanguageFor(st))
	tree, err := p.ts.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: tree-sitter: %w", err)
	}
	t := &Tree{Tree: tree, Source: src, Type: st, Path: path}
	if path != "" && needsModuleDetection(path) {
		t.Type.Module = HasModuleSyntax(t.Root())
	}
	return t, nil
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(ctx context.Context, path string, maxSize int64) (*Tree, error) {
	st, ok := SourceTypeForPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("parse: stat: %w", err)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, info.Size())
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse: read: %w", err)
	}
	return p.Parse(ctx, src, st, path)
}

// Parse parses src with a throwaway parser.
func Parse(ctx context.Context, src []byte, st SourceType) (*Tree, error) {
	p := NewParser()
	defer p.Close()
	return p.Parse(ctx, src, st, "")
}

// HasModuleSyntax reports whether a program has a top-level import or
// export statement.
func HasModuleSyntax(root *sitter.Node) bool {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		switch root.NamedChild(i).Type() {
		case "import_statement", "export_statement":
			return true
		}
	}
	return false
}
