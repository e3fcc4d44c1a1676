package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/semantic"
	"github.com/jward/semantic/internal/diag"
	"github.com/jward/semantic/internal/parse"
)

var flagNoCFG bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Print the scopes, symbols, references and diagnostics of one file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagNoCFG, "no-cfg", false, "skip control-flow graphs (no unreachable code report)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("analyze", err)
	}
	sem, err := analyzeFile(cmd.Context(), path, !flagNoCFG)
	if err != nil {
		return outputError("analyze", err)
	}
	defer sem.Close()

	report := buildReport(args[0], sem)
	return outputResult(CLIResult{Command: "analyze", Results: report})
}

// analyzeFile parses and analyzes path with the repo's configured limits.
func analyzeFile(ctx context.Context, path string, graphs bool) (*semantic.Semantic, error) {
	c, err := loadConfig(findRepoRoot(filepath.Dir(path)))
	if err != nil {
		return nil, err
	}
	p := parse.NewParser()
	defer p.Close()
	tree, err := p.ParseFile(ctx, path, c.MaxFileSize)
	if err != nil {
		return nil, err
	}
	sem, err := semantic.Analyze(ctx, tree,
		semantic.WithCFG(graphs && c.CFG),
		semantic.WithExcessCapacity(c.ExcessCapacity),
		semantic.WithLogger(newLogger()))
	if err != nil {
		tree.Close()
		return nil, fmt.Errorf("analyzing %s: %w", path, err)
	}
	return sem, nil
}

// buildReport flattens a Semantic into its JSON form.
func buildReport(file string, sem *semantic.Semantic) CLIReport {
	lines := diag.NewLineIndex(sem.Source())
	pos := func(offset uint32) CLIPosition {
		line, col := lines.Position(offset)
		return CLIPosition{Line: line, Col: col}
	}

	scopes, symbols, nodes := sem.Scopes(), sem.Symbols(), sem.Nodes()
	r := CLIReport{
		File:        file,
		SourceType:  sem.SourceType().String(),
		Scopes:      []CLIScope{},
		Symbols:     []CLISymbol{},
		References:  []CLIReference{},
		Globals:     scopes.UnresolvedNames(),
		Diagnostics: []CLIDiagnostic{},
		Unreachable: []CLINode{},
	}
	for id := range scopes.All() {
		n := scopes.NodeID(id)
		r.Scopes = append(r.Scopes, CLIScope{
			ID:          uint32(id),
			Parent:      uint32(scopes.Parent(id)),
			Flags:       scopes.Flags(id).String(),
			Kind:        nodes.Kind(n).String(),
			CLIPosition: pos(nodes.Span(n).Start),
		})
	}
	for sym := range symbols.All() {
		s := CLISymbol{
			ID:          uint32(sym.ID),
			Name:        sym.Name,
			Flags:       sym.Flags.String(),
			Scope:       uint32(sym.Scope),
			RefCount:    len(symbols.ReferenceIDs(sym.ID)),
			CLIPosition: pos(sym.Span.Start),
		}
		for _, span := range sym.Redeclarations {
			s.Redeclarations = append(s.Redeclarations, pos(span.Start))
		}
		r.Symbols = append(r.Symbols, s)
	}
	for ref := range symbols.References() {
		r.References = append(r.References, CLIReference{
			ID:          uint32(ref.ID),
			Name:        ref.Name,
			Flags:       ref.Flags.String(),
			Scope:       uint32(ref.Scope),
			Symbol:      uint32(ref.Symbol),
			CLIPosition: pos(ref.Span.Start),
		})
	}
	for _, d := range sem.Diagnostics() {
		r.Diagnostics = append(r.Diagnostics, CLIDiagnostic{
			Kind:        d.Kind.String(),
			Message:     d.Message,
			CLIPosition: pos(d.Span.Start),
		})
	}
	for _, id := range sem.UnreachableNodes() {
		r.Unreachable = append(r.Unreachable, CLINode{
			ID:          uint32(id),
			Kind:        nodes.Kind(id).String(),
			CLIPosition: pos(nodes.Span(id).Start),
		})
	}
	return r
}
