package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/semantic/internal/store"
)

var lintCmd = &cobra.Command{
	Use:   "lint [dir]",
	Short: "Index a directory and run the lint rules over it",
	Long:  "Indexes dir like 'semantic index', then runs the enabled rules over files whose analysis changed (every file when the rules changed). Exits with status 1 when any finding is reported.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLint,
}

func runLint(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("lint", err)
	}
	s, err := openSession(targetDir)
	if err != nil {
		return outputError("lint", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.engine.IndexDirectory(ctx, targetDir); err != nil {
		return outputError("lint", fmt.Errorf("indexing: %w", err))
	}
	found, err := s.engine.Lint(ctx)
	if err != nil {
		return outputError("lint", fmt.Errorf("linting: %w", err))
	}

	findings := findingsToCLI(targetDir, found)
	if err := outputResult(CLIResult{Command: "lint", Results: findings}); err != nil {
		return err
	}
	if len(findings) > 0 {
		return errFindings
	}
	return nil
}

// findingsToCLI converts stored findings, printing paths relative to root
// where possible.
func findingsToCLI(root string, fs []*store.Finding) []CLIFinding {
	out := make([]CLIFinding, 0, len(fs))
	for _, f := range fs {
		path := f.Path
		if rel, err := filepath.Rel(root, f.Path); err == nil && filepath.IsLocal(rel) {
			path = rel
		}
		out = append(out, CLIFinding{
			Rule:        f.Rule,
			Message:     f.Message,
			File:        path,
			CLIPosition: CLIPosition{Line: f.Line, Col: f.Col},
		})
	}
	return out
}
