package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jward/semantic"
	"github.com/jward/semantic/internal/metrics"
	"github.com/jward/semantic/rules"
)

var (
	flagForce    bool
	flagWorkers  int
	flagRulesDir string
)

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Index a directory of JavaScript and TypeScript files",
	Long:  "Parses and analyzes every supported file under dir and writes scopes, symbols, references, diagnostics and control-flow graphs to the SQLite database. Files whose content hash is unchanged are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
	for _, c := range []*cobra.Command{indexCmd, lintCmd} {
		c.Flags().IntVar(&flagWorkers, "workers", 0, "files analyzed at once (default: config, then one per CPU)")
		c.Flags().StringVar(&flagRulesDir, "rules-dir", "", "load rules from disk path instead of embedded")
	}
}

// session is an engine opened for one command.
type session struct {
	engine   *semantic.Engine
	registry *prometheus.Registry
	root     string
	dbPath   string
}

func (s *session) Close() error { return s.engine.Close() }

// openSession loads the project config for targetDir and opens the engine
// on the repo database.
func openSession(targetDir string) (*session, error) {
	repoRoot := findRepoRoot(targetDir)
	c, err := loadConfig(repoRoot)
	if err != nil {
		return nil, err
	}
	dbPath := resolveDBPath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	reg := prometheus.NewRegistry()
	opts := []semantic.EngineOption{
		semantic.WithConfig(c),
		semantic.WithEngineLogger(newLogger()),
		semantic.WithMetrics(metrics.New(reg)),
	}
	if flagWorkers > 0 {
		opts = append(opts, semantic.WithWorkers(flagWorkers))
	}
	switch {
	case flagRulesDir != "":
		opts = append(opts, semantic.WithRulesDir(flagRulesDir))
	case c.RulesDir == "":
		opts = append(opts, semantic.WithRulesFS(rules.FS))
	}

	e, err := semantic.New(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return &session{engine: e, registry: reg, root: targetDir, dbPath: dbPath}, nil
}

// summary reads the run's counters back out of the registry.
func (s *session) summary(elapsed time.Duration) (CLIIndexSummary, error) {
	files, err := metrics.Totals(s.registry, "semantic_files_total", "outcome")
	if err != nil {
		return CLIIndexSummary{}, err
	}
	rows, err := metrics.Totals(s.registry, "semantic_rows_total", "table")
	if err != nil {
		return CLIIndexSummary{}, err
	}
	return CLIIndexSummary{
		Root:       s.root,
		Database:   s.dbPath,
		Files:      toCounts(files),
		Rows:       toCounts(rows),
		DurationMS: elapsed.Milliseconds(),
	}, nil
}

func toCounts(m map[string]float64) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = int(v)
	}
	return out
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("index", err)
	}
	s, err := openSession(targetDir)
	if err != nil {
		return outputError("index", err)
	}
	defer s.Close()

	if err := s.engine.IndexDirectory(cmd.Context(), targetDir); err != nil {
		return outputError("index", fmt.Errorf("indexing: %w", err))
	}
	sum, err := s.summary(time.Since(start))
	if err != nil {
		return outputError("index", err)
	}
	return outputResult(CLIResult{Command: "index", Results: sum})
}
