package semantic

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jward/semantic/internal/config"
	"github.com/jward/semantic/internal/metrics"
	"github.com/jward/semantic/internal/parse"
	"github.com/jward/semantic/internal/pool"
	rulert "github.com/jward/semantic/internal/runtime"
	"github.com/jward/semantic/internal/store"
)

// rulesHashKey is the metadata key holding the hash of the rules that
// produced the stored findings.
const rulesHashKey = "rules_hash"

// Engine indexes JavaScript and TypeScript files into SQLite and runs the
// lint rules against the stored analysis.
type Engine struct {
	store   *store.Store
	runtime *rulert.Runtime
	parsers *pool.Pool[*parse.Parser]
	logger  *slog.Logger
	metrics *metrics.Metrics

	workers  int
	rules    []string // nil means every available rule
	rulesDir string
	rulesFS  fs.FS
	cfg      bool
	excess   float64
	maxSize  int64
	settings config.Config // directory exclusion

	// pending holds files committed since the last Lint. nil means no
	// indexing happened in this session.
	pending map[int64]bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWorkers caps the number of files analyzed at once. Zero means one
// per CPU.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) { e.workers = n }
}

// WithRules restricts Lint to the named rules.
func WithRules(names ...string) EngineOption {
	return func(e *Engine) { e.rules = names }
}

// WithRulesDir loads rules from a directory on disk.
func WithRulesDir(dir string) EngineOption {
	return func(e *Engine) { e.rulesDir = dir }
}

// WithRulesFS loads rules from fsys, typically the embedded rules.FS.
// It takes precedence over WithRulesDir.
func WithRulesFS(fsys fs.FS) EngineOption {
	return func(e *Engine) { e.rulesFS = fsys }
}

// WithEngineLogger sets the engine logger. Defaults to discarding.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records indexing and lint counters in m.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithGraphs controls control-flow graph construction for indexed files.
func WithGraphs(enabled bool) EngineOption {
	return func(e *Engine) { e.cfg = enabled }
}

// WithHeadroom adds fractional headroom to each file's size estimate.
func WithHeadroom(fraction float64) EngineOption {
	return func(e *Engine) { e.excess = fraction }
}

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) EngineOption {
	return func(e *Engine) { e.maxSize = n }
}

// WithConfig applies a loaded settings file. Later options override it.
func WithConfig(c config.Config) EngineOption {
	return func(e *Engine) {
		e.cfg = c.CFG
		e.excess = c.ExcessCapacity
		e.workers = c.Workers
		e.rules = c.Rules
		e.maxSize = c.MaxFileSize
		e.settings = c
		if c.RulesDir != "" {
			e.rulesDir = c.RulesDir
		}
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...EngineOption) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("semantic: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("semantic: migrate: %w", err)
	}

	def := config.Default()
	e := &Engine{
		store:    s,
		logger:   slog.New(slog.DiscardHandler),
		cfg:      def.CFG,
		maxSize:  def.MaxFileSize,
		settings: def,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}

	var rtOpts []rulert.RuntimeOption
	if e.rulesFS != nil {
		rtOpts = append(rtOpts, rulert.WithRuntimeFS(e.rulesFS))
	}
	rtOpts = append(rtOpts, rulert.WithLogger(e.logger))
	e.runtime = rulert.NewRuntime(s, e.rulesDir, rtOpts...)

	e.parsers = pool.New(parse.NewParser, pool.WithMaxIdle[*parse.Parser](e.workers))
	return e, nil
}

// Close releases the parsers and the database.
func (e *Engine) Close() error {
	e.parsers.Drain((*parse.Parser).Close)
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Rules returns the rules Lint runs, sorted.
func (e *Engine) Rules() ([]string, error) {
	available, err := e.runtime.Rules()
	if err != nil {
		return nil, err
	}
	if e.rules == nil {
		return available, nil
	}
	var out []string
	for _, name := range e.rules {
		if !slices.Contains(available, name) {
			return nil, fmt.Errorf("semantic: unknown rule %q", name)
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// rulesHash hashes the sources of the enabled rules.
func (e *Engine) rulesHash(rules []string) (string, error) {
	all, err := e.runtime.Sources()
	if err != nil {
		return "", err
	}
	enabled := make(map[string][]byte, len(rules))
	for _, name := range rules {
		enabled[name] = all[name]
	}
	return store.ScriptsHash(enabled), nil
}

// RulesChanged reports whether the enabled rules differ from the ones that
// produced the stored findings. True on a database that was never linted.
func (e *Engine) RulesChanged() (bool, error) {
	rules, err := e.Rules()
	if err != nil {
		return false, err
	}
	current, err := e.rulesHash(rules)
	if err != nil {
		return false, err
	}
	stored, err := e.store.GetMetadata(rulesHashKey)
	if err != nil {
		return false, err
	}
	return stored != current, nil
}

// lintResult holds the findings of one file.
type lintResult struct {
	file     *store.File
	findings []*store.Finding
	err      error
}

// Lint runs the enabled rules and returns every stored finding ordered by
// path and position. Only files indexed since the previous Lint are
// re-linted unless the rules changed or nothing was indexed in this session.
//
// Errors on individual files are collected; the remaining files are still
// linted.
func (e *Engine) Lint(ctx context.Context) ([]*store.Finding, error) {
	rules, err := e.Rules()
	if err != nil {
		return nil, err
	}
	hash, err := e.rulesHash(rules)
	if err != nil {
		return nil, err
	}
	stored, err := e.store.GetMetadata(rulesHashKey)
	if err != nil {
		return nil, err
	}
	files, err := e.store.Files()
	if err != nil {
		return nil, err
	}
	if stored == hash && e.pending != nil {
		files = slices.DeleteFunc(files, func(f *store.File) bool { return !e.pending[f.ID] })
	}

	results := make([]lintResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			findings, err := e.lintFile(gctx, rules, f)
			results[i] = lintResult{file: f, findings: findings, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var errs []error
	for _, res := range results {
		if res.err != nil {
			e.logger.Warn("lint failed", "path", res.file.Path, "error", res.err)
			errs = append(errs, fmt.Errorf("lint %s: %w", res.file.Path, res.err))
			continue
		}
		if err := e.store.ReplaceFindings(res.file.ID, res.findings); err != nil {
			errs = append(errs, fmt.Errorf("store findings %s: %w", res.file.Path, err))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("linting had %d error(s): %w", len(errs), errs[0])
	}

	if err := e.store.SetMetadata(rulesHashKey, hash); err != nil {
		return nil, err
	}
	e.pending = make(map[int64]bool)
	return e.store.Findings()
}

func (e *Engine) lintFile(ctx context.Context, rules []string, f *store.File) ([]*store.Finding, error) {
	src, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if store.ContentHash(src) != f.Hash {
		return nil, fmt.Errorf("file changed since it was indexed")
	}
	file := &rulert.File{ID: f.ID, Path: f.Path, Source: src}

	var all []*store.Finding
	for _, rule := range rules {
		found, err := e.runtime.RunRule(ctx, rule, file)
		if err != nil {
			return nil, err
		}
		e.metrics.Findings(rule, len(found))
		all = append(all, found...)
	}
	return all, nil
}

// IndexDirectory indexes every supported file under root and drops stored
// files under root that no longer exist. If root is inside a git
// repository, git ls-files is used so .gitignore is respected; otherwise
// the directory is walked, skipping hidden and excluded directories.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("index directory: %w", err)
	}
	paths, err := e.gitListFiles(root)
	if err != nil {
		e.logger.Debug("git ls-files unavailable, walking", "root", root, "error", err)
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	if err := e.prune(root, paths); err != nil {
		return err
	}
	return e.IndexFiles(ctx, paths)
}

// prune deletes stored files under root that are not in paths.
func (e *Engine) prune(root string, paths []string) error {
	files, err := e.store.Files()
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(paths))
	for _, p := range paths {
		keep[p] = true
	}
	prefix := filepath.Clean(root) + string(filepath.Separator)
	for _, f := range files {
		if keep[f.Path] || !strings.HasPrefix(f.Path, prefix) {
			continue
		}
		e.logger.Debug("pruning removed file", "path", f.Path)
		if err := e.store.DeleteFile(f.ID); err != nil {
			return fmt.Errorf("prune %s: %w", f.Path, err)
		}
	}
	return nil
}

// excluded reports whether any directory of rel is in the exclude list.
func (e *Engine) excluded(rel string) bool {
	dirs := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	for _, d := range dirs {
		if e.settings.Excluded(d) {
			return true
		}
	}
	return false
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported source files.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || e.excluded(line) {
			continue
		}
		absPath := filepath.Join(root, line)
		if parse.Supported(absPath) {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a fallback
// when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || e.settings.Excluded(name)) {
				return filepath.SkipDir
			}
			return nil
		}
		if parse.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
