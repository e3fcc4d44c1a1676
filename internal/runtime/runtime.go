// Package runtime hosts the Risor rule scripts. A rule reads one file's
// analysis results through host functions and reports findings.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/semantic/internal/diag"
	"github.com/jward/semantic/internal/store"
)

// Runtime embeds a Risor VM and exposes analysis results to rule scripts.
type Runtime struct {
	store    store.DataStore
	rulesDir string
	fsys     fs.FS
	logger   *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger routes the scripts' log object to l.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime reading from s and loading rules from
// rulesDir (or the fs.FS given by WithRuntimeFS).
func NewRuntime(s store.DataStore, rulesDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		store:    s,
		rulesDir: rulesDir,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// File is the file a rule runs against.
type File struct {
	ID     int64
	Path   string
	Source []byte

	lines *diag.LineIndex
}

// RunRule runs the named rule against file and returns what it reported,
// ordered by position.
func (r *Runtime) RunRule(ctx context.Context, rule string, file *File) ([]*store.Finding, error) {
	src, err := r.LoadScript(RulePath(rule))
	if err != nil {
		return nil, err
	}
	rep := &reporter{file: file}
	if err := r.eval(ctx, src, rule, r.fileGlobals(rule, file, rep)); err != nil {
		return nil, err
	}
	sort.SliceStable(rep.findings, func(i, j int) bool {
		return rep.findings[i].StartByte < rep.findings[j].StartByte
	})
	return rep.findings, nil
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals. Useful for testing without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	globals := r.baseGlobals("inline")
	for k, v := range extraGlobals {
		globals[k] = v
	}
	return r.eval(ctx, source, "<inline>", globals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, globals map[string]any) error {
	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve shared rule code.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor rulesDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.rulesDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.rulesDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on that filesystem.
// Otherwise, uses os.ReadFile with rulesDir as the base directory.
func (r *Runtime) LoadScript(p string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(p), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := p
	if !filepath.IsAbs(p) {
		fullPath = filepath.Join(r.rulesDir, p)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// Rules lists the rule names available to the Runtime, sorted. A rule is
// any top-level .risor file; subdirectories hold shared imports.
func (r *Runtime) Rules() ([]string, error) {
	var entries []fs.DirEntry
	var err error
	if r.fsys != nil {
		entries, err = fs.ReadDir(r.fsys, ".")
	} else {
		entries, err = os.ReadDir(r.rulesDir)
	}
	if err != nil {
		return nil, fmt.Errorf("runtime: list rules: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".risor" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".risor"))
	}
	sort.Strings(names)
	return names, nil
}

// Sources returns the contents of every rule, keyed by rule name.
func (r *Runtime) Sources() (map[string][]byte, error) {
	names, err := r.Rules()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(names))
	for _, name := range names {
		src, err := r.LoadScript(RulePath(name))
		if err != nil {
			return nil, err
		}
		out[name] = []byte(src)
	}
	return out, nil
}

// RulePath returns the script path of a rule.
func RulePath(rule string) string {
	return rule + ".risor"
}

// baseGlobals are available to every script.
func (r *Runtime) baseGlobals(script string) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{logger: r.logger.With("script", script)}),
	}
	if s, ok := r.store.(*store.Store); ok {
		globals["db_query"] = makeDBQueryFn(s)
	}
	return globals
}

// fileGlobals binds the host functions to one file.
func (r *Runtime) fileGlobals(rule string, file *File, rep *reporter) map[string]any {
	globals := r.baseGlobals(rule)
	globals["file_id"] = file.ID
	globals["file_path"] = file.Path
	globals["text"] = makeTextFn(file)
	globals["report"] = makeReportFn(rep)
	if r.store != nil {
		globals["scopes"] = makeScopesFn(r.store, file.ID)
		globals["symbols"] = makeSymbolsFn(r.store, file.ID)
		globals["references"] = makeReferencesFn(r.store, file.ID)
		globals["diagnostics"] = makeDiagnosticsFn(r.store, file.ID)
		globals["unreachable"] = makeUnreachableFn(r.store, file.ID)
		globals["unused_labels"] = makeUnusedLabelsFn(r.store, file.ID)
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
