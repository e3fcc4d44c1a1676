package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/risor-io/risor/object"

	"github.com/jward/semantic/internal/diag"
	"github.com/jward/semantic/internal/store"
)

// reporter collects the findings a rule reports for one file.
type reporter struct {
	file *File

	mu       sync.Mutex
	findings []*store.Finding
}

func (r *reporter) add(rule string, start, end uint32, msg string) {
	if r.file.lines == nil {
		r.file.lines = diag.NewLineIndex(r.file.Source)
	}
	line, col := r.file.lines.Position(start)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, &store.Finding{
		FileID:  r.file.ID,
		Path:    r.file.Path,
		Rule:    rule,
		Message: msg,
		Position: store.Position{
			StartByte: start,
			EndByte:   end,
			Line:      line,
			Col:       col,
		},
	})
}

// makeReportFn creates the "report" host function.
//
// report(rule, start, end, message)
func makeReportFn(rep *reporter) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 4 {
			return object.NewArgsError("report", 4, len(args))
		}
		rule, err := toString(args[0])
		if err != nil {
			return object.Errorf("report: rule: %v", err)
		}
		start, end, err := toSpan(args[1], args[2], len(rep.file.Source))
		if err != nil {
			return object.Errorf("report: %v", err)
		}
		msg, err := toString(args[3])
		if err != nil {
			return object.Errorf("report: message: %v", err)
		}
		rep.add(rule, start, end, msg)
		return object.Nil
	})
}

// makeTextFn creates the "text" host function.
//
// text(start, end) → string
func makeTextFn(file *File) *object.Builtin {
	return object.NewBuiltin("text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("text", 2, len(args))
		}
		start, end, err := toSpan(args[0], args[1], len(file.Source))
		if err != nil {
			return object.Errorf("text: %v", err)
		}
		return object.NewString(string(file.Source[start:end]))
	})
}

// fileQuery adapts a per-file store query into a zero-argument host
// function returning a list of maps.
func fileQuery[T any](name string, fileID int64, query func(int64) ([]*T, error), toMap func(*T) map[string]object.Object) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError(name, 0, len(args))
		}
		rows, err := query(fileID)
		if err != nil {
			return object.Errorf("%s: %v", name, err)
		}
		results := make([]object.Object, 0, len(rows))
		for _, row := range rows {
			results = append(results, object.NewMap(toMap(row)))
		}
		return object.NewList(results)
	})
}

// scopes() → [{id, parent, flags, kind, start, end, line, col}]
func makeScopesFn(s store.DataStore, fileID int64) *object.Builtin {
	return fileQuery("scopes", fileID, s.ScopesByFile, scopeToMap)
}

// symbols() → [{id, scope, name, flags, exported, reads, writes, redeclarations, ...}]
func makeSymbolsFn(s store.DataStore, fileID int64) *object.Builtin {
	return fileQuery("symbols", fileID, s.SymbolsByFile, symbolToMap)
}

// references() → [{id, scope, symbol, name, flags, ...}]; symbol is nil for globals.
func makeReferencesFn(s store.DataStore, fileID int64) *object.Builtin {
	return fileQuery("references", fileID, s.ReferencesByFile, referenceToMap)
}

// diagnostics() → [{kind, message, ...}]
func makeDiagnosticsFn(s store.DataStore, fileID int64) *object.Builtin {
	return fileQuery("diagnostics", fileID, s.DiagnosticsByFile, diagnosticToMap)
}

// unreachable() → [{node, parent, kind, ...}]
func makeUnreachableFn(s store.DataStore, fileID int64) *object.Builtin {
	return fileQuery("unreachable", fileID, s.UnreachableByFile, unreachableToMap)
}

// unused_labels() → [{node, label, ...}]
func makeUnusedLabelsFn(s store.DataStore, fileID int64) *object.Builtin {
	return fileQuery("unused_labels", fileID, s.UnusedLabelsByFile, unusedLabelToMap)
}

// logObject provides log.debug/info/warn/error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Debug(msg string) { l.logger.Debug(msg) }

func (l *logObject) Info(msg string) { l.logger.Info(msg) }

func (l *logObject) Warn(msg string) { l.logger.Warn(msg) }

func (l *logObject) Error(msg string) { l.logger.Error(msg) }
