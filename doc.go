// Package semantic provides scope, symbol, reference and control-flow
// analysis for JavaScript and TypeScript built on tree-sitter. It turns a
// concrete syntax tree into the tables lint rules, minifiers and
// transformers query.
//
// # Analysis
//
// [Analyze] walks a parsed file once. In that single traversal it
//
//  1. estimates table sizes so no table grows during the walk,
//  2. builds the [ScopeTree] and binds every declaration as a [Symbol],
//  3. records every identifier use as a [Reference] and resolves it to the
//     nearest visible declaration, or classifies it as global,
//  4. builds a control-flow [Graph] for the program and each function body.
//
// Structural problems (redeclarations, invalid labels, strict-mode binding
// violations, syntax errors) are reported as diagnostics and never stop
// the analysis.
//
//	s, err := semantic.AnalyzeSource(ctx, src, parse.SourceType{Module: true})
//	if err != nil { ... }
//	defer s.Close()
//
//	for ref := range s.Symbols().References() {
//		if ref.IsGlobal() {
//			fmt.Println("global:", ref.Name)
//		}
//	}
//
// # Engine
//
// [Engine] analyzes many files in parallel and stores the results in
// SQLite. Unchanged files are skipped by content hash.
//
//	e, err := semantic.New("semantic.db", semantic.WithRulesFS(rules.FS))
//	if err != nil { ... }
//	defer e.Close()
//
//	err = e.IndexDirectory(ctx, "path/to/project")
//	findings, err := e.Lint(ctx)
//
// # Rules
//
// Lint rules are Risor scripts. Each one reads a file's scopes, symbols,
// references, unreachable statements and unused labels from the store and
// reports findings. See the internal/runtime package for the globals
// exposed to rules and the rules package for the built-in set.
package semantic
