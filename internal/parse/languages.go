package parse

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// SourceType describes how a file is interpreted.
type SourceType struct {
	// Module is true for ES modules: strict by default, top-level
	// import/export allowed.
	Module     bool
	TypeScript bool
	JSX        bool
}

// Script is plain sloppy-mode JavaScript.
var Script = SourceType{}

// Grammar names the tree-sitter grammar used for the source type.
func (st SourceType) Grammar() string {
	switch {
	case st.TypeScript && st.JSX:
		return "tsx"
	case st.TypeScript:
		return "typescript"
	default:
		return "javascript"
	}
}

func (st SourceType) String() string {
	s := st.Grammar()
	if st.Module {
		s += "/module"
	} else {
		s += "/script"
	}
	return s
}

// moduleHint records whether an extension forces a module decision.
type moduleHint uint8

const (
	detectModule moduleHint = iota
	forceModule
	forceScript
)

type extInfo struct {
	st   SourceType
	hint moduleHint
}

// extToSourceType maps file extensions to their source type.
var extToSourceType = map[string]extInfo{
	".js":  {SourceType{JSX: true}, detectModule},
	".jsx": {SourceType{JSX: true}, detectModule},
	".mjs": {SourceType{Module: true, JSX: true}, forceModule},
	".cjs": {SourceType{JSX: true}, forceScript},
	".ts":  {SourceType{Module: true, TypeScript: true}, forceModule},
	".mts": {SourceType{Module: true, TypeScript: true}, forceModule},
	".cts": {SourceType{TypeScript: true}, forceScript},
	".tsx": {SourceType{Module: true, TypeScript: true, JSX: true}, forceModule},
}

var (
	grammars     map[string]*sitter.Language
	grammarsOnce sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		grammars = map[string]*sitter.Language{
			"javascript": javascript.GetLanguage(),
			"typescript": ts.GetLanguage(),
			"tsx":        tsx.GetLanguage(),
		}
	})
}

// SourceTypeForPath returns the source type implied by a file extension.
// Returns (Script, false) for unsupported extensions. For .js and .jsx the
// module flag is provisional; Parse settles it from the file's top-level
// statements.
func SourceTypeForPath(path string) (SourceType, bool) {
	info, ok := extToSourceType[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Script, false
	}
	return info.st, true
}

// Supported reports whether path has an analyzable extension.
func Supported(path string) bool {
	_, ok := SourceTypeForPath(path)
	return ok
}

func needsModuleDetection(path string) bool {
	info, ok := extToSourceType[strings.ToLower(filepath.Ext(path))]
	return ok && info.hint == detectModule
}

// LanguageFor returns the tree-sitter grammar for a source type.
func LanguageFor(st SourceType) *sitter.Language {
	initGrammars()
	return grammars[st.Grammar()]
}
