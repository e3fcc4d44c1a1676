// Package ast names the tree-sitter JavaScript/TypeScript node kinds the
// semantic builder dispatches on, and the id type shared by every table
// keyed by syntax node.
package ast

import sitter "github.com/smacker/go-tree-sitter"

// NodeID identifies a visited syntax node. Ids are assigned in pre-order
// starting at 1; 0 is the absent sentinel.
type NodeID uint32

// NoNodeID marks the absence of a node.
const NoNodeID NodeID = 0

// IsValid reports whether the id refers to a visited node.
func (id NodeID) IsValid() bool { return id != NoNodeID }

// Kind is the closed set of node kinds the builder cares about. Everything
// else maps to KindOther and is walked generically.
type Kind uint8

const (
	KindOther Kind = iota
	KindToken
	KindError
	KindComment

	KindProgram
	KindFunctionDeclaration
	KindGeneratorFunctionDeclaration
	KindFunctionExpression
	KindGeneratorFunction
	KindArrowFunction
	KindMethodDefinition
	KindFormalParameters
	KindRequiredParameter
	KindOptionalParameter

	KindClassDeclaration
	KindClassExpression
	KindClassBody
	KindFieldDefinition
	KindClassStaticBlock

	KindStatementBlock
	KindLexicalDeclaration
	KindVariableDeclaration
	KindVariableDeclarator

	KindObjectPattern
	KindArrayPattern
	KindAssignmentPattern
	KindObjectAssignmentPattern
	KindRestPattern
	KindPairPattern
	KindShorthandPropertyIdentifierPattern

	KindIdentifier
	KindShorthandPropertyIdentifier
	KindPropertyIdentifier
	KindTypeIdentifier
	KindStatementIdentifier

	KindIfStatement
	KindElseClause
	KindForStatement
	KindForInStatement
	KindWhileStatement
	KindDoStatement
	KindSwitchStatement
	KindSwitchBody
	KindSwitchCase
	KindSwitchDefault
	KindTryStatement
	KindCatchClause
	KindFinallyClause
	KindBreakStatement
	KindContinueStatement
	KindLabeledStatement
	KindReturnStatement
	KindThrowStatement
	KindExpressionStatement
	KindEmptyStatement

	KindAssignmentExpression
	KindAugmentedAssignmentExpression
	KindUpdateExpression
	KindMemberExpression
	KindSubscriptExpression
	KindParenthesizedExpression
	KindPair
	KindString

	KindImportStatement
	KindImportClause
	KindNamedImports
	KindImportSpecifier
	KindNamespaceImport
	KindExportStatement
	KindExportClause
	KindExportSpecifier

	KindJSXOpeningElement
	KindJSXSelfClosingElement
	KindJSXClosingElement

	KindInterfaceDeclaration
	KindTypeAliasDeclaration
	KindEnumDeclaration
	KindInternalModule
	KindModule
	KindTypeParameter
	KindTypeParameters
	KindNestedIdentifier
	KindNestedTypeIdentifier

	kindCount
)

// byType maps tree-sitter node type strings to kinds. Both JavaScript and
// TypeScript grammars share most names.
var byType = map[string]Kind{
	"ERROR":   KindError,
	"comment": KindComment,

	"program":                        KindProgram,
	"function_declaration":           KindFunctionDeclaration,
	"generator_function_declaration": KindGeneratorFunctionDeclaration,
	"function_expression":            KindFunctionExpression,
	"function":                       KindFunctionExpression,
	"generator_function":             KindGeneratorFunction,
	"arrow_function":                 KindArrowFunction,
	"method_definition":              KindMethodDefinition,
	"formal_parameters":              KindFormalParameters,
	"required_parameter":             KindRequiredParameter,
	"optional_parameter":             KindOptionalParameter,

	"class_declaration":          KindClassDeclaration,
	"abstract_class_declaration": KindClassDeclaration,
	"class":                      KindClassExpression,
	"class_body":                 KindClassBody,
	"field_definition":           KindFieldDefinition,
	"public_field_definition":    KindFieldDefinition,
	"class_static_block":         KindClassStaticBlock,

	"statement_block":      KindStatementBlock,
	"lexical_declaration":  KindLexicalDeclaration,
	"variable_declaration": KindVariableDeclaration,
	"variable_declarator":  KindVariableDeclarator,

	"object_pattern":                        KindObjectPattern,
	"array_pattern":                         KindArrayPattern,
	"assignment_pattern":                    KindAssignmentPattern,
	"object_assignment_pattern":             KindObjectAssignmentPattern,
	"rest_pattern":                          KindRestPattern,
	"pair_pattern":                          KindPairPattern,
	"shorthand_property_identifier_pattern": KindShorthandPropertyIdentifierPattern,

	"identifier":                    KindIdentifier,
	"shorthand_property_identifier": KindShorthandPropertyIdentifier,
	"property_identifier":           KindPropertyIdentifier,
	"private_property_identifier":   KindPropertyIdentifier,
	"type_identifier":               KindTypeIdentifier,
	"statement_identifier":          KindStatementIdentifier,

	"if_statement":           KindIfStatement,
	"else_clause":            KindElseClause,
	"for_statement":          KindForStatement,
	"for_in_statement":       KindForInStatement,
	"while_statement":        KindWhileStatement,
	"do_statement":           KindDoStatement,
	"switch_statement":       KindSwitchStatement,
	"switch_body":            KindSwitchBody,
	"switch_case":            KindSwitchCase,
	"switch_default":         KindSwitchDefault,
	"try_statement":          KindTryStatement,
	"catch_clause":           KindCatchClause,
	"finally_clause":         KindFinallyClause,
	"break_statement":        KindBreakStatement,
	"continue_statement":     KindContinueStatement,
	"labeled_statement":      KindLabeledStatement,
	"return_statement":       KindReturnStatement,
	"throw_statement":        KindThrowStatement,
	"expression_statement":   KindExpressionStatement,
	"empty_statement":        KindEmptyStatement,

	"assignment_expression":           KindAssignmentExpression,
	"augmented_assignment_expression": KindAugmentedAssignmentExpression,
	"update_expression":               KindUpdateExpression,
	"member_expression":               KindMemberExpression,
	"subscript_expression":            KindSubscriptExpression,
	"parenthesized_expression":        KindParenthesizedExpression,
	"pair":                            KindPair,
	"string":                          KindString,

	"import_statement": KindImportStatement,
	"import_clause":    KindImportClause,
	"named_imports":    KindNamedImports,
	"import_specifier": KindImportSpecifier,
	"namespace_import": KindNamespaceImport,
	"export_statement": KindExportStatement,
	"export_clause":    KindExportClause,
	"export_specifier": KindExportSpecifier,

	"jsx_opening_element":      KindJSXOpeningElement,
	"jsx_self_closing_element": KindJSXSelfClosingElement,
	"jsx_closing_element":      KindJSXClosingElement,

	"interface_declaration":  KindInterfaceDeclaration,
	"type_alias_declaration": KindTypeAliasDeclaration,
	"enum_declaration":       KindEnumDeclaration,
	"internal_module":        KindInternalModule,
	"module":                 KindModule,
	"type_parameter":         KindTypeParameter,
	"type_parameters":        KindTypeParameters,
	"nested_identifier":      KindNestedIdentifier,
	"nested_type_identifier": KindNestedTypeIdentifier,
}

var kindNames [kindCount]string

func init() {
	kindNames[KindOther] = "other"
	kindNames[KindToken] = "token"
	for name, k := range byType {
		// Aliased types share a kind; the shortest spelling names it.
		cur := kindNames[k]
		if cur == "" || len(name) < len(cur) || len(name) == len(cur) && name < cur {
			kindNames[k] = name
		}
	}
	kindNames[KindFunctionExpression] = "function_expression"
}

// KindOf classifies a tree-sitter node. Anonymous nodes are tokens
// regardless of their type string.
func KindOf(n *sitter.Node) Kind {
	if n == nil {
		return KindOther
	}
	if !n.IsNamed() {
		return KindToken
	}
	return KindOfType(n.Type())
}

// KindOfType classifies a named node type string.
func KindOfType(typ string) Kind {
	if k, ok := byType[typ]; ok {
		return k
	}
	return KindOther
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "invalid"
}

// IsFunction reports whether nodes of this kind introduce a function scope.
func (k Kind) IsFunction() bool {
	switch k {
	case KindFunctionDeclaration, KindGeneratorFunctionDeclaration,
		KindFunctionExpression, KindGeneratorFunction,
		KindArrowFunction, KindMethodDefinition:
		return true
	}
	return false
}

// IsClass reports whether nodes of this kind introduce a class scope.
func (k Kind) IsClass() bool {
	return k == KindClassDeclaration || k == KindClassExpression
}

// IsLoop reports whether nodes of this kind are iteration statements.
func (k Kind) IsLoop() bool {
	switch k {
	case KindForStatement, KindForInStatement, KindWhileStatement, KindDoStatement:
		return true
	}
	return false
}

// IsStatement reports whether nodes of this kind appear in statement
// position and get their own instruction in a control-flow graph.
func (k Kind) IsStatement() bool {
	switch k {
	case KindExpressionStatement, KindEmptyStatement, KindLexicalDeclaration,
		KindVariableDeclaration, KindFunctionDeclaration,
		KindGeneratorFunctionDeclaration, KindClassDeclaration,
		KindIfStatement, KindForStatement, KindForInStatement,
		KindWhileStatement, KindDoStatement, KindSwitchStatement,
		KindTryStatement, KindBreakStatement, KindContinueStatement,
		KindLabeledStatement, KindReturnStatement, KindThrowStatement,
		KindStatementBlock, KindImportStatement, KindExportStatement,
		KindInterfaceDeclaration, KindTypeAliasDeclaration,
		KindEnumDeclaration, KindInternalModule, KindModule:
		return true
	}
	return false
}
