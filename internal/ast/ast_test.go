package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  string
		want Kind
	}{
		{"program", KindProgram},
		{"function", KindFunctionExpression},
		{"function_expression", KindFunctionExpression},
		{"abstract_class_declaration", KindClassDeclaration},
		{"type_identifier", KindTypeIdentifier},
		{"binary_expression", KindOther},
		{"ERROR", KindError},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOfType(tt.typ))
		})
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "program", KindProgram.String())
	assert.Equal(t, "function_expression", KindFunctionExpression.String())
	assert.Equal(t, "class_declaration", KindClassDeclaration.String())
	assert.Equal(t, "other", KindOther.String())
	assert.Equal(t, "invalid", Kind(255).String())
	for k := KindOther; k < kindCount; k++ {
		assert.NotEmpty(t, k.String(), "kind %d has no name", k)
	}
}

func TestKindPredicates(t *testing.T) {
	t.Parallel()
	assert.True(t, KindArrowFunction.IsFunction())
	assert.False(t, KindClassDeclaration.IsFunction())
	assert.True(t, KindClassExpression.IsClass())
	assert.True(t, KindDoStatement.IsLoop())
	assert.False(t, KindSwitchStatement.IsLoop())
	assert.True(t, KindReturnStatement.IsStatement())
	assert.False(t, KindIdentifier.IsStatement())
}

func TestNodeID(t *testing.T) {
	t.Parallel()
	assert.False(t, NoNodeID.IsValid())
	assert.True(t, NodeID(1).IsValid())
}
