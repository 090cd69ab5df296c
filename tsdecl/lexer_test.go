package tsdecl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/notion-schema/errors"
)

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, 0, len(tokens))
	for _, t := range tokens {
		types = append(types, t.Type)
	}
	return types
}

func TestLexer_TypeAlias(t *testing.T) {
	tokens, err := NewLexer(`export type A<T> = { x?: T[] } | "s" | 1;`).Tokenize()
	require.NoError(t, err)

	assert.Equal(t, []TokenType{
		TokenIdent, TokenIdent, TokenIdent, TokenLAngle, TokenIdent, TokenRAngle, TokenEq,
		TokenLBrace, TokenIdent, TokenQuestion, TokenColon, TokenIdent, TokenLBrack, TokenRBrack, TokenRBrace,
		TokenPipe, TokenString, TokenPipe, TokenNumber, TokenSemi, TokenEOF,
	}, tokenTypes(tokens))

	assert.Equal(t, "export", tokens[0].Literal)
	assert.Equal(t, Span{0, 6}, Span{tokens[0].Pos, tokens[0].End})
	assert.Equal(t, `"s"`, tokens[16].Literal)
}

func TestLexer_CommentsAndNewlines(t *testing.T) {
	src := "a // line\n/* block\n */ b /* same line */ c\n\nd"
	tokens, err := NewLexer(src).Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 5)

	assert.False(t, tokens[0].NewlineBefore)
	assert.True(t, tokens[1].NewlineBefore, "b follows a line comment")
	assert.False(t, tokens[2].NewlineBefore, "c is on the same line as b")
	assert.True(t, tokens[3].NewlineBefore)

	assert.Equal(t, 3, tokens[1].Line)
	assert.Equal(t, 5, tokens[3].Line)
	assert.Equal(t, 1, tokens[3].Col)
}

func TestLexer_OperatorsStaySingle(t *testing.T) {
	tokens, err := NewLexer("A<B<C>>=>...").Tokenize()
	require.NoError(t, err)

	assert.Equal(t, []TokenType{
		TokenIdent, TokenLAngle, TokenIdent, TokenLAngle, TokenIdent,
		TokenRAngle, TokenRAngle, TokenArrow, TokenEllipsis, TokenEOF,
	}, tokenTypes(tokens))
}

func TestLexer_StringsAndTemplates(t *testing.T) {
	tokens, err := NewLexer("'it\\'s' \"q\\\"\" `a${`b${c}`}d` 0x1F 1.5e3 10n").Tokenize()
	require.NoError(t, err)

	assert.Equal(t, []TokenType{
		TokenString, TokenString, TokenTemplate, TokenNumber, TokenNumber, TokenNumber, TokenEOF,
	}, tokenTypes(tokens))
	assert.Equal(t, "`a${`b${c}`}d`", tokens[2].Literal)
	assert.Equal(t, "1.5e3", tokens[4].Literal)
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
		line    int
		col     int
	}{
		{"unterminated string", "type A = \"abc\ntype B = 1", "unterminated string literal", 1, 10},
		{"unterminated comment", "a\n  /* never closed", "unterminated comment", 2, 3},
		{"unterminated template", "type A = `x${", "unterminated template literal", 1, 10},
		{"unexpected character", "type A = \\u;", "unexpected character '\\\\'", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.src).Tokenize()
			require.Error(t, err)
			assert.True(t, errors.IsLoadError(err))

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.message, loadErr.Message)
			assert.Equal(t, tt.line, loadErr.Line)
			assert.Equal(t, tt.col, loadErr.Col)
		})
	}
}
