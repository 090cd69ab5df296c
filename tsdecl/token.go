// Package tsdecl loads a TypeScript declaration library (a .d.ts file) into a
// Library: every top-level type alias and interface classified by the shape
// of its definition, with byte spans into the original source so callers can
// rewrite declarations without disturbing the text around them.
//
// Only the type grammar is parsed. Other statements (imports, declare const,
// functions, namespaces, classes) are tokenized, balanced and kept verbatim.
package tsdecl

// TokenType identifies the kind of lexical token.
type TokenType int

const (
	TokenEOF      TokenType = iota
	TokenIdent              // identifier or keyword
	TokenString             // "..." or '...'
	TokenNumber             // 1, 1.5, 0xff, 10n
	TokenTemplate           // `...${...}...`

	TokenLBrace   // {
	TokenRBrace   // }
	TokenLParen   // (
	TokenRParen   // )
	TokenLBrack   // [
	TokenRBrack   // ]
	TokenLAngle   // <
	TokenRAngle   // >
	TokenComma    // ,
	TokenSemi     // ;
	TokenColon    // :
	TokenQuestion // ?
	TokenDot      // .
	TokenEllipsis // ...
	TokenEq       // =
	TokenArrow    // =>
	TokenPipe     // |
	TokenAmp      // &
	TokenMinus    // -
	TokenPlus     // +
	TokenOther    // any other operator character
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "end of file",
	TokenIdent:    "identifier",
	TokenString:   "string",
	TokenNumber:   "number",
	TokenTemplate: "template literal",
	TokenLBrace:   "'{'",
	TokenRBrace:   "'}'",
	TokenLParen:   "'('",
	TokenRParen:   "')'",
	TokenLBrack:   "'['",
	TokenRBrack:   "']'",
	TokenLAngle:   "'<'",
	TokenRAngle:   "'>'",
	TokenComma:    "','",
	TokenSemi:     "';'",
	TokenColon:    "':'",
	TokenQuestion: "'?'",
	TokenDot:      "'.'",
	TokenEllipsis: "'...'",
	TokenEq:       "'='",
	TokenArrow:    "'=>'",
	TokenPipe:     "'|'",
	TokenAmp:      "'&'",
	TokenMinus:    "'-'",
	TokenPlus:     "'+'",
	TokenOther:    "operator",
}

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical token.
type Token struct {
	Type    TokenType
	Literal string // raw source text
	Pos     int    // byte offset of the first byte
	End     int    // byte offset just past the last byte
	Line    int    // 1-based
	Col     int    // 1-based, in runes

	// NewlineBefore is set when a line break (possibly inside a comment)
	// separates this token from the previous one.
	NewlineBefore bool
}

// Is reports whether the token is the identifier or keyword word.
func (t Token) Is(word string) bool {
	return t.Type == TokenIdent && t.Literal == word
}

// Span is a half-open byte range [Start, End) into the library source.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// IsZero reports whether the span is unset.
func (s Span) IsZero() bool { return s.Start == 0 && s.End == 0 }

// Text returns the spanned source text.
func (s Span) Text(source string) string { return source[s.Start:s.End] }
