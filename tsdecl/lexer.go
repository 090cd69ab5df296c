package tsdecl

import (
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes declaration source text. Comments are skipped; a comment
// spanning a line break still marks the next token NewlineBefore.
type Lexer struct {
	input string
	pos   int // current byte position
	line  int // 1-based
	col   int // 1-based

	newline bool
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// Tokenize scans the entire input. The returned slice always ends with a
// TokenEOF token. The first lexical error stops scanning.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// peek returns the current rune without advancing.
func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt returns the rune at a byte offset from the current position.
func (l *Lexer) peekAt(offset int) rune {
	p := l.pos + offset
	if p >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[p:])
	return r
}

// advance moves forward by one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
		l.newline = true
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) errorf(line, col, pos int, format string, args ...any) *LoadError {
	return newLoadError(l.input, line, col, pos, format, args...)
}

// skipTrivia advances past whitespace and comments.
func (l *Lexer) skipTrivia() error {
	for l.pos < len(l.input) {
		r := l.peek()
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '\ufeff' ||
			r == '\u00a0' || r == '\u2028' || r == '\u2029':
			if r == '\u2028' || r == '\u2029' {
				l.newline = true
			}
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		case r == '/' && l.peekAt(1) == '*':
			line, col, pos := l.line, l.col, l.pos
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.input) {
				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return l.errorf(line, col, pos, "unterminated comment")
			}
		default:
			return nil
		}
	}
	return nil
}

// next scans and returns the next token.
func (l *Lexer) next() (Token, error) {
	l.newline = false
	if err := l.skipTrivia(); err != nil {
		return Token{}, err
	}

	tok := Token{Pos: l.pos, Line: l.line, Col: l.col, NewlineBefore: l.newline}
	if l.pos >= len(l.input) {
		tok.Type = TokenEOF
		tok.End = l.pos
		return tok, nil
	}

	r := l.peek()
	var err error
	switch {
	case r == '"' || r == '\'':
		tok.Type = TokenString
		err = l.scanString(r, tok)
	case r == '`':
		tok.Type = TokenTemplate
		err = l.scanTemplate(tok)
	case r >= '0' && r <= '9', r == '.' && isDigit(l.peekAt(1)):
		tok.Type = TokenNumber
		l.scanNumber()
	case isIdentStart(r):
		tok.Type = TokenIdent
		for l.pos < len(l.input) && isIdentPart(l.peek()) {
			l.advance()
		}
	case r == '.' && l.peekAt(1) == '.' && l.peekAt(2) == '.':
		tok.Type = TokenEllipsis
		l.advance()
		l.advance()
		l.advance()
	case r == '=' && l.peekAt(1) == '>':
		tok.Type = TokenArrow
		l.advance()
		l.advance()
	default:
		tok.Type, err = l.scanPunct(tok)
	}
	if err != nil {
		return Token{}, err
	}

	tok.End = l.pos
	tok.Literal = l.input[tok.Pos:tok.End]
	return tok, nil
}

// scanPunct reads a single-character token. Angle brackets are never combined
// so nested type arguments close one at a time.
func (l *Lexer) scanPunct(tok Token) (TokenType, error) {
	r := l.advance()
	switch r {
	case '{':
		return TokenLBrace, nil
	case '}':
		return TokenRBrace, nil
	case '(':
		return TokenLParen, nil
	case ')':
		return TokenRParen, nil
	case '[':
		return TokenLBrack, nil
	case ']':
		return TokenRBrack, nil
	case '<':
		return TokenLAngle, nil
	case '>':
		return TokenRAngle, nil
	case ',':
		return TokenComma, nil
	case ';':
		return TokenSemi, nil
	case ':':
		return TokenColon, nil
	case '?':
		return TokenQuestion, nil
	case '.':
		return TokenDot, nil
	case '=':
		return TokenEq, nil
	case '|':
		return TokenPipe, nil
	case '&':
		return TokenAmp, nil
	case '-':
		return TokenMinus, nil
	case '+':
		return TokenPlus, nil
	case '!', '@', '#', '%', '^', '~', '*', '/':
		return TokenOther, nil
	}
	return TokenEOF, l.errorf(tok.Line, tok.Col, tok.Pos, "unexpected character %q", r)
}

// scanString reads a quoted string literal, escapes included.
func (l *Lexer) scanString(quote rune, tok Token) error {
	l.advance()
	for l.pos < len(l.input) {
		r := l.advance()
		switch r {
		case quote:
			return nil
		case '\\':
			l.advance()
		case '\n':
			return l.errorf(tok.Line, tok.Col, tok.Pos, "unterminated string literal")
		}
	}
	return l.errorf(tok.Line, tok.Col, tok.Pos, "unterminated string literal")
}

// scanTemplate reads a template literal, including nested substitutions.
func (l *Lexer) scanTemplate(tok Token) error {
	l.advance()
	for l.pos < len(l.input) {
		r := l.advance()
		switch r {
		case '`':
			return nil
		case '\\':
			l.advance()
		case '$':
			if l.peek() == '{' {
				l.advance()
				if err := l.scanSubstitution(tok); err != nil {
					return err
				}
			}
		}
	}
	return l.errorf(tok.Line, tok.Col, tok.Pos, "unterminated template literal")
}

// scanSubstitution skips a ${...} body up to its closing brace.
func (l *Lexer) scanSubstitution(tok Token) error {
	depth := 1
	for l.pos < len(l.input) {
		r := l.peek()
		switch {
		case r == '{':
			depth++
		case r == '}':
			depth--
			if depth == 0 {
				l.advance()
				return nil
			}
		case r == '`':
			inner := Token{Pos: l.pos, Line: l.line, Col: l.col}
			if err := l.scanTemplate(inner); err != nil {
				return err
			}
			continue
		case r == '"' || r == '\'':
			inner := Token{Pos: l.pos, Line: l.line, Col: l.col}
			if err := l.scanString(r, inner); err != nil {
				return err
			}
			continue
		}
		l.advance()
	}
	return l.errorf(tok.Line, tok.Col, tok.Pos, "unterminated template literal")
}

func (l *Lexer) scanNumber() {
	for l.pos < len(l.input) {
		r := l.peek()
		if isIdentPart(r) || (r == '.' && isDigit(l.peekAt(1))) {
			l.advance()
			continue
		}
		return
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '\u200c' || r == '\u200d'
}
