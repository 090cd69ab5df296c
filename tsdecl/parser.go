package tsdecl

import (
	"os"
	"strconv"
	"strings"

	"github.com/teranos/notion-schema/errors"
)

// Load parses a declaration library. Any lexing or parsing error is returned
// as a *LoadError and no partial library is produced.
func Load(source string) (*Library, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}

	p := &parser{src: source, toks: tokens}
	lib := &Library{
		Source: source,
		byName: make(map[string][]*Declaration),
	}

	for !p.atEnd() {
		decl, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if decl != nil {
			lib.Statements = append(lib.Statements, Statement{Span: decl.Span, Decl: decl})
			lib.Declarations = append(lib.Declarations, decl)
			lib.byName[decl.Name] = append(lib.byName[decl.Name], decl)
			continue
		}
		span, err := p.skipStatement()
		if err != nil {
			return nil, err
		}
		lib.Statements = append(lib.Statements, Statement{Span: span})
	}

	return lib, nil
}

// LoadFile reads and parses a declaration library from disk.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read declaration library %s", path)
	}
	lib, err := Load(string(data))
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}
	return lib, nil
}

type nodeKind int

const (
	nodeOther nodeKind = iota
	nodeRef
	nodeObject
	nodeUnion
	nodeIntersection
	nodeParen
)

// node is the parser's view of a type expression. Only the shapes the
// classifier cares about keep structure.
type node struct {
	kind nodeKind
	span Span

	name    string // nodeRef
	nameEnd int
	hasArgs bool

	parts   []*node // nodeUnion, nodeIntersection
	inner   *node   // nodeParen
	members []Member

	refs []string // names referenced anywhere inside
}

type parser struct {
	src     string
	toks    []Token
	pos     int
	prevEnd int
	refs    []string
	noCond  bool // parsing the extends clause of a conditional type
}

// ── Token navigation ────────────────────────────────────────────────────────

func (p *parser) at(n int) Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) peek() Token { return p.at(0) }

func (p *parser) advance() Token {
	tok := p.peek()
	if tok.Type != TokenEOF {
		p.pos++
		p.prevEnd = tok.End
	}
	return tok
}

func (p *parser) atEnd() bool { return p.peek().Type == TokenEOF }

func (p *parser) check(t TokenType) bool { return p.peek().Type == t }

func (p *parser) expect(t TokenType, context string) (Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return Token{}, p.unexpected("expected %s %s", t, context)
}

func (p *parser) unexpected(format string, args ...any) error {
	tok := p.peek()
	msg := strings.TrimSpace(format)
	err := newLoadErrorAt(p.src, tok, msg, args...)
	if tok.Type == TokenEOF {
		err.Message += ", found end of file"
	} else {
		err.Message += ", found " + strconv.Quote(tok.Literal)
	}
	return err
}

type mark struct {
	pos, prevEnd, refs int
}

func (p *parser) save() mark { return mark{p.pos, p.prevEnd, len(p.refs)} }

func (p *parser) restore(m mark) {
	p.pos, p.prevEnd = m.pos, m.prevEnd
	p.refs = p.refs[:m.refs]
}

// ── Statements ──────────────────────────────────────────────────────────────

// parseStatement parses a type alias or interface at the current position.
// It returns nil without consuming anything for any other statement.
func (p *parser) parseStatement() (*Declaration, error) {
	i := 0
	exported := false
	if p.at(i).Is("export") {
		exported = true
		i++
	}
	if p.at(i).Is("declare") {
		i++
	}

	kw, name := p.at(i), p.at(i+1)
	if name.Type != TokenIdent || !(kw.Is("type") || kw.Is("interface")) {
		return nil, nil
	}

	start := p.peek()
	for j := 0; j <= i; j++ {
		p.advance()
	}
	p.advance()

	decl := &Declaration{
		Name:     name.Literal,
		Keyword:  kw.Literal,
		Exported: exported,
		NameSpan: Span{name.Pos, name.End},
	}

	if p.check(TokenLAngle) {
		params, span, err := p.parseTypeParams()
		if err != nil {
			return nil, err
		}
		decl.Params, decl.ParamSpan = params, span
	}

	if decl.Keyword == "interface" {
		return p.finishInterface(decl, start)
	}
	return p.finishTypeAlias(decl, start)
}

func (p *parser) finishTypeAlias(decl *Declaration, start Token) (*Declaration, error) {
	if _, err := p.expect(TokenEq, "after type alias name"); err != nil {
		return nil, err
	}

	body, err := p.parseType()
	if err != nil {
		return nil, err
	}
	decl.BodySpan = body.span
	classify(decl, body)

	end := body.span.End
	switch {
	case p.check(TokenSemi):
		end = p.advance().End
	case p.atEnd(), p.peek().NewlineBefore:
	default:
		return nil, p.unexpected("expected ';' after type alias %s", decl.Name)
	}
	decl.Span = Span{start.Pos, end}
	return decl, nil
}

func (p *parser) finishInterface(decl *Declaration, start Token) (*Declaration, error) {
	if p.peek().Is("extends") {
		p.advance()
		for {
			if _, err := p.parsePrimary(); err != nil {
				return nil, err
			}
			if !p.check(TokenComma) {
				break
			}
			p.advance()
		}
	}

	if !p.check(TokenLBrace) {
		return nil, p.unexpected("expected '{' to open interface %s", decl.Name)
	}
	body, err := p.parseObjectType()
	if err != nil {
		return nil, err
	}
	if body.kind != nodeObject {
		return nil, newLoadError(p.src, start.Line, start.Col, start.Pos, "interface %s has a mapped type body", decl.Name)
	}

	decl.Kind = KindTypeLiteral
	decl.Members = body.members
	decl.BodySpan = body.span
	decl.Span = Span{start.Pos, body.span.End}
	return decl, nil
}

// skipStatement consumes one statement the loader does not model, keeping
// brackets balanced. A statement ends at a top-level ';', or before a token
// on a new line that follows a closing brace or starts a new statement.
func (p *parser) skipStatement() (Span, error) {
	start := p.peek()
	var stack []Token

	for first := true; ; first = false {
		tok := p.peek()
		if tok.Type == TokenEOF {
			if len(stack) > 0 {
				open := stack[len(stack)-1]
				return Span{}, newLoadErrorAt(p.src, open, "unclosed %s", open.Type)
			}
			break
		}
		if len(stack) == 0 && !first {
			if tok.Type == TokenSemi {
				p.advance()
				break
			}
			if tok.NewlineBefore && (p.at(-1).Type == TokenRBrace || startsStatement(tok)) {
				break
			}
		}
		if len(stack) == 0 && first && tok.Type == TokenSemi {
			p.advance()
			break
		}

		p.advance()
		switch tok.Type {
		case TokenLBrace, TokenLParen, TokenLBrack:
			stack = append(stack, tok)
		case TokenRBrace, TokenRParen, TokenRBrack:
			if len(stack) == 0 || closerOf(stack[len(stack)-1].Type) != tok.Type {
				return Span{}, newLoadErrorAt(p.src, tok, "unexpected %s", tok.Type)
			}
			stack = stack[:len(stack)-1]
		}
	}

	return Span{start.Pos, p.prevEnd}, nil
}

var statementKeywords = map[string]bool{
	"export": true, "import": true, "declare": true, "type": true, "interface": true,
	"function": true, "const": true, "let": true, "var": true, "class": true,
	"enum": true, "namespace": true, "module": true, "abstract": true,
}

func startsStatement(tok Token) bool {
	return tok.Type == TokenIdent && statementKeywords[tok.Literal]
}

func closerOf(t TokenType) TokenType {
	switch t {
	case TokenLBrace:
		return TokenRBrace
	case TokenLParen:
		return TokenRParen
	default:
		return TokenRBrack
	}
}

// skipBalanced consumes a bracketed group starting at the current token.
func (p *parser) skipBalanced() error {
	var stack []Token
	for {
		tok := p.peek()
		switch tok.Type {
		case TokenEOF:
			open := stack[len(stack)-1]
			return newLoadErrorAt(p.src, open, "unclosed %s", open.Type)
		case TokenLBrace, TokenLParen, TokenLBrack:
			stack = append(stack, tok)
		case TokenRBrace, TokenRParen, TokenRBrack:
			if len(stack) == 0 || closerOf(stack[len(stack)-1].Type) != tok.Type {
				return newLoadErrorAt(p.src, tok, "unexpected %s", tok.Type)
			}
			stack = stack[:len(stack)-1]
		}
		p.advance()
		if len(stack) == 0 {
			return nil
		}
	}
}

// ── Type parameters ─────────────────────────────────────────────────────────

func (p *parser) parseTypeParams() ([]TypeParam, Span, error) {
	open, err := p.expect(TokenLAngle, "to open type parameters")
	if err != nil {
		return nil, Span{}, err
	}

	var params []TypeParam
	for !p.check(TokenRAngle) {
		for (p.peek().Is("in") || p.peek().Is("out") || p.peek().Is("const")) && p.at(1).Type == TokenIdent {
			p.advance()
		}
		name, err := p.expect(TokenIdent, "in type parameter list")
		if err != nil {
			return nil, Span{}, err
		}
		param := TypeParam{Name: name.Literal, Span: Span{name.Pos, name.End}}

		if p.peek().Is("extends") {
			p.advance()
			first := p.pos
			constraint, err := p.parseType()
			if err != nil {
				return nil, Span{}, err
			}
			param.Span.End = constraint.span.End
			param.Constraint = constraint.span
			param.LiteralConstraint = isLiteralUnion(p.toks[first:p.pos])
		}
		if p.check(TokenEq) {
			p.advance()
			def, err := p.parseType()
			if err != nil {
				return nil, Span{}, err
			}
			param.Span.End = def.span.End
		}
		params = append(params, param)

		if !p.check(TokenComma) {
			break
		}
		p.advance()
	}

	closeTok, err := p.expect(TokenRAngle, "to close type parameters")
	if err != nil {
		return nil, Span{}, err
	}
	return params, Span{open.Pos, closeTok.End}, nil
}

// isLiteralUnion reports whether toks spell string or "a"|"b"|... .
func isLiteralUnion(toks []Token) bool {
	if len(toks) == 1 && toks[0].Is("string") {
		return true
	}
	if len(toks) > 0 && toks[0].Type == TokenPipe {
		toks = toks[1:]
	}
	if len(toks)%2 == 0 {
		return false
	}
	for i, tok := range toks {
		if i%2 == 0 && tok.Type != TokenString {
			return false
		}
		if i%2 == 1 && tok.Type != TokenPipe {
			return false
		}
	}
	return true
}

func (p *parser) parseTypeArgs() error {
	if _, err := p.expect(TokenLAngle, "to open type arguments"); err != nil {
		return err
	}
	saved := p.noCond
	p.noCond = false
	defer func() { p.noCond = saved }()

	for !p.check(TokenRAngle) {
		if _, err := p.parseType(); err != nil {
			return err
		}
		if !p.check(TokenComma) {
			break
		}
		p.advance()
	}
	_, err := p.expect(TokenRAngle, "to close type arguments")
	return err
}

// ── Types ───────────────────────────────────────────────────────────────────

// parseType parses a full type: a function type, or a union optionally
// followed by a conditional.
func (p *parser) parseType() (*node, error) {
	start := p.peek()
	if p.isFunctionTypeStart() {
		return p.parseFunctionType()
	}

	check, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	if p.noCond || !p.peek().Is("extends") || p.peek().NewlineBefore {
		return check, nil
	}

	mk := len(p.refs)
	p.advance()
	p.noCond = true
	_, err = p.parseType()
	p.noCond = false
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenQuestion, "in conditional type"); err != nil {
		return nil, err
	}
	if _, err := p.parseType(); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon, "in conditional type"); err != nil {
		return nil, err
	}
	if _, err := p.parseType(); err != nil {
		return nil, err
	}

	refs := append(append([]string(nil), check.refs...), p.refs[mk:]...)
	return &node{kind: nodeOther, span: Span{start.Pos, p.prevEnd}, refs: refs}, nil
}

func (p *parser) isFunctionTypeStart() bool {
	tok := p.peek()
	switch {
	case tok.Type == TokenLAngle:
		return true
	case tok.Is("new") && (p.at(1).Type == TokenLParen || p.at(1).Type == TokenLAngle):
		return true
	case tok.Is("abstract") && p.at(1).Is("new"):
		return true
	case tok.Type != TokenLParen:
		return false
	}

	// (…) => R: find the matching paren and look past it
	depth := 0
	for i := 0; ; i++ {
		switch p.at(i).Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
			if depth == 0 {
				return p.at(i+1).Type == TokenArrow
			}
		case TokenEOF:
			return false
		}
	}
}

func (p *parser) parseFunctionType() (*node, error) {
	start := p.peek()
	mk := len(p.refs)

	if p.peek().Is("abstract") {
		p.advance()
	}
	if p.peek().Is("new") {
		p.advance()
	}
	if p.check(TokenLAngle) {
		if _, _, err := p.parseTypeParams(); err != nil {
			return nil, err
		}
	}
	if !p.check(TokenLParen) {
		return nil, p.unexpected("expected '(' in function type")
	}
	if err := p.skipBalanced(); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenArrow, "in function type"); err != nil {
		return nil, err
	}
	if err := p.parseReturnType(); err != nil {
		return nil, err
	}

	return &node{kind: nodeOther, span: Span{start.Pos, p.prevEnd}, refs: p.refs[mk:]}, nil
}

// parseReturnType parses a return type, type predicates included.
func (p *parser) parseReturnType() error {
	if p.peek().Is("asserts") && p.at(1).Type == TokenIdent && !p.at(1).NewlineBefore {
		p.advance()
		p.advance()
		if !p.peek().Is("is") {
			return nil
		}
		p.advance()
	} else if p.peek().Type == TokenIdent && p.at(1).Is("is") && !p.at(1).NewlineBefore {
		p.advance()
		p.advance()
	}

	saved := p.noCond
	p.noCond = false
	defer func() { p.noCond = saved }()
	_, err := p.parseType()
	return err
}

func (p *parser) parseUnion() (*node, error) {
	return p.parseComposite(TokenPipe, nodeUnion, p.parseIntersection)
}

func (p *parser) parseIntersection() (*node, error) {
	return p.parseComposite(TokenAmp, nodeIntersection, p.parseTypeOperator)
}

// parseComposite parses operand (sep operand)*, with an optional leading sep.
// A single operand is returned as-is.
func (p *parser) parseComposite(sep TokenType, kind nodeKind, operand func() (*node, error)) (*node, error) {
	mk := len(p.refs)
	if p.check(sep) {
		p.advance()
	}

	var parts []*node
	for {
		partMark := len(p.refs)
		part, err := operand()
		if err != nil {
			return nil, err
		}
		part.refs = p.refs[partMark:len(p.refs):len(p.refs)]
		parts = append(parts, part)

		if !p.check(sep) {
			break
		}
		p.advance()
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	return &node{
		kind:  kind,
		span:  Span{parts[0].span.Start, parts[len(parts)-1].span.End},
		parts: parts,
		refs:  p.refs[mk:len(p.refs):len(p.refs)],
	}, nil
}

var typeOperators = map[string]bool{"keyof": true, "unique": true, "readonly": true}

func (p *parser) parseTypeOperator() (*node, error) {
	tok := p.peek()
	if tok.Type == TokenIdent && typeOperators[tok.Literal] && startsType(p.at(1)) {
		p.advance()
		operand, err := p.parseTypeOperator()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeOther, span: Span{tok.Pos, operand.span.End}}, nil
	}
	return p.parsePostfix()
}

// startsType reports whether tok can begin a type.
func startsType(tok Token) bool {
	switch tok.Type {
	case TokenIdent, TokenString, TokenNumber, TokenTemplate,
		TokenLBrace, TokenLParen, TokenLBrack, TokenLAngle, TokenMinus:
		return true
	}
	return false
}

func (p *parser) parsePostfix() (*node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.check(TokenLBrack) && !p.peek().NewlineBefore {
		p.advance()
		if !p.check(TokenRBrack) {
			saved := p.noCond
			p.noCond = false
			_, err := p.parseType()
			p.noCond = saved
			if err != nil {
				return nil, err
			}
		}
		end, err := p.expect(TokenRBrack, "to close indexed access or array type")
		if err != nil {
			return nil, err
		}
		n = &node{kind: nodeOther, span: Span{n.span.Start, end.End}}
	}
	return n, nil
}

// keywordTypes never refer to a declaration.
var keywordTypes = map[string]bool{
	"any": true, "unknown": true, "string": true, "number": true, "boolean": true,
	"bigint": true, "symbol": true, "object": true, "never": true, "void": true,
	"undefined": true, "null": true, "true": true, "false": true, "this": true,
	"intrinsic": true,
}

func (p *parser) parsePrimary() (*node, error) {
	tok := p.peek()
	saved := p.noCond

	switch tok.Type {
	case TokenLParen:
		p.advance()
		p.noCond = false
		inner, err := p.parseType()
		p.noCond = saved
		if err != nil {
			return nil, err
		}
		end, err := p.expect(TokenRParen, "to close parenthesized type")
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeParen, span: Span{tok.Pos, end.End}, inner: inner}, nil

	case TokenLBrace:
		p.noCond = false
		n, err := p.parseObjectType()
		p.noCond = saved
		return n, err

	case TokenLBrack:
		p.noCond = false
		n, err := p.parseTuple()
		p.noCond = saved
		return n, err

	case TokenString, TokenNumber, TokenTemplate:
		p.advance()
		return &node{kind: nodeOther, span: Span{tok.Pos, tok.End}}, nil

	case TokenMinus:
		if p.at(1).Type == TokenNumber {
			p.advance()
			num := p.advance()
			return &node{kind: nodeOther, span: Span{tok.Pos, num.End}}, nil
		}

	case TokenIdent:
		switch {
		case tok.Is("typeof"):
			return p.parseTypeQuery()
		case tok.Is("import") && p.at(1).Type == TokenLParen:
			return p.parseImportType()
		case tok.Is("infer") && p.at(1).Type == TokenIdent:
			return p.parseInfer()
		case keywordTypes[tok.Literal]:
			p.advance()
			return &node{kind: nodeOther, span: Span{tok.Pos, tok.End}}, nil
		}
		return p.parseTypeReference()
	}

	return nil, p.unexpected("expected a type")
}

func (p *parser) parseTypeReference() (*node, error) {
	first := p.advance()
	name := first.Literal
	for p.check(TokenDot) && p.at(1).Type == TokenIdent {
		p.advance()
		name += "." + p.advance().Literal
	}

	n := &node{kind: nodeRef, name: name, nameEnd: p.prevEnd}
	p.refs = append(p.refs, name)

	if p.check(TokenLAngle) && !p.peek().NewlineBefore {
		if err := p.parseTypeArgs(); err != nil {
			return nil, err
		}
		n.hasArgs = true
	}
	n.span = Span{first.Pos, p.prevEnd}
	return n, nil
}

// parseTypeQuery parses typeof x.y<Args>. The operand names a value, not a type.
func (p *parser) parseTypeQuery() (*node, error) {
	start := p.advance()
	if p.peek().Is("import") && p.at(1).Type == TokenLParen {
		n, err := p.parseImportType()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeOther, span: Span{start.Pos, n.span.End}}, nil
	}
	if _, err := p.expect(TokenIdent, "after typeof"); err != nil {
		return nil, err
	}
	for p.check(TokenDot) && p.at(1).Type == TokenIdent {
		p.advance()
		p.advance()
	}
	if p.check(TokenLAngle) && !p.peek().NewlineBefore {
		if err := p.parseTypeArgs(); err != nil {
			return nil, err
		}
	}
	return &node{kind: nodeOther, span: Span{start.Pos, p.prevEnd}}, nil
}

// parseImportType parses import("module").Name<Args>.
func (p *parser) parseImportType() (*node, error) {
	start := p.advance()
	if err := p.skipBalanced(); err != nil {
		return nil, err
	}
	for p.check(TokenDot) && p.at(1).Type == TokenIdent {
		p.advance()
		p.advance()
	}
	if p.check(TokenLAngle) && !p.peek().NewlineBefore {
		if err := p.parseTypeArgs(); err != nil {
			return nil, err
		}
	}
	return &node{kind: nodeOther, span: Span{start.Pos, p.prevEnd}}, nil
}

// parseInfer parses infer X, with an optional constraint. In the extends
// clause of a conditional, `infer X extends C ?` belongs to the conditional.
func (p *parser) parseInfer() (*node, error) {
	start := p.advance()
	p.advance()

	if p.peek().Is("extends") {
		m := p.save()
		outer := p.noCond
		p.advance()
		p.noCond = true
		_, err := p.parseType()
		p.noCond = outer
		if err != nil || (!outer && p.check(TokenQuestion)) {
			p.restore(m)
		}
	}
	return &node{kind: nodeOther, span: Span{start.Pos, p.prevEnd}}, nil
}

func (p *parser) parseTuple() (*node, error) {
	open := p.advance()
	for !p.check(TokenRBrack) {
		if p.check(TokenEllipsis) {
			p.advance()
		}
		// labeled element: name: T or name?: T
		if p.peek().Type == TokenIdent &&
			(p.at(1).Type == TokenColon || (p.at(1).Type == TokenQuestion && p.at(2).Type == TokenColon)) {
			p.advance()
			if p.check(TokenQuestion) {
				p.advance()
			}
			p.advance()
		}
		if _, err := p.parseType(); err != nil {
			return nil, err
		}
		if p.check(TokenQuestion) {
			p.advance()
		}
		if !p.check(TokenComma) {
			break
		}
		p.advance()
	}
	end, err := p.expect(TokenRBrack, "to close tuple type")
	if err != nil {
		return nil, err
	}
	return &node{kind: nodeOther, span: Span{open.Pos, end.End}}, nil
}

// ── Object types ────────────────────────────────────────────────────────────

func (p *parser) isMappedTypeStart() bool {
	i := 1
	if p.at(i).Type == TokenPlus || p.at(i).Type == TokenMinus {
		if !p.at(i + 1).Is("readonly") {
			return false
		}
		i += 2
	} else if p.at(i).Is("readonly") {
		i++
	}
	return p.at(i).Type == TokenLBrack && p.at(i+1).Type == TokenIdent && p.at(i+2).Is("in")
}

func (p *parser) parseObjectType() (*node, error) {
	if p.isMappedTypeStart() {
		return p.parseMappedType()
	}

	open := p.advance()
	n := &node{kind: nodeObject}

	for !p.check(TokenRBrace) {
		if p.atEnd() {
			return nil, newLoadErrorAt(p.src, open, "unclosed '{'")
		}
		member, isProperty, err := p.parseTypeMember()
		if err != nil {
			return nil, err
		}
		if isProperty {
			n.members = append(n.members, member)
		}

		switch {
		case p.check(TokenSemi), p.check(TokenComma):
			p.advance()
		case p.check(TokenRBrace), p.peek().NewlineBefore:
		default:
			return nil, p.unexpected("expected ';' between members")
		}
	}

	end := p.advance()
	n.span = Span{open.Pos, end.End}
	return n, nil
}

func (p *parser) parseMappedType() (*node, error) {
	open := p.advance()
	if p.check(TokenPlus) || p.check(TokenMinus) {
		p.advance()
	}
	if p.peek().Is("readonly") {
		p.advance()
	}
	p.advance() // [
	p.advance() // K
	p.advance() // in
	if _, err := p.parseType(); err != nil {
		return nil, err
	}
	if p.peek().Is("as") {
		p.advance()
		if _, err := p.parseType(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenRBrack, "in mapped type"); err != nil {
		return nil, err
	}
	if p.check(TokenPlus) || p.check(TokenMinus) {
		p.advance()
		if !p.check(TokenQuestion) {
			return nil, p.unexpected("expected '?' after mapped type modifier")
		}
	}
	if p.check(TokenQuestion) {
		p.advance()
	}
	if p.check(TokenColon) {
		p.advance()
		if _, err := p.parseType(); err != nil {
			return nil, err
		}
	}
	if p.check(TokenSemi) || p.check(TokenComma) {
		p.advance()
	}
	end, err := p.expect(TokenRBrace, "to close mapped type")
	if err != nil {
		return nil, err
	}
	return &node{kind: nodeOther, span: Span{open.Pos, end.End}}, nil
}

func isPropertyName(tok Token) bool {
	switch tok.Type {
	case TokenIdent, TokenString, TokenNumber, TokenLBrack:
		return true
	}
	return false
}

// parseTypeMember parses one member. isProperty is false for call, construct,
// index and method signatures.
func (p *parser) parseTypeMember() (Member, bool, error) {
	start := p.peek()

	if p.peek().Is("readonly") && isPropertyName(p.at(1)) {
		p.advance()
	}

	switch {
	case p.check(TokenLParen), p.check(TokenLAngle):
		return Member{}, false, p.parseSignature()
	case p.peek().Is("new") && (p.at(1).Type == TokenLParen || p.at(1).Type == TokenLAngle):
		p.advance()
		return Member{}, false, p.parseSignature()
	case (p.peek().Is("get") || p.peek().Is("set")) && isPropertyName(p.at(1)):
		p.advance()
	}

	var name string
	tok := p.peek()
	switch tok.Type {
	case TokenLBrack:
		if p.at(1).Type == TokenIdent && p.at(2).Type == TokenColon {
			return Member{}, false, p.parseIndexSignature()
		}
		if err := p.skipBalanced(); err != nil {
			return Member{}, false, err
		}
		name = tok.Literal
	case TokenString:
		p.advance()
		name = unquote(tok.Literal)
	case TokenIdent, TokenNumber:
		p.advance()
		name = tok.Literal
	default:
		return Member{}, false, p.unexpected("expected a member name")
	}

	m := Member{Name: name}
	if tok.Type == TokenLBrack {
		m.Name = ""
	}
	if p.check(TokenQuestion) {
		p.advance()
		m.Optional = true
	}
	if p.check(TokenLParen) || p.check(TokenLAngle) {
		return Member{}, false, p.parseSignature()
	}
	if p.check(TokenColon) {
		p.advance()
		typ, err := p.parseType()
		if err != nil {
			return Member{}, false, err
		}
		m.TypeSpan = typ.span
	}

	m.Span = Span{start.Pos, p.prevEnd}
	return m, m.Name != "", nil
}

// parseSignature parses <T>(params): R after a call, construct or method name.
func (p *parser) parseSignature() error {
	if p.check(TokenLAngle) {
		if _, _, err := p.parseTypeParams(); err != nil {
			return err
		}
	}
	if !p.check(TokenLParen) {
		return p.unexpected("expected '(' in signature")
	}
	if err := p.skipBalanced(); err != nil {
		return err
	}
	if p.check(TokenColon) {
		p.advance()
		return p.parseReturnType()
	}
	return nil
}

func (p *parser) parseIndexSignature() error {
	p.advance() // [
	p.advance() // key
	p.advance() // :
	if _, err := p.parseType(); err != nil {
		return err
	}
	if _, err := p.expect(TokenRBrack, "to close index signature"); err != nil {
		return err
	}
	if _, err := p.expect(TokenColon, "after index signature"); err != nil {
		return err
	}
	_, err := p.parseType()
	return err
}

// unquote returns the value of a string literal token. Escapes that Go
// cannot decode are left as written.
func unquote(lit string) string {
	raw := lit[1 : len(lit)-1]
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}
	if lit[0] == '"' {
		if s, err := strconv.Unquote(lit); err == nil {
			return s
		}
	}
	return raw
}

// ── Classification ──────────────────────────────────────────────────────────

func unwrapParens(n *node) *node {
	for n.kind == nodeParen {
		n = n.inner
	}
	return n
}

func classify(decl *Declaration, body *node) {
	n := unwrapParens(body)

	switch n.kind {
	case nodeObject:
		decl.Kind = KindTypeLiteral
		decl.Members = n.members
	case nodeRef:
		decl.Kind = KindReference
		decl.Ref = n.reference()
	case nodeUnion, nodeIntersection:
		decl.Kind = KindUnion
		if n.kind == nodeIntersection {
			decl.Kind = KindIntersection
		}
		for _, part := range n.parts {
			decl.Parts = append(decl.Parts, classifyPart(part))
		}
	default:
		decl.Kind = KindOther
	}
}

func classifyPart(n *node) Part {
	part := Part{Span: n.span, Mentions: dedupe(n.refs)}
	switch inner := unwrapParens(n); inner.kind {
	case nodeRef:
		part.Ref = inner.reference()
	case nodeUnion, nodeIntersection:
		part.Nested = true
	}
	return part
}

func (n *node) reference() *Reference {
	return &Reference{Name: n.name, Span: n.span, NameEnd: n.nameEnd, HasArgs: n.hasArgs}
}

func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
