// Package parser builds an ast.File from a token.Lexer's token stream. The
// expression grammar (arithmetic, rule chains) is parsed by recursive
// descent with one function per precedence level (parseAdditive,
// parseMultiplicative, parsePower, parseUnary in expr.go); there is no
// operator table and no token stack. It stands in for the teacher
// corpus's hand-rolled shunting-yard expression assembler
// (parse.assembleExpression working off a token stack), generalized from
// "assemble a single boolean filter expression" to "assemble scalar
// arithmetic plus a chain of rule relations".
package parser

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/geo-aid/geoaid/ast"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/token"
)

// Parser consumes a pre-lexed token stream and builds an ast.File.
type Parser struct {
	toks      []token.Token
	pos       int
	iterDepth int
	errs      *multierror.Error
}

// New lexes all of r and returns a Parser positioned at the first token.
func New(r io.Reader) (*Parser, error) {
	lx := token.NewLexer(r)
	if err := lx.Run(); err != nil {
		return nil, geoerr.ErrLex.New(err.Error())
	}
	return &Parser{toks: lx.Tokens()}, nil
}

// Parse parses every statement in the token stream. Front-end errors are
// collected rather than aborting at the first one (spec.md §7): a
// statement that fails to parse is skipped up to its terminating
// semicolon (or EOF) so later statements still get a chance to report
// their own errors.
func (p *Parser) Parse() (*ast.File, error) {
	f := &ast.File{}
	for p.peek().Type != token.EOF {
		stmt, err := p.parseStmt()
		if err != nil {
			p.errs = multierror.Append(p.errs, err)
			p.recover()
			continue
		}
		f.Stmts = append(f.Stmts, stmt)
	}
	if p.errs != nil {
		return f, p.errs.ErrorOrNil()
	}
	return f, nil
}

// recover skips tokens up to and including the next Semicolon, or EOF,
// whichever comes first.
func (p *Parser) recover() {
	for {
		t := p.peek()
		if t.Type == token.EOF {
			return
		}
		p.advance()
		if t.Type == token.Semicolon {
			return
		}
	}
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Type: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return token.Token{Type: token.EOF}
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) match(t token.Type) bool {
	if p.peek().Type == t {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t token.Type) (token.Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return tok, geoerr.New(geoerr.ErrParse.New(fmt.Sprintf("expected %s, found %s %q", t, tok.Type, tok.Value)), geoerr.Span{Start: tok.Start, End: tok.End})
	}
	return p.advance(), nil
}

func span(start, end token.Token) ast.Span {
	return ast.Span{Start: start.Start, End: end.End}
}

func isKeyword(t token.Token, canon string) bool {
	return t.Type == token.Keyword && token.Fold(t.Value) == canon
}
