package parser

import (
	"fmt"

	"github.com/geo-aid/geoaid/ast"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/token"
)

// parseExpr is the entry point for the arithmetic grammar: additive terms
// at the lowest precedence, built up from primaries by the tighter
// productions below. This is precedence climbing; see package doc for why
// it stands in for the teacher's shunting-yard assembleExpression.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseAdditive()
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.Op && (p.peek().Value == "+" || p.peek().Value == "-") {
		opTok := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		op := ast.OpAdd
		if opTok.Value == "-" {
			op = ast.OpSub
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanVal: ast.Span{Start: left.Span().Start, End: right.Span().End}}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == token.Op && (p.peek().Value == "*" || p.peek().Value == "/") {
		opTok := p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		op := ast.OpMul
		if opTok.Value == "/" {
			op = ast.OpDiv
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanVal: ast.Span{Start: left.Span().Start, End: right.Span().End}}
	}
	return left, nil
}

// parsePower is right-associative: a^b^c == a^(b^c).
func (p *Parser) parsePower() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peek().Type == token.Op && p.peek().Value == "^" {
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: ast.OpPow, Left: left, Right: right, SpanVal: ast.Span{Start: left.Span().Start, End: right.Span().End}}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.peek().Type == token.Op && p.peek().Value == "-" {
		minus := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Operand: operand, SpanVal: ast.Span{Start: minus.Start, End: operand.Span().End}}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary and, if it is a Call, its trailing
// PropertyBlock.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if call, ok := e.(*ast.Call); ok && p.peek().Type == token.LeftBracket {
		props, err := p.parsePropertyBlock()
		if err != nil {
			return nil, err
		}
		call.Properties = props
		call.SpanVal = ast.Span{Start: call.SpanVal.Start, End: props.SpanVal.End}
	}
	return e, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.peek()
	switch t.Type {
	case token.Int, token.Float:
		return p.parseNumber()
	case token.LeftParen:
		return p.parseParenOrIterator()
	case token.Ident:
		return p.parseIdentOrCall()
	default:
		return nil, geoerr.New(geoerr.ErrParse.New(fmt.Sprintf("unexpected token %s %q", t.Type, t.Value)), geoerr.Span{Start: t.Start, End: t.End})
	}
}

func (p *Parser) parseNumber() (ast.Expr, error) {
	tok := p.advance()
	lit := &ast.NumberLit{SpanVal: ast.Span{Start: tok.Start, End: tok.End}}
	if tok.Type == token.Int {
		lit.IntPart = tok.Value
	} else {
		intPart, fracPart, ok := splitDecimal(tok.Value)
		if !ok {
			return nil, geoerr.New(geoerr.ErrParse.New(fmt.Sprintf("malformed decimal literal %q", tok.Value)), geoerr.Span{Start: tok.Start, End: tok.End})
		}
		lit.IntPart, lit.FracPart = intPart, fracPart
	}
	if p.peek().Type == token.Unit {
		unitTok := p.advance()
		lit.Unit = token.Fold(unitTok.Value)
		lit.SpanVal.End = unitTok.End
	}
	return lit, nil
}

// splitDecimal splits "12.45" into ("12", "45"). It never recombines the
// parts with a single pass of multiply-and-add across the decimal point —
// that recombination, done correctly as int + frac×10^-len(frac), lives in
// ast.NumberLit.Float, once both parts are already separated here.
func splitDecimal(s string) (intPart, fracPart string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", true
}

func (p *Parser) parseParenOrIterator() (ast.Expr, error) {
	start := p.advance() // '('
	var exprs []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if !p.match(token.Comma) {
			break
		}
	}
	end, err := p.expect(token.RightParen)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &ast.Iterator{ID: p.iterDepth, Branches: exprs, SpanVal: span(start, end)}, nil
}

func (p *Parser) parseIdentOrCall() (ast.Expr, error) {
	id := p.advance()
	if p.peek().Type == token.LeftParen {
		return p.parseCall(id)
	}
	if n := len(id.Value); n > 1 && isAllCapsLetters(id.Value) {
		letters := make([]string, n)
		for i := 0; i < n; i++ {
			letters[i] = string(id.Value[i])
		}
		return &ast.PointCollectionLit{Letters: letters, SpanVal: ast.Span{Start: id.Start, End: id.End}}, nil
	}
	return &ast.Ident{Name: id.Value, SpanVal: ast.Span{Start: id.Start, End: id.End}}, nil
}

func (p *Parser) parseCall(name token.Token) (ast.Expr, error) {
	if _, err := p.expect(token.LeftParen); err != nil {
		return nil, err
	}
	p.iterDepth++
	var args []ast.Expr
	if p.peek().Type != token.RightParen {
		for {
			a, err := p.parseExpr()
			if err != nil {
				p.iterDepth--
				return nil, err
			}
			args = append(args, a)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.iterDepth--
	end, err := p.expect(token.RightParen)
	if err != nil {
		return nil, err
	}
	return &ast.Call{Name: token.Fold(name.Value), Args: args, SpanVal: span(name, end)}, nil
}

func isAllCapsLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
