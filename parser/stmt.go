package parser

import (
	"fmt"

	"github.com/geo-aid/geoaid/ast"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/token"
)

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch {
	case isKeyword(p.peek(), "let"):
		return p.parseLet()
	case p.peek().Type == token.Question:
		return p.parseQuery()
	default:
		return p.parseRuleStmt()
	}
}

func (p *Parser) parseLet() (ast.Stmt, error) {
	start := p.advance() // 'let'

	var names []*ast.Ident
	for {
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		names = append(names, &ast.Ident{Name: id.Value, SpanVal: ast.Span{Start: id.Start, End: id.End}})
		if !p.match(token.Comma) {
			break
		}
	}

	if _, err := p.expect(token.Op); err != nil { // '='
		return nil, err
	}
	// The '=' was matched generically as an Op token; verify its text.
	if got := p.toks[p.pos-1].Value; got != "=" {
		return nil, geoerr.New(geoerr.ErrParse.New(fmt.Sprintf("expected '=', found %q", got)), geoerr.Span{Start: p.toks[p.pos-1].Start, End: p.toks[p.pos-1].End})
	}

	if len(names) > 1 {
		p.iterDepth = 0
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	var props *ast.PropertyBlock
	if p.peek().Type == token.LeftBracket {
		props, err = p.parsePropertyBlock()
		if err != nil {
			return nil, err
		}
	}

	var rule *ast.RuleChain
	if isRuleOpStart(p.peek()) {
		// The trailing rule omits its left operand in source text; the
		// let's own (first) bound name stands in for it (spec.md §4.7).
		rule, err = p.parseRuleChain(names[0])
		if err != nil {
			return nil, err
		}
	}

	end, err := p.expect(token.Semicolon)
	if err != nil {
		return nil, err
	}

	return &ast.Let{
		Names:      names,
		Rhs:        rhs,
		Properties: props,
		Rule:       rule,
		SpanVal:    span(start, end),
	}, nil
}

func (p *Parser) parseQuery() (ast.Stmt, error) {
	start := p.advance() // '?'
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
	end, err := p.expect(token.Semicolon)
	if err != nil {
		return nil, err
	}
	return &ast.Query{Exprs: exprs, SpanVal: span(start, end)}, nil
}

// parseRuleStmt parses a bare rule statement. A trailing `[...]` property
// block is grammatically accepted here the same way parseLet accepts one
// (GeoScript's property-block syntax isn't restricted to `let`), but a
// rule has nothing to attach display properties to; unroll rejects it
// with geoerr.ErrProperty (spec.md ambiguity-resolution (c)) rather than
// the parser producing a generic "expected ';'" syntax error.
func (p *Parser) parseRuleStmt() (ast.Stmt, error) {
	start := p.peek()
	chain, err := p.parseRuleChain(nil)
	if err != nil {
		return nil, err
	}

	var props *ast.PropertyBlock
	if p.peek().Type == token.LeftBracket {
		props, err = p.parsePropertyBlock()
		if err != nil {
			return nil, err
		}
	}

	end, err := p.expect(token.Semicolon)
	if err != nil {
		return nil, err
	}
	chain.SpanVal = span(start, end)
	return &ast.Rule{Chain: chain, Properties: props, SpanVal: span(start, end)}, nil
}

// isRuleOpStart reports whether t begins a rule relation: a comparison
// operator or the `lies_on` keyword.
func isRuleOpStart(t token.Token) bool {
	if isKeyword(t, "lieson") {
		return true
	}
	return t.Type == token.Op && isCompareOp(t.Value)
}

func isCompareOp(s string) bool {
	switch s {
	case "=", "<", "<=", ">", ">=":
		return true
	default:
		return false
	}
}

func ruleKindFor(op string) ast.RuleKind {
	switch op {
	case "=":
		return ast.RuleEqual
	case "<":
		return ast.RuleLess
	case "<=":
		return ast.RuleLessEq
	case ">":
		return ast.RuleGreater
	case ">=":
		return ast.RuleGreaterEq
	default:
		return ast.RuleEqual
	}
}

// parseRuleChain parses a rule relation chain. If first is nil, the chain
// begins with a leading expression parsed from the token stream (a
// free-standing rule statement); if first is non-nil, it is used as the
// chain's first operand without being preceded by a comparison operator —
// this is the let-trailing-rule shorthand, where the let's own bound name
// stands in for the operand that source text omits (spec.md §4.7).
func (p *Parser) parseRuleChain(first ast.Expr) (*ast.RuleChain, error) {
	negated := false
	if p.peek().Type == token.Bang {
		p.advance()
		negated = true
	}

	left := first
	var err error
	if left == nil {
		left, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	var ops []ast.RuleOp
	for isRuleOpStart(p.peek()) {
		opTok := p.advance()
		var kind ast.RuleKind
		if isKeyword(opTok, "lieson") {
			kind = ast.RuleLiesOn
		} else {
			kind = ruleKindFor(opTok.Value)
		}
		right, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ops = append(ops, ast.RuleOp{Kind: kind, Left: left, Right: right})
		left = right
	}

	if len(ops) == 0 {
		t := p.peek()
		return nil, geoerr.New(geoerr.ErrRuleForm.New("expected a rule relation (=, <, <=, >, >=, lies_on)"), geoerr.Span{Start: t.Start, End: t.End})
	}

	chain := &ast.RuleChain{Ops: ops, Negated: negated}
	return chain, nil
}

func (p *Parser) parsePropertyBlock() (*ast.PropertyBlock, error) {
	start, err := p.expect(token.LeftBracket)
	if err != nil {
		return nil, err
	}
	block := &ast.PropertyBlock{}
	if p.peek().Type != token.RightBracket {
		for {
			keyTok, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			eqTok, err := p.expect(token.Op)
			if err != nil {
				return nil, err
			}
			if eqTok.Value != "=" {
				return nil, geoerr.New(geoerr.ErrProperty.New(fmt.Sprintf("expected '=', found %q", eqTok.Value)), geoerr.Span{Start: eqTok.Start, End: eqTok.End})
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			block.Entries = append(block.Entries, ast.PropertyEntry{
				Key:     token.Fold(keyTok.Value),
				Value:   val,
				SpanVal: ast.Span{Start: keyTok.Start, End: val.Span().End},
			})
			if !p.match(token.Comma) {
				break
			}
		}
	}
	end, err := p.expect(token.RightBracket)
	if err != nil {
		return nil, err
	}
	block.SpanVal = span(start, end)
	return block, nil
}
