// Package ast defines the concrete syntax tree produced by package parser.
// Nodes are consumed by package unroll and do not outlive that stage
// (spec.md §3 "Lifecycle").
package ast

import (
	"math"
	"strconv"
)

// Node is implemented by every AST node. Span reports the node's byte
// range in source text, for error reporting.
type Node interface {
	Span() Span
}

// Span is a byte range, mirroring geoerr.Span but kept dependency-free so
// package ast need not import package geoerr.
type Span struct {
	Start, End int
}

// File is a parsed GeoScript compilation unit: an ordered list of
// top-level statements.
type File struct {
	Stmts []Stmt
}

func (f *File) Span() Span {
	if len(f.Stmts) == 0 {
		return Span{}
	}
	return Span{f.Stmts[0].Span().Start, f.Stmts[len(f.Stmts)-1].Span().End}
}

// Stmt is implemented by every top-level statement: Let, Rule, Query.
type Stmt interface {
	Node
	stmt()
}

// Let is `let name, name, ... = rhs [properties] [rule-chain];`.
//
// A single name binds Rhs directly. With multiple names, if an Iterator
// appears anywhere in Rhs it must have one branch per name, and name i
// binds to Rhs with that Iterator replaced by its Branches[i]; if Rhs
// holds no Iterator, it is resolved once per name (see package unroll's
// expandIteratedLet).
type Let struct {
	Names      []*Ident
	Rhs        Expr
	Properties *PropertyBlock // may be nil
	Rule       *RuleChain     // may be nil; sugar for a Rule stmt over Names
	SpanVal    Span
}

func (l *Let) Span() Span { return l.SpanVal }
func (*Let) stmt()        {}

// Rule is a free-standing rule statement: `a < b < c;` or `A lies_on k;`.
type Rule struct {
	Chain      *RuleChain
	Properties *PropertyBlock // may be nil; always a PropertyError once unrolled
	SpanVal    Span
}

func (r *Rule) Span() Span { return r.SpanVal }
func (*Rule) stmt()        {}

// Query is a `? expr, expr, ...;` display directive.
type Query struct {
	Exprs   []Expr
	SpanVal Span
}

func (q *Query) Span() Span { return q.SpanVal }
func (*Query) stmt()        {}

// RuleChain is one or more RuleOps sharing operands left-to-right:
// `a < b < c` desugars to RuleOps [{Less,a,b},{Less,b,c}]. A single
// `lies_on`/`=` rule has exactly one RuleOp.
type RuleChain struct {
	Ops     []RuleOp
	Negated bool // leading `!`
	Weight  *NumberLit
	SpanVal Span
}

func (c *RuleChain) Span() Span { return c.SpanVal }

// RuleOp is a single binary rule relation.
type RuleOp struct {
	Kind  RuleKind
	Left  Expr
	Right Expr
}

// RuleKind enumerates the rule relation operators.
type RuleKind int

const (
	RuleEqual RuleKind = iota
	RuleLess
	RuleLessEq
	RuleGreater
	RuleGreaterEq
	RuleLiesOn
)

// Expr is implemented by every expression node.
type Expr interface {
	Node
	expr()
}

// Ident is a bare identifier, including a single capitalized letter used
// as a point name.
type Ident struct {
	Name    string
	SpanVal Span
}

func (i *Ident) Span() Span { return i.SpanVal }
func (*Ident) expr()        {}

// NumberLit is a numeric literal with an optional unit suffix
// (spec.md §4.1).
type NumberLit struct {
	IntPart  string
	FracPart string // "" if the literal has no fractional part
	Unit     string // "" if no unit suffix
	SpanVal  Span
}

func (n *NumberLit) Span() Span { return n.SpanVal }
func (*NumberLit) expr()        {}

// Float combines IntPart and FracPart into a float64. The v0.7.0 parsing
// bug this guards against misread a decimal by multiplying-and-adding
// straight across the decimal point (e.g. folding "12.45" digit by digit
// into a single accumulator, which rounds differently than computing the
// integer and fractional parts separately). Correct combination is
// int + frac × 10^-len(frac).
func (n *NumberLit) Float() (float64, error) {
	intVal, err := strconv.ParseFloat(n.IntPart, 64)
	if err != nil {
		return 0, err
	}
	if n.FracPart == "" {
		return intVal, nil
	}
	fracVal, err := strconv.ParseFloat(n.FracPart, 64)
	if err != nil {
		return 0, err
	}
	scale := math.Pow(10, float64(len(n.FracPart)))
	return intVal + fracVal/scale, nil
}

// PointCollectionLit is a sequence of capitalized single-letter
// identifiers juxtaposed with no separator, e.g. `ABCD`.
type PointCollectionLit struct {
	Letters []string
	SpanVal Span
}

func (p *PointCollectionLit) Span() Span { return p.SpanVal }
func (*PointCollectionLit) expr()        {}

// Call is a function call `name(args...)`, optionally with a trailing
// PropertyBlock.
type Call struct {
	Name       string
	Args       []Expr
	Properties *PropertyBlock // may be nil
	SpanVal    Span
}

func (c *Call) Span() Span { return c.SpanVal }
func (*Call) expr()        {}

// Iterator is a comma-separated branch expression `(a, b, c)` tagged with
// an iterator id (spec.md §4.2). GeoScript source never spells the id
// explicitly; the parser sets it to the number of call argument lists
// enclosing the iterator, so `intersection((l1, l2, l3), k)` gives id 1
// and an iterator written directly inside another one gets the same id
// as its parent. Package unroll does not read the id and does not compare
// the lengths of different iterators: it expands only the first Iterator
// found in a multi-name let's Rhs, and any other Iterator is rejected as
// an unhandled expression.
type Iterator struct {
	ID       int
	Branches []Expr
	SpanVal  Span
}

func (it *Iterator) Span() Span { return it.SpanVal }
func (*Iterator) expr()        {}

// BinOp enumerates the arithmetic infix operators.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpPow
)

// BinaryExpr is an arithmetic infix expression (the "arithmetic surface
// syntax" supplement in SPEC_FULL.md §6); package unroll accepts only
// Scalar operands.
type BinaryExpr struct {
	Op      BinOp
	Left    Expr
	Right   Expr
	SpanVal Span
}

func (b *BinaryExpr) Span() Span { return b.SpanVal }
func (*BinaryExpr) expr()        {}

// UnaryExpr is a unary minus.
type UnaryExpr struct {
	Operand Expr
	SpanVal Span
}

func (u *UnaryExpr) Span() Span { return u.SpanVal }
func (*UnaryExpr) expr()        {}

// PropertyBlock is `[k = v, k = v, ...]` following an expression or rule.
type PropertyBlock struct {
	Entries []PropertyEntry
	SpanVal Span
}

func (p *PropertyBlock) Span() Span { return p.SpanVal }

// PropertyEntry is one `key = value` pair inside a PropertyBlock. Value is
// kept as a raw Expr; package unroll resolves it against the allowed type
// for Key.
type PropertyEntry struct {
	Key     string
	Value   Expr
	SpanVal Span
}
