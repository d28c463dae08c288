package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-aid/geoaid/ast"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	p, err := New(strings.NewReader(src))
	require.NoError(t, err)
	f, err := p.Parse()
	require.NoError(t, err)
	return f
}

func TestParseSimpleLet(t *testing.T) {
	f := parse(t, `let A, B = Point();`)
	require.Len(t, f.Stmts, 1)
	let, ok := f.Stmts[0].(*ast.Let)
	require.True(t, ok)
	require.Len(t, let.Names, 2)
	assert.Equal(t, "A", let.Names[0].Name)
	assert.Equal(t, "B", let.Names[1].Name)
	call, ok := let.Rhs.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "point", call.Name)
	assert.Empty(t, call.Args)
}

func TestParseLetWithPropertyBlock(t *testing.T) {
	f := parse(t, `let M = mid(A, B) [display = true];`)
	let := f.Stmts[0].(*ast.Let)
	call := let.Rhs.(*ast.Call)
	require.Len(t, call.Args, 2)
	require.NotNil(t, call.Properties)
	require.Len(t, call.Properties.Entries, 1)
	assert.Equal(t, "display", call.Properties.Entries[0].Key)
}

func TestParsePointCollectionLiteral(t *testing.T) {
	f := parse(t, `let X = intersection(line(ABCD), k);`)
	let := f.Stmts[0].(*ast.Let)
	call := let.Rhs.(*ast.Call)
	inner := call.Args[0].(*ast.Call)
	coll := inner.Args[0].(*ast.PointCollectionLit)
	assert.Equal(t, []string{"A", "B", "C", "D"}, coll.Letters)
}

func TestParseIteratorArgument(t *testing.T) {
	f := parse(t, `let P, Q, R = intersection((l1, l2, l3), k);`)
	let := f.Stmts[0].(*ast.Let)
	require.Len(t, let.Names, 3)
	call := let.Rhs.(*ast.Call)
	iter, ok := call.Args[0].(*ast.Iterator)
	require.True(t, ok)
	assert.Len(t, iter.Branches, 3)
}

func TestParseChainedRule(t *testing.T) {
	f := parse(t, `a < b < c;`)
	rule := f.Stmts[0].(*ast.Rule)
	require.Len(t, rule.Chain.Ops, 2)
	assert.Equal(t, ast.RuleLess, rule.Chain.Ops[0].Kind)
	assert.Equal(t, ast.RuleLess, rule.Chain.Ops[1].Kind)
}

func TestParseLiesOnRule(t *testing.T) {
	f := parse(t, `X lies_on k;`)
	rule := f.Stmts[0].(*ast.Rule)
	require.Len(t, rule.Chain.Ops, 1)
	assert.Equal(t, ast.RuleLiesOn, rule.Chain.Ops[0].Kind)
}

func TestParseRuleStmtWithPropertyBlock(t *testing.T) {
	f := parse(t, `a < b [display = true];`)
	rule := f.Stmts[0].(*ast.Rule)
	require.Len(t, rule.Chain.Ops, 1)
	require.NotNil(t, rule.Properties)
	require.Len(t, rule.Properties.Entries, 1)
	assert.Equal(t, "display", rule.Properties.Entries[0].Key)
}

func TestParseLetTrailingRule(t *testing.T) {
	f := parse(t, `let X = Point() lies_on k;`)
	let := f.Stmts[0].(*ast.Let)
	require.NotNil(t, let.Rule)
	require.Len(t, let.Rule.Ops, 1)
	assert.Equal(t, ast.RuleLiesOn, let.Rule.Ops[0].Kind)
}

func TestParseQuery(t *testing.T) {
	f := parse(t, `? A, B;`)
	q := f.Stmts[0].(*ast.Query)
	assert.Len(t, q.Exprs, 2)
}

func TestParseUnitSuffix(t *testing.T) {
	f := parse(t, `let a = 30deg;`)
	let := f.Stmts[0].(*ast.Let)
	num := let.Rhs.(*ast.NumberLit)
	assert.Equal(t, "deg", num.Unit)
	assert.Equal(t, "30", num.IntPart)
}

func TestParseArithmeticPrecedence(t *testing.T) {
	f := parse(t, `let a = 1 + 2 * 3;`)
	let := f.Stmts[0].(*ast.Let)
	bin := let.Rhs.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpAdd, bin.Op)
	rhs := bin.Right.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpMul, rhs.Op)
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	f := parse(t, `let a = 2 ^ 3 ^ 2;`)
	let := f.Stmts[0].(*ast.Let)
	bin := let.Rhs.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpPow, bin.Op)
	_, leftIsNumber := bin.Left.(*ast.NumberLit)
	assert.True(t, leftIsNumber)
	_, rightIsPow := bin.Right.(*ast.BinaryExpr)
	assert.True(t, rightIsPow)
}

func TestParseCollectsMultipleErrors(t *testing.T) {
	p, err := New(strings.NewReader(`let = ; let = ; let B = Point();`))
	require.NoError(t, err)
	_, err = p.Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
}

func TestParseNegationPrefix(t *testing.T) {
	f := parse(t, `!a = b;`)
	rule := f.Stmts[0].(*ast.Rule)
	assert.True(t, rule.Chain.Negated)
}
