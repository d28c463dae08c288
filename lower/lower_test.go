package lower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-aid/geoaid/parser"
	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/unroll"
)

func build(t *testing.T, src string) *Program {
	t.Helper()
	p, err := parser.New(strings.NewReader(src))
	require.NoError(t, err)
	f, err := p.Parse()
	require.NoError(t, err)
	up, err := unroll.New().Unroll(f)
	require.NoError(t, err)
	lp, err := Lower(up)
	require.NoError(t, err)
	return lp
}

// midpoint(A,A) collapses to A: a query on mid(A,A) resolves to the same
// pool index as a query on A itself.
func TestMidpointOfSamePointCollapses(t *testing.T) {
	prog := build(t, `
let A = point();
let M = mid(A, A);
? M;
? A;
`)
	require.Len(t, prog.Queries, 2)
	assert.Equal(t, prog.Queries[1], prog.Queries[0])
	for _, e := range prog.Pool.All() {
		assert.NotEqual(t, pool.AveragePoint, e.Kind)
	}
}

// distance(P,P) folds to the constant 0.
func TestDistanceToSelfIsZero(t *testing.T) {
	prog := build(t, `
let A = point();
let d = dst(A, A);
? d;
`)
	require.Len(t, prog.Queries, 1)
	e := prog.Pool.Get(prog.Queries[0])
	assert.Equal(t, pool.Const, e.Kind)
	assert.Equal(t, 0.0, e.ConstValue)
}

// intersection(line(A,B), line(B,C)) collapses to B.
func TestLineIntersectionSharedPointCollapses(t *testing.T) {
	prog := build(t, `
let A, B, C = Point();
let k = line(A, B);
let l = line(B, C);
let X = intersection(k, l);
? X;
? B;
`)
	require.Len(t, prog.Queries, 2)
	assert.Equal(t, prog.Queries[1], prog.Queries[0])
	for _, e := range prog.Pool.All() {
		assert.NotEqual(t, pool.LineLineIntersection, e.Kind)
	}
}

// bisector(A,B,A) collapses to line(A,B).
func TestBisectorOfSameArmsCollapsesToLine(t *testing.T) {
	prog := build(t, `
let A, B = Point();
let k = bisector(A, B, A);
? k;
`)
	require.Len(t, prog.Queries, 1)
	e := prog.Pool.Get(prog.Queries[0])
	assert.Equal(t, pool.PointPointLine, e.Kind)
}

// Constant folding collapses a sum of two literals into one Const node.
func TestConstantFoldingOfLiterals(t *testing.T) {
	prog := build(t, `
let s = 1cm + 2cm;
? s;
`)
	e := prog.Pool.Get(prog.Queries[0])
	require.Equal(t, pool.Const, e.Kind)
	assert.InDelta(t, 3.0, e.ConstValue, 1e-9)
}

// The critic-reachable set only contains what a rule touches; the
// figure-reachable set additionally contains a plain displayed point
// that no rule mentions.
func TestReachabilitySplit(t *testing.T) {
	prog := build(t, `
let A, B = Point();
let C = point();
A = B;
? C;
`)
	require.NotEmpty(t, prog.CriticReachable)
	require.NotEmpty(t, prog.FigureReachable)
	for idx := range prog.CriticReachable {
		assert.True(t, prog.FigureReachable[idx], "figure program must contain everything critic needs")
	}

	var cIdx int
	found := false
	for _, idx := range prog.Queries {
		cIdx = idx
		found = true
	}
	require.True(t, found)
	assert.True(t, prog.FigureReachable[cIdx])
	assert.False(t, prog.CriticReachable[cIdx])
}

// Lowering an already-lowered program is a fixed point: running it
// twice produces a pool of the same size (spec.md §9 "Idempotence").
func TestLoweringIsIdempotent(t *testing.T) {
	prog := build(t, `
let A, B, C = Point();
let M = mid(A, B);
let k = line(A, C);
let X = point();
X lies_on k;
`)
	again, remap := simplifyToFixedPoint(prog.Pool)
	assert.Equal(t, prog.Pool.Len(), again.Len())
	for i := range remap {
		assert.Equal(t, i, remap[i])
	}
}
