package unroll

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-aid/geoaid/parser"
	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/value"
)

func build(t *testing.T, src string) (*Program, error) {
	t.Helper()
	p, err := parser.New(strings.NewReader(src))
	require.NoError(t, err)
	f, err := p.Parse()
	require.NoError(t, err)
	return New().Unroll(f)
}

// Boundary (a): a lone free point with no rules has quality 1 immediately
// (spec.md §7).
func TestBoundaryFreePointNoRules(t *testing.T) {
	prog, err := build(t, `let A = point();`)
	require.NoError(t, err)
	require.Len(t, prog.Entities.Entities, 1)
	assert.Equal(t, pool.FreePoint, prog.Entities.Entities[0].Kind)
	assert.Empty(t, prog.Rules)
}

// Boundary (b): a point constrained to lie on two distinct curves stays a
// FreePoint (both lies_on rules are kept as soft constraints) rather than
// being narrowed to a single curve parameterization.
func TestBoundaryPointOnTwoCurvesStaysFree(t *testing.T) {
	prog, err := build(t, `
let A, B = Point();
let C, D = Point();
let k = line(A, B);
let c = circle(C, dst(A, B));
let P = point();
P lies_on k;
P lies_on c;
`)
	require.NoError(t, err)
	var pEnt pool.Entity
	found := false
	for _, e := range prog.Entities.Entities {
		if e.Kind == pool.FreePoint {
			pEnt = e
			found = true
		}
	}
	require.True(t, found)
	// P is the last entity declared; the last FreePoint found must be P.
	require.Len(t, prog.Entities.Entities, 5)
	assert.Equal(t, prog.Entities.Entities[4], pEnt)
}

// A point constrained by a single lies_on narrows to PointOnLine.
func TestEntityNarrowsToPointOnLine(t *testing.T) {
	prog, err := build(t, `
let A, B = Point();
let k = line(A, B);
let P = point();
P lies_on k;
`)
	require.NoError(t, err)
	var narrowed bool
	for _, e := range prog.Entities.Entities {
		if e.Kind == pool.PointOnLine {
			narrowed = true
		}
	}
	assert.True(t, narrowed)
}

// Scenario 1: midpoint.
func TestScenarioMidpoint(t *testing.T) {
	prog, err := build(t, `
let A, B = Point();
let M = mid(A, B);
`)
	require.NoError(t, err)
	require.Len(t, prog.Entities.Entities, 2)
	var found bool
	for _, e := range prog.Pool.All() {
		if e.Kind == pool.AveragePoint {
			found = true
		}
	}
	assert.True(t, found)
}

// Scenario 2: intersection of two lines through four free points.
func TestScenarioIntersection(t *testing.T) {
	prog, err := build(t, `
let A, B, C, D = Point();
let X = intersection(line(A,B), line(C,D));
`)
	require.NoError(t, err)
	var found bool
	for _, e := range prog.Pool.All() {
		if e.Kind == pool.LineLineIntersection {
			found = true
		}
	}
	assert.True(t, found)
}

// vertical(point)/horizontal(point) build a fixed-axis AxisLine node
// through the given point and evaluate to the expected direction.
func TestVerticalAndHorizontalBuildAxisAlignedLines(t *testing.T) {
	prog, err := build(t, `
let A = point();
let v = vertical(A);
let h = horizontal(A);
? v;
? h;
`)
	require.NoError(t, err)
	require.Len(t, prog.Queries, 2)

	var axisCount int
	for _, e := range prog.Pool.All() {
		if e.Kind == pool.AxisLine {
			axisCount++
		}
	}
	assert.Equal(t, 2, axisCount)

	ev := pool.NewEvaluator(prog.Pool, prog.Entities, []float64{3, 4})
	vv, err := ev.Value(prog.Queries[0])
	require.NoError(t, err)
	vln, ok := vv.(value.Ln)
	require.True(t, ok)
	assert.InDelta(t, 0, real(vln.Direction), 1e-12)
	assert.InDelta(t, 1, imag(vln.Direction), 1e-12)

	hv, err := ev.Value(prog.Queries[1])
	require.NoError(t, err)
	hln, ok := hv.(value.Ln)
	require.True(t, ok)
	assert.InDelta(t, 1, real(hln.Direction), 1e-12)
	assert.InDelta(t, 0, imag(hln.Direction), 1e-12)
}

// Scenario 4: unit conversion through radians() is the identity on an
// angle, which is already stored in radians.
func TestScenarioUnitConversion(t *testing.T) {
	prog, err := build(t, `
let a = 30deg;
let b = rad(a);
? b;
`)
	require.NoError(t, err)
	require.Len(t, prog.Queries, 1)
	ev := pool.NewEvaluator(prog.Pool, prog.Entities, nil)
	v, err := ev.Value(prog.Queries[0])
	require.NoError(t, err)
	scl, ok := v.(value.Scl)
	require.True(t, ok)
	assert.InDelta(t, 3.141592653589793/6, scl.X, 1e-9)
}

// A property block attached to a rule statement (rather than a let) is a
// PropertyError, not a generic parse failure (spec.md's ambiguity-
// resolution (c): "attaching it to a rule is a PropertyError").
func TestRuleStmtWithPropertyBlockIsPropertyError(t *testing.T) {
	_, err := build(t, `
let a = 1cm;
let b = 2cm;
a < b [display = true];
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property")
}

// degrees()/radians() reject a distance-dimensioned scalar at compile
// time instead of silently tagging it Dimensionless (spec.md §3's
// trigonometric validity rule).
func TestDegreesRejectsNonAngleDimension(t *testing.T) {
	_, err := build(t, `
let A, B = Point();
let d = dst(A, B);
let x = degrees(d);
`)
	require.Error(t, err)
}

// Scenario 5: overload resolution picks the Scalar/Scalar mid() overload
// for two distances, and mid(A, 1cm) with a mismatched Point/Scalar
// argument pair is rejected.
func TestScenarioOverloadAmbiguity(t *testing.T) {
	prog, err := build(t, `
let c = mid(1cm, 2cm);
? c;
`)
	require.NoError(t, err)
	ev := pool.NewEvaluator(prog.Pool, prog.Entities, nil)
	v, err := ev.Value(prog.Queries[0])
	require.NoError(t, err)
	scl, ok := v.(value.Scl)
	require.True(t, ok)
	assert.InDelta(t, 1.5, scl.X, 1e-9)

	_, err = build(t, `
let A = point();
let c = mid(A, 1cm);
`)
	require.Error(t, err)
}

// Scenario 6: an iterator argument to intersection() binds P, Q, R to the
// three intersections with k in order.
func TestScenarioIteration(t *testing.T) {
	prog, err := build(t, `
let l1 = line(point(), point());
let l2 = line(point(), point());
let l3 = line(point(), point());
let k = line(point(), point());
let P, Q, R = intersection((l1, l2, l3), k);
`)
	require.NoError(t, err)
	var count int
	for _, e := range prog.Pool.All() {
		if e.Kind == pool.LineLineIntersection {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestCollectsMultipleErrors(t *testing.T) {
	_, err := build(t, `
let a = 1cm + 1deg;
let b = undefined_name;
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
}
