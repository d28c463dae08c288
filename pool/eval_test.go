package pool

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-aid/geoaid/value"
)

func TestEvaluatorMidpoint(t *testing.T) {
	p := New()
	tab := NewEntityTable()
	a := tab.Add(FreePoint, -1)
	b := tab.Add(FreePoint, -1)
	ai, _ := p.Intern(Expr{Kind: Entity, EntityIndex: a, ValueType: value.Point()})
	bi, _ := p.Intern(Expr{Kind: Entity, EntityIndex: b, ValueType: value.Point()})
	mi, err := p.Intern(Expr{Kind: AveragePoint, Operands: []int{ai, bi}, ValueType: value.Point()})
	require.NoError(t, err)

	x := []float64{0, 0, 4, 2}
	ev := NewEvaluator(p, tab, x)
	m, err := ev.Value(mi)
	require.NoError(t, err)
	mp := m.(value.Pt)
	assert.InDelta(t, 2.0, mp.X(), 1e-9)
	assert.InDelta(t, 1.0, mp.Y(), 1e-9)
}

func TestEvaluatorLineLineIntersection(t *testing.T) {
	p := New()
	tab := NewEntityTable()
	a := tab.Add(FreePoint, -1)
	b := tab.Add(FreePoint, -1)
	c := tab.Add(FreePoint, -1)
	d := tab.Add(FreePoint, -1)
	ai, _ := p.Intern(Expr{Kind: Entity, EntityIndex: a, ValueType: value.Point()})
	bi, _ := p.Intern(Expr{Kind: Entity, EntityIndex: b, ValueType: value.Point()})
	ci, _ := p.Intern(Expr{Kind: Entity, EntityIndex: c, ValueType: value.Point()})
	di, _ := p.Intern(Expr{Kind: Entity, EntityIndex: d, ValueType: value.Point()})
	l1, _ := p.Intern(Expr{Kind: PointPointLine, Operands: []int{ai, bi}, ValueType: value.Line()})
	l2, _ := p.Intern(Expr{Kind: PointPointLine, Operands: []int{ci, di}, ValueType: value.Line()})
	xi, err := p.Intern(Expr{Kind: LineLineIntersection, Operands: []int{l1, l2}, ValueType: value.Point()})
	require.NoError(t, err)

	// Line 1: (0,0)-(2,2); Line 2: (0,2)-(2,0); intersection at (1,1).
	x := []float64{0, 0, 2, 2, 0, 2, 2, 0}
	ev := NewEvaluator(p, tab, x)
	v, err := ev.Value(xi)
	require.NoError(t, err)
	pt := v.(value.Pt)
	assert.InDelta(t, 1.0, pt.X(), 1e-9)
	assert.InDelta(t, 1.0, pt.Y(), 1e-9)
}

func TestLineCircleIntersectionTieBreakPicksSmallerXThenY(t *testing.T) {
	ln := value.Ln{Origin: complex(0, 0), Direction: complex(1, 0)}
	c := value.Circ{Center: complex(0, 0), Radius: 1}
	pts, err := lineCircleIntersections(ln, c)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	got := pickSmaller(pts)
	assert.InDelta(t, -1.0, got.X(), 1e-9)
}

func TestEvaluatorPointPointDistance(t *testing.T) {
	p := New()
	tab := NewEntityTable()
	a := tab.Add(FreePoint, -1)
	b := tab.Add(FreePoint, -1)
	ai, _ := p.Intern(Expr{Kind: Entity, EntityIndex: a, ValueType: value.Point()})
	bi, _ := p.Intern(Expr{Kind: Entity, EntityIndex: b, ValueType: value.Point()})
	di, err := p.Intern(Expr{Kind: PointPointDistance, Operands: []int{ai, bi}, ValueType: value.Scalar(value.Distance())})
	require.NoError(t, err)

	ev := NewEvaluator(p, tab, []float64{0, 0, 3, 4})
	v, err := ev.Value(di)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v.(value.Scl).X, 1e-9)
}

func TestEvaluatorThreePointAngleIsUnsigned(t *testing.T) {
	p := New()
	tab := NewEntityTable()
	a := tab.Add(FreePoint, -1)
	v := tab.Add(FreePoint, -1)
	b := tab.Add(FreePoint, -1)
	ai, _ := p.Intern(Expr{Kind: Entity, EntityIndex: a, ValueType: value.Point()})
	vi, _ := p.Intern(Expr{Kind: Entity, EntityIndex: v, ValueType: value.Point()})
	bi, _ := p.Intern(Expr{Kind: Entity, EntityIndex: b, ValueType: value.Point()})
	ang, err := p.Intern(Expr{Kind: ThreePointAngle, Operands: []int{ai, vi, bi}, ValueType: value.Scalar(value.Angle())})
	require.NoError(t, err)

	// A=(1,0), V=(0,0), B=(0,1): right angle.
	ev := NewEvaluator(p, tab, []float64{1, 0, 0, 0, 0, 1})
	res, err := ev.Value(ang)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, res.(value.Scl).X, 1e-9)
}
