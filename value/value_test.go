package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDimensionArithmetic(t *testing.T) {
	d := Distance().Add(Distance())
	assert.True(t, d.Equal(NewDimension(2, 0, 0)))
	assert.True(t, d.IsInteger())

	half := Distance().Scale(NewDimension(0, 0, 0).Scalar) // scale by 0
	assert.True(t, half.IsDimensionless())
}

func TestTypeEqual(t *testing.T) {
	assert.True(t, Scalar(Distance()).Equal(Scalar(Distance())))
	assert.False(t, Scalar(Distance()).Equal(Scalar(Angle())))
	assert.True(t, PointCollection(3).Equal(PointCollection(3)))
	assert.False(t, PointCollection(3).Equal(PointCollection(2)))
}

func TestCoerceToDistanceIdentityOnDistance(t *testing.T) {
	// spec.md §9 open question (a): dst() on an already-distance scalar is
	// the identity.
	s := Scl{X: 4, Dim: Distance()}
	got, ok := CoerceToDistance(s)
	assert.True(t, ok)
	assert.Equal(t, s, got)
}

func TestCoerceToDistanceFromDimensionless(t *testing.T) {
	s := Scl{X: 4, Dim: Dimensionless()}
	got, ok := CoerceToDistance(s)
	assert.True(t, ok)
	assert.True(t, got.Dim.Equal(Distance()))
}

func TestCoerceToDistanceRejectsAngle(t *testing.T) {
	_, ok := CoerceToDistance(Scl{X: 4, Dim: Angle()})
	assert.False(t, ok)
}

func TestAsPointsFromCollectionAndSinglePoint(t *testing.T) {
	pts, ok := AsPoints(Coll{1, 2, 3})
	assert.True(t, ok)
	assert.Len(t, pts, 3)

	pts, ok = AsPoints(Pt(5))
	assert.True(t, ok)
	assert.Equal(t, []Pt{5}, pts)
}

func TestAsSegmentRequiresTwoPoints(t *testing.T) {
	_, _, ok := AsSegment(Coll{1, 2, 3})
	assert.False(t, ok)

	a, b, ok := AsSegment(Coll{1, 2})
	assert.True(t, ok)
	assert.Equal(t, Pt(1), a)
	assert.Equal(t, Pt(2), b)
}
