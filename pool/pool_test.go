package pool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-aid/geoaid/value"
)

func TestInternDedupesCommutativeSum(t *testing.T) {
	p := New()
	a, err := p.Intern(Expr{Kind: Entity, EntityIndex: 0, ValueType: value.Scalar(value.Distance())})
	require.NoError(t, err)
	b, err := p.Intern(Expr{Kind: Entity, EntityIndex: 1, ValueType: value.Scalar(value.Distance())})
	require.NoError(t, err)

	ab, err := p.Intern(Expr{Kind: Sum, Operands: []int{a, b}, ValueType: value.Scalar(value.Distance())})
	require.NoError(t, err)
	ba, err := p.Intern(Expr{Kind: Sum, Operands: []int{b, a}, ValueType: value.Scalar(value.Distance())})
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
	assert.Equal(t, 3, p.Len())
}

func TestInternKeepsConstsOfDifferentDimensionsDistinct(t *testing.T) {
	p := New()
	distZero, err := p.Intern(Expr{Kind: Const, ConstValue: 0, ValueType: value.Scalar(value.Distance())})
	require.NoError(t, err)
	angleZero, err := p.Intern(Expr{Kind: Const, ConstValue: 0, ValueType: value.Scalar(value.Angle())})
	require.NoError(t, err)

	assert.NotEqual(t, distZero, angleZero)
}

func TestInternRejectsForwardReference(t *testing.T) {
	p := New()
	_, err := p.Intern(Expr{Kind: Sum, Operands: []int{5}})
	assert.ErrorIs(t, err, ErrForwardReference)
}

func TestInternDistinguishesDifferentExponents(t *testing.T) {
	p := New()
	a, err := p.Intern(Expr{Kind: Entity, EntityIndex: 0, ValueType: value.Scalar(value.Distance())})
	require.NoError(t, err)

	sq, err := p.Intern(Expr{Kind: Power, Operands: []int{a}, Exponent: big.NewRat(2, 1)})
	require.NoError(t, err)
	cube, err := p.Intern(Expr{Kind: Power, Operands: []int{a}, Exponent: big.NewRat(3, 1)})
	require.NoError(t, err)

	assert.NotEqual(t, sq, cube)
}

func TestKindTagsAreTheClosedExportSet(t *testing.T) {
	for k, tag := range kindTags {
		assert.NotEmpty(t, tag, "kind %v has no export tag", k)
	}
	assert.Equal(t, "line-circle-intersection", LineCircleIntersection.Tag())
	assert.Equal(t, "construct-circle", ConstructCircle.Tag())
}

func TestAllReturnsExprsInIndexOrder(t *testing.T) {
	p := New()
	first, _ := p.Intern(Expr{Kind: Entity, EntityIndex: 0})
	second, _ := p.Intern(Expr{Kind: Entity, EntityIndex: 1})
	all := p.All()
	require.Len(t, all, 2)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}
