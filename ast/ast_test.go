package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberLitFloatCombinesPartsSeparately(t *testing.T) {
	n := &NumberLit{IntPart: "12", FracPart: "45"}
	got, err := n.Float()
	require.NoError(t, err)
	assert.InDelta(t, 12.45, got, 1e-12)
}

func TestNumberLitFloatNoFraction(t *testing.T) {
	n := &NumberLit{IntPart: "7"}
	got, err := n.Float()
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestNumberLitFloatLeadingZeroFraction(t *testing.T) {
	// "1.05" must not collapse to 1.5: the fractional part keeps its
	// length-implied scale even with leading zeros.
	n := &NumberLit{IntPart: "1", FracPart: "05"}
	got, err := n.Float()
	require.NoError(t, err)
	assert.InDelta(t, 1.05, got, 1e-12)
}
