package geoerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindIs(t *testing.T) {
	err := ErrType.New("distance + angle")
	assert.True(t, ErrType.Is(err))
	assert.False(t, ErrName.Is(err))
}

func TestSpannedErrorUnwraps(t *testing.T) {
	base := ErrName.New("undeclared identifier 'Q'")
	spanned := New(base, Span{Start: 4, End: 5})

	require.Error(t, spanned)
	assert.True(t, ErrName.Is(spanned.Unwrap()))
	assert.Contains(t, spanned.Error(), "[4:5]")
}

func TestWithSpanNilIsNil(t *testing.T) {
	assert.Nil(t, WithSpan(nil, Span{}))
}
