package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityTableAssignsOffsets(t *testing.T) {
	tab := NewEntityTable()
	p1 := tab.Add(FreePoint, -1)
	s1 := tab.Add(FreeReal, -1)
	p2 := tab.Add(PointOnLine, 7)

	assert.Equal(t, 0, tab.Entities[p1].AdjustOffset)
	assert.Equal(t, 2, tab.Entities[s1].AdjustOffset)
	assert.Equal(t, 3, tab.Entities[p2].AdjustOffset)
	assert.Equal(t, 7, tab.Entities[p2].CurveIndex)
	assert.Equal(t, 4, tab.NumAdj)
}

func TestEntityTagsCoverClosedSet(t *testing.T) {
	for _, k := range []EntityKind{FreePoint, PointOnLine, PointOnCircle, FreeReal} {
		assert.NotEmpty(t, k.Tag())
	}
}
