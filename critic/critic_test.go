package critic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/value"
)

func twoFreePoints(t *testing.T) (*pool.Pool, *pool.EntityTable, int, int) {
	t.Helper()
	p := pool.New()
	tab := pool.NewEntityTable()
	a := tab.Add(pool.FreePoint, -1)
	b := tab.Add(pool.FreePoint, -1)
	ai, err := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: a, ValueType: value.Point()})
	require.NoError(t, err)
	bi, err := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: b, ValueType: value.Point()})
	require.NoError(t, err)
	return p, tab, ai, bi
}

func TestEqualRuleQualityIsOneWhenCoincident(t *testing.T) {
	p, tab, ai, bi := twoFreePoints(t)
	prog := New(p, tab, []Rule{{Kind: Equal, A: ai, B: bi, Weight: 1}})
	res, err := prog.Evaluate([]float64{1, 1, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Total, 1e-9)
}

func TestEqualRuleQualityDropsWithDistance(t *testing.T) {
	p, tab, ai, bi := twoFreePoints(t)
	prog := New(p, tab, []Rule{{Kind: Equal, A: ai, B: bi, Weight: 1}})
	res, err := prog.Evaluate([]float64{0, 0, 100, 100})
	require.NoError(t, err)
	assert.Less(t, res.Total, 0.1)
}

func TestNoRulesConvergesImmediately(t *testing.T) {
	p := pool.New()
	tab := pool.NewEntityTable()
	prog := New(p, tab, nil)
	res, err := prog.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Total)
}

func TestNotRuleComplementsQuality(t *testing.T) {
	p, tab, ai, bi := twoFreePoints(t)
	inner := Rule{Kind: Equal, A: ai, B: bi, Weight: 1}
	prog := New(p, tab, []Rule{{Kind: Not, Inner: &inner, Weight: 1}})
	res, err := prog.Evaluate([]float64{0, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Total, 1e-9)
}

func TestLessRuleSigmoidCrossesHalfAtEquality(t *testing.T) {
	p := pool.New()
	tab := pool.NewEntityTable()
	a := tab.Add(pool.FreeReal, -1)
	b := tab.Add(pool.FreeReal, -1)
	ai, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: a, ValueType: value.Scalar(value.Distance())})
	bi, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: b, ValueType: value.Scalar(value.Distance())})
	prog := New(p, tab, []Rule{{Kind: Less, A: ai, B: bi, Weight: 1}})
	res, err := prog.Evaluate([]float64{5, 5})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Total, 1e-9)
}

func TestLiesOnLineQualityIsOneWhenOnLine(t *testing.T) {
	p := pool.New()
	tab := pool.NewEntityTable()
	pt := tab.Add(pool.FreePoint, -1)
	a := tab.Add(pool.FreePoint, -1)
	b := tab.Add(pool.FreePoint, -1)
	pti, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: pt, ValueType: value.Point()})
	ai, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: a, ValueType: value.Point()})
	bi, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: b, ValueType: value.Point()})
	lni, err := p.Intern(pool.Expr{Kind: pool.PointPointLine, Operands: []int{ai, bi}, ValueType: value.Line()})
	require.NoError(t, err)

	prog := New(p, tab, []Rule{{Kind: LiesOn, A: pti, B: lni, SegmentB: -1, Weight: 1}})
	// P=(1,1) on the line through (0,0)-(2,2).
	res, err := prog.Evaluate([]float64{1, 1, 0, 0, 2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Total, 1e-6)
}
