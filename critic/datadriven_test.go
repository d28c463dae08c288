package critic

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/value"
)

// TestQualityFormulas exercises the quality/sigmoid formulas across a
// table of scenarios (spec.md §4.4), one command per rule shape. Golden
// files let the table grow without every case needing its own Go
// function, the way the dolt engine test suite drives SQL behavior from
// testdata rather than one-off TestXxx functions per query.
func TestQualityFormulas(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, td *datadriven.TestData) string {
			switch td.Cmd {
			case "equal-points":
				var ax, ay, bx, by float64
				td.ScanArgs(t, "ax", &ax)
				td.ScanArgs(t, "ay", &ay)
				td.ScanArgs(t, "bx", &bx)
				td.ScanArgs(t, "by", &by)
				p := pool.New()
				tab := pool.NewEntityTable()
				ea := tab.Add(pool.FreePoint, -1)
				eb := tab.Add(pool.FreePoint, -1)
				ai, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: ea, ValueType: value.Point()})
				bi, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: eb, ValueType: value.Point()})
				prog := New(p, tab, []Rule{{Kind: Equal, A: ai, B: bi, SegmentB: -1, Weight: 1}})
				res, err := prog.Evaluate([]float64{ax, ay, bx, by})
				if err != nil {
					return fmt.Sprintf("error: %s\n", err)
				}
				return fmt.Sprintf("total=%.6f\n", res.Total)

			case "less-scalars":
				var a, b float64
				td.ScanArgs(t, "a", &a)
				td.ScanArgs(t, "b", &b)
				p := pool.New()
				tab := pool.NewEntityTable()
				ea := tab.Add(pool.FreeReal, -1)
				eb := tab.Add(pool.FreeReal, -1)
				ai, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: ea, ValueType: value.Scalar(value.Distance())})
				bi, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: eb, ValueType: value.Scalar(value.Distance())})
				prog := New(p, tab, []Rule{{Kind: Less, A: ai, B: bi, SegmentB: -1, Weight: 1}})
				res, err := prog.Evaluate([]float64{a, b})
				if err != nil {
					return fmt.Sprintf("error: %s\n", err)
				}
				return fmt.Sprintf("total=%.6f\n", res.Total)

			case "lies-on-line":
				var px, py, ax, ay, bx, by float64
				td.ScanArgs(t, "px", &px)
				td.ScanArgs(t, "py", &py)
				td.ScanArgs(t, "ax", &ax)
				td.ScanArgs(t, "ay", &ay)
				td.ScanArgs(t, "bx", &bx)
				td.ScanArgs(t, "by", &by)
				p := pool.New()
				tab := pool.NewEntityTable()
				ept := tab.Add(pool.FreePoint, -1)
				ea := tab.Add(pool.FreePoint, -1)
				eb := tab.Add(pool.FreePoint, -1)
				pti, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: ept, ValueType: value.Point()})
				ai, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: ea, ValueType: value.Point()})
				bi, _ := p.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: eb, ValueType: value.Point()})
				lni, _ := p.Intern(pool.Expr{Kind: pool.PointPointLine, Operands: []int{ai, bi}, ValueType: value.Line()})
				prog := New(p, tab, []Rule{{Kind: LiesOn, A: pti, B: lni, SegmentB: -1, Weight: 1}})
				res, err := prog.Evaluate([]float64{px, py, ax, ay, bx, by})
				if err != nil {
					return fmt.Sprintf("error: %s\n", err)
				}
				return fmt.Sprintf("total=%.6f\n", res.Total)

			default:
				return fmt.Sprintf("unknown command %q\n", td.Cmd)
			}
		})
	})
}
