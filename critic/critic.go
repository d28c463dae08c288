// Package critic compiles a rule list into quality evaluators: pure
// functions q: ℝⁿ → [0,1] where 1 means "perfectly satisfied" (spec.md
// §4.4). The generator calls Program.Evaluate once per candidate
// adjustable vector.
package critic

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/value"
)

// Kind enumerates the rule relations (spec.md §3 "Rules").
type Kind int

const (
	Equal Kind = iota
	Less
	LiesOn
	Not
)

// Rule is one compiled rule: a relation between pool indices A and B
// (LiesOn's B may name a Line, Circle, or a two-point Segment pair via
// SegmentB), with an optional weight (default 1) and, for Not, a single
// Inner rule whose quality is complemented.
type Rule struct {
	Kind    Kind
	A       int
	B       int
	SegmentB int // second endpoint index; valid only when LiesOn target is a Segment (-1 otherwise)
	Weight  float64
	Inner   *Rule // non-nil only for Kind == Not
}

// Program is a compiled, read-only rule list plus the pool it evaluates
// against (spec.md §5 "critic program is read-only after compilation").
type Program struct {
	Pool    *pool.Pool
	Entities *pool.EntityTable
	Rules   []Rule
}

// New returns a Program over p/entities with the given compiled rules.
func New(p *pool.Pool, entities *pool.EntityTable, rules []Rule) *Program {
	return &Program{Pool: p, Entities: entities, Rules: rules}
}

// boundingScale is the distance scale σ used by equal/lies_on quality
// formulas (spec.md §4.4: "for distances, the current bounding radius of
// the figure"). A fixed scale keeps quality comparable across cycles
// without recomputing a convex hull every evaluation; the scale does not
// follow the figure's actual extent.
const boundingScale = 10.0

// angleScale is σ for angle-dimensioned equal/less comparisons (spec.md
// §4.4: "for angles, π/4").
const angleScale = math.Pi / 4

// Result is the outcome of evaluating a Program: total weighted quality
// and the per-rule qualities it was built from.
type Result struct {
	Total     float64
	PerRule   []float64
}

// Evaluate computes every rule's quality against adjustable vector x and
// returns the weight-normalized total (spec.md §4.4 "Total quality").
func (p *Program) Evaluate(x []float64) (Result, error) {
	ev := pool.NewEvaluator(p.Pool, p.Entities, x)
	per := make([]float64, len(p.Rules))
	var weighted, totalWeight float64
	for i, r := range p.Rules {
		q, err := p.evalRule(ev, r)
		if err != nil {
			return Result{}, errors.Wrapf(err, "critic: rule %d", i)
		}
		per[i] = q
		w := r.Weight
		if w == 0 {
			w = 1
		}
		weighted += w * q
		totalWeight += w
	}
	total := 1.0
	if totalWeight > 0 {
		total = weighted / totalWeight
	}
	return Result{Total: total, PerRule: per}, nil
}

func (p *Program) evalRule(ev *pool.Evaluator, r Rule) (q float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = geoerr.ErrInternal.New(fmt.Sprintf("critic: evaluator panicked: %v", rec))
		}
	}()
	switch r.Kind {
	case Equal:
		return p.evalEqual(ev, r.A, r.B)
	case Less:
		return p.evalLess(ev, r.A, r.B)
	case LiesOn:
		return p.evalLiesOn(ev, r)
	case Not:
		inner, err := p.evalRule(ev, *r.Inner)
		if err != nil {
			return 0, err
		}
		return 1 - inner, nil
	default:
		return 0, geoerr.ErrInternal.New(fmt.Sprintf("critic: unknown rule kind %v", r.Kind))
	}
}

func quality(d2, sigma float64) float64 {
	return 1 / (1 + d2/(sigma*sigma))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func (p *Program) evalEqual(ev *pool.Evaluator, a, b int) (float64, error) {
	va, err := ev.Value(a)
	if err != nil {
		return 0, err
	}
	vb, err := ev.Value(b)
	if err != nil {
		return 0, err
	}
	d2, sigma, err := equalDistance2(va, vb)
	if err != nil {
		return 0, err
	}
	return quality(d2, sigma), nil
}

func equalDistance2(va, vb value.Value) (d2, sigma float64, err error) {
	switch a := va.(type) {
	case value.Pt:
		b, ok := vb.(value.Pt)
		if !ok {
			return 0, 0, fmt.Errorf("critic: equal(Point, %s) is ill-typed", vb.Type())
		}
		diff := complex128(a) - complex128(b)
		return real(diff)*real(diff) + imag(diff)*imag(diff), boundingScale, nil
	case value.Scl:
		b, ok := vb.(value.Scl)
		if !ok {
			return 0, 0, fmt.Errorf("critic: equal(Scalar, %s) is ill-typed", vb.Type())
		}
		d := a.X - b.X
		sigma := boundingScale
		if a.Dim.Equal(value.Angle()) {
			sigma = angleScale
		}
		return d * d, sigma, nil
	case value.Ln:
		b, ok := vb.(value.Ln)
		if !ok {
			return 0, 0, fmt.Errorf("critic: equal(Line, %s) is ill-typed", vb.Type())
		}
		d := lineLineDistance(a, b)
		return d * d, boundingScale, nil
	case value.Circ:
		b, ok := vb.(value.Circ)
		if !ok {
			return 0, 0, fmt.Errorf("critic: equal(Circle, %s) is ill-typed", vb.Type())
		}
		dc := a.Center - b.Center
		dr := a.Radius - b.Radius
		return real(dc)*real(dc) + imag(dc)*imag(dc) + dr*dr, boundingScale, nil
	default:
		return 0, 0, fmt.Errorf("critic: equal is undefined for %s", va.Type())
	}
}

// lineLineDistance approximates "how far apart" two lines are: zero if
// they coincide, else the distance between their origins projected onto
// the angle mismatch plus a term for direction disagreement.
func lineLineDistance(a, b value.Ln) float64 {
	dirMismatch := 1 - math.Abs(real(a.Direction)*real(b.Direction)+imag(a.Direction)*imag(b.Direction))
	rel := a.Origin - b.Origin
	proj := complex(real(rel)*real(b.Direction)+imag(rel)*imag(b.Direction), 0) * b.Direction
	perp := rel - proj
	originDist := math.Hypot(real(perp), imag(perp))
	return originDist + dirMismatch*boundingScale
}

func (p *Program) evalLess(ev *pool.Evaluator, a, b int) (float64, error) {
	av, err := ev.Value(a)
	if err != nil {
		return 0, err
	}
	bv, err := ev.Value(b)
	if err != nil {
		return 0, err
	}
	va, ok := av.(value.Scl)
	if !ok {
		return 0, fmt.Errorf("critic: less requires Scalar operands, got %s", av.Type())
	}
	vb, ok := bv.(value.Scl)
	if !ok {
		return 0, fmt.Errorf("critic: less requires Scalar operands, got %s", bv.Type())
	}
	sigma := boundingScale
	if va.Dim.Equal(value.Angle()) {
		sigma = angleScale
	}
	d := vb.X - va.X
	return sigmoid(d / sigma), nil
}

func (p *Program) evalLiesOn(ev *pool.Evaluator, r Rule) (float64, error) {
	pt, err := ev.Value(r.A)
	if err != nil {
		return 0, err
	}
	pv, ok := pt.(value.Pt)
	if !ok {
		return 0, fmt.Errorf("critic: lies_on requires a Point operand, got %s", pt.Type())
	}
	if r.SegmentB >= 0 {
		bStart, err := ev.Value(r.B)
		if err != nil {
			return 0, err
		}
		bEnd, err := ev.Value(r.SegmentB)
		if err != nil {
			return 0, err
		}
		s, e := bStart.(value.Pt), bEnd.(value.Pt)
		return liesOnSegmentQuality(pv, s, e), nil
	}
	target, err := ev.Value(r.B)
	if err != nil {
		return 0, err
	}
	switch t := target.(type) {
	case value.Ln:
		d := distanceToLine(pv, t)
		return quality(d*d, boundingScale), nil
	case value.Circ:
		d := distanceToCircle(pv, t)
		return quality(d*d, boundingScale), nil
	default:
		return 0, fmt.Errorf("critic: lies_on target must be Line or Circle, got %s", target.Type())
	}
}

func distanceToLine(p value.Pt, ln value.Ln) float64 {
	rel := complex128(p) - ln.Origin
	proj := complex(real(rel)*real(ln.Direction)+imag(rel)*imag(ln.Direction), 0) * ln.Direction
	perp := rel - proj
	return math.Hypot(real(perp), imag(perp))
}

func distanceToCircle(p value.Pt, c value.Circ) float64 {
	d := complex128(p) - c.Center
	return math.Abs(math.Hypot(real(d), imag(d)) - c.Radius)
}

// liesOnSegmentQuality adds an out-of-bounds penalty (spec.md §4.4
// "lies_on(P, segment): distance to line plus a penalty if the foot of
// the perpendicular lies outside the segment") to the plain line
// distance.
func liesOnSegmentQuality(p, s, e value.Pt) float64 {
	ln := value.Ln{Origin: complex128(s)}
	dir := complex128(e) - complex128(s)
	length := math.Hypot(real(dir), imag(dir))
	if length == 0 {
		d := p - s
		return quality(real(d)*real(d)+imag(d)*imag(d), boundingScale)
	}
	ln.Direction = dir / complex(length, 0)
	d := distanceToLine(p, ln)

	rel := complex128(p) - ln.Origin
	t := (real(rel)*real(ln.Direction) + imag(rel)*imag(ln.Direction))
	penalty := 0.0
	if t < 0 {
		penalty = -t
	} else if t > length {
		penalty = t - length
	}
	return quality(d*d+penalty*penalty, boundingScale)
}
