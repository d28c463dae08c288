package pool

import (
	"fmt"
	"math"
	"math/big"
	"math/cmplx"

	"github.com/geo-aid/geoaid/value"
)

// Evaluator re-evaluates a Pool against a concrete adjustable vector
// (spec.md §4.6 "the figure program is re-evaluated at x*"; §4.4 "critic
// compiles to q: ℝⁿ → [0,1]", which evaluates the operand subexpressions
// the same way). Results are memoized per index for the lifetime of one
// Evaluator — callers create a fresh one per adjustable vector.
type Evaluator struct {
	pool     *Pool
	entities *EntityTable
	x        []float64
	cache    []value.Value
	done     []bool
}

// NewEvaluator returns an Evaluator over pool, ready to evaluate against
// adjustable vector x, using entities to map Entity nodes into x.
func NewEvaluator(pool *Pool, entities *EntityTable, x []float64) *Evaluator {
	return &Evaluator{
		pool:     pool,
		entities: entities,
		x:        x,
		cache:    make([]value.Value, pool.Len()),
		done:     make([]bool, pool.Len()),
	}
}

// Value evaluates (and memoizes) the expression at idx.
func (ev *Evaluator) Value(idx int) (value.Value, error) {
	if ev.done[idx] {
		return ev.cache[idx], nil
	}
	e := ev.pool.Get(idx)
	v, err := ev.eval(e)
	if err != nil {
		return nil, err
	}
	ev.cache[idx] = v
	ev.done[idx] = true
	return v, nil
}

func (ev *Evaluator) point(idx int) (value.Pt, error) {
	v, err := ev.Value(idx)
	if err != nil {
		return 0, err
	}
	p, ok := v.(value.Pt)
	if !ok {
		return 0, fmt.Errorf("pool: index %d is not a Point (%s)", idx, v.Type())
	}
	return p, nil
}

func (ev *Evaluator) line(idx int) (value.Ln, error) {
	v, err := ev.Value(idx)
	if err != nil {
		return value.Ln{}, err
	}
	l, ok := v.(value.Ln)
	if !ok {
		return value.Ln{}, fmt.Errorf("pool: index %d is not a Line (%s)", idx, v.Type())
	}
	return l, nil
}

func (ev *Evaluator) circle(idx int) (value.Circ, error) {
	v, err := ev.Value(idx)
	if err != nil {
		return value.Circ{}, err
	}
	c, ok := v.(value.Circ)
	if !ok {
		return value.Circ{}, fmt.Errorf("pool: index %d is not a Circle (%s)", idx, v.Type())
	}
	return c, nil
}

func (ev *Evaluator) scalar(idx int) (value.Scl, error) {
	v, err := ev.Value(idx)
	if err != nil {
		return value.Scl{}, err
	}
	s, ok := v.(value.Scl)
	if !ok {
		return value.Scl{}, fmt.Errorf("pool: index %d is not a Scalar (%s)", idx, v.Type())
	}
	return s, nil
}

func (ev *Evaluator) eval(e Expr) (value.Value, error) {
	switch e.Kind {
	case Entity:
		return ev.evalEntity(e)
	case Const:
		return value.Scl{X: e.ConstValue, Dim: e.ValueType.Dim}, nil
	case Sum:
		return ev.evalSum(e)
	case Product:
		return ev.evalProduct(e)
	case Power:
		return ev.evalPower(e)
	case LineLineIntersection:
		return ev.evalLineLineIntersection(e)
	case LineCircleIntersection:
		return ev.evalLineCircleIntersection(e)
	case AveragePoint:
		return ev.evalAveragePoint(e)
	case CircleCenter:
		c, err := ev.circle(e.Operands[0])
		if err != nil {
			return nil, err
		}
		return value.Pt(c.Center), nil
	case PointPointDistance:
		a, err := ev.point(e.Operands[0])
		if err != nil {
			return nil, err
		}
		b, err := ev.point(e.Operands[1])
		if err != nil {
			return nil, err
		}
		return value.Scl{X: cmplx.Abs(complex128(b) - complex128(a)), Dim: value.Distance()}, nil
	case PointLineDistance:
		return ev.evalPointLineDistance(e)
	case ThreePointAngle:
		return ev.evalThreePointAngle(e, false)
	case ThreePointAngleDir:
		return ev.evalThreePointAngle(e, true)
	case TwoLineAngle:
		return ev.evalTwoLineAngle(e)
	case PointX:
		p, err := ev.point(e.Operands[0])
		if err != nil {
			return nil, err
		}
		return value.Scl{X: p.X(), Dim: value.Distance()}, nil
	case PointY:
		p, err := ev.point(e.Operands[0])
		if err != nil {
			return nil, err
		}
		return value.Scl{X: p.Y(), Dim: value.Distance()}, nil
	case PointPointLine:
		a, err := ev.point(e.Operands[0])
		if err != nil {
			return nil, err
		}
		b, err := ev.point(e.Operands[1])
		if err != nil {
			return nil, err
		}
		return lineThrough(a, b), nil
	case AngleBisector:
		return ev.evalAngleBisector(e)
	case PerpendicularThrough:
		return ev.evalPerpendicularThrough(e)
	case ParallelThrough:
		return ev.evalParallelThrough(e)
	case AxisLine:
		return ev.evalAxisLine(e)
	case ConstructCircle:
		center, err := ev.point(e.Operands[0])
		if err != nil {
			return nil, err
		}
		radius, err := ev.scalar(e.Operands[1])
		if err != nil {
			return nil, err
		}
		return value.Circ{Center: complex128(center), Radius: radius.X}, nil
	default:
		return nil, fmt.Errorf("pool: unevaluable kind %v", e.Kind)
	}
}

func (ev *Evaluator) evalEntity(e Expr) (value.Value, error) {
	ent := ev.entities.Entities[e.EntityIndex]
	off := ent.AdjustOffset
	switch ent.Kind {
	case FreePoint:
		return value.Pt(complex(ev.x[off], ev.x[off+1])), nil
	case FreeReal:
		return value.Scl{X: ev.x[off], Dim: e.ValueType.Dim}, nil
	case PointOnLine:
		ln, err := ev.line(ent.CurveIndex)
		if err != nil {
			return nil, err
		}
		t := ev.x[off]
		return value.Pt(ln.Origin + complex(t, 0)*ln.Direction), nil
	case PointOnCircle:
		c, err := ev.circle(ent.CurveIndex)
		if err != nil {
			return nil, err
		}
		theta := ev.x[off]
		return value.Pt(c.Center + complex(c.Radius, 0)*cmplx.Exp(complex(0, theta))), nil
	default:
		return nil, fmt.Errorf("pool: unknown entity kind %v", ent.Kind)
	}
}

func (ev *Evaluator) evalSum(e Expr) (value.Value, error) {
	var total float64
	var dim value.Dimension
	for i, op := range e.Operands {
		s, err := ev.scalar(op)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			dim = s.Dim
		}
		total += s.X
	}
	return value.Scl{X: total, Dim: dim}, nil
}

func (ev *Evaluator) evalProduct(e Expr) (value.Value, error) {
	total := 1.0
	dim := value.Dimensionless()
	for _, op := range e.Operands {
		s, err := ev.scalar(op)
		if err != nil {
			return nil, err
		}
		total *= s.X
		dim = dim.Add(s.Dim)
	}
	return value.Scl{X: total, Dim: dim}, nil
}

func (ev *Evaluator) evalPower(e Expr) (value.Value, error) {
	base, err := ev.scalar(e.Operands[0])
	if err != nil {
		return nil, err
	}
	p, _ := new(big.Float).SetRat(e.Exponent).Float64()
	return value.Scl{X: math.Pow(base.X, p), Dim: base.Dim.Scale(e.Exponent)}, nil
}

func (ev *Evaluator) evalLineLineIntersection(e Expr) (value.Value, error) {
	l1, err := ev.line(e.Operands[0])
	if err != nil {
		return nil, err
	}
	l2, err := ev.line(e.Operands[1])
	if err != nil {
		return nil, err
	}
	return lineLineIntersection(l1, l2)
}

// lineLineIntersection solves l1.Origin + t*l1.Direction = l2.Origin +
// u*l2.Direction for t by 2x2 linear solve over the real/imaginary
// components.
func lineLineIntersection(l1, l2 value.Ln) (value.Pt, error) {
	d1, d2 := l1.Direction, l2.Direction
	det := real(d1)*imag(d2) - imag(d1)*real(d2)
	if math.Abs(det) < 1e-12 {
		return 0, fmt.Errorf("pool: parallel lines have no unique intersection")
	}
	diff := l2.Origin - l1.Origin
	t := (real(diff)*imag(d2) - imag(diff)*real(d2)) / det
	return value.Pt(l1.Origin + complex(t, 0)*d1), nil
}

// evalLineCircleIntersection resolves the Open Question (b) tie-break
// (spec.md §9): of the (up to) two intersection points, always return the
// one with smaller x, then smaller y.
func (ev *Evaluator) evalLineCircleIntersection(e Expr) (value.Value, error) {
	ln, err := ev.line(e.Operands[0])
	if err != nil {
		return nil, err
	}
	c, err := ev.circle(e.Operands[1])
	if err != nil {
		return nil, err
	}
	pts, err := lineCircleIntersections(ln, c)
	if err != nil {
		return nil, err
	}
	return pickSmaller(pts), nil
}

func lineCircleIntersections(ln value.Ln, c value.Circ) ([]value.Pt, error) {
	oc := ln.Origin - c.Center
	d := ln.Direction
	// |oc + t*d|^2 = r^2, a quadratic in t since |d| = 1.
	b := 2 * (real(oc)*real(d) + imag(oc)*imag(d))
	cc := real(oc)*real(oc) + imag(oc)*imag(oc) - c.Radius*c.Radius
	disc := b*b - 4*cc
	if disc < 0 {
		return nil, fmt.Errorf("pool: line does not meet circle")
	}
	sq := math.Sqrt(disc)
	t1 := (-b + sq) / 2
	t2 := (-b - sq) / 2
	p1 := value.Pt(ln.Origin + complex(t1, 0)*d)
	p2 := value.Pt(ln.Origin + complex(t2, 0)*d)
	return []value.Pt{p1, p2}, nil
}

func pickSmaller(pts []value.Pt) value.Pt {
	best := pts[0]
	for _, p := range pts[1:] {
		if p.X() < best.X() || (p.X() == best.X() && p.Y() < best.Y()) {
			best = p
		}
	}
	return best
}

func (ev *Evaluator) evalAveragePoint(e Expr) (value.Value, error) {
	var sum complex128
	for _, op := range e.Operands {
		p, err := ev.point(op)
		if err != nil {
			return nil, err
		}
		sum += complex128(p)
	}
	return value.Pt(sum / complex(float64(len(e.Operands)), 0)), nil
}

func (ev *Evaluator) evalPointLineDistance(e Expr) (value.Value, error) {
	p, err := ev.point(e.Operands[0])
	if err != nil {
		return nil, err
	}
	ln, err := ev.line(e.Operands[1])
	if err != nil {
		return nil, err
	}
	return value.Scl{X: distancePointLine(p, ln), Dim: value.Distance()}, nil
}

func distancePointLine(p value.Pt, ln value.Ln) float64 {
	rel := complex128(p) - ln.Origin
	// Perpendicular component magnitude: |rel - (rel.d*)d| for unit d.
	proj := complex(real(rel)*real(ln.Direction)+imag(rel)*imag(ln.Direction), 0) * ln.Direction
	perp := rel - proj
	return cmplx.Abs(perp)
}

func (ev *Evaluator) evalThreePointAngle(e Expr, directed bool) (value.Value, error) {
	a, err := ev.point(e.Operands[0])
	if err != nil {
		return nil, err
	}
	v, err := ev.point(e.Operands[1])
	if err != nil {
		return nil, err
	}
	b, err := ev.point(e.Operands[2])
	if err != nil {
		return nil, err
	}
	u1 := complex128(a) - complex128(v)
	u2 := complex128(b) - complex128(v)
	theta := cmplx.Phase(u2) - cmplx.Phase(u1)
	if directed {
		theta = normalizeAngle(theta)
	} else {
		theta = math.Abs(normalizeAngle(theta))
	}
	return value.Scl{X: theta, Dim: value.Angle()}, nil
}

func normalizeAngle(theta float64) float64 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta < -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}

func (ev *Evaluator) evalTwoLineAngle(e Expr) (value.Value, error) {
	l1, err := ev.line(e.Operands[0])
	if err != nil {
		return nil, err
	}
	l2, err := ev.line(e.Operands[1])
	if err != nil {
		return nil, err
	}
	theta := math.Abs(normalizeAngle(cmplx.Phase(l2.Direction) - cmplx.Phase(l1.Direction)))
	if theta > math.Pi/2 {
		theta = math.Pi - theta
	}
	return value.Scl{X: theta, Dim: value.Angle()}, nil
}

func (ev *Evaluator) evalAngleBisector(e Expr) (value.Value, error) {
	a, err := ev.point(e.Operands[0])
	if err != nil {
		return nil, err
	}
	v, err := ev.point(e.Operands[1])
	if err != nil {
		return nil, err
	}
	b, err := ev.point(e.Operands[2])
	if err != nil {
		return nil, err
	}
	u1 := unit(complex128(a) - complex128(v))
	u2 := unit(complex128(b) - complex128(v))
	dir := unit(u1 + u2)
	if dir == 0 {
		// a, v, b collinear with v between: bisector is perpendicular to AB.
		dir = unit(complex(0, 1) * u1)
	}
	return value.Ln{Origin: complex128(v), Direction: dir}, nil
}

func (ev *Evaluator) evalPerpendicularThrough(e Expr) (value.Value, error) {
	p, err := ev.point(e.Operands[0])
	if err != nil {
		return nil, err
	}
	ln, err := ev.line(e.Operands[1])
	if err != nil {
		return nil, err
	}
	return value.Ln{Origin: complex128(p), Direction: unit(complex(0, 1) * ln.Direction)}, nil
}

func (ev *Evaluator) evalParallelThrough(e Expr) (value.Value, error) {
	p, err := ev.point(e.Operands[0])
	if err != nil {
		return nil, err
	}
	ln, err := ev.line(e.Operands[1])
	if err != nil {
		return nil, err
	}
	return value.Ln{Origin: complex128(p), Direction: ln.Direction}, nil
}

// AxisLine ConstValue selectors (pool.go's Expr doc comment).
const (
	HorizontalAxis = 0.0
	VerticalAxis   = 1.0
)

func (ev *Evaluator) evalAxisLine(e Expr) (value.Value, error) {
	p, err := ev.point(e.Operands[0])
	if err != nil {
		return nil, err
	}
	dir := complex(1, 0)
	if e.ConstValue == VerticalAxis {
		dir = complex(0, 1)
	}
	return value.Ln{Origin: complex128(p), Direction: dir}, nil
}

func lineThrough(a, b value.Pt) value.Ln {
	return value.Ln{Origin: complex128(a), Direction: unit(complex128(b) - complex128(a))}
}

func unit(c complex128) complex128 {
	m := cmplx.Abs(c)
	if m == 0 {
		return 0
	}
	return c / complex(m, 0)
}
