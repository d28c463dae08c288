package unroll

import (
	"fmt"
	"math"

	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/value"
)

// overload is one entry in a function's ordered overload list (spec.md
// §4.2 "Overload resolution"). Match reports whether args is assignable
// (after the conversions in spec.md §4.2) to this overload's parameters;
// Build constructs the resulting ArgValue by interning pool nodes.
type overload struct {
	match func(args []ArgValue) ([]ArgValue, bool)
	build func(u *Unroller, args []ArgValue) (ArgValue, error)
}

// catalog is the static, declaration-ordered overload table (spec.md §9
// "Overload table... lookup is linear. Preserve declaration order").
var catalog = map[string][]overload{
	"point":     {{match: matchExact(), build: buildFreePointDecl}},
	"line":      {{match: matchPoints(2), build: buildLineThroughPoints}},
	"segment":   {{match: matchPoints(2), build: buildSegment}},
	"circle":    {{match: matchKinds(value.KindPoint, value.KindScalar), build: buildConstructCircle}},
	"circumcircle": {{match: matchPoints(3), build: buildCircumcircle}},
	"incircle":     {{match: matchPoints(3), build: buildIncircle}},
	"intersection": {
		{match: matchKinds(value.KindLine, value.KindLine), build: buildLineLineIntersection},
		{match: matchKinds(value.KindLine, value.KindCircle), build: buildLineCircleIntersection},
		{match: matchKinds(value.KindCircle, value.KindLine), build: buildCircleLineIntersection},
	},
	"mid": {
		{match: matchKinds(value.KindScalar, value.KindScalar), build: buildScalarMid},
		{match: matchVariadicPoints(), build: buildAveragePoint},
	},
	"avg": {{match: matchVariadicPoints(), build: buildAveragePoint}},
	"bisector": {
		{match: matchPoints(3), build: buildAngleBisector},
		{match: matchPoints(2), build: buildPerpendicularBisector},
	},
	"parallelthrough":       {{match: matchKinds(value.KindPoint, value.KindLine), build: buildParallelThrough}},
	"perpendicularthrough":  {{match: matchKinds(value.KindPoint, value.KindLine), build: buildPerpendicularThrough}},
	"vertical":              {{match: matchKinds(value.KindPoint), build: buildVertical}},
	"horizontal":            {{match: matchKinds(value.KindPoint), build: buildHorizontal}},
	"ray":                   {{match: matchPoints(2), build: buildLineThroughPoints}},
	"center":                {{match: matchKinds(value.KindCircle), build: buildCircleCenter}},
	"radius":                {{match: matchKinds(value.KindCircle), build: buildCircleRadius}},
	"dst": {
		{match: matchPoints(2), build: buildPointPointDistance},
		{match: matchKinds(value.KindScalar), build: buildDstCoercion},
	},
	"len": {
		{match: matchPoints(2), build: buildPointPointDistance},
		{match: matchKinds(value.KindScalar), build: buildDstCoercion},
	},
	"angle": {
		{match: matchPoints(3), build: buildThreePointAngle},
		{match: matchKinds(value.KindLine, value.KindLine), build: buildTwoLineAngle},
	},
	"degrees": {{match: matchKinds(value.KindScalar), build: buildDegrees}},
	"deg":     {{match: matchKinds(value.KindScalar), build: buildDegrees}},
	"radians": {{match: matchKinds(value.KindScalar), build: buildRadians}},
	"rad":     {{match: matchKinds(value.KindScalar), build: buildRadians}},
	"x":       {{match: matchKinds(value.KindPoint), build: buildPointX}},
	"y":       {{match: matchKinds(value.KindPoint), build: buildPointY}},
}

// resolveCall performs overload resolution for name against args: the
// first matching overload (in declaration order) wins; no match is an
// ErrOverload (ambiguity is never reported separately — spec.md §4.2
// "Report ambiguity only when no overload matches" is satisfied by
// linear lookup, since a well-formed catalog never has two overloads
// both matching the same argument kinds).
func (u *Unroller) resolveCall(name string, args []ArgValue) (ArgValue, error) {
	overloads, ok := catalog[name]
	if !ok {
		return ArgValue{}, geoerr.ErrOverload.New(fmt.Sprintf("unknown function %q", name))
	}
	for _, ov := range overloads {
		converted, ok := ov.match(args)
		if !ok {
			continue
		}
		return ov.build(u, converted)
	}
	return ArgValue{}, geoerr.ErrOverload.New(fmt.Sprintf("no overload of %q matches the given argument kinds", name))
}

// --- matchers ---

func matchExact() func([]ArgValue) ([]ArgValue, bool) {
	return func(args []ArgValue) ([]ArgValue, bool) {
		return args, len(args) == 0
	}
}

func matchKinds(kinds ...value.Kind) func([]ArgValue) ([]ArgValue, bool) {
	return func(args []ArgValue) ([]ArgValue, bool) {
		if len(args) != len(kinds) {
			return nil, false
		}
		out := make([]ArgValue, len(args))
		for i, k := range kinds {
			conv, ok := convert(args[i], k)
			if !ok {
				return nil, false
			}
			out[i] = conv
		}
		return out, true
	}
}

// matchPoints matches exactly n arguments that are each individually a
// Point, or a single PointCollection(n) argument (spec.md §4.2
// conversions), returning the n points flattened.
func matchPoints(n int) func([]ArgValue) ([]ArgValue, bool) {
	return func(args []ArgValue) ([]ArgValue, bool) {
		if len(args) == 1 && args[0].Type.Kind == value.KindPointCollection && args[0].Type.N == n {
			out := make([]ArgValue, n)
			for i, idx := range args[0].Points {
				out[i] = ArgValue{Type: value.Point(), PointIdx: idx}
			}
			return out, true
		}
		if len(args) != n {
			return nil, false
		}
		out := make([]ArgValue, n)
		for i, a := range args {
			if a.Type.Kind != value.KindPoint {
				return nil, false
			}
			out[i] = a
		}
		return out, true
	}
}

// matchVariadicPoints matches one PointCollection(n) argument (n >= 2) or
// any number >= 2 of bare Point arguments, per SPEC_FULL.md's n-ary
// mid/avg supplement.
func matchVariadicPoints() func([]ArgValue) ([]ArgValue, bool) {
	return func(args []ArgValue) ([]ArgValue, bool) {
		if len(args) == 1 && args[0].Type.Kind == value.KindPointCollection {
			out := make([]ArgValue, len(args[0].Points))
			for i, idx := range args[0].Points {
				out[i] = ArgValue{Type: value.Point(), PointIdx: idx}
			}
			return out, len(out) >= 2
		}
		if len(args) < 2 {
			return nil, false
		}
		for _, a := range args {
			if a.Type.Kind != value.KindPoint {
				return nil, false
			}
		}
		return args, true
	}
}

// convert applies the spec.md §4.2 conversion rules to coerce a into
// kind, or reports no match.
func convert(a ArgValue, kind value.Kind) (ArgValue, bool) {
	if a.Type.Kind == kind {
		return a, true
	}
	switch kind {
	case value.KindPoint:
		if a.Type.Kind == value.KindPointCollection && a.Type.N == 1 {
			return ArgValue{Type: value.Point(), PointIdx: a.Points[0]}, true
		}
	case value.KindScalar:
		// dst(x) coercion is explicit via the dst/len builtins, not an
		// implicit conversion here; spec.md restricts it to "iff the
		// context demands distance and the scalar is literal", which the
		// catalog entries for dst()/len() handle (buildDstCoercion).
	}
	return ArgValue{}, false
}

// --- builders ---

func buildFreePointDecl(u *Unroller, _ []ArgValue) (ArgValue, error) {
	idx := u.entities.Add(pool.FreePoint, -1)
	pi, err := u.pool.Intern(pool.Expr{Kind: pool.Entity, EntityIndex: idx, ValueType: value.Point()})
	if err != nil {
		return ArgValue{}, err
	}
	return ArgValue{Type: value.Point(), PointIdx: pi}, nil
}

func buildLineThroughPoints(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.PointPointLine, Operands: []int{args[0].PointIdx, args[1].PointIdx}, ValueType: value.Line()})
	return ArgValue{Type: value.Line(), LineIdx: idx}, err
}

func buildSegment(u *Unroller, args []ArgValue) (ArgValue, error) {
	return ArgValue{Type: value.PointCollection(2), Points: []int{args[0].PointIdx, args[1].PointIdx}}, nil
}

func buildConstructCircle(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.ConstructCircle, Operands: []int{args[0].PointIdx, args[1].ScalarIdx}, ValueType: value.Circle()})
	return ArgValue{Type: value.Circle(), CircleIdx: idx}, err
}

// buildCircumcircle composes the circle through three points from
// existing primitives: the intersection of two perpendicular bisectors
// is the center, and the radius is its distance to any of the three
// points; no dedicated pool node kind is used.
func buildCircumcircle(u *Unroller, args []ArgValue) (ArgValue, error) {
	a, b, c := args[0], args[1], args[2]
	bisAB, err := perpendicularBisector(u, a, b)
	if err != nil {
		return ArgValue{}, err
	}
	bisBC, err := perpendicularBisector(u, b, c)
	if err != nil {
		return ArgValue{}, err
	}
	centerIdx, err := u.pool.Intern(pool.Expr{Kind: pool.LineLineIntersection, Operands: []int{bisAB, bisBC}, ValueType: value.Point()})
	if err != nil {
		return ArgValue{}, err
	}
	radiusIdx, err := u.pool.Intern(pool.Expr{Kind: pool.PointPointDistance, Operands: []int{centerIdx, a.PointIdx}, ValueType: value.Scalar(value.Distance())})
	if err != nil {
		return ArgValue{}, err
	}
	circIdx, err := u.pool.Intern(pool.Expr{Kind: pool.ConstructCircle, Operands: []int{centerIdx, radiusIdx}, ValueType: value.Circle()})
	return ArgValue{Type: value.Circle(), CircleIdx: circIdx}, err
}

// buildIncircle composes the triangle's inscribed circle: the center is
// the intersection of two angle bisectors, and the radius is the
// center's distance to one of the triangle's sides (spec.md §5's
// function catalog lists incircle alongside circumcircle; the pool has
// no dedicated node for either, so both compose from primitives).
func buildIncircle(u *Unroller, args []ArgValue) (ArgValue, error) {
	a, b, c := args[0], args[1], args[2]
	bisA, err := u.pool.Intern(pool.Expr{Kind: pool.AngleBisector, Operands: []int{c.PointIdx, a.PointIdx, b.PointIdx}, ValueType: value.Line()})
	if err != nil {
		return ArgValue{}, err
	}
	bisB, err := u.pool.Intern(pool.Expr{Kind: pool.AngleBisector, Operands: []int{a.PointIdx, b.PointIdx, c.PointIdx}, ValueType: value.Line()})
	if err != nil {
		return ArgValue{}, err
	}
	centerIdx, err := u.pool.Intern(pool.Expr{Kind: pool.LineLineIntersection, Operands: []int{bisA, bisB}, ValueType: value.Point()})
	if err != nil {
		return ArgValue{}, err
	}
	sideAB, err := u.pool.Intern(pool.Expr{Kind: pool.PointPointLine, Operands: []int{a.PointIdx, b.PointIdx}, ValueType: value.Line()})
	if err != nil {
		return ArgValue{}, err
	}
	radiusIdx, err := u.pool.Intern(pool.Expr{Kind: pool.PointLineDistance, Operands: []int{centerIdx, sideAB}, ValueType: value.Scalar(value.Distance())})
	if err != nil {
		return ArgValue{}, err
	}
	circIdx, err := u.pool.Intern(pool.Expr{Kind: pool.ConstructCircle, Operands: []int{centerIdx, radiusIdx}, ValueType: value.Circle()})
	return ArgValue{Type: value.Circle(), CircleIdx: circIdx}, err
}

func perpendicularBisector(u *Unroller, a, b ArgValue) (int, error) {
	midIdx, err := u.pool.Intern(pool.Expr{Kind: pool.AveragePoint, Operands: []int{a.PointIdx, b.PointIdx}, ValueType: value.Point()})
	if err != nil {
		return 0, err
	}
	lineIdx, err := u.pool.Intern(pool.Expr{Kind: pool.PointPointLine, Operands: []int{a.PointIdx, b.PointIdx}, ValueType: value.Line()})
	if err != nil {
		return 0, err
	}
	return u.pool.Intern(pool.Expr{Kind: pool.PerpendicularThrough, Operands: []int{midIdx, lineIdx}, ValueType: value.Line()})
}

func buildLineLineIntersection(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.LineLineIntersection, Operands: []int{args[0].LineIdx, args[1].LineIdx}, ValueType: value.Point()})
	return ArgValue{Type: value.Point(), PointIdx: idx}, err
}

func buildLineCircleIntersection(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.LineCircleIntersection, Operands: []int{args[0].LineIdx, args[1].CircleIdx}, ValueType: value.Point()})
	return ArgValue{Type: value.Point(), PointIdx: idx}, err
}

func buildCircleLineIntersection(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.LineCircleIntersection, Operands: []int{args[1].LineIdx, args[0].CircleIdx}, ValueType: value.Point()})
	return ArgValue{Type: value.Point(), PointIdx: idx}, err
}

func buildScalarMid(u *Unroller, args []ArgValue) (ArgValue, error) {
	dimA := args[0].Type.Dim
	if !dimA.Equal(args[1].Type.Dim) {
		return ArgValue{}, geoerr.ErrType.New("mid() requires two scalars of the same dimension")
	}
	sum, err := u.pool.Intern(pool.Expr{Kind: pool.Sum, Operands: []int{args[0].ScalarIdx, args[1].ScalarIdx}, ValueType: value.Scalar(dimA)})
	if err != nil {
		return ArgValue{}, err
	}
	half, err := u.pool.Intern(pool.Expr{Kind: pool.Const, ConstValue: 0.5, ValueType: value.Scalar(value.Dimensionless())})
	if err != nil {
		return ArgValue{}, err
	}
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.Product, Operands: []int{sum, half}, ValueType: value.Scalar(dimA)})
	return ArgValue{Type: value.Scalar(dimA), ScalarIdx: idx}, err
}

func buildAveragePoint(u *Unroller, args []ArgValue) (ArgValue, error) {
	ops := make([]int, len(args))
	for i, a := range args {
		ops[i] = a.PointIdx
	}
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.AveragePoint, Operands: ops, ValueType: value.Point()})
	return ArgValue{Type: value.Point(), PointIdx: idx}, err
}

func buildAngleBisector(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.AngleBisector, Operands: []int{args[0].PointIdx, args[1].PointIdx, args[2].PointIdx}, ValueType: value.Line()})
	return ArgValue{Type: value.Line(), LineIdx: idx}, err
}

func buildPerpendicularBisector(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := perpendicularBisector(u, args[0], args[1])
	return ArgValue{Type: value.Line(), LineIdx: idx}, err
}

func buildParallelThrough(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.ParallelThrough, Operands: []int{args[0].PointIdx, args[1].LineIdx}, ValueType: value.Line()})
	return ArgValue{Type: value.Line(), LineIdx: idx}, err
}

func buildPerpendicularThrough(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.PerpendicularThrough, Operands: []int{args[0].PointIdx, args[1].LineIdx}, ValueType: value.Line()})
	return ArgValue{Type: value.Line(), LineIdx: idx}, err
}

// buildVertical/buildHorizontal are the convenience overloads that build
// a line through p with a fixed axis-aligned direction, interning a
// pool.AxisLine node (value.Ln{Origin: p, Direction: (0,1) or (1,0)} —
// the fixed direction needs no new arithmetic, just a node kind the
// evaluator can dispatch on; see DESIGN.md).
func buildVertical(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.AxisLine, Operands: []int{args[0].PointIdx}, ConstValue: pool.VerticalAxis, ValueType: value.Line()})
	return ArgValue{Type: value.Line(), LineIdx: idx}, err
}

func buildHorizontal(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.AxisLine, Operands: []int{args[0].PointIdx}, ConstValue: pool.HorizontalAxis, ValueType: value.Line()})
	return ArgValue{Type: value.Line(), LineIdx: idx}, err
}

func buildCircleCenter(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.CircleCenter, Operands: []int{args[0].CircleIdx}, ValueType: value.Point()})
	return ArgValue{Type: value.Point(), PointIdx: idx}, err
}

// buildCircleRadius only supports a circle value built by this same pass
// as a literal ConstructCircle node, reading its radius operand back
// directly: the pool has no dedicated circle-radius accessor tag.
func buildCircleRadius(u *Unroller, args []ArgValue) (ArgValue, error) {
	e := u.pool.Get(args[0].CircleIdx)
	if e.Kind != pool.ConstructCircle {
		return ArgValue{}, geoerr.ErrType.New("radius() requires a circle built directly by circle()/circumcircle() in this implementation")
	}
	return ArgValue{Type: value.Scalar(value.Distance()), ScalarIdx: e.Operands[1]}, nil
}

func buildPointPointDistance(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.PointPointDistance, Operands: []int{args[0].PointIdx, args[1].PointIdx}, ValueType: value.Scalar(value.Distance())})
	return ArgValue{Type: value.Scalar(value.Distance()), ScalarIdx: idx}, err
}

func buildDstCoercion(u *Unroller, args []ArgValue) (ArgValue, error) {
	e := u.pool.Get(args[0].ScalarIdx)
	if e.ValueType.Dim.Equal(value.Distance()) {
		return args[0], nil
	}
	if e.Kind != pool.Const {
		return ArgValue{}, geoerr.ErrType.New("dst()/len() on a non-literal scalar requires it to already be a distance")
	}
	if !e.ValueType.Dim.IsDimensionless() {
		return ArgValue{}, geoerr.ErrType.New("dst()/len() cannot coerce a literal whose unit is not a distance")
	}
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.Const, ConstValue: e.ConstValue, ValueType: value.Scalar(value.Distance())})
	return ArgValue{Type: value.Scalar(value.Distance()), ScalarIdx: idx}, err
}

func buildThreePointAngle(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.ThreePointAngle, Operands: []int{args[0].PointIdx, args[1].PointIdx, args[2].PointIdx}, ValueType: value.Scalar(value.Angle())})
	return ArgValue{Type: value.Scalar(value.Angle()), ScalarIdx: idx}, err
}

func buildTwoLineAngle(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.TwoLineAngle, Operands: []int{args[0].LineIdx, args[1].LineIdx}, ValueType: value.Scalar(value.Angle())})
	return ArgValue{Type: value.Scalar(value.Angle()), ScalarIdx: idx}, err
}

// buildDegrees/buildRadians implement the unit-conversion builtins
// (spec.md §6, scenario 4). Internally every Angle-dimensioned scalar is
// already stored in radians (unit suffixes are converted once, at the
// literal, in resolveExpr), so radians() is the identity and degrees()
// multiplies by 180/π. Both require an angle or no-unit input (spec.md
// §3's trigonometric validity rule); anything else is a compile-time
// type error.
func buildDegrees(u *Unroller, args []ArgValue) (ArgValue, error) {
	if !args[0].Type.Dim.IsAngleOrDimensionless() {
		return ArgValue{}, geoerr.ErrType.New("degrees() requires an angle or no-unit scalar")
	}
	k, err := u.pool.Intern(pool.Expr{Kind: pool.Const, ConstValue: 180 / math.Pi, ValueType: value.Scalar(value.Dimensionless())})
	if err != nil {
		return ArgValue{}, err
	}
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.Product, Operands: []int{args[0].ScalarIdx, k}, ValueType: value.Scalar(value.Dimensionless())})
	return ArgValue{Type: value.Scalar(value.Dimensionless()), ScalarIdx: idx}, err
}

func buildRadians(u *Unroller, args []ArgValue) (ArgValue, error) {
	if !args[0].Type.Dim.IsAngleOrDimensionless() {
		return ArgValue{}, geoerr.ErrType.New("radians() requires an angle or no-unit scalar")
	}
	return args[0], nil
}

func buildPointX(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.PointX, Operands: []int{args[0].PointIdx}, ValueType: value.Scalar(value.Distance())})
	return ArgValue{Type: value.Scalar(value.Distance()), ScalarIdx: idx}, err
}

func buildPointY(u *Unroller, args []ArgValue) (ArgValue, error) {
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.PointY, Operands: []int{args[0].PointIdx}, ValueType: value.Scalar(value.Distance())})
	return ArgValue{Type: value.Scalar(value.Distance()), ScalarIdx: idx}, err
}
