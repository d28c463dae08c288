package unroll

import (
	"fmt"
	"math/big"

	"github.com/geo-aid/geoaid/ast"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/value"
)

// resolveBinary and resolveUnary implement the arithmetic surface syntax
// supplement (SPEC_FULL.md §6) over Scalar operands only. The pool's
// closed tag set has no "point from coordinates" constructor, so a Point
// or Line operand to +, -, *, /, ^ is rejected rather than faked; use
// mid()/avg() to combine points instead.
func (u *Unroller) resolveBinary(env *env, n *ast.BinaryExpr) (ArgValue, error) {
	left, err := u.resolveExpr(env, n.Left)
	if err != nil {
		return ArgValue{}, err
	}
	right, err := u.resolveExpr(env, n.Right)
	if err != nil {
		return ArgValue{}, err
	}
	if left.Type.Kind != value.KindScalar || right.Type.Kind != value.KindScalar {
		return ArgValue{}, geoerr.New(geoerr.ErrType.New(fmt.Sprintf("arithmetic is only defined over Scalars, got %s and %s", left.Type, right.Type)), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	switch n.Op {
	case ast.OpAdd:
		return u.add(left, right, n)
	case ast.OpSub:
		return u.sub(left, right, n)
	case ast.OpMul:
		return u.mul(left, right)
	case ast.OpDiv:
		return u.div(left, right)
	case ast.OpPow:
		return u.pow(left, right, n)
	default:
		return ArgValue{}, geoerr.New(geoerr.ErrInternal.New(fmt.Sprintf("unroll: unknown binary operator %v", n.Op)), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
}

func (u *Unroller) resolveUnary(env *env, n *ast.UnaryExpr) (ArgValue, error) {
	v, err := u.resolveExpr(env, n.Operand)
	if err != nil {
		return ArgValue{}, err
	}
	if v.Type.Kind != value.KindScalar {
		return ArgValue{}, geoerr.New(geoerr.ErrType.New(fmt.Sprintf("unary - is only defined over Scalars, got %s", v.Type)), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	negOne, err := u.pool.Intern(pool.Expr{Kind: pool.Const, ConstValue: -1, ValueType: value.Scalar(value.Dimensionless())})
	if err != nil {
		return ArgValue{}, err
	}
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.Product, Operands: []int{v.ScalarIdx, negOne}, ValueType: v.Type})
	if err != nil {
		return ArgValue{}, err
	}
	return ArgValue{Type: v.Type, ScalarIdx: idx}, nil
}

func (u *Unroller) add(left, right ArgValue, n *ast.BinaryExpr) (ArgValue, error) {
	if !left.Type.Dim.Equal(right.Type.Dim) {
		return ArgValue{}, geoerr.New(geoerr.ErrType.New(fmt.Sprintf("+ requires matching dimensions, got %s and %s", left.Type.Dim, right.Type.Dim)), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.Sum, Operands: []int{left.ScalarIdx, right.ScalarIdx}, ValueType: left.Type})
	if err != nil {
		return ArgValue{}, err
	}
	return ArgValue{Type: left.Type, ScalarIdx: idx}, nil
}

func (u *Unroller) sub(left, right ArgValue, n *ast.BinaryExpr) (ArgValue, error) {
	if !left.Type.Dim.Equal(right.Type.Dim) {
		return ArgValue{}, geoerr.New(geoerr.ErrType.New(fmt.Sprintf("- requires matching dimensions, got %s and %s", left.Type.Dim, right.Type.Dim)), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	negOne, err := u.pool.Intern(pool.Expr{Kind: pool.Const, ConstValue: -1, ValueType: value.Scalar(value.Dimensionless())})
	if err != nil {
		return ArgValue{}, err
	}
	negRight, err := u.pool.Intern(pool.Expr{Kind: pool.Product, Operands: []int{right.ScalarIdx, negOne}, ValueType: right.Type})
	if err != nil {
		return ArgValue{}, err
	}
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.Sum, Operands: []int{left.ScalarIdx, negRight}, ValueType: left.Type})
	if err != nil {
		return ArgValue{}, err
	}
	return ArgValue{Type: left.Type, ScalarIdx: idx}, nil
}

func (u *Unroller) mul(left, right ArgValue) (ArgValue, error) {
	dim := left.Type.Dim.Add(right.Type.Dim)
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.Product, Operands: []int{left.ScalarIdx, right.ScalarIdx}, ValueType: value.Scalar(dim)})
	if err != nil {
		return ArgValue{}, err
	}
	return ArgValue{Type: value.Scalar(dim), ScalarIdx: idx}, nil
}

func (u *Unroller) div(left, right ArgValue) (ArgValue, error) {
	negOne := big.NewRat(-1, 1)
	invIdx, err := u.pool.Intern(pool.Expr{Kind: pool.Power, Operands: []int{right.ScalarIdx}, Exponent: negOne, ValueType: value.Scalar(right.Type.Dim.Scale(negOne))})
	if err != nil {
		return ArgValue{}, err
	}
	dim := left.Type.Dim.Add(right.Type.Dim.Scale(negOne))
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.Product, Operands: []int{left.ScalarIdx, invIdx}, ValueType: value.Scalar(dim)})
	if err != nil {
		return ArgValue{}, err
	}
	return ArgValue{Type: value.Scalar(dim), ScalarIdx: idx}, nil
}

// pow requires a literal, dimensionless exponent: the pool's Power node
// stores the exponent as an exact rational computed once at unroll time,
// not as an operand re-evaluated every cycle (spec.md §9 "exponents are
// always known at compile time").
func (u *Unroller) pow(base, exp ArgValue, n *ast.BinaryExpr) (ArgValue, error) {
	if !exp.Type.Dim.IsDimensionless() {
		return ArgValue{}, geoerr.New(geoerr.ErrType.New("^ requires a dimensionless exponent"), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	e := u.pool.Get(exp.ScalarIdx)
	if e.Kind != pool.Const {
		return ArgValue{}, geoerr.New(geoerr.ErrType.New("^ requires a literal exponent"), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	rat := new(big.Rat).SetFloat64(e.ConstValue)
	if rat == nil {
		return ArgValue{}, geoerr.New(geoerr.ErrType.New("^ exponent is not representable as a rational"), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	dim := base.Type.Dim.Scale(rat)
	if !dim.IsInteger() && !base.Type.Dim.IsDimensionless() {
		return ArgValue{}, geoerr.New(geoerr.ErrType.New("^ would produce a non-integer dimension"), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.Power, Operands: []int{base.ScalarIdx}, Exponent: rat, ValueType: value.Scalar(dim)})
	if err != nil {
		return ArgValue{}, err
	}
	return ArgValue{Type: value.Scalar(dim), ScalarIdx: idx}, nil
}
