package unroll

import (
	"fmt"

	"github.com/geo-aid/geoaid/ast"
	"github.com/geo-aid/geoaid/critic"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/value"
)

// ruleChain resolves every RuleOp in chain under env and appends the
// resulting critic.Rule(s) to u.rules. A chain of k+1 operands desugars
// to k adjacent RuleOps (spec.md §4.1 "a < b < c"); each becomes its own
// compiled rule sharing the chain's Negated/Weight.
func (u *Unroller) ruleChain(env *env, chain *ast.RuleChain) error {
	for _, op := range chain.Ops {
		left, err := u.resolveExpr(env, op.Left)
		if err != nil {
			return err
		}
		right, err := u.resolveExpr(env, op.Right)
		if err != nil {
			return err
		}
		r, err := u.buildRule(op, left, right)
		if err != nil {
			return geoerr.New(err, geoerr.Span{Start: op.Left.Span().Start, End: op.Right.Span().End})
		}
		if chain.Weight != nil {
			w, err := chain.Weight.Float()
			if err != nil {
				return geoerr.New(geoerr.ErrParse.New(err.Error()), geoerr.Span{Start: chain.Weight.SpanVal.Start, End: chain.Weight.SpanVal.End})
			}
			r.Weight = w
		}
		if chain.Negated {
			r = critic.Rule{Kind: critic.Not, Inner: &r}
		}
		u.rules = append(u.rules, r)
	}
	return nil
}

// buildRule translates one RuleOp into a critic.Rule. <= and >= are
// compiled the same as < and > respectively: the sigmoid quality formula
// is already smooth through equality, so there is no separate "or equal"
// case to special-case (the strict-vs-non-strict decision recorded in
// DESIGN.md's critic section).
func (u *Unroller) buildRule(op ast.RuleOp, left, right ArgValue) (critic.Rule, error) {
	switch op.Kind {
	case ast.RuleEqual:
		a, b, err := samePrimaryKind(left, right)
		if err != nil {
			return critic.Rule{}, err
		}
		return critic.Rule{Kind: critic.Equal, A: a, B: b, SegmentB: -1, Weight: 1}, nil
	case ast.RuleLess, ast.RuleLessEq:
		a, b, err := scalarPair(left, right)
		if err != nil {
			return critic.Rule{}, err
		}
		return critic.Rule{Kind: critic.Less, A: a, B: b, SegmentB: -1, Weight: 1}, nil
	case ast.RuleGreater, ast.RuleGreaterEq:
		a, b, err := scalarPair(left, right)
		if err != nil {
			return critic.Rule{}, err
		}
		return critic.Rule{Kind: critic.Less, A: b, B: a, SegmentB: -1, Weight: 1}, nil
	case ast.RuleLiesOn:
		return buildLiesOn(left, right)
	default:
		return critic.Rule{}, geoerr.ErrRuleForm.New(fmt.Sprintf("unknown rule kind %v", op.Kind))
	}
}

func samePrimaryKind(left, right ArgValue) (int, int, error) {
	if left.Type.Kind != right.Type.Kind {
		return 0, 0, geoerr.ErrType.New(fmt.Sprintf("= requires operands of the same kind, got %s and %s", left.Type, right.Type))
	}
	if left.Type.Kind == value.KindScalar && !left.Type.Dim.Equal(right.Type.Dim) {
		return 0, 0, geoerr.ErrType.New(fmt.Sprintf("= requires matching scalar dimensions, got %s and %s", left.Type.Dim, right.Type.Dim))
	}
	a, ok := primaryIndex(left)
	if !ok {
		return 0, 0, geoerr.ErrType.New(fmt.Sprintf("= is not defined over %s", left.Type))
	}
	b, _ := primaryIndex(right)
	return a, b, nil
}

func scalarPair(left, right ArgValue) (int, int, error) {
	if left.Type.Kind != value.KindScalar || right.Type.Kind != value.KindScalar {
		return 0, 0, geoerr.ErrType.New("<, <=, >, >= require Scalar operands")
	}
	if !left.Type.Dim.Equal(right.Type.Dim) {
		return 0, 0, geoerr.ErrType.New(fmt.Sprintf("comparison requires matching scalar dimensions, got %s and %s", left.Type.Dim, right.Type.Dim))
	}
	return left.ScalarIdx, right.ScalarIdx, nil
}

// buildLiesOn handles all three lies_on targets: Line, Circle, and the
// two-point Segment form (spec.md §4.1 "A lies_on segment(B, C)").
func buildLiesOn(left, right ArgValue) (critic.Rule, error) {
	if left.Type.Kind != value.KindPoint {
		return critic.Rule{}, geoerr.ErrType.New(fmt.Sprintf("lies_on requires a Point operand, got %s", left.Type))
	}
	switch right.Type.Kind {
	case value.KindLine:
		return critic.Rule{Kind: critic.LiesOn, A: left.PointIdx, B: right.LineIdx, SegmentB: -1, Weight: 1}, nil
	case value.KindCircle:
		return critic.Rule{Kind: critic.LiesOn, A: left.PointIdx, B: right.CircleIdx, SegmentB: -1, Weight: 1}, nil
	case value.KindPointCollection:
		if right.Type.N != 2 {
			return critic.Rule{}, geoerr.ErrType.New("lies_on segment requires exactly two points")
		}
		return critic.Rule{Kind: critic.LiesOn, A: left.PointIdx, B: right.Points[0], SegmentB: right.Points[1], Weight: 1}, nil
	default:
		return critic.Rule{}, geoerr.ErrType.New(fmt.Sprintf("lies_on target must be Line, Circle, or segment, got %s", right.Type))
	}
}

// resolveEntityKinds implements spec.md §4.3 point 4: a FreePoint entity
// with exactly one distinct lies_on curve target across the whole file
// narrows to PointOnLine/PointOnCircle; one with lies_on targets of both
// kinds (or more than one target of the same kind) stays a FreePoint,
// retaining every compiled rule as an ordinary soft constraint.
func (u *Unroller) resolveEntityKinds() {
	type target struct {
		kind  pool.EntityKind
		curve int
	}
	targets := map[int][]target{}
	for _, r := range u.rules {
		if r.Kind != critic.LiesOn || r.SegmentB >= 0 {
			continue
		}
		pointExpr := u.pool.Get(r.A)
		if pointExpr.Kind != pool.Entity {
			continue
		}
		ent := u.entities.Entities[pointExpr.EntityIndex]
		if ent.Kind != pool.FreePoint {
			continue
		}
		curveExpr := u.pool.Get(r.B)
		var k pool.EntityKind
		switch curveExpr.ValueType.Kind {
		case value.KindLine:
			k = pool.PointOnLine
		case value.KindCircle:
			k = pool.PointOnCircle
		default:
			continue
		}
		targets[pointExpr.EntityIndex] = append(targets[pointExpr.EntityIndex], target{kind: k, curve: r.B})
	}
	for entIdx, ts := range targets {
		if len(ts) != 1 {
			continue
		}
		u.entities.Constrain(entIdx, ts[0].kind, ts[0].curve)
	}
}
