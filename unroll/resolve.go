package unroll

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/geo-aid/geoaid/ast"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/value"
)

// unitDim maps a folded unit suffix to its Dimension and the multiplier
// that converts the literal's numeric text into canonical internal units
// (spec.md §4.1, §6 "1cm, 30deg, 1.5rad"). Angle units convert to
// radians, the internal canonical representation for Angle-dimensioned
// scalars; distance units pass through unconverted since the pool's
// adjustable space is itself unit-agnostic.
var unitDim = map[string]struct {
	dim   value.Dimension
	scale float64
}{
	"":     {value.Dimensionless(), 1},
	"cm":   {value.Distance(), 1},
	"m":    {value.Distance(), 1},
	"mm":   {value.Distance(), 1},
	"deg":  {value.Angle(), 3.141592653589793 / 180},
	"rad":  {value.Angle(), 1},
}

// resolveExpr resolves an ast.Expr to an ArgValue under env, interning
// any new pool nodes arithmetic or literal construction needs.
func (u *Unroller) resolveExpr(env *env, e ast.Expr) (ArgValue, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return env.lookup(n.Name)
	case *ast.NumberLit:
		return u.resolveNumber(n)
	case *ast.PointCollectionLit:
		return u.resolvePointCollection(env, n)
	case *ast.Call:
		return u.resolveCallExpr(env, n)
	case *ast.BinaryExpr:
		return u.resolveBinary(env, n)
	case *ast.UnaryExpr:
		return u.resolveUnary(env, n)
	default:
		return ArgValue{}, geoerr.New(geoerr.ErrInternal.New(fmt.Sprintf("unroll: unhandled expression node %T", e)), geoerr.Span{Start: e.Span().Start, End: e.Span().End})
	}
}

func (u *Unroller) resolveNumber(n *ast.NumberLit) (ArgValue, error) {
	unit, ok := unitDim[n.Unit]
	if !ok {
		return ArgValue{}, geoerr.New(geoerr.ErrType.New(fmt.Sprintf("unknown unit suffix %q", n.Unit)), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	f, err := n.Float()
	if err != nil {
		return ArgValue{}, geoerr.New(geoerr.ErrParse.New(err.Error()), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	idx, err := u.pool.Intern(pool.Expr{Kind: pool.Const, ConstValue: f * unit.scale, ValueType: value.Scalar(unit.dim)})
	if err != nil {
		return ArgValue{}, err
	}
	return ArgValue{Type: value.Scalar(unit.dim), ScalarIdx: idx}, nil
}

func (u *Unroller) resolvePointCollection(env *env, n *ast.PointCollectionLit) (ArgValue, error) {
	idxs := make([]int, len(n.Letters))
	for i, letter := range n.Letters {
		v, err := env.lookup(letter)
		if err != nil {
			return ArgValue{}, err
		}
		if v.Type.Kind != value.KindPoint {
			return ArgValue{}, geoerr.New(geoerr.ErrType.New(fmt.Sprintf("%q is not a point", letter)), geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
		}
		idxs[i] = v.PointIdx
	}
	return ArgValue{Type: value.PointCollection(len(idxs)), Points: idxs}, nil
}

func (u *Unroller) resolveCallExpr(env *env, n *ast.Call) (ArgValue, error) {
	args := make([]ArgValue, len(n.Args))
	for i, a := range n.Args {
		v, err := u.resolveExpr(env, a)
		if err != nil {
			return ArgValue{}, err
		}
		args[i] = v
	}
	result, err := u.resolveCall(n.Name, args)
	if err != nil {
		return ArgValue{}, geoerr.New(err, geoerr.Span{Start: n.SpanVal.Start, End: n.SpanVal.End})
	}
	if n.Properties != nil {
		if err := u.bindProperties(result, n.Properties); err != nil {
			return ArgValue{}, err
		}
	}
	return result, nil
}

// bindProperties records a property block's entries against the pool
// index backing v. Per spec.md §9(c), "display" only ever attaches to
// expressions; a free-standing rule's property block is rejected with a
// PropertyError by Unroller.stmt before any binding happens, so it never
// reaches this function.
func (u *Unroller) bindProperties(v ArgValue, block *ast.PropertyBlock) error {
	idx, ok := primaryIndex(v)
	if !ok {
		return geoerr.New(geoerr.ErrProperty.New("property block on a value with no single backing expression"), geoerr.Span{Start: block.SpanVal.Start, End: block.SpanVal.End})
	}
	for _, entry := range block.Entries {
		switch entry.Key {
		case "display":
			b, err := u.boolLiteral(entry.Value)
			if err != nil {
				return err
			}
			u.Display[idx] = b
		case "style", "label":
			// Recognized display-only keys (spec.md §4.2); carried
			// through verbatim for the figure layer and otherwise ignored
			// by the math pipeline. Both keys can appear in the same
			// block, so they're kept in a per-index map rather than
			// overwriting one another.
			if u.Styles[idx] == nil {
				u.Styles[idx] = map[string]ast.PropertyEntry{}
			}
			u.Styles[idx][entry.Key] = entry
		default:
			return geoerr.New(geoerr.ErrProperty.New(fmt.Sprintf("unrecognized property key %q", entry.Key)), geoerr.Span{Start: entry.SpanVal.Start, End: entry.SpanVal.End})
		}
	}
	return nil
}

func primaryIndex(v ArgValue) (int, bool) {
	switch v.Type.Kind {
	case value.KindPoint:
		return v.PointIdx, true
	case value.KindLine:
		return v.LineIdx, true
	case value.KindCircle:
		return v.CircleIdx, true
	case value.KindScalar:
		return v.ScalarIdx, true
	default:
		return 0, false
	}
}

// boolLiteral coerces a property value to bool via spf13/cast. Only a
// bare identifier is accepted (`display = true`, `display = False`, or
// any other identifier spelling cast.ToBoolE parses); a number such as
// `display = 1` is rejected with a PropertyError.
func (u *Unroller) boolLiteral(e ast.Expr) (bool, error) {
	id, ok := e.(*ast.Ident)
	if !ok {
		return false, geoerr.New(geoerr.ErrProperty.New("expected a boolean literal (true/false)"), geoerr.Span{Start: e.Span().Start, End: e.Span().End})
	}
	b, err := cast.ToBoolE(id.Name)
	if err != nil {
		return false, geoerr.New(geoerr.ErrProperty.New(fmt.Sprintf("expected true/false, found %q", id.Name)), geoerr.Span{Start: e.Span().Start, End: e.Span().End})
	}
	return b, nil
}
