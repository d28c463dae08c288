package unroll

import (
	"github.com/geo-aid/geoaid/ast"
	"github.com/geo-aid/geoaid/geoerr"
)

// findIterator locates the first iterator node within e, whatever its id (spec.md
// §4.2 "only one level of iteration is permitted on the right-hand side
// of a multi-name let"): it may be e itself, or nested inside a Call's
// arguments, a BinaryExpr/UnaryExpr operand, or a PointCollectionLit's
// letters never contain expressions so are not searched. Returns nil if
// none is found.
func findIterator(e ast.Expr) *ast.Iterator {
	switch n := e.(type) {
	case *ast.Iterator:
		return n
	case *ast.Call:
		for _, a := range n.Args {
			if it := findIterator(a); it != nil {
				return it
			}
		}
	case *ast.BinaryExpr:
		if it := findIterator(n.Left); it != nil {
			return it
		}
		return findIterator(n.Right)
	case *ast.UnaryExpr:
		return findIterator(n.Operand)
	}
	return nil
}

// substitute returns a copy of e with every occurrence of target replaced
// by its branchIdx'th branch. Only node kinds findIterator descends into
// need copying; everything else is shared as-is since it is never
// mutated.
func substitute(e ast.Expr, target *ast.Iterator, branchIdx int) ast.Expr {
	switch n := e.(type) {
	case *ast.Iterator:
		if n == target {
			return n.Branches[branchIdx]
		}
		return n
	case *ast.Call:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = substitute(a, target, branchIdx)
		}
		cp := *n
		cp.Args = args
		return &cp
	case *ast.BinaryExpr:
		cp := *n
		cp.Left = substitute(n.Left, target, branchIdx)
		cp.Right = substitute(n.Right, target, branchIdx)
		return &cp
	case *ast.UnaryExpr:
		cp := *n
		cp.Operand = substitute(n.Operand, target, branchIdx)
		return &cp
	default:
		return e
	}
}

// expandIteratedLet resolves a multi-name let's right-hand side against
// len(names) names. Two forms are grounded in scenario usage (spec.md §8):
// if Rhs contains an iterator, each name binds to the substituted branch
// at its position (scenario 6, "intersection((l1,l2,l3), k)"); otherwise
// Rhs has no per-name variance to substitute, so it is resolved once per
// name independently (scenario 1, "let A, B = Point();" — two independent
// calls, each minting its own FreePoint entity).
func (u *Unroller) expandIteratedLet(n *ast.Let) ([]ArgValue, error) {
	it := findIterator(n.Rhs)
	vals := make([]ArgValue, len(n.Names))
	if it == nil {
		for i := range n.Names {
			v, err := u.resolveExpr(u.global, n.Rhs)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return vals, nil
	}
	if len(it.Branches) != len(n.Names) {
		return nil, geoerr.New(geoerr.ErrIteration.New("iterator branch count does not match the number of bound names"), geoerr.Span{Start: it.SpanVal.Start, End: it.SpanVal.End})
	}
	for i := range n.Names {
		branchExpr := substitute(n.Rhs, it, i)
		v, err := u.resolveExpr(u.global, branchExpr)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
