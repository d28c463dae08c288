// Package unroll resolves an ast.File into a pool of expressions, an
// entity table, and a compiled rule list: identifier and overload
// resolution, iteration expansion, point-collection handling, and
// property binding (spec.md §4.2). For module-size reasons the math-step
// responsibilities that operate most naturally on an already-built pool —
// hash-consing (delegated to pool.Pool.Intern itself), the identity
// simplification fixed point, the dimension check, and the figure/critic
// split — are implemented as the separate post-pass in package lower,
// which this package's output feeds directly (see DESIGN.md).
package unroll

import (
	"fmt"

	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/token"
	"github.com/geo-aid/geoaid/value"
)

// ArgValue is a resolved expression value during unrolling: a static
// value.Type tag plus whichever pool index (or index list, for a point
// collection) backs it. Exactly one of the index fields is meaningful,
// selected by Type.Kind.
type ArgValue struct {
	Type      value.Type
	ScalarIdx int
	PointIdx  int
	LineIdx   int
	CircleIdx int
	Points    []int // ordered pool indices, valid iff Type.Kind == value.KindPointCollection
}

// env is the unroller's symbol table: names bound so far in declaration
// order, per spec.md §8 "resolve(I) = resolve(fold(I))" (names are folded
// before insertion and lookup so case/underscore variants collide).
type env struct {
	vars map[string]ArgValue
}

func newEnv() *env { return &env{vars: map[string]ArgValue{}} }

func (e *env) lookup(name string) (ArgValue, error) {
	v, ok := e.vars[token.Fold(name)]
	if !ok {
		return ArgValue{}, geoerr.ErrName.New(fmt.Sprintf("undefined identifier %q", name))
	}
	return v, nil
}

func (e *env) bind(name string, v ArgValue) {
	e.vars[token.Fold(name)] = v
}
