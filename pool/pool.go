// Package pool implements the flat expression pool produced by math
// lowering (spec.md §3 "Expressions", §4.3): a dense, index-referencing DAG
// where every node's operands are strictly-lesser indices, with mandatory
// common-subexpression elimination.
package pool

import (
	"math/big"

	"github.com/mitchellh/hashstructure"

	"github.com/geo-aid/geoaid/value"
)

// Kind enumerates the expression node kinds, one per tag in the figure
// export schema (spec.md §6). LineCircleIntersection and AxisLine are
// supplements: the function catalog's intersection(line, circle) overload
// and vertical()/horizontal() builtins have no tag in the schema's closed
// list, so the export uses them as additional tags (see DESIGN.md).
type Kind int

const (
	Entity Kind = iota
	LineLineIntersection
	LineCircleIntersection
	AveragePoint
	CircleCenter
	Sum
	Product
	Const
	Power
	PointPointDistance
	PointLineDistance
	ThreePointAngle
	ThreePointAngleDir
	TwoLineAngle
	PointX
	PointY
	PointPointLine
	AngleBisector
	PerpendicularThrough
	ParallelThrough
	ConstructCircle
	AxisLine
)

var kindTags = map[Kind]string{
	Entity:                 "entity",
	LineLineIntersection:   "line-line-intersection",
	LineCircleIntersection: "line-circle-intersection",
	AveragePoint:           "average-point",
	CircleCenter:           "circle-center",
	Sum:                    "sum",
	Product:                "product",
	Const:                  "const",
	Power:                  "power",
	PointPointDistance:     "point-point-distance",
	PointLineDistance:      "point-line-distance",
	ThreePointAngle:        "three-point-angle",
	ThreePointAngleDir:     "three-point-angle-dir",
	TwoLineAngle:           "two-line-angle",
	PointX:                 "point-x",
	PointY:                 "point-y",
	PointPointLine:         "point-point-line",
	AngleBisector:          "angle-bisector",
	PerpendicularThrough:   "perpendicular-through",
	ParallelThrough:        "parallel-through",
	ConstructCircle:        "construct-circle",
	AxisLine:               "axis-line",
}

// Tag returns the export tag string for k.
func (k Kind) Tag() string { return kindTags[k] }

// Expr is one pool node. Operands are indices strictly less than the
// node's own index (the DAG-by-construction invariant, spec.md §3).
// ConstValue and Exponent are populated only for Const and Power nodes
// respectively; EntityIndex only for Entity nodes. AxisLine reuses
// ConstValue as its axis selector (1 = vertical, 0 = horizontal) so two
// AxisLine nodes through the same point but different axes still hash
// to distinct structuralKeys.
type Expr struct {
	Kind        Kind
	Operands    []int
	ValueType   value.Type
	ConstValue  float64
	Exponent    *big.Rat
	EntityIndex int
}

// structuralKey is the canonicalized, hashable shape of an Expr used for
// CSE lookup: equal keys mean "would evaluate identically given equal
// operands", which combined with the operands already being deduplicated
// indices is enough to decide structural equality.
type structuralKey struct {
	Kind        Kind
	Operands    []int
	ConstValue  float64
	Exponent    string
	EntityIndex int
	Dim         string
}

func keyOf(e Expr) structuralKey {
	ops := append([]int(nil), e.Operands...)
	if e.Kind == Sum || e.Kind == Product {
		sortInts(ops)
	}
	exp := ""
	if e.Exponent != nil {
		exp = e.Exponent.RatString()
	}
	// A Const node's dimension isn't implied by any operand (it has
	// none), so two Consts of equal numeric value but different units
	// (0cm vs 0deg) must not dedupe into one node; every other Kind's
	// dimension is already fully determined by its Operands, so Dim is
	// left blank there to keep their cache keys unchanged.
	dim := ""
	if e.Kind == Const {
		dim = e.ValueType.Dim.String()
	}
	return structuralKey{Kind: e.Kind, Operands: ops, ConstValue: e.ConstValue, Exponent: exp, EntityIndex: e.EntityIndex, Dim: dim}
}

// sameKey compares two structuralKeys for equality; structuralKey is not
// comparable with == because Operands is a slice.
func sameKey(a, b structuralKey) bool {
	if a.Kind != b.Kind || a.ConstValue != b.ConstValue || a.Exponent != b.Exponent || a.EntityIndex != b.EntityIndex || a.Dim != b.Dim {
		return false
	}
	if len(a.Operands) != len(b.Operands) {
		return false
	}
	for i := range a.Operands {
		if a.Operands[i] != b.Operands[i] {
			return false
		}
	}
	return true
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Pool is the growable expression pool. Index returns are stable for the
// life of the Pool: once interned, an Expr never moves.
type Pool struct {
	exprs []Expr
	index map[uint64][]int // structural hash -> candidate pool indices
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{index: make(map[uint64][]int)}
}

// Len returns the number of interned expressions.
func (p *Pool) Len() int { return len(p.exprs) }

// Get returns the Expr at idx.
func (p *Pool) Get(idx int) Expr { return p.exprs[idx] }

// All returns every interned Expr, in index order.
func (p *Pool) All() []Expr { return p.exprs }

// Intern inserts e, first canonicalizing commutative operands (Sum,
// Product children are sorted by index so `a+b` and `b+a` hash identically)
// and deduping via a structural-hash memo (SPEC_FULL.md §4.3): a
// structural hash collision is resolved by comparing structuralKeys
// exactly before reusing an index, so a false-positive hash match can
// never merge two distinct nodes.
func (p *Pool) Intern(e Expr) (int, error) {
	for _, op := range e.Operands {
		if op >= len(p.exprs) {
			return 0, ErrForwardReference
		}
	}
	if e.Kind == Sum || e.Kind == Product {
		sortInts(e.Operands)
	}
	key := keyOf(e)
	h, err := hashstructure.Hash(key, nil)
	if err != nil {
		return 0, err
	}
	for _, cand := range p.index[h] {
		if sameKey(keyOf(p.exprs[cand]), key) {
			return cand, nil
		}
	}
	idx := len(p.exprs)
	p.exprs = append(p.exprs, e)
	p.index[h] = append(p.index[h], idx)
	return idx, nil
}

// ErrForwardReference is returned by Intern when an Expr's operand would
// violate the DAG-by-construction invariant (spec.md §3, §9 "Cyclic
// references").
var ErrForwardReference = forwardReferenceError{}

type forwardReferenceError struct{}

func (forwardReferenceError) Error() string {
	return "pool: operand index is not strictly less than the new node's index"
}
