// Package lower turns an unroll.Program into a fully reduced Program
// ready for export: it runs the identity-simplification rewrite to a
// fixed point (spec.md §4.3 points 1-2), re-verifies every dimension
// invariant the front end should already have enforced (point 3), and
// splits the shared pool into the critic program's reachable set and
// the figure program's reachable set (point 5). Entity assignment
// (point 4) already happened in package unroll (see DESIGN.md for why
// the two passes are merged); this package rebuilds the entity table in
// the same order, renumbering each entity's curve reference into the
// rewritten pool and reassigning adjustable offsets compactly, so a
// narrowed point's unused second slot is dropped.
package lower

import (
	"math/big"

	"github.com/geo-aid/geoaid/ast"
	"github.com/geo-aid/geoaid/critic"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/unroll"
	"github.com/geo-aid/geoaid/value"
)

// Program is the fully lowered output: the reduced pool and entity
// table, the compiled rules, and the two reachability sets that let an
// exporter (out of scope here, see spec.md §6) emit only what each
// artifact needs.
type Program struct {
	Pool     *pool.Pool
	Entities *pool.EntityTable
	Rules    []critic.Rule
	Queries  []int
	Display  map[int]bool
	Styles   map[int]map[string]ast.PropertyEntry

	// CriticReachable and FigureReachable hold every pool index reachable
	// from a rule operand or a display-marked expression, respectively
	// (spec.md §4.3 point 5). An index absent from both is dead weight
	// unroll produced but nothing downstream needs.
	CriticReachable map[int]bool
	FigureReachable map[int]bool
}

// Lower runs math lowering over up's pool to a fixed point, then splits
// the result into critic/figure reachable sets.
func Lower(up *unroll.Program) (*Program, error) {
	p, remap := simplifyToFixedPoint(up.Pool)
	entities := remapEntities(up.Entities, remap)
	rules := remapRules(up.Rules, remap)
	queries := remapIndices(up.Queries, remap)
	display := remapBoolMap(up.Display, remap)
	styles := remapStyleMap(up.Styles, remap)

	if err := checkDimensions(p); err != nil {
		return nil, err
	}

	criticRoots := ruleRoots(rules)
	figureRoots := append(append([]int{}, queries...), displayRoots(display)...)

	criticReach := reachable(p, criticRoots)
	// The figure program adds the display-reachable sub-DAG to everything
	// the critic program already needs (spec.md §4.3 point 5): a figure
	// must still draw the entities its rules constrain, not only the ones
	// an explicit `?` or `display` asked for.
	figureReach := reachable(p, figureRoots)
	for idx := range criticReach {
		figureReach[idx] = true
	}

	return &Program{
		Pool:            p,
		Entities:        entities,
		Rules:           rules,
		Queries:         queries,
		Display:         display,
		Styles:          styles,
		CriticReachable: criticReach,
		FigureReachable: figureReach,
	}, nil
}

func ruleRoots(rules []critic.Rule) []int {
	var roots []int
	var collect func(r critic.Rule)
	collect = func(r critic.Rule) {
		if r.Kind == critic.Not {
			if r.Inner != nil {
				collect(*r.Inner)
			}
			return
		}
		roots = append(roots, r.A)
		if r.B >= 0 {
			roots = append(roots, r.B)
		}
		if r.SegmentB >= 0 {
			roots = append(roots, r.SegmentB)
		}
	}
	for _, r := range rules {
		collect(r)
	}
	return roots
}

func displayRoots(display map[int]bool) []int {
	var roots []int
	for idx, shown := range display {
		if shown {
			roots = append(roots, idx)
		}
	}
	return roots
}

// reachable returns every pool index transitively reachable from roots,
// including the roots themselves. Operands only ever reference strictly
// smaller indices (the DAG-by-construction invariant), so a single
// descending walk from each root suffices; no cycle guard is needed.
func reachable(p *pool.Pool, roots []int) map[int]bool {
	seen := map[int]bool{}
	var stack []int
	stack = append(stack, roots...)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[idx] {
			continue
		}
		seen[idx] = true
		for _, op := range p.Get(idx).Operands {
			if !seen[op] {
				stack = append(stack, op)
			}
		}
	}
	return seen
}

func remapIndices(idxs []int, remap []int) []int {
	out := make([]int, len(idxs))
	for i, idx := range idxs {
		out[i] = remap[idx]
	}
	return out
}

func remapBoolMap(m map[int]bool, remap []int) map[int]bool {
	out := make(map[int]bool, len(m))
	for idx, v := range m {
		out[remap[idx]] = out[remap[idx]] || v
	}
	return out
}

func remapStyleMap(m map[int]map[string]ast.PropertyEntry, remap []int) map[int]map[string]ast.PropertyEntry {
	out := make(map[int]map[string]ast.PropertyEntry, len(m))
	for idx, v := range m {
		target := remap[idx]
		if out[target] == nil {
			out[target] = map[string]ast.PropertyEntry{}
		}
		for k, entry := range v {
			out[target][k] = entry
		}
	}
	return out
}

func remapRules(rules []critic.Rule, remap []int) []critic.Rule {
	out := make([]critic.Rule, len(rules))
	var fix func(r critic.Rule) critic.Rule
	fix = func(r critic.Rule) critic.Rule {
		if r.Kind == critic.Not {
			inner := fix(*r.Inner)
			return critic.Rule{Kind: critic.Not, Inner: &inner, Weight: r.Weight}
		}
		cp := r
		cp.A = remap[r.A]
		if r.B >= 0 {
			cp.B = remap[r.B]
		}
		if r.SegmentB >= 0 {
			cp.SegmentB = remap[r.SegmentB]
		}
		return cp
	}
	for i, r := range rules {
		out[i] = fix(r)
	}
	return out
}

func remapEntities(ents *pool.EntityTable, remap []int) *pool.EntityTable {
	out := pool.NewEntityTable()
	for _, e := range ents.Entities {
		curve := e.CurveIndex
		if curve >= 0 {
			curve = remap[curve]
		}
		out.Add(e.Kind, curve)
	}
	return out
}

// checkDimensions re-derives the dimension invariant over every Sum and
// Power node in the lowered pool (spec.md §4.3 point 3): a Sum's
// operands must all carry the node's own dimension, and a Power's
// result dimension must equal its base's dimension scaled by its
// rational exponent. unroll already enforces this expression-by-
// expression as it builds the pool; this is the defense-in-depth
// re-check math lowering is specified to perform once the whole pool is
// assembled.
func checkDimensions(p *pool.Pool) error {
	for i, e := range p.All() {
		switch e.Kind {
		case pool.Sum:
			for _, op := range e.Operands {
				if !p.Get(op).ValueType.Dim.Equal(e.ValueType.Dim) {
					return geoerr.ErrType.New("lower: sum operand dimension mismatch at pool index " + itoa(i))
				}
			}
		case pool.Power:
			base := p.Get(e.Operands[0])
			want := base.ValueType.Dim.Scale(e.Exponent)
			if !want.Equal(e.ValueType.Dim) {
				return geoerr.ErrType.New("lower: power result dimension mismatch at pool index " + itoa(i))
			}
		}
	}
	return nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// simplifyToFixedPoint repeatedly rewrites p until a round produces no
// further reduction (spec.md §4.3 point 2, "applied to fixed point"). It
// returns the final pool and the composed remap from every original
// index to its final index.
func simplifyToFixedPoint(p *pool.Pool) (*pool.Pool, []int) {
	remap := identityRemap(p.Len())
	cur := p
	for {
		next, roundRemap, changed := simplifyOnce(cur)
		for i, r := range remap {
			remap[i] = roundRemap[r]
		}
		cur = next
		if !changed {
			return cur, remap
		}
	}
}

func identityRemap(n int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = i
	}
	return m
}

// simplifyOnce performs one rewrite pass: every node is either collapsed
// to an identity (no new node interned) or reconstructed with remapped
// operands and interned into the returned pool, which also performs
// ordinary hash-consing/CSE and the scalar algebraic folds (constant
// folding, a+(-a)=0, a*1=a, a^1=a, (a^p)^q=a^(pq)).
func simplifyOnce(p *pool.Pool) (*pool.Pool, []int, bool) {
	out := pool.New()
	remap := make([]int, p.Len())
	changed := false

	for i, e := range p.All() {
		ops := make([]int, len(e.Operands))
		for j, op := range e.Operands {
			ops[j] = remap[op]
		}
		rebuilt := pool.Expr{Kind: e.Kind, Operands: ops, ValueType: e.ValueType, ConstValue: e.ConstValue, Exponent: e.Exponent, EntityIndex: e.EntityIndex}

		if idx, ok := identitySubstitute(out, e, ops); ok {
			remap[i] = idx
			changed = true
			continue
		}
		if idx, ok := algebraicFold(out, rebuilt); ok {
			remap[i] = idx
			changed = true
			continue
		}

		remap[i] = mustIntern(out, rebuilt)
	}

	return out, remap, changed
}

func mustIntern(out *pool.Pool, e pool.Expr) int {
	idx, err := out.Intern(e)
	if err != nil {
		panic(err)
	}
	return idx
}

// identitySubstitute detects the four named geometric identities
// (spec.md §4.3 point 2) against e's already-remapped operands ops,
// using out (the in-progress new pool) to inspect what those operands'
// own nodes look like. Returns the substitute index and true if a match
// fired.
func identitySubstitute(out *pool.Pool, e pool.Expr, ops []int) (int, bool) {
	switch e.Kind {
	case pool.LineLineIntersection:
		l1, l2 := out.Get(ops[0]), out.Get(ops[1])
		if l1.Kind != pool.PointPointLine || l2.Kind != pool.PointPointLine {
			return 0, false
		}
		if common, ok := singleCommonPoint(l1.Operands, l2.Operands); ok {
			return common, true
		}
	case pool.AveragePoint:
		if allEqual(ops) {
			return ops[0], true
		}
	case pool.AngleBisector:
		// Operands are [arm1, vertex, arm2]; arm1 == arm2 means the
		// bisector degenerates to the line through the vertex and the
		// (shared) arm, spec.md §4.3 "bisector(A,B,A) = line(A,B)".
		if ops[0] == ops[2] {
			idx := mustIntern(out, pool.Expr{
				Kind:      pool.PointPointLine,
				Operands:  []int{ops[0], ops[1]},
				ValueType: value.Line(),
			})
			return idx, true
		}
	case pool.PointPointDistance:
		if ops[0] == ops[1] {
			idx := mustIntern(out, pool.Expr{
				Kind:       pool.Const,
				ConstValue: 0,
				ValueType:  value.Scalar(value.Distance()),
			})
			return idx, true
		}
	}
	return 0, false
}

func singleCommonPoint(a, b []int) (int, bool) {
	var common, count int
	for _, x := range a {
		for _, y := range b {
			if x == y {
				common = x
				count++
			}
		}
	}
	if count == 1 {
		return common, true
	}
	return 0, false
}

func allEqual(xs []int) bool {
	for _, x := range xs {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// algebraicFold applies the scalar simplifications named in spec.md
// §4.3 point 1 beyond ordinary CSE: constant folding for Sum/Product,
// a+(-a)=0, a*1=a, a^1=a, and (a^p)^q=a^(pq).
func algebraicFold(out *pool.Pool, e pool.Expr) (int, bool) {
	switch e.Kind {
	case pool.Sum:
		if v, ok := constFold(out, e.Operands, func(a, b float64) float64 { return a + b }, 0); ok {
			idx := mustIntern(out, pool.Expr{Kind: pool.Const, ConstValue: v, ValueType: e.ValueType})
			return idx, true
		}
		if len(e.Operands) == 2 {
			if isNegationOf(out, e.Operands[0], e.Operands[1]) || isNegationOf(out, e.Operands[1], e.Operands[0]) {
				idx := mustIntern(out, pool.Expr{Kind: pool.Const, ConstValue: 0, ValueType: e.ValueType})
				return idx, true
			}
		}
	case pool.Product:
		if v, ok := constFold(out, e.Operands, func(a, b float64) float64 { return a * b }, 1); ok {
			idx := mustIntern(out, pool.Expr{Kind: pool.Const, ConstValue: v, ValueType: e.ValueType})
			return idx, true
		}
		if len(e.Operands) == 2 {
			if isDimensionlessOne(out, e.Operands[0]) {
				return e.Operands[1], true
			}
			if isDimensionlessOne(out, e.Operands[1]) {
				return e.Operands[0], true
			}
		}
	case pool.Power:
		if e.Exponent != nil && e.Exponent.Cmp(big.NewRat(1, 1)) == 0 {
			return e.Operands[0], true
		}
		inner := out.Get(e.Operands[0])
		if inner.Kind == pool.Power {
			combined := new(big.Rat).Mul(inner.Exponent, e.Exponent)
			idx := mustIntern(out, pool.Expr{
				Kind:      pool.Power,
				Operands:  []int{inner.Operands[0]},
				Exponent:  combined,
				ValueType: e.ValueType,
			})
			return idx, true
		}
	}
	return 0, false
}

func constFold(out *pool.Pool, operands []int, op func(a, b float64) float64, identity float64) (float64, bool) {
	if len(operands) == 0 {
		return 0, false
	}
	acc := identity
	first := true
	for _, o := range operands {
		e := out.Get(o)
		if e.Kind != pool.Const {
			return 0, false
		}
		if first {
			acc = e.ConstValue
			first = false
			continue
		}
		acc = op(acc, e.ConstValue)
	}
	return acc, true
}

func isDimensionlessOne(out *pool.Pool, idx int) bool {
	e := out.Get(idx)
	return e.Kind == pool.Const && e.ConstValue == 1 && e.ValueType.Dim.IsDimensionless()
}

func isNegationOf(out *pool.Pool, candidateNeg, target int) bool {
	e := out.Get(candidateNeg)
	if e.Kind != pool.Product || len(e.Operands) != 2 {
		return false
	}
	for _, pair := range [][2]int{{e.Operands[0], e.Operands[1]}, {e.Operands[1], e.Operands[0]}} {
		if pair[0] == target {
			c := out.Get(pair[1])
			if c.Kind == pool.Const && c.ConstValue == -1 {
				return true
			}
		}
	}
	return false
}
