// Package figure builds the exported figure artifact (spec.md §6 "Figure
// export (JSON schema)") from a lowered program and a settled adjustable
// vector: the pool re-evaluated at x* (spec.md §4.6), tagged with each
// expression's and entity's closed export kind, plus the drawable items a
// format-specific renderer (out of scope here, see spec.md §1) will
// consume. Document is plain data; encoding/json marshals it directly,
// the way package auth exports nativeUser (see DESIGN.md).
package figure

import (
	"github.com/geo-aid/geoaid/ast"
	"github.com/geo-aid/geoaid/critic"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/lower"
	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/value"
)

// Document is the stable exported object spec.md §6 names:
// `{width, height, expressions[], entities[], items[]}`.
type Document struct {
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Expressions []Expression `json:"expressions"`
	Entities    []EntityOut  `json:"entities"`
	Items       []Item       `json:"items"`
}

// Expression is one pool node, tagged with its closed export kind and
// the realized hint value the generator's settled x* produced.
type Expression struct {
	Kind        string   `json:"kind"`
	Operands    []int    `json:"operands,omitempty"`
	Const       float64  `json:"const,omitempty"`
	Exponent    string   `json:"exponent,omitempty"`
	EntityIndex *int     `json:"entityIndex,omitempty"`
	Hint        Hint     `json:"hint"`
}

// EntityOut is one free variable, tagged with its closed export kind.
type EntityOut struct {
	Kind         string `json:"kind"`
	AdjustOffset int    `json:"adjustOffset"`
	Curve        *int   `json:"curve,omitempty"`
}

// Hint is the realized value of one expression at x* (spec.md §4.6): a
// tagged union over the four drawable value shapes. Exactly the fields
// matching the owning Expression's value kind are populated; encoding/json
// omits the rest.
type Hint struct {
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	OriginX *float64 `json:"originX,omitempty"`
	OriginY *float64 `json:"originY,omitempty"`
	DirX    *float64 `json:"dirX,omitempty"`
	DirY    *float64 `json:"dirY,omitempty"`
	CenterX *float64 `json:"centerX,omitempty"`
	CenterY *float64 `json:"centerY,omitempty"`
	Radius  *float64 `json:"radius,omitempty"`
	Value   *float64 `json:"value,omitempty"`
}

// Label is a `label = ...` property's exported form (spec.md §6 "optional
// label {position, content}"). GeoScript's property grammar only allows a
// single bare identifier as a label value (package ast has no nested
// property-value production), so Content is that identifier's name and
// Position is always the fixed default below; there is no surface syntax
// to author a different one (see DESIGN.md).
type Label struct {
	Position string `json:"position"`
	Content  string `json:"content"`
}

const defaultLabelPosition = "auto"

// Item is one drawable: a point, line, ray, segment, or circle, with its
// style and optional label (spec.md §6). Point/line/circle items name a
// single defining expression; segment items (spec.md's pool has no
// dedicated segment node, see DESIGN.md) name the two endpoint
// expressions instead.
type Item struct {
	Kind   string `json:"kind"`
	Expr   *int   `json:"expr,omitempty"`
	Points []int  `json:"points,omitempty"`
	Style  string `json:"style"`
	Label  *Label `json:"label,omitempty"`
}

const defaultStyle = "solid"

// Build re-evaluates lp's pool at x and assembles the exported Document,
// restricted to the figure-reachable sub-DAG (spec.md §4.3 point 5).
// width and height are the canvas dimensions a caller's configuration
// supplies; the core has no opinion on them.
func Build(lp *lower.Program, x []float64, width, height float64) (*Document, error) {
	ev := pool.NewEvaluator(lp.Pool, lp.Entities, x)

	doc := &Document{Width: width, Height: height}

	all := lp.Pool.All()
	for i, e := range all {
		if !lp.FigureReachable[i] {
			continue
		}
		v, err := ev.Value(i)
		if err != nil {
			return nil, geoerr.ErrInternal.New("figure: " + err.Error())
		}
		doc.Expressions = append(doc.Expressions, toExpression(e, v))
	}

	for _, e := range lp.Entities.Entities {
		out := EntityOut{Kind: e.Kind.Tag(), AdjustOffset: e.AdjustOffset}
		if e.CurveIndex >= 0 {
			curve := e.CurveIndex
			out.Curve = &curve
		}
		doc.Entities = append(doc.Entities, out)
	}

	doc.Items = append(doc.Items, displayItems(lp)...)
	doc.Items = append(doc.Items, segmentItems(lp)...)

	return doc, nil
}

// toExpression tags e with its export kind and fills the hint from its
// realized value v. The pool's own index order is the expressions[]
// array's index order, so operand indices need no translation.
func toExpression(e pool.Expr, v value.Value) Expression {
	out := Expression{Kind: e.Kind.Tag(), Operands: e.Operands, Hint: toHint(v)}
	if e.Kind == pool.Const {
		out.Const = e.ConstValue
	}
	if e.Kind == pool.Power && e.Exponent != nil {
		out.Exponent = e.Exponent.RatString()
	}
	if e.Kind == pool.Entity {
		idx := e.EntityIndex
		out.EntityIndex = &idx
	}
	return out
}

func toHint(v value.Value) Hint {
	switch val := v.(type) {
	case value.Pt:
		x, y := val.X(), val.Y()
		return Hint{X: &x, Y: &y}
	case value.Ln:
		ox, oy := real(val.Origin), imag(val.Origin)
		dx, dy := real(val.Direction), imag(val.Direction)
		return Hint{OriginX: &ox, OriginY: &oy, DirX: &dx, DirY: &dy}
	case value.Circ:
		cx, cy, r := real(val.Center), imag(val.Center), val.Radius
		return Hint{CenterX: &cx, CenterY: &cy, Radius: &r}
	case value.Scl:
		x := val.X
		return Hint{Value: &x}
	default:
		return Hint{}
	}
}

// displayItems emits one Item per figure-reachable, display-marked
// expression, as a point/line/circle per its ValueType (spec.md §6).
// GeoScript's `segment(...)` builtin never interns a pool node (it
// returns a bare point pair, see package unroll), so it can't appear
// here; see segmentItems. The DSL's `ray(...)` builtin resolves to the
// same PointPointLine node a `line(...)` call would, so a displayed ray
// is indistinguishable from a displayed line at this layer and is
// exported as "line" (a resolved Open Question, see DESIGN.md).
func displayItems(lp *lower.Program) []Item {
	var items []Item
	for idx, shown := range lp.Display {
		if !shown || !lp.FigureReachable[idx] {
			continue
		}
		kind, ok := itemKind(lp.Pool.Get(idx).ValueType.Kind)
		if !ok {
			continue
		}
		items = append(items, buildItem(kind, idx, lp.Styles[idx]))
	}
	return items
}

func itemKind(k value.Kind) (string, bool) {
	switch k {
	case value.KindPoint:
		return "point", true
	case value.KindLine:
		return "line", true
	case value.KindCircle:
		return "circle", true
	default:
		return "", false
	}
}

// segmentItems emits a segment Item for every lies_on-a-segment rule
// (spec.md §9(c) "lies_on(point, segment)"): the rule's SegmentB field
// already carries the second endpoint alongside B, the pair GeoScript's
// segment(...) builtin would otherwise have produced (see displayItems).
func segmentItems(lp *lower.Program) []Item {
	var items []Item
	for _, r := range lp.Rules {
		if r.Kind != critic.LiesOn || r.SegmentB < 0 {
			continue
		}
		if !lp.FigureReachable[r.B] || !lp.FigureReachable[r.SegmentB] {
			continue
		}
		items = append(items, Item{Kind: "segment", Points: []int{r.B, r.SegmentB}, Style: defaultStyle})
	}
	return items
}

func buildItem(kind string, idx int, props map[string]ast.PropertyEntry) Item {
	item := Item{Kind: kind, Expr: &idx, Style: defaultStyle}
	if entry, ok := props["style"]; ok {
		if name, ok := identName(entry.Value); ok {
			item.Style = name
		}
	}
	if entry, ok := props["label"]; ok {
		if name, ok := identName(entry.Value); ok {
			item.Label = &Label{Position: defaultLabelPosition, Content: name}
		}
	}
	return item
}

func identName(e ast.Expr) (string, bool) {
	id, ok := e.(*ast.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}
