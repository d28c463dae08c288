package pool

// EntityKind enumerates the four free-variable kinds (spec.md §3
// "Entities"). Each owns a contiguous slice of the adjustable vector.
type EntityKind int

const (
	FreePoint EntityKind = iota
	PointOnLine
	PointOnCircle
	FreeReal
)

// Dims reports how many adjustable-vector slots an entity of kind k owns.
func (k EntityKind) Dims() int {
	switch k {
	case FreePoint:
		return 2
	case PointOnLine, PointOnCircle, FreeReal:
		return 1
	default:
		return 0
	}
}

var entityTags = map[EntityKind]string{
	FreePoint:     "free-point",
	PointOnLine:   "point-on-line",
	PointOnCircle: "point-on-circle",
	FreeReal:      "free-real",
}

// Tag returns the export tag string for k.
func (k EntityKind) Tag() string { return entityTags[k] }

// Entity is a free variable: its Kind, the pool index of the curve it
// parameterizes (PointOnLine/PointOnCircle only, -1 otherwise), and the
// offset of its first component in the adjustable vector.
type Entity struct {
	Kind        EntityKind
	CurveIndex  int // -1 unless Kind is PointOnLine or PointOnCircle
	AdjustOffset int
}

// EntityTable assigns offsets into a shared adjustable vector to a
// sequence of Entities, in declaration order (spec.md §4.3 "Entity
// assignment").
type EntityTable struct {
	Entities []Entity
	NumAdj   int
}

// NewEntityTable returns an empty EntityTable.
func NewEntityTable() *EntityTable {
	return &EntityTable{}
}

// Add appends a new entity of kind, parameterized by curveIndex (ignored
// unless kind is PointOnLine/PointOnCircle), and returns its index.
func (t *EntityTable) Add(kind EntityKind, curveIndex int) int {
	if kind != PointOnLine && kind != PointOnCircle {
		curveIndex = -1
	}
	idx := len(t.Entities)
	t.Entities = append(t.Entities, Entity{Kind: kind, CurveIndex: curveIndex, AdjustOffset: t.NumAdj})
	t.NumAdj += kind.Dims()
	return idx
}

// Constrain narrows an already-added FreePoint entity to PointOnLine or
// PointOnCircle once its declaration's rule chain is known (spec.md §4.3
// point 4: a point's `lies_on` clause determines its entity kind). The
// entity keeps its original AdjustOffset; since PointOnLine/PointOnCircle
// need only one adjustable slot against FreePoint's two, the second slot
// goes unused rather than being reclaimed, a one-float64 waste per
// narrowed point that keeps every later entity's offset stable.
func (t *EntityTable) Constrain(idx int, kind EntityKind, curveIndex int) {
	t.Entities[idx].Kind = kind
	t.Entities[idx].CurveIndex = curveIndex
}
