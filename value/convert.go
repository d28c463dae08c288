package value

// CoerceToDistance implements the dst(x) coercion (spec.md §4.2): a
// no-unit scalar literal may stand in for a distance. Per spec.md §9 open
// question (a), applying dst to a scalar that is *already* a distance is
// the identity — this function makes that explicit rather than leaving it
// as an accidental side effect of double-coercion.
func CoerceToDistance(s Scl) (Scl, bool) {
	switch {
	case s.Dim.Equal(Distance()):
		return s, true
	case s.Dim.IsDimensionless():
		return Scl{X: s.X, Dim: Distance()}, true
	default:
		return Scl{}, false
	}
}

// AsPoints reports the ordered points behind a Value when it is directly a
// Point or a PointCollection of any length, per spec.md §3 ("a collection
// of length 1 is interchangeable with a point").
func AsPoints(v Value) ([]Pt, bool) {
	switch v := v.(type) {
	case Pt:
		return []Pt{v}, true
	case Coll:
		return []Pt(v), true
	default:
		return nil, false
	}
}

// AsSegment reports the two endpoints of a Value usable as a Segment:
// either a PointCollection(2) or a value already typed as such.
func AsSegment(v Value) (Pt, Pt, bool) {
	pts, ok := AsPoints(v)
	if !ok || len(pts) != 2 {
		return 0, 0, false
	}
	return pts[0], pts[1], true
}
