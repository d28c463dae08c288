package value

import "fmt"

// Kind tags which of the six concrete Value implementations a Type
// describes.
type Kind int

const (
	KindPoint Kind = iota
	KindLine
	KindCircle
	KindScalar
	KindPointCollection
	KindBundle
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLine:
		return "Line"
	case KindCircle:
		return "Circle"
	case KindScalar:
		return "Scalar"
	case KindPointCollection:
		return "PointCollection"
	case KindBundle:
		return "Bundle"
	default:
		return "Unknown"
	}
}

// Type is the static type of an expression: a Kind plus the kind-specific
// parameters needed to check assignability (a Scalar's Dimension, a
// PointCollection's length, a Bundle's field types).
type Type struct {
	Kind   Kind
	Dim    Dimension
	N      int
	Fields map[string]Type
}

// Point returns the Point type.
func Point() Type { return Type{Kind: KindPoint} }

// Line returns the Line type.
func Line() Type { return Type{Kind: KindLine} }

// Circle returns the Circle type.
func Circle() Type { return Type{Kind: KindCircle} }

// Scalar returns the Scalar(dim) type.
func Scalar(dim Dimension) Type { return Type{Kind: KindScalar, Dim: dim} }

// PointCollection returns the PointCollection(n) type.
func PointCollection(n int) Type { return Type{Kind: KindPointCollection, N: n} }

// Bundle returns the Bundle(fields) type.
func Bundle(fields map[string]Type) Type { return Type{Kind: KindBundle, Fields: fields} }

// Equal reports whether t and o describe the same static type.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindScalar:
		return t.Dim.Equal(o.Dim)
	case KindPointCollection:
		return t.N == o.N
	case KindBundle:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for k, v := range t.Fields {
			ov, ok := o.Fields[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.Kind {
	case KindScalar:
		return fmt.Sprintf("Scalar(%s)", t.Dim)
	case KindPointCollection:
		return fmt.Sprintf("PointCollection(%d)", t.N)
	default:
		return t.Kind.String()
	}
}

// Value is a realized, fully-numeric instance of one of the six Types. It
// is produced by re-evaluating the expression pool at a settled adjustable
// vector (spec.md §4.6), and by the critic program while scoring a
// candidate assignment.
type Value interface {
	// Type reports the static type this Value realizes.
	Type() Type
	isValue()
}

// Pt is a point, represented as a complex number x+iy.
type Pt complex128

func (Pt) Type() Type { return Point() }
func (Pt) isValue()    {}

// X returns the real coordinate.
func (p Pt) X() float64 { return real(complex128(p)) }

// Y returns the imaginary coordinate.
func (p Pt) Y() float64 { return imag(complex128(p)) }

// Ln is a line: an origin point and a unit direction vector.
type Ln struct {
	Origin    complex128
	Direction complex128 // must have unit modulus
}

func (Ln) Type() Type { return Line() }
func (Ln) isValue()    {}

// Circ is a circle: a center point and a non-negative real radius.
type Circ struct {
	Center complex128
	Radius float64
}

func (Circ) Type() Type { return Circle() }
func (Circ) isValue()   {}

// Scl is a real scalar carrying a Dimension.
type Scl struct {
	X   float64
	Dim Dimension
}

func (s Scl) Type() Type { return Scalar(s.Dim) }
func (Scl) isValue()     {}

// Coll is an ordered tuple of points.
type Coll []Pt

func (c Coll) Type() Type { return PointCollection(len(c)) }
func (Coll) isValue()     {}

// Bun is a named record of values, used for property objects.
type Bun map[string]Value

func (b Bun) Type() Type {
	fields := make(map[string]Type, len(b))
	for k, v := range b {
		fields[k] = v.Type()
	}
	return Bundle(fields)
}
func (Bun) isValue() {}
