// Package value defines the closed, small set of typed values GeoScript
// expressions evaluate to (spec.md §3 "Value kinds"), plus the dimension
// vector scalars carry for unit soundness. Per spec.md §9's design note,
// Value is a tagged variant over a fixed set of concrete types — no
// runtime polymorphism beyond that set.
package value

import "math/big"

// Dimension is a vector over the fixed basis {distance, angle, scalar}.
// Multiplying two scalars adds their Dimensions component-wise;
// exponentiating a scalar by a rational p scales its Dimension by p.
// Components are *big.Rat so repeated fractional exponentiation never
// drifts a "should be integer" dimension away from exactness.
type Dimension struct {
	Distance *big.Rat
	Angle    *big.Rat
	Scalar   *big.Rat
}

// NewDimension builds a Dimension from integer exponents, the common case
// (distance^1, angle^1, no-unit scalar^1, ...).
func NewDimension(distance, angle, scalar int64) Dimension {
	return Dimension{
		Distance: big.NewRat(distance, 1),
		Angle:    big.NewRat(angle, 1),
		Scalar:   big.NewRat(scalar, 1),
	}
}

// Dimensionless is the unit of the multiplicative group: 1 (i.e. a
// no-unit scalar).
func Dimensionless() Dimension { return NewDimension(0, 0, 0) }

// Distance is the dimension of lengths.
func Distance() Dimension { return NewDimension(1, 0, 0) }

// Angle is the dimension of angles.
func Angle() Dimension { return NewDimension(0, 1, 0) }

// Add returns the dimension of a*b where a, b are the dimensions of the
// multiplicands.
func (d Dimension) Add(o Dimension) Dimension {
	return Dimension{
		Distance: new(big.Rat).Add(d.Distance, o.Distance),
		Angle:    new(big.Rat).Add(d.Angle, o.Angle),
		Scalar:   new(big.Rat).Add(d.Scalar, o.Scalar),
	}
}

// Scale returns the dimension of a^p where a has dimension d.
func (d Dimension) Scale(p *big.Rat) Dimension {
	return Dimension{
		Distance: new(big.Rat).Mul(d.Distance, p),
		Angle:    new(big.Rat).Mul(d.Angle, p),
		Scalar:   new(big.Rat).Mul(d.Scalar, p),
	}
}

// Equal reports whether d and o are the same dimension vector.
func (d Dimension) Equal(o Dimension) bool {
	return d.Distance.Cmp(o.Distance) == 0 &&
		d.Angle.Cmp(o.Angle) == 0 &&
		d.Scalar.Cmp(o.Scalar) == 0
}

// IsDimensionless reports whether d is the identity (no-unit scalar).
func (d Dimension) IsDimensionless() bool {
	return d.Equal(Dimensionless())
}

// IsAngleOrDimensionless reports whether d is suitable as the argument to
// a trigonometric function: angle, or no-unit (spec.md §3 validity rule).
func (d Dimension) IsAngleOrDimensionless() bool {
	return d.Equal(Angle()) || d.IsDimensionless()
}

// IsInteger reports whether every component of d is an integer, used when
// checking that a power's result dimension is well-formed.
func (d Dimension) IsInteger() bool {
	return d.Distance.IsInt() && d.Angle.IsInt() && d.Scalar.IsInt()
}

func (d Dimension) String() string {
	switch {
	case d.IsDimensionless():
		return "1"
	case d.Equal(Distance()):
		return "distance"
	case d.Equal(Angle()):
		return "angle"
	default:
		return "distance^" + d.Distance.RatString() + "·angle^" + d.Angle.RatString() + "·scalar^" + d.Scalar.RatString()
	}
}
