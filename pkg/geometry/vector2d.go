package geometry

import (
	"fmt"
	"math"
)

// Epsilon Precision constant for float32 comparisons.
const (
	Epsilon = 1e-6
)

// Vector2D represents a 2D vector or point in cartesian space.
// We use public fields (X, Y) because they are fundamental data, not internal
// state. float32 keeps the agent record tightly packed for the host-facing
// flat state view.
type Vector2D struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// NewVector creates a new Vector2D.
func NewVector(x, y float32) Vector2D {
	return Vector2D{X: x, Y: y}
}

// NewVectorPolar creates a new Vector2D from polar coordinates.
// theta is in radians.
func NewVectorPolar(radius, theta float32) Vector2D {
	x := radius * float32(math.Cos(float64(theta)))
	y := radius * float32(math.Sin(float64(theta)))
	return Vector2D{X: x, Y: y}
}

// String implements the fmt.Stringer interface.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// ---------------------------------------------------------------------
// Arithmetic Operations
// These methods use value receivers and return new values.
// ---------------------------------------------------------------------

// Add adds two vectors and returns the result.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts the other vector from the current vector.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vector2D) Mul(scalar float32) Vector2D {
	return Vector2D{v.X * scalar, v.Y * scalar}
}

// Div scales the vector by 1/scalar. Callers guarantee a nonzero scalar;
// the steering code only ever divides by neighbor counts and distances it
// has already checked.
func (v Vector2D) Div(scalar float32) Vector2D {
	return Vector2D{v.X / scalar, v.Y / scalar}
}

// Neg returns the vector pointing in the opposite direction.
func (v Vector2D) Neg() Vector2D {
	return Vector2D{-v.X, -v.Y}
}

// Dot calculates the dot product of two vectors.
func (v Vector2D) Dot(other Vector2D) float32 {
	return v.X*other.X + v.Y*other.Y
}

// ---------------------------------------------------------------------
// In-place mutation
// Accumulation and clamping mutate the receiver. Everything else is pure.
// ---------------------------------------------------------------------

// Accum adds other to the vector in place.
func (v *Vector2D) Accum(other Vector2D) {
	v.X += other.X
	v.Y += other.Y
}

// Normalize scales the vector in place to unit length.
// A zero-length vector is left unchanged: steering silently degenerates to a
// zero force instead of producing NaN when an agent sits exactly on its
// target.
func (v *Vector2D) Normalize() {
	m := v.Len()
	if m > 0 {
		v.X /= m
		v.Y /= m
	}
}

// Limit clamps the vector in place to the given maximum magnitude.
func (v *Vector2D) Limit(max float32) {
	if v.LenSqr() > max*max {
		v.Normalize()
		v.X *= max
		v.Y *= max
	}
}

// ---------------------------------------------------------------------
// Magnitude
// ---------------------------------------------------------------------

// LenSqr calculates the squared magnitude of the vector.
// This is faster than Len() as it avoids the square root. Use for comparisons.
func (v Vector2D) LenSqr() float32 {
	return v.X*v.X + v.Y*v.Y
}

// Len calculates the magnitude (length) of the vector.
func (v Vector2D) Len() float32 {
	return float32(math.Sqrt(float64(v.LenSqr())))
}

// DistanceSquaredTo calculates the squared Euclidean distance to another vector.
func (v Vector2D) DistanceSquaredTo(other Vector2D) float32 {
	return v.Sub(other).LenSqr()
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector2D) Eq(other Vector2D) bool {
	return math.Abs(float64(v.X-other.X)) <= Epsilon && math.Abs(float64(v.Y-other.Y)) <= Epsilon
}
