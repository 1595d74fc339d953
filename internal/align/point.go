package align

import "math"

// Point3 is a 3D coordinate in the scene's working frame (millimeters by
// convention, but the math is unit-agnostic). Value type; methods never
// mutate the receiver.
type Point3 struct {
	X, Y, Z float64
}

// Sub returns p - q.
func (p Point3) Sub(q Point3) Point3 {
	return Point3{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Mid returns the midpoint of p and q.
func (p Point3) Mid(q Point3) Point3 {
	return Point3{(p.X + q.X) / 2, (p.Y + q.Y) / 2, (p.Z + q.Z) / 2}
}

// Norm returns the Euclidean length of p treated as a vector.
func (p Point3) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}
