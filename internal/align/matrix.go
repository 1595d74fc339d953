package align

import "math"

// Matrix4 is a 4x4 homogeneous transform stored row-major:
// m00,m01,m02,m03, m10,...,m33. The matrices produced by this package are
// pure rotations: orthonormal 3x3 block, zero translation, bottom row
// [0 0 0 1].
type Matrix4 [16]float64

// RigidTolerance is the tolerance used when checking that a matrix is a
// proper rigid rotation (det of the 3x3 block within this distance of +1).
const RigidTolerance = 1e-9

// Identity returns the identity transform.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// RotationX returns a right-handed rotation of theta radians about the X axis.
func RotationX(theta float64) Matrix4 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Matrix4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

// RotationY returns a right-handed rotation of theta radians about the Y axis.
func RotationY(theta float64) Matrix4 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Matrix4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotationZ returns a right-handed rotation of theta radians about the Z axis.
func RotationZ(theta float64) Matrix4 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Matrix4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * n. Points transform as column vectors, so Mul(a, b)
// applied to a point runs b first, then a.
func (m Matrix4) Mul(n Matrix4) Matrix4 {
	var out Matrix4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * n[k*4+col]
			}
			out[row*4+col] = sum
		}
	}
	return out
}

// Apply transforms p by m.
func (m Matrix4) Apply(p Point3) Point3 {
	return Point3{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// Det3 returns the determinant of the 3x3 rotation block.
func (m Matrix4) Det3() float64 {
	return m[0]*(m[5]*m[10]-m[6]*m[9]) -
		m[1]*(m[4]*m[10]-m[6]*m[8]) +
		m[2]*(m[4]*m[9]-m[5]*m[8])
}

// IsRigid reports whether m is a proper rigid rotation: the 3x3 block is
// orthonormal with determinant +1 (no reflection), the translation column
// is zero, and the bottom row is [0 0 0 1].
func (m Matrix4) IsRigid(tol float64) bool {
	if m[3] != 0 || m[7] != 0 || m[11] != 0 {
		return false
	}
	if m[12] != 0 || m[13] != 0 || m[14] != 0 || math.Abs(m[15]-1) > tol {
		return false
	}
	if math.Abs(m.Det3()-1) > tol {
		return false
	}
	return m.OrthonormalityError() <= tol
}

// Translation returns the translation column of m.
func (m Matrix4) Translation() (x, y, z float64) {
	return m[3], m[7], m[11]
}
