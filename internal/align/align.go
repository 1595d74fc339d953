// Package align computes rigid rotations that re-express a scene in a
// canonical anatomical frame from a handful of digitized landmarks.
//
// Both alignments run the same three-stage recipe: a yaw about Z levels the
// bilateral porion pair in the horizontal plane, a pitch about Y removes
// their front-back tilt, and a final roll about X drives the remaining
// reference direction to its canonical orientation. The stages compose in
// application order (Z first), and the result carries no translation or
// scale.
package align

import "math"

// Frankfort returns the rotation that levels the Frankfort horizontal: the
// plane through the right and left porion and the orbital point (left or
// right zygomaticoorbitale, the caller picks the side) becomes horizontal,
// with the porion pair leveled left-right.
//
// Degenerate input (coincident porions, or an orbital point on the porion
// midpoint) is not an error: math.Atan2(0, 0) == 0, so the affected stage
// contributes the identity rotation.
func Frankfort(poR, poL, orbital Point3) Matrix4 {
	rz, ry, pts := levelPorionPair(poR, poL, orbital)

	// Roll the porion-midpoint -> orbital vector into the horizontal plane.
	v := pts[2].Sub(pts[0].Mid(pts[1]))
	rx := RotationX(-math.Atan2(v.Z, v.Y))

	return rx.Mul(ry).Mul(rz)
}

// Sagittal returns the rotation used for the midline alignments (O-Se and
// O-Na share this math with different landmark inputs): after the porion
// pair is leveled, the secondary - primary direction is driven to vertical
// in the sagittal plane. Primary is the opisthion; secondary is the sella
// or nasion.
func Sagittal(poR, poL, primary, secondary Point3) Matrix4 {
	rz, ry, pts := levelPorionPair(poR, poL, primary, secondary)

	v := pts[3].Sub(pts[2])
	rx := RotationX(-math.Atan2(v.Z, v.Y))

	return rx.Mul(ry).Mul(rz)
}

// levelPorionPair runs the two shared leveling stages. It returns the yaw
// and pitch rotations plus every input point with both applied, porions
// first in the given order.
func levelPorionPair(poR, poL Point3, rest ...Point3) (rz, ry Matrix4, pts []Point3) {
	pts = append([]Point3{poR, poL}, rest...)

	// Stage 1: yaw about Z so the inter-porion line loses its horizontal
	// skew. Only the horizontal components of poR - poL matter here.
	po := poR.Sub(poL)
	rz = RotationZ(-math.Atan2(po.Y, po.X))
	for i := range pts {
		pts[i] = rz.Apply(pts[i])
	}

	// Stage 2: pitch about Y using the recomputed difference, composed on
	// top of stage 1.
	po = pts[0].Sub(pts[1])
	ry = RotationY(math.Atan2(po.Z, po.X))
	for i := range pts {
		pts[i] = ry.Apply(pts[i])
	}

	return rz, ry, pts
}
