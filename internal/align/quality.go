package align

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Quality grades how cleanly an alignment leveled its reference points,
// mirroring the residual-based grading used for sensor pose calibrations.
type Quality string

const (
	// QualityExcellent indicates residual tilt < 0.1 degrees.
	QualityExcellent Quality = "excellent"
	// QualityGood indicates residual tilt 0.1-0.5 degrees.
	QualityGood Quality = "good"
	// QualityFair indicates residual tilt 0.5-2 degrees; re-digitizing the
	// landmarks is worth considering.
	QualityFair Quality = "fair"
	// QualityPoor indicates residual tilt > 2 degrees or a non-rigid matrix.
	QualityPoor Quality = "poor"
)

// Residual tilt thresholds (degrees).
const (
	tiltThresholdExcellent = 0.1
	tiltThresholdGood      = 0.5
	tiltThresholdFair      = 2.0
)

// Assessment is the quality report for one computed alignment.
type Assessment struct {
	Quality Quality `json:"quality"`
	// ResidualTiltDeg is the largest out-of-plane angle left on the leveled
	// reference pair after applying the matrix. Zero for exact input.
	ResidualTiltDeg float64 `json:"residual_tilt_deg"`
	// OrthonormalityError is ||R^T R - I|| of the rotation block.
	OrthonormalityError float64 `json:"orthonormality_error"`
	Rigid               bool    `json:"rigid"`
}

// OrthonormalityError returns the Frobenius norm of R^T R - I for the 3x3
// rotation block. Zero for a perfectly orthonormal matrix.
func (m Matrix4) OrthonormalityError() float64 {
	r := mat.NewDense(3, 3, []float64{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	})

	var rtr mat.Dense
	rtr.Mul(r.T(), r)

	var diff mat.Dense
	diff.Sub(&rtr, eye3())
	return mat.Norm(&diff, 2)
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}

// Assess grades the alignment m computed from the bilateral pair poR/poL.
// The pair should differ only along X once m is applied; any leftover Y or
// Z separation is reported as residual tilt.
func Assess(m Matrix4, poR, poL Point3) Assessment {
	a := Assessment{
		OrthonormalityError: m.OrthonormalityError(),
		Rigid:               m.IsRigid(1e-6),
	}

	r := m.Apply(poR)
	l := m.Apply(poL)
	d := r.Sub(l)

	lateral := math.Abs(d.X)
	if lateral == 0 {
		// Coincident porions: nothing was leveled, grade on rigidity alone.
		if a.Rigid {
			a.Quality = QualityFair
		} else {
			a.Quality = QualityPoor
		}
		return a
	}

	yaw := math.Abs(math.Atan2(d.Y, lateral)) * 180 / math.Pi
	pitch := math.Abs(math.Atan2(d.Z, lateral)) * 180 / math.Pi
	a.ResidualTiltDeg = math.Max(yaw, pitch)

	switch {
	case !a.Rigid:
		a.Quality = QualityPoor
	case a.ResidualTiltDeg < tiltThresholdExcellent:
		a.Quality = QualityExcellent
	case a.ResidualTiltDeg < tiltThresholdGood:
		a.Quality = QualityGood
	case a.ResidualTiltDeg < tiltThresholdFair:
		a.Quality = QualityFair
	default:
		a.Quality = QualityPoor
	}
	return a
}

// String returns a human-readable description of the quality grade.
func (q Quality) String() string {
	switch q {
	case QualityExcellent:
		return "excellent (tilt < 0.1 deg)"
	case QualityGood:
		return "good (tilt 0.1-0.5 deg)"
	case QualityFair:
		return "fair (tilt 0.5-2 deg)"
	case QualityPoor:
		return "poor (tilt > 2 deg or non-rigid)"
	default:
		return string(q)
	}
}
