package align

import "testing"

func TestAssess_ExactAlignmentIsExcellent(t *testing.T) {
	m := Frankfort(tiltedPoR, tiltedPoL, tiltedZyo)
	a := Assess(m, tiltedPoR, tiltedPoL)

	if a.Quality != QualityExcellent {
		t.Errorf("quality = %s, want %s", a.Quality, QualityExcellent)
	}
	if !a.Rigid {
		t.Error("expected rigid matrix")
	}
	if a.ResidualTiltDeg > 1e-9 {
		t.Errorf("residual tilt = %v, want ~0", a.ResidualTiltDeg)
	}
	if a.OrthonormalityError > 1e-9 {
		t.Errorf("orthonormality error = %v, want ~0", a.OrthonormalityError)
	}
}

func TestAssess_IdentityOnTiltedPairIsPoor(t *testing.T) {
	// The identity obviously does not level a pair tilted by more than a
	// few degrees.
	a := Assess(Identity(), Point3{50, 0, 10}, Point3{-50, 0, -10})
	if a.Quality != QualityPoor {
		t.Errorf("quality = %s, want %s", a.Quality, QualityPoor)
	}
	if a.ResidualTiltDeg < 2 {
		t.Errorf("residual tilt = %v, want > 2 degrees", a.ResidualTiltDeg)
	}
}

func TestAssess_SmallResidualGrades(t *testing.T) {
	cases := []struct {
		name string
		m    Matrix4
		want Quality
	}{
		// Residual roll of ~0.3 degrees on an otherwise level pair.
		{"good", RotationZ(0.3 * 3.14159 / 180), QualityGood},
		// ~1 degree left over.
		{"fair", RotationZ(1.0 * 3.14159 / 180), QualityFair},
	}
	poR := Point3{50, 0, 0}
	poL := Point3{-50, 0, 0}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Assess(tc.m, poR, poL)
			if a.Quality != tc.want {
				t.Errorf("quality = %s (tilt %v), want %s", a.Quality, a.ResidualTiltDeg, tc.want)
			}
		})
	}
}

func TestAssess_NonRigidIsPoor(t *testing.T) {
	m := Identity()
	m[0] = 2
	a := Assess(m, Point3{50, 0, 0}, Point3{-50, 0, 0})
	if a.Quality != QualityPoor {
		t.Errorf("quality = %s, want %s", a.Quality, QualityPoor)
	}
	if a.Rigid {
		t.Error("scaled matrix reported rigid")
	}
}

func TestAssess_CoincidentPorions(t *testing.T) {
	p := Point3{1, 2, 3}
	a := Assess(Identity(), p, p)
	if a.Quality != QualityFair {
		t.Errorf("quality = %s, want %s for unlevelable pair", a.Quality, QualityFair)
	}
}

func TestQualityString(t *testing.T) {
	if s := QualityExcellent.String(); s == "" || s == string(QualityPoor) {
		t.Errorf("unexpected string: %q", s)
	}
	if s := Quality("custom").String(); s != "custom" {
		t.Errorf("fallthrough string = %q, want custom", s)
	}
}
