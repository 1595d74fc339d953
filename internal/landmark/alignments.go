package landmark

import (
	"fmt"

	"github.com/cranial-data/landmark.report/internal/align"
)

// Kind names one of the built-in anatomical alignments. The four kinds map
// onto two shared routines: both Frankfort variants level the porion pair
// and a unilateral orbital point, and O-Se / O-Na level the porion pair
// and then drive a midline direction vertical.
type Kind string

const (
	FrankfortLeft  Kind = "frankfort-left"
	FrankfortRight Kind = "frankfort-right"
	OSe            Kind = "o-se"
	ONa            Kind = "o-na"
)

// Kinds lists the supported alignment kinds.
func Kinds() []Kind {
	return []Kind{FrankfortLeft, FrankfortRight, OSe, ONa}
}

// Required returns the landmark names the kind consumes, porions first.
func (k Kind) Required() ([]string, error) {
	switch k {
	case FrankfortLeft:
		return []string{PorionRight, PorionLeft, ZygomaticoorbitaleLeft}, nil
	case FrankfortRight:
		return []string{PorionRight, PorionLeft, ZygomaticoorbitaleRight}, nil
	case OSe:
		return []string{PorionRight, PorionLeft, Opisthion, Sella}, nil
	case ONa:
		return []string{PorionRight, PorionLeft, Opisthion, Nasion}, nil
	default:
		return nil, fmt.Errorf("unknown alignment kind %q", k)
	}
}

// Compute resolves the kind's landmarks against the collection and returns
// the alignment rotation. On any precondition failure the matrix is not
// computed and the error wraps ErrMissing or ErrInsufficientPoints.
func Compute(kind Kind, names NameList, fids Collection) (align.Matrix4, error) {
	required, err := kind.Required()
	if err != nil {
		return align.Matrix4{}, err
	}

	set, err := Resolve(names, fids, required...)
	if err != nil {
		return align.Matrix4{}, fmt.Errorf("%s alignment: %w", kind, err)
	}

	poR := set[PorionRight]
	poL := set[PorionLeft]

	switch kind {
	case FrankfortLeft:
		return align.Frankfort(poR, poL, set[ZygomaticoorbitaleLeft]), nil
	case FrankfortRight:
		return align.Frankfort(poR, poL, set[ZygomaticoorbitaleRight]), nil
	case OSe:
		return align.Sagittal(poR, poL, set[Opisthion], set[Sella]), nil
	default: // ONa; unknown kinds already rejected above
		return align.Sagittal(poR, poL, set[Opisthion], set[Nasion]), nil
	}
}

// ComputeAssessed computes the alignment and grades it against the porion
// pair it leveled.
func ComputeAssessed(kind Kind, names NameList, fids Collection) (align.Matrix4, align.Assessment, error) {
	m, err := Compute(kind, names, fids)
	if err != nil {
		return align.Matrix4{}, align.Assessment{}, err
	}

	set, err := Resolve(names, fids, PorionRight, PorionLeft)
	if err != nil {
		return align.Matrix4{}, align.Assessment{}, err
	}
	return m, align.Assess(m, set[PorionRight], set[PorionLeft]), nil
}
