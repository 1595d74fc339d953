// Package landmark resolves named anatomical landmarks against an
// externally managed fiducial collection and binds them to the alignment
// math in internal/align.
//
// The name list comes from project configuration and is ordered: a
// landmark's index is its position in the list, and the landmark counts as
// placed once the fiducial collection holds at least index+1 points. The
// alignment operations refuse to run when any required landmark is missing
// or unplaced; no matrix is produced and nothing is mutated.
package landmark

import (
	"errors"
	"fmt"

	"github.com/cranial-data/landmark.report/internal/align"
)

// Canonical landmark names used by the standard alignments. The name list
// itself is project-defined; these are only the entries the built-in
// alignment kinds look up.
const (
	PorionRight             = "poR"
	PorionLeft              = "poL"
	ZygomaticoorbitaleLeft  = "zyoL"
	ZygomaticoorbitaleRight = "zyoR"
	Sella                   = "se"
	Opisthion               = "o"
	Nasion                  = "n"
)

var (
	// ErrMissing reports a required landmark name absent from the
	// configured name list.
	ErrMissing = errors.New("landmark not in configured name list")
	// ErrInsufficientPoints reports a landmark whose index lies beyond the
	// points actually placed in the fiducial collection.
	ErrInsufficientPoints = errors.New("landmark not placed yet")
)

// NameList is the ordered landmark name list loaded from project
// configuration. Position in the list is the landmark's fiducial index.
type NameList []string

// DefaultNames is the name list used when the project configuration does not
// supply one. The order fixes each landmark's fiducial index.
var DefaultNames = NameList{
	PorionRight,
	PorionLeft,
	ZygomaticoorbitaleLeft,
	ZygomaticoorbitaleRight,
	Sella,
	Opisthion,
	Nasion,
}

// Index returns the index of the first occurrence of name. Duplicate
// entries resolve to the first occurrence.
func (nl NameList) Index(name string) (int, bool) {
	for i, n := range nl {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Collection is the minimal surface of an external fiducial collection:
// how many points have been placed, and where each one is.
type Collection interface {
	Count() int
	PositionAt(i int) align.Point3
}

// Points is a slice-backed Collection for callers that already hold the
// coordinates in memory.
type Points []align.Point3

func (p Points) Count() int                    { return len(p) }
func (p Points) PositionAt(i int) align.Point3 { return p[i] }

// Set holds resolved landmark positions keyed by name.
type Set map[string]align.Point3

// Resolve looks up each wanted landmark in the name list and fetches its
// position from the collection. It fails fast on the first landmark that
// is missing from the list or not yet placed, returning a nil Set.
func Resolve(names NameList, fids Collection, wanted ...string) (Set, error) {
	set := make(Set, len(wanted))
	for _, name := range wanted {
		idx, ok := names.Index(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissing, name)
		}
		if fids.Count() <= idx {
			return nil, fmt.Errorf("%w: %q needs index %d but only %d points placed",
				ErrInsufficientPoints, name, idx, fids.Count())
		}
		set[name] = fids.PositionAt(idx)
	}
	return set, nil
}
