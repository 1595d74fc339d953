package digitizer

import (
	"fmt"
	"strconv"
	"strings"
)

// Reading is one digitized point. Name is the probe-supplied label and is
// empty for bare coordinate lines, where the point's meaning comes from its
// position in the study's name list.
type Reading struct {
	Name string
	X    float64
	Y    float64
	Z    float64
}

// ParseLine parses one line of probe output. Two formats are accepted:
//
//	x,y,z
//	name,x,y,z
//
// Blank lines and lines starting with '#' are rejected as non-readings.
func ParseLine(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Reading{}, fmt.Errorf("not a reading: %q", line)
	}

	fields := strings.Split(line, ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}

	var r Reading
	switch len(fields) {
	case 3:
		// bare x,y,z
	case 4:
		r.Name = fields[0]
		if r.Name == "" {
			return Reading{}, fmt.Errorf("empty landmark name in %q", line)
		}
		fields = fields[1:]
	default:
		return Reading{}, fmt.Errorf("expected 3 or 4 fields, got %d in %q", len(fields), line)
	}

	coords := make([]float64, 3)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Reading{}, fmt.Errorf("bad coordinate %q in %q: %w", f, line, err)
		}
		coords[i] = v
	}
	r.X, r.Y, r.Z = coords[0], coords[1], coords[2]
	return r, nil
}
