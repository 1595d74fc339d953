// Package units provides shared constants and validation for coordinate length units
package units

// Unit constants
const (
	MM = "mm"
	CM = "cm"
	M  = "m"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MM, CM, M}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mm, cm, m"
}

// ConvertLength converts a coordinate from millimetres to the target units.
// Digitized points are stored in mm.
func ConvertLength(valueMM float64, targetUnits string) float64 {
	switch targetUnits {
	case CM:
		return valueMM / 10.0
	case M:
		return valueMM / 1000.0
	case MM:
		return valueMM // no conversion needed
	default:
		return valueMM // default to mm if unknown unit
	}
}
