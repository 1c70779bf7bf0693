// Package units provides shared constants and conversions for speed units.
// Oracle arithmetic is carried out in metres per second; scenario files may
// state the grid velocity in any of the units below.
package units

import "fmt"

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

const mpsPerMPH = 0.44704

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

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
	return "mps, mph, kmph, kph"
}

// ToMPS converts a speed expressed in unit to metres per second.
func ToMPS(speed float64, unit string) (float64, error) {
	switch unit {
	case MPS, "":
		return speed, nil
	case MPH:
		return speed * mpsPerMPH, nil
	case KMPH, KPH:
		return speed / 3.6, nil
	default:
		return 0, fmt.Errorf("unknown speed unit %q (valid: %s)", unit, GetValidUnitsString())
	}
}

// FromMPS converts a speed from metres per second to the target unit.
// Unknown units fall back to m/s.
func FromMPS(speedMPS float64, unit string) float64 {
	switch unit {
	case MPH:
		return speedMPS / mpsPerMPH
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}
