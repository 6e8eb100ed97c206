// Package units provides shared constants and validation for display units
package units

// Speed unit constants. Telemetry sources report speed in km/h; conversion
// happens only at display time.
const (
	KMH = "kmh"
	MPH = "mph"
)

// ValidUnits contains all valid speed unit values
var ValidUnits = []string{KMH, MPH}

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
	return "kmh, mph"
}

// ConvertSpeed converts a speed from km/h to the target units
func ConvertSpeed(speedKMH float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedKMH * 0.621371
	case KMH:
		return speedKMH // no conversion needed
	default:
		return speedKMH // default to km/h if unknown unit
	}
}

// Label returns the human-readable suffix for a speed unit
func Label(unit string) string {
	if unit == MPH {
		return "mph"
	}
	return "km/h"
}
