package units

import (
	"math"
	"testing"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedKMH float64
		units    string
		expected float64
	}{
		{"100 km/h to mph", 100.0, MPH, 62.1371},
		{"100 km/h to kmh", 100.0, KMH, 100.0},
		{"unknown units default to km/h", 100.0, "unknown", 100.0},
		{"0 km/h to mph", 0.0, MPH, 0.0},
		{"race speed 280 km/h to mph", 280.0, MPH, 173.984}, // ~174 mph
		{"pit limit 60 km/h to mph", 60.0, MPH, 37.2823},    // ~37 mph
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedKMH, tt.units)
			if math.Abs(result-tt.expected) > 0.01 { // Allow small floating point differences
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedKMH, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid kmh", KMH, true},
		{"valid mph", MPH, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "MPH", false},
		{"case sensitive", "Kmh", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected string
	}{
		{"mph label", MPH, "mph"},
		{"kmh label", KMH, "km/h"},
		{"unknown falls back to km/h", "furlongs", "km/h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := Label(tt.unit); result != tt.expected {
				t.Errorf("Label(%s) = %q, want %q", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "kmh, mph" {
		t.Errorf("GetValidUnitsString() = %q, want %q", got, "kmh, mph")
	}
}
