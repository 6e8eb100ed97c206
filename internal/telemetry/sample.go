// Package telemetry maintains a bounded rolling history of car telemetry
// samples and derives compact context (deltas, trends, lap state) from it.
package telemetry

// TireTemps holds the four corner tire temperatures in degrees C.
// A sample either carries a complete set of corners or none at all.
type TireTemps struct {
	FrontLeft  float64 `json:"front_left"`
	FrontRight float64 `json:"front_right"`
	RearLeft   float64 `json:"rear_left"`
	RearRight  float64 `json:"rear_right"`
}

// Sample is one time-stamped snapshot of vehicle state. Every field except
// the timestamp is optional: a nil pointer means the source did not report
// the value on that tick, which is distinct from reporting zero.
type Sample struct {
	// Timestamp is wall-clock seconds. The engine stamps it on ingestion
	// when the source leaves it at zero.
	Timestamp   float64    `json:"timestamp"`
	Speed       *float64   `json:"speed,omitempty"` // km/h
	RPM         *int       `json:"rpm,omitempty"`
	Gear        *int       `json:"gear,omitempty"`
	Fuel        *float64   `json:"fuel,omitempty"` // litres remaining
	TireTemps   *TireTemps `json:"tire_temperatures,omitempty"`
	LapTime     *float64   `json:"lap_time,omitempty"` // seconds, nil between laps
	BestLapTime *float64   `json:"best_lap_time,omitempty"`
	CurrentLap  *int       `json:"current_lap,omitempty"`
	Position    *int       `json:"position,omitempty"` // 1-based race position
	Synthetic   bool       `json:"synthetic,omitempty"`
}

// Clone returns a deep copy. The history owns its copies outright, so
// callers may keep mutating the sample they handed to Update.
func (s Sample) Clone() Sample {
	c := s
	c.Speed = cloneFloat(s.Speed)
	c.RPM = cloneInt(s.RPM)
	c.Gear = cloneInt(s.Gear)
	c.Fuel = cloneFloat(s.Fuel)
	if s.TireTemps != nil {
		t := *s.TireTemps
		c.TireTemps = &t
	}
	c.LapTime = cloneFloat(s.LapTime)
	c.BestLapTime = cloneFloat(s.BestLapTime)
	c.CurrentLap = cloneInt(s.CurrentLap)
	c.Position = cloneInt(s.Position)
	return c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float64 returns a pointer to v, for building samples with optional fields.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for building samples with optional fields.
func Int(v int) *int { return &v }
