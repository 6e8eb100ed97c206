package telemetry

// Deltas holds per-field differences between two consecutive samples.
// A field is present only when both samples carried it; zero is a real
// delta, nil means unknowable.
type Deltas struct {
	Speed *float64 `json:"speed,omitempty"` // km/h
	Fuel  *float64 `json:"fuel,omitempty"`  // litres
	RPM   *int     `json:"rpm,omitempty"`
}

// Empty reports whether no delta could be computed.
func (d Deltas) Empty() bool {
	return d.Speed == nil && d.Fuel == nil && d.RPM == nil
}

// ComputeDeltas returns current minus previous for each numeric field
// present in both samples. Missing fields are omitted, never defaulted.
func ComputeDeltas(previous, current *Sample) Deltas {
	var d Deltas
	if previous == nil || current == nil {
		return d
	}
	if previous.Speed != nil && current.Speed != nil {
		d.Speed = Float64(*current.Speed - *previous.Speed)
	}
	if previous.Fuel != nil && current.Fuel != nil {
		d.Fuel = Float64(*current.Fuel - *previous.Fuel)
	}
	if previous.RPM != nil && current.RPM != nil {
		d.RPM = Int(*current.RPM - *previous.RPM)
	}
	return d
}
