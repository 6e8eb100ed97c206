package telemetry

import "testing"

func TestLapTrackerTransitions(t *testing.T) {
	tr := NewLapTracker()

	laps := []int{1, 1, 1, 2, 2, 3}
	var changes []int
	for i, lap := range laps {
		if tr.Observe(Int(lap), float64(i)) {
			changes = append(changes, i)
		}
	}

	// Exactly two transitions: at the first 2 (index 3) and the first 3
	// (index 5).
	if len(changes) != 2 || changes[0] != 3 || changes[1] != 5 {
		t.Errorf("lap changes at %v, want [3 5]", changes)
	}
	if start := tr.LapStart(); start == nil || *start != 5 {
		t.Errorf("LapStart() = %v, want 5", start)
	}
}

func TestLapTrackerNilLapIsNoOp(t *testing.T) {
	tr := NewLapTracker()
	tr.Observe(Int(4), 1)
	if tr.Observe(nil, 2) {
		t.Error("Observe(nil) reported a lap change")
	}
	// The remembered lap must survive a gap in reporting.
	if tr.Observe(Int(4), 3) {
		t.Error("Observe(4) after a nil gap reported a lap change")
	}
	if !tr.Observe(Int(5), 4) {
		t.Error("Observe(5) should report a lap change")
	}
}

func TestLapTrackerFirstObservationNoChange(t *testing.T) {
	tr := NewLapTracker()
	if tr.Observe(Int(7), 0) {
		t.Error("first observation reported a lap change")
	}
}

func TestBestLapMonotonicity(t *testing.T) {
	tr := NewLapTracker()
	for _, bt := range []float64{95.0, 94.5, 94.8, 93.9} {
		tr.RecordBest(Float64(bt))
	}
	if best := tr.Best(); best == nil || *best != 93.9 {
		t.Errorf("Best() = %v, want 93.9", best)
	}

	// A later, slower report must not regress the best.
	tr.RecordBest(Float64(96.0))
	if best := tr.Best(); best == nil || *best != 93.9 {
		t.Errorf("Best() after slower report = %v, want 93.9", best)
	}

	tr.RecordBest(nil)
	if best := tr.Best(); best == nil || *best != 93.9 {
		t.Errorf("Best() after nil report = %v, want 93.9", best)
	}
}

func TestBestLapUnset(t *testing.T) {
	tr := NewLapTracker()
	if tr.Best() != nil {
		t.Error("Best() with no reports should be nil")
	}
}
