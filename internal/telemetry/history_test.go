package telemetry

import "testing"

func sampleAt(ts float64) Sample {
	return Sample{Timestamp: ts}
}

func TestHistoryPushEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Push(sampleAt(float64(i)))
		if h.Len() > 3 {
			t.Fatalf("Len() = %d after %d pushes, want <= 3", h.Len(), i)
		}
		if got := h.Latest().Timestamp; got != float64(i) {
			t.Errorf("Latest().Timestamp = %v, want %v", got, float64(i))
		}
	}

	// Oldest two should have been evicted: 3, 4, 5 remain in order.
	w := h.Window(3)
	want := []float64{3, 4, 5}
	for i, ts := range want {
		if w[i].Timestamp != ts {
			t.Errorf("Window(3)[%d].Timestamp = %v, want %v", i, w[i].Timestamp, ts)
		}
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(4)
	if h.Latest() != nil {
		t.Error("Latest() on empty history should be nil")
	}
	if h.Previous() != nil {
		t.Error("Previous() on empty history should be nil")
	}
	if w := h.Window(3); w != nil {
		t.Errorf("Window(3) on empty history = %v, want nil", w)
	}
}

func TestHistoryPrevious(t *testing.T) {
	h := NewHistory(4)
	h.Push(sampleAt(1))
	if h.Previous() != nil {
		t.Error("Previous() with one sample should be nil")
	}
	h.Push(sampleAt(2))
	if got := h.Previous().Timestamp; got != 1 {
		t.Errorf("Previous().Timestamp = %v, want 1", got)
	}
}

func TestHistoryWindowShorterThanRequested(t *testing.T) {
	h := NewHistory(10)
	h.Push(sampleAt(1))
	h.Push(sampleAt(2))
	if got := len(h.Window(5)); got != 2 {
		t.Errorf("len(Window(5)) = %d, want 2", got)
	}
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	if h.Capacity() != DefaultHistorySize {
		t.Errorf("Capacity() = %d, want %d", h.Capacity(), DefaultHistorySize)
	}
}
