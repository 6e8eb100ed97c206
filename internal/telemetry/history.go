package telemetry

// DefaultHistorySize is the number of samples kept when no capacity is
// configured.
const DefaultHistorySize = 10

// History is a fixed-capacity, insertion-ordered store of the most recent
// samples. When full, pushing evicts the oldest entry. It is not safe for
// concurrent use; the engine serialises access under its own lock.
type History struct {
	samples  []Sample
	capacity int
}

// NewHistory creates a history holding up to capacity samples. Capacities
// below one fall back to DefaultHistorySize.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	return &History{
		samples:  make([]Sample, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, evicting the oldest when at capacity.
func (h *History) Push(s Sample) {
	if len(h.samples) >= h.capacity {
		copy(h.samples, h.samples[1:])
		h.samples[len(h.samples)-1] = s
		return
	}
	h.samples = append(h.samples, s)
}

// Latest returns the most recently pushed sample, or nil when empty.
func (h *History) Latest() *Sample {
	if len(h.samples) == 0 {
		return nil
	}
	return &h.samples[len(h.samples)-1]
}

// Previous returns the second-most-recent sample, or nil when fewer than
// two samples have been pushed.
func (h *History) Previous() *Sample {
	if len(h.samples) < 2 {
		return nil
	}
	return &h.samples[len(h.samples)-2]
}

// Window returns the last min(k, Len) samples in chronological order. The
// returned slice is freshly allocated but shares pointer fields with the
// stored samples; callers that hand samples outside the engine lock must
// Clone them.
func (h *History) Window(k int) []Sample {
	if k <= 0 || len(h.samples) == 0 {
		return nil
	}
	if k > len(h.samples) {
		k = len(h.samples)
	}
	out := make([]Sample, k)
	copy(out, h.samples[len(h.samples)-k:])
	return out
}

// Len returns the number of stored samples.
func (h *History) Len() int { return len(h.samples) }

// Capacity returns the fixed capacity set at construction.
func (h *History) Capacity() int { return h.capacity }
