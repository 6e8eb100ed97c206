package telemetry

// LapTracker detects lap-number transitions across consecutive observations
// and keeps the best lap time seen in the session. The best time only ever
// decreases.
type LapTracker struct {
	lastLap  *int
	lapStart *float64
	best     *float64
}

// NewLapTracker returns an empty tracker.
func NewLapTracker() *LapTracker {
	return &LapTracker{}
}

// Observe feeds the lap number reported by a sample. It returns true when
// the lap changed relative to the previous observation and records the
// sample timestamp as the new lap start. The first observation and nil lap
// numbers never report a change; a nil lap also leaves the remembered lap
// untouched, so a source that drops the field for a few ticks does not
// fake a transition when it comes back.
func (t *LapTracker) Observe(currentLap *int, timestamp float64) bool {
	if currentLap == nil {
		return false
	}
	if t.lastLap == nil {
		lap := *currentLap
		t.lastLap = &lap
		return false
	}
	if *currentLap == *t.lastLap {
		return false
	}
	*t.lastLap = *currentLap
	start := timestamp
	t.lapStart = &start
	return true
}

// RecordBest folds a reported best lap time into the tracked session best.
// Nil reports are ignored; a slower report never replaces a faster one.
func (t *LapTracker) RecordBest(bestLap *float64) {
	if bestLap == nil {
		return
	}
	if t.best == nil || *bestLap < *t.best {
		b := *bestLap
		t.best = &b
	}
}

// Best returns the session best lap time, or nil if none was ever reported.
func (t *LapTracker) Best() *float64 {
	return cloneFloat(t.best)
}

// LapStart returns the timestamp of the most recent lap transition, or nil
// if no transition has been observed.
func (t *LapTracker) LapStart() *float64 {
	return cloneFloat(t.lapStart)
}
