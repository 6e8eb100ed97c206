package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/apex-data/race.engineer/internal/timeutil"
)

func newTestEngine(t *testing.T) (*Engine, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	return NewEngine(EngineOptions{Clock: clock}), clock
}

func TestEngineEmptyContext(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := e.Context()
	if ctx.Current != nil || ctx.BestLapTime != nil || ctx.Deltas != nil {
		t.Errorf("empty engine context = %+v, want all-absent", ctx)
	}
	if ctx.HistoryLen != 0 {
		t.Errorf("HistoryLen = %d, want 0", ctx.HistoryLen)
	}
	if got := e.Summary(); got != "No telemetry data available." {
		t.Errorf("Summary() = %q", got)
	}
}

func TestEngineStampsMissingTimestamp(t *testing.T) {
	e, clock := newTestEngine(t)
	e.Update(Sample{Speed: Float64(120)})
	ctx := e.Context()
	if ctx.Current == nil {
		t.Fatal("Current absent after update")
	}
	want := float64(clock.Now().UnixNano()) / 1e9
	if ctx.Current.Timestamp != want {
		t.Errorf("stamped timestamp = %v, want %v", ctx.Current.Timestamp, want)
	}
}

func TestEngineDropsOutOfOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Update(Sample{Timestamp: 10, Speed: Float64(100)})
	e.Update(Sample{Timestamp: 9, Speed: Float64(999)})  // earlier
	e.Update(Sample{Timestamp: 10, Speed: Float64(998)}) // duplicate

	ctx := e.Context()
	if ctx.HistoryLen != 1 {
		t.Errorf("HistoryLen = %d, want 1", ctx.HistoryLen)
	}
	if *ctx.Current.Speed != 100 {
		t.Errorf("Current.Speed = %v, want 100", *ctx.Current.Speed)
	}
	if e.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", e.Dropped())
	}
}

func TestEngineContextIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Update(Sample{Timestamp: 1, Speed: Float64(200), Fuel: Float64(40)})
	e.Update(Sample{Timestamp: 2, Speed: Float64(210), Fuel: Float64(39.9)})

	first := e.Context()
	second := e.Context()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Context() not idempotent (-first +second):\n%s", diff)
	}
}

func TestEngineContextIsSnapshot(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Update(Sample{Timestamp: 1, Speed: Float64(200)})
	ctx := e.Context()

	// Mutating the returned context must not leak into engine state.
	*ctx.Current.Speed = -1
	if got := *e.Context().Current.Speed; got != 200 {
		t.Errorf("engine state mutated through context copy: Speed = %v", got)
	}
}

func TestEngineCallerKeepsOwnership(t *testing.T) {
	e, _ := newTestEngine(t)
	speed := 150.0
	s := Sample{Timestamp: 1, Speed: &speed}
	e.Update(s)
	speed = 0 // caller reuses its sample
	if got := *e.Context().Current.Speed; got != 150 {
		t.Errorf("stored sample shares caller memory: Speed = %v", got)
	}
}

func TestEngineEndToEnd(t *testing.T) {
	// Three samples, identical tire temps, decreasing fuel: stable tire
	// trend, positive burn rate, deltas matching the last two samples.
	e, _ := newTestEngine(t)
	temps := TireTemps{FrontLeft: 85, FrontRight: 87, RearLeft: 82, RearRight: 84}

	e.Update(Sample{Timestamp: 1, Speed: Float64(200), Fuel: Float64(45.0), TireTemps: &temps, BestLapTime: Float64(94.2)})
	e.Update(Sample{Timestamp: 2, Speed: Float64(205), Fuel: Float64(44.8), TireTemps: &temps})
	e.Update(Sample{Timestamp: 3, Speed: Float64(202), Fuel: Float64(44.6), TireTemps: &temps})

	ctx := e.Context()
	if ctx.Analysis == nil {
		t.Fatal("Analysis absent")
	}
	if ctx.Analysis.TireTempTrend != TrendStable {
		t.Errorf("TireTempTrend = %q, want %q", ctx.Analysis.TireTempTrend, TrendStable)
	}
	if ctx.Analysis.FuelRate == nil || *ctx.Analysis.FuelRate <= 0 {
		t.Errorf("FuelRate = %v, want positive", ctx.Analysis.FuelRate)
	}
	if ctx.Deltas == nil {
		t.Fatal("Deltas absent")
	}
	if *ctx.Deltas.Speed != -3 {
		t.Errorf("Deltas.Speed = %v, want -3", *ctx.Deltas.Speed)
	}
	if got := *ctx.Deltas.Fuel; got < -0.2001 || got > -0.1999 {
		t.Errorf("Deltas.Fuel = %v, want -0.2", got)
	}
	if ctx.BestLapTime == nil || *ctx.BestLapTime != 94.2 {
		t.Errorf("BestLapTime = %v, want 94.2", ctx.BestLapTime)
	}
}

func TestEngineSummary(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Update(Sample{
		Timestamp: 1,
		Speed:     Float64(231.4),
		RPM:       Int(11200),
		Gear:      Int(6),
		Fuel:      Float64(43.2),
		LapTime:   Float64(95.23),
		BestLapTime: Float64(94.12),
		TireTemps: &TireTemps{FrontLeft: 86, FrontRight: 88, RearLeft: 84, RearRight: 86},
		Position:  Int(3),
	})

	got := e.Summary()
	for _, want := range []string{
		"Speed: 231.4 km/h",
		"Gear: 6",
		"RPM: 11200",
		"Current lap time: 95.23s",
		"Best lap time: 94.12s",
		"Delta: +1.11s",
		"Fuel: 43.2L",
		"Avg tire temp: 86.0°C",
		"Position: P3",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() missing %q in %q", want, got)
		}
	}
}

func TestEngineSummaryOmitsAbsentFields(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Update(Sample{Timestamp: 1, Speed: Float64(100)})
	got := e.Summary()
	if strings.Contains(got, "Fuel") || strings.Contains(got, "Gear") {
		t.Errorf("Summary() rendered absent fields: %q", got)
	}
}

func TestEngineSummaryTimestampOnlySample(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Update(Sample{Timestamp: 1})
	if got := e.Summary(); got != "No telemetry data available." {
		t.Errorf("Summary() = %q, want the no-data message", got)
	}
}
