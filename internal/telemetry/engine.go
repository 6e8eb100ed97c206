package telemetry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/apex-data/race.engineer/internal/monitoring"
	"github.com/apex-data/race.engineer/internal/timeutil"
	"github.com/apex-data/race.engineer/internal/units"
)

// DerivedContext is the compact bundle handed to the prompt layer. It is
// rebuilt from scratch on every Context call and owns all of its data, so
// it stays valid while the engine keeps ingesting.
type DerivedContext struct {
	Current     *Sample   `json:"current,omitempty"`
	BestLapTime *float64  `json:"best_lap_time,omitempty"`
	Deltas      *Deltas   `json:"deltas,omitempty"`
	Analysis    *Analysis `json:"analysis,omitempty"`
	HistoryLen  int       `json:"history_size"`
}

// EngineOptions configures a context engine. The zero value is usable.
type EngineOptions struct {
	HistorySize     int
	TireTrendWindow int
	FuelRateWindow  int
	// Units selects the speed unit used by Summary. Defaults to km/h.
	Units string
	// Clock stamps samples that arrive without a timestamp. Defaults to
	// the real clock.
	Clock timeutil.Clock
}

// Engine ingests telemetry samples at a fixed cadence and serves derived
// context to the (much slower) query path. One mutex covers both so a
// query never observes a half-applied update; the LLM call itself happens
// outside the engine entirely.
type Engine struct {
	mu      sync.Mutex
	history *History
	laps    *LapTracker

	tireWindow int
	fuelWindow int
	speedUnits string
	clock      timeutil.Clock
	dropped    int
}

// NewEngine constructs an engine with the given options.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.TireTrendWindow < 1 {
		opts.TireTrendWindow = DefaultTireTrendWindow
	}
	if opts.FuelRateWindow < 1 {
		opts.FuelRateWindow = DefaultFuelRateWindow
	}
	if !units.IsValid(opts.Units) {
		opts.Units = units.KMH
	}
	return &Engine{
		history:    NewHistory(opts.HistorySize),
		laps:       NewLapTracker(),
		tireWindow: opts.TireTrendWindow,
		fuelWindow: opts.FuelRateWindow,
		speedUnits: opts.Units,
		clock:      opts.Clock,
	}
}

// Update ingests one sample. Samples without a timestamp are stamped with
// the current time; samples at or before the latest stored timestamp are
// dropped, since deltas and trends across reordered samples would be
// meaningless. Partial samples are always accepted.
func (e *Engine) Update(s Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.Timestamp == 0 {
		now := e.clock.Now()
		s.Timestamp = float64(now.UnixNano()) / 1e9
	}
	if latest := e.history.Latest(); latest != nil && s.Timestamp <= latest.Timestamp {
		e.dropped++
		monitoring.Debugf("telemetry: dropped out-of-order sample (ts=%.3f latest=%.3f)", s.Timestamp, latest.Timestamp)
		return
	}

	e.laps.RecordBest(s.BestLapTime)
	if e.laps.Observe(s.CurrentLap, s.Timestamp) {
		monitoring.Logf("telemetry: lap %d started at t=%.3f", *s.CurrentLap, s.Timestamp)
	}
	e.history.Push(s.Clone())
}

// Dropped returns the number of out-of-order samples rejected so far.
func (e *Engine) Dropped() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// Context returns a freshly computed DerivedContext. With no samples
// ingested it returns an all-absent context rather than an error. The
// result shares nothing with engine state; two calls without an
// intervening Update return equal values.
func (e *Engine) Context() DerivedContext {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx := DerivedContext{HistoryLen: e.history.Len()}
	latest := e.history.Latest()
	if latest == nil {
		return ctx
	}

	cur := latest.Clone()
	ctx.Current = &cur
	ctx.BestLapTime = e.laps.Best()

	if prev := e.history.Previous(); prev != nil {
		if d := ComputeDeltas(prev, latest); !d.Empty() {
			ctx.Deltas = &d
		}
	}

	window := e.fuelWindow
	if e.tireWindow > window {
		window = e.tireWindow
	}
	a := AnalyzeTrends(e.history.Window(window), e.tireWindow, e.fuelWindow)
	ctx.Analysis = &a
	return ctx
}

// Summary renders a short human-readable line describing the latest sample
// and session state. Field presence mirrors Context: absent fields are
// skipped, never rendered as zeros.
func (e *Engine) Summary() string {
	ctx := e.Context()
	if ctx.Current == nil {
		return "No telemetry data available."
	}
	cur := ctx.Current

	var parts []string
	if cur.Speed != nil {
		parts = append(parts, fmt.Sprintf("Speed: %.1f %s",
			units.ConvertSpeed(*cur.Speed, e.speedUnits), units.Label(e.speedUnits)))
	}
	if cur.Gear != nil {
		parts = append(parts, fmt.Sprintf("Gear: %d", *cur.Gear))
	}
	if cur.RPM != nil {
		parts = append(parts, fmt.Sprintf("RPM: %d", *cur.RPM))
	}
	if cur.LapTime != nil {
		parts = append(parts, fmt.Sprintf("Current lap time: %.2fs", *cur.LapTime))
	}
	if ctx.BestLapTime != nil {
		parts = append(parts, fmt.Sprintf("Best lap time: %.2fs", *ctx.BestLapTime))
		if cur.LapTime != nil {
			parts = append(parts, fmt.Sprintf("Delta: %+.2fs", *cur.LapTime-*ctx.BestLapTime))
		}
	}
	if cur.Fuel != nil {
		parts = append(parts, fmt.Sprintf("Fuel: %.1fL", *cur.Fuel))
	}
	if cur.TireTemps != nil {
		parts = append(parts, fmt.Sprintf("Avg tire temp: %.1f°C", averageTemp(*cur.TireTemps)))
	}
	if cur.Position != nil {
		parts = append(parts, fmt.Sprintf("Position: P%d", *cur.Position))
	}
	if len(parts) == 0 {
		return "No telemetry data available."
	}
	return strings.Join(parts, ". ") + "."
}
