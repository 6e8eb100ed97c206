package ai

import (
	"strings"
	"testing"

	"github.com/apex-data/race.engineer/internal/telemetry"
)

func fullContext() telemetry.DerivedContext {
	return telemetry.DerivedContext{
		Current: &telemetry.Sample{
			Timestamp: 100,
			Speed:     telemetry.Float64(231.4),
			RPM:       telemetry.Int(11200),
			Gear:      telemetry.Int(6),
			Fuel:      telemetry.Float64(43.2),
			LapTime:   telemetry.Float64(95.23),
			Position:  telemetry.Int(3),
			TireTemps: &telemetry.TireTemps{FrontLeft: 85, FrontRight: 87, RearLeft: 82, RearRight: 84},
		},
		BestLapTime: telemetry.Float64(94.12),
		Deltas: &telemetry.Deltas{
			Speed: telemetry.Float64(2.5),
			Fuel:  telemetry.Float64(-0.05),
		},
		Analysis: &telemetry.Analysis{
			TireTempTrend: telemetry.TrendIncreasing,
			FuelRate:      telemetry.Float64(0.031),
		},
		HistoryLen: 10,
	}
}

func TestBuildWithContext(t *testing.T) {
	b := &PromptBuilder{}
	prompt := b.Build("how are my tires?", fullContext())

	for _, want := range []string{
		"race engineer",
		"Current Race Data:",
		"Speed: 231.4 km/h",
		"Best lap: 94.12s",
		"Tire temps: FL:85°C FR:87°C RL:82°C RR:84°C",
		"Tire temps are increasing",
		"Fuel burn: 0.031 L/s",
		"Driver Question: how are my tires?",
		"Engineer Response:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildWithoutContext(t *testing.T) {
	b := &PromptBuilder{}
	prompt := b.Build("hello?", telemetry.DerivedContext{})

	if strings.Contains(prompt, "Current Race Data") {
		t.Errorf("empty context must omit the data section:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Driver Question: hello?") {
		t.Errorf("prompt missing question:\n%s", prompt)
	}
}

func TestBuildSkipsEmptyDataSection(t *testing.T) {
	b := &PromptBuilder{}
	// A sample with no renderable fields formats to nothing; the header
	// must not appear over an empty body.
	dctx := telemetry.DerivedContext{
		Current:    &telemetry.Sample{Timestamp: 1},
		HistoryLen: 1,
	}
	prompt := b.Build("hello?", dctx)

	if strings.Contains(prompt, "Current Race Data") {
		t.Errorf("empty data body must omit the section header:\n%s", prompt)
	}
}

func TestBuildBounded(t *testing.T) {
	b := &PromptBuilder{MaxBytes: 600}
	prompt := b.Build("status?", fullContext())
	if len(prompt) > 600 {
		t.Errorf("len(prompt) = %d, want <= 600", len(prompt))
	}
	// The question is never the part that gets cut.
	if !strings.Contains(prompt, "Driver Question: status?") {
		t.Errorf("truncation removed the question:\n%s", prompt)
	}
}

func TestFormatContextSkipsAbsent(t *testing.T) {
	dctx := telemetry.DerivedContext{
		Current: &telemetry.Sample{
			Timestamp: 1,
			Speed:     telemetry.Float64(180),
		},
		Analysis: &telemetry.Analysis{TireTempTrend: telemetry.TrendUnknown},
	}
	got := FormatContext(dctx)
	if !strings.Contains(got, "Speed: 180.0 km/h") {
		t.Errorf("missing speed line: %q", got)
	}
	for _, banned := range []string{"Fuel", "RPM", "Gear", "unknown", "Tire"} {
		if strings.Contains(got, banned) {
			t.Errorf("rendered absent field %q: %q", banned, got)
		}
	}
}

func TestFormatContextFlagsSynthetic(t *testing.T) {
	dctx := telemetry.DerivedContext{
		Current: &telemetry.Sample{Timestamp: 1, Synthetic: true},
	}
	if got := FormatContext(dctx); !strings.Contains(got, "simulated") {
		t.Errorf("synthetic flag not surfaced: %q", got)
	}
}
