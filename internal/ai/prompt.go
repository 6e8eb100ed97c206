package ai

import (
	"fmt"
	"strings"

	"github.com/apex-data/race.engineer/internal/telemetry"
)

// DefaultMaxPromptBytes bounds built prompts. Local models degrade badly on
// long contexts, and the data section is the expendable part.
const DefaultMaxPromptBytes = 2048

const systemPrompt = `You are a professional race engineer providing real-time advice to a driver during a race.
You have access to live telemetry data and should provide concise, actionable feedback.
Keep responses brief (under 50 words) and focused on immediate actions or insights.`

// PromptBuilder renders a user query plus derived telemetry context into a
// single bounded prompt string. Numeric precision is fixed here, as a
// formatting policy of this layer, not of the engine.
type PromptBuilder struct {
	// MaxBytes bounds the built prompt; zero means DefaultMaxPromptBytes.
	// The data section is truncated first, the question never is.
	MaxBytes int
}

// Build renders the prompt. When the context carries no current sample the
// data section is omitted entirely rather than filled with placeholders.
func (b *PromptBuilder) Build(query string, dctx telemetry.DerivedContext) string {
	maxBytes := b.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPromptBytes
	}

	head := systemPrompt + "\n\n"
	tail := fmt.Sprintf("Driver Question: %s\n\nEngineer Response:", strings.TrimSpace(query))

	data := ""
	if body := FormatContext(dctx); body != "" {
		data = "Current Race Data:\n" + body + "\n\n"
	}

	// Trim the data section line by line until the prompt fits.
	for data != "" && len(head)+len(data)+len(tail) > maxBytes {
		lines := strings.Split(strings.TrimRight(data, "\n"), "\n")
		if len(lines) <= 2 { // header plus one reading: drop the section
			data = ""
			break
		}
		data = strings.Join(lines[:len(lines)-1], "\n") + "\n\n"
	}

	return head + data + tail
}

// FormatContext renders the derived context as plain "Name: value" lines,
// one reading per line, skipping absent fields.
func FormatContext(dctx telemetry.DerivedContext) string {
	cur := dctx.Current
	if cur == nil {
		return ""
	}

	var lines []string
	if cur.Speed != nil {
		lines = append(lines, fmt.Sprintf("Speed: %.1f km/h", *cur.Speed))
	}
	if cur.RPM != nil {
		lines = append(lines, fmt.Sprintf("RPM: %d", *cur.RPM))
	}
	if cur.Gear != nil {
		lines = append(lines, fmt.Sprintf("Gear: %d", *cur.Gear))
	}
	if cur.Fuel != nil {
		lines = append(lines, fmt.Sprintf("Fuel: %.1fL", *cur.Fuel))
	}
	if cur.LapTime != nil {
		lines = append(lines, fmt.Sprintf("Lap time: %.2fs", *cur.LapTime))
	}
	if dctx.BestLapTime != nil {
		lines = append(lines, fmt.Sprintf("Best lap: %.2fs", *dctx.BestLapTime))
	}
	if cur.Position != nil {
		lines = append(lines, fmt.Sprintf("Position: P%d", *cur.Position))
	}
	if cur.TireTemps != nil {
		t := cur.TireTemps
		lines = append(lines, fmt.Sprintf("Tire temps: FL:%.0f°C FR:%.0f°C RL:%.0f°C RR:%.0f°C",
			t.FrontLeft, t.FrontRight, t.RearLeft, t.RearRight))
	}
	if d := dctx.Deltas; d != nil {
		if d.Speed != nil {
			lines = append(lines, fmt.Sprintf("Speed change: %+.1f km/h", *d.Speed))
		}
		if d.Fuel != nil {
			lines = append(lines, fmt.Sprintf("Fuel change: %+.2fL", *d.Fuel))
		}
	}
	if a := dctx.Analysis; a != nil {
		if a.TireTempTrend != "" && a.TireTempTrend != telemetry.TrendUnknown {
			lines = append(lines, fmt.Sprintf("Tire temps are %s", a.TireTempTrend))
		}
		if a.FuelRate != nil {
			lines = append(lines, fmt.Sprintf("Fuel burn: %.3f L/s", *a.FuelRate))
		}
	}
	if cur.Synthetic {
		lines = append(lines, "Note: telemetry is simulated")
	}
	return strings.Join(lines, "\n")
}
