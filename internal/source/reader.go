// Package source provides the telemetry feeds the engine ingests from:
// a UDP bridge, a serial dash logger, or a synthetic lap simulator.
package source

import "github.com/apex-data/race.engineer/internal/telemetry"

// TelemetryReader supplies one sample per poll. Implementations must make
// Read cheap and non-blocking: returning (nil, nil) means nothing arrived
// this tick and the caller simply skips it.
type TelemetryReader interface {
	// Connect establishes the feed. A failed connect leaves the reader
	// usable for a later retry.
	Connect() error

	// Read returns the most recent sample, or (nil, nil) when none is
	// available right now.
	Read() (*telemetry.Sample, error)

	// Disconnect tears the feed down. Safe to call when not connected.
	Disconnect() error

	// IsConnected reports whether the feed is up.
	IsConnected() bool
}
