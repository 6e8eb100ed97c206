// Package ai talks to the locally hosted language model that plays the
// race engineer, and formats telemetry context into prompts for it.
package ai

import "context"

// FallbackResponse is what the driver hears when the model is unreachable
// or errors out. Failures degrade to this, they never crash the loop.
const FallbackResponse = "Sorry, I'm having trouble connecting to the AI model."

// Client generates responses from a language model backend. Implementations
// are swapped at construction time; the rest of the system only sees this
// interface.
type Client interface {
	// Generate produces a response for the prompt. Slow: callers must
	// run it outside any telemetry lock and bound it with the context.
	Generate(ctx context.Context, prompt string) (string, error)

	// IsAvailable probes the backend. Used once at startup for
	// diagnostics; it gates nothing.
	IsAvailable(ctx context.Context) bool
}
