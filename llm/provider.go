// LLM Provider interface - the abstract interface for LLM backends.
// Each implementation hides:
// - API client initialization and authentication
// - Request/response format conversion between the canonical
//   conversation and the backend's native wire schema
// - Normalization of the backend's incremental response stream

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM backends.
// A provider is selected once at session start from the detected
// endpoint and is never re-dispatched per event.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// StreamTurn sends one model turn and returns the normalized
	// event stream for its response. The stream yields canonical
	// events in network arrival order and ends with EventTurnComplete
	// followed by io.EOF from Recv.
	StreamTurn(ctx context.Context, messages []Message, tools []ToolDefinition) (Stream, error)
}

// Stream yields canonical events until io.EOF.
type Stream interface {
	Recv() (Event, error)
	Close() error
}
