// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Chunk normalization into the uniform stream event model

package llm

import (
	"context"

	"catalyst/stream"
)

// Request is a single completion request: the conversation so far plus
// the tools available for this turn.
type Request struct {
	Messages []ChatMessage
	Tools    []ToolDefinition

	// Temperature overrides the model default when non-nil. Reasoning
	// models ignore it.
	Temperature *float32

	// MaxTokens bounds the response; zero uses the model default.
	MaxTokens int
}

// Response is a complete, non-streamed model answer.
type Response struct {
	Content   string
	ToolCalls []ToolCall // Tool calls requested by the LLM
	Usage     stream.UsageDelta
}

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a consistent interface for chat completions.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Complete sends a chat completion request and waits for the full
	// response.
	Complete(ctx context.Context, req Request) (Response, error)

	// StreamCompletion streams a chat completion, sending normalized
	// events to the provided channel. The caller owns the channel and
	// closes it once StreamCompletion returns; a nil return means the
	// upstream stream ended normally.
	StreamCompletion(ctx context.Context, req Request, events chan<- stream.Event) error
}
