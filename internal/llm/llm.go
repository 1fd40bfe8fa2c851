// Package llm provides interfaces and implementations for Large Language Model clients.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the model provider could not be reached or kept
// failing after retries. Callers map it to an upstream-unavailable response.
var ErrUnavailable = errors.New("llm provider unavailable")

// GenerateOptions configures the LLM generation request.
type GenerateOptions struct {
	// Model specifies the LLM model to use (e.g., "gpt-4o", "llama3.2").
	Model string

	// SystemPrompt sets the system-level instructions for the model.
	SystemPrompt string

	// Temperature controls randomness in generation (0.0 = deterministic, 1.0 = creative).
	Temperature float32

	// MaxTokens limits the maximum number of tokens in the response.
	MaxTokens int
}

// Result holds the complete response from a generation request.
type Result struct {
	// Text is the generated completion.
	Text string

	// Model is the model that actually served the request.
	Model string

	// TokensUsed is the total token count reported by the provider,
	// prompt and completion combined.
	TokensUsed int
}

// LLM defines the interface for Large Language Model clients.
type LLM interface {
	// Generate sends a prompt to the LLM and returns the complete response.
	// It blocks until the full response is received or an error occurs.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Result, error)
}
