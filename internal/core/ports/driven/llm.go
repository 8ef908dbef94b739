package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// LLMService is the external text generation collaborator.
//
// Implementations may include:
//   - LM Studio or any OpenAI-compatible chat completions server
//   - Ollama (local models)
//
// Every call is bounded by a timeout. Timeouts and connection failures are
// reported as domain.ErrGenerationUnavailable; any other failure reported by
// the service is domain.ErrGenerationFailed.
type LLMService interface {
	// Complete runs a chat completion and returns the whole answer.
	Complete(ctx context.Context, messages []ChatMessage, opts GenerateOptions) (*Completion, error)

	// Stream runs a chat completion and yields answer fragments as they arrive.
	// The sequence ends when the service signals completion. If the consumer
	// stops iterating, the underlying response is closed and nothing more is read.
	// An error is yielded at most once, as the final element.
	Stream(ctx context.Context, messages []ChatMessage, opts GenerateOptions) iter.Seq2[string, error]

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is the message sender: "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Completion is the result of a non-streaming generation call.
type Completion struct {
	// Answer is the generated text.
	Answer string

	// Model is the model that produced the answer, as reported by the service.
	Model string

	// Usage is the token accounting reported by the service.
	Usage domain.Usage
}
