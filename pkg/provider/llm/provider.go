// Package llm defines the Provider interface for the Large Language Model
// backends dictee uses to generate practice sentences.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI, or a
// local Ollama instance) and exposes a uniform interface so the sentence
// generator never couples to a specific SDK. Tool calling, vision, and the
// other heavy parts of modern LLM APIs are deliberately out of this
// interface; sentence generation is plain text in, plain text out.
//
// Implementations must be safe for concurrent use. Channels returned by
// StreamCompletion must be closed by the implementation when the stream ends
// or when the supplied context is cancelled.
package llm

import "context"

// Message represents a single message in a conversation history.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the backend. Counts
// are in the model's native token unit and may differ between providers for
// the same text.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the model needs to produce a
// response. At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. The last message is
	// typically from the "user" role and drives the response.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before
	// the conversation history. Providers without native system-prompt
	// support prepend it as a "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero means use
	// the provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is returned by the non-streaming Complete method.
type CompletionResponse struct {
	// Content is the full text of the model's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Chunk is a single fragment emitted by a streaming completion.
type Chunk struct {
	// Text is the incremental text content of this chunk. May be empty on
	// a final chunk that only carries a FinishReason.
	Text string

	// FinishReason is set on the final chunk: "stop" for a natural end,
	// "length" when MaxTokens was reached, or "error" when the stream
	// failed mid-flight (Text then holds the error message).
	FinishReason string
}

// Provider is the abstraction over any LLM backend.
//
// Each method must propagate context cancellation promptly: when ctx is
// cancelled the method must return (or close its channel) as quickly as
// possible.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// StreamCompletion sends req to the model and returns a read-only
	// channel emitting chunks as they arrive. The channel is closed by the
	// implementation when generation finishes or ctx is cancelled; callers
	// must drain it to avoid goroutine leaks. The initial error is non-nil
	// only for failures that prevent the stream from starting.
	StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan Chunk, error)
}
