// Package llm defines the Provider interface for chat-with-tools model
// backends.
//
// A provider wraps a hosted chat completion API that supports tool calling
// (e.g., Amazon Bedrock's Converse API or an OpenAI-compatible endpoint) and
// exposes a uniform request/response shape so the agent loop never couples to
// a specific SDK. Implementations convert between the wire protocol's content
// representation and the [ContentBlock] union defined in this package.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly.
package llm

import "context"

// Request carries everything the model needs to produce one turn.
//
// Callers should treat a zero-value request as invalid; at minimum Messages
// must be non-empty.
type Request struct {
	// Messages is the ordered conversation so far. The final message is
	// user-role: either the original query or a batch of tool results.
	Messages []Message

	// System is an optional high-priority instruction injected ahead of the
	// conversation. Providers map it to their native system slot.
	System string

	// Tools is the set of tool definitions offered to the model for this
	// turn. May be empty, in which case the model can only answer in text.
	Tools []ToolDefinition

	// Inference holds the sampling parameters for this call.
	Inference InferenceConfig
}

// Response is the model's complete output for one turn.
type Response struct {
	// StopReason says why generation ended. [StopToolUse] means the caller
	// must execute the requested tools and converse again.
	StopReason StopReason

	// Message is the assistant turn, verbatim. When StopReason is
	// [StopToolUse] it contains one or more [ToolUseBlock] entries and must
	// be appended to the conversation unchanged before the tool results.
	Message Message

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any chat-with-tools backend.
//
// Converse sends the full conversation and waits for the model's next turn.
// Transport-level failures are returned as *[Error] values so callers can
// classify them; see [Kind].
type Provider interface {
	Converse(ctx context.Context, req Request) (*Response, error)
}
