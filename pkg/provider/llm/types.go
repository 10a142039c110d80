package llm

import "encoding/json"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks messages sent on behalf of the querying user, including
	// the synthetic turns that carry tool results back to the model.
	RoleUser Role = "user"

	// RoleAssistant marks messages produced by the model.
	RoleAssistant Role = "assistant"
)

// StopReason indicates why the model stopped generating a turn.
//
// Values outside the named constants are passed through verbatim from the
// backend so callers can log them; the agent loop treats any unrecognised
// value as terminal.
type StopReason string

const (
	// StopEndTurn means the model finished a natural-language answer.
	StopEndTurn StopReason = "end_turn"

	// StopToolUse means the model is requesting one or more tool executions
	// before it can continue.
	StopToolUse StopReason = "tool_use"

	// StopMaxTokens means generation hit the configured token ceiling.
	StopMaxTokens StopReason = "max_tokens"
)

// Message is a single conversation turn: a role plus an ordered list of
// content blocks.
type Message struct {
	Role    Role
	Content []ContentBlock
}

// ContentBlock is the tagged union of content kinds that may appear inside a
// message. Exactly one of [TextBlock], [ToolUseBlock], or [ToolResultBlock]
// implements it; the closed set makes exhaustive switches checkable.
type ContentBlock interface {
	isContentBlock()
}

// TextBlock is plain natural-language text.
type TextBlock struct {
	Text string
}

// ToolUseBlock is a model request to execute a named tool.
type ToolUseBlock struct {
	// ID is the backend-assigned call identifier. Tool results must echo it
	// so the model can match results to requests.
	ID string

	// Name is the tool the model wants to invoke.
	Name string

	// Input is the JSON-encoded arguments object supplied by the model.
	Input json.RawMessage
}

// ToolResultBlock carries the output of an executed tool back to the model.
type ToolResultBlock struct {
	// ID matches the [ToolUseBlock.ID] this result answers.
	ID string

	// Content is the serialised (and possibly truncated) tool output, or an
	// error description when IsError is set.
	Content string

	// IsError flags that tool execution failed. The model sees the failure
	// as data and may retry with different arguments.
	IsError bool
}

func (TextBlock) isContentBlock()       {}
func (ToolUseBlock) isContentBlock()    {}
func (ToolResultBlock) isContentBlock() {}

// FirstText returns the first [TextBlock] content in m, if any.
func (m Message) FirstText() (string, bool) {
	for _, b := range m.Content {
		if t, ok := b.(TextBlock); ok {
			return t.Text, true
		}
	}
	return "", false
}

// ToolUses returns all [ToolUseBlock] content in m, in order.
func (m Message) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, b := range m.Content {
		if u, ok := b.(ToolUseBlock); ok {
			uses = append(uses, u)
		}
	}
	return uses
}

// ToolDefinition describes a tool offered to the model.
type ToolDefinition struct {
	// Name is the tool's unique identifier (e.g., "queryDatabase").
	Name string

	// Description explains what the tool does; included in model prompts.
	Description string

	// InputSchema is the JSON Schema describing the tool's input object.
	InputSchema map[string]any
}

// InferenceConfig carries the sampling parameters for a converse call.
// Zero values mean "use the backend default".
type InferenceConfig struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Usage holds token accounting returned by the backend. Counts are in the
// model's native token unit and differ between providers for the same text.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
