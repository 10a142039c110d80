// Package anyllm provides an LLM provider backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports OpenAI, Anthropic, Gemini, Ollama, DeepSeek, Mistral, Groq, and
// more.
//
// It is the catch-all local-development backend: pointing simwatch at an
// Ollama instance or any other any-llm-go provider needs no code changes.
//
// Usage:
//
//	p, err := anyllm.New("ollama", "llama3.1", anyllmlib.WithBaseURL("http://localhost:11434"))
//	p, err := anyllm.New("anthropic", "claude-3-5-sonnet-latest", anyllmlib.WithAPIKey("sk-ant-..."))
package anyllm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/jmallard/simwatch/pkg/provider/llm"
)

// Provider implements llm.Provider by wrapping github.com/mozilla-ai/any-llm-go.
type Provider struct {
	backend anyllmlib.Provider
	model   string
}

// New creates a new Provider backed by the given backend name.
//
// backendName is one of: "openai", "anthropic", "gemini", "ollama",
// "deepseek", "mistral", "groq", "llamacpp".
//
// model is the specific model to use (e.g., "llama3.1",
// "claude-3-5-sonnet-latest").
//
// opts are any-llm-go configuration options (e.g., anyllmlib.WithAPIKey,
// anyllmlib.WithBaseURL). Without an API key option, the backend falls back
// to its conventional environment variable (OPENAI_API_KEY, etc.).
func New(backendName string, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if backendName == "" {
		return nil, fmt.Errorf("anyllm: backendName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(backendName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", backendName, err)
	}

	return &Provider{backend: backend, model: model}, nil
}

// createBackend creates the underlying any-llm-go provider for the given name.
func createBackend(backendName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(backendName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported backend %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq, llamacpp", backendName)
	}
}

// Converse implements llm.Provider.
func (p *Provider) Converse(ctx context.Context, req llm.Request) (*llm.Response, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindValidation, Provider: "anyllm", Err: err}
	}

	resp, err := p.backend.Completion(ctx, params)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindUnknown, Provider: "anyllm", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &llm.Error{Kind: llm.KindUnknown, Provider: "anyllm", Err: fmt.Errorf("empty choices in response")}
	}

	choice := resp.Choices[0]
	msg := llm.Message{Role: llm.RoleAssistant}
	if content := choice.Message.ContentString(); content != "" {
		msg.Content = append(msg.Content, llm.TextBlock{Text: content})
	}
	for _, tc := range choice.Message.ToolCalls {
		msg.Content = append(msg.Content, llm.ToolUseBlock{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}

	out := &llm.Response{
		StopReason: stopReason(choice.FinishReason),
		Message:    msg,
	}
	if resp.Usage != nil {
		out.Usage = llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

// stopReason maps an any-llm-go finish reason onto Converse-style stop reasons.
func stopReason(finish string) llm.StopReason {
	switch finish {
	case "stop":
		return llm.StopEndTurn
	case "tool_calls":
		return llm.StopToolUse
	case "length":
		return llm.StopMaxTokens
	default:
		return llm.StopReason(finish)
	}
}

// buildParams converts an llm.Request into any-llm-go CompletionParams.
func (p *Provider) buildParams(req llm.Request) (anyllmlib.CompletionParams, error) {
	var messages []anyllmlib.Message

	if req.System != "" {
		messages = append(messages, anyllmlib.Message{
			Role:    anyllmlib.RoleSystem,
			Content: req.System,
		})
	}

	for _, m := range req.Messages {
		converted, err := convertMessage(m)
		if err != nil {
			return anyllmlib.CompletionParams{}, err
		}
		messages = append(messages, converted...)
	}

	params := anyllmlib.CompletionParams{
		Model:    p.model,
		Messages: messages,
	}

	if req.Inference.Temperature != 0 {
		t := req.Inference.Temperature
		params.Temperature = &t
	}
	if req.Inference.MaxTokens > 0 {
		mt := req.Inference.MaxTokens
		params.MaxTokens = &mt
	}

	for _, td := range req.Tools {
		params.Tools = append(params.Tools, anyllmlib.Tool{
			Type: "function",
			Function: anyllmlib.Function{
				Name:        td.Name,
				Description: td.Description,
				Parameters:  td.InputSchema,
			},
		})
	}

	return params, nil
}

// convertMessage converts an llm.Message into any-llm-go messages. A user
// turn carrying tool results expands into one "tool" message per result.
func convertMessage(m llm.Message) ([]anyllmlib.Message, error) {
	switch m.Role {
	case llm.RoleUser:
		var out []anyllmlib.Message
		var text string
		for _, b := range m.Content {
			switch v := b.(type) {
			case llm.TextBlock:
				text += v.Text
			case llm.ToolResultBlock:
				content := v.Content
				if v.IsError {
					content = "error: " + content
				}
				out = append(out, anyllmlib.Message{
					Role:       "tool",
					Content:    content,
					ToolCallID: v.ID,
				})
			default:
				return nil, fmt.Errorf("anyllm: unsupported block %T in user message", b)
			}
		}
		if text != "" {
			out = append(out, anyllmlib.Message{Role: "user", Content: text})
		}
		return out, nil

	case llm.RoleAssistant:
		msg := anyllmlib.Message{Role: "assistant"}
		for _, b := range m.Content {
			switch v := b.(type) {
			case llm.TextBlock:
				msg.Content = v.Text
			case llm.ToolUseBlock:
				msg.ToolCalls = append(msg.ToolCalls, anyllmlib.ToolCall{
					ID:   v.ID,
					Type: "function",
					Function: anyllmlib.FunctionCall{
						Name:      v.Name,
						Arguments: string(v.Input),
					},
				})
			default:
				return nil, fmt.Errorf("anyllm: unsupported block %T in assistant message", b)
			}
		}
		return []anyllmlib.Message{msg}, nil

	default:
		return nil, fmt.Errorf("anyllm: unknown message role %q", m.Role)
	}
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)
