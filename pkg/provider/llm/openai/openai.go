// Package openai provides an LLM provider backed by an OpenAI-compatible
// chat-completions API.
//
// It exists for local development and for deployments that point simwatch at
// an OpenAI-compatible gateway instead of Bedrock. Tool calling is mapped
// onto the chat-completions tool_calls protocol.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/jmallard/simwatch/pkg/provider/llm"
)

// Provider implements llm.Provider using an OpenAI-compatible API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI-compatible Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// Converse implements llm.Provider.
func (p *Provider) Converse(ctx context.Context, req llm.Request) (*llm.Response, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindValidation, Provider: "openai", Err: err}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &llm.Error{Kind: llm.KindUnknown, Provider: "openai", Err: errors.New("empty choices in response")}
	}

	choice := resp.Choices[0]
	msg := llm.Message{Role: llm.RoleAssistant}
	if choice.Message.Content != "" {
		msg.Content = append(msg.Content, llm.TextBlock{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		msg.Content = append(msg.Content, llm.ToolUseBlock{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}

	return &llm.Response{
		StopReason: stopReason(choice.FinishReason),
		Message:    msg,
		Usage: llm.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}, nil
}

// stopReason maps a chat-completions finish_reason onto the Converse-style
// stop reasons the agent loop understands.
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

// buildParams converts an llm.Request into OpenAI SDK params.
func (p *Provider) buildParams(req llm.Request) (oai.ChatCompletionNewParams, error) {
	var messages []oai.ChatCompletionMessageParamUnion

	if req.System != "" {
		messages = append(messages, oai.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		converted, err := convertMessage(m)
		if err != nil {
			return oai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, converted...)
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}

	if req.Inference.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Inference.Temperature)
	}
	if req.Inference.TopP != 0 {
		params.TopP = param.NewOpt(req.Inference.TopP)
	}
	if req.Inference.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.Inference.MaxTokens))
	}

	for _, td := range req.Tools {
		schema, err := json.Marshal(td.InputSchema)
		if err != nil {
			return oai.ChatCompletionNewParams{}, fmt.Errorf("openai: marshal input schema for %q: %w", td.Name, err)
		}
		var fnParams shared.FunctionParameters
		if err := json.Unmarshal(schema, &fnParams); err != nil {
			return oai.ChatCompletionNewParams{}, fmt.Errorf("openai: input schema for %q: %w", td.Name, err)
		}
		params.Tools = append(params.Tools, oai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        td.Name,
				Description: param.NewOpt(td.Description),
				Parameters:  fnParams,
			},
		})
	}

	return params, nil
}

// convertMessage converts an llm.Message into OpenAI message params. A user
// turn carrying tool results expands into one "tool" message per result,
// which is how the chat-completions protocol represents them.
func convertMessage(m llm.Message) ([]oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case llm.RoleUser:
		var out []oai.ChatCompletionMessageParamUnion
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
				out = append(out, oai.ToolMessage(content, v.ID))
			default:
				return nil, fmt.Errorf("openai: unsupported block %T in user message", b)
			}
		}
		if text != "" {
			out = append(out, oai.UserMessage(text))
		}
		return out, nil

	case llm.RoleAssistant:
		asst := oai.ChatCompletionAssistantMessageParam{}
		for _, b := range m.Content {
			switch v := b.(type) {
			case llm.TextBlock:
				asst.Content.OfString = oai.String(v.Text)
			case llm.ToolUseBlock:
				asst.ToolCalls = append(asst.ToolCalls, oai.ChatCompletionMessageToolCallParam{
					ID: v.ID,
					Function: oai.ChatCompletionMessageToolCallFunctionParam{
						Name:      v.Name,
						Arguments: string(v.Input),
					},
				})
			default:
				return nil, fmt.Errorf("openai: unsupported block %T in assistant message", b)
			}
		}
		return []oai.ChatCompletionMessageParamUnion{{OfAssistant: &asst}}, nil

	default:
		return nil, fmt.Errorf("openai: unknown message role %q", m.Role)
	}
}

// classify maps an OpenAI SDK error onto the llm error taxonomy.
func classify(err error) error {
	kind := llm.KindUnknown

	if errors.Is(err, context.DeadlineExceeded) {
		kind = llm.KindTimeout
	}

	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			kind = llm.KindAccessDenied
		case apiErr.StatusCode == http.StatusTooManyRequests:
			kind = llm.KindThrottled
		case apiErr.StatusCode == http.StatusBadRequest:
			kind = llm.KindValidation
		case apiErr.StatusCode == http.StatusNotFound:
			kind = llm.KindNotFound
		case apiErr.StatusCode >= 500:
			kind = llm.KindUnavailable
		}
	}

	return &llm.Error{Kind: kind, Provider: "openai", Err: err}
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)
