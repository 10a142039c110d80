// Package agent implements the bounded tool-calling conversation loop at the
// heart of simwatch.
//
// One [Loop.Run] call drives a fresh conversation with the chat provider:
// the user message goes out with the system prompt and tool declarations,
// and as long as the model answers with tool-use requests the loop executes
// them, feeds the results back, and asks again — up to a fixed iteration
// cap. Tool failures never abort the run; they are converted to error-flagged
// tool results so the model can adjust its next request. Only failures of
// the chat call itself surface as errors to the caller.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmallard/simwatch/internal/observe"
	"github.com/jmallard/simwatch/pkg/provider/llm"
)

// DefaultMaxIterations bounds how many chat-endpoint calls one run may make.
const DefaultMaxIterations = 5

// DefaultResultBudget is the byte budget for tool results on interactive
// query paths. Pre-defined actions pass a looser budget; see
// [github.com/jmallard/simwatch/internal/actions].
const DefaultResultBudget = 5 * 1024

// Fallback answers returned in place of model text. These are ordinary
// successful results — degraded service, not failure.
const (
	// FallbackNoResponse is returned when the model completed normally but
	// its final turn carried no text block.
	FallbackNoResponse = "I was unable to find a response to your question. Please try rephrasing it."

	// FallbackUnableToRespond is returned on an unexpected stop reason.
	FallbackUnableToRespond = "I was unable to generate a response. Please try again."

	// FallbackTooManySteps is returned when the iteration cap is exhausted
	// while the model is still requesting tools.
	FallbackTooManySteps = "Your question took too many steps to answer. Please try a simpler question."
)

// Tool is an executable capability declared to the model. Execution must be
// read-only from the loop's point of view; the loop does not manage
// transactions or idempotency on the tool's behalf.
type Tool interface {
	// Name returns the name the model uses to request this tool.
	Name() string

	// Definition returns the declaration sent with every chat call.
	Definition() llm.ToolDefinition

	// Execute runs the tool with the model-supplied input and returns its
	// textual result. An error return is absorbed by the loop into an
	// error-flagged tool result, never propagated.
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// Config assembles a [Loop].
type Config struct {
	// Provider is the chat endpoint. Required.
	Provider llm.Provider

	// Tools lists the capabilities declared to the model. May be empty, in
	// which case any tool-use request comes back as an unknown-tool error
	// result.
	Tools []Tool

	// SystemPrompt is sent with every chat call.
	SystemPrompt string

	// Inference carries max-tokens/temperature/top-p for every chat call.
	Inference llm.InferenceConfig

	// MaxIterations caps chat-endpoint calls per run. Zero means
	// [DefaultMaxIterations].
	MaxIterations int

	// ResultBudget is the per-tool-result byte budget before truncation.
	// Zero means [DefaultResultBudget].
	ResultBudget int

	// Metrics receives loop instrumentation. Nil means
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Logger is used for per-run structured logging. Nil means
	// [slog.Default].
	Logger *slog.Logger
}

// Loop runs bounded tool-calling conversations. Safe for concurrent use; all
// conversation state is local to one [Loop.Run] call.
type Loop struct {
	provider      llm.Provider
	tools         map[string]Tool
	toolDefs      []llm.ToolDefinition
	systemPrompt  string
	inference     llm.InferenceConfig
	maxIterations int
	resultBudget  int
	metrics       *observe.Metrics
	log           *slog.Logger
}

// New validates cfg and returns a ready Loop.
func New(cfg Config) (*Loop, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("agent: provider must not be nil")
	}
	if cfg.MaxIterations < 0 {
		return nil, fmt.Errorf("agent: max iterations must not be negative, got %d", cfg.MaxIterations)
	}
	if cfg.ResultBudget < 0 {
		return nil, fmt.Errorf("agent: result budget must not be negative, got %d", cfg.ResultBudget)
	}

	l := &Loop{
		provider:      cfg.Provider,
		tools:         make(map[string]Tool, len(cfg.Tools)),
		systemPrompt:  cfg.SystemPrompt,
		inference:     cfg.Inference,
		maxIterations: cfg.MaxIterations,
		resultBudget:  cfg.ResultBudget,
		metrics:       cfg.Metrics,
		log:           cfg.Logger,
	}
	if l.maxIterations == 0 {
		l.maxIterations = DefaultMaxIterations
	}
	if l.resultBudget == 0 {
		l.resultBudget = DefaultResultBudget
	}
	if l.metrics == nil {
		l.metrics = observe.DefaultMetrics()
	}
	if l.log == nil {
		l.log = slog.Default()
	}

	for _, tool := range cfg.Tools {
		name := tool.Name()
		if _, dup := l.tools[name]; dup {
			return nil, fmt.Errorf("agent: duplicate tool %q", name)
		}
		l.tools[name] = tool
		l.toolDefs = append(l.toolDefs, tool.Definition())
	}

	return l, nil
}

// Run drives one conversation from userMessage to a final answer. The
// returned string is either the model's text or one of the fallback
// constants; an error is returned only when the chat call itself fails.
func (l *Loop) Run(ctx context.Context, userMessage string) (string, error) {
	start := time.Now()
	l.metrics.ActiveQueries.Add(ctx, 1)
	defer func() {
		l.metrics.ActiveQueries.Add(ctx, -1)
		l.metrics.QueryDuration.Record(ctx, time.Since(start).Seconds())
	}()

	conversation := []llm.Message{{
		Role:    llm.RoleUser,
		Content: []llm.ContentBlock{llm.TextBlock{Text: userMessage}},
	}}

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		resp, err := l.converse(ctx, conversation)
		if err != nil {
			l.metrics.LoopIterations.Record(ctx, int64(iteration))
			return "", fmt.Errorf("agent: chat call %d: %w", iteration, err)
		}

		switch resp.StopReason {
		case llm.StopEndTurn:
			l.metrics.LoopIterations.Record(ctx, int64(iteration))
			text, ok := resp.Message.FirstText()
			if !ok {
				l.log.WarnContext(ctx, "model turn ended without text content")
				l.metrics.RecordFallback(ctx, "no_text")
				return FallbackNoResponse, nil
			}
			return text, nil

		case llm.StopToolUse:
			conversation = append(conversation, resp.Message)
			conversation = append(conversation, l.executeTools(ctx, resp.Message))

		default:
			l.metrics.LoopIterations.Record(ctx, int64(iteration))
			l.log.WarnContext(ctx, "unexpected stop reason",
				slog.String("stop_reason", string(resp.StopReason)))
			if text, ok := resp.Message.FirstText(); ok {
				return text, nil
			}
			l.metrics.RecordFallback(ctx, "unexpected_stop")
			return FallbackUnableToRespond, nil
		}
	}

	l.metrics.LoopIterations.Record(ctx, int64(l.maxIterations))
	l.metrics.RecordFallback(ctx, "too_many_steps")
	l.log.WarnContext(ctx, "iteration cap exhausted",
		slog.Int("max_iterations", l.maxIterations))
	return FallbackTooManySteps, nil
}

// converse makes one instrumented chat call with the full conversation.
func (l *Loop) converse(ctx context.Context, conversation []llm.Message) (*llm.Response, error) {
	start := time.Now()
	resp, err := l.provider.Converse(ctx, llm.Request{
		Messages:  conversation,
		System:    l.systemPrompt,
		Tools:     l.toolDefs,
		Inference: l.inference,
	})
	l.metrics.ConverseDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		kind := llm.KindOf(err)
		l.metrics.RecordProviderRequest(ctx, providerName(err), "error")
		l.metrics.RecordProviderError(ctx, providerName(err), kind.String())
		return nil, err
	}
	l.metrics.RecordProviderRequest(ctx, "chat", "ok")
	return resp, nil
}

// executeTools resolves every tool-use block of an assistant turn, in order,
// and batches the results into the single user turn the model sees next.
// Partial batches are never produced: each tool-use ID gets exactly one
// tool-result block, error-flagged when execution failed.
func (l *Loop) executeTools(ctx context.Context, turn llm.Message) llm.Message {
	uses := turn.ToolUses()
	results := make([]llm.ContentBlock, 0, len(uses))

	for _, use := range uses {
		text, err := l.runTool(ctx, use)
		if err != nil {
			l.log.WarnContext(ctx, "tool execution failed",
				slog.String("tool", use.Name),
				slog.String("tool_use_id", use.ID),
				slog.String("error", err.Error()))
			results = append(results, llm.ToolResultBlock{
				ID:      use.ID,
				Content: fmt.Sprintf("Error executing tool %s: %s", use.Name, err),
				IsError: true,
			})
			continue
		}

		truncated, cut := truncate(text, l.resultBudget)
		if cut {
			l.metrics.Truncations.Add(ctx, 1)
			l.log.InfoContext(ctx, "tool result truncated",
				slog.String("tool", use.Name),
				slog.Int("original_bytes", len(text)),
				slog.Int("budget", l.resultBudget))
		}
		results = append(results, llm.ToolResultBlock{
			ID:      use.ID,
			Content: truncated,
		})
	}

	return llm.Message{Role: llm.RoleUser, Content: results}
}

// runTool looks up and executes one tool-use request.
func (l *Loop) runTool(ctx context.Context, use llm.ToolUseBlock) (string, error) {
	tool, ok := l.tools[use.Name]
	if !ok {
		l.metrics.RecordToolCall(ctx, use.Name, "unknown")
		return "", fmt.Errorf("unknown tool %q", use.Name)
	}

	start := time.Now()
	text, err := tool.Execute(ctx, use.Input)
	l.metrics.ToolExecutionDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		l.metrics.RecordToolCall(ctx, use.Name, "error")
		return "", err
	}
	l.metrics.RecordToolCall(ctx, use.Name, "ok")
	return text, nil
}

// providerName extracts the provider label from a classified error, falling
// back to "chat" for plain errors.
func providerName(err error) string {
	var perr *llm.Error
	if errors.As(err, &perr) && perr.Provider != "" {
		return perr.Provider
	}
	return "chat"
}
