package resilience

import (
	"context"

	"github.com/jmallard/simwatch/pkg/provider/llm"
)

// LLMFallback implements [llm.Provider] with automatic failover across
// multiple chat backends. Each backend has its own circuit breaker; when the
// primary fails or its breaker is open, the next healthy fallback is tried.
//
// Note that only transport-level failures trigger failover — the agent loop
// absorbs tool errors before they ever reach this layer.
type LLMFallback struct {
	group *FallbackGroup[llm.Provider]
}

// Compile-time interface assertion.
var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional chat provider as a fallback.
func (f *LLMFallback) AddFallback(name string, provider llm.Provider) {
	f.group.AddFallback(name, provider)
}

// Converse sends the request to the first healthy provider and returns its
// response. If the primary fails, subsequent fallbacks are tried in order.
func (f *LLMFallback) Converse(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return ExecuteWithResult(f.group, func(p llm.Provider) (*llm.Response, error) {
		return p.Converse(ctx, req)
	})
}
