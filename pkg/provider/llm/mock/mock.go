// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to script a multi-turn exchange without a live
// backend: each call to Converse consumes the next entry in Responses. All
// fields are safe to set before calling any method; mutating them during a
// concurrent call is the caller's responsibility.
//
// Example:
//
//	p := &mock.Provider{
//	    Responses: []*llm.Response{
//	        {StopReason: llm.StopEndTurn, Message: llm.Message{
//	            Role:    llm.RoleAssistant,
//	            Content: []llm.ContentBlock{llm.TextBlock{Text: "Hello!"}},
//	        }},
//	    },
//	}
//	resp, err := p.Converse(ctx, req)
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmallard/simwatch/pkg/provider/llm"
)

// ConverseCall records a single invocation of Converse.
type ConverseCall struct {
	// Ctx is the context passed to Converse.
	Ctx context.Context
	// Req is the Request passed to Converse.
	Req llm.Request
}

// Provider is a scripted mock implementation of llm.Provider.
//
// Responses are consumed in order, one per Converse call. When the script is
// exhausted, Converse returns an error — a test that over-calls the provider
// fails loudly rather than looping forever.
type Provider struct {
	mu sync.Mutex

	// --- Configurable behaviour ---

	// Responses is the ordered script of responses to return.
	Responses []*llm.Response

	// ConverseErr, if non-nil, is returned from every Converse call instead
	// of consuming the script.
	ConverseErr error

	// ConverseFunc, if non-nil, overrides the scripted behaviour entirely.
	ConverseFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)

	// --- Call records (read after test) ---

	// Calls records every invocation of Converse in order.
	Calls []ConverseCall

	next int
}

// Converse records the call and returns the next scripted response.
func (p *Provider) Converse(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, ConverseCall{Ctx: ctx, Req: req})

	if p.ConverseFunc != nil {
		return p.ConverseFunc(ctx, req)
	}
	if p.ConverseErr != nil {
		return nil, p.ConverseErr
	}
	if p.next >= len(p.Responses) {
		return nil, fmt.Errorf("mock: converse called %d times but only %d responses scripted", p.next+1, len(p.Responses))
	}
	resp := p.Responses[p.next]
	p.next++
	return resp, nil
}

// CallCount returns the number of Converse invocations so far. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// Reset clears recorded calls and rewinds the response script. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
	p.next = 0
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)
