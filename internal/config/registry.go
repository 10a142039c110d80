package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/jmallard/simwatch/internal/store"
	"github.com/jmallard/simwatch/internal/store/dynamo"
	"github.com/jmallard/simwatch/internal/store/memstore"
	"github.com/jmallard/simwatch/internal/store/postgres"
	"github.com/jmallard/simwatch/pkg/provider/llm"
	"github.com/jmallard/simwatch/pkg/provider/llm/anyllm"
	"github.com/jmallard/simwatch/pkg/provider/llm/bedrock"
	"github.com/jmallard/simwatch/pkg/provider/llm/mock"
	"github.com/jmallard/simwatch/pkg/provider/llm/openai"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// LLMFactory constructs a chat provider from its config entry.
type LLMFactory func(ctx context.Context, cfg LLMConfig) (llm.Provider, error)

// StoreFactory constructs an incident store from its config entry.
type StoreFactory func(ctx context.Context, cfg StoreConfig) (store.Store, error)

// Registry maps provider and store names to constructor functions. It is
// safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	llm    map[string]LLMFactory
	stores map[string]StoreFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:    make(map[string]LLMFactory),
		stores: make(map[string]StoreFactory),
	}
}

// RegisterLLM registers a chat provider factory under name, replacing any
// existing registration.
func (r *Registry) RegisterLLM(name string, factory LLMFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// RegisterStore registers a store factory under name, replacing any existing
// registration.
func (r *Registry) RegisterStore(name string, factory StoreFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[name] = factory
}

// CreateLLM constructs the chat provider selected by cfg.Provider.
func (r *Registry) CreateLLM(ctx context.Context, cfg LLMConfig) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm %q", ErrProviderNotRegistered, cfg.Provider)
	}
	return factory(ctx, cfg)
}

// CreateStore constructs the incident store selected by cfg.Driver.
func (r *Registry) CreateStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	r.mu.RLock()
	factory, ok := r.stores[cfg.Driver]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: store %q", ErrProviderNotRegistered, cfg.Driver)
	}
	return factory(ctx, cfg)
}

// DefaultRegistry returns a [Registry] with every built-in chat provider and
// store driver registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterLLM("bedrock", func(ctx context.Context, cfg LLMConfig) (llm.Provider, error) {
		var opts []bedrock.Option
		if cfg.Region != "" {
			opts = append(opts, bedrock.WithRegion(cfg.Region))
		}
		return bedrock.New(ctx, cfg.Model, opts...)
	})
	r.RegisterLLM("openai", func(_ context.Context, cfg LLMConfig) (llm.Provider, error) {
		var opts []openai.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(cfg.APIKey, cfg.Model, opts...)
	})
	r.RegisterLLM("anyllm", func(_ context.Context, cfg LLMConfig) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if cfg.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(cfg.BaseURL))
		}
		return anyllm.New(cfg.Backend, cfg.Model, opts...)
	})
	r.RegisterLLM("mock", func(context.Context, LLMConfig) (llm.Provider, error) {
		return &mock.Provider{}, nil
	})

	r.RegisterStore("dynamo", func(ctx context.Context, cfg StoreConfig) (store.Store, error) {
		var opts []dynamo.Option
		if cfg.Region != "" {
			opts = append(opts, dynamo.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, dynamo.WithEndpoint(cfg.Endpoint))
		}
		return dynamo.New(ctx, cfg.Table, cfg.Scenario, opts...)
	})
	r.RegisterStore("postgres", func(ctx context.Context, cfg StoreConfig) (store.Store, error) {
		return postgres.New(ctx, cfg.DSN, cfg.Scenario)
	})
	r.RegisterStore("memory", func(context.Context, StoreConfig) (store.Store, error) {
		return memstore.New(), nil
	})

	return r
}
