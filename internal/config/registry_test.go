package config

import (
	"context"
	"errors"
	"testing"

	"github.com/jmallard/simwatch/internal/store"
	"github.com/jmallard/simwatch/pkg/provider/llm"
	"github.com/jmallard/simwatch/pkg/provider/llm/mock"
)

func TestRegistry_Unregistered(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	if _, err := r.CreateLLM(context.Background(), LLMConfig{Provider: "bedrock"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("CreateLLM err = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := r.CreateStore(context.Background(), StoreConfig{Driver: "dynamo"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("CreateStore err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_RegisterAndCreate(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.RegisterLLM("stub", func(context.Context, LLMConfig) (llm.Provider, error) {
		return &mock.Provider{}, nil
	})

	p, err := r.CreateLLM(context.Background(), LLMConfig{Provider: "stub"})
	if err != nil {
		t.Fatalf("CreateLLM: %v", err)
	}
	if p == nil {
		t.Fatal("CreateLLM returned nil provider")
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()
	r := DefaultRegistry()

	// Mock and memory require no external services and must construct.
	p, err := r.CreateLLM(context.Background(), LLMConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("CreateLLM(mock): %v", err)
	}
	if _, ok := p.(*mock.Provider); !ok {
		t.Errorf("mock provider type = %T", p)
	}

	s, err := r.CreateStore(context.Background(), StoreConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("CreateStore(memory): %v", err)
	}
	var _ store.Store = s
}
