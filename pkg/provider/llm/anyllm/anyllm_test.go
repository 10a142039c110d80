package anyllm

import (
	"encoding/json"
	"testing"

	"github.com/jmallard/simwatch/pkg/provider/llm"
)

func TestNew_MissingBackend(t *testing.T) {
	if _, err := New("", "llama3.1"); err == nil {
		t.Fatal("expected error for empty backend name")
	}
}

func TestNew_MissingModel(t *testing.T) {
	if _, err := New("ollama", ""); err == nil {
		t.Fatal("expected error for empty model")
	}
}

func TestNew_UnsupportedBackend(t *testing.T) {
	if _, err := New("notreal", "some-model"); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestBuildParams_SystemAndTools(t *testing.T) {
	p := &Provider{model: "llama3.1"}
	params, err := p.buildParams(llm.Request{
		System: "You are an analyst.",
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: []llm.ContentBlock{llm.TextBlock{Text: "status?"}},
		}},
		Tools: []llm.ToolDefinition{{
			Name:        "queryDatabase",
			Description: "Query the dataset.",
			InputSchema: map[string]any{"type": "object"},
		}},
		Inference: llm.InferenceConfig{MaxTokens: 512, Temperature: 0.3},
	})
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}

	if params.Model != "llama3.1" {
		t.Errorf("Model = %q", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("messages = %d, want 2 (system + user)", len(params.Messages))
	}
	if len(params.Tools) != 1 || params.Tools[0].Function.Name != "queryDatabase" {
		t.Errorf("tools = %+v", params.Tools)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 512 {
		t.Errorf("MaxTokens not forwarded")
	}
}

func TestConvertMessage_ToolResultsExpand(t *testing.T) {
	out, err := convertMessage(llm.Message{
		Role: llm.RoleUser,
		Content: []llm.ContentBlock{
			llm.ToolResultBlock{ID: "call-1", Content: "[]"},
			llm.ToolResultBlock{ID: "call-2", Content: "no such table", IsError: true},
		},
	})
	if err != nil {
		t.Fatalf("convertMessage: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("messages = %d, want 2", len(out))
	}
	if out[0].Role != "tool" || out[0].ToolCallID != "call-1" {
		t.Errorf("first message = %+v", out[0])
	}
	if out[1].Content != "error: no such table" {
		t.Errorf("error result content = %q", out[1].Content)
	}
}

func TestConvertMessage_AssistantToolUse(t *testing.T) {
	out, err := convertMessage(llm.Message{
		Role: llm.RoleAssistant,
		Content: []llm.ContentBlock{
			llm.ToolUseBlock{ID: "call-1", Name: "queryDatabase", Input: json.RawMessage(`{"limit":3}`)},
		},
	})
	if err != nil {
		t.Fatalf("convertMessage: %v", err)
	}
	if len(out) != 1 || len(out[0].ToolCalls) != 1 {
		t.Fatalf("unexpected conversion: %+v", out)
	}
	if out[0].ToolCalls[0].Function.Arguments != `{"limit":3}` {
		t.Errorf("arguments = %q", out[0].ToolCalls[0].Function.Arguments)
	}
}
