package config

import (
	"strings"
	"testing"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
llm:
  provider: bedrock
  model: anthropic.claude-3-haiku-20240307-v1:0
  region: us-east-1
store:
  driver: dynamo
  table: incidents
  scenario: hurricane-drill
agent:
  max_iterations: 5
  max_tokens: 1024
  temperature: 0.2
  top_p: 0.9
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.LLM.Provider != "bedrock" {
		t.Errorf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if cfg.Store.Scenario != "hurricane-drill" {
		t.Errorf("Store.Scenario = %q", cfg.Store.Scenario)
	}
	if cfg.Agent.MaxIterations != 5 {
		t.Errorf("Agent.MaxIterations = %d", cfg.Agent.MaxIterations)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	yaml := validYAML + "\nextra_field: true\n"
	if _, err := LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadFromReader_MalformedYAML(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("server: [")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoadFromReader_Fallbacks(t *testing.T) {
	yaml := `
llm:
  provider: bedrock
  model: some-model
  fallbacks:
    - provider: openai
      model: gpt-4o-mini
      api_key: sk-test
store:
  driver: memory
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if len(cfg.LLM.Fallbacks) != 1 || cfg.LLM.Fallbacks[0].Provider != "openai" {
		t.Errorf("Fallbacks = %+v", cfg.LLM.Fallbacks)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "verbose" },
			wantErr: "server.log_level",
		},
		{
			name:    "tls missing key",
			mutate:  func(c *Config) { c.Server.TLS = &TLSConfig{CertFile: "cert.pem"} },
			wantErr: "server.tls",
		},
		{
			name:    "missing llm provider",
			mutate:  func(c *Config) { c.LLM.Provider = "" },
			wantErr: "llm.provider is required",
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.LLM.Model = "" },
			wantErr: "llm.model is required",
		},
		{
			name: "mock needs no model",
			mutate: func(c *Config) {
				c.LLM.Provider = "mock"
				c.LLM.Model = ""
			},
		},
		{
			name: "nested fallbacks rejected",
			mutate: func(c *Config) {
				c.LLM.Fallbacks = []LLMConfig{{
					Provider:  "openai",
					Fallbacks: []LLMConfig{{Provider: "anyllm"}},
				}}
			},
			wantErr: "must not nest",
		},
		{
			name:    "missing store driver",
			mutate:  func(c *Config) { c.Store.Driver = "" },
			wantErr: "store.driver is required",
		},
		{
			name:    "dynamo without table",
			mutate:  func(c *Config) { c.Store.Table = "" },
			wantErr: "store.table",
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.Store.Driver = "postgres"
			},
			wantErr: "store.dsn",
		},
		{
			name:    "missing scenario",
			mutate:  func(c *Config) { c.Store.Scenario = "" },
			wantErr: "store.scenario",
		},
		{
			name: "memory without scenario is fine",
			mutate: func(c *Config) {
				c.Store = StoreConfig{Driver: "memory"}
			},
		},
		{
			name:    "negative max iterations",
			mutate:  func(c *Config) { c.Agent.MaxIterations = -1 },
			wantErr: "agent.max_iterations",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Agent.Temperature = 2.5 },
			wantErr: "agent.temperature",
		},
		{
			name:    "top_p out of range",
			mutate:  func(c *Config) { c.Agent.TopP = 1.5 },
			wantErr: "agent.top_p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LLM:   LLMConfig{Provider: "bedrock", Model: "m"},
				Store: StoreConfig{Driver: "dynamo", Table: "incidents", Scenario: "scn"},
			}
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_JoinsMultipleErrors(t *testing.T) {
	cfg := &Config{}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"llm.provider", "store.driver"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error missing %q: %v", want, err)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SIMWATCH_LLM_PROVIDER", "mock")
	t.Setenv("SIMWATCH_STORE_DRIVER", "dynamo")
	t.Setenv("SIMWATCH_TABLE", "incidents")
	t.Setenv("SIMWATCH_SCENARIO", "hurricane-drill")
	t.Setenv("SIMWATCH_MAX_ITERATIONS", "3")
	t.Setenv("SIMWATCH_SYSTEM_PROMPT", "You are an analyst.")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.LLM.Provider != "mock" {
		t.Errorf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if cfg.Store.Table != "incidents" || cfg.Store.Scenario != "hurricane-drill" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Agent.MaxIterations != 3 {
		t.Errorf("MaxIterations = %d", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.SystemPrompt != "You are an analyst." {
		t.Errorf("SystemPrompt = %q", cfg.Agent.SystemPrompt)
	}
}

func TestFromEnv_BadInt(t *testing.T) {
	t.Setenv("SIMWATCH_LLM_PROVIDER", "mock")
	t.Setenv("SIMWATCH_STORE_DRIVER", "memory")
	t.Setenv("SIMWATCH_MAX_ITERATIONS", "five")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for non-numeric SIMWATCH_MAX_ITERATIONS")
	}
}
