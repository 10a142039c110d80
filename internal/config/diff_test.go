package config

import "testing"

func baseConfig() *Config {
	return &Config{
		Server: ServerConfig{LogLevel: LogInfo},
		Agent: AgentConfig{
			SystemPrompt:  "prompt",
			MaxIterations: 5,
			MaxTokens:     1024,
			Temperature:   0.2,
		},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	d := Diff(baseConfig(), baseConfig())
	if d.LogLevelChanged || d.AgentChanged() {
		t.Errorf("diff = %+v, want no changes", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()
	new := baseConfig()
	new.Server.LogLevel = LogDebug

	d := Diff(baseConfig(), new)
	if !d.LogLevelChanged || d.NewLogLevel != LogDebug {
		t.Errorf("diff = %+v", d)
	}
}

func TestDiff_Agent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"system prompt", func(c *Config) { c.Agent.SystemPrompt = "other" }},
		{"max iterations", func(c *Config) { c.Agent.MaxIterations = 3 }},
		{"max tokens", func(c *Config) { c.Agent.MaxTokens = 2048 }},
		{"temperature", func(c *Config) { c.Agent.Temperature = 0.7 }},
		{"top_p", func(c *Config) { c.Agent.TopP = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			new := baseConfig()
			tt.mutate(new)

			d := Diff(baseConfig(), new)
			if !d.AgentChanged() {
				t.Error("expected AgentChanged")
			}
			if d.LogLevelChanged {
				t.Error("log level should not be flagged")
			}
		})
	}
}
