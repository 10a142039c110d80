package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known backend names per concern. Used by
// [Validate] to warn about unrecognised names.
var ValidProviderNames = map[string][]string{
	"llm":   {"bedrock", "openai", "anyllm", "mock"},
	"store": {"dynamo", "postgres", "memory"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a [Config] from SIMWATCH_* environment variables. This is
// the configuration path for the Lambda entry point, where there is no
// config file to mount.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			LogLevel: LogLevel(os.Getenv("SIMWATCH_LOG_LEVEL")),
			APIKey:   os.Getenv("SIMWATCH_API_KEY"),
		},
		LLM: LLMConfig{
			Provider: envOr("SIMWATCH_LLM_PROVIDER", "bedrock"),
			Model:    os.Getenv("SIMWATCH_MODEL_ID"),
			Region:   os.Getenv("AWS_REGION"),
			APIKey:   os.Getenv("SIMWATCH_LLM_API_KEY"),
		},
		Store: StoreConfig{
			Driver:   envOr("SIMWATCH_STORE_DRIVER", "dynamo"),
			Scenario: os.Getenv("SIMWATCH_SCENARIO"),
			Table:    os.Getenv("SIMWATCH_TABLE"),
			Region:   os.Getenv("AWS_REGION"),
		},
		Agent: AgentConfig{
			SystemPrompt: os.Getenv("SIMWATCH_SYSTEM_PROMPT"),
		},
	}

	if v := os.Getenv("SIMWATCH_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: SIMWATCH_MAX_ITERATIONS %q: %w", v, err)
		}
		cfg.Agent.MaxIterations = n
	}
	if v := os.Getenv("SIMWATCH_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: SIMWATCH_MAX_TOKENS %q: %w", v, err)
		}
		cfg.Agent.MaxTokens = n
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// LLM
	validateProviderName("llm", cfg.LLM.Provider)
	if cfg.LLM.Provider == "" {
		errs = append(errs, errors.New("llm.provider is required"))
	}
	if cfg.LLM.Provider != "mock" && cfg.LLM.Model == "" {
		errs = append(errs, fmt.Errorf("llm.model is required for provider %q", cfg.LLM.Provider))
	}
	for i, fb := range cfg.LLM.Fallbacks {
		validateProviderName("llm", fb.Provider)
		if fb.Provider == "" {
			errs = append(errs, fmt.Errorf("llm.fallbacks[%d].provider is required", i))
		}
		if len(fb.Fallbacks) > 0 {
			errs = append(errs, fmt.Errorf("llm.fallbacks[%d] must not nest further fallbacks", i))
		}
	}

	// Store
	validateProviderName("store", cfg.Store.Driver)
	if cfg.Store.Driver == "" {
		errs = append(errs, errors.New("store.driver is required"))
	}
	if cfg.Store.Scenario == "" && cfg.Store.Driver != "memory" {
		errs = append(errs, fmt.Errorf("store.scenario is required for driver %q", cfg.Store.Driver))
	}
	switch cfg.Store.Driver {
	case "dynamo":
		if cfg.Store.Table == "" {
			errs = append(errs, errors.New("store.table is required for the dynamo driver"))
		}
	case "postgres":
		if cfg.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	}

	// Agent
	if cfg.Agent.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("agent.max_iterations %d must not be negative", cfg.Agent.MaxIterations))
	}
	if cfg.Agent.ResultBudget < 0 {
		errs = append(errs, fmt.Errorf("agent.result_budget %d must not be negative", cfg.Agent.ResultBudget))
	}
	if cfg.Agent.Temperature < 0 || cfg.Agent.Temperature > 2 {
		errs = append(errs, fmt.Errorf("agent.temperature %.2f is out of range [0, 2]", cfg.Agent.Temperature))
	}
	if cfg.Agent.TopP < 0 || cfg.Agent.TopP > 1 {
		errs = append(errs, fmt.Errorf("agent.top_p %.2f is out of range [0, 1]", cfg.Agent.TopP))
	}

	if cfg.Store.Driver == "memory" && cfg.Store.Scenario != "" {
		slog.Warn("store.scenario is ignored by the memory driver",
			"scenario", cfg.Store.Scenario)
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

// envOr returns the environment variable value or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
