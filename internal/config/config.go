// Package config provides the configuration schema, loader, and provider
// registry for the simwatch query backend.
package config

// LogLevel controls log verbosity for the simwatch server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for simwatch.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader];
// the Lambda entry point builds it from environment variables via [FromEnv].
type Config struct {
	Server ServerConfig `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`
	Store  StoreConfig  `yaml:"store"`
	Agent  AgentConfig  `yaml:"agent"`
}

// ServerConfig holds network and logging settings for the simwatch server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// APIKey, when set, requires every API request to carry this key in the
	// X-API-Key header. Health and metrics endpoints stay open.
	APIKey string `yaml:"api_key"`

	// AllowedOrigins lists origins allowed by the CORS middleware. Empty
	// means allow any origin, matching the upstream web map client's needs.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// LLMConfig selects and configures a chat provider. The Provider field is
// used to look up the constructor in the [Registry].
type LLMConfig struct {
	// Provider selects the registered chat backend ("bedrock", "openai",
	// "anyllm", "mock").
	Provider string `yaml:"provider"`

	// Model is the model identifier passed to the backend (e.g., a Bedrock
	// model ID or an OpenAI model name).
	Model string `yaml:"model"`

	// Region overrides the AWS region for the bedrock provider.
	Region string `yaml:"region"`

	// APIKey is the authentication key for key-based providers.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Backend selects the any-llm backend name ("ollama", "anthropic", ...)
	// for the anyllm provider. Ignored by others.
	Backend string `yaml:"backend"`

	// Fallbacks lists additional providers tried in order when the primary
	// fails or its circuit breaker is open.
	Fallbacks []LLMConfig `yaml:"fallbacks"`
}

// StoreConfig selects and configures the incident datastore.
type StoreConfig struct {
	// Driver selects the registered store implementation ("dynamo",
	// "postgres", "memory").
	Driver string `yaml:"driver"`

	// Scenario is the simulation scenario partition to serve. Required.
	Scenario string `yaml:"scenario"`

	// Table is the DynamoDB table name for the dynamo driver.
	Table string `yaml:"table"`

	// Region overrides the AWS region for the dynamo driver.
	Region string `yaml:"region"`

	// Endpoint points the dynamo driver at a non-default endpoint, e.g. a
	// local DynamoDB container.
	Endpoint string `yaml:"endpoint"`

	// DSN is the PostgreSQL connection string for the postgres driver.
	DSN string `yaml:"dsn"`
}

// AgentConfig tunes the conversation loop.
type AgentConfig struct {
	// SystemPrompt is sent with every chat call. Empty selects the built-in
	// default prompt.
	SystemPrompt string `yaml:"system_prompt"`

	// MaxIterations caps chat calls per query. Zero means the loop default.
	MaxIterations int `yaml:"max_iterations"`

	// ResultBudget is the per-tool-result byte budget for interactive
	// queries. Zero means the loop default.
	ResultBudget int `yaml:"result_budget"`

	// MaxTokens caps tokens per model turn.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature, in [0, 2].
	Temperature float32 `yaml:"temperature"`

	// TopP is the nucleus sampling parameter, in [0, 1].
	TopP float32 `yaml:"top_p"`
}
