package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; anything else
// (provider selection, store driver, network settings) needs a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	SystemPromptChanged  bool
	MaxIterationsChanged bool
	InferenceChanged     bool
}

// AgentChanged reports whether any hot-reloadable agent setting changed.
func (d ConfigDiff) AgentChanged() bool {
	return d.SystemPromptChanged || d.MaxIterationsChanged || d.InferenceChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Agent.SystemPrompt != new.Agent.SystemPrompt {
		d.SystemPromptChanged = true
	}
	if old.Agent.MaxIterations != new.Agent.MaxIterations {
		d.MaxIterationsChanged = true
	}
	if old.Agent.MaxTokens != new.Agent.MaxTokens ||
		old.Agent.Temperature != new.Agent.Temperature ||
		old.Agent.TopP != new.Agent.TopP {
		d.InferenceChanged = true
	}

	return d
}
