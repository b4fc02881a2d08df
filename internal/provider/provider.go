// Package provider selects and constructs the LLM backend used to
// generate answers. Supported backends: Ollama, OpenAI, Google Gemini.
package provider

import (
	"fmt"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
)

// Default model per backend.
const (
	defaultOllamaModel = "llama3"
	defaultOpenAIModel = "gpt-4o"
	defaultGeminiModel = "gemini-1.5-flash"
)

// Config holds the provider-level settings.
type Config struct {
	// Backend identifies which inference provider to use. Default ollama.
	Backend Backend

	// Model is the model name to use (e.g. "gpt-4o", "llama3",
	// "gemini-1.5-flash"). Defaults per backend.
	Model string

	// BaseURL overrides the default API endpoint (used by Ollama and
	// OpenAI-compatible servers).
	BaseURL string

	// APIKey is the authentication credential. Required for openai and
	// gemini.
	APIKey string

	// MaxTokens caps the number of tokens the model may generate per
	// response. Default 4096.
	MaxTokens int

	// Temperature controls response randomness (0.0-1.0). Default 0.2.
	Temperature float32
}

// withDefaults returns a copy of the config with per-backend defaults
// filled in.
func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Backend == "" {
		out.Backend = BackendOllama
	}
	if out.Model == "" {
		switch out.Backend {
		case BackendOpenAI:
			out.Model = defaultOpenAIModel
		case BackendGemini:
			out.Model = defaultGeminiModel
		default:
			out.Model = defaultOllamaModel
		}
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = 4096
	}
	if out.Temperature == 0 {
		out.Temperature = 0.2
	}
	return out
}

// Validate checks that the config names a known backend and carries the
// credentials it requires, so callers get a clear error at startup rather
// than on the first request.
func (c *Config) Validate() error {
	cfg := c.withDefaults()
	switch cfg.Backend {
	case BackendOllama:
		return nil
	case BackendOpenAI, BackendGemini:
		if cfg.APIKey == "" {
			return fmt.Errorf("provider: %s backend requires an API key", cfg.Backend)
		}
		return nil
	default:
		return fmt.Errorf("provider: unknown backend %q — valid values: ollama, openai, gemini", cfg.Backend)
	}
}
