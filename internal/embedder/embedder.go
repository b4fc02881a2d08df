// Package embedder provides implementations of the rag.Embedder interface
// for converting text into dense vector embeddings. Each implementation
// talks to a backend (Ollama, OpenAI-compatible) via plain HTTP — no
// additional SDK dependencies are required.
package embedder

import (
	"fmt"

	"github.com/shubham119413/interview-rag/internal/rag"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"

	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	// Other Ollama models may differ — override with Config.Dimensions.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536

	// maxBatch bounds the number of texts sent in a single backend request.
	// Ingesting a large document can produce hundreds of chunks; batching
	// keeps request bodies small and avoids backend payload limits.
	maxBatch = 64
)

// Config holds the resolved embedding settings.
type Config struct {
	// Provider selects the backend: "ollama" or "openai".
	Provider string
	// Endpoint is the backend base URL. Defaults per provider.
	Endpoint string
	// APIKey authenticates against the backend. Required for openai.
	APIKey string
	// Model is the embedding model name. Defaults per provider.
	Model string
	// Dimensions is the embedding vector length. 0 selects the provider
	// default (ollama: 768, openai: 1536).
	Dimensions int
}

// VectorSize returns the effective embedding vector size for the config.
// Callers that pre-configure a vector store (e.g. Qdrant collection
// creation) should use this rather than hardcoding a value.
func (c *Config) VectorSize() int {
	if c.Dimensions > 0 {
		return c.Dimensions
	}
	if c.Provider == "ollama" || c.Provider == "" {
		return defaultOllamaDimensions
	}
	return defaultOpenAIDimensions
}

// New constructs a rag.Embedder for the configured provider.
func New(cfg *Config) (rag.Embedder, error) {
	switch cfg.Provider {
	case "", "ollama":
		host := cfg.Endpoint
		if host == "" {
			host = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = defaultOllamaModel
		}
		return NewOllamaEmbedder(&OllamaConfig{Host: host, Model: model}), nil

	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedder: openai provider requires an API key")
		}
		baseURL := cfg.Endpoint
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		model := cfg.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    baseURL,
			APIKey:     cfg.APIKey,
			Model:      model,
			Dimensions: cfg.Dimensions,
		}), nil

	default:
		return nil, fmt.Errorf("embedder: unknown provider %q — valid values: ollama, openai", cfg.Provider)
	}
}

// batches splits texts into slices of at most maxBatch elements,
// preserving order.
func batches(texts []string) [][]string {
	var out [][]string
	for len(texts) > maxBatch {
		out = append(out, texts[:maxBatch])
		texts = texts[maxBatch:]
	}
	if len(texts) > 0 {
		out = append(out, texts)
	}
	return out
}
