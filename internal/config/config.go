// Package config provides YAML-based configuration for interview-rag.
// Configuration resolves with a layered precedence: defaults → YAML file
// → env vars. Environment variables always win, so containerized
// deployments can override any file setting.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. IRAG_CONFIG environment variable
//  3. ~/.interview-rag/config.yaml
//  4. ./interview-rag.yaml
//
// If no file is found the system runs from defaults plus env vars.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure. Field names use yaml
// tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Model configures the LLM backend used for answer generation.
	Model ModelConfig `yaml:"model"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Index configures the vector index backend.
	Index IndexConfig `yaml:"index"`

	// Ingest configures the asynchronous ingestion pipeline.
	Ingest IngestConfig `yaml:"ingest"`

	// Ask configures answer generation limits.
	Ask AskConfig `yaml:"ask"`

	// History configures ingestion history persistence.
	History HistoryConfig `yaml:"history"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Tracing configures Langfuse tracing integration.
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port" validate:"gte=1,lte=65535"`
	// APIKey is the Bearer token for API authentication. Empty disables
	// auth. Prefer env var IRAG_API_KEY.
	APIKey string `yaml:"api_key"`
	// RateRPS is the sustained per-IP request rate on rate-limited
	// endpoints. Zero selects the built-in default.
	RateRPS float64 `yaml:"rate_rps" validate:"gte=0"`
	// RateBurst is the per-IP burst allowance. Zero selects the default.
	RateBurst int `yaml:"rate_burst" validate:"gte=0"`
}

// ModelConfig holds LLM generation settings.
type ModelConfig struct {
	// Provider selects the backend: ollama, openai, gemini.
	Provider string `yaml:"provider" validate:"omitempty,oneof=ollama openai gemini"`
	// MaxTokens caps the response length.
	MaxTokens int `yaml:"max_tokens" validate:"gte=0"`
	// Temperature controls response randomness (0.0-1.0).
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`

	// Ollama holds Ollama-specific settings.
	Ollama OllamaConfig `yaml:"ollama"`
	// OpenAI holds OpenAI-specific settings.
	OpenAI OpenAIConfig `yaml:"openai"`
	// Gemini holds Google Gemini-specific settings.
	Gemini GeminiConfig `yaml:"gemini"`
}

// OllamaConfig holds Ollama provider settings.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string `yaml:"host"`
	// Model is the Ollama model name.
	Model string `yaml:"model"`
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the OpenAI model name.
	Model string `yaml:"model"`
	// BaseURL overrides the API endpoint for compatible servers.
	BaseURL string `yaml:"base_url"`
}

// GeminiConfig holds Google Gemini provider settings.
type GeminiConfig struct {
	// APIKey is the Google API key. Prefer env var GOOGLE_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the Gemini model name.
	Model string `yaml:"model"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend: ollama, openai.
	Provider string `yaml:"provider" validate:"omitempty,oneof=ollama openai"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// Dimensions overrides the embedding vector size.
	Dimensions int `yaml:"dimensions" validate:"gte=0"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint is the embedding API endpoint.
	Endpoint string `yaml:"endpoint"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	// Backend selects the index: "memory" (in-process) or "qdrant".
	Backend string `yaml:"backend" validate:"omitempty,oneof=memory qdrant"`
	// Qdrant holds Qdrant connection settings (qdrant backend only).
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	// Host is the Qdrant server hostname.
	Host string `yaml:"host"`
	// Port is the Qdrant gRPC port.
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
	// Collection is the Qdrant collection name.
	Collection string `yaml:"collection"`
	// APIKey is the Qdrant API key. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
	// TLS enables TLS for the Qdrant connection.
	TLS bool `yaml:"tls"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	// Workers is the number of concurrent ingestion workers.
	Workers int `yaml:"workers" validate:"gte=0"`
	// QueueSize bounds the number of queued jobs.
	QueueSize int `yaml:"queue_size" validate:"gte=0"`
	// JobTTLMinutes is how long finished jobs stay pollable.
	JobTTLMinutes int `yaml:"job_ttl_minutes" validate:"gte=0"`
	// UploadDir is where submitted files are written.
	UploadDir string `yaml:"upload_dir"`
	// TranscribeEndpoint is the Whisper-compatible API base URL.
	TranscribeEndpoint string `yaml:"transcribe_endpoint"`
	// TranscribeModel is the transcription model name.
	TranscribeModel string `yaml:"transcribe_model"`
	// TranscribeAPIKey authenticates against the transcription API.
	TranscribeAPIKey string `yaml:"transcribe_api_key"`
	// FFmpegPath is the ffmpeg binary used for video demuxing.
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// AskConfig holds answer generation limits.
type AskConfig struct {
	// MaxContextTokens bounds the retrieved context passed to the model.
	MaxContextTokens int `yaml:"max_context_tokens" validate:"gte=0"`
}

// HistoryConfig holds ingestion history settings.
type HistoryConfig struct {
	// DBPath is the SQLite database path. Set to "disabled" to disable.
	DBPath string `yaml:"db_path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	// Format is the log output format: json, text.
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`
}

// TracingConfig holds Langfuse tracing settings.
type TracingConfig struct {
	// PublicKey is the Langfuse public key. Prefer env var LANGFUSE_PUBLIC_KEY.
	PublicKey string `yaml:"public_key"`
	// SecretKey is the Langfuse secret key. Prefer env var LANGFUSE_SECRET_KEY.
	SecretKey string `yaml:"secret_key"`
	// Host is the Langfuse API host.
	Host string `yaml:"host"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Model: ModelConfig{
			Provider: "ollama",
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
		},
		Index: IndexConfig{
			Backend: "memory",
			Qdrant: QdrantConfig{
				Port:       6334,
				Collection: "interview_rag",
			},
		},
		Ingest: IngestConfig{
			Workers:       2,
			QueueSize:     16,
			JobTTLMinutes: 60,
			UploadDir:     "uploads",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// envOverrides maps env var names to the config fields they override.
// Env vars always take precedence over file values.
var envOverrides = []struct {
	envKey string
	apply  func(*Config, string)
}{
	{"IRAG_API_KEY", func(c *Config, v string) { c.Server.APIKey = v }},
	{"MODEL_PROVIDER", func(c *Config, v string) { c.Model.Provider = v }},
	{"MODEL_MAX_TOKENS", func(c *Config, v string) { setInt(&c.Model.MaxTokens, v) }},
	{"MODEL_TEMPERATURE", func(c *Config, v string) { setFloat32(&c.Model.Temperature, v) }},
	{"OLLAMA_HOST", func(c *Config, v string) { c.Model.Ollama.Host = v }},
	{"OLLAMA_MODEL", func(c *Config, v string) { c.Model.Ollama.Model = v }},
	{"OPENAI_API_KEY", func(c *Config, v string) { c.Model.OpenAI.APIKey = v }},
	{"OPENAI_MODEL", func(c *Config, v string) { c.Model.OpenAI.Model = v }},
	{"OPENAI_BASE_URL", func(c *Config, v string) { c.Model.OpenAI.BaseURL = v }},
	{"GOOGLE_API_KEY", func(c *Config, v string) { c.Model.Gemini.APIKey = v }},
	{"GEMINI_MODEL", func(c *Config, v string) { c.Model.Gemini.Model = v }},
	{"EMBEDDING_PROVIDER", func(c *Config, v string) { c.Embedding.Provider = v }},
	{"EMBEDDING_MODEL", func(c *Config, v string) { c.Embedding.Model = v }},
	{"EMBEDDING_DIMENSIONS", func(c *Config, v string) { setInt(&c.Embedding.Dimensions, v) }},
	{"EMBEDDING_API_KEY", func(c *Config, v string) { c.Embedding.APIKey = v }},
	{"EMBEDDING_ENDPOINT", func(c *Config, v string) { c.Embedding.Endpoint = v }},
	{"INDEX_BACKEND", func(c *Config, v string) { c.Index.Backend = v }},
	{"QDRANT_HOST", func(c *Config, v string) { c.Index.Qdrant.Host = v }},
	{"QDRANT_PORT", func(c *Config, v string) { setInt(&c.Index.Qdrant.Port, v) }},
	{"QDRANT_COLLECTION", func(c *Config, v string) { c.Index.Qdrant.Collection = v }},
	{"QDRANT_API_KEY", func(c *Config, v string) { c.Index.Qdrant.APIKey = v }},
	{"QDRANT_TLS", func(c *Config, v string) { c.Index.Qdrant.TLS = v == "true" || v == "1" }},
	{"TRANSCRIBE_ENDPOINT", func(c *Config, v string) { c.Ingest.TranscribeEndpoint = v }},
	{"TRANSCRIBE_MODEL", func(c *Config, v string) { c.Ingest.TranscribeModel = v }},
	{"TRANSCRIBE_API_KEY", func(c *Config, v string) { c.Ingest.TranscribeAPIKey = v }},
	{"FFMPEG_PATH", func(c *Config, v string) { c.Ingest.FFmpegPath = v }},
	{"UPLOAD_DIR", func(c *Config, v string) { c.Ingest.UploadDir = v }},
	{"LOG_LEVEL", func(c *Config, v string) { c.Logging.Level = v }},
	{"LOG_FORMAT", func(c *Config, v string) { c.Logging.Format = v }},
	{"IRAG_HISTORY_DB", func(c *Config, v string) { c.History.DBPath = v }},
	{"LANGFUSE_PUBLIC_KEY", func(c *Config, v string) { c.Tracing.PublicKey = v }},
	{"LANGFUSE_SECRET_KEY", func(c *Config, v string) { c.Tracing.SecretKey = v }},
	{"LANGFUSE_HOST", func(c *Config, v string) { c.Tracing.Host = v }},
}

// Load resolves the configuration: defaults, then the YAML file (if any),
// then env var overrides, then validation. Returns the config and the
// file path that was loaded (empty when running from defaults + env).
func Load(explicitPath string, log *slog.Logger) (*Config, string, error) {
	cfg := Default()

	path := resolveConfigPath(explicitPath)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, "", fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	applied := 0
	for _, o := range envOverrides {
		if v := os.Getenv(o.envKey); v != "" {
			o.apply(cfg, v)
			applied++
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, "", fmt.Errorf("config: invalid configuration: %w", err)
	}

	if path != "" {
		log.Info("config: loaded YAML config",
			slog.String("path", path),
			slog.Int("env_overrides", applied),
		)
	} else {
		log.Debug("config: no YAML config file found, using defaults and env vars")
	}

	return cfg, path, nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("IRAG_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".interview-rag", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("interview-rag.yaml"); err == nil {
		return "interview-rag.yaml"
	}

	return ""
}

func setInt(dst *int, v string) {
	if i, err := strconv.Atoi(v); err == nil {
		*dst = i
	}
}

func setFloat32(dst *float32, v string) {
	if f, err := strconv.ParseFloat(v, 32); err == nil {
		*dst = float32(f)
	}
}
