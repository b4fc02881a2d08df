package embedder

import (
	"log/slog"
	"strings"
)

// knownChatModelFragments contains name fragments that identify
// chat/completion models which are NOT suitable for embedding. If the
// configured model matches any of these, a warning is emitted so the
// operator knows they may have misconfigured the pipeline.
var knownChatModelFragments = []string{
	"gpt-4",
	"gpt-3.5",
	"o1",
	"o3",
	"llama3",
	"llama-3",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"claude",
	"deepseek",
	"qwen",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, fragment := range knownChatModelFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// Validate performs a pre-flight check of the embedding config so
// operators get a clear warning at startup rather than broken retrieval
// after the first embed call.
func Validate(cfg *Config, log *slog.Logger) {
	if cfg.Model != "" && looksLikeChatModel(cfg.Model) {
		log.Warn("embedding model looks like a chat model, not an embedding model",
			slog.String("model", cfg.Model),
			slog.String("hint", "use a dedicated embedding model e.g. nomic-embed-text, text-embedding-3-small"),
		)
	}
}
