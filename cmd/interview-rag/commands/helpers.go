package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"

	"github.com/shubham119413/interview-rag/internal/config"
	"github.com/shubham119413/interview-rag/internal/embedder"
	"github.com/shubham119413/interview-rag/internal/extract"
	"github.com/shubham119413/interview-rag/internal/history"
	"github.com/shubham119413/interview-rag/internal/provider"
	"github.com/shubham119413/interview-rag/internal/rag"
	"github.com/shubham119413/interview-rag/internal/server"
)

// defaultOllamaEndpoint is where a local Ollama instance listens.
const defaultOllamaEndpoint = "http://localhost:11434"

// buildEmbedder constructs the embedding backend from the resolved config
// and warns when the configured model looks like a chat model.
func buildEmbedder(cfg *config.Config, log *slog.Logger) (rag.Embedder, *embedder.Config, error) {
	embCfg := &embedder.Config{
		Provider:   cfg.Embedding.Provider,
		Endpoint:   cfg.Embedding.Endpoint,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	}
	embedder.Validate(embCfg, log)

	emb, err := embedder.New(embCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialise embedder: %w", err)
	}
	return emb, embCfg, nil
}

// buildIndex constructs the vector index selected by the config: the
// in-process memory index, or a Qdrant collection sized for the embedder.
// The returned close function is a no-op for the memory backend.
func buildIndex(ctx context.Context, cfg *config.Config, vectorSize int) (rag.VectorIndex, func(), error) {
	if cfg.Index.Backend != "qdrant" {
		return rag.NewMemoryIndex(), func() {}, nil
	}

	idx, err := rag.NewQdrantIndex(ctx, &rag.QdrantConfig{
		Host:       cfg.Index.Qdrant.Host,
		Port:       cfg.Index.Qdrant.Port,
		Collection: cfg.Index.Qdrant.Collection,
		VectorSize: uint64(vectorSize), //nolint:gosec // dimensions are bounded
		APIKey:     cfg.Index.Qdrant.APIKey,
		UseTLS:     cfg.Index.Qdrant.TLS,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to qdrant at %s:%d: %w",
			cfg.Index.Qdrant.Host, cfg.Index.Qdrant.Port, err)
	}
	return idx, func() { _ = idx.Close() }, nil
}

// buildExtractors constructs the extension-to-extractor registry from the
// ingest config.
func buildExtractors(cfg *config.Config) *extract.Registry {
	return extract.DefaultRegistry(&extract.Config{
		TranscribeEndpoint: cfg.Ingest.TranscribeEndpoint,
		TranscribeModel:    cfg.Ingest.TranscribeModel,
		TranscribeAPIKey:   cfg.Ingest.TranscribeAPIKey,
		FFmpegPath:         cfg.Ingest.FFmpegPath,
	})
}

// buildChatModel constructs the chat model for answer generation from the
// model section of the config.
func buildChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	pc := &provider.Config{
		Backend:     provider.Backend(cfg.Model.Provider),
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
	}
	switch pc.Backend {
	case provider.BackendOpenAI:
		pc.Model = cfg.Model.OpenAI.Model
		pc.APIKey = cfg.Model.OpenAI.APIKey
		pc.BaseURL = cfg.Model.OpenAI.BaseURL
	case provider.BackendGemini:
		pc.Model = cfg.Model.Gemini.Model
		pc.APIKey = cfg.Model.Gemini.APIKey
	default:
		pc.Model = cfg.Model.Ollama.Model
		pc.BaseURL = cfg.Model.Ollama.Host
	}

	if err := pc.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // validation errors are already descriptive
	}
	return provider.New(ctx, pc) //nolint:wrapcheck // constructor passthrough
}

// openHistory opens the ingestion history store. DBPath "disabled" turns
// history off; an open failure degrades to no history rather than aborting
// the command.
func openHistory(cfg *config.Config, log *slog.Logger) (*history.Store, func()) {
	noop := func() {}

	path := cfg.History.DBPath
	if path == "disabled" {
		log.Info("history: disabled via config")
		return nil, noop
	}
	if path == "" {
		var err error
		path, err = history.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, noop
		}
	}

	hs, err := history.Open(path)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, noop
	}
	log.Info("history: store opened", slog.String("path", path))
	return hs, func() { _ = hs.Close() }
}

// buildPingers assembles the readiness probes for GET /api/ready: the
// embedder endpoint, the Qdrant index when configured, and the history store
// when open.
func buildPingers(cfg *config.Config, embCfg *embedder.Config, idx rag.VectorIndex, hist *history.Store) []server.Pinger {
	var pingers []server.Pinger

	endpoint := embCfg.Endpoint
	if endpoint == "" && (embCfg.Provider == "" || embCfg.Provider == "ollama") {
		endpoint = defaultOllamaEndpoint
	}
	if endpoint != "" {
		pingers = append(pingers, server.NewHTTPPinger("embedder", endpoint))
	}

	if q, ok := idx.(*rag.QdrantIndex); ok {
		pingers = append(pingers, server.NewPinger("qdrant", q.Ping))
	}
	if hist != nil {
		pingers = append(pingers, server.NewPinger("history", hist.Ping))
	}

	return pingers
}
