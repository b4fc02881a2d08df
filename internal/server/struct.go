package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shubham119413/interview-rag/internal/extract"
	"github.com/shubham119413/interview-rag/internal/generator"
	"github.com/shubham119413/interview-rag/internal/history"
	"github.com/shubham119413/interview-rag/internal/job"
	"github.com/shubham119413/interview-rag/internal/rag"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	// Uploads can be large, so the default is generous (5 minutes).
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// UploadDir is where synchronously uploaded files are written before
	// extraction. Defaults to "uploads".
	UploadDir string
	// IngestMode is the chunking profile applied to uploaded documents.
	// Defaults to qa.
	IngestMode rag.Mode
	// MetricsRegistry receives the server's Prometheus metrics. Defaults to
	// prometheus.DefaultRegisterer; tests inject a fresh registry.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// Deps bundles the pipeline components the server exposes over HTTP.
type Deps struct {
	// Jobs manages asynchronous ingestion. Required.
	Jobs *job.Manager
	// Retriever answers search and ask queries. Required.
	Retriever *rag.Retriever
	// Store performs chunk+embed+index for synchronous uploads. Required.
	Store *rag.IndexStore
	// Extractors maps file extensions to text extractors. Required.
	Extractors *extract.Registry
	// Generator produces answers on the ask path. Optional: when nil,
	// POST /api/ask returns 503.
	Generator *generator.Generator
	// History lists past ingestion outcomes. Optional: when nil,
	// GET /api/history returns 503.
	History *history.Store
}

// ingestor is the interface the async upload handlers call.
// *job.Manager satisfies it; tests inject a fake.
type ingestor interface {
	Submit(ctx context.Context, filename string, src io.Reader) (string, error)
	Status(id string) (job.State, error)
}

// searcher is the interface the search and ask handlers call.
// *rag.Retriever satisfies it; tests inject a fake.
type searcher interface {
	Retrieve(ctx context.Context, query string, mode rag.Mode, topK int) ([]rag.Result, error)
	RetrieveHits(ctx context.Context, query string, mode rag.Mode, topK int) ([]rag.Hit, error)
}

// answerer is the interface the ask handler calls to generate an answer.
// *generator.Generator satisfies it; tests inject a fake.
type answerer interface {
	Generate(ctx context.Context, chunks []string, question string) (string, error)
}

// documentStore is the interface the synchronous upload handler calls.
// *rag.IndexStore satisfies it; tests inject a fake.
type documentStore interface {
	Store(ctx context.Context, text, source string, mode rag.Mode) (int, error)
}

// extractorLookup resolves a file path to its extractor.
// *extract.Registry satisfies it; tests inject a fake.
type extractorLookup interface {
	Lookup(path string) (extract.Extractor, error)
}

// historian lists recent ingestion outcomes.
// *history.Store satisfies it; tests inject a fake.
type historian interface {
	Recent(ctx context.Context, n int) ([]history.Entry, error)
}

// Server is the HTTP server that exposes the ingestion and retrieval
// pipeline as a REST API.
type Server struct {
	// jobs handles async uploads and status polling.
	jobs ingestor
	// retriever serves /api/search and the retrieval half of /api/ask.
	retriever searcher
	// store ingests synchronously uploaded documents.
	store documentStore
	// extractors resolves uploaded filenames to extractors.
	extractors extractorLookup
	// generator produces answers for /api/ask. May be nil.
	generator answerer
	// history backs /api/history. May be nil.
	history historian
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// validate checks request bodies against their struct tags.
	validate *validator.Validate
	// metrics holds the server's Prometheus instruments.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// uploadResponse is the JSON response for POST /api/upload.
type uploadResponse struct {
	// File is the base name of the ingested file.
	File string `json:"file"`
	// Chunks is the number of chunks stored in the index.
	Chunks int `json:"chunks"`
}

// uploadAsyncResponse is the JSON response for POST /api/upload/async.
type uploadAsyncResponse struct {
	// JobID identifies the accepted job for GET /api/status/{id}.
	JobID string `json:"job_id"`
	// File is the base name of the accepted file.
	File string `json:"file"`
}

// searchRequest is the JSON body for POST /api/search.
type searchRequest struct {
	// Query is the text to search for.
	Query string `json:"query" validate:"required"`
	// Mode selects the retrieval profile. Empty defaults to qa.
	Mode string `json:"mode" validate:"omitempty,oneof=qa summary"`
	// TopK caps the number of results. Zero uses the mode default.
	TopK int `json:"top_k" validate:"omitempty,min=1,max=50"`
}

// searchResponse is the JSON response for POST /api/search.
type searchResponse struct {
	// Query echoes the search text.
	Query string `json:"query"`
	// Results is the ranked result list, best match first.
	Results []rag.Result `json:"results"`
}

// askRequest is the JSON body for POST /api/ask.
type askRequest struct {
	// Question is the user's question.
	Question string `json:"question" validate:"required"`
	// Mode is qa, summary, or auto. Empty and auto resolve from the
	// question text.
	Mode string `json:"mode" validate:"omitempty,oneof=auto qa summary"`
}

// askChunk is one retrieved chunk echoed back in the ask response.
// Unlike search results it carries the full chunk text, since it is what
// the answer was grounded on.
type askChunk struct {
	// Text is the full chunk content.
	Text string `json:"text"`
	// Source identifies the ingested file the chunk came from.
	Source string `json:"source"`
	// ChunkID is the source-scoped chunk identifier.
	ChunkID int `json:"chunk_id"`
	// Distance is the inner-product similarity score.
	Distance float32 `json:"distance"`
}

// askResponse is the JSON response for POST /api/ask.
type askResponse struct {
	// Mode is the resolved retrieval mode (never "auto").
	Mode string `json:"mode"`
	// Question echoes the question.
	Question string `json:"question"`
	// Answer is the generated answer.
	Answer string `json:"answer"`
	// RetrievedChunks lists the chunks the answer was grounded on,
	// best match first.
	RetrievedChunks []askChunk `json:"retrieved_chunks"`
}

// historyResponse is the JSON response for GET /api/history.
type historyResponse struct {
	// Entries lists past ingestion outcomes, newest first.
	Entries []history.Entry `json:"entries"`
}
