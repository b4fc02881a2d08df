// Package server implements the HTTP server that exposes the document
// ingestion and retrieval pipeline as a REST API.
// The server is started by the `interview-rag serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shubham119413/interview-rag/internal/logging"
	"github.com/shubham119413/interview-rag/internal/rag"
)

// New constructs a Server from the provided pipeline components and config.
func New(deps *Deps, cfg *Config) (*Server, error) {
	if deps == nil {
		return nil, fmt.Errorf("server: deps must not be nil")
	}
	if deps.Jobs == nil {
		return nil, fmt.Errorf("server: job manager must not be nil")
	}
	if deps.Retriever == nil {
		return nil, fmt.Errorf("server: retriever must not be nil")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("server: index store must not be nil")
	}
	if deps.Extractors == nil {
		return nil, fmt.Errorf("server: extractor registry must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		// ReadTimeout must be long enough for large media uploads.
		cfg.ReadTimeout = 5 * time.Minute
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout covers synchronous ingest, which includes extraction
		// and embedding of the whole document.
		cfg.WriteTimeout = 10 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.IngestMode == "" {
		cfg.IngestMode = rag.ModeQA
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("info", "text")
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		jobs:       deps.Jobs,
		retriever:  deps.Retriever,
		store:      deps.Store,
		extractors: deps.Extractors,
		cfg:        cfg,
		log:        cfg.Logger,
		pingers:    cfg.Pingers,
		validate:   validator.New(),
		metrics:    newServerMetrics(cfg.MetricsRegistry),
	}
	// Optional deps: assigning a nil *T to the interface field would make it
	// non-nil, so guard each one.
	if deps.Generator != nil {
		s.generator = deps.Generator
	}
	if deps.History != nil {
		s.history = deps.History
	}

	if cfg.APIKey == "" {
		s.log.Warn("API key not set, authentication disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	// Protected routes get per-IP rate limiting and Bearer auth; probe and
	// metrics endpoints stay open so orchestrators can reach them.
	protected := func(name string, h http.HandlerFunc) http.Handler {
		return s.instrument(name, rl.middleware(authMiddleware(cfg.APIKey, h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/upload", protected("upload", s.handleUpload))
	mux.Handle("POST /api/upload/async", protected("upload_async", s.handleUploadAsync))
	mux.Handle("GET /api/status/{id}", protected("status", s.handleStatus))
	mux.Handle("POST /api/search", protected("search", s.handleSearch))
	mux.Handle("POST /api/ask", protected("ask", s.handleAsk))
	mux.Handle("GET /api/history", protected("history", s.handleHistory))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		defer s.stopRL()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
