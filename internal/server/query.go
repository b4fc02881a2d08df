package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shubham119413/interview-rag/internal/history"
	"github.com/shubham119413/interview-rag/internal/logging"
	"github.com/shubham119413/interview-rag/internal/rag"
)

// historyLimit is the number of entries returned by GET /api/history.
const historyLimit = 50

// handleSearch handles POST /api/search: a ranked similarity search over the
// index. Results carry bounded text previews; use /api/ask for full-text
// grounding.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	mode := rag.Mode(req.Mode)
	if mode == "" {
		mode = rag.ModeQA
	}

	results, err := s.retriever.Retrieve(r.Context(), req.Query, mode, req.TopK)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyIndex) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error("search", slog.Any("error", err))
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Query: req.Query, Results: results})
}

// handleAsk handles POST /api/ask: retrieve, then generate an answer grounded
// on the retrieved chunks. Mode "auto" (or empty) is resolved from the
// question text.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if s.generator == nil {
		http.Error(w, "generation backend not configured", http.StatusServiceUnavailable)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	mode := rag.Mode(req.Mode)
	if req.Mode == "" || req.Mode == "auto" {
		mode = rag.RouteMode(req.Question)
	}

	start := time.Now()

	hits, err := s.retriever.RetrieveHits(r.Context(), req.Question, mode, 0)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyIndex) {
			s.metrics.askRequestsTotal.WithLabelValues(outcomeEmptyIndex).Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.metrics.askRequestsTotal.WithLabelValues(outcomeError).Inc()
		log.Error("retrieve", slog.Any("error", err))
		http.Error(w, "retrieval failed", http.StatusInternalServerError)
		return
	}

	chunks := make([]string, len(hits))
	for i, h := range hits {
		chunks[i] = h.Meta.Text
	}

	answer, err := s.generator.Generate(r.Context(), chunks, req.Question)
	if err != nil {
		s.metrics.askRequestsTotal.WithLabelValues(outcomeError).Inc()
		log.Error("generate", slog.Any("error", err))
		http.Error(w, "answer generation failed", http.StatusBadGateway)
		return
	}

	s.metrics.askRequestsTotal.WithLabelValues(outcomeOK).Inc()
	s.metrics.askDurationSeconds.Observe(time.Since(start).Seconds())
	log.Info("question answered",
		slog.String("mode", string(mode)),
		slog.Int("chunks", len(hits)),
		slog.Duration("duration", time.Since(start)),
	)

	resp := askResponse{
		Mode:            string(mode),
		Question:        req.Question,
		Answer:          answer,
		RetrievedChunks: make([]askChunk, len(hits)),
	}
	for i, h := range hits {
		resp.RetrievedChunks[i] = askChunk{
			Text:     h.Meta.Text,
			Source:   h.Meta.Source,
			ChunkID:  h.Meta.ChunkID,
			Distance: h.Score,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHistory handles GET /api/history: recent ingestion outcomes,
// newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history store not configured", http.StatusServiceUnavailable)
		return
	}

	entries, err := s.history.Recent(r.Context(), historyLimit)
	if err != nil {
		log := logging.FromContext(r.Context())
		log.Error("history", slog.Any("error", err))
		http.Error(w, "history lookup failed", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}
