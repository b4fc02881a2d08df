package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shubham119413/interview-rag/internal/extract"
	"github.com/shubham119413/interview-rag/internal/job"
	"github.com/shubham119413/interview-rag/internal/logging"
)

// handleUpload handles POST /api/upload: synchronous ingestion. The uploaded
// file is written to the upload directory, its text extracted, and the result
// chunked, embedded, and indexed before the response is sent. Large media
// files should prefer POST /api/upload/async.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	name, src, err := uploadedFile(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer src.Close()

	// Reject unsupported extensions before touching the disk.
	ex, err := s.extractors.Lookup(name)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		log.Error("upload dir", slog.Any("error", err))
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	path := filepath.Join(s.cfg.UploadDir, name)
	if err := saveUpload(path, src); err != nil {
		log.Error("save upload", slog.String("file", name), slog.Any("error", err))
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	text, err := ex.Extract(r.Context(), path, nil)
	if err != nil {
		log.Error("extract", slog.String("file", name), slog.Any("error", err))
		http.Error(w, "extraction failed", http.StatusInternalServerError)
		return
	}

	chunks, err := s.store.Store(r.Context(), text, name, s.cfg.IngestMode)
	if err != nil {
		log.Error("store", slog.String("file", name), slog.Any("error", err))
		http.Error(w, "indexing failed", http.StatusInternalServerError)
		return
	}

	log.Info("file ingested",
		slog.String("file", name),
		slog.Int("chunks", chunks),
	)
	writeJSON(w, http.StatusOK, uploadResponse{File: name, Chunks: chunks})
}

// handleUploadAsync handles POST /api/upload/async. The file is handed to the
// job manager and a job ID is returned immediately; clients poll
// GET /api/status/{id} for progress.
func (s *Server) handleUploadAsync(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	name, src, err := uploadedFile(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer src.Close()

	id, err := s.jobs.Submit(r.Context(), name, src)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrQueueFull):
			w.Header().Set("Retry-After", "5")
			http.Error(w, "ingestion queue is full, retry later", http.StatusServiceUnavailable)
		case errors.Is(err, job.ErrClosed):
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		default:
			log.Error("submit", slog.String("file", name), slog.Any("error", err))
			http.Error(w, "upload failed", http.StatusInternalServerError)
		}
		return
	}

	log.Info("upload accepted",
		slog.String("job_id", id),
		slog.String("file", name),
	)
	writeJSON(w, http.StatusAccepted, uploadAsyncResponse{JobID: id, File: name})
}

// handleStatus handles GET /api/status/{id}: a point-in-time snapshot of an
// ingestion job. Finished jobs stay pollable until the manager evicts them.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, err := s.jobs.Status(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, job.ErrUnknownJob) {
			http.Error(w, "unknown job id", http.StatusNotFound)
			return
		}
		http.Error(w, "status lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// uploadedFile extracts the "file" part from a multipart upload request.
// The returned name is a base name, never a path.
func uploadedFile(r *http.Request) (string, io.ReadCloser, error) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, errors.New("multipart field \"file\" is required")
	}
	name := filepath.Base(hdr.Filename)
	if name == "." || name == string(filepath.Separator) {
		f.Close()
		return "", nil, errors.New("a file name is required")
	}
	return name, f, nil
}

// saveUpload streams src to path, truncating any previous upload of the
// same name.
func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
