package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shubham119413/interview-rag/internal/extract"
	"github.com/shubham119413/interview-rag/internal/job"
	"github.com/shubham119413/interview-rag/internal/rag"
)

// ---------------------------------------------------------------------------
// POST /api/upload — synchronous ingest
// ---------------------------------------------------------------------------

func TestHandleUpload_Succeeds(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	store := &fakeDocStore{chunks: 4}
	s.store = store
	s.extractors = &fakeRegistry{ex: &fixedExtractor{text: "extracted body"}}

	body, ct := multipartBody(t, "notes.txt", "raw upload bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()

	s.handleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}

	var resp uploadResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.File != "notes.txt" {
		t.Errorf("file: expected notes.txt, got %q", resp.File)
	}
	if resp.Chunks != 4 {
		t.Errorf("chunks: expected 4, got %d", resp.Chunks)
	}

	if store.gotText != "extracted body" {
		t.Errorf("stored text: got %q", store.gotText)
	}
	if store.gotSource != "notes.txt" {
		t.Errorf("stored source: got %q", store.gotSource)
	}
	if store.gotMode != rag.ModeQA {
		t.Errorf("stored mode: got %q", store.gotMode)
	}
}

func TestHandleUpload_UnsupportedType(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	store := &fakeDocStore{}
	s.store = store
	s.extractors = &fakeRegistry{err: extract.ErrUnsupportedType}

	body, ct := multipartBody(t, "archive.zip", "zipzip")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()

	s.handleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if store.gotSource != "" {
		t.Error("store must not be called for unsupported types")
	}
}

func TestHandleUpload_MissingFileField(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	w := httptest.NewRecorder()

	s.handleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without multipart body, got %d", w.Code)
	}
}

func TestHandleUpload_ExtractionFails(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.extractors = &fakeRegistry{ex: &fixedExtractor{err: errors.New("corrupt file")}}

	body, ct := multipartBody(t, "broken.pdf", "%PDF")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()

	s.handleUpload(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on extraction failure, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /api/upload/async
// ---------------------------------------------------------------------------

func TestHandleUploadAsync_Accepted(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	jobs := &fakeIngestor{id: "job-42"}
	s.jobs = jobs

	body, ct := multipartBody(t, "talk.mp3", "audio bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/upload/async", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()

	s.handleUploadAsync(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d — body: %s", w.Code, w.Body.String())
	}

	var resp uploadAsyncResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID != "job-42" {
		t.Errorf("job_id: expected job-42, got %q", resp.JobID)
	}
	if resp.File != "talk.mp3" {
		t.Errorf("file: expected talk.mp3, got %q", resp.File)
	}

	if jobs.gotName != "talk.mp3" {
		t.Errorf("submitted name: got %q", jobs.gotName)
	}
	if string(jobs.gotBody) != "audio bytes" {
		t.Errorf("submitted body: got %q", jobs.gotBody)
	}
}

func TestHandleUploadAsync_QueueFull(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.jobs = &fakeIngestor{submitErr: job.ErrQueueFull}

	body, ct := multipartBody(t, "talk.mp3", "audio bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/upload/async", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()

	s.handleUploadAsync(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when queue is full, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on queue-full response")
	}
}

func TestHandleUploadAsync_MissingFileField(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/upload/async", nil)
	w := httptest.NewRecorder()

	s.handleUploadAsync(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without multipart body, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /api/status/{id}
// ---------------------------------------------------------------------------

func TestHandleStatus_Found(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.jobs = &fakeIngestor{state: job.State{
		ID:    "job-7",
		File:  "talk.mp3",
		Pct:   50,
		Stage: "transcribing (1/2)",
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/status/job-7", nil)
	req.SetPathValue("id", "job-7")
	w := httptest.NewRecorder()

	s.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}

	var state job.State
	if err := json.NewDecoder(w.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.ID != "job-7" || state.Pct != 50 || state.Stage != "transcribing (1/2)" {
		t.Errorf("unexpected state: %+v", state)
	}
}

func TestHandleStatus_Unknown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.jobs = &fakeIngestor{statusErr: job.ErrUnknownJob}

	req := httptest.NewRequest(http.MethodGet, "/api/status/nope", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()

	s.handleStatus(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", w.Code)
	}
}
