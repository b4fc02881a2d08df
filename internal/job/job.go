// Package job runs asynchronous ingestion: uploads are accepted
// immediately, queued to a bounded worker pool, and processed through
// extract -> chunk -> embed while clients poll for progress. Finished
// jobs are retained for a TTL so late pollers still see the outcome,
// then evicted.
package job

import "errors"

var (
	// ErrUnknownJob reports a poll for a job id that was never submitted
	// or has already been evicted.
	ErrUnknownJob = errors.New("job: unknown job id")

	// ErrQueueFull reports that the ingestion queue is at capacity.
	ErrQueueFull = errors.New("job: queue full")

	// ErrClosed reports a submit after the manager has been closed.
	ErrClosed = errors.New("job: manager closed")
)

// Job stage labels surfaced to pollers.
const (
	StageStarting  = "starting"
	StageUploading = "uploading"
	StageReceived  = "file received"
	StageChunking  = "chunking"
	StageEmbedding = "embedding"
	StageDone      = "done"
	StageFailed    = "failed"
)

// State is the poller-visible snapshot of one ingestion job.
type State struct {
	ID    string `json:"job_id"`
	File  string `json:"file"`
	Pct   int    `json:"pct"`
	Stage string `json:"stage"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}
