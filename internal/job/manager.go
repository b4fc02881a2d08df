package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shubham119413/interview-rag/internal/extract"
	"github.com/shubham119413/interview-rag/internal/logging"
	"github.com/shubham119413/interview-rag/internal/rag"
)

// extractStart and extractEnd bound the progress band reported while an
// extractor runs. Per-unit callbacks are mapped linearly into the band.
const (
	extractStart = 25
	extractEnd   = 75
)

// DocumentStore ingests extracted text into the index. Satisfied by
// *rag.IndexStore.
type DocumentStore interface {
	Store(ctx context.Context, text, source string, mode rag.Mode) (int, error)
}

// ExtractorLookup resolves the extractor for a file. Satisfied by
// *extract.Registry.
type ExtractorLookup interface {
	Lookup(path string) (extract.Extractor, error)
}

// Outcome is the durable record of one finished job.
type Outcome struct {
	JobID    string
	File     string
	Status   string
	Error    string
	Chunks   int
	Duration time.Duration
}

// Recorder persists job outcomes. Satisfied by *history.Store.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// Config holds the job manager settings.
type Config struct {
	// Workers is the number of concurrent ingestion workers. Default 2.
	Workers int

	// QueueSize bounds the number of jobs waiting for a worker. Default 16.
	QueueSize int

	// TTL is how long finished jobs stay pollable. Default 1 hour.
	TTL time.Duration

	// UploadDir is where submitted files are written. Default "uploads".
	UploadDir string

	// Mode selects the chunking profile used for ingested documents.
	// Default qa.
	Mode rag.Mode
}

func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Workers <= 0 {
		out.Workers = 2
	}
	if out.QueueSize <= 0 {
		out.QueueSize = 16
	}
	if out.TTL <= 0 {
		out.TTL = time.Hour
	}
	if out.UploadDir == "" {
		out.UploadDir = "uploads"
	}
	if out.Mode == "" {
		out.Mode = rag.ModeQA
	}
	return out
}

// Deps are the manager's collaborators.
type Deps struct {
	Store      DocumentStore
	Extractors ExtractorLookup

	// History is optional; when nil outcomes are not persisted.
	History Recorder

	// Registry receives the manager's Prometheus metrics. Optional.
	Registry prometheus.Registerer

	Log *slog.Logger
}

type task struct {
	id        string
	path      string
	name      string
	submitted time.Time
}

// record pairs the poller-visible state with eviction bookkeeping.
type record struct {
	state    State
	finished time.Time
}

// Manager owns the upload directory, the job table, and the worker pool.
type Manager struct {
	cfg     Config
	store   DocumentStore
	lookup  ExtractorLookup
	history Recorder
	metrics *jobMetrics
	log     *slog.Logger

	mu     sync.Mutex
	jobs   map[string]*record
	closed bool

	queue  chan task
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New constructs a Manager, creates the upload directory, and starts the
// worker pool plus the TTL eviction goroutine. Call Close to drain and stop.
func New(cfg *Config, deps Deps) (*Manager, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("job: store is required")
	}
	if deps.Extractors == nil {
		return nil, fmt.Errorf("job: extractor lookup is required")
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := cfg.withDefaults()
	if err := os.MkdirAll(c.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("job: create upload dir failed: %w", err)
	}

	m := &Manager{
		cfg:     c,
		store:   deps.Store,
		lookup:  deps.Extractors,
		history: deps.History,
		metrics: newJobMetrics(reg),
		log:     log,
		jobs:    make(map[string]*record),
		queue:   make(chan task, c.QueueSize),
		stopCh:  make(chan struct{}),
	}

	m.wg.Add(c.Workers)
	for i := 0; i < c.Workers; i++ {
		go m.worker()
	}
	go m.evictLoop()

	return m, nil
}

// Submit registers a new job, writes the upload to disk, and enqueues it.
// The returned id is pollable immediately; upload and queue failures are
// reflected in the job state as well as the returned error, so late
// pollers see the outcome either way.
func (m *Manager) Submit(ctx context.Context, filename string, src io.Reader) (string, error) {
	id := uuid.NewString()
	name := filepath.Base(filename)
	submitted := time.Now()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	m.jobs[id] = &record{state: State{ID: id, File: name, Pct: 5, Stage: StageStarting}}
	m.mu.Unlock()

	m.set(id, 10, StageUploading)

	path := filepath.Join(m.cfg.UploadDir, id+"_"+name)
	f, err := os.Create(path)
	if err != nil {
		err = fmt.Errorf("job: create upload failed: %w", err)
		m.fail(id, submitted, err)
		return id, err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		err = fmt.Errorf("job: write upload failed: %w", err)
		m.fail(id, submitted, err)
		return id, err
	}
	if err := f.Close(); err != nil {
		err = fmt.Errorf("job: write upload failed: %w", err)
		m.fail(id, submitted, err)
		return id, err
	}

	// Enqueue under mu so Close cannot close the queue between the
	// closed check and the send.
	m.mu.Lock()
	closed := m.closed
	enqueued := false
	if !closed {
		select {
		case m.queue <- task{id: id, path: path, name: name, submitted: submitted}:
			enqueued = true
		default:
		}
	}
	m.mu.Unlock()

	if closed {
		m.fail(id, submitted, ErrClosed)
		return id, ErrClosed
	}
	if !enqueued {
		m.fail(id, submitted, ErrQueueFull)
		return id, ErrQueueFull
	}
	m.metrics.queueDepth.Inc()

	m.log.Info("ingestion job submitted",
		slog.String("job_id", id),
		slog.String("file", name),
	)
	return id, nil
}

// Status returns the current snapshot for a job.
func (m *Manager) Status(id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.jobs[id]
	if !ok {
		return State{}, ErrUnknownJob
	}
	return r.state, nil
}

// Close stops accepting jobs, waits for in-flight work to finish, and
// stops the eviction goroutine.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	close(m.queue)
	m.wg.Wait()
	close(m.stopCh)
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for t := range m.queue {
		m.metrics.queueDepth.Dec()
		m.run(t)
	}
}

func (m *Manager) run(t task) {
	ctx := logging.WithLogger(context.Background(), m.log)

	m.set(t.id, 20, StageReceived)

	ex, err := m.lookup.Lookup(t.path)
	if err != nil {
		m.fail(t.id, t.submitted, err)
		return
	}

	m.set(t.id, extractStart, ex.Stage())
	text, err := ex.Extract(ctx, t.path, func(done, total int) {
		if total <= 0 {
			return
		}
		pct := extractStart + (extractEnd-extractStart)*done/total
		m.set(t.id, pct, fmt.Sprintf("%s (%d/%d)", ex.Stage(), done, total))
	})
	if err != nil {
		m.fail(t.id, t.submitted, err)
		return
	}

	m.set(t.id, 85, StageChunking)
	chunks, err := m.store.Store(ctx, text, t.name, m.cfg.Mode)
	if err != nil {
		m.fail(t.id, t.submitted, err)
		return
	}
	m.set(t.id, 95, StageEmbedding)

	m.finish(t.id, t.submitted, chunks)
}

// set updates a job's progress. Percent never moves backwards, so coarse
// extractor callbacks cannot undo a finer stage transition.
func (m *Manager) set(id string, pct int, stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.jobs[id]
	if !ok || r.state.Done {
		return
	}
	if pct < r.state.Pct {
		pct = r.state.Pct
	}
	r.state.Pct = pct
	r.state.Stage = stage
}

func (m *Manager) finish(id string, submitted time.Time, chunks int) {
	dur := time.Since(submitted)

	m.mu.Lock()
	r, ok := m.jobs[id]
	if ok {
		r.state.Pct = 100
		r.state.Stage = StageDone
		r.state.Done = true
		r.finished = time.Now()
	}
	var file string
	if ok {
		file = r.state.File
	}
	m.mu.Unlock()

	m.metrics.jobsTotal.WithLabelValues("done").Inc()
	m.metrics.jobDurationSeconds.WithLabelValues("done").Observe(dur.Seconds())
	m.record(Outcome{JobID: id, File: file, Status: StageDone, Chunks: chunks, Duration: dur})

	m.log.Info("ingestion job finished",
		slog.String("job_id", id),
		slog.String("file", file),
		slog.Int("chunks", chunks),
		slog.Duration("duration", dur),
	)
}

func (m *Manager) fail(id string, submitted time.Time, cause error) {
	dur := time.Since(submitted)

	m.mu.Lock()
	r, ok := m.jobs[id]
	if ok {
		r.state.Pct = 100
		r.state.Stage = StageFailed
		r.state.Done = true
		r.state.Error = cause.Error()
		r.finished = time.Now()
	}
	var file string
	if ok {
		file = r.state.File
	}
	m.mu.Unlock()

	m.metrics.jobsTotal.WithLabelValues("failed").Inc()
	m.metrics.jobDurationSeconds.WithLabelValues("failed").Observe(dur.Seconds())
	m.record(Outcome{JobID: id, File: file, Status: StageFailed, Error: cause.Error(), Duration: dur})

	m.log.Error("ingestion job failed",
		slog.String("job_id", id),
		slog.String("file", file),
		slog.String("error", cause.Error()),
	)
}

func (m *Manager) record(o Outcome) {
	if m.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.history.Record(ctx, o); err != nil {
		m.log.Warn("record job outcome failed",
			slog.String("job_id", o.JobID),
			slog.String("error", err.Error()),
		)
	}
}

// evictLoop removes finished jobs that have outlived the TTL. It runs in
// a background goroutine and exits when the manager is closed.
func (m *Manager) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.evict(time.Now())
		}
	}
}

func (m *Manager) evict(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-m.cfg.TTL)
	for id, r := range m.jobs {
		if r.state.Done && r.finished.Before(cutoff) {
			delete(m.jobs, id)
		}
	}
}
