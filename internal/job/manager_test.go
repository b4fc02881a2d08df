package job

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shubham119413/interview-rag/internal/extract"
	"github.com/shubham119413/interview-rag/internal/rag"
)

// funcExtractor delegates to a function so tests can drive progress and
// observe intermediate job state.
type funcExtractor struct {
	stage string
	fn    func(ctx context.Context, path string, progress extract.ProgressFunc) (string, error)
}

func (f *funcExtractor) Stage() string { return f.stage }

func (f *funcExtractor) Extract(ctx context.Context, path string, progress extract.ProgressFunc) (string, error) {
	return f.fn(ctx, path, progress)
}

type fakeLookup struct {
	ex  extract.Extractor
	err error
}

func (f *fakeLookup) Lookup(path string) (extract.Extractor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ex, nil
}

type storeCall struct {
	text   string
	source string
	mode   rag.Mode
}

type fakeStore struct {
	mu      sync.Mutex
	calls   []storeCall
	chunks  int
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeStore) Store(ctx context.Context, text, source string, mode rag.Mode) (int, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.calls = append(f.calls, storeCall{text: text, source: source, mode: mode})
	f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.chunks, nil
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (f *fakeRecorder) Record(ctx context.Context, o Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, o)
	return nil
}

func (f *fakeRecorder) last(t *testing.T) Outcome {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.outcomes) == 0 {
		t.Fatal("no outcomes recorded")
	}
	return f.outcomes[len(f.outcomes)-1]
}

func newTestManager(t *testing.T, store DocumentStore, lookup ExtractorLookup, rec Recorder) *Manager {
	t.Helper()
	m, err := New(&Config{Workers: 1, QueueSize: 4, UploadDir: t.TempDir()}, Deps{
		Store:      store,
		Extractors: lookup,
		History:    rec,
	})
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

// waitDone polls until the job reports done or the deadline passes.
func waitDone(t *testing.T, m *Manager, id string) State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, err := m.Status(id)
		if err != nil {
			t.Fatalf("Status(%s): unexpected error: %v", id, err)
		}
		if st.Done {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", id)
	return State{}
}

func TestManager_Submit_Succeeds(t *testing.T) {
	t.Parallel()

	ex := &funcExtractor{stage: "extracting", fn: func(ctx context.Context, path string, p extract.ProgressFunc) (string, error) {
		return "the extracted text", nil
	}}
	store := &fakeStore{chunks: 7}
	rec := &fakeRecorder{}
	m := newTestManager(t, store, &fakeLookup{ex: ex}, rec)

	id, err := m.Submit(context.Background(), "/tmp/incoming/notes.txt", strings.NewReader("file body"))
	if err != nil {
		t.Fatalf("Submit: unexpected error: %v", err)
	}

	st := waitDone(t, m, id)
	if st.Pct != 100 || st.Stage != StageDone || st.Error != "" {
		t.Errorf("final state = %+v, want pct=100 stage=done no error", st)
	}
	if st.File != "notes.txt" {
		t.Errorf("File = %q, want base name notes.txt", st.File)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.calls) != 1 {
		t.Fatalf("store called %d times, want 1", len(store.calls))
	}
	call := store.calls[0]
	if call.text != "the extracted text" {
		t.Errorf("stored text = %q, want extractor output", call.text)
	}
	if call.source != "notes.txt" {
		t.Errorf("stored source = %q, want notes.txt", call.source)
	}
	if call.mode != rag.ModeQA {
		t.Errorf("stored mode = %q, want qa", call.mode)
	}

	o := rec.last(t)
	if o.JobID != id || o.Status != StageDone || o.Chunks != 7 {
		t.Errorf("outcome = %+v, want done with 7 chunks for job %s", o, id)
	}
}

func TestManager_Submit_UnsupportedType(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	rec := &fakeRecorder{}
	m := newTestManager(t, store, &fakeLookup{err: extract.ErrUnsupportedType}, rec)

	id, err := m.Submit(context.Background(), "archive.zip", strings.NewReader("zip bytes"))
	if err != nil {
		t.Fatalf("Submit: unexpected error: %v", err)
	}

	st := waitDone(t, m, id)
	if st.Stage != StageFailed || st.Error == "" {
		t.Errorf("final state = %+v, want failed with error", st)
	}
	if store.callCount() != 0 {
		t.Error("store was called for an unsupported file type")
	}
	if o := rec.last(t); o.Status != StageFailed {
		t.Errorf("outcome status = %q, want failed", o.Status)
	}
}

func TestManager_Submit_StoreError(t *testing.T) {
	t.Parallel()

	ex := &funcExtractor{stage: "extracting", fn: func(ctx context.Context, path string, p extract.ProgressFunc) (string, error) {
		return "text", nil
	}}
	store := &fakeStore{err: errors.New("embed backend down")}
	m := newTestManager(t, store, &fakeLookup{ex: ex}, nil)

	id, err := m.Submit(context.Background(), "notes.txt", strings.NewReader("body"))
	if err != nil {
		t.Fatalf("Submit: unexpected error: %v", err)
	}

	st := waitDone(t, m, id)
	if st.Stage != StageFailed || !strings.Contains(st.Error, "embed backend down") {
		t.Errorf("final state = %+v, want failed with store error", st)
	}
}

func TestManager_ExtractionProgress(t *testing.T) {
	t.Parallel()

	idCh := make(chan string, 1)
	var mgr *Manager

	var mid, end State
	ex := &funcExtractor{stage: "transcribing", fn: func(ctx context.Context, path string, p extract.ProgressFunc) (string, error) {
		id := <-idCh
		p(1, 2)
		mid, _ = mgr.Status(id)
		p(2, 2)
		end, _ = mgr.Status(id)
		return "text", nil
	}}

	store := &fakeStore{chunks: 1}
	mgr = newTestManager(t, store, &fakeLookup{ex: ex}, nil)

	id, err := mgr.Submit(context.Background(), "talk.mp3", strings.NewReader("audio"))
	if err != nil {
		t.Fatalf("Submit: unexpected error: %v", err)
	}
	idCh <- id
	waitDone(t, mgr, id)

	if mid.Pct != 50 || mid.Stage != "transcribing (1/2)" {
		t.Errorf("mid-extraction state = %+v, want pct=50 stage=transcribing (1/2)", mid)
	}
	if end.Pct != 75 || end.Stage != "transcribing (2/2)" {
		t.Errorf("end-extraction state = %+v, want pct=75 stage=transcribing (2/2)", end)
	}
}

func TestManager_ProgressNeverDecreases(t *testing.T) {
	t.Parallel()

	idCh := make(chan string, 1)
	var mgr *Manager

	var after State
	ex := &funcExtractor{stage: "extracting", fn: func(ctx context.Context, path string, p extract.ProgressFunc) (string, error) {
		id := <-idCh
		p(2, 2)
		// A late, out-of-order callback must not move the bar backwards.
		p(1, 2)
		after, _ = mgr.Status(id)
		return "text", nil
	}}

	mgr = newTestManager(t, &fakeStore{chunks: 1}, &fakeLookup{ex: ex}, nil)

	id, err := mgr.Submit(context.Background(), "notes.pdf", strings.NewReader("pdf"))
	if err != nil {
		t.Fatalf("Submit: unexpected error: %v", err)
	}
	idCh <- id
	waitDone(t, mgr, id)

	if after.Pct != 75 {
		t.Errorf("pct after stale callback = %d, want 75", after.Pct)
	}
}

func TestManager_Status_Unknown(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, &fakeStore{}, &fakeLookup{err: extract.ErrUnsupportedType}, nil)
	if _, err := m.Status("no-such-job"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Status error = %v, want ErrUnknownJob", err)
	}
}

func TestManager_Submit_QueueFull(t *testing.T) {
	t.Parallel()

	ex := &funcExtractor{stage: "extracting", fn: func(ctx context.Context, path string, p extract.ProgressFunc) (string, error) {
		return "text", nil
	}}
	store := &fakeStore{chunks: 1, entered: make(chan struct{}), release: make(chan struct{})}

	m, err := New(&Config{Workers: 1, QueueSize: 1, UploadDir: t.TempDir()}, Deps{
		Store:      store,
		Extractors: &fakeLookup{ex: ex},
	})
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	defer m.Close()

	// First job occupies the worker, second fills the queue.
	first, err := m.Submit(context.Background(), "a.txt", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Submit a: unexpected error: %v", err)
	}
	<-store.entered

	if _, err := m.Submit(context.Background(), "b.txt", strings.NewReader("b")); err != nil {
		t.Fatalf("Submit b: unexpected error: %v", err)
	}

	id, err := m.Submit(context.Background(), "c.txt", strings.NewReader("c"))
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Submit c error = %v, want ErrQueueFull", err)
	}
	st, statusErr := m.Status(id)
	if statusErr != nil {
		t.Fatalf("Status(c): unexpected error: %v", statusErr)
	}
	if st.Stage != StageFailed {
		t.Errorf("rejected job stage = %q, want failed", st.Stage)
	}

	close(store.release)
	<-store.entered
	waitDone(t, m, first)
}

func TestManager_Evict(t *testing.T) {
	t.Parallel()

	ex := &funcExtractor{stage: "extracting", fn: func(ctx context.Context, path string, p extract.ProgressFunc) (string, error) {
		return "text", nil
	}}
	m := newTestManager(t, &fakeStore{chunks: 1}, &fakeLookup{ex: ex}, nil)

	id, err := m.Submit(context.Background(), "notes.txt", strings.NewReader("body"))
	if err != nil {
		t.Fatalf("Submit: unexpected error: %v", err)
	}
	waitDone(t, m, id)

	// Within the TTL the finished job stays pollable.
	m.evict(time.Now())
	if _, err := m.Status(id); err != nil {
		t.Fatalf("Status before TTL: unexpected error: %v", err)
	}

	m.evict(time.Now().Add(2 * time.Hour))
	if _, err := m.Status(id); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Status after TTL error = %v, want ErrUnknownJob", err)
	}
}
