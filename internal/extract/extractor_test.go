package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry(&Config{TranscribeEndpoint: "http://localhost:8090"})

	cases := []struct {
		path      string
		wantStage string
	}{
		{"notes.pdf", "extracting"},
		{"Slides.PDF", "extracting"},
		{"readme.txt", "extracting"},
		{"readme.md", "extracting"},
		{"lecture.mp3", "transcribing"},
		{"lecture.wav", "transcribing"},
		{"talk.mp4", "transcribing"},
		{"talk.mov", "transcribing"},
	}
	for _, tc := range cases {
		e, err := r.Lookup(tc.path)
		if err != nil {
			t.Fatalf("Lookup(%q): unexpected error: %v", tc.path, err)
		}
		if got := e.Stage(); got != tc.wantStage {
			t.Errorf("Lookup(%q).Stage() = %q, want %q", tc.path, got, tc.wantStage)
		}
	}
}

func TestRegistry_Lookup_Unsupported(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry(nil)
	for _, path := range []string{"archive.zip", "image.png", "noext"} {
		if _, err := r.Lookup(path); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Lookup(%q) error = %v, want ErrUnsupportedType", path, err)
		}
	}
}

func TestTextExtractor_Extract(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello transcripts"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotDone, gotTotal int
	text, err := NewTextExtractor().Extract(context.Background(), path, func(done, total int) {
		gotDone, gotTotal = done, total
	})
	if err != nil {
		t.Fatalf("Extract: unexpected error: %v", err)
	}
	if text != "hello transcripts" {
		t.Errorf("Extract = %q, want file contents", text)
	}
	if gotDone != 1 || gotTotal != 1 {
		t.Errorf("progress = (%d, %d), want (1, 1)", gotDone, gotTotal)
	}
}

func TestTextExtractor_Extract_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewTextExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"), nil)
	if err == nil {
		t.Fatal("Extract on missing file: expected error, got nil")
	}
}

func TestAudioExtractor_Extract(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model field = %q, want whisper-1", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file field missing: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "the spoken words"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "talk.mp3")
	if err := os.WriteFile(path, []byte("fake-audio-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewAudioExtractor(&AudioConfig{Endpoint: srv.URL})
	text, err := e.Extract(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Extract: unexpected error: %v", err)
	}
	if text != "the spoken words" {
		t.Errorf("Extract = %q, want transcript text", text)
	}
}

func TestAudioExtractor_Extract_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "talk.wav")
	if err := os.WriteFile(path, []byte("fake-audio-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewAudioExtractor(&AudioConfig{Endpoint: srv.URL})
	if _, err := e.Extract(context.Background(), path, nil); err == nil {
		t.Fatal("Extract: expected error on 503 response, got nil")
	}
}

func TestAudioExtractor_Extract_NoEndpoint(t *testing.T) {
	t.Parallel()

	e := NewAudioExtractor(&AudioConfig{})
	if _, err := e.Extract(context.Background(), "talk.mp3", nil); err == nil {
		t.Fatal("Extract: expected error without an endpoint, got nil")
	}
}

func Test_ContentText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "simple Tj strings",
			content: `BT /F1 12 Tf (Hello) Tj (world) Tj ET`,
			want:    "Hello world",
		},
		{
			name:    "TJ array with kerning",
			content: `[(Chun)-12(king)] TJ`,
			want:    "Chun king",
		},
		{
			name:    "escaped parens",
			content: `(f\(x\) = y) Tj`,
			want:    "f(x) = y",
		},
		{
			name:    "nested parens",
			content: `(outer (inner) tail) Tj`,
			want:    "outer (inner) tail",
		},
		{
			name:    "no text operators",
			content: `0 0 612 792 re f`,
			want:    "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := contentText([]byte(tc.content)); got != tc.want {
				t.Errorf("contentText(%q) = %q, want %q", tc.content, got, tc.want)
			}
		})
	}
}
