// Package extract provides the text-extraction collaborators used by the
// ingestion pipeline. Each extractor turns one source file kind into plain
// text: PDF pages, plain text files, audio transcripts, and video (demuxed
// to audio first). Extraction may be slow; all implementations honour the
// context and report per-unit progress so polling clients see forward motion.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType reports a file whose extension maps to no extractor.
var ErrUnsupportedType = errors.New("extract: unsupported file type")

// ProgressFunc is called after each completed extraction sub-unit (a PDF
// page, a media file). done counts completed units out of total.
type ProgressFunc func(done, total int)

// Extractor converts one source file into plain text.
// Implementations must be safe to call from multiple goroutines.
type Extractor interface {
	// Extract reads the file at path and returns its plain text.
	// progress may be nil.
	Extract(ctx context.Context, path string, progress ProgressFunc) (string, error)

	// Stage returns the job stage label shown while this extractor runs
	// (e.g. "extracting", "transcribing").
	Stage() string
}

// Registry maps file extensions to extractors.
type Registry struct {
	// byExt maps a lowercase extension including the dot to its extractor.
	byExt map[string]Extractor
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// Register maps one or more extensions (".pdf", ".mp3", ...) to e.
func (r *Registry) Register(e Extractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Lookup returns the extractor for the file's extension, or
// ErrUnsupportedType when no extractor is registered for it.
func (r *Registry) Lookup(path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return e, nil
}

// Config holds the settings for constructing the default extractor set.
type Config struct {
	// TranscribeEndpoint is the base URL of a Whisper-compatible
	// transcription API (e.g. "http://localhost:8090").
	TranscribeEndpoint string

	// TranscribeModel is the transcription model name (e.g. "whisper-1").
	TranscribeModel string

	// TranscribeAPIKey is the optional Bearer token for the endpoint.
	TranscribeAPIKey string

	// FFmpegPath is the ffmpeg binary used to demux video audio tracks.
	// Defaults to "ffmpeg" (resolved via PATH).
	FFmpegPath string
}

// DefaultRegistry wires the full extractor set for the recognised source
// kinds: PDF, plain text/markdown, audio, and video.
func DefaultRegistry(cfg *Config) *Registry {
	if cfg == nil {
		cfg = &Config{}
	}

	r := NewRegistry()
	r.Register(NewPDFExtractor(), ".pdf")
	r.Register(NewTextExtractor(), ".txt", ".md")

	audio := NewAudioExtractor(&AudioConfig{
		Endpoint: cfg.TranscribeEndpoint,
		Model:    cfg.TranscribeModel,
		APIKey:   cfg.TranscribeAPIKey,
	})
	r.Register(audio, ".mp3", ".wav")
	r.Register(NewVideoExtractor(cfg.FFmpegPath, audio), ".mp4", ".mov")

	return r
}
