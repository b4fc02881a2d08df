package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// AudioConfig holds the settings for the transcription client.
type AudioConfig struct {
	// Endpoint is the base URL of a Whisper-compatible API.
	Endpoint string
	// Model is the transcription model name.
	Model string
	// APIKey is the optional Bearer token.
	APIKey string
	// Timeout bounds a single transcription call. Transcription of long
	// recordings is slow, so the default is generous.
	Timeout time.Duration
}

// AudioExtractor transcribes audio files through a Whisper-compatible
// /v1/audio/transcriptions endpoint.
type AudioExtractor struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

func NewAudioExtractor(cfg *AudioConfig) *AudioExtractor {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}
	return &AudioExtractor{
		endpoint: cfg.Endpoint,
		model:    model,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *AudioExtractor) Stage() string { return "transcribing" }

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (e *AudioExtractor) Extract(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	if e.endpoint == "" {
		return "", fmt.Errorf("extract: no transcription endpoint configured")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("extract: open audio file failed: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("extract: build transcription request failed: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("extract: build transcription request failed: %w", err)
	}
	if err := mw.WriteField("model", e.model); err != nil {
		return "", fmt.Errorf("extract: build transcription request failed: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("extract: build transcription request failed: %w", err)
	}

	url := e.endpoint + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("extract: create transcription request failed: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract: transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("extract: transcription API returned status %d: %s", resp.StatusCode, string(msg))
	}

	var tr transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("extract: decode transcription response failed: %w", err)
	}

	if progress != nil {
		progress(1, 1)
	}
	return tr.Text, nil
}
