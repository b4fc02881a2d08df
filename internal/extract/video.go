package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// VideoExtractor demuxes a video's audio track with ffmpeg, then hands
// the result to the audio transcriber. Two progress units: demux, then
// transcription.
type VideoExtractor struct {
	ffmpeg string
	audio  *AudioExtractor
}

func NewVideoExtractor(ffmpegPath string, audio *AudioExtractor) *VideoExtractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &VideoExtractor{ffmpeg: ffmpegPath, audio: audio}
}

func (e *VideoExtractor) Stage() string { return "transcribing" }

func (e *VideoExtractor) Extract(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	tmpDir, err := os.MkdirTemp("", "demux-*")
	if err != nil {
		return "", fmt.Errorf("extract: create temp dir failed: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	wav := filepath.Join(tmpDir, "audio.wav")
	cmd := exec.CommandContext(ctx, e.ffmpeg,
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y", wav,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("extract: ffmpeg demux failed: %w: %s", err, tail(out, 512))
	}
	if progress != nil {
		progress(1, 2)
	}

	text, err := e.audio.Extract(ctx, wav, nil)
	if err != nil {
		return "", err
	}
	if progress != nil {
		progress(2, 2)
	}
	return text, nil
}

func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
