package extract

import (
	"context"
	"fmt"
	"os"
)

// TextExtractor reads plain text and markdown files verbatim.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

func (e *TextExtractor) Stage() string { return "extracting" }

func (e *TextExtractor) Extract(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extract: read text file failed: %w", err)
	}
	if progress != nil {
		progress(1, 1)
	}
	return string(data), nil
}
