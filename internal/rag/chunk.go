package rag

import (
	"fmt"
	"strings"
)

// ErrChunkParams reports an invalid chunk size / overlap combination.
// An overlap >= size would never advance the window, so it is rejected as a
// configuration error rather than looping forever.
type ErrChunkParams struct {
	// Size is the rejected chunk size.
	Size int
	// Overlap is the rejected overlap.
	Overlap int
}

func (e *ErrChunkParams) Error() string {
	return fmt.Sprintf("rag: invalid chunk parameters: size=%d overlap=%d (need size > overlap >= 0)", e.Size, e.Overlap)
}

// Split splits text into overlapping windows of size bytes, advancing by
// size-overlap each step, so content spanning a window boundary is fully
// contained in at least one neighbour. The final chunk may be shorter;
// emission stops when the remaining slice is empty or all whitespace.
// Splitting is deterministic: the same input always yields the same chunks.
func Split(text string, size, overlap int) ([]Chunk, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, &ErrChunkParams{Size: size, Overlap: overlap}
	}

	var chunks []Chunk
	for start := 0; start < len(text); start += size - overlap {
		end := start + size
		if end > len(text) {
			end = len(text)
		}

		slice := text[start:end]
		if strings.TrimSpace(slice) == "" {
			break
		}

		chunks = append(chunks, Chunk{Text: slice, Start: start, End: end})
	}
	return chunks, nil
}
