package rag

import (
	"context"
	"fmt"
	"sync"
)

// IndexStore owns the embed-and-index step: it chunks text with the mode's
// parameters, embeds every chunk in one batch, normalises the vectors, and
// commits vectors plus metadata to the index in a single append. An
// embedding failure therefore stores nothing — there is no partial commit.
//
// Store calls are serialised by an internal mutex so that source-scoped
// chunk ids are assigned without races (single-writer discipline).
type IndexStore struct {
	// embedder converts chunk texts into dense vectors.
	embedder Embedder

	// index receives the committed vectors and metadata.
	index VectorIndex

	// mu serialises Store calls and guards nextID.
	mu sync.Mutex

	// nextID tracks the next chunk id per source so chunk ids stay unique
	// within a source across repeated Store calls.
	nextID map[string]int
}

// NewIndexStore constructs an IndexStore from the given embedder and index.
func NewIndexStore(embedder Embedder, index VectorIndex) (*IndexStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("rag: index must not be nil")
	}
	return &IndexStore{
		embedder: embedder,
		index:    index,
		nextID:   make(map[string]int),
	}, nil
}

// Store chunks text with the mode's parameters, embeds and normalises each
// chunk, and appends the whole batch to the index. It returns the number of
// chunks stored. On any error the index is left unchanged.
func (s *IndexStore) Store(ctx context.Context, text, source string, mode Mode) (int, error) {
	size, overlap := mode.chunkParams()
	chunks, err := Split(text, size, overlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("rag: embedding failed for %s: %w", source, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("rag: embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i, v := range vectors {
		if err := normalize(v); err != nil {
			return 0, fmt.Errorf("rag: chunk %d of %s: %w", i, source, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.nextID[source]
	metas := make([]ChunkMeta, len(chunks))
	for i, c := range chunks {
		metas[i] = ChunkMeta{
			Text:    c.Text,
			Source:  source,
			ChunkID: base + i,
			Start:   c.Start,
			End:     c.End,
		}
	}

	if err := s.index.Append(ctx, vectors, metas); err != nil {
		return 0, fmt.Errorf("rag: index append failed for %s: %w", source, err)
	}
	s.nextID[source] = base + len(chunks)

	return len(chunks), nil
}
