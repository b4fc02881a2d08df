package rag

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyIndex is returned by Retrieve when no vectors have been stored
// yet. Callers surface it as a client error, not a service failure.
var ErrEmptyIndex = errors.New("rag: no embeddings found, ingest files first")

// previewLen is the number of bytes of chunk text included in a Result.
// Results carry a bounded preview rather than the full chunk to keep
// payloads small; the ellipsis marks the truncation point.
const previewLen = 300

// Retriever answers queries against a VectorIndex using a two-phase
// over-fetch-then-truncate search: the index is asked for more candidates
// than will be returned, giving the truncation step room to drop low-quality
// matches while keeping the contract uniform across modes.
type Retriever struct {
	// embedder converts the query text into a vector.
	embedder Embedder

	// index performs the similarity search.
	index VectorIndex
}

// NewRetriever constructs a Retriever from the given embedder and index.
func NewRetriever(embedder Embedder, index VectorIndex) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("rag: index must not be nil")
	}
	return &Retriever{embedder: embedder, index: index}, nil
}

// Retrieve embeds the query and returns ranked chunk summaries in
// descending similarity order. The mode selects the over-fetch width and
// the default result count; topK (when > 0) caps the result count below
// the mode's default. Fails with ErrEmptyIndex on an empty index.
func (r *Retriever) Retrieve(ctx context.Context, query string, mode Mode, topK int) ([]Result, error) {
	hits, err := r.RetrieveHits(ctx, query, mode, topK)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			Text:     preview(h.Meta.Text),
			Source:   h.Meta.Source,
			ChunkID:  h.Meta.ChunkID,
			Distance: h.Score,
		})
	}
	return results, nil
}

// RetrieveHits is Retrieve without the preview truncation: hits carry the
// full chunk text, for callers that assemble generation context.
func (r *Retriever) RetrieveHits(ctx context.Context, query string, mode Mode, topK int) ([]Hit, error) {
	n, err := r.index.Len(ctx)
	if err != nil {
		return nil, fmt.Errorf("rag: index size check failed: %w", err)
	}
	if n == 0 {
		return nil, ErrEmptyIndex
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("rag: embedder returned empty result for query")
	}
	vector := vectors[0]
	if err := normalize(vector); err != nil {
		return nil, err
	}

	initialK, finalK := mode.fetchParams()
	if topK > 0 && topK < finalK {
		finalK = topK
	}

	hits, err := r.index.Search(ctx, vector, initialK)
	if err != nil {
		return nil, fmt.Errorf("rag: vector search failed: %w", err)
	}
	if len(hits) > finalK {
		hits = hits[:finalK]
	}
	return hits, nil
}

// preview returns a bounded prefix of s with an ellipsis marker.
func preview(s string) string {
	if len(s) > previewLen {
		s = s[:previewLen]
	}
	return s + "..."
}
