// Package rag implements the ingestion-and-retrieval core: splitting source
// text into overlapping chunks, embedding and indexing them, and answering
// queries with a two-phase over-fetch-then-truncate nearest-neighbour search.
// Concrete index backends (in-memory, Qdrant) satisfy the VectorIndex
// interface so the rest of the system never depends on a specific one.
package rag

import (
	"context"
)

// Chunk is a contiguous slice of a source's extracted text, tagged with its
// byte offsets into that text.
type Chunk struct {
	// Text is the raw chunk content.
	Text string

	// Start is the byte offset of the first byte of the chunk.
	Start int

	// End is the byte offset one past the last byte of the chunk.
	End int
}

// ChunkMeta is the metadata persisted alongside each vector in the index.
// For the in-memory backend the metadata table is positionally aligned with
// the vector table: the meta at position i describes the vector at position i.
type ChunkMeta struct {
	// Text is the full chunk content.
	Text string

	// Source identifies the ingested file the chunk came from.
	Source string

	// ChunkID is unique per Source, assigned in emission order from 0.
	ChunkID int

	// Start and End are the chunk's byte offsets into the source text.
	Start int
	End   int
}

// Result is a single ranked retrieval result returned to callers.
type Result struct {
	// Text is a bounded preview of the chunk content (prefix + ellipsis).
	Text string `json:"text"`

	// Source identifies the ingested file the chunk came from.
	Source string `json:"source"`

	// ChunkID is the source-scoped chunk identifier.
	ChunkID int `json:"chunk_id"`

	// Distance is the inner-product similarity score. Vectors are unit
	// normalised, so higher means more similar.
	Distance float32 `json:"distance"`
}

// Hit is a raw index search result: the stored metadata plus its score.
type Hit struct {
	// Meta is the metadata stored with the matched vector.
	Meta ChunkMeta

	// Score is the inner-product similarity of the matched vector.
	Score float32
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the narrow contract the store and retriever depend on:
// append vectors with their metadata, search by inner product, report size.
// Implementations must be safe to call from multiple goroutines, and Append
// must commit the whole batch or nothing.
type VectorIndex interface {
	// Append stores a batch of vectors with their parallel metadata —
	// metas[i] describes vectors[i].
	Append(ctx context.Context, vectors [][]float32, metas []ChunkMeta) error

	// Search returns up to k hits ordered by descending similarity.
	// Ties are broken by insertion order (stable).
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)

	// Len returns the number of vectors currently stored.
	Len(ctx context.Context) (int, error)
}
