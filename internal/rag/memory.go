package rag

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryIndex is a flat in-memory inner-product index. It owns two
// append-only, positionally aligned tables — vectors and metadata — guarded
// by a single read-write lock: the meta at position i always describes the
// vector at position i, and a batch Append commits both tables together so
// readers never observe a torn state.
type MemoryIndex struct {
	// mu guards vectors and metas as one unit.
	mu sync.RWMutex

	// dim is the vector dimension, fixed by the first Append.
	dim int

	// vectors is the append-only table of unit-normalised embeddings.
	vectors [][]float32

	// metas is the metadata table aligned with vectors.
	metas []ChunkMeta
}

// NewMemoryIndex constructs an empty MemoryIndex. The vector dimension is
// taken from the first appended batch.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Append stores a batch of vectors with their parallel metadata. The whole
// batch is validated before either table is touched, so a failed Append
// leaves the index unchanged.
func (x *MemoryIndex) Append(_ context.Context, vectors [][]float32, metas []ChunkMeta) error {
	if len(vectors) != len(metas) {
		return fmt.Errorf("rag: memory index: %d vectors but %d metadata entries", len(vectors), len(metas))
	}
	if len(vectors) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dim := x.dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("rag: memory index: vector %d has dimension %d, index dimension is %d", i, len(v), dim)
		}
	}

	x.dim = dim
	x.vectors = append(x.vectors, vectors...)
	x.metas = append(x.metas, metas...)
	return nil
}

// Search returns up to k hits ordered by descending inner product.
// Equal scores keep insertion order (stable sort over positions).
func (x *MemoryIndex) Search(_ context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	positions := make([]int, len(x.vectors))
	scores := make([]float32, len(x.vectors))
	for i, v := range x.vectors {
		positions[i] = i
		scores[i] = dot(v, vector)
	}

	sort.SliceStable(positions, func(a, b int) bool {
		return scores[positions[a]] > scores[positions[b]]
	})

	if k > len(positions) {
		k = len(positions)
	}
	hits := make([]Hit, 0, k)
	for _, pos := range positions[:k] {
		hits = append(hits, Hit{Meta: x.metas[pos], Score: scores[pos]})
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (x *MemoryIndex) Len(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors), nil
}
