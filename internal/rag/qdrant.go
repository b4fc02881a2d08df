package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection parameters for a Qdrant-backed index.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the stored embeddings.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantIndex implements VectorIndex backed by a Qdrant collection.
// Chunk metadata travels in the point payload, and point IDs are derived
// deterministically from source + chunk id so re-ingesting a source
// overwrites its points rather than duplicating them.
type QdrantIndex struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this index.
	cfg *QdrantConfig
}

// NewQdrantIndex creates a QdrantIndex, ensuring the target collection
// exists (creating it if necessary), and returns a ready-to-use index.
func NewQdrantIndex(ctx context.Context, cfg *QdrantConfig) (*QdrantIndex, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	idx := &QdrantIndex{client: client, cfg: cfg}
	if err := idx.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return idx, nil
}

// ensureCollection creates the collection if it does not already exist.
// Vectors are stored unit-normalised, so dot-product distance is equivalent
// to cosine similarity.
func (x *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := x.client.CollectionExists(ctx, x.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: x.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     x.cfg.VectorSize,
			Distance: qdrant.Distance_Dot,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", x.cfg.Collection, err)
	}

	return nil
}

// pointID derives a stable UUID for a chunk from its source and chunk id.
func pointID(meta ChunkMeta) string {
	name := fmt.Sprintf("%s#%d", meta.Source, meta.ChunkID)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Append upserts a batch of vectors with their metadata as point payloads.
// Qdrant applies the upsert atomically per request, which satisfies the
// all-or-nothing contract of VectorIndex.
func (x *QdrantIndex) Append(ctx context.Context, vectors [][]float32, metas []ChunkMeta) error {
	if len(vectors) != len(metas) {
		return fmt.Errorf("qdrant: %d vectors but %d metadata entries", len(vectors), len(metas))
	}

	points := make([]*qdrant.PointStruct, 0, len(metas))
	for i, meta := range metas {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(meta)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":     meta.Text,
				"source":   meta.Source,
				"chunk_id": int64(meta.ChunkID),
				"start":    int64(meta.Start),
				"end":      int64(meta.End),
			}),
		})
	}

	_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: x.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return nil
}

// Search performs a dot-product similarity search and returns up to k hits.
func (x *QdrantIndex) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	limit := uint64(k) //nolint:gosec // k is a small positive fetch parameter
	results, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: x.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hit := Hit{Score: r.Score}
		if p := r.Payload; p != nil {
			if v, ok := p["text"]; ok {
				hit.Meta.Text = v.GetStringValue()
			}
			if v, ok := p["source"]; ok {
				hit.Meta.Source = v.GetStringValue()
			}
			if v, ok := p["chunk_id"]; ok {
				hit.Meta.ChunkID = int(v.GetIntegerValue())
			}
			if v, ok := p["start"]; ok {
				hit.Meta.Start = int(v.GetIntegerValue())
			}
			if v, ok := p["end"]; ok {
				hit.Meta.End = int(v.GetIntegerValue())
			}
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// Len returns the exact number of points in the collection.
func (x *QdrantIndex) Len(ctx context.Context) (int, error) {
	count, err := x.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: x.cfg.Collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count failed: %w", err)
	}
	return int(count), nil //nolint:gosec // collection sizes fit in int
}

// Ping checks Qdrant reachability via its native health check RPC.
func (x *QdrantIndex) Ping(ctx context.Context) error {
	if _, err := x.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (x *QdrantIndex) Close() error {
	return x.client.Close()
}
