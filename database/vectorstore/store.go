// Package vectorstore holds the vector index backends. Every backend embeds
// text itself, so callers deal only in strings.
package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"

	"ragdesk/models"
)

// Embedder turns text into vectors of a fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Store is the vector index used for retrieval and ingestion.
// Searching an empty index returns an empty slice and no error.
type Store interface {
	SimilaritySearchWithDistance(ctx context.Context, query string, k int) ([]models.RetrievalCandidate, error)
	Upsert(ctx context.Context, chunks []models.DocumentChunk) (int, error)
	DeleteAll(ctx context.Context) error
	Stats(ctx context.Context) (models.IndexStats, error)
	Close() error
}

// chunkID is stable for a given source, position and content, so re-ingesting
// a file overwrites its previous vectors.
func chunkID(c models.DocumentChunk) string {
	h := sha256.New()
	h.Write([]byte(c.Source))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(c.Index)))
	h.Write([]byte{0})
	h.Write([]byte(c.Content))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func embedChunks(ctx context.Context, embedder Embedder, chunks []models.DocumentChunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	return vectors, nil
}

// cosineDistance is 1 - cosine similarity, in [0,2]. Zero or mismatched
// vectors score 1.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

type scoredChunk struct {
	chunk    models.DocumentChunk
	distance float64
}

func topK(scored []scoredChunk, k int) []models.RetrievalCandidate {
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].distance < scored[j].distance })
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	out := make([]models.RetrievalCandidate, len(scored))
	for i, s := range scored {
		out[i] = candidate(s.chunk, s.distance)
	}
	return out
}

func candidate(c models.DocumentChunk, distance float64) models.RetrievalCandidate {
	meta := make(map[string]string, len(c.Meta)+2)
	for k, v := range c.Meta {
		meta[k] = v
	}
	meta["source"] = c.Source
	meta["chunk"] = strconv.Itoa(c.Index)
	return models.RetrievalCandidate{Content: c.Content, Distance: distance, Metadata: meta}
}
