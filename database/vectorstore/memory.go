package vectorstore

import (
	"context"
	"sync"

	"ragdesk/models"
)

type memoryEntry struct {
	chunk  models.DocumentChunk
	vector []float32
}

// MemoryStore keeps vectors in process, in insertion order.
type MemoryStore struct {
	embedder Embedder

	mu      sync.RWMutex
	order   []string
	entries map[string]memoryEntry
}

func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{embedder: embedder, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) SimilaritySearchWithDistance(ctx context.Context, query string, k int) ([]models.RetrievalCandidate, error) {
	s.mu.RLock()
	empty := len(s.order) == 0
	s.mu.RUnlock()
	if empty || k <= 0 {
		return []models.RetrievalCandidate{}, nil
	}

	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	scored := make([]scoredChunk, 0, len(s.order))
	for _, id := range s.order {
		e := s.entries[id]
		scored = append(scored, scoredChunk{chunk: e.chunk, distance: cosineDistance(qv, e.vector)})
	}
	return topK(scored, k), nil
}

func (s *MemoryStore) Upsert(ctx context.Context, chunks []models.DocumentChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	vectors, err := embedChunks(ctx, s.embedder, chunks)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		id := chunkID(c)
		if _, exists := s.entries[id]; !exists {
			s.order = append(s.order, id)
		}
		s.entries[id] = memoryEntry{chunk: c, vector: vectors[i]}
	}
	return len(chunks), nil
}

func (s *MemoryStore) DeleteAll(context.Context) error {
	s.mu.Lock()
	s.order = nil
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Stats(context.Context) (models.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.IndexStats{VectorCount: len(s.order), Dimension: s.embedder.Dimension()}, nil
}

func (s *MemoryStore) Close() error { return nil }
