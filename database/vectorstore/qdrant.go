package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ragdesk/models"
)

// QdrantConfig locates a Qdrant collection.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// QdrantStore talks to Qdrant over its REST API. The collection is created
// with cosine distance on first write.
type QdrantStore struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	embedder   Embedder

	mu    sync.Mutex
	ready bool
}

func NewQdrantStore(cfg QdrantConfig, embedder Embedder) *QdrantStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantStore{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
		embedder:   embedder,
	}
}

func (s *QdrantStore) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	exists, _, err := s.pointsCount(ctx)
	if err != nil {
		return err
	}
	if !exists {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     s.embedder.Dimension(),
				"distance": "Cosine",
			},
		}
		if err := s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	s.ready = true
	return nil
}

// pointsCount reports whether the collection exists and how many points it holds.
func (s *QdrantStore) pointsCount(ctx context.Context) (bool, int, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, &resp)
	if err != nil {
		if se, ok := err.(*qdrantStatusError); ok && se.status == http.StatusNotFound {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, resp.Result.PointsCount, nil
}

func (s *QdrantStore) SimilaritySearchWithDistance(ctx context.Context, query string, k int) ([]models.RetrievalCandidate, error) {
	if k <= 0 {
		return []models.RetrievalCandidate{}, nil
	}
	exists, count, err := s.pointsCount(ctx)
	if err != nil {
		return nil, err
	}
	if !exists || count == 0 {
		return []models.RetrievalCandidate{}, nil
	}

	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	req := map[string]any{
		"vector":       qv,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64      `json:"score"`
			Payload qdrantRecord `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	out := make([]models.RetrievalCandidate, 0, len(resp.Result))
	for _, r := range resp.Result {
		c := models.DocumentChunk{Content: r.Payload.Text, Source: r.Payload.Source, Index: r.Payload.Index, Meta: r.Payload.Meta}
		out = append(out, candidate(c, 1-r.Score))
	}
	return out, nil
}

type qdrantRecord struct {
	Source string            `json:"source"`
	Index  int               `json:"index"`
	Text   string            `json:"text"`
	Meta   map[string]string `json:"meta,omitempty"`
}

func (s *QdrantStore) Upsert(ctx context.Context, chunks []models.DocumentChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return 0, err
	}
	vectors, err := embedChunks(ctx, s.embedder, chunks)
	if err != nil {
		return 0, err
	}

	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		points[i] = map[string]any{
			// Qdrant only accepts integer or UUID point ids.
			"id":     uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID(c))).String(),
			"vector": vectors[i],
			"payload": qdrantRecord{
				Source: c.Source,
				Index:  c.Index,
				Text:   c.Content,
				Meta:   c.Meta,
			},
		}
	}
	body := map[string]any{"points": points}
	if err := s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil); err != nil {
		return 0, fmt.Errorf("upsert points: %w", err)
	}
	return len(chunks), nil
}

// DeleteAll drops the collection; the next write recreates it.
func (s *QdrantStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.do(ctx, http.MethodDelete, s.collectionURL(""), nil, nil)
	if se, ok := err.(*qdrantStatusError); ok && se.status == http.StatusNotFound {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	s.ready = false
	return nil
}

func (s *QdrantStore) Stats(ctx context.Context) (models.IndexStats, error) {
	_, count, err := s.pointsCount(ctx)
	if err != nil {
		return models.IndexStats{}, err
	}
	return models.IndexStats{VectorCount: count, Dimension: s.embedder.Dimension()}, nil
}

func (s *QdrantStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

type qdrantStatusError struct {
	method string
	url    string
	status int
	body   string
}

func (e *qdrantStatusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %d %s", e.method, e.url, e.status, e.body)
}

func (s *QdrantStore) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &qdrantStatusError{method: method, url: url, status: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
