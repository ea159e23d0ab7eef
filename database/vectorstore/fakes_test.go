package vectorstore

import (
	"context"
	"strings"
	"sync/atomic"

	"ragdesk/models"
)

var vocabulary = []string{"refund", "shipping", "warranty", "battery"}

// wordEmbedder counts vocabulary words, giving predictable cosine geometry.
type wordEmbedder struct {
	calls atomic.Int32
}

func (e *wordEmbedder) vector(text string) []float32 {
	v := make([]float32, len(vocabulary))
	lower := strings.ToLower(text)
	for i, w := range vocabulary {
		v[i] = float32(strings.Count(lower, w))
	}
	return v
}

func (e *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	return e.vector(text), nil
}

func (e *wordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *wordEmbedder) Dimension() int { return len(vocabulary) }

func sampleChunks() []models.DocumentChunk {
	return []models.DocumentChunk{
		{Content: "Refund requests are processed within five days. Refund to card.", Source: "policy.txt", Index: 0},
		{Content: "Shipping takes two days.", Source: "policy.txt", Index: 1},
		{Content: "The warranty covers the battery for one year.", Source: "warranty.txt", Index: 0, Meta: map[string]string{"lang": "en"}},
	}
}
