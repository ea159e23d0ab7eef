// File: services/intelligence/geminiClient.go
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("gemini returned no content")

// GeminiClient owns the underlying genai client. Construct it once and share it.
type GeminiClient struct {
	client         *genai.Client
	model          *genai.GenerativeModel
	embeddingModel string
}

// NewGeminiClient connects to the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, model, embeddingModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{
		client:         client,
		model:          client.GenerativeModel(model),
		embeddingModel: embeddingModel,
	}, nil
}

// Complete sends a single stateless prompt.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// Embedder returns an embedder bound to the configured embedding model.
func (g *GeminiClient) Embedder(dimension int) *GeminiEmbedder {
	return &GeminiEmbedder{model: g.client.EmbeddingModel(g.embeddingModel), dimension: dimension}
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// GeminiEmbedder turns text into vectors.
type GeminiEmbedder struct {
	model     *genai.EmbeddingModel
	dimension int
}

// maxBatch is the Gemini batch embedding request limit.
const maxBatch = 100

// Embed embeds a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed error: %w", err)
	}
	if res.Embedding == nil {
		return nil, ErrEmptyResponse
	}
	return res.Embedding.Values, nil
}

// EmbedBatch embeds texts in order, splitting into API-sized batches.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := start + maxBatch
		if end > len(texts) {
			end = len(texts)
		}
		batch := e.model.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}
		res, err := e.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini batch embed error: %w", err)
		}
		if len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini batch embed: got %d embeddings for %d texts", len(res.Embeddings), end-start)
		}
		for _, emb := range res.Embeddings {
			out = append(out, emb.Values)
		}
	}
	return out, nil
}

// Dimension is the configured vector size.
func (e *GeminiEmbedder) Dimension() int { return e.dimension }
