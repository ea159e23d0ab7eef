package retrieval

import (
	"context"
	"fmt"
	"sort"

	"ragdesk/models"

	"go.uber.org/zap"
)

// VectorSearcher is the part of the vector store the reranker needs.
// Distances are cosine distances in [0,2]; lower is closer.
type VectorSearcher interface {
	SimilaritySearchWithDistance(ctx context.Context, query string, k int) ([]models.RetrievalCandidate, error)
}

// Weights combine the component scores into the hybrid score.
type Weights struct {
	Vector    float64
	Lexical   float64
	Heuristic float64
}

// DefaultWeights returns 0.4 / 0.3 / 0.3.
func DefaultWeights() Weights {
	return Weights{Vector: 0.4, Lexical: 0.3, Heuristic: 0.3}
}

// DefaultOverfetch is how many extra candidates are pulled beyond final_k.
const DefaultOverfetch = 2

// Reranker improves raw vector search with lexical and heuristic signals.
type Reranker struct {
	store     VectorSearcher
	weights   Weights
	overfetch int
	logger    *zap.Logger
}

// Option customizes a Reranker.
type Option func(*Reranker)

// WithWeights overrides the hybrid weights. All-zero weights are ignored.
func WithWeights(w Weights) Option {
	return func(r *Reranker) {
		if w.Vector != 0 || w.Lexical != 0 || w.Heuristic != 0 {
			r.weights = w
		}
	}
}

// WithOverfetch sets the candidate window to final_k+n. n must be positive.
func WithOverfetch(n int) Option {
	return func(r *Reranker) {
		if n > 0 {
			r.overfetch = n
		}
	}
}

// NewReranker returns a Reranker over store.
func NewReranker(store VectorSearcher, logger *zap.Logger, opts ...Option) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reranker{
		store:     store,
		weights:   DefaultWeights(),
		overfetch: DefaultOverfetch,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search fetches final_k+overfetch candidates, reranks them and returns the best final_k.
// An empty index yields an empty, non-nil slice.
func (r *Reranker) Search(ctx context.Context, query string, finalK int) ([]models.RankedResult, error) {
	if finalK <= 0 {
		return []models.RankedResult{}, nil
	}
	candidateK := finalK + r.overfetch
	candidates, err := r.store.SimilaritySearchWithDistance(ctx, query, candidateK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	ranked := r.Rank(query, candidates)
	if len(ranked) > finalK {
		ranked = ranked[:finalK]
	}
	r.logger.Debug("retrieval: reranked",
		zap.Int("candidates", len(candidates)), zap.Int("returned", len(ranked)))
	return ranked, nil
}

// Rank scores candidates against query and orders them by hybrid score.
// Ties keep the vector-search order.
func (r *Reranker) Rank(query string, candidates []models.RetrievalCandidate) []models.RankedResult {
	results := make([]models.RankedResult, 0, len(candidates))
	if len(candidates) == 0 {
		return results
	}
	qTokens := Tokenize(query)
	for i, c := range candidates {
		docTokens := Tokenize(c.Content)
		scores := models.ScoreBreakdown{
			Vector:    1 - c.Distance,
			Lexical:   LexicalScore(qTokens, docTokens),
			Heuristic: HeuristicScore(qTokens, docTokens),
		}
		results = append(results, models.RankedResult{
			Content:     c.Content,
			HybridScore: r.weights.Vector*scores.Vector + r.weights.Lexical*scores.Lexical + r.weights.Heuristic*scores.Heuristic,
			Scores:      scores,
			VectorRank:  i,
			Metadata:    c.Metadata,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].HybridScore > results[j].HybridScore
	})
	return results
}
