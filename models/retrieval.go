package models

// RetrievalCandidate is a raw vector-search hit. Distance is cosine distance,
// lower is closer.
type RetrievalCandidate struct {
	Content  string            `json:"content"`
	Distance float64           `json:"distance"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScoreBreakdown holds the component scores of a reranked chunk.
type ScoreBreakdown struct {
	Vector    float64 `json:"vector"`
	Lexical   float64 `json:"lexical"`
	Heuristic float64 `json:"heuristic"`
}

// RankedResult is a reranked chunk.
type RankedResult struct {
	Content     string            `json:"content"`
	HybridScore float64           `json:"hybridScore"`
	Scores      ScoreBreakdown    `json:"scores"`
	VectorRank  int               `json:"vectorRank"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// IndexStats describes the vector index.
type IndexStats struct {
	VectorCount int `json:"vectorCount"`
	Dimension   int `json:"dimension"`
}
