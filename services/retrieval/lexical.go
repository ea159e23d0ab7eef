package retrieval

const (
	bm25K1        = 1.5
	bm25B         = 0.75
	assumedAvgLen = 100.0
)

// LexicalScore is a BM25-style term-frequency score in [0,1]. There is no
// corpus-wide IDF: each candidate is scored on its own.
func LexicalScore(queryTokens, docTokens []string) float64 {
	terms := uniqueTokens(queryTokens)
	if len(terms) == 0 || len(docTokens) == 0 {
		return 0
	}
	tf := make(map[string]int, len(docTokens))
	for _, t := range docTokens {
		tf[t]++
	}
	norm := 1 - bm25B + bm25B*float64(len(docTokens))/assumedAvgLen

	var sum float64
	for _, term := range terms {
		f := float64(tf[term])
		if f == 0 {
			continue
		}
		sum += f * (bm25K1 + 1) / (f + bm25K1*norm)
	}
	score := sum / (float64(len(terms)) * (bm25K1 + 1))
	if score > 1 {
		score = 1
	}
	return score
}
