package retrieval

const minHeuristicLen = 20.0

// HeuristicScore rewards shared bigrams twice as much as shared tokens, damped
// for candidates shorter than minHeuristicLen tokens.
func HeuristicScore(queryTokens, docTokens []string) float64 {
	qUni := uniqueTokens(queryTokens)
	qBi := uniqueTokens(bigrams(queryTokens))
	maxScore := 2*float64(len(qBi)) + float64(len(qUni))
	if maxScore == 0 || len(docTokens) == 0 {
		return 0
	}

	docUni := make(map[string]struct{}, len(docTokens))
	for _, t := range docTokens {
		docUni[t] = struct{}{}
	}
	docBi := make(map[string]struct{}, len(docTokens))
	for _, b := range bigrams(docTokens) {
		docBi[b] = struct{}{}
	}

	var hits float64
	for _, b := range qBi {
		if _, ok := docBi[b]; ok {
			hits += 2
		}
	}
	for _, t := range qUni {
		if _, ok := docUni[t]; ok {
			hits++
		}
	}

	lengthFactor := float64(len(docTokens)) / minHeuristicLen
	if lengthFactor > 1 {
		lengthFactor = 1
	}
	return hits / maxScore * lengthFactor
}
