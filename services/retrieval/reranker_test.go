package retrieval

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"ragdesk/models"
)

type fakeSearcher struct {
	candidates []models.RetrievalCandidate
	err        error
	gotK       int
}

func (f *fakeSearcher) SimilaritySearchWithDistance(_ context.Context, _ string, k int) ([]models.RetrievalCandidate, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.candidates) {
		return f.candidates[:k], nil
	}
	return f.candidates, nil
}

func TestSearchEmptyIndex(t *testing.T) {
	r := NewReranker(&fakeSearcher{}, nil)
	got, err := r.Search(context.Background(), "refund policy", 5)
	if err != nil {
		t.Fatalf("Search on empty index: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("Search = %#v, want empty slice", got)
	}
}

func TestSearchRequestsOversizedWindow(t *testing.T) {
	s := &fakeSearcher{}
	r := NewReranker(s, nil)
	if _, err := r.Search(context.Background(), "q", 3); err != nil {
		t.Fatal(err)
	}
	if s.gotK != 5 {
		t.Errorf("candidate_k = %d, want 5", s.gotK)
	}
	r = NewReranker(s, nil, WithOverfetch(7))
	r.Search(context.Background(), "q", 3)
	if s.gotK != 10 {
		t.Errorf("candidate_k = %d, want 10", s.gotK)
	}
}

func TestSearchPropagatesStoreError(t *testing.T) {
	r := NewReranker(&fakeSearcher{err: errors.New("index offline")}, nil)
	if _, err := r.Search(context.Background(), "q", 3); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearchTruncatesAndReorders(t *testing.T) {
	s := &fakeSearcher{candidates: []models.RetrievalCandidate{
		{Content: "Shipping times vary by region and carrier.", Distance: 0.30},
		{Content: "Our refund policy allows returns within 30 days. The refund policy covers all items.", Distance: 0.35},
		{Content: "Contact support for account issues.", Distance: 0.40},
		{Content: "Gift cards are not refundable.", Distance: 0.45},
	}}
	r := NewReranker(s, nil)
	got, err := r.Search(context.Background(), "refund policy", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].VectorRank != 1 {
		t.Errorf("lexical match not promoted: %+v", got[0])
	}
	if got[0].HybridScore < got[1].HybridScore {
		t.Error("results not sorted descending")
	}
}

func TestRankHybridFormula(t *testing.T) {
	r := NewReranker(nil, nil)
	c := models.RetrievalCandidate{Content: "refund policy details", Distance: 0.2}
	got := r.Rank("refund policy", []models.RetrievalCandidate{c})[0]
	want := 0.4*got.Scores.Vector + 0.3*got.Scores.Lexical + 0.3*got.Scores.Heuristic
	if math.Abs(got.HybridScore-want) > 1e-12 {
		t.Errorf("hybrid = %v, want %v", got.HybridScore, want)
	}
	if math.Abs(got.Scores.Vector-0.8) > 1e-12 {
		t.Errorf("vector score = %v, want 0.8", got.Scores.Vector)
	}
}

func TestRankStableOnTies(t *testing.T) {
	r := NewReranker(nil, nil)
	cands := []models.RetrievalCandidate{
		{Content: "alpha", Distance: 0.5},
		{Content: "beta", Distance: 0.5},
		{Content: "gamma", Distance: 0.5},
	}
	for i := 0; i < 5; i++ {
		got := r.Rank("unrelated query", cands)
		for j, res := range got {
			if res.VectorRank != j {
				t.Fatalf("tie order changed: %+v", got)
			}
		}
	}
}

func TestRankDeterministic(t *testing.T) {
	r := NewReranker(nil, nil)
	cands := []models.RetrievalCandidate{
		{Content: "refund within thirty days", Distance: 0.4},
		{Content: "refund policy for digital goods", Distance: 0.5},
		{Content: "store hours", Distance: 0.1},
	}
	first := r.Rank("refund policy", cands)
	for i := 0; i < 10; i++ {
		if !reflect.DeepEqual(first, r.Rank("refund policy", cands)) {
			t.Fatal("ranking is not deterministic")
		}
	}
}

func TestCustomWeights(t *testing.T) {
	r := NewReranker(nil, nil, WithWeights(Weights{Vector: 1}))
	got := r.Rank("refund", []models.RetrievalCandidate{
		{Content: "unrelated", Distance: 0.1},
		{Content: "refund refund refund", Distance: 0.3},
	})
	if got[0].Content != "unrelated" {
		t.Errorf("vector-only weights should keep vector order: %+v", got)
	}
	if NewReranker(nil, nil, WithWeights(Weights{})).weights != DefaultWeights() {
		t.Error("zero weights should fall back to defaults")
	}
}

func TestLexicalScore(t *testing.T) {
	q := Tokenize("refund policy")
	if s := LexicalScore(q, nil); s != 0 {
		t.Errorf("empty doc = %v", s)
	}
	one := LexicalScore(q, Tokenize("refund"))
	both := LexicalScore(q, Tokenize("refund policy"))
	repeated := LexicalScore(q, Tokenize("refund refund refund refund policy"))
	if !(one < both) {
		t.Errorf("matching more terms should score higher: %v vs %v", one, both)
	}
	if repeated <= 0 || repeated > 1 || both > 1 {
		t.Errorf("scores out of range: %v %v", both, repeated)
	}

	// Saturation: each extra occurrence adds less than the previous one.
	tf := func(n int) float64 {
		doc := make([]string, n)
		for i := range doc {
			doc[i] = "refund"
		}
		return LexicalScore([]string{"refund"}, doc)
	}
	if d1, d2 := tf(2)-tf(1), tf(3)-tf(2); !(d2 < d1) {
		t.Errorf("no diminishing returns: %v, %v", d1, d2)
	}
}

func TestHeuristicScore(t *testing.T) {
	q := Tokenize("refund policy")
	long := Tokenize("the refund policy is described here in detail with many more words to exceed twenty tokens in total length okay")
	shuffled := Tokenize("the policy on refund is described here in detail with many more words to exceed twenty tokens in total length okay")
	if a, b := HeuristicScore(q, long), HeuristicScore(q, shuffled); !(a > b) {
		t.Errorf("bigram match should beat token-only match: %v vs %v", a, b)
	}
	if s := HeuristicScore(q, long); math.Abs(s-1) > 1e-12 {
		t.Errorf("full match on long doc = %v, want 1", s)
	}
	short := HeuristicScore(q, Tokenize("refund policy"))
	if math.Abs(short-0.1) > 1e-12 {
		t.Errorf("two-token doc should be damped to 0.1, got %v", short)
	}
	if s := HeuristicScore(nil, long); s != 0 {
		t.Errorf("empty query = %v", s)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("What's the Refund-Policy for 2024?")
	want := []string{"what's", "the", "refund", "policy", "for", "2024"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}
