package vectorstore

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func newStores(t *testing.T) map[string]func(*wordEmbedder) Store {
	t.Helper()
	return map[string]func(*wordEmbedder) Store{
		"memory": func(e *wordEmbedder) Store { return NewMemoryStore(e) },
		"sqlite": func(e *wordEmbedder) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "vectors.db"), e)
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestEmptyIndexSkipsEmbedding(t *testing.T) {
	for name, open := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			e := &wordEmbedder{}
			s := open(e)
			got, err := s.SimilaritySearchWithDistance(context.Background(), "refund", 4)
			if err != nil {
				t.Fatal(err)
			}
			if got == nil || len(got) != 0 {
				t.Fatalf("got %#v, want empty slice", got)
			}
			if n := e.calls.Load(); n != 0 {
				t.Errorf("embedder called %d times on empty index", n)
			}
		})
	}
}

func TestSearchOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	for name, open := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(&wordEmbedder{})
			n, err := s.Upsert(ctx, sampleChunks())
			if err != nil || n != 3 {
				t.Fatalf("Upsert = %d, %v", n, err)
			}

			got, err := s.SimilaritySearchWithDistance(ctx, "battery warranty", 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 2 {
				t.Fatalf("len = %d, want 2", len(got))
			}
			if got[0].Metadata["source"] != "warranty.txt" {
				t.Errorf("top hit from %q, want warranty.txt", got[0].Metadata["source"])
			}
			if math.Abs(got[0].Distance) > 1e-6 {
				t.Errorf("top distance = %v, want 0", got[0].Distance)
			}
			if got[0].Metadata["lang"] != "en" {
				t.Errorf("chunk meta lost: %v", got[0].Metadata)
			}
			if got[1].Distance < got[0].Distance {
				t.Errorf("results not ascending: %v then %v", got[0].Distance, got[1].Distance)
			}
		})
	}
}

func TestUpsertIsIdempotentAndDeleteAllEmpties(t *testing.T) {
	ctx := context.Background()
	for name, open := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(&wordEmbedder{})
			for i := 0; i < 2; i++ {
				if _, err := s.Upsert(ctx, sampleChunks()); err != nil {
					t.Fatal(err)
				}
			}
			st, err := s.Stats(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if st.VectorCount != 3 || st.Dimension != len(vocabulary) {
				t.Errorf("Stats = %+v, want 3 vectors of dim %d", st, len(vocabulary))
			}

			if err := s.DeleteAll(ctx); err != nil {
				t.Fatal(err)
			}
			st, _ = s.Stats(ctx)
			if st.VectorCount != 0 {
				t.Errorf("VectorCount after DeleteAll = %d", st.VectorCount)
			}
			got, _ := s.SimilaritySearchWithDistance(ctx, "refund", 3)
			if len(got) != 0 {
				t.Errorf("search after DeleteAll returned %d hits", len(got))
			}
		})
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.db")
	s, err := NewSQLiteStore(path, &wordEmbedder{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(ctx, sampleChunks()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(path, &wordEmbedder{})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.SimilaritySearchWithDistance(ctx, "shipping", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Content != "Shipping takes two days." {
		t.Fatalf("got %+v", got)
	}
}

func TestVectorBlobRoundTrip(t *testing.T) {
	v := []float32{0, -1.5, 3.25, float32(math.Pi)}
	got := decodeVector(encodeVector(v))
	for i := range v {
		if got[i] != v[i] {
			t.Fatalf("decode[%d] = %v, want %v", i, got[i], v[i])
		}
	}
}

func TestCosineDistanceDegenerate(t *testing.T) {
	if d := cosineDistance([]float32{0, 0}, []float32{1, 0}); d != 1 {
		t.Errorf("zero vector distance = %v, want 1", d)
	}
	if d := cosineDistance([]float32{1}, []float32{1, 0}); d != 1 {
		t.Errorf("mismatched distance = %v, want 1", d)
	}
	if d := cosineDistance([]float32{1, 0}, []float32{-1, 0}); math.Abs(d-2) > 1e-9 {
		t.Errorf("opposite distance = %v, want 2", d)
	}
}
