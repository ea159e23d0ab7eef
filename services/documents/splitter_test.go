package documents

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(1000, 100)
	got := s.Split("  hello world  ")
	if len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("Split = %q", got)
	}
	if got := s.Split("   "); got != nil {
		t.Fatalf("Split blank = %q", got)
	}
}

func TestSplitRespectsSizeAndParagraphs(t *testing.T) {
	para := strings.Repeat("word ", 30) // 150 chars
	text := strings.Join([]string{para, para, para, para}, "\n\n")
	s := NewSplitter(200, 20)
	chunks := s.Split(text)
	if len(chunks) < 4 {
		t.Fatalf("expected paragraph-level chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 200 {
			t.Errorf("chunk exceeds size: %d", utf8.RuneCountInString(c))
		}
	}
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	var words []string
	for i := 0; i < 400; i++ {
		words = append(words, "w"+strings.Repeat("x", i%5))
	}
	text := strings.Join(words, " ")
	s := NewSplitter(100, 30)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		first := strings.Fields(chunks[i])[0]
		if prev[len(prev)-1] != first && !strings.Contains(chunks[i-1], first) {
			t.Errorf("chunk %d does not overlap previous", i)
		}
	}
}

func TestSplitHardSplitsUnbrokenText(t *testing.T) {
	text := strings.Repeat("é", 250)
	chunks := NewSplitter(100, 0).Split(text)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Error("hard split lost characters")
	}
	for _, c := range chunks {
		if !utf8.ValidString(c) {
			t.Error("hard split broke a rune")
		}
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.chunkSize != DefaultChunkSize || s.overlap != DefaultChunkOverlap {
		t.Errorf("defaults = %d/%d", s.chunkSize, s.overlap)
	}
	if s := NewSplitter(50, 80); s.overlap != 0 {
		t.Errorf("overlap >= size should be dropped, got %d", s.overlap)
	}
}
