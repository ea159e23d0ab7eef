package documents

import (
	"strings"
	"unicode/utf8"
)

// Default splitter settings.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts text into overlapping chunks, preferring paragraph, line,
// sentence and word boundaries in that order.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter returns a Splitter. Non-positive sizes fall back to the defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
		if chunkSize > DefaultChunkOverlap {
			overlap = DefaultChunkOverlap
		}
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap, separators: defaultSeparators}
}

// Split returns the chunks of text. Each chunk is at most chunkSize runes.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.merge(s.pieces(text, s.separators))
}

func (s *Splitter) pieces(text string, seps []string) []string {
	if runeLen(text) <= s.chunkSize {
		return []string{text}
	}
	sep, rest := "", []string(nil)
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep, rest = candidate, seps[i+1:]
			break
		}
	}
	if sep == "" {
		return hardSplit(text, s.chunkSize)
	}

	parts := strings.SplitAfter(text, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if runeLen(p) <= s.chunkSize {
			out = append(out, p)
			continue
		}
		out = append(out, s.pieces(p, rest)...)
	}
	return out
}

func (s *Splitter) merge(pieces []string) []string {
	var (
		chunks []string
		window []string
		size   int
	)
	flush := func() {
		if c := strings.TrimSpace(strings.Join(window, "")); c != "" {
			chunks = append(chunks, c)
		}
	}
	for _, p := range pieces {
		n := runeLen(p)
		if size+n > s.chunkSize && len(window) > 0 {
			flush()
			for len(window) > 0 && (size > s.overlap || size+n > s.chunkSize) {
				size -= runeLen(window[0])
				window = window[1:]
			}
		}
		window = append(window, p)
		size += n
	}
	if len(window) > 0 {
		flush()
	}
	return chunks
}

func hardSplit(text string, size int) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
