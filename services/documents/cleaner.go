package documents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Cleaning limits.
const (
	DefaultCleanChunkSize = 30000
	maxCleanedLength      = 50000
	shortenInputLength    = 40000
)

// Cleaner asks the generator to tidy extracted text, one bounded chunk at a
// time. A chunk that fails keeps its original text.
type Cleaner struct {
	generator TextGenerator
	chunkSize int
	logger    *zap.Logger
}

func NewCleaner(generator TextGenerator, chunkSize int, logger *zap.Logger) *Cleaner {
	if chunkSize <= 0 {
		chunkSize = DefaultCleanChunkSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{generator: generator, chunkSize: chunkSize, logger: logger}
}

// Clean returns the cleaned text, chunks joined in their original order.
func (c *Cleaner) Clean(ctx context.Context, raw string, progress ProgressReporter) string {
	if progress == nil {
		progress = nopProgress{}
	}
	chunks := splitSentences(raw, c.chunkSize)
	cleaned := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		progress.ReportProgress(float64(i)/float64(len(chunks)), fmt.Sprintf("Cleaning text chunk %d/%d...", i+1, len(chunks)))
		cleaned = append(cleaned, c.cleanChunk(ctx, chunk))
	}
	progress.ReportProgress(1, "Cleaning complete")
	return strings.Join(cleaned, "\n\n")
}

func (c *Cleaner) cleanChunk(ctx context.Context, chunk string) string {
	out, err := c.generator.Complete(ctx, cleaningPrompt(chunk))
	if err != nil || strings.TrimSpace(out) == "" {
		c.logger.Warn("cleaner: chunk cleaning failed, keeping original text", zap.Error(err))
		return chunk
	}
	if len(out) > maxCleanedLength {
		short, err := c.generator.Complete(ctx, shortenPrompt(truncateUTF8(out, shortenInputLength)))
		if err != nil || strings.TrimSpace(short) == "" {
			c.logger.Warn("cleaner: shortening failed, keeping cleaned text", zap.Error(err))
			return out
		}
		return short
	}
	return out
}

// splitSentences groups ". "-separated sentences into chunks under limit bytes.
// A sentence longer than limit is cut on its own.
func splitSentences(text string, limit int) []string {
	var (
		chunks  []string
		current strings.Builder
	)
	push := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}
	for _, sentence := range strings.SplitAfter(text, ". ") {
		if current.Len()+len(sentence) > limit {
			push()
		}
		for len(sentence) > limit {
			cut := limit
			for cut > 0 && !isRuneStart(sentence[cut]) {
				cut--
			}
			current.WriteString(sentence[:cut])
			push()
			sentence = sentence[cut:]
		}
		current.WriteString(sentence)
	}
	push()
	return chunks
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func cleaningPrompt(chunk string) string {
	return `You are helping to build a knowledge base. Clean and filter the following text.

INSTRUCTIONS:
1. Remove irrelevant content such as headers, footers, page numbers, advertisements and navigation.
2. Fix formatting issues and normalize spacing.
3. Correct obvious typos and grammatical errors.
4. Remove duplicate or redundant information.
5. Keep all important factual information intact.
6. Format bullet points and lists properly.
7. Make the text read naturally for knowledge retrieval.

TEXT TO CLEAN:
` + chunk + `

CLEANED TEXT:`
}

func shortenPrompt(text string) string {
	return `The following text is too long. Provide a concise, well-organized version that keeps all the key information:

` + text + `

Concise version:`
}
