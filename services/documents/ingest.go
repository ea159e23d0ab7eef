package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ragdesk/models"

	"go.uber.org/zap"
)

// ErrEmptyDocument is returned when extraction yields no text.
var ErrEmptyDocument = errors.New("document contains no extractable text")

// Ingestor runs uploads through extraction, optional cleaning, splitting and indexing.
type Ingestor struct {
	extractor    *Extractor
	cleaner      *Cleaner
	splitter     *Splitter
	index        VectorIndex
	rawDir       string
	processedDir string
	logger       *zap.Logger
}

// NewIngestor lays out raw/ and processed/ under dataDir. cleaner may be nil.
func NewIngestor(dataDir string, extractor *Extractor, cleaner *Cleaner, splitter *Splitter, index VectorIndex, logger *zap.Logger) (*Ingestor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ing := &Ingestor{
		extractor:    extractor,
		cleaner:      cleaner,
		splitter:     splitter,
		index:        index,
		rawDir:       filepath.Join(dataDir, "raw"),
		processedDir: filepath.Join(dataDir, "processed"),
		logger:       logger,
	}
	for _, dir := range []string{ing.rawDir, ing.processedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return ing, nil
}

// RawDir is where uploads are stored.
func (i *Ingestor) RawDir() string { return i.rawDir }

// SaveUpload copies r into the raw directory and returns the stored path.
func (i *Ingestor) SaveUpload(name string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	dst := filepath.Join(i.rawDir, base)
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	return dst, f.Close()
}

// IngestFile indexes the file at path.
func (i *Ingestor) IngestFile(ctx context.Context, path string, clean bool, progress ProgressReporter) (models.IngestResult, error) {
	if progress == nil {
		progress = nopProgress{}
	}
	name := filepath.Base(path)
	result := models.IngestResult{FileName: name, RawPath: path}

	progress.ReportProgress(0.05, "Extracting text...")
	text, err := i.extractor.ExtractText(path, filepath.Ext(path))
	if err != nil {
		return result, err
	}
	if strings.TrimSpace(text) == "" {
		return result, ErrEmptyDocument
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	processedName := stem + "_processed.txt"
	if clean && i.cleaner != nil {
		text = i.cleaner.Clean(ctx, text, scaledProgress{progress, 0.1, 0.7})
		processedName = stem + "_cleaned.txt"
		result.Cleaned = true
	}
	result.Characters = len([]rune(text))
	result.ProcessedPath = filepath.Join(i.processedDir, processedName)
	if err := os.WriteFile(result.ProcessedPath, []byte(text), 0o644); err != nil {
		return result, fmt.Errorf("write processed text: %w", err)
	}

	progress.ReportProgress(0.75, "Splitting into chunks...")
	pieces := i.splitter.Split(text)
	chunks := make([]models.DocumentChunk, len(pieces))
	for n, p := range pieces {
		chunks[n] = models.DocumentChunk{Content: p, Source: name, Index: n}
	}

	progress.ReportProgress(0.85, fmt.Sprintf("Indexing %d chunks...", len(chunks)))
	count, err := i.index.Upsert(ctx, chunks)
	if err != nil {
		return result, fmt.Errorf("index chunks: %w", err)
	}
	result.ChunksIndexed = count
	progress.ReportProgress(1, "Done")

	i.logger.Info("ingest: document indexed",
		zap.String("file", name), zap.Int("chunks", count), zap.Bool("cleaned", result.Cleaned))
	return result, nil
}

// ClearAll empties the index and both document directories.
func (i *Ingestor) ClearAll(ctx context.Context) error {
	if err := i.index.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	for _, dir := range []string{i.rawDir, i.processedDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	i.logger.Info("ingest: library cleared")
	return nil
}

// Stats counts stored files and reports index size.
func (i *Ingestor) Stats(ctx context.Context) (models.LibraryStats, error) {
	var stats models.LibraryStats
	var err error
	if stats.RawFiles, err = countFiles(i.rawDir); err != nil {
		return stats, err
	}
	if stats.ProcessedFiles, err = countFiles(i.processedDir); err != nil {
		return stats, err
	}
	if stats.Index, err = i.index.Stats(ctx); err != nil {
		return stats, fmt.Errorf("index stats: %w", err)
	}
	return stats, nil
}

func countFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n, nil
}

// scaledProgress maps a sub-task's 0..1 progress into [from, to] of the parent.
type scaledProgress struct {
	parent   ProgressReporter
	from, to float64
}

func (s scaledProgress) ReportProgress(fraction float64, label string) {
	s.parent.ReportProgress(s.from+(s.to-s.from)*fraction, label)
}
