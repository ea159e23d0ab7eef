package documents

import (
	"context"

	"ragdesk/models"
)

// TextGenerator is used to clean extracted text.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProgressReporter receives ingestion progress.
type ProgressReporter interface {
	ReportProgress(fraction float64, label string)
}

type nopProgress struct{}

func (nopProgress) ReportProgress(float64, string) {}

// VectorIndex is the write side of the vector store.
type VectorIndex interface {
	Upsert(ctx context.Context, chunks []models.DocumentChunk) (int, error)
	DeleteAll(ctx context.Context) error
	Stats(ctx context.Context) (models.IndexStats, error)
}
