package booking

import (
	"context"

	"ragdesk/models"
)

// TextGenerator turns a prompt into text. Each call is independent.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers the simulated confirmation side effects of a receipt.
type Notifier interface {
	NotifyBooking(ctx context.Context, receipt models.BookingReceipt) error
}

// ProgressReporter receives cosmetic progress updates.
type ProgressReporter interface {
	ReportProgress(fraction float64, label string)
}

// NopProgress discards progress.
type NopProgress struct{}

func (NopProgress) ReportProgress(float64, string) {}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(fraction float64, label string)

func (f ProgressFunc) ReportProgress(fraction float64, label string) { f(fraction, label) }

func progressOrNop(p ProgressReporter) ProgressReporter {
	if p == nil {
		return NopProgress{}
	}
	return p
}
