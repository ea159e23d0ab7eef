package booking

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"ragdesk/models"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var finalizeStages = []string{
	"Validating booking details...",
	"Creating booking record...",
	"Sending notifications...",
	"Finalizing...",
}

// Finalizer turns a completed form into a receipt. Progress and notification
// are best effort; the receipt does not depend on either.
type Finalizer struct {
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
	stepDelay time.Duration

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// FinalizerOption customizes a Finalizer.
type FinalizerOption func(*Finalizer)

// WithFinalizerClock sets the clock used for reference ids and timestamps.
func WithFinalizerClock(now func() time.Time) FinalizerOption {
	return func(f *Finalizer) { f.now = now }
}

// WithStepDelay pauses between progress stages so interactive clients can render them.
func WithStepDelay(d time.Duration) FinalizerOption {
	return func(f *Finalizer) { f.stepDelay = d }
}

// NewFinalizer returns a Finalizer. notifier may be nil.
func NewFinalizer(notifier Notifier, logger *zap.Logger, opts ...FinalizerOption) *Finalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Finalizer{
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Finalize builds the receipt for a completed booking.
func (f *Finalizer) Finalize(ctx context.Context, kind models.BookingKind, fields []models.FieldValue, progress ProgressReporter) models.BookingReceipt {
	progress = progressOrNop(progress)
	now := f.now()
	receipt := models.BookingReceipt{
		Kind:      kind,
		Fields:    append([]models.FieldValue(nil), fields...),
		CreatedAt: now,
	}

	for i, label := range finalizeStages {
		switch i {
		case 1:
			receipt.ReferenceID = f.newReference(kind, now)
		case 2:
			if f.notifier != nil {
				if err := f.notifier.NotifyBooking(ctx, receipt); err != nil {
					f.logger.Warn("finalizer: notification failed",
						zap.String("reference", receipt.ReferenceID), zap.Error(err))
				}
			}
		case 3:
			receipt.Summary = renderReceipt(receipt)
		}
		progress.ReportProgress(float64(i+1)/float64(len(finalizeStages)), label)
		f.pause(ctx)
	}

	f.logger.Info("finalizer: booking confirmed",
		zap.String("reference", receipt.ReferenceID), zap.String("kind", string(kind)))
	return receipt
}

func (f *Finalizer) newReference(kind models.BookingKind, now time.Time) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return kind.ReferencePrefix() + ulid.MustNew(ulid.Timestamp(now), f.entropy).String()
}

func (f *Finalizer) pause(ctx context.Context) {
	if f.stepDelay <= 0 {
		return
	}
	t := time.NewTimer(f.stepDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func renderReceipt(r models.BookingReceipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 **%s Booked Successfully!**\n\n", r.Kind.Label())
	fmt.Fprintf(&b, "**Reference:** %s\n", r.ReferenceID)
	fmt.Fprintf(&b, "**Name:** %s\n", r.Field(models.FieldName))
	fmt.Fprintf(&b, "**Phone:** %s\n", r.Field(models.FieldPhone))
	fmt.Fprintf(&b, "**Email:** %s\n", r.Field(models.FieldEmail))
	if r.Kind == models.BookingAppointment {
		fmt.Fprintf(&b, "**Date:** %s\n", r.Field(models.FieldDate))
		fmt.Fprintf(&b, "**Time:** %s\n", r.Field(models.FieldTime))
		fmt.Fprintf(&b, "**Purpose:** %s\n", r.Field(models.FieldPurpose))
		b.WriteString("\n📧 Calendar invite sent!\n⏰ Reminder set for 24 hours before.")
	} else {
		b.WriteString("\n📧 Confirmation email sent!\n📱 You'll receive a call within 24-48 hours.")
	}
	return b.String()
}
