package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ragdesk/models"

	"go.uber.org/zap"
)

var cancelCommands = map[string]struct{}{
	"cancel": {}, "cancel booking": {}, "stop": {}, "quit": {}, "exit": {},
	"abort": {}, "never mind": {}, "nevermind": {},
}

// Outcome is the result of offering a message to the dialogue engine.
// Handled is false when the message is not a booking concern; Notice may still
// be set then and belongs in front of whatever reply the caller produces.
type Outcome struct {
	Text     string
	Notice   string
	Handled  bool
	Complete bool
	Receipt  *models.BookingReceipt
}

// DialogueEngine drives the booking form. It keeps no per-session state of its
// own; everything is read from and written to the session's ActiveBooking.
type DialogueEngine struct {
	classifier  *IntentClassifier
	parser      *Parser
	finalizer   *Finalizer
	logger      *zap.Logger
	now         func() time.Time
	idleTimeout time.Duration
}

// EngineOption customizes a DialogueEngine.
type EngineOption func(*DialogueEngine)

// WithClock sets the reference clock used for dates and expiry.
func WithClock(now func() time.Time) EngineOption {
	return func(e *DialogueEngine) { e.now = now }
}

// WithIdleTimeout discards bookings untouched for longer than d. Zero disables expiry.
func WithIdleTimeout(d time.Duration) EngineOption {
	return func(e *DialogueEngine) { e.idleTimeout = d }
}

// NewDialogueEngine wires the engine from its parts.
func NewDialogueEngine(classifier *IntentClassifier, parser *Parser, finalizer *Finalizer, logger *zap.Logger, opts ...EngineOption) *DialogueEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &DialogueEngine{
		classifier: classifier,
		parser:     parser,
		finalizer:  finalizer,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessMessage advances the booking state of sess by one user message.
func (e *DialogueEngine) ProcessMessage(ctx context.Context, sess *models.ConversationSession, message string, progress ProgressReporter) Outcome {
	now := e.now()
	notice := ""
	if b := sess.ActiveBooking; b != nil && e.idleTimeout > 0 && now.Sub(b.UpdatedAt) > e.idleTimeout {
		e.logger.Info("dialogue: discarding stale booking",
			zap.String("session", sess.ID), zap.String("kind", string(b.Kind)), zap.Int("step", b.FieldIndex))
		sess.ActiveBooking = nil
		notice = expiredNotice + "\n\n"
	}

	b := sess.ActiveBooking
	if b == nil {
		kind, ok := e.classifier.Classify(message)
		if !ok {
			return Outcome{Notice: strings.TrimSpace(notice)}
		}
		sess.ActiveBooking = &models.ActiveBooking{
			Kind:            kind,
			CollectedFields: []models.FieldValue{},
			StartedAt:       now,
			UpdatedAt:       now,
		}
		e.logger.Debug("dialogue: booking started", zap.String("session", sess.ID), zap.String("kind", string(kind)))
		return Outcome{Handled: true, Text: notice + startPrompt(kind)}
	}

	if isCancelCommand(message) {
		sess.ActiveBooking = nil
		e.logger.Debug("dialogue: booking cancelled", zap.String("session", sess.ID))
		return Outcome{Handled: true, Text: cancelMessage}
	}

	field := b.CurrentField()
	if field != "" {
		value, err := e.validateField(ctx, field, message, now)
		if err != nil {
			return Outcome{Handled: true, Text: e.errorReply(sess.ID, field, err)}
		}
		b.CollectedFields = append(b.CollectedFields, models.FieldValue{Name: field, Value: value})
		b.FieldIndex++
		b.UpdatedAt = now
		if !b.Done() {
			return Outcome{Handled: true, Text: acknowledge(field, value, b.CurrentField())}
		}
	}

	receipt := e.finalizer.Finalize(ctx, b.Kind, b.CollectedFields, progress)
	sess.ActiveBooking = nil
	return Outcome{Handled: true, Complete: true, Text: receipt.Summary, Receipt: &receipt}
}

func (e *DialogueEngine) validateField(ctx context.Context, field, raw string, now time.Time) (string, error) {
	switch field {
	case models.FieldName:
		return ValidateName(raw)
	case models.FieldPhone:
		return ValidatePhone(raw)
	case models.FieldEmail:
		return ValidateEmail(raw)
	case models.FieldDate:
		return e.parser.ParseDate(ctx, raw, now)
	case models.FieldTime:
		return e.parser.ParseTime(ctx, raw)
	case models.FieldPurpose:
		return ValidatePurpose(raw)
	}
	return "", fmt.Errorf("unknown booking field %q", field)
}

func (e *DialogueEngine) errorReply(sessionID, field string, err error) string {
	var (
		ve *ValidationError
		pe *ParseAmbiguityError
	)
	switch {
	case errors.As(err, &ve):
		return repromptWithReason(ve.Reason, field)
	case errors.As(err, &pe):
		return repromptWithReason(pe.Reason, field)
	}
	e.logger.Warn("dialogue: field processing failed",
		zap.String("session", sessionID), zap.String("field", field), zap.Error(err))
	return collaboratorRetryMsg + "\n\n" + fieldPrompt(field)
}

// IsActive reports whether sess has a booking in progress.
func IsActive(sess *models.ConversationSession) bool {
	return sess != nil && sess.ActiveBooking != nil
}

// Progress renders the current step, e.g. "Step 2/3: phone". It is empty when idle.
func Progress(sess *models.ConversationSession) string {
	if !IsActive(sess) {
		return ""
	}
	b := sess.ActiveBooking
	fields := b.Kind.RequiredFields()
	if b.Done() {
		return fmt.Sprintf("Step %d/%d: complete", len(fields), len(fields))
	}
	return fmt.Sprintf("Step %d/%d: %s", b.FieldIndex+1, len(fields), b.CurrentField())
}

func isCancelCommand(message string) bool {
	cmd := strings.ToLower(strings.Join(strings.Fields(message), " "))
	cmd = strings.Trim(cmd, ".!?,;: ")
	_, ok := cancelCommands[cmd]
	return ok
}
