package notification

import (
	"context"
	"fmt"
	"time"

	"ragdesk/models"
	"ragdesk/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the part of *asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// LogNotifier records the simulated side effects without delivering anything.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyBooking(_ context.Context, receipt models.BookingReceipt) error {
	p := ConfirmationFromReceipt(receipt)
	n.logger.Info("notification: confirmation email (simulated)",
		zap.String("reference", p.ReferenceID),
		zap.String("kind", string(p.Kind)),
		zap.String("email", p.Email))
	if p.Kind == models.BookingAppointment {
		n.logger.Info("notification: calendar event (simulated)",
			zap.String("reference", p.ReferenceID),
			zap.String("date", p.Date),
			zap.String("time", p.Time))
	}
	return nil
}

// AsyncNotifier hands confirmations to the asynq worker. Appointments also get
// a reminder scheduled ReminderLead before they start, when that is still ahead.
type AsyncNotifier struct {
	queue    Enqueuer
	logger   *zap.Logger
	now      func() time.Time
	location *time.Location
}

func NewAsyncNotifier(queue Enqueuer, logger *zap.Logger) (*AsyncNotifier, error) {
	if queue == nil {
		return nil, fmt.Errorf("notification service initialization error: queue client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncNotifier{queue: queue, logger: logger, now: time.Now, location: time.Local}, nil
}

func (n *AsyncNotifier) NotifyBooking(ctx context.Context, receipt models.BookingReceipt) error {
	p := ConfirmationFromReceipt(receipt)
	task, opts, err := tasks.NewConfirmationTask(p)
	if err != nil {
		return fmt.Errorf("NotifyBooking: build confirmation task: %w", err)
	}
	info, err := n.queue.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("NotifyBooking: enqueue confirmation: %w", err)
	}
	n.logger.Info("notification: confirmation queued", zap.String("reference", p.ReferenceID), zap.String("task", info.ID))

	if p.Kind != models.BookingAppointment {
		return nil
	}
	start, err := time.ParseInLocation("2006-01-02 3:04 PM", p.Date+" "+p.Time, n.location)
	if err != nil {
		n.logger.Warn("notification: cannot schedule reminder", zap.String("reference", p.ReferenceID), zap.Error(err))
		return nil
	}
	fireAt := start.Add(-tasks.ReminderLead)
	if !fireAt.After(n.now()) {
		return nil
	}

	reminder := models.ReminderPayload{
		ReferenceID: p.ReferenceID,
		Email:       p.Email,
		Title:       "Appointment reminder",
		Body:        fmt.Sprintf("Hi %s, this is a reminder of your appointment on %s at %s (%s).", p.Name, p.Date, p.Time, p.ReferenceID),
		FireDate:    fireAt.Format(time.RFC3339),
	}
	rtask, ropts, err := tasks.NewReminderTask(reminder, fireAt)
	if err != nil {
		return fmt.Errorf("NotifyBooking: build reminder task: %w", err)
	}
	if _, err := n.queue.EnqueueContext(ctx, rtask, ropts...); err != nil {
		return fmt.Errorf("NotifyBooking: enqueue reminder: %w", err)
	}
	n.logger.Info("notification: reminder scheduled", zap.String("reference", p.ReferenceID), zap.Time("fireAt", fireAt))
	return nil
}

// ConfirmationFromReceipt flattens a receipt into its queued payload.
func ConfirmationFromReceipt(r models.BookingReceipt) models.ConfirmationPayload {
	return models.ConfirmationPayload{
		ReferenceID: r.ReferenceID,
		Kind:        r.Kind,
		Name:        r.Field(models.FieldName),
		Email:       r.Field(models.FieldEmail),
		Phone:       r.Field(models.FieldPhone),
		Date:        r.Field(models.FieldDate),
		Time:        r.Field(models.FieldTime),
		Purpose:     r.Field(models.FieldPurpose),
	}
}
