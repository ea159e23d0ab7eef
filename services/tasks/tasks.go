package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"ragdesk/models"

	"github.com/hibiken/asynq"
)

const (
	TypeSendConfirmation = "booking:confirm"
	TypeSendReminder     = "reminder:send"
)

// ReminderLead is how far ahead of an appointment the reminder fires.
const ReminderLead = 24 * time.Hour

// NewConfirmationTask builds the immediate confirmation email/calendar task.
// The task id is the booking reference, so a receipt is never confirmed twice.
func NewConfirmationTask(payload models.ConfirmationPayload) (*asynq.Task, []asynq.Option, error) {
	return newTask(TypeSendConfirmation, payload,
		asynq.TaskID("confirm:"+payload.ReferenceID), asynq.MaxRetry(5))
}

// NewReminderTask schedules the appointment reminder for fireAt.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	return newTask(TypeSendReminder, payload,
		asynq.ProcessAt(fireAt), asynq.TaskID("reminder:"+payload.ReferenceID), asynq.MaxRetry(3))
}

func newTask(typename string, payload any, opts ...asynq.Option) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal %s payload: %w", typename, err)
	}
	return asynq.NewTask(typename, b), opts, nil
}
