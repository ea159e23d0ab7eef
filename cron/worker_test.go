package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"ragdesk/models"
	"ragdesk/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfirmationMuxHandlesBookingTasks(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mux := NewConfirmationMux(zap.New(core))

	task, _, err := tasks.NewConfirmationTask(models.ConfirmationPayload{
		ReferenceID: "APT-1",
		Kind:        models.BookingAppointment,
		Email:       "jane@example.com",
		Date:        "2024-06-20",
		Time:        "2:00 PM",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("confirmation: %v", err)
	}
	if logs.FilterMessageSnippet("calendar event").Len() != 1 {
		t.Error("no calendar event logged for appointment")
	}

	reminder, _, _ := tasks.NewReminderTask(models.ReminderPayload{ReferenceID: "APT-1"}, time.Now())
	if err := mux.ProcessTask(context.Background(), reminder); err != nil {
		t.Fatalf("reminder: %v", err)
	}
	if logs.FilterMessageSnippet("reminder email").Len() != 1 {
		t.Error("reminder not logged")
	}
}

func TestConfirmationMuxRejectsBadPayload(t *testing.T) {
	mux := NewConfirmationMux(zap.NewNop())
	err := mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeSendConfirmation, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
}
