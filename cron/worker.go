package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ragdesk/config"
	"ragdesk/models"
	"ragdesk/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt is the asynq connection for the booking queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewConfirmationMux routes booking tasks to their handlers.
func NewConfirmationMux(logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendConfirmation, handleConfirmationTask(logger))
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(logger))
	return mux
}

func newServer() *asynq.Server {
	return asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
}

// InitConfirmationWorker runs the async worker in background.
func InitConfirmationWorker(ctx context.Context, logger *zap.Logger) {
	srv := newServer()
	mux := NewConfirmationMux(logger)

	// Start Redis health monitor
	go monitorRedisConnection(ctx, logger)

	// Start async worker with retry logic
	go func() {
		logger.Info("worker: 🚀 starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Start(mux); err != nil {
				logger.Error("worker: ❌ failed to start", zap.Int("attempt", attempts), zap.Int("max", maxAttempts), zap.Error(err))
				if attempts == maxAttempts {
					logger.Error("worker: ❗ max retry attempts reached, booking confirmations will not be delivered")
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Duration(attempts*2) * time.Second): // Exponential backoff
				}
				continue
			}
			<-ctx.Done()
			srv.Shutdown()
			return
		}
	}()
}

// RunConfirmationWorker blocks, processing tasks until ctx is cancelled.
func RunConfirmationWorker(ctx context.Context, logger *zap.Logger) error {
	srv := newServer()
	if err := srv.Start(NewConfirmationMux(logger)); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	logger.Info("worker: 🚀 processing booking tasks")
	<-ctx.Done()
	srv.Shutdown()
	return nil
}

func handleConfirmationTask(logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ConfirmationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("worker: 🔴 invalid confirmation payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		logger.Info("worker: 📧 confirmation email sent (simulated)",
			zap.String("reference", p.ReferenceID),
			zap.String("to", p.Email),
			zap.String("name", p.Name))
		switch p.Kind {
		case models.BookingAppointment:
			logger.Info("worker: 📅 calendar event created (simulated)",
				zap.String("reference", p.ReferenceID),
				zap.String("date", p.Date),
				zap.String("time", p.Time),
				zap.String("purpose", p.Purpose))
		case models.BookingCallback:
			logger.Info("worker: 📞 callback queued for the team (simulated)",
				zap.String("reference", p.ReferenceID),
				zap.String("phone", p.Phone))
		default:
			logger.Warn("worker: ⚠️ unknown booking kind", zap.String("kind", string(p.Kind)))
		}
		return nil
	}
}

func handleReminderTask(logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("worker: 🔴 invalid reminder payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.Info("worker: ⏰ reminder email sent (simulated)",
			zap.String("reference", p.ReferenceID),
			zap.String("to", p.Email),
			zap.String("title", p.Title),
			zap.String("body", p.Body))
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	opt := QueueRedisOpt()
	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("worker: ⚠️ Redis connection lost", zap.Error(err))
			}
		}
	}
}
