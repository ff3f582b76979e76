package cron

import (
	"context"
	"fmt"
	"time"

	"clinicbot/services/notification"
	"clinicbot/services/tasks"
	"clinicbot/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TextSender delivers a plain text message.
type TextSender interface {
	SendText(ctx context.Context, to, text string) error
}

// InitStaffNotificationWorker runs the staff-notification worker in background.
// The returned server must be shut down by the caller.
func InitStaffNotificationWorker(redisOpts asynq.RedisClientOpt, sender TextSender, staffPhone string) *asynq.Server {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNotifyStaff, handleStaffNotification(sender, staffPhone))

	// Start async worker with retry logic
	go func() {
		logger.Info("[StaffWorker] Starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				break
			}
			logger.Error("[StaffWorker] Failed to start worker",
				zap.Int("attempt", attempts), zap.Int("max_attempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("[StaffWorker] Max retry attempts reached, staff notifications disabled")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func handleStaffNotification(sender TextSender, staffPhone string) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		n, err := tasks.ParseStaffNotification(task)
		if err != nil {
			logger.Error("[StaffHandler] Invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		if err := sender.SendText(ctx, staffPhone, notification.FormatStaffMessage(n)); err != nil {
			logger.Warn("[StaffHandler] Failed to notify staff",
				zap.String("event", n.Event), zap.String("booking_id", n.Booking.ID), zap.Error(err))
			return err
		}
		logger.Info("[StaffHandler] Staff notified", zap.String("event", n.Event), zap.String("booking_id", n.Booking.ID))
		return nil
	}
}
