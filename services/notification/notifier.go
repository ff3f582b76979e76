package notification

import (
	"context"
	"fmt"
	"strings"

	"clinicbot/models"
	"clinicbot/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the subset of *asynq.Client used to schedule tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier enqueues staff notifications for the background worker.
type QueueNotifier struct {
	queue  Enqueuer
	logger *zap.Logger
}

func NewQueueNotifier(queue Enqueuer, logger *zap.Logger) *QueueNotifier {
	return &QueueNotifier{queue: queue, logger: logger}
}

func (n *QueueNotifier) BookingCreated(ctx context.Context, booking models.Booking) error {
	return n.enqueue(ctx, tasks.EventBookingCreated, booking)
}

func (n *QueueNotifier) BookingCancelled(ctx context.Context, booking models.Booking) error {
	return n.enqueue(ctx, tasks.EventBookingCancelled, booking)
}

func (n *QueueNotifier) enqueue(ctx context.Context, event string, booking models.Booking) error {
	task, opts, err := tasks.NewStaffNotificationTask(models.StaffNotification{Event: event, Booking: booking})
	if err != nil {
		return fmt.Errorf("notification: build task: %w", err)
	}
	info, err := n.queue.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("notification: enqueue %s: %w", event, err)
	}
	n.logger.Debug("Staff notification enqueued", zap.String("event", event), zap.String("task_id", info.ID))
	return nil
}

// FormatStaffMessage renders the text sent to the clinic's staff phone.
func FormatStaffMessage(n models.StaffNotification) string {
	var title string
	switch n.Event {
	case tasks.EventBookingCreated:
		title = "📅 حجز جديد / New booking"
	case tasks.EventBookingCancelled:
		title = "❌ إلغاء حجز / Booking cancelled"
	default:
		title = n.Event
	}

	b := n.Booking
	lines := []string{
		title,
		"الاسم / Name: " + b.Name,
		"الهاتف / Phone: " + b.Phone,
		"الخدمة / Service: " + b.Service,
		"الموعد / Slot: " + b.AppointmentSlot,
	}
	if b.ID != "" {
		lines = append(lines, "ID: "+b.ID)
	}
	return strings.Join(lines, "\n")
}
