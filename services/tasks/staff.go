package tasks

import (
	"encoding/json"
	"time"

	"clinicbot/models"

	"github.com/hibiken/asynq"
)

const TypeNotifyStaff = "booking:notify-staff"

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

func NewStaffNotificationTask(payload models.StaffNotification) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeNotifyStaff, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}

	return task, opts, nil
}

func ParseStaffNotification(task *asynq.Task) (models.StaffNotification, error) {
	var p models.StaffNotification
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}
