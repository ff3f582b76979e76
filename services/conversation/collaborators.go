package conversation

import (
	"context"

	"clinicbot/models"
)

// Messenger delivers outbound messages on the chat channel. Failures are
// logged by the dispatcher and never change the flow.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
	SendMenu(ctx context.Context, to string, menu models.Menu) error
	SendImage(ctx context.Context, to, url, caption string) error
}

// Transcriber turns a voice note into text.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaRef string) (string, error)
}

// Assistant is the language model used for open questions and name checks.
type Assistant interface {
	Answer(ctx context.Context, question string, lang models.Language) (string, error)
	IsPlausibleName(ctx context.Context, name string) (models.NameVerdict, error)
}

// BookingStore persists completed bookings.
type BookingStore interface {
	// AppendBooking stores a new booking. It fills ID and CreatedAt when empty
	// and returns ErrBookingExists, leaving the stored copy untouched, when
	// the ID is already taken.
	AppendBooking(ctx context.Context, booking *models.Booking) error
	// FindLatestBookingByPhone returns the most recent active booking for a
	// canonical phone, or ErrBookingNotFound.
	FindLatestBookingByPhone(ctx context.Context, phone string) (*models.Booking, error)
	MarkCancelled(ctx context.Context, bookingID string) error
}

// Notifier tells clinic staff about booking changes.
type Notifier interface {
	BookingCreated(ctx context.Context, booking models.Booking) error
	BookingCancelled(ctx context.Context, booking models.Booking) error
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) BookingCreated(context.Context, models.Booking) error   { return nil }
func (NopNotifier) BookingCancelled(context.Context, models.Booking) error { return nil }
