package models

import "time"

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking represents a completed appointment request.
type Booking struct {
	ID              string     `bson:"id" json:"id"`                                         // Unique booking identifier (UUID)
	UserID          string     `bson:"user_id" json:"user_id"`                               // Chat address the booking came from
	Name            string     `bson:"name" json:"name"`                                     // Customer name as validated
	Phone           string     `bson:"phone" json:"phone"`                                   // Canonical 07XXXXXXXX phone
	Service         string     `bson:"service" json:"service"`                               // Catalog service title
	AppointmentSlot string     `bson:"appointment_slot" json:"appointment_slot"`             // Slot label chosen by the user
	Status          string     `bson:"status" json:"status"`                                 // "confirmed" or "cancelled"
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`                         // Timestamp when booking was created
	CancelledAt     *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"` // Set once cancelled
}
