package models

// NameVerdict is the language model's answer to "is this a plausible personal name?".
type NameVerdict int

const (
	NameIndeterminate NameVerdict = iota
	NamePlausible
	NameImplausible
)

// StaffNotification is the payload of a staff notification task.
type StaffNotification struct {
	Event   string  `json:"event"` // "booking.created" or "booking.cancelled"
	Booking Booking `json:"booking"`
}
