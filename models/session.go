package models

import "time"

// Flow is the multi-step interaction a session is currently in.
type Flow string

const (
	FlowNone         Flow = "NONE"
	FlowBooking      Flow = "BOOKING"
	FlowCancellation Flow = "CANCELLATION"
)

// BookingStep is the position inside the booking flow. It is derived from
// which draft fields are already filled.
type BookingStep string

const (
	StepAwaitSlot    BookingStep = "AWAIT_SLOT"
	StepAwaitName    BookingStep = "AWAIT_NAME"
	StepAwaitPhone   BookingStep = "AWAIT_PHONE"
	StepAwaitService BookingStep = "AWAIT_SERVICE"
	StepComplete     BookingStep = "COMPLETE"
)

// BookingDraft holds the fields collected so far in a booking flow.
type BookingDraft struct {
	// BookingID is fixed once the phone is accepted so a retried
	// confirmation persists the same booking.
	BookingID       string `json:"bookingId,omitempty"`
	AppointmentSlot string `json:"appointmentSlot,omitempty"`
	Name            string `json:"name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Service         string `json:"service,omitempty"`
}

// Step returns the next field the draft is waiting for.
func (d *BookingDraft) Step() BookingStep {
	switch {
	case d.AppointmentSlot == "":
		return StepAwaitSlot
	case d.Name == "":
		return StepAwaitName
	case d.Phone == "":
		return StepAwaitPhone
	case d.Service == "":
		return StepAwaitService
	default:
		return StepComplete
	}
}

// CancellationState holds the cancellation flow progress.
type CancellationState struct {
	AwaitingPhone bool `json:"awaitingPhone"`
}

// Session is the per-user conversation state.
type Session struct {
	UserID       string             `json:"userId"`
	ActiveFlow   Flow               `json:"activeFlow"`
	Booking      *BookingDraft      `json:"booking,omitempty"`      // set only while ActiveFlow is BOOKING
	Cancellation *CancellationState `json:"cancellation,omitempty"` // set only while ActiveFlow is CANCELLATION
	LastLanguage Language           `json:"lastLanguage"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// NewSession returns an idle session for the given user.
func NewSession(userID string) *Session {
	return &Session{
		UserID:       userID,
		ActiveFlow:   FlowNone,
		LastLanguage: LanguageArabic,
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	if s.Booking != nil {
		b := *s.Booking
		c.Booking = &b
	}
	if s.Cancellation != nil {
		cs := *s.Cancellation
		c.Cancellation = &cs
	}
	return &c
}

// Reset drops any in-progress flow data and returns the session to idle.
func (s *Session) Reset() {
	s.ActiveFlow = FlowNone
	s.Booking = nil
	s.Cancellation = nil
}

// StartBooking discards any other flow and begins an empty booking draft.
func (s *Session) StartBooking() {
	s.Reset()
	s.ActiveFlow = FlowBooking
	s.Booking = &BookingDraft{}
}

// StartCancellation discards any other flow (including a booking in progress)
// and waits for the phone number of the booking to cancel.
func (s *Session) StartCancellation() {
	s.Reset()
	s.ActiveFlow = FlowCancellation
	s.Cancellation = &CancellationState{AwaitingPhone: true}
}
