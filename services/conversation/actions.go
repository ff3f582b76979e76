package conversation

import "clinicbot/models"

// Action is one outbound command produced by the engine and executed, in
// order, by the Dispatcher.
type Action interface {
	action()
}

// SendText sends a plain text message.
type SendText struct {
	Text string
}

// SendMenu sends an interactive selection list.
type SendMenu struct {
	Menu models.Menu
}

// SendImage sends an image by URL.
type SendImage struct {
	URL     string
	Caption string
}

// AskAssistant answers a free-form question through the language model and
// sends the reply, or Fallback when the model is unavailable.
type AskAssistant struct {
	Question string
	Language models.Language
	Fallback string
}

// PersistBooking appends a completed booking. It is a commit point: on
// failure FailureText is sent, the remaining actions are dropped and the
// session is left as it was before the turn.
type PersistBooking struct {
	Booking     models.Booking
	FailureText string
}

// CancelLatestBooking cancels the most recent booking for Phone. It is a
// commit point like PersistBooking; a missing booking is not a failure.
type CancelLatestBooking struct {
	Phone        string
	NotFoundText string
	FailureText  string
	Confirm      func(models.Booking) string
}

func (SendText) action()            {}
func (SendMenu) action()            {}
func (SendImage) action()           {}
func (AskAssistant) action()        {}
func (PersistBooking) action()      {}
func (CancelLatestBooking) action() {}
