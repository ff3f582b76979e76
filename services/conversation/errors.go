package conversation

import "errors"

var (
	// ErrTranscriptionUnavailable is returned when a voice note cannot be turned into text.
	ErrTranscriptionUnavailable = errors.New("transcription unavailable")
	// ErrUnsupportedInput is returned for inbound kinds the bot does not handle (stickers, locations, ...).
	ErrUnsupportedInput = errors.New("unsupported input")
	// ErrBookingNotFound is returned by a BookingStore when no active booking matches a lookup.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrBookingExists is returned by AppendBooking when a booking with the same ID is already stored.
	ErrBookingExists = errors.New("booking already exists")
)
