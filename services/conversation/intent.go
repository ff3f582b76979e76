package conversation

import (
	"strings"

	"clinicbot/models"
)

// Intent is the top-level category of a turn received while no flow is active.
type Intent int

const (
	IntentAIFallback Intent = iota
	IntentCancellation
	IntentLocation
	IntentOffers
	IntentDoctors
	IntentClosedDay
	IntentBookingShortcut
	IntentBookingRequest
)

func (i Intent) String() string {
	switch i {
	case IntentCancellation:
		return "cancellation"
	case IntentLocation:
		return "location"
	case IntentOffers:
		return "offers"
	case IntentDoctors:
		return "doctors"
	case IntentClosedDay:
		return "closed_day"
	case IntentBookingShortcut:
		return "booking_shortcut"
	case IntentBookingRequest:
		return "booking_request"
	default:
		return "ai_fallback"
	}
}

type intentRule struct {
	intent Intent
	match  func(folded string, turn models.Turn) bool
}

// Classifier maps a turn to an Intent by walking an ordered rule list; the first match wins.
type Classifier struct {
	rules        []intentRule
	cancellation []string
}

func NewClassifier(catalog *Catalog) *Classifier {
	cancellation := foldAll(cancellationKeywords)
	location := foldAll(locationKeywords)
	offers := foldAll(offersKeywords)
	doctors := foldAll(doctorsKeywords)
	booking := foldAll(bookingKeywords)

	keywords := func(list []string) func(string, models.Turn) bool {
		return func(folded string, _ models.Turn) bool { return containsAny(folded, list) }
	}

	return &Classifier{
		cancellation: cancellation,
		rules: []intentRule{
			{IntentCancellation, keywords(cancellation)},
			{IntentLocation, keywords(location)},
			{IntentOffers, keywords(offers)},
			{IntentDoctors, keywords(doctors)},
			{IntentClosedDay, func(_ string, t models.Turn) bool { return catalog.MentionsClosedDay(t.Text) }},
			{IntentBookingShortcut, func(_ string, t models.Turn) bool {
				_, ok := catalog.ShortcutSlot(t.Text)
				return ok
			}},
			{IntentBookingRequest, keywords(booking)},
		},
	}
}

// Classify returns the first matching intent, or IntentAIFallback.
func (c *Classifier) Classify(turn models.Turn) Intent {
	folded := fold(turn.Text)
	for _, rule := range c.rules {
		if rule.match(folded, turn) {
			return rule.intent
		}
	}
	return IntentAIFallback
}

// IsCancellation reports whether the turn asks to cancel, regardless of any active flow.
func (c *Classifier) IsCancellation(turn models.Turn) bool {
	if turn.IsSelection() {
		return false
	}
	return containsAny(fold(turn.Text), c.cancellation)
}

var foldedQuestionWords = foldAll(questionWords)

// IsQuestion reports whether free text is shaped like a question: a trailing
// question mark (Latin or Arabic) or a leading question word.
func IsQuestion(text string) bool {
	t := strings.TrimSpace(text)
	if strings.HasSuffix(t, "?") || strings.HasSuffix(t, "؟") {
		return true
	}
	words := tokens(fold(t))
	if len(words) == 0 {
		return false
	}
	for _, q := range foldedQuestionWords {
		if words[0] == q {
			return true
		}
	}
	return false
}
