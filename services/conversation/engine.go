package conversation

import (
	"context"
	"fmt"

	"clinicbot/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome is the result of one engine step: the session as it should be
// committed and the ordered actions to execute.
type Outcome struct {
	Session *models.Session
	Actions []Action
}

// Engine is the per-user state machine for the booking and cancellation flows.
// It never calls the messaging or persistence collaborators itself; those
// effects are returned as actions.
type Engine struct {
	catalog    *Catalog
	classifier *Classifier
	validators *Validators
	logger     *zap.Logger
}

func NewEngine(catalog *Catalog, classifier *Classifier, validators *Validators, logger *zap.Logger) *Engine {
	return &Engine{catalog: catalog, classifier: classifier, validators: validators, logger: logger}
}

// Start handles a turn for a session with no active flow.
func (e *Engine) Start(ctx context.Context, sess *models.Session, turn models.Turn) Outcome {
	next := sess.Clone()
	t := textsFor(turn.Language)

	// A tap on a slot menu left over from an earlier conversation.
	if slot, ok := e.catalog.SlotBySelection(turn); ok {
		next.StartBooking()
		return e.acceptSlot(next, slot, t)
	}

	intent := e.classifier.Classify(turn)
	e.logger.Debug("classified turn", zap.String("user", sess.UserID), zap.Stringer("intent", intent))

	switch intent {
	case IntentCancellation:
		return e.enterCancellation(next, t)

	case IntentLocation:
		return outcome(next, SendText{Text: fmt.Sprintf(t.Location, e.catalog.Content.ClinicName, e.catalog.Content.LocationURL)})

	case IntentOffers:
		return outcome(next, gallery(t.OffersIntro, t.OffersEmpty, e.catalog.Content.OfferImageURLs)...)

	case IntentDoctors:
		return outcome(next, gallery(t.DoctorsIntro, t.DoctorsEmpty, e.catalog.Content.DoctorImageURLs)...)

	case IntentClosedDay:
		return outcome(next, SendText{Text: fmt.Sprintf(t.ClosedDay, e.catalog.ClosedDayLabel(turn.Language))})

	case IntentBookingShortcut:
		slot, _ := e.catalog.ShortcutSlot(turn.Text)
		next.StartBooking()
		return e.acceptSlot(next, slot, t)

	case IntentBookingRequest:
		next.StartBooking()
		if slot, ok := e.catalog.SlotSignal(turn.Text); ok {
			return e.acceptSlot(next, slot, t)
		}
		return outcome(next, SendMenu{Menu: e.catalog.SlotMenu(t)})

	default:
		return outcome(next, e.ask(turn, t))
	}
}

// Advance handles a turn for a session already inside a flow.
func (e *Engine) Advance(ctx context.Context, sess *models.Session, turn models.Turn) Outcome {
	next := sess.Clone()
	t := textsFor(turn.Language)

	// Cancellation pre-empts whatever flow is running.
	if e.classifier.IsCancellation(turn) {
		return e.enterCancellation(next, t)
	}

	switch next.ActiveFlow {
	case models.FlowBooking:
		return e.advanceBooking(ctx, next, turn, t)
	case models.FlowCancellation:
		return e.advanceCancellation(next, turn, t)
	default:
		return e.Start(ctx, next, turn)
	}
}

func (e *Engine) advanceBooking(ctx context.Context, next *models.Session, turn models.Turn, t texts) Outcome {
	if next.Booking == nil {
		next.StartBooking()
	}
	draft := next.Booking
	step := draft.Step()

	if !turn.IsSelection() && IsQuestion(turn.Text) {
		return outcome(next, append([]Action{e.ask(turn, t)}, e.bookingPrompt(step, t)...)...)
	}

	switch step {
	case models.StepAwaitSlot:
		if slot, ok := e.catalog.SlotBySelection(turn); ok {
			return e.acceptSlot(next, slot, t)
		}
		if slot, ok := e.catalog.ShortcutSlot(turn.Text); ok {
			return e.acceptSlot(next, slot, t)
		}
		return outcome(next, SendMenu{Menu: e.catalog.SlotMenu(t)})

	case models.StepAwaitName:
		name, ok := e.validators.ValidateName(ctx, turn.Text)
		if !ok {
			return outcome(next, SendText{Text: t.InvalidName})
		}
		draft.Name = name
		return outcome(next, SendText{Text: fmt.Sprintf(t.AskPhone, name)})

	case models.StepAwaitPhone:
		phone, ok := ValidatePhone(turn.Text)
		if !ok {
			return outcome(next, SendText{Text: t.InvalidPhone})
		}
		draft.Phone = phone
		if draft.BookingID == "" {
			draft.BookingID = uuid.NewString()
		}
		return outcome(next, SendMenu{Menu: e.catalog.ServiceMenu(t)})

	case models.StepAwaitService:
		service, ok := e.validators.MatchService(turn)
		if !ok {
			return outcome(next, SendText{Text: t.InvalidService}, SendMenu{Menu: e.catalog.ServiceMenu(t)})
		}
		draft.Service = service.Title
		if draft.BookingID == "" {
			draft.BookingID = uuid.NewString()
		}
		booking := models.Booking{
			ID:              draft.BookingID,
			UserID:          next.UserID,
			Name:            draft.Name,
			Phone:           draft.Phone,
			Service:         draft.Service,
			AppointmentSlot: draft.AppointmentSlot,
			Status:          models.BookingStatusConfirmed,
		}
		next.Reset()
		return outcome(next,
			PersistBooking{Booking: booking, FailureText: t.BookingFailed},
			SendText{Text: t.bookingConfirmed(booking)},
		)

	default:
		// A complete draft should have been persisted already; start over.
		e.logger.Warn("complete booking draft left in session", zap.String("user", next.UserID))
		next.StartBooking()
		return outcome(next, SendMenu{Menu: e.catalog.SlotMenu(t)})
	}
}

func (e *Engine) advanceCancellation(next *models.Session, turn models.Turn, t texts) Outcome {
	if !turn.IsSelection() && IsQuestion(turn.Text) {
		return outcome(next, e.ask(turn, t), SendText{Text: t.AskCancelPhone})
	}

	phone, ok := ValidatePhone(turn.Text)
	if !ok {
		return outcome(next, SendText{Text: t.InvalidPhone})
	}
	next.Reset()
	return outcome(next, CancelLatestBooking{
		Phone:        phone,
		NotFoundText: t.CancelNotFound,
		FailureText:  t.CancelFailed,
		Confirm:      t.cancelDone,
	})
}

// acceptSlot records the slot and asks for the name, unless the slot falls on
// the closed weekday, in which case the slot menu is shown again.
func (e *Engine) acceptSlot(next *models.Session, slot string, t texts) Outcome {
	if e.catalog.MentionsClosedDay(slot) {
		return outcome(next,
			SendText{Text: fmt.Sprintf(t.SlotOnClosedDay, e.catalog.ClosedDayLabel(next.LastLanguage))},
			SendMenu{Menu: e.catalog.SlotMenu(t)},
		)
	}
	next.Booking.AppointmentSlot = slot
	return outcome(next, SendText{Text: fmt.Sprintf(t.AskName, slot)})
}

func (e *Engine) enterCancellation(next *models.Session, t texts) Outcome {
	next.StartCancellation()
	return outcome(next, SendText{Text: t.AskCancelPhone})
}

// bookingPrompt re-asks for whichever booking field is still missing.
func (e *Engine) bookingPrompt(step models.BookingStep, t texts) []Action {
	switch step {
	case models.StepAwaitSlot:
		return []Action{SendMenu{Menu: e.catalog.SlotMenu(t)}}
	case models.StepAwaitName:
		return []Action{SendText{Text: t.AskNameAgain}}
	case models.StepAwaitPhone:
		return []Action{SendText{Text: t.AskPhoneAgain}}
	case models.StepAwaitService:
		return []Action{SendMenu{Menu: e.catalog.ServiceMenu(t)}}
	default:
		return nil
	}
}

func (e *Engine) ask(turn models.Turn, t texts) Action {
	return AskAssistant{Question: turn.Text, Language: turn.Language, Fallback: t.AssistantUnavailable}
}

func gallery(intro, empty string, urls []string) []Action {
	if len(urls) == 0 {
		return []Action{SendText{Text: empty}}
	}
	actions := []Action{SendText{Text: intro}}
	for _, u := range urls {
		actions = append(actions, SendImage{URL: u})
	}
	return actions
}

func outcome(next *models.Session, actions ...Action) Outcome {
	return Outcome{Session: next, Actions: actions}
}
