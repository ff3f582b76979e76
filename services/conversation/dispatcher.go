package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicbot/models"

	"go.uber.org/zap"
)

// Dispatcher runs one inbound message through normalization, the engine and
// the resulting actions while holding the sender's session lock.
type Dispatcher struct {
	store      SessionStore
	normalizer *Normalizer
	engine     *Engine
	messenger  Messenger
	assistant  Assistant
	bookings   BookingStore
	notifier   Notifier
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// DispatcherDeps groups the Dispatcher's collaborators.
type DispatcherDeps struct {
	Store      SessionStore
	Normalizer *Normalizer
	Engine     *Engine
	Messenger  Messenger
	Assistant  Assistant
	Bookings   BookingStore
	Notifier   Notifier
	// Timeout bounds each assistant and persistence call.
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:      deps.Store,
		normalizer: deps.Normalizer,
		engine:     deps.Engine,
		messenger:  deps.Messenger,
		assistant:  deps.Assistant,
		bookings:   deps.Bookings,
		notifier:   notifier,
		timeout:    deps.Timeout,
		logger:     logger,
		now:        time.Now,
	}
}

// Dispatch handles one inbound message end to end. Messages from the same
// user are serialized; the returned error only reports session store failures.
func (d *Dispatcher) Dispatch(ctx context.Context, in models.Inbound) error {
	log := d.logger.With(zap.String("user", in.UserID), zap.String("message_id", in.MessageID))

	release, err := d.store.Lock(ctx, in.UserID)
	if err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	defer release()

	sess, err := d.store.Load(ctx, in.UserID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	turn, err := d.normalizer.Normalize(ctx, in, sess)
	if err != nil {
		t := textsFor(sess.LastLanguage)
		switch {
		case errors.Is(err, ErrTranscriptionUnavailable):
			log.Warn("voice note could not be transcribed", zap.Error(err))
			d.sendText(ctx, log, in.UserID, t.TranscriptionRetry)
		case errors.Is(err, ErrUnsupportedInput):
			log.Info("unsupported inbound message", zap.String("kind", string(in.Kind)))
			d.sendText(ctx, log, in.UserID, t.UnsupportedInput)
		default:
			log.Error("failed to normalize inbound message", zap.Error(err))
		}
		return nil
	}

	working := sess.Clone()
	working.LastLanguage = turn.Language

	var out Outcome
	if working.ActiveFlow == models.FlowNone {
		out = d.engine.Start(ctx, working, turn)
	} else {
		out = d.engine.Advance(ctx, working, turn)
	}

	next := out.Session
	if !d.execute(ctx, log, in.UserID, out.Actions) {
		// A commit point failed: keep the pre-turn flow state.
		next = sess.Clone()
		next.LastLanguage = turn.Language
	}

	next.UpdatedAt = d.now()
	if err := d.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	log.Debug("turn handled",
		zap.String("flow", string(next.ActiveFlow)),
		zap.Int("actions", len(out.Actions)))
	return nil
}

// execute runs actions in order. It returns false when a commit point failed,
// in which case the actions after it were dropped.
func (d *Dispatcher) execute(ctx context.Context, log *zap.Logger, to string, actions []Action) bool {
	for _, a := range actions {
		switch act := a.(type) {
		case SendText:
			d.sendText(ctx, log, to, act.Text)

		case SendMenu:
			if err := d.messenger.SendMenu(ctx, to, act.Menu); err != nil {
				log.Error("failed to send menu", zap.Error(err))
			}

		case SendImage:
			if err := d.messenger.SendImage(ctx, to, act.URL, act.Caption); err != nil {
				log.Error("failed to send image", zap.String("url", act.URL), zap.Error(err))
			}

		case AskAssistant:
			d.sendText(ctx, log, to, d.answer(ctx, log, act))

		case PersistBooking:
			if !d.persist(ctx, log, to, act) {
				return false
			}

		case CancelLatestBooking:
			if !d.cancel(ctx, log, to, act) {
				return false
			}

		default:
			log.Warn("unknown action", zap.String("type", fmt.Sprintf("%T", a)))
		}
	}
	return true
}

func (d *Dispatcher) answer(ctx context.Context, log *zap.Logger, act AskAssistant) string {
	callCtx, cancel := d.callContext(ctx)
	defer cancel()
	reply, err := d.assistant.Answer(callCtx, act.Question, act.Language)
	if err != nil {
		log.Warn("assistant unavailable", zap.Error(err))
		return act.Fallback
	}
	if strings.TrimSpace(reply) == "" {
		return act.Fallback
	}
	return reply
}

func (d *Dispatcher) persist(ctx context.Context, log *zap.Logger, to string, act PersistBooking) bool {
	booking := act.Booking
	callCtx, cancel := d.callContext(ctx)
	defer cancel()
	err := d.bookings.AppendBooking(callCtx, &booking)
	if errors.Is(err, ErrBookingExists) {
		// Retried confirmation after the session save failed.
		log.Info("booking already stored", zap.String("booking_id", booking.ID))
		return true
	}
	if err != nil {
		log.Error("failed to persist booking", zap.Error(err))
		d.sendText(ctx, log, to, act.FailureText)
		return false
	}
	log.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("slot", booking.AppointmentSlot),
		zap.String("service", booking.Service))
	if err := d.notifier.BookingCreated(ctx, booking); err != nil {
		log.Warn("failed to notify staff of booking", zap.Error(err))
	}
	return true
}

func (d *Dispatcher) cancel(ctx context.Context, log *zap.Logger, to string, act CancelLatestBooking) bool {
	callCtx, cancel := d.callContext(ctx)
	defer cancel()

	booking, err := d.bookings.FindLatestBookingByPhone(callCtx, act.Phone)
	if errors.Is(err, ErrBookingNotFound) {
		d.sendText(ctx, log, to, act.NotFoundText)
		return true
	}
	if err != nil {
		log.Error("failed to look up booking", zap.Error(err))
		d.sendText(ctx, log, to, act.FailureText)
		return false
	}
	err = d.bookings.MarkCancelled(callCtx, booking.ID)
	if errors.Is(err, ErrBookingNotFound) {
		// Cancelled concurrently by another turn.
		d.sendText(ctx, log, to, act.NotFoundText)
		return true
	}
	if err != nil {
		log.Error("failed to cancel booking", zap.String("booking_id", booking.ID), zap.Error(err))
		d.sendText(ctx, log, to, act.FailureText)
		return false
	}

	booking.Status = models.BookingStatusCancelled
	log.Info("booking cancelled", zap.String("booking_id", booking.ID))
	d.sendText(ctx, log, to, act.Confirm(*booking))
	if err := d.notifier.BookingCancelled(ctx, *booking); err != nil {
		log.Warn("failed to notify staff of cancellation", zap.Error(err))
	}
	return true
}

func (d *Dispatcher) sendText(ctx context.Context, log *zap.Logger, to, text string) {
	if err := d.messenger.SendText(ctx, to, text); err != nil {
		log.Error("failed to send text", zap.Error(err))
	}
}

func (d *Dispatcher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return boundedContext(ctx, d.timeout)
}

// boundedContext limits a collaborator call to timeout. A non-positive
// timeout leaves the call bounded only by ctx.
func boundedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
