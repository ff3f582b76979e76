package conversation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clinicbot/models"
	"clinicbot/services/conversation/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dispatcherFixture struct {
	store       *MemoryStore
	messenger   *mocks.MockMessenger
	transcriber *mocks.MockTranscriber
	assistant   *mocks.MockAssistant
	bookings    *mocks.MockBookingStore
	notifier    *mocks.MockNotifier
	dispatcher  *Dispatcher
}

func newDispatcherFixture(messenger Messenger) *dispatcherFixture {
	f := &dispatcherFixture{
		store:       NewMemoryStore(),
		messenger:   new(mocks.MockMessenger),
		transcriber: new(mocks.MockTranscriber),
		assistant:   new(mocks.MockAssistant),
		bookings:    new(mocks.MockBookingStore),
		notifier:    new(mocks.MockNotifier),
	}
	if messenger == nil {
		f.messenger.On("SendText", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.messenger.On("SendMenu", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.messenger.On("SendImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		messenger = f.messenger
	}

	catalog := newTestCatalog()
	validators := NewValidators(f.assistant, catalog, time.Second, zap.NewNop())
	f.dispatcher = NewDispatcher(DispatcherDeps{
		Store:      f.store,
		Normalizer: NewNormalizer(f.transcriber, time.Second),
		Engine:     NewEngine(catalog, NewClassifier(catalog), validators, zap.NewNop()),
		Messenger:  messenger,
		Assistant:  f.assistant,
		Bookings:   f.bookings,
		Notifier:   f.notifier,
		Timeout:    time.Second,
		Logger:     zap.NewNop(),
	})
	return f
}

func (f *dispatcherFixture) seed(t *testing.T, sess *models.Session) {
	require.NoError(t, f.store.Save(context.Background(), sess))
}

func (f *dispatcherFixture) session(t *testing.T, userID string) *models.Session {
	sess, err := f.store.Load(context.Background(), userID)
	require.NoError(t, err)
	return sess
}

func textIn(userID, text string) models.Inbound {
	return models.Inbound{MessageID: "m-" + text, UserID: userID, Kind: models.InboundText, Text: text}
}

func selectionIn(userID, id string) models.Inbound {
	return models.Inbound{MessageID: "m-" + id, UserID: userID, Kind: models.InboundSelection, SelectionID: id}
}

func TestDispatch_FullBookingFlow(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()

	f.assistant.On("IsPlausibleName", mock.Anything, "علي حسن").Return(models.NamePlausible, nil)
	f.bookings.On("AppendBooking", mock.Anything, mock.AnythingOfType("*models.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Booking).ID = "b-1"
		}).
		Return(nil).Once()
	f.notifier.On("BookingCreated", mock.Anything, mock.MatchedBy(func(b models.Booking) bool {
		return b.ID == "b-1" && b.Service == "فحص عام"
	})).Return(nil).Once()

	require.NoError(t, f.dispatcher.Dispatch(ctx, textIn("u1", "احجز")))
	assert.Equal(t, models.StepAwaitSlot, f.session(t, "u1").Booking.Step())

	require.NoError(t, f.dispatcher.Dispatch(ctx, selectionIn("u1", "slot_sat_4pm")))
	assert.Equal(t, models.StepAwaitName, f.session(t, "u1").Booking.Step())

	require.NoError(t, f.dispatcher.Dispatch(ctx, textIn("u1", "علي حسن")))
	assert.Equal(t, models.StepAwaitPhone, f.session(t, "u1").Booking.Step())

	require.NoError(t, f.dispatcher.Dispatch(ctx, textIn("u1", "٠٧٨٥٠٥٠٨٧٥")))
	assert.Equal(t, models.StepAwaitService, f.session(t, "u1").Booking.Step())

	require.NoError(t, f.dispatcher.Dispatch(ctx, textIn("u1", "فحص عام")))

	sess := f.session(t, "u1")
	assert.Equal(t, models.FlowNone, sess.ActiveFlow)
	assert.Nil(t, sess.Booking)
	assert.False(t, sess.UpdatedAt.IsZero())

	f.bookings.AssertNumberOfCalls(t, "AppendBooking", 1)
	f.bookings.AssertCalled(t, "AppendBooking", mock.Anything, &models.Booking{
		ID:              "b-1",
		UserID:          "u1",
		Name:            "علي حسن",
		Phone:           "0785050875",
		Service:         "فحص عام",
		AppointmentSlot: "السبت 4:00 م",
		Status:          models.BookingStatusConfirmed,
	})
	f.notifier.AssertExpectations(t)
	f.messenger.AssertNumberOfCalls(t, "SendMenu", 2)
}

func TestDispatch_PersistFailureKeepsDraft(t *testing.T) {
	f := newDispatcherFixture(nil)
	f.seed(t, bookingSession(models.BookingDraft{AppointmentSlot: "sat", Name: "Ali", Phone: "0785050875"}))
	f.bookings.On("AppendBooking", mock.Anything, mock.Anything).Return(errors.New("mongo unavailable"))

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), textIn("u1", "فحص عام")))

	sess := f.session(t, "u1")
	assert.Equal(t, models.FlowBooking, sess.ActiveFlow)
	assert.Equal(t, models.StepAwaitService, sess.Booking.Step())
	f.messenger.AssertCalled(t, "SendText", mock.Anything, "u1", textsFor(models.LanguageArabic).BookingFailed)
	f.messenger.AssertNumberOfCalls(t, "SendText", 1)
	f.notifier.AssertNotCalled(t, "BookingCreated", mock.Anything, mock.Anything)
}

func TestDispatch_CancellationFound(t *testing.T) {
	f := newDispatcherFixture(nil)
	sess := models.NewSession("u1")
	sess.StartCancellation()
	f.seed(t, sess)

	booking := &models.Booking{ID: "b-7", Phone: "0785050875", Service: "حشوة", AppointmentSlot: "السبت 4:00 م", Status: models.BookingStatusConfirmed}
	f.bookings.On("FindLatestBookingByPhone", mock.Anything, "0785050875").Return(booking, nil)
	f.bookings.On("MarkCancelled", mock.Anything, "b-7").Return(nil)
	f.notifier.On("BookingCancelled", mock.Anything, mock.MatchedBy(func(b models.Booking) bool {
		return b.ID == "b-7" && b.Status == models.BookingStatusCancelled
	})).Return(nil)

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), textIn("u1", "٠٧٨٥٠٥٠٨٧٥")))

	assert.Equal(t, models.FlowNone, f.session(t, "u1").ActiveFlow)
	f.messenger.AssertCalled(t, "SendText", mock.Anything, "u1", textsFor(models.LanguageArabic).cancelDone(*booking))
	f.bookings.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestDispatch_CancellationNotFound(t *testing.T) {
	f := newDispatcherFixture(nil)
	sess := models.NewSession("u1")
	sess.StartCancellation()
	f.seed(t, sess)
	f.bookings.On("FindLatestBookingByPhone", mock.Anything, "0785050875").Return(nil, ErrBookingNotFound)

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), textIn("u1", "0785050875")))

	assert.Equal(t, models.FlowNone, f.session(t, "u1").ActiveFlow)
	f.messenger.AssertCalled(t, "SendText", mock.Anything, "u1", textsFor(models.LanguageEnglish).CancelNotFound)
	f.bookings.AssertNotCalled(t, "MarkCancelled", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "BookingCancelled", mock.Anything, mock.Anything)
}

func TestDispatch_CancellationLookupFailureKeepsFlow(t *testing.T) {
	f := newDispatcherFixture(nil)
	sess := models.NewSession("u1")
	sess.StartCancellation()
	f.seed(t, sess)
	f.bookings.On("FindLatestBookingByPhone", mock.Anything, "0785050875").Return(nil, errors.New("timeout"))

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), textIn("u1", "0785050875")))

	assert.Equal(t, models.FlowCancellation, f.session(t, "u1").ActiveFlow)
	f.messenger.AssertCalled(t, "SendText", mock.Anything, "u1", textsFor(models.LanguageEnglish).CancelFailed)
}

func TestDispatch_TranscriptionFailureAsksToRetry(t *testing.T) {
	f := newDispatcherFixture(nil)
	f.transcriber.On("Transcribe", mock.Anything, "media-9").Return("", errors.New("speech quota"))

	err := f.dispatcher.Dispatch(context.Background(), models.Inbound{UserID: "u1", Kind: models.InboundVoice, MediaRef: "media-9"})

	require.NoError(t, err)
	f.messenger.AssertCalled(t, "SendText", mock.Anything, "u1", textsFor(models.LanguageArabic).TranscriptionRetry)
	assert.Equal(t, 0, f.store.Len())
}

func TestDispatch_VoiceNoteRunsLikeText(t *testing.T) {
	f := newDispatcherFixture(nil)
	f.transcriber.On("Transcribe", mock.Anything, "media-1").Return("احجز", nil)

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), models.Inbound{UserID: "u1", Kind: models.InboundVoice, MediaRef: "media-1"}))

	assert.Equal(t, models.FlowBooking, f.session(t, "u1").ActiveFlow)
	f.messenger.AssertNumberOfCalls(t, "SendMenu", 1)
}

func TestDispatch_UnsupportedInput(t *testing.T) {
	f := newDispatcherFixture(nil)

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), models.Inbound{UserID: "u1", Kind: models.InboundUnsupported}))

	f.messenger.AssertCalled(t, "SendText", mock.Anything, "u1", textsFor(models.LanguageArabic).UnsupportedInput)
}

func TestDispatch_AssistantAnswerAndFallback(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()
	f.assistant.On("Answer", mock.Anything, "is whitening painful", models.LanguageEnglish).Return("Usually not.", nil).Once()
	f.assistant.On("Answer", mock.Anything, "is whitening painful", models.LanguageEnglish).Return("", errors.New("gemini down")).Once()

	require.NoError(t, f.dispatcher.Dispatch(ctx, textIn("u1", "is whitening painful")))
	require.NoError(t, f.dispatcher.Dispatch(ctx, textIn("u1", "is whitening painful")))

	f.messenger.AssertCalled(t, "SendText", mock.Anything, "u1", "Usually not.")
	f.messenger.AssertCalled(t, "SendText", mock.Anything, "u1", textsFor(models.LanguageEnglish).AssistantUnavailable)
	assert.Equal(t, models.LanguageEnglish, f.session(t, "u1").LastLanguage)
}

func TestDispatch_SendFailureDoesNotAffectFlow(t *testing.T) {
	messenger := new(mocks.MockMessenger)
	messenger.On("SendMenu", mock.Anything, "u1", mock.Anything).Return(errors.New("graph api 500"))
	f := newDispatcherFixture(messenger)

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), textIn("u1", "احجز")))

	assert.Equal(t, models.FlowBooking, f.session(t, "u1").ActiveFlow)
}

// concurrencyMessenger records the highest number of turns of one user
// observed sending at the same time.
type concurrencyMessenger struct {
	active int32
	max    int32
}

func (m *concurrencyMessenger) enter() {
	n := atomic.AddInt32(&m.active, 1)
	for {
		cur := atomic.LoadInt32(&m.max)
		if n <= cur || atomic.CompareAndSwapInt32(&m.max, cur, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	atomic.AddInt32(&m.active, -1)
}

func (m *concurrencyMessenger) SendText(context.Context, string, string) error {
	m.enter()
	return nil
}

func (m *concurrencyMessenger) SendMenu(context.Context, string, models.Menu) error {
	m.enter()
	return nil
}

func (m *concurrencyMessenger) SendImage(context.Context, string, string, string) error {
	m.enter()
	return nil
}

func TestDispatch_SerializesTurnsOfOneUser(t *testing.T) {
	messenger := &concurrencyMessenger{}
	f := newDispatcherFixture(messenger)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.dispatcher.Dispatch(context.Background(), textIn("u1", "احجز")))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&messenger.max))
	sess := f.session(t, "u1")
	assert.Equal(t, models.FlowBooking, sess.ActiveFlow)
	assert.Equal(t, models.StepAwaitSlot, sess.Booking.Step())
}

func TestDispatch_LockTimeout(t *testing.T) {
	f := newDispatcherFixture(nil)
	release, err := f.store.Lock(context.Background(), "u1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = f.dispatcher.Dispatch(ctx, textIn("u1", "احجز"))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	f.messenger.AssertNotCalled(t, "SendMenu", mock.Anything, mock.Anything, mock.Anything)
}

// flakySaveStore fails the first Save and delegates everything else.
type flakySaveStore struct {
	*MemoryStore
	failed atomic.Bool
}

func (s *flakySaveStore) Save(ctx context.Context, sess *models.Session) error {
	if s.failed.CompareAndSwap(false, true) {
		return errors.New("redis unavailable")
	}
	return s.MemoryStore.Save(ctx, sess)
}

// idBookingStore keeps bookings by ID the way the Mongo repository does.
type idBookingStore struct {
	mu       sync.Mutex
	byID     map[string]models.Booking
	appended []string
}

func (s *idBookingStore) AppendBooking(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended = append(s.appended, b.ID)
	if _, ok := s.byID[b.ID]; ok {
		return ErrBookingExists
	}
	s.byID[b.ID] = *b
	return nil
}

func (s *idBookingStore) FindLatestBookingByPhone(context.Context, string) (*models.Booking, error) {
	return nil, ErrBookingNotFound
}

func (s *idBookingStore) MarkCancelled(context.Context, string) error {
	return ErrBookingNotFound
}

func TestDispatch_SaveFailureAfterPersistDoesNotDuplicate(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()
	store := &flakySaveStore{MemoryStore: f.store}
	bookings := &idBookingStore{byID: map[string]models.Booking{}}
	f.notifier.On("BookingCreated", mock.Anything, mock.Anything).Return(nil).Once()

	catalog := newTestCatalog()
	dispatcher := NewDispatcher(DispatcherDeps{
		Store:      store,
		Normalizer: NewNormalizer(f.transcriber, time.Second),
		Engine:     NewEngine(catalog, NewClassifier(catalog), NewValidators(f.assistant, catalog, time.Second, zap.NewNop()), zap.NewNop()),
		Messenger:  f.messenger,
		Assistant:  f.assistant,
		Bookings:   bookings,
		Notifier:   f.notifier,
		Timeout:    time.Second,
		Logger:     zap.NewNop(),
	})

	// Seeding goes through the embedded store so the one failure is left
	// for the confirmation turn.
	f.seed(t, bookingSession(models.BookingDraft{BookingID: "b-9", AppointmentSlot: "sat", Name: "Ali", Phone: "0785050875"}))

	err := dispatcher.Dispatch(ctx, textIn("u1", "فحص عام"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session")
	assert.Equal(t, models.StepAwaitService, f.session(t, "u1").Booking.Step())

	require.NoError(t, dispatcher.Dispatch(ctx, textIn("u1", "فحص عام")))

	assert.Equal(t, []string{"b-9", "b-9"}, bookings.appended)
	assert.Len(t, bookings.byID, 1)
	assert.Equal(t, models.FlowNone, f.session(t, "u1").ActiveFlow)
	f.notifier.AssertNumberOfCalls(t, "BookingCreated", 1)
	f.messenger.AssertNotCalled(t, "SendText", mock.Anything, "u1", textsFor(models.LanguageArabic).BookingFailed)
}

func TestDispatch_PhoneStepFixesBookingID(t *testing.T) {
	f := newDispatcherFixture(nil)
	ctx := context.Background()
	f.seed(t, bookingSession(models.BookingDraft{AppointmentSlot: "sat", Name: "Ali"}))
	f.bookings.On("AppendBooking", mock.Anything, mock.Anything).Return(errors.New("mongo unavailable")).Once()
	f.bookings.On("AppendBooking", mock.Anything, mock.Anything).Return(nil).Once()
	f.notifier.On("BookingCreated", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.dispatcher.Dispatch(ctx, textIn("u1", "0785050875")))
	id := f.session(t, "u1").Booking.BookingID
	require.NotEmpty(t, id)

	require.NoError(t, f.dispatcher.Dispatch(ctx, textIn("u1", "فحص عام")))
	require.NoError(t, f.dispatcher.Dispatch(ctx, textIn("u1", "فحص عام")))

	calls := f.bookings.Calls
	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.Equal(t, id, c.Arguments.Get(1).(*models.Booking).ID)
	}
}
