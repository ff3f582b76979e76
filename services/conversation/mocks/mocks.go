package mocks

import (
	"context"

	"clinicbot/models"

	"github.com/stretchr/testify/mock"
)

// MockMessenger is a mock implementation of conversation.Messenger
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendText(ctx context.Context, to, text string) error {
	args := m.Called(ctx, to, text)
	return args.Error(0)
}

func (m *MockMessenger) SendMenu(ctx context.Context, to string, menu models.Menu) error {
	args := m.Called(ctx, to, menu)
	return args.Error(0)
}

func (m *MockMessenger) SendImage(ctx context.Context, to, url, caption string) error {
	args := m.Called(ctx, to, url, caption)
	return args.Error(0)
}

// MockTranscriber is a mock implementation of conversation.Transcriber
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, mediaRef string) (string, error) {
	args := m.Called(ctx, mediaRef)
	return args.String(0), args.Error(1)
}

// MockAssistant is a mock implementation of conversation.Assistant
type MockAssistant struct {
	mock.Mock
}

func (m *MockAssistant) Answer(ctx context.Context, question string, lang models.Language) (string, error) {
	args := m.Called(ctx, question, lang)
	return args.String(0), args.Error(1)
}

func (m *MockAssistant) IsPlausibleName(ctx context.Context, name string) (models.NameVerdict, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(models.NameVerdict), args.Error(1)
}

// MockBookingStore is a mock implementation of conversation.BookingStore
type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) AppendBooking(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingStore) FindLatestBookingByPhone(ctx context.Context, phone string) (*models.Booking, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingStore) MarkCancelled(ctx context.Context, bookingID string) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

// MockNotifier is a mock implementation of conversation.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BookingCreated(ctx context.Context, booking models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockNotifier) BookingCancelled(ctx context.Context, booking models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}
