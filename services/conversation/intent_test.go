package conversation

import (
	"testing"

	"clinicbot/models"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(newTestCatalog())

	tests := []struct {
		text string
		want Intent
	}{
		{"الغاء الحجز", IntentCancellation},
		{"إلغاء موعدي", IntentCancellation},
		{"please cancel my booking", IntentCancellation},
		{"وين موقعكم", IntentLocation},
		{"send me your address", IntentLocation},
		{"عندكم عروض؟", IntentOffers},
		{"what's the price of booking a cleaning", IntentOffers},
		{"منو الدكتور", IntentDoctors},
		{"هل تفتحون يوم الجمعة", IntentClosedDay},
		{"are you open on Friday", IntentClosedDay},
		{"6", IntentBookingShortcut},
		{"٦", IntentBookingShortcut},
		{"احجز", IntentBookingRequest},
		{"I want to book an appointment", IntentBookingRequest},
		{"hello there", IntentAIFallback},
		{"مرحبا", IntentAIFallback},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(models.Turn{Text: tt.text, Language: DetectLanguage(tt.text)}))
		})
	}
}

func TestClassify_CancellationWinsOverBooking(t *testing.T) {
	c := NewClassifier(newTestCatalog())
	for _, text := range []string{"cancel booking", "book cancel", "احجز لا الغاء", "كنسل الموعد"} {
		assert.Equal(t, IntentCancellation, c.Classify(models.Turn{Text: text}), text)
	}
}

func TestIsCancellation_IgnoresSelections(t *testing.T) {
	c := NewClassifier(newTestCatalog())
	assert.True(t, c.IsCancellation(models.Turn{Text: "الغاء"}))
	assert.False(t, c.IsCancellation(models.Turn{Text: "cancel", SelectionID: "service_cancel"}))
	assert.False(t, c.IsCancellation(models.Turn{Text: "Ali Hassan"}))
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "booking_request", IntentBookingRequest.String())
	assert.Equal(t, "ai_fallback", IntentAIFallback.String())
}
