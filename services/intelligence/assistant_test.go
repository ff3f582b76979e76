package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clinicbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		reply string
		want  models.NameVerdict
	}{
		{"YES", models.NamePlausible},
		{"yes.", models.NamePlausible},
		{"**Yes**", models.NamePlausible},
		{"نعم", models.NamePlausible},
		{"NO", models.NameImplausible},
		{"no, that is a fruit", models.NameImplausible},
		{"لا", models.NameImplausible},
		{"Maybe", models.NameIndeterminate},
		{"", models.NameIndeterminate},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			assert.Equal(t, tt.want, parseVerdict(tt.reply))
		})
	}
}

func TestAnswer(t *testing.T) {
	gen := &fakeGenerator{reply: "  We are open daily except Friday.  "}
	a := NewClinicAssistant(gen, "Smile Clinic", zap.NewNop())

	reply, err := a.Answer(context.Background(), "when are you open", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, "We are open daily except Friday.", reply)
	require.Len(t, gen.prompts, 1)
	assert.True(t, strings.Contains(gen.prompts[0], "Smile Clinic"))
	assert.True(t, strings.Contains(gen.prompts[0], "English"))
	assert.True(t, strings.Contains(gen.prompts[0], "when are you open"))
}

func TestAnswer_ArabicUsesArabicBookingWord(t *testing.T) {
	gen := &fakeGenerator{reply: "أهلاً"}
	a := NewClinicAssistant(gen, "عيادة", zap.NewNop())

	_, err := a.Answer(context.Background(), "شلون احجز", models.LanguageArabic)
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "Iraqi Arabic")
	assert.Contains(t, gen.prompts[0], "حجز")
}

func TestIsPlausibleName(t *testing.T) {
	a := NewClinicAssistant(&fakeGenerator{reply: "NO"}, "clinic", zap.NewNop())
	verdict, err := a.IsPlausibleName(context.Background(), "Banana")
	require.NoError(t, err)
	assert.Equal(t, models.NameImplausible, verdict)

	a = NewClinicAssistant(&fakeGenerator{err: errors.New("quota")}, "clinic", zap.NewNop())
	verdict, err = a.IsPlausibleName(context.Background(), "Ali")
	assert.Error(t, err)
	assert.Equal(t, models.NameIndeterminate, verdict)
}

func TestAssistant_WithoutGenerator(t *testing.T) {
	a := NewClinicAssistant(nil, "clinic", zap.NewNop())

	_, err := a.Answer(context.Background(), "hi?", models.LanguageEnglish)
	assert.ErrorIs(t, err, ErrNotConfigured)

	verdict, err := a.IsPlausibleName(context.Background(), "Ali")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, models.NameIndeterminate, verdict)
}
