package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinicbot/models"

	"go.uber.org/zap"
)

// Generator produces a completion for a single prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// ErrNotConfigured is returned by an assistant built without a generator.
var ErrNotConfigured = errors.New("assistant has no language model configured")

// ClinicAssistant answers patient questions and screens names with a language model.
type ClinicAssistant struct {
	gen        Generator
	clinicName string
	logger     *zap.Logger
}

// NewClinicAssistant builds the assistant. A nil gen yields an assistant whose
// calls all fail with ErrNotConfigured.
func NewClinicAssistant(gen Generator, clinicName string, logger *zap.Logger) *ClinicAssistant {
	return &ClinicAssistant{gen: gen, clinicName: clinicName, logger: logger}
}

const answerPrompt = `You are the WhatsApp receptionist of %s, a dental clinic.
Answer the patient's message briefly (at most three sentences) in %s.
Do not invent prices, doctors' names or opening hours you were not given.
If the patient wants an appointment, tell them to type %q.

Patient: %s`

const namePrompt = `Is the following text a plausible real personal name (first name, optionally with family names) in Arabic or English?
Reply with exactly one word: YES or NO.

Text: %s`

func (a *ClinicAssistant) Answer(ctx context.Context, question string, lang models.Language) (string, error) {
	if a.gen == nil {
		return "", ErrNotConfigured
	}
	language, bookWord := "Iraqi Arabic", "حجز"
	if lang == models.LanguageEnglish {
		language, bookWord = "English", "book"
	}

	reply, err := a.gen.GenerateContent(ctx, fmt.Sprintf(answerPrompt, a.clinicName, language, bookWord, question))
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

func (a *ClinicAssistant) IsPlausibleName(ctx context.Context, name string) (models.NameVerdict, error) {
	if a.gen == nil {
		return models.NameIndeterminate, ErrNotConfigured
	}
	reply, err := a.gen.GenerateContent(ctx, fmt.Sprintf(namePrompt, name))
	if err != nil {
		return models.NameIndeterminate, fmt.Errorf("check name: %w", err)
	}
	verdict := parseVerdict(reply)
	if verdict == models.NameIndeterminate {
		a.logger.Debug("unparseable name verdict", zap.String("reply", reply))
	}
	return verdict, nil
}

// parseVerdict reads the first word of a YES/NO reply, in English or Arabic.
func parseVerdict(reply string) models.NameVerdict {
	fields := strings.FieldsFunc(strings.ToUpper(reply), func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '.' || r == ',' || r == '!' || r == '*'
	})
	if len(fields) == 0 {
		return models.NameIndeterminate
	}
	switch fields[0] {
	case "YES", "نعم":
		return models.NamePlausible
	case "NO", "لا":
		return models.NameImplausible
	default:
		return models.NameIndeterminate
	}
}
