package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinicbot/models"
)

// Normalizer converts the three inbound modalities into one canonical Turn.
type Normalizer struct {
	transcriber Transcriber
	timeout     time.Duration
}

func NewNormalizer(transcriber Transcriber, timeout time.Duration) *Normalizer {
	return &Normalizer{transcriber: transcriber, timeout: timeout}
}

// Normalize builds the canonical turn. Selections carry no language signal of
// their own and inherit the session's last language.
func (n *Normalizer) Normalize(ctx context.Context, in models.Inbound, sess *models.Session) (models.Turn, error) {
	switch in.Kind {
	case models.InboundText:
		return textTurn(in.Text), nil

	case models.InboundVoice:
		if in.MediaRef == "" {
			return models.Turn{}, ErrTranscriptionUnavailable
		}
		callCtx, cancel := boundedContext(ctx, n.timeout)
		defer cancel()
		transcript, err := n.transcriber.Transcribe(callCtx, in.MediaRef)
		if err != nil {
			return models.Turn{}, fmt.Errorf("%w: %v", ErrTranscriptionUnavailable, err)
		}
		if strings.TrimSpace(transcript) == "" {
			return models.Turn{}, ErrTranscriptionUnavailable
		}
		return textTurn(transcript), nil

	case models.InboundSelection:
		return models.Turn{
			Text:        selectionText(in.SelectionID),
			SelectionID: in.SelectionID,
			Language:    sess.LastLanguage,
		}, nil

	default:
		return models.Turn{}, ErrUnsupportedInput
	}
}

func textTurn(text string) models.Turn {
	return models.Turn{Text: text, Language: DetectLanguage(text)}
}

// selectionText strips the id prefix and turns separators into spaces:
// "slot_sat_4pm" becomes "sat 4pm".
func selectionText(id string) string {
	token := id
	for _, prefix := range []string{slotPrefix, servicePrefix} {
		if strings.HasPrefix(token, prefix) {
			token = strings.TrimPrefix(token, prefix)
			break
		}
	}
	return strings.Join(strings.FieldsFunc(token, func(r rune) bool {
		return r == '_' || r == '-'
	}), " ")
}
