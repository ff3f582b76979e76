package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinicbot/utils"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const MaxAudioSize = 5 * 1024 * 1024 // synchronous recognition limit, with headroom

var (
	ErrAudioTooLarge = errors.New("voice note exceeds the recognition size limit")
	ErrNotConfigured = errors.New("speech recognition is not configured")
)

// MediaFetcher downloads a media object by the id the channel assigned to it.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, mediaID string) (data []byte, mimeType string, err error)
}

// Recognizer is the subset of the Google speech client used here.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
}

type googleRecognizer struct {
	client *speech.Client
}

func (g googleRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return g.client.Recognize(ctx, req)
}

// Transcriber turns WhatsApp voice notes into text with Google Speech-to-Text.
type Transcriber struct {
	fetcher      MediaFetcher
	recognizer   Recognizer
	language     string
	altLanguages []string
	closer       func() error
}

// NewGoogleTranscriber builds a Transcriber backed by the Google speech API.
// An empty credentialsFile falls back to application default credentials.
func NewGoogleTranscriber(ctx context.Context, fetcher MediaFetcher, credentialsFile, language string, altLanguages []string) (*Transcriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	t := NewTranscriber(fetcher, googleRecognizer{client: client}, language, altLanguages)
	t.closer = client.Close
	return t, nil
}

func NewTranscriber(fetcher MediaFetcher, recognizer Recognizer, language string, altLanguages []string) *Transcriber {
	return &Transcriber{
		fetcher:      fetcher,
		recognizer:   recognizer,
		language:     language,
		altLanguages: altLanguages,
	}
}

func (t *Transcriber) Transcribe(ctx context.Context, mediaRef string) (string, error) {
	if t.recognizer == nil {
		return "", ErrNotConfigured
	}
	audio, mimeType, err := t.fetcher.DownloadMedia(ctx, mediaRef)
	if err != nil {
		return "", fmt.Errorf("download voice note: %w", err)
	}
	if len(audio) > MaxAudioSize {
		return "", ErrAudioTooLarge
	}

	encoding, sampleRate := encodingFor(mimeType)
	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            sampleRate,
			LanguageCode:               t.language,
			AlternativeLanguageCodes:   t.altLanguages,
			AudioChannelCount:          1,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := t.recognizer.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		transcript.WriteString(alts[0].GetTranscript())
		transcript.WriteString(" ")
	}
	text := strings.TrimSpace(transcript.String())
	utils.GetLogger().Debug("voice note transcribed",
		zap.String("media_id", mediaRef),
		zap.String("mime_type", mimeType),
		zap.Int("chars", len(text)))
	return text, nil
}

func (t *Transcriber) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer()
}

// encodingFor maps the media mime type to a recognition encoding. WhatsApp
// voice notes are Opus in an Ogg container.
func encodingFor(mimeType string) (speechpb.RecognitionConfig_AudioEncoding, int32) {
	base := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	switch base {
	case "audio/amr":
		return speechpb.RecognitionConfig_AMR, 8000
	case "audio/webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, 48000
	default:
		return speechpb.RecognitionConfig_OGG_OPUS, 16000
	}
}
