package speech

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	data     []byte
	mimeType string
	err      error
}

func (f fakeFetcher) DownloadMedia(context.Context, string) ([]byte, string, error) {
	return f.data, f.mimeType, f.err
}

type fakeRecognizer struct {
	resp *speechpb.RecognizeResponse
	err  error
	req  *speechpb.RecognizeRequest
}

func (f *fakeRecognizer) Recognize(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	f.req = req
	return f.resp, f.err
}

func result(alternatives ...string) *speechpb.SpeechRecognitionResult {
	r := &speechpb.SpeechRecognitionResult{}
	for _, a := range alternatives {
		r.Alternatives = append(r.Alternatives, &speechpb.SpeechRecognitionAlternative{Transcript: a})
	}
	return r
}

func TestTranscribe(t *testing.T) {
	rec := &fakeRecognizer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{result("احجز موعد", "احجز مواعيد"), result("يوم السبت")},
	}}
	tr := NewTranscriber(fakeFetcher{data: []byte("ogg"), mimeType: "audio/ogg; codecs=opus"}, rec, "ar-IQ", []string{"en-US"})

	text, err := tr.Transcribe(context.Background(), "media-1")
	require.NoError(t, err)
	assert.Equal(t, "احجز موعد يوم السبت", text)

	cfg := rec.req.GetConfig()
	assert.Equal(t, speechpb.RecognitionConfig_OGG_OPUS, cfg.GetEncoding())
	assert.Equal(t, int32(16000), cfg.GetSampleRateHertz())
	assert.Equal(t, "ar-IQ", cfg.GetLanguageCode())
	assert.Equal(t, []string{"en-US"}, cfg.GetAlternativeLanguageCodes())
	assert.Equal(t, []byte("ogg"), rec.req.GetAudio().GetContent())
}

func TestTranscribe_Errors(t *testing.T) {
	_, err := NewTranscriber(fakeFetcher{err: errors.New("404")}, &fakeRecognizer{}, "ar-IQ", nil).
		Transcribe(context.Background(), "media-1")
	assert.Error(t, err)

	_, err = NewTranscriber(fakeFetcher{data: make([]byte, MaxAudioSize+1)}, &fakeRecognizer{}, "ar-IQ", nil).
		Transcribe(context.Background(), "media-1")
	assert.ErrorIs(t, err, ErrAudioTooLarge)

	_, err = NewTranscriber(fakeFetcher{data: []byte("ogg")}, &fakeRecognizer{err: errors.New("quota")}, "ar-IQ", nil).
		Transcribe(context.Background(), "media-1")
	assert.Error(t, err)

	_, err = NewTranscriber(fakeFetcher{data: []byte("ogg")}, nil, "ar-IQ", nil).
		Transcribe(context.Background(), "media-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestEncodingFor(t *testing.T) {
	enc, rate := encodingFor("audio/amr")
	assert.Equal(t, speechpb.RecognitionConfig_AMR, enc)
	assert.Equal(t, int32(8000), rate)

	enc, _ = encodingFor("")
	assert.Equal(t, speechpb.RecognitionConfig_OGG_OPUS, enc)
}
