package transcribe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-extract/internal/apierr"
	"github.com/alnah/go-extract/internal/lang"
)

// EnvOpenAIAPIKey holds the key for the OpenAI backend.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// audioClient is the slice of *openai.Client this backend uses.
type audioClient interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
	CreateTranslation(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var (
	_ Transcriber = (*OpenAITranscriber)(nil)
	_ audioClient = (*openai.Client)(nil)
)

// OpenAITranscriber is the alternate backend: Whisper transcribes in the
// spoken language (reporting it), then translates to English. Each request
// goes through the shared pacer.
type OpenAITranscriber struct {
	client audioClient
	ready  bool
	settings
}

// NewOpenAITranscriber creates the backend. An empty apiKey makes every
// call report KindMissingCredential.
func NewOpenAITranscriber(apiKey string, opts ...Option) *OpenAITranscriber {
	var client audioClient
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}
	return newOpenAITranscriber(client, apiKey != "", opts...)
}

func newOpenAITranscriber(client audioClient, ready bool, opts ...Option) *OpenAITranscriber {
	s := defaultSettings()
	s.model = openai.Whisper1
	for _, opt := range opts {
		opt(&s)
	}
	return &OpenAITranscriber{client: client, ready: ready && client != nil, settings: s}
}

// Name identifies the backend in method tags.
func (t *OpenAITranscriber) Name() string {
	return "OpenAI " + t.model
}

// Transcribe runs transcription, then translation unless the clip is already English.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, clip Clip) Outcome {
	if !t.ready {
		return MissingCredential(EnvOpenAIAPIKey)
	}

	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: clip.Path,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	source, err := t.call(ctx, t.client.CreateTranscription, req)
	if err != nil {
		return FromError(err)
	}
	language := source.Language
	if !lang.Known(language) {
		language = lang.Unknown
	}
	if source.Text == "" {
		return NoSpeech(language)
	}
	if lang.BaseCode(language) == "en" {
		return Transcribed(source.Text, source.Text, language)
	}

	req.Format = openai.AudioResponseFormatJSON
	translated, err := t.call(ctx, t.client.CreateTranslation, req)
	if err != nil {
		return FromError(err)
	}
	return Transcribed(source.Text, translated.Text, language)
}

type audioCall func(context.Context, openai.AudioRequest) (openai.AudioResponse, error)

func (t *OpenAITranscriber) call(ctx context.Context, fn audioCall, req openai.AudioRequest) (openai.AudioResponse, error) {
	return apierr.RetryWithBackoff(ctx, t.retry, func() (openai.AudioResponse, error) {
		var resp openai.AudioResponse
		err := t.pacer.Do(ctx, func() error {
			var err error
			resp, err = fn(ctx, req)
			return err
		})
		if err != nil {
			t.log.Debug().Err(err).Str("clip", filepath.Base(req.FilePath)).Msg("openai request failed")
			return resp, classifyOpenAIError(err)
		}
		return resp, nil
	}, apierr.IsTransient)
}

// classifyOpenAIError maps go-openai errors onto *apierr.Error or ErrNetwork.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &apierr.Error{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := reqErr.Error()
		if len(reqErr.Body) > 0 {
			msg = errorMessage(reqErr.HTTPStatusCode, reqErr.Body)
		}
		return &apierr.Error{StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apierr.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", apierr.ErrNetwork, err)
}
