// Package transcribe sends short audio clips to a speech-to-text-translate
// service and reports tagged outcomes instead of errors.
package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/alnah/go-extract/internal/apierr"
	"github.com/alnah/go-extract/internal/lang"
)

// Sarvam service identifiers.
const (
	SarvamEndpoint     = "https://api.sarvam.ai/speech-to-text-translate"
	DefaultSarvamModel = "saaras:v2"
	EnvSarvamAPIKey    = "SARVAM_API_KEY"

	subscriptionHeader = "api-subscription-key"
	sourceLanguageAuto = "auto-detect"
	targetLanguage     = "en"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Default retry configuration. The base delay is above DefaultPacing so a
// retry never lands inside the pacing window of the failed attempt.
const (
	defaultMaxRetries = 2
	defaultBaseDelay  = 2 * time.Second
	defaultMaxDelay   = 10 * time.Second
)

// Clip is an audio file ready for upload.
type Clip struct {
	Path        string
	ContentType string
}

// Transcriber turns one clip into a tagged outcome. Implementations never
// return errors: failures are Outcome kinds.
type Transcriber interface {
	// Name identifies the backend in extraction method tags.
	Name() string
	Transcribe(ctx context.Context, clip Clip) Outcome
}

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface checks.
var (
	_ Transcriber = (*SarvamTranscriber)(nil)
	_ httpDoer    = (*http.Client)(nil)
)

// settings are shared by every backend.
type settings struct {
	httpClient httpDoer
	endpoint   string
	model      string
	pacer      *Pacer
	retry      apierr.RetryConfig
	log        zerolog.Logger
}

func defaultSettings() settings {
	return settings{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		endpoint:   SarvamEndpoint,
		pacer:      NewPacer(DefaultPacing),
		retry: apierr.RetryConfig{
			MaxRetries: defaultMaxRetries,
			BaseDelay:  defaultBaseDelay,
			MaxDelay:   defaultMaxDelay,
		},
		log: zerolog.Nop(),
	}
}

// Option configures a transcriber.
type Option func(*settings)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c httpDoer) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithEndpoint overrides the service URL.
func WithEndpoint(url string) Option {
	return func(s *settings) {
		if url != "" {
			s.endpoint = url
		}
	}
}

// WithModel selects the speech model.
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithPacer shares a pacer between transcribers.
func WithPacer(p *Pacer) Option {
	return func(s *settings) {
		if p != nil {
			s.pacer = p
		}
	}
}

// WithMaxRetries sets the number of retries for transient failures.
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.retry.MaxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(s *settings) {
		if base > 0 {
			s.retry.BaseDelay = base
		}
		if max > 0 {
			s.retry.MaxDelay = max
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// SarvamTranscriber calls Sarvam's speech-to-text-translate endpoint, which
// detects the spoken language and returns an English translation.
type SarvamTranscriber struct {
	apiKey string
	settings
}

// NewSarvamTranscriber creates a transcriber. An empty apiKey is accepted:
// every call then reports KindMissingCredential without touching the network.
func NewSarvamTranscriber(apiKey string, opts ...Option) *SarvamTranscriber {
	s := defaultSettings()
	s.model = DefaultSarvamModel
	for _, opt := range opts {
		opt(&s)
	}
	return &SarvamTranscriber{apiKey: strings.TrimSpace(apiKey), settings: s}
}

// Name identifies the backend in method tags.
func (t *SarvamTranscriber) Name() string {
	return "Sarvam AI " + t.model
}

// Transcribe uploads clip and classifies the response.
func (t *SarvamTranscriber) Transcribe(ctx context.Context, clip Clip) Outcome {
	if t.apiKey == "" {
		return MissingCredential(EnvSarvamAPIKey)
	}

	body, contentType, err := t.buildForm(clip)
	if err != nil {
		return Failure(KindMediaRead, err)
	}

	attempt := 0
	out, err := apierr.RetryWithBackoff(ctx, t.retry, func() (Outcome, error) {
		attempt++
		t.log.Debug().Str("clip", filepath.Base(clip.Path)).Int("attempt", attempt).Msg("uploading clip")
		return t.send(ctx, body, contentType)
	}, apierr.IsTransient)
	if err != nil {
		t.log.Debug().Err(err).Int("attempts", attempt).Msg("transcription failed")
		return FromError(err)
	}
	return out
}

// buildForm reads the clip once; retries reuse the encoded body.
func (t *SarvamTranscriber) buildForm(clip Clip) ([]byte, string, error) {
	f, err := os.Open(clip.Path) // #nosec G304 -- clip paths are temp files or user inputs
	if err != nil {
		return nil, "", fmt.Errorf("open clip: %w", err)
	}
	defer func() { _ = f.Close() }()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	ct := clip.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filepath.Base(clip.Path))))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read clip: %w", err)
	}

	fields := [][2]string{
		{"model", t.model},
		{"source_language", sourceLanguageAuto},
		{"target_language", targetLanguage},
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write %s field: %w", kv[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// send performs one paced HTTP attempt.
func (t *SarvamTranscriber) send(ctx context.Context, body []byte, contentType string) (Outcome, error) {
	var resp *http.Response
	err := t.pacer.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(subscriptionHeader, t.apiKey)
		resp, err = t.httpClient.Do(req)
		return err
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", apierr.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: read response: %v", apierr.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Outcome{}, &apierr.Error{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}
	return parseResponse(raw)
}

// parseResponse accepts the field-name variants the service has used.
func parseResponse(raw []byte) (Outcome, error) {
	if !gjson.ValidBytes(raw) {
		return Outcome{}, fmt.Errorf("%w: %s", ErrMalformedResponse, truncate(string(raw), 200))
	}

	translated := firstString(raw, "target_text", "transcript")
	source := firstString(raw, "source_text", "source_transcript")
	language := firstString(raw, "detected_language", "source_language_code", "language_code")
	if language == "" {
		language = lang.Unknown
	}

	if strings.TrimSpace(translated) == "" && strings.TrimSpace(source) == "" {
		return NoSpeech(language), nil
	}
	return Transcribed(source, translated, language), nil
}

// errorMessage picks the most specific message in an error body:
// detail, error.message, error (as a string), message, then the raw body.
func errorMessage(status int, raw []byte) string {
	if gjson.ValidBytes(raw) {
		for _, path := range []string{"detail", "error.message", "error", "message"} {
			r := gjson.GetBytes(raw, path)
			if !r.Exists() || r.Type == gjson.Null || r.IsObject() {
				continue
			}
			if s := strings.TrimSpace(r.String()); s != "" {
				return s
			}
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return truncate(s, 500)
	}
	return http.StatusText(status)
}

// firstString returns the first non-empty string among paths.
func firstString(raw []byte, paths ...string) string {
	for _, p := range paths {
		if r := gjson.GetBytes(raw, p); r.Exists() && r.Type != gjson.Null {
			if s := strings.TrimSpace(r.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
