package transcribe_test

// Notes:
// - The Sarvam client is exercised against httptest servers, so the real
//   multipart encoding, headers and status handling run end to end.
// - Retry delays are shrunk to 1ms and pacing disabled (NewPacer(0)) to keep
//   the suite fast; pacing itself is covered in pacer_test.go.
// - Response parsing is table-tested through the ParseResponse export.

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/go-extract/internal/apierr"
	"github.com/alnah/go-extract/internal/transcribe"
)

func writeClip(t *testing.T) transcribe.Clip {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFF\x00\x00\x00\x00WAVEfmt "), 0o600); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	return transcribe.Clip{Path: path, ContentType: "audio/wav"}
}

func fastOpts(url string) []transcribe.Option {
	return []transcribe.Option{
		transcribe.WithEndpoint(url),
		transcribe.WithPacer(transcribe.NewPacer(0)),
		transcribe.WithRetryDelays(time.Millisecond, time.Millisecond),
	}
}

// stubServer replies with status and body and counts requests.
func stubServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// mockHTTPDoer counts calls and returns a fixed error.
type mockHTTPDoer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockHTTPDoer) Do(*http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return nil, m.err
}

func (m *mockHTTPDoer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ---------------------------------------------------------------------------
// SarvamTranscriber - credential
// ---------------------------------------------------------------------------

func TestSarvamTranscriber_MissingCredential(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"", "   "} {
		doer := &mockHTTPDoer{}
		tr := transcribe.NewSarvamTranscriber(key, transcribe.WithHTTPClient(doer))

		out := tr.Transcribe(context.Background(), writeClip(t))

		if out.Kind != transcribe.KindMissingCredential {
			t.Errorf("key %q: Kind = %v, want MissingCredential", key, out.Kind)
		}
		if doer.CallCount() != 0 {
			t.Errorf("key %q: transport calls = %d, want 0", key, doer.CallCount())
		}
		if !errors.Is(out.Err(), transcribe.ErrMissingCredential) {
			t.Errorf("Err() = %v, want ErrMissingCredential", out.Err())
		}
	}
}

// ---------------------------------------------------------------------------
// SarvamTranscriber - request shape
// ---------------------------------------------------------------------------

func TestSarvamTranscriber_Request(t *testing.T) {
	t.Parallel()

	type captured struct {
		key, method, fileCT, fileName string
		fields                        map[string]string
		fileBytes                     []byte
	}
	got := make(chan captured, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{key: r.Header.Get("api-subscription-key"), method: r.Method, fields: map[string]string{}}
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Errorf("content type: %v", err)
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(p)
			if p.FormName() == "file" {
				c.fileCT = p.Header.Get("Content-Type")
				c.fileName = p.FileName()
				c.fileBytes = data
				continue
			}
			c.fields[p.FormName()] = string(data)
		}
		got <- c
		_, _ = io.WriteString(w, `{"transcript":"hello","language_code":"hi-IN"}`)
	}))
	defer srv.Close()

	clip := writeClip(t)
	tr := transcribe.NewSarvamTranscriber("sk-test", fastOpts(srv.URL)...)
	out := tr.Transcribe(context.Background(), clip)
	if !out.OK() {
		t.Fatalf("Transcribe() = %+v, want success", out)
	}

	c := <-got
	if c.method != http.MethodPost {
		t.Errorf("method = %s, want POST", c.method)
	}
	if c.key != "sk-test" {
		t.Errorf("subscription header = %q, want sk-test", c.key)
	}
	if c.fileCT != "audio/wav" || c.fileName != "clip.wav" {
		t.Errorf("file part = (%q, %q), want (audio/wav, clip.wav)", c.fileCT, c.fileName)
	}
	want, _ := os.ReadFile(clip.Path)
	if string(c.fileBytes) != string(want) {
		t.Errorf("file bytes differ from clip")
	}
	wantFields := map[string]string{
		"model":           "saaras:v2",
		"source_language": "auto-detect",
		"target_language": "en",
	}
	for k, v := range wantFields {
		if c.fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, c.fields[k], v)
		}
	}
}

// ---------------------------------------------------------------------------
// SarvamTranscriber - outcomes by response
// ---------------------------------------------------------------------------

func TestSarvamTranscriber_Outcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   transcribe.Kind
		wantStatus int
		wantMsg    string
		wantCalls  int32
	}{
		{
			name:      "empty transcripts on 200",
			status:    200,
			body:      `{"transcript":"","source_transcript":"  ","language_code":"ta-IN"}`,
			wantKind:  transcribe.KindNoSpeech,
			wantCalls: 1,
		},
		{
			name:       "503 nested error message after retries",
			status:     503,
			body:       `{"error":{"message":"overloaded"}}`,
			wantKind:   transcribe.KindAPI,
			wantStatus: 503,
			wantMsg:    "overloaded",
			wantCalls:  3,
		},
		{
			name:       "400 detail wins",
			status:     400,
			body:       `{"detail":"unsupported file","message":"ignored"}`,
			wantKind:   transcribe.KindAPI,
			wantStatus: 400,
			wantMsg:    "unsupported file",
			wantCalls:  1,
		},
		{
			name:       "401 raw body when not json",
			status:     401,
			body:       `Invalid API key`,
			wantKind:   transcribe.KindAPI,
			wantStatus: 401,
			wantMsg:    "Invalid API key",
			wantCalls:  1,
		},
		{
			name:       "200 with non json body",
			status:     200,
			body:       `<html>gateway</html>`,
			wantKind:   transcribe.KindAPI,
			wantStatus: 200,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, calls := stubServer(t, tt.status, tt.body)
			tr := transcribe.NewSarvamTranscriber("sk", fastOpts(srv.URL)...)

			out := tr.Transcribe(context.Background(), writeClip(t))

			if out.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v (%+v)", out.Kind, tt.wantKind, out)
			}
			if tt.wantStatus != 0 && out.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", out.StatusCode, tt.wantStatus)
			}
			if tt.wantMsg != "" && out.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", out.Message, tt.wantMsg)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("server calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestSarvamTranscriber_503WithoutRetries(t *testing.T) {
	t.Parallel()

	srv, calls := stubServer(t, 503, `{"error":{"message":"overloaded"}}`)
	opts := append(fastOpts(srv.URL), transcribe.WithMaxRetries(0))
	tr := transcribe.NewSarvamTranscriber("sk", opts...)

	out := tr.Transcribe(context.Background(), writeClip(t))

	if out.Kind != transcribe.KindAPI || out.StatusCode != 503 || out.Message != "overloaded" {
		t.Errorf("outcome = %+v, want ApiError{503, overloaded}", out)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}
	var apiErr *apierr.Error
	if !errors.As(out.Err(), &apiErr) || apiErr.StatusCode != 503 {
		t.Errorf("Err() = %v, want *apierr.Error 503", out.Err())
	}
}

func TestSarvamTranscriber_NetworkError(t *testing.T) {
	t.Parallel()

	doer := &mockHTTPDoer{err: errors.New("dial tcp: connection refused")}
	opts := append(fastOpts("http://unused"), transcribe.WithHTTPClient(doer), transcribe.WithMaxRetries(1))
	tr := transcribe.NewSarvamTranscriber("sk", opts...)

	out := tr.Transcribe(context.Background(), writeClip(t))

	if out.Kind != transcribe.KindNetwork {
		t.Errorf("Kind = %v, want Network", out.Kind)
	}
	if doer.CallCount() != 2 {
		t.Errorf("transport calls = %d, want 2 (1 + 1 retry)", doer.CallCount())
	}
	if !errors.Is(out.Err(), apierr.ErrNetwork) {
		t.Errorf("Err() = %v, want ErrNetwork", out.Err())
	}
}

func TestSarvamTranscriber_UnreadableClip(t *testing.T) {
	t.Parallel()

	doer := &mockHTTPDoer{}
	tr := transcribe.NewSarvamTranscriber("sk", transcribe.WithHTTPClient(doer))

	out := tr.Transcribe(context.Background(), transcribe.Clip{Path: filepath.Join(t.TempDir(), "gone.wav")})

	if out.Kind != transcribe.KindMediaRead {
		t.Errorf("Kind = %v, want MediaRead", out.Kind)
	}
	if doer.CallCount() != 0 {
		t.Errorf("transport calls = %d, want 0", doer.CallCount())
	}
}

func TestSarvamTranscriber_Name(t *testing.T) {
	t.Parallel()

	if got := transcribe.NewSarvamTranscriber("k").Name(); got != "Sarvam AI saaras:v2" {
		t.Errorf("Name() = %q", got)
	}
	if got := transcribe.NewSarvamTranscriber("k", transcribe.WithModel("saaras:v2.5")).Name(); !strings.HasSuffix(got, "saaras:v2.5") {
		t.Errorf("Name() = %q, want model suffix", got)
	}
}

// ---------------------------------------------------------------------------
// parseResponse - field variants
// ---------------------------------------------------------------------------

func TestParseResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		wantKind       transcribe.Kind
		wantSource     string
		wantTranslated string
		wantLanguage   string
	}{
		{
			name:           "target and source text",
			body:           `{"target_text":"Good morning","source_text":"Suprabhat","detected_language":"hi-IN"}`,
			wantKind:       transcribe.KindTranscribed,
			wantSource:     "Suprabhat",
			wantTranslated: "Good morning",
			wantLanguage:   "hi-IN",
		},
		{
			name:           "transcript and source_transcript",
			body:           `{"transcript":"Hello","source_transcript":"Vanakkam","source_language_code":"ta-IN"}`,
			wantKind:       transcribe.KindTranscribed,
			wantSource:     "Vanakkam",
			wantTranslated: "Hello",
			wantLanguage:   "ta-IN",
		},
		{
			name:           "empty target falls through to transcript",
			body:           `{"target_text":"","transcript":"Hi","language_code":"bn-IN"}`,
			wantKind:       transcribe.KindTranscribed,
			wantTranslated: "Hi",
			wantLanguage:   "bn-IN",
		},
		{
			name:           "language missing",
			body:           `{"transcript":"Hello"}`,
			wantKind:       transcribe.KindTranscribed,
			wantTranslated: "Hello",
			wantLanguage:   "unknown",
		},
		{
			name:         "null fields",
			body:         `{"transcript":null,"detected_language":null}`,
			wantKind:     transcribe.KindNoSpeech,
			wantLanguage: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := transcribe.ParseResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseResponse() error: %v", err)
			}
			if got.Kind != tt.wantKind ||
				got.SourceText != tt.wantSource ||
				got.TranslatedText != tt.wantTranslated ||
				got.SourceLanguage != tt.wantLanguage {
				t.Errorf("ParseResponse() = %+v", got)
			}
		})
	}
}

func TestParseResponse_Malformed(t *testing.T) {
	t.Parallel()

	_, err := transcribe.ParseResponse([]byte("not json"))
	if !errors.Is(err, transcribe.ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

// ---------------------------------------------------------------------------
// errorMessage - lookup order
// ---------------------------------------------------------------------------

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail first", 422, `{"detail":"bad audio","error":{"message":"x"}}`, "bad audio"},
		{"nested error message", 503, `{"error":{"message":"overloaded"}}`, "overloaded"},
		{"error as string", 500, `{"error":"boom"}`, "boom"},
		{"top-level message", 429, `{"message":"slow down"}`, "slow down"},
		{"error object without message falls to message", 500, `{"error":{"code":1},"message":"m"}`, "m"},
		{"detail list kept as json", 422, `{"detail":[{"msg":"field required"}]}`, `[{"msg":"field required"}]`},
		{"json without known fields uses body", 500, `{"foo":"bar"}`, `{"foo":"bar"}`},
		{"plain text body", 502, "Bad Gateway from proxy", "Bad Gateway from proxy"},
		{"empty body uses status text", 504, "", "Gateway Timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := transcribe.ErrorMessage(tt.status, []byte(tt.body)); got != tt.want {
				t.Errorf("ErrorMessage(%d, %q) = %q, want %q", tt.status, tt.body, got, tt.want)
			}
		})
	}
}
