package transcribe

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alnah/go-extract/internal/apierr"
	"github.com/alnah/go-extract/internal/lang"
)

// Kind tags the result of transcribing one clip or one file.
type Kind int

const (
	KindTranscribed Kind = iota
	KindNoSpeech
	KindMissingCredential
	KindNetwork
	KindAPI
	KindUnsupportedFormat
	KindSegmentCreation
	KindAllSegmentsFailed
	KindMediaRead
)

var kindNames = [...]string{
	KindTranscribed:       "transcribed",
	KindNoSpeech:          "no_speech",
	KindMissingCredential: "missing_credential",
	KindNetwork:           "network_error",
	KindAPI:               "api_error",
	KindUnsupportedFormat: "unsupported_format_conversion",
	KindSegmentCreation:   "segment_creation_failure",
	KindAllSegmentsFailed: "all_segments_failed",
	KindMediaRead:         "media_read_failure",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Outcome is the tagged result of a transcription. Exactly one of the text
// fields (success) or the failure fields (StatusCode, Message) is meaningful,
// depending on Kind.
type Outcome struct {
	Kind           Kind
	SourceText     string
	TranslatedText string
	SourceLanguage string
	StatusCode     int    // KindAPI only.
	Message        string // Failure detail for non-success kinds.
}

// Transcribed builds a successful outcome. An empty language becomes "unknown".
func Transcribed(source, translated, language string) Outcome {
	if !lang.Known(language) {
		language = lang.Unknown
	}
	return Outcome{
		Kind:           KindTranscribed,
		SourceText:     strings.TrimSpace(source),
		TranslatedText: strings.TrimSpace(translated),
		SourceLanguage: language,
	}
}

// NoSpeech builds the outcome for a successful call that returned no text.
func NoSpeech(language string) Outcome {
	if !lang.Known(language) {
		language = lang.Unknown
	}
	return Outcome{Kind: KindNoSpeech, SourceLanguage: language}
}

// MissingCredential names the variable that should hold the key.
func MissingCredential(envVar string) Outcome {
	return Outcome{Kind: KindMissingCredential, Message: envVar + " is not set"}
}

// APIFailure builds an outcome for a non-success HTTP status.
func APIFailure(status int, msg string) Outcome {
	return Outcome{Kind: KindAPI, StatusCode: status, Message: msg}
}

// Failure builds an outcome of a failure kind carrying err's text.
func Failure(kind Kind, err error) Outcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Outcome{Kind: kind, Message: msg}
}

// FromError classifies an error returned by a transport or pipeline step.
func FromError(err error) Outcome {
	var apiErr *apierr.Error
	switch {
	case errors.As(err, &apiErr):
		return APIFailure(apiErr.StatusCode, apiErr.Message)
	case errors.Is(err, ErrMalformedResponse):
		return APIFailure(http.StatusOK, err.Error())
	case errors.Is(err, ErrMissingCredential):
		return Failure(KindMissingCredential, err)
	case errors.Is(err, apierr.ErrNetwork), errors.Is(err, apierr.ErrTimeout):
		return Failure(KindNetwork, err)
	case errors.Is(err, ErrUnsupportedFormat):
		return Failure(KindUnsupportedFormat, err)
	case errors.Is(err, ErrSegmentCreation):
		return Failure(KindSegmentCreation, err)
	case errors.Is(err, ErrAllSegmentsFailed):
		return Failure(KindAllSegmentsFailed, err)
	default:
		return Failure(KindMediaRead, err)
	}
}

// OK reports whether the clip was transcribed with text.
func (o Outcome) OK() bool { return o.Kind == KindTranscribed }

// Processed reports whether the service handled the clip, with or without speech.
func (o Outcome) Processed() bool {
	return o.Kind == KindTranscribed || o.Kind == KindNoSpeech
}

// Err returns nil for processed outcomes, else an error wrapping the
// matching sentinel (or *apierr.Error for KindAPI).
func (o Outcome) Err() error {
	switch o.Kind {
	case KindTranscribed, KindNoSpeech:
		return nil
	case KindAPI:
		return &apierr.Error{StatusCode: o.StatusCode, Message: o.Message}
	case KindMissingCredential:
		return fmt.Errorf("%w: %s", ErrMissingCredential, o.Message)
	case KindNetwork:
		return fmt.Errorf("%w: %s", apierr.ErrNetwork, o.Message)
	case KindUnsupportedFormat:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, o.Message)
	case KindSegmentCreation:
		return fmt.Errorf("%w: %s", ErrSegmentCreation, o.Message)
	case KindAllSegmentsFailed:
		return fmt.Errorf("%w: %s", ErrAllSegmentsFailed, o.Message)
	default:
		return fmt.Errorf("%w: %s", ErrMediaRead, o.Message)
	}
}

// Text renders the outcome for an extract file.
func (o Outcome) Text() string {
	switch o.Kind {
	case KindTranscribed:
		var b strings.Builder
		if o.SourceText != "" {
			fmt.Fprintf(&b, "Original (%s):\n%s\n\n", o.SourceLanguage, o.SourceText)
		}
		fmt.Fprintf(&b, "Translated (English):\n%s", o.TranslatedText)
		return b.String()
	case KindNoSpeech:
		return "No speech detected in the audio."
	case KindMissingCredential:
		return "Error: missing API key (" + o.Message + ")."
	case KindNetwork:
		return "Network error while contacting the speech service: " + o.Message
	case KindAPI:
		return fmt.Sprintf("Speech service error (%d): %s", o.StatusCode, o.Message)
	case KindUnsupportedFormat:
		return "Error converting audio to a supported format: " + o.Message
	case KindSegmentCreation:
		return "Could not create audio segment: " + o.Message
	case KindAllSegmentsFailed:
		return "Failed to process any segments of the audio file."
	default:
		return "Error reading media: " + o.Message
	}
}
