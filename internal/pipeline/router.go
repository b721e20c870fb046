package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/go-extract/internal/audio"
	"github.com/alnah/go-extract/internal/extract"
	"github.com/alnah/go-extract/internal/format"
	"github.com/alnah/go-extract/internal/transcribe"
)

// Prefix added to the method of a successful video extraction.
const videoMethodPrefix = "Video Audio: "

// Prober reports a media file's duration in seconds. It never fails; an
// unreadable file yields a value above the short-clip limit.
type Prober interface {
	Probe(ctx context.Context, path string) float64
}

// Converter re-encodes media into the speech format.
type Converter interface {
	ToWAV(ctx context.Context, src string) (*audio.TempClip, error)
	ExtractTrack(ctx context.Context, video string) (*audio.TempClip, error)
}

var (
	_ Prober    = (*audio.DurationProbe)(nil)
	_ Converter = (*audio.Converter)(nil)
)

// Config carries the routing parameters.
type Config struct {
	// APIKey is the selected backend's credential. An empty key fails
	// before any media work or network I/O.
	APIKey string
	// KeyVar names the environment variable the key is read from.
	KeyVar string
	// ShortClipLimit is the inclusive duration, in seconds, sent in one call.
	ShortClipLimit float64
	// Window is the segment length for longer recordings.
	Window float64
}

// Deps are the collaborators a Router drives.
type Deps struct {
	Probe       Prober
	Converter   Converter
	Slicer      Slicer
	Transcriber transcribe.Transcriber
}

// Router extracts text from audio and video files. It implements
// extract.MediaExtractor.
type Router struct {
	cfg          Config
	probe        Prober
	converter    Converter
	transcriber  transcribe.Transcriber
	orchestrator *Orchestrator
	log          zerolog.Logger
}

var _ extract.MediaExtractor = (*Router)(nil)

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger shared by the router and its orchestrator.
func WithRouterLogger(l zerolog.Logger) RouterOption {
	return func(r *Router) { r.log = l }
}

// NewRouter creates a router. All dependencies are required.
func NewRouter(cfg Config, deps Deps, opts ...RouterOption) (*Router, error) {
	if deps.Probe == nil || deps.Converter == nil || deps.Slicer == nil || deps.Transcriber == nil {
		return nil, errors.New("pipeline: probe, converter, slicer and transcriber are required")
	}
	if cfg.ShortClipLimit <= 0 {
		cfg.ShortClipLimit = audio.ShortClipLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = audio.DefaultWindow
	}
	if cfg.KeyVar == "" {
		cfg.KeyVar = transcribe.EnvSarvamAPIKey
	}

	r := &Router{
		cfg:         cfg,
		probe:       deps.Probe,
		converter:   deps.Converter,
		transcriber: deps.Transcriber,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.orchestrator = NewOrchestrator(deps.Slicer, deps.Transcriber, cfg.Window, r.log)
	return r, nil
}

// ExtractAudio transcribes and translates an audio file. Files that are
// neither MP3 nor WAV are converted to WAV first. Once started, processing
// of a file runs to completion even if ctx is cancelled.
func (r *Router) ExtractAudio(ctx context.Context, path string) extract.Result {
	ctx = context.WithoutCancel(ctx)
	if res, ok := r.checkCredential(); !ok {
		return res
	}

	contentType, ok := audio.ContentType(filepath.Ext(path))
	src := path
	if !ok {
		clip, err := r.converter.ToWAV(ctx, path)
		if err != nil {
			return failure(transcribe.Failure(transcribe.KindUnsupportedFormat, err))
		}
		defer r.release(clip)
		src, contentType = clip.Path, segmentContentType
		r.log.Debug().Str("from", path).Str("to", src).Msg("converted to wav")
	}
	return r.route(ctx, src, contentType)
}

// ExtractVideo extracts the audio track of a video and processes it like
// an audio file. Successful methods are prefixed with "Video Audio: ".
func (r *Router) ExtractVideo(ctx context.Context, path string) extract.Result {
	ctx = context.WithoutCancel(ctx)
	if res, ok := r.checkCredential(); !ok {
		return res
	}

	clip, err := r.converter.ExtractTrack(ctx, path)
	if err != nil {
		return extract.Result{
			Text:   "Error extracting audio from video: " + err.Error(),
			Method: "Error: Media Read",
			Err:    fmt.Errorf("%w: %w", transcribe.ErrMediaRead, err),
		}
	}
	defer r.release(clip)

	res := r.route(ctx, clip.Path, segmentContentType)
	if !res.Failed() {
		res.Method = videoMethodPrefix + res.Method
	}
	return res
}

func (r *Router) checkCredential() (extract.Result, bool) {
	if strings.TrimSpace(r.cfg.APIKey) != "" {
		return extract.Result{}, true
	}
	return failure(transcribe.MissingCredential(r.cfg.KeyVar)), false
}

func (r *Router) route(ctx context.Context, src, contentType string) extract.Result {
	total := r.probe.Probe(ctx, src)
	if total <= r.cfg.ShortClipLimit {
		r.log.Info().Str("duration", format.Clock(total)).Msg("short clip, single request")
		out := r.transcriber.Transcribe(ctx, transcribe.Clip{Path: src, ContentType: contentType})
		return r.shortResult(out)
	}

	r.log.Info().Str("duration", format.Clock(total)).Msg("long recording, segmenting")
	results, err := r.orchestrator.Process(ctx, src, total)
	combined := Combine(results)
	if err != nil {
		out := transcribe.Failure(transcribe.KindAllSegmentsFailed, err)
		return extract.Result{
			Text:   out.Text() + "\n\n" + combined.Document(total),
			Method: methodFor(out),
			Err:    err,
		}
	}
	return extract.Result{
		Text:   combined.Document(total),
		Method: fmt.Sprintf("Segmented Audio Processing (%d segments, from %s to English)", len(results), combined.SourceLanguage),
	}
}

func (r *Router) shortResult(out transcribe.Outcome) extract.Result {
	switch out.Kind {
	case transcribe.KindTranscribed:
		return extract.Result{
			Text:   out.Text(),
			Method: fmt.Sprintf("%s (from %s to English)", r.transcriber.Name(), out.SourceLanguage),
		}
	case transcribe.KindNoSpeech:
		return extract.Result{
			Text:   out.Text(),
			Method: r.transcriber.Name() + " (no speech detected)",
		}
	default:
		return failure(out)
	}
}

func (r *Router) release(clip *audio.TempClip) {
	if err := clip.Release(); err != nil {
		r.log.Warn().Err(err).Str("path", clip.Path).Msg("could not remove temporary file")
	}
}

func failure(out transcribe.Outcome) extract.Result {
	return extract.Result{Text: out.Text(), Method: methodFor(out), Err: out.Err()}
}

func methodFor(out transcribe.Outcome) string {
	switch out.Kind {
	case transcribe.KindMissingCredential:
		return "Error: Missing API Key"
	case transcribe.KindNetwork:
		return "Error: Network"
	case transcribe.KindAPI:
		return fmt.Sprintf("Error: API (%d)", out.StatusCode)
	case transcribe.KindUnsupportedFormat:
		return "Error: Format Conversion"
	case transcribe.KindSegmentCreation:
		return "Error: Segment Creation"
	case transcribe.KindAllSegmentsFailed:
		return "Error: Segmented Audio Processing"
	default:
		return "Error: Media Read"
	}
}
