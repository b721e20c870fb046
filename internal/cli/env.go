package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-extract/internal/audio"
	"github.com/alnah/go-extract/internal/config"
	"github.com/alnah/go-extract/internal/extract"
	"github.com/alnah/go-extract/internal/ffmpeg"
	"github.com/alnah/go-extract/internal/pipeline"
	"github.com/alnah/go-extract/internal/store"
	"github.com/alnah/go-extract/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have production defaults via DefaultEnv(). Tests override
// specific fields using the With* options.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	ToolResolver     ToolResolver
	ConfigLoader     ConfigLoader
	ExtractorFactory ExtractorFactory
	StoreFactory     StoreFactory
}

// ToolResolver locates the external binaries extraction shells out to.
type ToolResolver interface {
	Resolve(ctx context.Context) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string, log zerolog.Logger)
	Tesseract() (string, error)
}

// ConfigLoader loads the effective configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// FileExtractor extracts text from one classified file.
type FileExtractor interface {
	Extract(ctx context.Context, path string, ft extract.FileType) extract.Result
}

// ExtractorSetup is everything needed to assemble a FileExtractor.
type ExtractorSetup struct {
	Config        config.Config
	APIKey        string
	KeyVar        string
	FFmpegPath    string // Empty disables audio and video.
	TesseractPath string // Empty makes OCR attempts fail.
	Log           zerolog.Logger
}

// ExtractorFactory assembles the extraction stack.
type ExtractorFactory interface {
	NewExtractor(setup ExtractorSetup) (FileExtractor, error)
}

// Saver persists extract files.
type Saver interface {
	Save(r store.Record) (string, error)
}

// HistoryStore records and lists extractions.
type HistoryStore interface {
	Add(ctx context.Context, e store.Entry) (store.Entry, error)
	List(ctx context.Context, limit int) ([]store.Entry, error)
	Close() error
}

// StoreFactory creates persistence backends.
type StoreFactory interface {
	NewSaver(dir string, now func() time.Time) Saver
	OpenHistory(ctx context.Context, path string) (HistoryStore, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithToolResolver sets the binary resolver.
func WithToolResolver(r ToolResolver) EnvOption {
	return func(e *Env) {
		e.ToolResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithExtractorFactory sets the extractor factory.
func WithExtractorFactory(f ExtractorFactory) EnvOption {
	return func(e *Env) {
		e.ExtractorFactory = f
	}
}

// WithStoreFactory sets the store factory.
func WithStoreFactory(f StoreFactory) EnvOption {
	return func(e *Env) {
		e.StoreFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		Getenv:           os.Getenv,
		Now:              time.Now,
		ToolResolver:     &defaultToolResolver{},
		ConfigLoader:     &defaultConfigLoader{},
		ExtractorFactory: &defaultExtractorFactory{},
		StoreFactory:     &defaultStoreFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultToolResolver implements ToolResolver using the ffmpeg package.
type defaultToolResolver struct{}

func (defaultToolResolver) Resolve(ctx context.Context) (string, error) {
	return ffmpeg.NewResolver().Resolve(ctx)
}

func (defaultToolResolver) CheckVersion(ctx context.Context, ffmpegPath string, log zerolog.Logger) {
	ffmpeg.NewVersionChecker(ffmpeg.NewExecutor(), log).Check(ctx, ffmpegPath)
}

func (defaultToolResolver) Tesseract() (string, error) {
	return ffmpeg.NewResolver().Lookup("tesseract", ffmpeg.EnvTesseractPath)
}

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultExtractorFactory wires the audio, transcribe, pipeline and
// extract packages together.
type defaultExtractorFactory struct{}

func (defaultExtractorFactory) NewExtractor(s ExtractorSetup) (FileExtractor, error) {
	opts := []extract.Option{
		extract.WithLogger(s.Log),
		extract.WithImageChain(extract.DefaultImageChain(s.TesseractPath, s.Config.OCRLanguages, s.Config.TikaURL, s.Log)),
	}
	if s.FFmpegPath != "" {
		router, err := newRouter(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, extract.WithMedia(router))
	}
	return extract.NewExtractor(opts...), nil
}

func newRouter(s ExtractorSetup) (*pipeline.Router, error) {
	slicer, err := audio.NewSlicer(s.FFmpegPath, audio.WithSlicerLogger(s.Log))
	if err != nil {
		return nil, err
	}
	converter, err := audio.NewConverter(s.FFmpegPath, audio.WithConverterLogger(s.Log))
	if err != nil {
		return nil, err
	}
	return pipeline.NewRouter(
		pipeline.Config{
			APIKey:         s.APIKey,
			KeyVar:         s.KeyVar,
			ShortClipLimit: audio.ShortClipLimit,
			Window:         s.Config.SegmentSeconds,
		},
		pipeline.Deps{
			Probe:       audio.NewDurationProbe(s.FFmpegPath, audio.WithProbeLogger(s.Log)),
			Converter:   converter,
			Slicer:      slicer,
			Transcriber: newTranscriber(s),
		},
		pipeline.WithRouterLogger(s.Log),
	)
}

func newTranscriber(s ExtractorSetup) transcribe.Transcriber {
	opts := []transcribe.Option{
		transcribe.WithPacer(transcribe.NewPacer(s.Config.Pacing)),
		transcribe.WithMaxRetries(s.Config.MaxRetries),
		transcribe.WithLogger(s.Log),
	}
	if s.Config.Model != "" {
		opts = append(opts, transcribe.WithModel(s.Config.Model))
	}
	if s.Config.Backend == config.BackendOpenAI {
		return transcribe.NewOpenAITranscriber(s.APIKey, opts...)
	}
	return transcribe.NewSarvamTranscriber(s.APIKey, opts...)
}

// defaultStoreFactory implements StoreFactory using the store package.
type defaultStoreFactory struct{}

func (defaultStoreFactory) NewSaver(dir string, now func() time.Time) Saver {
	return store.NewFiles(dir, store.WithClock(now))
}

func (defaultStoreFactory) OpenHistory(ctx context.Context, path string) (HistoryStore, error) {
	return store.OpenHistory(ctx, path)
}

// Compile-time interface verification.
var (
	_ ToolResolver     = (*defaultToolResolver)(nil)
	_ ConfigLoader     = (*defaultConfigLoader)(nil)
	_ ExtractorFactory = (*defaultExtractorFactory)(nil)
	_ StoreFactory     = (*defaultStoreFactory)(nil)
	_ FileExtractor    = (*extract.Extractor)(nil)
	_ Saver            = (*store.Files)(nil)
	_ HistoryStore     = (*store.History)(nil)
)
