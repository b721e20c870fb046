package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-extract/internal/config"
	"github.com/alnah/go-extract/internal/extract"
	"github.com/alnah/go-extract/internal/format"
	"github.com/alnah/go-extract/internal/store"
	"github.com/alnah/go-extract/internal/transcribe"
)

// runOptions are the flags shared by extract and watch.
type runOptions struct {
	outputDir string
	backend   string
	noSave    bool
	verbose   bool
}

// session holds the assembled extraction stack for one command run.
type session struct {
	env       *Env
	cfg       config.Config
	log       zerolog.Logger
	extractor FileExtractor
	saver     Saver        // nil with --no-save.
	history   HistoryStore // nil when history is off or unavailable.

	outMu sync.Mutex
}

// openSession loads config, applies flag overrides and builds the stack.
// ffmpeg is resolved only when needMedia is set.
func openSession(ctx context.Context, env *Env, opts runOptions, needMedia bool) (*session, error) {
	log := newLogger(env.Stderr, opts.verbose)

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return nil, err
	}
	if opts.outputDir != "" {
		cfg.OutputDir = config.ExpandPath(opts.outputDir)
	}
	if opts.backend != "" {
		cfg.Backend = strings.ToLower(opts.backend)
	}

	key, keyVar, err := credential(env, cfg.Backend)
	if err != nil {
		return nil, err
	}

	setup := ExtractorSetup{Config: cfg, APIKey: key, KeyVar: keyVar, Log: log}

	if needMedia {
		if key == "" {
			log.Warn().Str("variable", keyVar).Msg("API key not set; audio and video files will fail")
		} else {
			log.Debug().Str("variable", keyVar).Str("key", maskKey(key)).Msg("using API key")
		}
		ffmpegPath, err := env.ToolResolver.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		env.ToolResolver.CheckVersion(ctx, ffmpegPath, log)
		setup.FFmpegPath = ffmpegPath
	}

	if p, err := env.ToolResolver.Tesseract(); err == nil {
		setup.TesseractPath = p
	} else {
		log.Debug().Err(err).Msg("tesseract not available; image OCR limited to Tika")
	}

	extractor, err := env.ExtractorFactory.NewExtractor(setup)
	if err != nil {
		return nil, err
	}

	s := &session{env: env, cfg: cfg, log: log, extractor: extractor}
	if !opts.noSave {
		s.saver = env.StoreFactory.NewSaver(cfg.OutputDir, env.Now)
	}
	if cfg.HistoryEnabled() {
		h, err := env.StoreFactory.OpenHistory(ctx, cfg.HistoryPath)
		if err != nil {
			log.Warn().Err(err).Msg("history disabled")
		} else {
			s.history = h
		}
	}
	return s, nil
}

// credential returns the selected backend's key and the variable it is read from.
func credential(env *Env, backend string) (key, envVar string, err error) {
	switch backend {
	case config.BackendSarvam, "":
		envVar = transcribe.EnvSarvamAPIKey
	case config.BackendOpenAI:
		envVar = transcribe.EnvOpenAIAPIKey
	default:
		return "", "", fmt.Errorf("%w: %q (use sarvam or openai)", ErrUnsupportedBackend, backend)
	}
	return strings.TrimSpace(env.Getenv(envVar)), envVar, nil
}

func (s *session) close() {
	if s.history == nil {
		return
	}
	if err := s.history.Close(); err != nil {
		s.log.Warn().Err(err).Msg("closing history")
	}
}

// process extracts one file, persists it and prints the report.
func (s *session) process(ctx context.Context, path string) fileReport {
	ft := extract.DetectType(path)
	ev := s.log.Info().Str("file", path).Str("type", string(ft))
	if info, err := os.Stat(path); err == nil {
		ev = ev.Str("size", format.Size(info.Size()))
	}
	ev.Msg("extracting")

	start := time.Now()
	r := fileReport{Path: path, Type: ft, Result: s.extractor.Extract(ctx, path, ft)}
	s.log.Debug().Str("file", path).Str("method", r.Result.Method).
		Str("took", format.Duration(time.Since(start))).Msg("extracted")

	if s.saver != nil {
		saved, err := s.saver.Save(store.Record{
			SourcePath: path,
			FileType:   string(ft),
			Method:     r.Result.Method,
			Text:       r.Result.Text,
			Time:       s.env.Now(),
		})
		r.SavedPath, r.SaveErr = saved, err
	}

	s.record(ctx, r)

	if r.Failed() {
		s.log.Error().Err(errors.Join(r.Result.Err, r.SaveErr)).Str("file", path).Msg("extraction failed")
	}
	s.print(r)
	return r
}

func (s *session) record(ctx context.Context, r fileReport) {
	if s.history == nil {
		return
	}
	abs, err := filepath.Abs(r.Path)
	if err != nil {
		abs = r.Path
	}
	entry := store.Entry{
		SourcePath: abs,
		FileType:   string(r.Type),
		Method:     r.Result.Method,
		OutputPath: r.SavedPath,
		CreatedAt:  s.env.Now(),
	}
	if err := errors.Join(r.Result.Err, r.SaveErr); err != nil {
		entry.Error = err.Error()
	}
	// The file is already extracted; do not lose the record to a cancelled context.
	if _, err := s.history.Add(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Warn().Err(err).Msg("could not record history")
	}
}

func (s *session) print(r fileReport) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	writeReport(s.env.Stdout, r)
}
