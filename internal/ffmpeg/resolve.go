// Package ffmpeg locates the media binaries the extraction pipeline shells
// out to and checks the ffmpeg version.
package ffmpeg

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// EnvFFmpegPath overrides PATH lookup for ffmpeg.
	EnvFFmpegPath = "FFMPEG_PATH"

	// EnvTesseractPath overrides PATH lookup for tesseract.
	EnvTesseractPath = "TESSERACT_PATH"

	// minFFmpegMajorVersion is the oldest release with the pcm/ss/to behavior we rely on.
	minFFmpegMajorVersion = 4
)

// Resolver finds external binaries: an explicit environment variable wins,
// then the system PATH.
type Resolver struct {
	env  envProvider
	stat fileStatter
	goos string
	log  zerolog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithEnvProvider sets the environment/PATH provider (for testing).
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithFileStatter sets the file statter (for testing).
func WithFileStatter(s fileStatter) ResolverOption {
	return func(r *Resolver) { r.stat = s }
}

// WithPlatform overrides runtime.GOOS for install instructions.
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = l }
}

// NewResolver creates a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		env:  osEnvProvider{},
		stat: osFileStatter{},
		goos: runtime.GOOS,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds ffmpeg. FFMPEG_PATH is authoritative when set: a bad value is
// an error rather than a silent fallback to PATH.
func (r *Resolver) Resolve(_ context.Context) (string, error) {
	path, err := r.Lookup("ffmpeg", EnvFFmpegPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v\n\n%s", ErrNotFound, err, r.manualInstallInstructions())
	}
	r.log.Debug().Str("path", path).Msg("ffmpeg resolved")
	return path, nil
}

// Lookup finds a binary by name, honoring envVar as an override.
func (r *Resolver) Lookup(name, envVar string) (string, error) {
	if envVar != "" {
		if p := r.env.Getenv(envVar); p != "" {
			if _, err := r.stat.Stat(p); err != nil {
				return "", fmt.Errorf("%w: %s is set to %q but binary not found", ErrToolNotFound, envVar, p)
			}
			return p, nil
		}
	}
	p, err := r.env.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s not in PATH", ErrToolNotFound, name)
	}
	return p, nil
}

func (r *Resolver) manualInstallInstructions() string {
	switch r.goos {
	case "darwin":
		return "Install FFmpeg with: brew install ffmpeg\nOr set FFMPEG_PATH to your ffmpeg binary."
	case "linux":
		return "Install FFmpeg with your package manager (apt install ffmpeg, dnf install ffmpeg, pacman -S ffmpeg).\nOr set FFMPEG_PATH to your ffmpeg binary."
	case "windows":
		return "Install FFmpeg with: winget install ffmpeg\nOr set FFMPEG_PATH to your ffmpeg.exe."
	default:
		return "Download FFmpeg from https://ffmpeg.org/download.html\nOr set FFMPEG_PATH to your ffmpeg binary."
	}
}

// VersionChecker warns when ffmpeg is older than supported.
type VersionChecker struct {
	executor *Executor
	log      zerolog.Logger
}

// NewVersionChecker creates a VersionChecker. A nil executor uses the default.
func NewVersionChecker(e *Executor, log zerolog.Logger) *VersionChecker {
	if e == nil {
		e = NewExecutor()
	}
	return &VersionChecker{executor: e, log: log}
}

// Check logs a warning for old ffmpeg builds. It reports whether the
// version could be parsed; an unparseable banner never blocks extraction.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) bool {
	output, err := vc.executor.RunOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && output == "" {
		return false
	}

	first, _, _ := strings.Cut(output, "\n")
	var major int
	if _, err := fmt.Sscanf(first, "ffmpeg version %d", &major); err != nil {
		if _, err := fmt.Sscanf(first, "ffmpeg version n%d", &major); err != nil {
			return false
		}
	}

	if major < minFFmpegMajorVersion {
		vc.log.Warn().Int("version", major).Int("recommended", minFFmpegMajorVersion).
			Msg("ffmpeg is older than recommended")
	}
	return true
}
