package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/go-extract/internal/ffmpeg"
)

// Converter re-encodes media the speech service cannot take as-is.
type Converter struct {
	ffmpegPath string
	tempDir    string

	cmd   commandRunner
	temp  tempFileCreator
	stat  fileStatter
	files fileRemover
	log   zerolog.Logger
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithConverterCommandRunner sets the command runner.
func WithConverterCommandRunner(r commandRunner) ConverterOption {
	return func(c *Converter) { c.cmd = r }
}

// WithConverterTempFiles sets the temp file creator.
func WithConverterTempFiles(t tempFileCreator) ConverterOption {
	return func(c *Converter) { c.temp = t }
}

// WithConverterFileStatter sets the file statter.
func WithConverterFileStatter(f fileStatter) ConverterOption {
	return func(c *Converter) { c.stat = f }
}

// WithConverterFileRemover sets the file remover.
func WithConverterFileRemover(f fileRemover) ConverterOption {
	return func(c *Converter) { c.files = f }
}

// WithConverterLogger sets the logger.
func WithConverterLogger(l zerolog.Logger) ConverterOption {
	return func(c *Converter) { c.log = l }
}

// NewConverter creates a Converter driving the given ffmpeg binary.
func NewConverter(ffmpegPath string, opts ...ConverterOption) (*Converter, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	c := &Converter{
		ffmpegPath: ffmpegPath,
		cmd:        osCommandRunner{},
		temp:       osTempFileCreator{},
		stat:       osFileStatter{},
		files:      osFileRemover{},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ToWAV converts an audio file in any ffmpeg-readable format (ogg, flac,
// aac, m4a...) to a WAV clip. Failures wrap ErrConversionFailed.
func (c *Converter) ToWAV(ctx context.Context, src string) (*TempClip, error) {
	clip, err := c.encode(ctx, src, "extract-conv-*.wav", []string{"-vn", "-acodec", "pcm_s16le", "-f", "wav"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	c.log.Debug().Str("src", src).Str("wav", clip.Path).Msg("converted to wav")
	return clip, nil
}

// ExtractTrack pulls the audio track of a video into a speech-ready WAV
// clip. A video without audio fails with ErrTrackExtraction.
func (c *Converter) ExtractTrack(ctx context.Context, video string) (*TempClip, error) {
	clip, err := c.encode(ctx, video, "extract-track-*.wav", speechEncodingArgs())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrackExtraction, err)
	}
	c.log.Debug().Str("video", video).Str("wav", clip.Path).Msg("extracted audio track")
	return clip, nil
}

func (c *Converter) encode(ctx context.Context, src, pattern string, encoding []string) (*TempClip, error) {
	out, err := c.temp.CreateTemp(c.tempDir, pattern)
	if err != nil {
		return nil, fmt.Errorf("reserve temp file: %v", err)
	}
	clip := &TempClip{Path: out, files: c.files}

	args := append([]string{"-y", "-i", src}, encoding...)
	args = append(args, out)

	if output, err := c.cmd.CombinedOutput(ctx, c.ffmpegPath, args); err != nil {
		c.release(clip)
		return nil, fmt.Errorf("ffmpeg: %v\nOutput: %s", err, lastLines(string(output), 5))
	}
	if info, err := c.stat.Stat(out); err != nil || info.Size() == 0 {
		c.release(clip)
		return nil, fmt.Errorf("no audio produced from %s", src)
	}
	return clip, nil
}

func (c *Converter) release(clip *TempClip) {
	if err := clip.Release(); err != nil {
		c.log.Warn().Err(err).Str("path", clip.Path).Msg("failed to remove temp clip")
	}
}

// lastLines keeps the tail of ffmpeg output, where the actual error is.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
