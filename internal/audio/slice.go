package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alnah/go-extract/internal/ffmpeg"
)

// TempClip is a temporary audio file owned by the caller until Release.
type TempClip struct {
	Path string

	files fileRemover
	once  sync.Once
	err   error
}

// NewTempClip adopts an existing file as a clip removed on Release.
func NewTempClip(path string) *TempClip {
	return &TempClip{Path: path, files: osFileRemover{}}
}

// Release removes the file. It is safe to call more than once.
func (c *TempClip) Release() error {
	if c == nil {
		return nil
	}
	c.once.Do(func() {
		if c.files == nil {
			c.files = osFileRemover{}
		}
		c.err = c.files.Remove(c.Path)
	})
	return c.err
}

// speechEncodingArgs encode mono 16-bit PCM at 16 kHz, the format the
// speech service transcribes without resampling.
func speechEncodingArgs() []string {
	return []string{
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
	}
}

// Slicer cuts segments out of a source file into temporary WAV clips.
type Slicer struct {
	ffmpegPath string
	tempDir    string

	cmd   commandRunner
	temp  tempFileCreator
	stat  fileStatter
	files fileRemover
	log   zerolog.Logger
}

// SlicerOption configures a Slicer.
type SlicerOption func(*Slicer)

// WithSlicerCommandRunner sets the command runner.
func WithSlicerCommandRunner(r commandRunner) SlicerOption {
	return func(s *Slicer) { s.cmd = r }
}

// WithSlicerTempFiles sets the temp file creator.
func WithSlicerTempFiles(t tempFileCreator) SlicerOption {
	return func(s *Slicer) { s.temp = t }
}

// WithSlicerFileStatter sets the file statter.
func WithSlicerFileStatter(f fileStatter) SlicerOption {
	return func(s *Slicer) { s.stat = f }
}

// WithSlicerFileRemover sets the file remover.
func WithSlicerFileRemover(f fileRemover) SlicerOption {
	return func(s *Slicer) { s.files = f }
}

// WithSlicerTempDir places clips in dir instead of the system temp dir.
func WithSlicerTempDir(dir string) SlicerOption {
	return func(s *Slicer) { s.tempDir = dir }
}

// WithSlicerLogger sets the logger.
func WithSlicerLogger(l zerolog.Logger) SlicerOption {
	return func(s *Slicer) { s.log = l }
}

// NewSlicer creates a Slicer driving the given ffmpeg binary.
func NewSlicer(ffmpegPath string, opts ...SlicerOption) (*Slicer, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	s := &Slicer{
		ffmpegPath: ffmpegPath,
		cmd:        osCommandRunner{},
		temp:       osTempFileCreator{},
		stat:       osFileStatter{},
		files:      osFileRemover{},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Slice materializes seg of src as a mono 16 kHz WAV clip. On any error no
// file is left behind.
func (s *Slicer) Slice(ctx context.Context, src string, seg Segment) (*TempClip, error) {
	out, err := s.temp.CreateTemp(s.tempDir, fmt.Sprintf("extract-seg%03d-*.wav", seg.Index))
	if err != nil {
		return nil, fmt.Errorf("%w: reserve temp file: %v", ErrSliceFailed, err)
	}
	clip := &TempClip{Path: out, files: s.files}

	args := []string{
		"-y",
		"-ss", formatFFmpegTime(seg.StartSeconds),
		"-to", formatFFmpegTime(seg.EndSeconds),
		"-i", src,
	}
	args = append(args, speechEncodingArgs()...)
	args = append(args, out)

	if output, err := s.cmd.CombinedOutput(ctx, s.ffmpegPath, args); err != nil {
		s.release(clip)
		return nil, fmt.Errorf("%w: %s: %v\nOutput: %s", ErrSliceFailed, seg, err, lastLines(string(output), 5))
	}

	info, err := s.stat.Stat(out)
	if err != nil || info.Size() == 0 {
		s.release(clip)
		return nil, fmt.Errorf("%w: %s", ErrEmptySlice, seg)
	}
	// A start past the real end still yields a header with no samples.
	if n, err := pcmLength(out); err != nil || n == 0 {
		s.release(clip)
		return nil, fmt.Errorf("%w: %s: no audio samples", ErrEmptySlice, seg)
	}
	return clip, nil
}

// Use materializes seg, passes the clip path to fn, and releases the clip
// once fn returns or panics.
func (s *Slicer) Use(ctx context.Context, src string, seg Segment, fn func(clipPath string)) error {
	clip, err := s.Slice(ctx, src, seg)
	if err != nil {
		return err
	}
	defer s.release(clip)
	fn(clip.Path)
	return nil
}

func (s *Slicer) release(clip *TempClip) {
	if err := clip.Release(); err != nil {
		s.log.Warn().Err(err).Str("path", clip.Path).Msg("failed to remove temp clip")
	}
}

// formatFFmpegTime formats seconds for -ss/-to arguments as HH:MM:SS.mmm.
func formatFFmpegTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int64(sec*1000 + 0.5)
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := float64(ms%60_000) / 1000
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}
