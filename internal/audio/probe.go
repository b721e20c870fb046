package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/rs/zerolog"
	"github.com/tcolgate/mp3"
)

// DurationProbe reports the playback length of a media file in seconds.
// Containers with cheap native readers (MP3 frames, MP4 movie header) are
// read directly; everything else is asked of ffmpeg.
type DurationProbe struct {
	ffmpegPath string
	cmd        commandRunner
	log        zerolog.Logger
}

// ProbeOption configures a DurationProbe.
type ProbeOption func(*DurationProbe)

// WithProbeCommandRunner sets the command runner used to invoke ffmpeg.
func WithProbeCommandRunner(r commandRunner) ProbeOption {
	return func(p *DurationProbe) { p.cmd = r }
}

// WithProbeLogger sets the logger.
func WithProbeLogger(l zerolog.Logger) ProbeOption {
	return func(p *DurationProbe) { p.log = l }
}

// NewDurationProbe creates a probe. An empty ffmpegPath limits probing to
// the native readers.
func NewDurationProbe(ffmpegPath string, opts ...ProbeOption) *DurationProbe {
	p := &DurationProbe{
		ffmpegPath: ffmpegPath,
		cmd:        osCommandRunner{},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe never fails: when the duration cannot be determined it returns
// FallbackDuration so the caller routes the file to the segmented path.
func (p *DurationProbe) Probe(ctx context.Context, path string) float64 {
	d, err := p.Duration(ctx, path)
	if err != nil {
		p.log.Warn().Err(err).Str("file", filepath.Base(path)).
			Float64("assumed_seconds", FallbackDuration).Msg("duration unknown")
		return FallbackDuration
	}
	return d
}

// Duration returns the length of path in seconds, or ErrProbeFailed.
func (p *DurationProbe) Duration(ctx context.Context, path string) (float64, error) {
	if native, ok := nativeProbes[normalizeExt(filepath.Ext(path))]; ok {
		d, err := native(path)
		if err == nil && d > 0 {
			return d, nil
		}
		p.log.Debug().Err(err).Str("file", filepath.Base(path)).Msg("native probe failed, asking ffmpeg")
	}

	if p.ffmpegPath == "" {
		return 0, fmt.Errorf("%w: no native reader for %s and ffmpeg unavailable", ErrProbeFailed, filepath.Base(path))
	}

	d, err := p.ffmpegDuration(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: non-positive duration %v", ErrProbeFailed, d)
	}
	return d, nil
}

// ffmpegDuration reads the "Duration:" banner ffmpeg prints for any input.
func (p *DurationProbe) ffmpegDuration(ctx context.Context, path string) (float64, error) {
	args := []string{"-hide_banner", "-i", path, "-f", "null", "-"}
	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args)
	// ffmpeg exits non-zero for "-i" only invocations but still prints the header.
	if err != nil && len(output) == 0 {
		return 0, err
	}
	return parseDurationFromFFmpegOutput(string(output))
}

var (
	durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)(?:\.(\d+))?`)
	progressRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+)(?:\.(\d+))?`)
)

// parseDurationFromFFmpegOutput extracts seconds from ffmpeg output.
// Looks for "Duration: HH:MM:SS.ff", else the last "time=HH:MM:SS.ff".
func parseDurationFromFFmpegOutput(output string) (float64, error) {
	if m := durationRe.FindStringSubmatch(output); m != nil {
		return parseTimeComponents(m[1], m[2], m[3], m[4]), nil
	}
	if all := progressRe.FindAllStringSubmatch(output, -1); len(all) > 0 {
		m := all[len(all)-1]
		return parseTimeComponents(m[1], m[2], m[3], m[4]), nil
	}
	return 0, errors.New("could not parse duration from ffmpeg output")
}

// parseTimeComponents converts HH, MM, SS and a fractional digit string to seconds.
func parseTimeComponents(hours, minutes, seconds, fractional string) float64 {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	total := float64(h*3600 + m*60 + s)
	if fractional != "" {
		frac, _ := strconv.ParseFloat("0."+fractional, 64)
		total += frac
	}
	return total
}

// nativeProbes maps extensions to in-process duration readers.
var nativeProbes = map[string]func(path string) (float64, error){
	".mp3": mp3Duration,
	".mp4": mp4Duration,
	".m4a": mp4Duration,
	".m4v": mp4Duration,
	".mov": mp4Duration,
}

// mp3Duration sums frame durations. Slower than reading a header but exact
// for VBR files, which carry no reliable length field.
func mp3Duration(path string) (float64, error) {
	// #nosec G304 -- path is the file the user asked to extract
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	d := mp3.NewDecoder(f)
	var (
		frame   mp3.Frame
		skipped int
		total   float64
		frames  int
	)
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 {
				return 0, err
			}
			// Trailing garbage after valid frames (ID3v1 tags, truncation).
			break
		}
		frames++
		total += frame.Duration().Seconds()
	}
	if frames == 0 {
		return 0, errors.New("no mp3 frames found")
	}
	return total, nil
}

// mp4Duration reads the movie header without loading media data.
func mp4Duration(path string) (float64, error) {
	// #nosec G304 -- path is the file the user asked to extract
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	parsed, err := mp4.DecodeFile(f, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return 0, err
	}
	if parsed.Moov == nil || parsed.Moov.Mvhd == nil {
		return 0, errors.New("mp4 has no movie header")
	}
	mvhd := parsed.Moov.Mvhd
	if mvhd.Timescale == 0 || mvhd.Duration == 0 {
		return 0, errors.New("mp4 movie header carries no duration")
	}
	return float64(mvhd.Duration) / float64(mvhd.Timescale), nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
