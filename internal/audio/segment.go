// Package audio probes, slices and re-encodes media files for the speech
// service. Every file it creates is a temp file owned by a TempClip.
package audio

import (
	"fmt"
	"math"

	"github.com/alnah/go-extract/internal/format"
)

const (
	// ShortClipLimit is the longest clip, in seconds, the speech service
	// accepts in a single request. A clip of exactly this length is short.
	ShortClipLimit = 30.0

	// DefaultWindow is the segment length used for longer recordings.
	DefaultWindow = 30.0

	// FallbackDuration is reported when a duration cannot be read. It lies
	// above ShortClipLimit so unreadable files take the segmented path.
	FallbackDuration = ShortClipLimit + 1
)

// Segment is a contiguous time window of a source file, in seconds.
type Segment struct {
	Index        int // Zero-based position in the plan.
	StartSeconds float64
	EndSeconds   float64
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.EndSeconds - s.StartSeconds
}

// String returns a human-readable representation for logging.
func (s Segment) String() string {
	return fmt.Sprintf("segment %d: %s-%s", s.Index+1,
		format.Seconds(s.StartSeconds), format.Seconds(s.EndSeconds))
}

// Plan splits total seconds into ceil(total/window) contiguous windows.
// Segment i covers [i*window, min((i+1)*window, total)); the first starts at
// 0, the last ends at total, and each end equals the next start. A
// non-positive window uses DefaultWindow; a non-positive total yields nil.
func Plan(total, window float64) []Segment {
	if window <= 0 || math.IsNaN(window) {
		window = DefaultWindow
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil
	}

	n := int(math.Ceil(total / window))
	// Guard against a float quotient rounding up past an exact multiple,
	// which would leave an empty trailing window.
	for n > 1 && float64(n-1)*window >= total {
		n--
	}
	if n < 1 {
		n = 1
	}

	segments := make([]Segment, n)
	for i := range segments {
		end := float64(i+1) * window
		if i == n-1 {
			end = total
		}
		segments[i] = Segment{
			Index:        i,
			StartSeconds: float64(i) * window,
			EndSeconds:   end,
		}
	}
	return segments
}

// contentTypes lists the formats the speech service accepts directly.
var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".wave": "audio/wave",
}

// ContentType returns the upload content type for an extension, and false
// when the format must be converted to WAV first.
func ContentType(ext string) (string, bool) {
	ct, ok := contentTypes[normalizeExt(ext)]
	return ct, ok
}
