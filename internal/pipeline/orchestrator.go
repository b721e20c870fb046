// Package pipeline routes audio to the short-clip or segmented path,
// processes segments in order and folds their outcomes into one transcript.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alnah/go-extract/internal/audio"
	"github.com/alnah/go-extract/internal/transcribe"
)

// segmentContentType is the format every slice is encoded to.
const segmentContentType = "audio/wav"

// Slicer materializes a segment as a temporary clip for the duration of fn.
type Slicer interface {
	Use(ctx context.Context, src string, seg audio.Segment, fn func(clipPath string)) error
}

var _ Slicer = (*audio.Slicer)(nil)

// SegmentResult pairs a segment with what transcribing it produced.
type SegmentResult struct {
	Segment audio.Segment
	Outcome transcribe.Outcome
}

// Orchestrator transcribes a long recording one segment at a time, in order.
// Pacing between service calls is enforced by the transcriber's pacer.
type Orchestrator struct {
	slicer      Slicer
	transcriber transcribe.Transcriber
	window      float64
	log         zerolog.Logger
}

// NewOrchestrator creates an orchestrator cutting windows of window seconds.
func NewOrchestrator(s Slicer, t transcribe.Transcriber, window float64, log zerolog.Logger) *Orchestrator {
	if window <= 0 {
		window = audio.DefaultWindow
	}
	return &Orchestrator{slicer: s, transcriber: t, window: window, log: log}
}

// Process returns one result per planned segment, in index order. A segment
// whose clip cannot be created is recorded as a segment creation failure and
// processing continues. When no segment was processed the full result list
// is still returned, together with ErrAllSegmentsFailed.
func (o *Orchestrator) Process(ctx context.Context, path string, total float64) ([]SegmentResult, error) {
	plan := audio.Plan(total, o.window)
	results := make([]SegmentResult, 0, len(plan))
	processed := 0

	for _, seg := range plan {
		o.log.Info().Int("segment", seg.Index+1).Int("of", len(plan)).
			Float64("start", seg.StartSeconds).Float64("end", seg.EndSeconds).
			Msg("processing segment")

		out := o.transcribeSegment(ctx, path, seg)
		if out.Processed() {
			processed++
		} else {
			o.log.Warn().Int("segment", seg.Index+1).Str("kind", out.Kind.String()).
				Str("detail", out.Message).Msg("segment failed")
		}
		results = append(results, SegmentResult{Segment: seg, Outcome: out})
	}

	if processed == 0 {
		return results, fmt.Errorf("%w: %d of %d segments failed", transcribe.ErrAllSegmentsFailed, len(plan), len(plan))
	}
	return results, nil
}

func (o *Orchestrator) transcribeSegment(ctx context.Context, path string, seg audio.Segment) transcribe.Outcome {
	var out transcribe.Outcome
	err := o.slicer.Use(ctx, path, seg, func(clip string) {
		out = o.transcriber.Transcribe(ctx, transcribe.Clip{Path: clip, ContentType: segmentContentType})
	})
	if err != nil {
		return transcribe.Failure(transcribe.KindSegmentCreation, err)
	}
	return out
}
