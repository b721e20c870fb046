// Package extract turns files of any supported type into text and records
// how the text was obtained.
package extract

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// MediaExtractor handles the audio and video branches.
type MediaExtractor interface {
	ExtractAudio(ctx context.Context, path string) Result
	ExtractVideo(ctx context.Context, path string) Result
}

// Extractor dispatches a file to the extraction routine for its type.
type Extractor struct {
	images *Chain
	media  MediaExtractor
	log    zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithImageChain sets the OCR chain used for images.
func WithImageChain(c *Chain) Option {
	return func(e *Extractor) { e.images = c }
}

// WithMedia sets the extractor used for audio and video.
func WithMedia(m MediaExtractor) Option {
	return func(e *Extractor) { e.media = m }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Extractor) { e.log = l }
}

// NewExtractor creates an extractor. Without an image chain or media
// extractor the corresponding types fail with a descriptive result.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract extracts text from path, which has been classified as ft.
func (e *Extractor) Extract(ctx context.Context, path string, ft FileType) Result {
	e.log.Debug().Str("path", path).Str("type", string(ft)).Msg("extracting")

	switch ft {
	case TypeText:
		return ExtractText(path)
	case TypePDF:
		return ExtractPDF(path)
	case TypeImage:
		if e.images == nil {
			return Result{Text: "Image extraction is not configured.", Method: "Error", Err: ErrOCR}
		}
		return e.images.Extract(ctx, path)
	case TypeAudio, TypeVideo:
		if e.media == nil {
			return Result{Text: "Audio and video extraction is not configured.", Method: "Error", Err: ErrNoMedia}
		}
		if ft == TypeAudio {
			return e.media.ExtractAudio(ctx, path)
		}
		return e.media.ExtractVideo(ctx, path)
	default:
		return Result{
			Text:   "Cannot extract text from unknown file type: " + path,
			Method: "Unknown",
			Err:    fmt.Errorf("%w: %s", ErrUnknownType, path),
		}
	}
}
