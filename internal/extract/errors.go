package extract

import "errors"

var (
	// ErrUnknownType indicates a file whose type could not be classified.
	ErrUnknownType = errors.New("unknown file type")

	// ErrRead indicates the file could not be read.
	ErrRead = errors.New("failed to read file")

	// ErrPDF indicates the PDF could not be parsed.
	ErrPDF = errors.New("failed to parse pdf")

	// ErrOCR indicates an image could not be processed by any OCR attempt.
	ErrOCR = errors.New("failed to run ocr")

	// ErrNoMedia indicates audio or video was requested without a media extractor.
	ErrNoMedia = errors.New("media extraction not configured")
)
