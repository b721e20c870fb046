package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrFileNotFound indicates an input path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrNotADirectory indicates the watch target is not a directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrUnsupportedBackend indicates an unknown --backend value.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrHistoryDisabled indicates history was requested while turned off.
	ErrHistoryDisabled = errors.New("history is disabled (config history=off)")

	// ErrExtractionFailed indicates at least one file could not be extracted.
	ErrExtractionFailed = errors.New("extraction failed")
)
