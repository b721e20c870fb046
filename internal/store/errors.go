package store

import "errors"

var (
	// ErrSave indicates an extract file could not be written.
	ErrSave = errors.New("failed to save extract")

	// ErrHistory indicates a history database operation failed.
	ErrHistory = errors.New("history store error")
)
