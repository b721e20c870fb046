package ffmpeg

import "errors"

// ErrNotFound indicates the ffmpeg binary could not be located.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrToolNotFound indicates a companion binary (e.g. tesseract) could not be located.
var ErrToolNotFound = errors.New("external tool not found")
