package audio

import "errors"

// ErrSliceFailed indicates ffmpeg could not cut a segment out of the source.
var ErrSliceFailed = errors.New("segment slicing failed")

// ErrEmptySlice indicates a slice was produced but holds no audio data.
var ErrEmptySlice = errors.New("segment slice is empty")

// ErrConversionFailed indicates the source could not be re-encoded to WAV.
var ErrConversionFailed = errors.New("audio format conversion failed")

// ErrTrackExtraction indicates no audio track could be pulled from a video.
var ErrTrackExtraction = errors.New("audio track extraction failed")

// ErrProbeFailed indicates the duration of a file could not be determined.
var ErrProbeFailed = errors.New("duration probe failed")
