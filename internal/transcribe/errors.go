package transcribe

import "errors"

// ErrMissingCredential indicates no API key is configured for the selected backend.
var ErrMissingCredential = errors.New("speech service credential not configured")

// ErrUnsupportedFormat indicates the audio could not be converted to an accepted format.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ErrSegmentCreation indicates a segment clip could not be materialized.
var ErrSegmentCreation = errors.New("segment creation failed")

// ErrAllSegmentsFailed indicates no segment of a long recording was transcribed.
var ErrAllSegmentsFailed = errors.New("all segments failed")

// ErrMediaRead indicates the input media could not be read or decoded.
var ErrMediaRead = errors.New("media read failed")

// ErrMalformedResponse indicates a 200 response whose body is not JSON.
var ErrMalformedResponse = errors.New("malformed response body")
