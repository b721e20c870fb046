// Package apierr provides shared error sentinels and retry infrastructure
// for the HTTP speech services. Provider responses are classified into these
// sentinels at the adapter boundary so callers only check errors.Is.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the service throttled the request (retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the account quota or credits are exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates the subscription key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrServer indicates the service failed on its side (5xx).
	ErrServer = errors.New("server error")

	// ErrNetwork indicates the request never produced an HTTP response.
	ErrNetwork = errors.New("network error")
)

// Error is a non-2xx response from a speech service.
// Message holds the most specific error text found in the response body.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto a sentinel so errors.Is works on *Error.
func (e *Error) Unwrap() error {
	return ClassifyStatus(e.StatusCode)
}

// ClassifyStatus returns the sentinel for an HTTP status code, or nil for 2xx.
func ClassifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return ErrRateLimit
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuthFailed
	case code == http.StatusPaymentRequired:
		return ErrQuotaExceeded
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ErrTimeout
	case code >= 500:
		return ErrServer
	default:
		return ErrBadRequest
	}
}

// IsTransient reports whether err is worth retrying: throttling, timeouts,
// server overload and transport failures.
func IsTransient(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}
