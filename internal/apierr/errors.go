// Package apierr provides shared error sentinels and retry infrastructure
// for the remote services wisekeep talks to: blob storage, the recordings
// backend, and the speech API. Service-specific failures are classified
// into these sentinels at each adapter boundary.
//
// Adapters map HTTP status codes to these errors using
// fmt.Errorf("%s: %w", msg, sentinel). Callers check with
// errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import (
	"errors"
	"fmt"
)

// Sentinel errors for remote-service failures.
var (
	// ErrRateLimit indicates a rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates an account quota was exceeded (requires user action, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates authentication failed (invalid or missing key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotFound indicates the requested resource does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrUnavailable indicates the service returned a server error (5xx, retryable).
	ErrUnavailable = errors.New("service unavailable")
)

// IsRetryable reports whether an error is transient and worth retrying.
// Rate limits, timeouts, and server errors are retryable; auth failures,
// quota exhaustion, and malformed requests are not.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnavailable)
}

// ClassifyStatus maps an HTTP status code to a sentinel error, wrapping the
// given message. Returns nil for 2xx codes.
func ClassifyStatus(statusCode int, msg string) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == 429:
		return wrap(msg, ErrRateLimit)
	case statusCode == 401 || statusCode == 403:
		return wrap(msg, ErrAuthFailed)
	case statusCode == 404:
		return wrap(msg, ErrNotFound)
	case statusCode == 408 || statusCode == 504:
		return wrap(msg, ErrTimeout)
	case statusCode >= 500:
		return wrap(msg, ErrUnavailable)
	default:
		return wrap(msg, ErrBadRequest)
	}
}

func wrap(msg string, sentinel error) error {
	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%s: %w", msg, sentinel)
}
