// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAttemptsExhausted is returned when every attempt for a request failed
// with a retryable error.
var ErrAttemptsExhausted = errors.New("fetch attempts exhausted")

// ErrorClass groups failures by retry policy.
type ErrorClass string

const (
	// ErrorClassNetwork covers transport-level failures: timeouts,
	// connection resets, DNS errors. Retried with linear backoff.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassRateLimit covers HTTP 429. Retried with a longer linear
	// backoff than network errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassTerminal covers every other non-2xx status. The resource
	// is missing or the request was rejected outright; never retried.
	ErrorClassTerminal ErrorClass = "terminal"
)

// Error is a classified fetch failure for a single URL.
type Error struct {
	URL        string
	StatusCode int
	Class      ErrorClass
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s error for %s: %v", e.Class, e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s error for %s: HTTP %d", e.Class, e.URL, e.StatusCode)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// classify maps an HTTP status code outside the 2xx range to an ErrorClass.
func classify(status int) ErrorClass {
	if status == http.StatusTooManyRequests {
		return ErrorClassRateLimit
	}
	return ErrorClassTerminal
}

// retryable reports whether a failure of the given class may be retried.
func retryable(class ErrorClass) bool {
	return class == ErrorClassNetwork || class == ErrorClassRateLimit
}
