package model

import (
	"fmt"
	"time"
)

// HTTPError is how the fetch client reports a non-2xx upstream response.
// Carrying the status code (and any Retry-After hint) lets the retry loop
// distinguish transient board outages from permanent request errors.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from the Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
