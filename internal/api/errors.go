package api

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnauthorized = errors.New("ledger: unauthorized, check the API token")
	ErrForbidden    = errors.New("ledger: forbidden, the application lacks permission in this guild")
)

// RateLimitError is returned on 429. Callers surface it instead of retrying.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("ledger: rate limited, retry after %s", e.RetryAfter)
}

// StatusError carries any other non-200 response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ledger: API error %d: %s", e.Status, e.Body)
}

// NetworkError wraps transport failures. Timeout is set when the request ran
// out of time rather than failing outright.
type NetworkError struct {
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("ledger: request timed out: %v", e.Err)
	}
	return fmt.Sprintf("ledger: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a ledger request that ran out of time.
func IsTimeout(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.Timeout
}
