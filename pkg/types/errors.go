package types

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Search errors
	ErrSearchUnavailable = errors.New("search temporarily unavailable")
	ErrInvalidResponse   = errors.New("search response violates result count invariant")
	ErrInvalidFilter     = errors.New("invalid search filter")

	// Index errors
	ErrInvalidItem = errors.New("invalid search item")
	ErrDuplicateID = errors.New("duplicate item id")

	// Cache errors, handled internally and never returned to callers
	ErrMalformedCacheEntry = errors.New("malformed cache entry")
)

// TransportError reports a failed remote search call. It matches
// ErrSearchUnavailable with errors.Is.
type TransportError struct {
	StatusCode int // Zero when the request never got a response
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search transport: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("search transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes every transport failure look like ErrSearchUnavailable to callers
func (e *TransportError) Is(target error) bool {
	return target == ErrSearchUnavailable
}

// Retryable reports whether another attempt could succeed
func (e *TransportError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}
