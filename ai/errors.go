package ai

import (
	"errors"
	"fmt"
)

// ErrEmptyInput indicates the capability was asked to analyze empty text.
var ErrEmptyInput = errors.New("input text is empty")

// CapabilityError wraps a failure of the external language capability.
// Transient errors (rate limits, timeouts, connection faults) may succeed on
// a later attempt; terminal errors (authentication, unparseable responses)
// will not.
type CapabilityError struct {
	// Op names the failing operation, e.g. "analyze" or "summarize".
	Op string

	// Err is the underlying cause.
	Err error

	// Transient reports whether retrying could plausibly succeed.
	Transient bool
}

func (e *CapabilityError) Error() string {
	kind := "terminal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("capability %s: %s: %v", e.Op, kind, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// NewCapabilityError builds a CapabilityError for op wrapping err.
func NewCapabilityError(op string, err error, transient bool) *CapabilityError {
	return &CapabilityError{Op: op, Err: err, Transient: transient}
}

// IsTransient reports whether err is a CapabilityError marked transient.
func IsTransient(err error) bool {
	var capErr *CapabilityError
	return errors.As(err, &capErr) && capErr.Transient
}
