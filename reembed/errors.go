package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrVectorCountMismatch is returned when an embedding call yields a
	// different number of vectors than chunks sent.
	ErrVectorCountMismatch = errors.New("embedding count mismatch")
)
