package chunk

import "errors"

// Chunking error sentinels. Use errors.Is to check.
var (
	// ErrMalformedInput indicates the text cannot be chunked, for example
	// because it is not valid UTF-8.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalidConfig indicates the chunking configuration is unusable.
	ErrInvalidConfig = errors.New("invalid chunking config")
)
