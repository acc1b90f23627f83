package openai

import (
	"context"
	"errors"
	"net"
	"strings"
)

// transientMarkers are substrings of provider error messages that indicate a
// retryable condition. Matched case-insensitively.
var transientMarkers = []string{
	"rate limit",
	"too many requests",
	"429",
	"500",
	"502",
	"503",
	"504",
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"temporarily unavailable",
	"server overloaded",
}

// isTransientErr classifies a provider call failure. Timeouts, rate limits,
// and connection faults may succeed on retry; auth failures, bad requests,
// and an explicitly cancelled context will not.
func isTransientErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
