package ai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilityError_Error(t *testing.T) {
	cause := errors.New("connection refused")

	transient := NewCapabilityError("analyze", cause, true)
	assert.Contains(t, transient.Error(), "analyze")
	assert.Contains(t, transient.Error(), "transient")
	assert.Contains(t, transient.Error(), "connection refused")

	terminal := NewCapabilityError("embed", cause, false)
	assert.Contains(t, terminal.Error(), "terminal")
}

func TestCapabilityError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewCapabilityError("summarize", cause, false)

	require.ErrorIs(t, err, cause)

	var capErr *CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "summarize", capErr.Op)
}

func TestIsTransient(t *testing.T) {
	cause := errors.New("timeout")

	assert.True(t, IsTransient(NewCapabilityError("analyze", cause, true)))
	assert.False(t, IsTransient(NewCapabilityError("analyze", cause, false)))

	// Wrapped one layer deeper it should still classify.
	wrapped := fmt.Errorf("chunk 3: %w", NewCapabilityError("analyze", cause, true))
	assert.True(t, IsTransient(wrapped))

	// Plain errors are never transient.
	assert.False(t, IsTransient(cause))
	assert.False(t, IsTransient(nil))
}
