package openai

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_FiltersAndSorts(t *testing.T) {
	a := &Analyzer{minThemeConfidence: 0.3}

	payload := analysisPayload{
		Themes: []themePayload{
			{Name: "transport", Confidence: 0.5},
			{Name: "", Confidence: 0.9},
			{Name: "noise", Confidence: 0.1},
			{Name: "housing", Confidence: 0.95},
			{Name: "overclaimed", Confidence: 1.7},
		},
		Summary: "  a summary  ",
	}

	result := a.convert(payload)

	// Empty name and sub-threshold confidence dropped, remainder sorted
	// descending, out-of-range clamped to 1.
	require.Len(t, result.Themes, 3)
	assert.Equal(t, "overclaimed", result.Themes[0].Name)
	assert.Equal(t, 1.0, result.Themes[0].Confidence)
	assert.Equal(t, "housing", result.Themes[1].Name)
	assert.Equal(t, "transport", result.Themes[2].Name)
	assert.Equal(t, "a summary", result.Summary)
}

func TestConvert_NormalizesQuotesAndInsights(t *testing.T) {
	a := &Analyzer{}

	payload := analysisPayload{
		Quotes: []quotePayload{
			{Text: " it helped ", Speaker: " Maria ", Confidence: -0.5, Sensitivity: " Restricted "},
			{Text: "   ", Speaker: "skipped"},
		},
		Insights: []insightPayload{
			{Text: "clinic hours work", Category: "Success", Importance: 0.8},
		},
		Keywords: []keywordPayload{
			{Term: " Clinic ", Frequency: 0},
			{Term: "", Frequency: 3},
		},
	}

	result := a.convert(payload)

	require.Len(t, result.Quotes, 1)
	assert.Equal(t, "it helped", result.Quotes[0].Text)
	assert.Equal(t, "Maria", result.Quotes[0].Speaker)
	assert.Equal(t, 0.0, result.Quotes[0].Confidence)
	assert.Equal(t, "restricted", result.Quotes[0].Sensitivity)

	require.Len(t, result.Insights, 1)
	assert.Equal(t, "success", result.Insights[0].Category)

	require.Len(t, result.Keywords, 1)
	assert.Equal(t, "clinic", result.Keywords[0].Term)
	assert.Equal(t, 1, result.Keywords[0].Frequency)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "", truncateRunes("abc", 0))
	// Multi-byte text is clipped on rune boundaries.
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
}

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "dial tcp: i/o problem" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

var _ net.Error = fakeNetError{}

func TestIsTransientErr(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"context cancelled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"net error", fakeNetError{}, true},
		{"rate limited", errors.New("API returned error: 429 Too Many Requests"), true},
		{"bad gateway", errors.New("unexpected status: 502 Bad Gateway"), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:11434: connect: connection refused"), true},
		{"auth failure", errors.New("API returned error: 401 Unauthorized"), false},
		{"model missing", errors.New("API returned error: 404 model not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, isTransientErr(tt.err))
		})
	}
}
