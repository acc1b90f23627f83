package fallback

import (
	"strings"
	"testing"

	"github.com/storyloom/distill/core"
)

func TestExtractQuotes_DirectWithAttributionAfter(t *testing.T) {
	text := `She smiled. "The program changed everything for my family," said Maria Torres.`

	quotes := extractQuotes(text)
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1: %+v", len(quotes), quotes)
	}
	q := quotes[0]
	if !strings.HasPrefix(q.Text, "The program changed everything") {
		t.Errorf("Text = %q", q.Text)
	}
	if q.Speaker != "Maria Torres" {
		t.Errorf("Speaker = %q, want Maria Torres", q.Speaker)
	}
	if q.Confidence != directQuoteConfidence {
		t.Errorf("Confidence = %v", q.Confidence)
	}
	if q.Sensitivity != core.SensitivityPublic {
		t.Errorf("Sensitivity = %v", q.Sensitivity)
	}
	if q.Provenance != core.ProvenanceFallback {
		t.Errorf("Provenance = %v", q.Provenance)
	}
}

func TestExtractQuotes_AttributionBefore(t *testing.T) {
	text := `Maria said: "When the bus route changed we lost our easiest way into town."`

	quotes := extractQuotes(text)
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	if quotes[0].Speaker != "Maria" {
		t.Errorf("Speaker = %q, want Maria", quotes[0].Speaker)
	}
}

func TestExtractQuotes_CurlyQuotes(t *testing.T) {
	text := `The report noted: “Families keep returning to the garden every weekend.”`

	quotes := extractQuotes(text)
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	if quotes[0].Text != "Families keep returning to the garden every weekend." {
		t.Errorf("Text = %q", quotes[0].Text)
	}
}

func TestExtractQuotes_LengthBounds(t *testing.T) {
	short := `He called it "a good start" and moved on.`
	if quotes := extractQuotes(short); len(quotes) != 0 {
		t.Errorf("short span should be rejected, got %+v", quotes)
	}

	long := `See "` + strings.Repeat("x", 400) + `" for details.`
	if quotes := extractQuotes(long); len(quotes) != 0 {
		t.Errorf("overlong span should be rejected, got %+v", quotes)
	}
}

func TestExtractQuotes_ReportedSpeech(t *testing.T) {
	text := `The elder told the group that the river had always provided for them.`

	quotes := extractQuotes(text)
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	q := quotes[0]
	if q.Speaker != "elder" {
		t.Errorf("Speaker = %q, want elder", q.Speaker)
	}
	if q.Confidence != reportedSpeechConfidence {
		t.Errorf("Confidence = %v", q.Confidence)
	}
	if q.Text != text {
		t.Errorf("Text = %q, want the whole sentence", q.Text)
	}
}

func TestExtractQuotes_ReportedSpeechNeedsVerb(t *testing.T) {
	text := `The coordinator organised the schedule for the community hall.`
	if quotes := extractQuotes(text); len(quotes) != 0 {
		t.Errorf("role without reporting verb should not match, got %+v", quotes)
	}
}

func TestExtractQuotes_Dedup(t *testing.T) {
	text := `"The clinic saved my life this winter," she said. Later she repeated: "The clinic saved my life this winter,"`
	quotes := extractQuotes(text)
	if len(quotes) != 1 {
		t.Errorf("duplicate spans should collapse, got %d", len(quotes))
	}
}

func TestClassifySensitivity(t *testing.T) {
	tests := []struct {
		text string
		want core.Sensitivity
	}{
		{"The festival starts at noon by the hall", core.SensitivityPublic},
		{"She spoke about her private grief after the loss", core.SensitivityRestricted},
		{"The ceremony site must stay protected", core.SensitivitySacred},
		// Sacred outranks restricted when both appear.
		{"A private ceremony for the family", core.SensitivitySacred},
	}

	for _, tt := range tests {
		if got := classifySensitivity(tt.text); got != tt.want {
			t.Errorf("classifySensitivity(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
