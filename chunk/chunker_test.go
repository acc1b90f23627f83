package chunk

import (
	"errors"
	"strings"
	"testing"

	"github.com/storyloom/distill/core"
)

// reconstruct joins chunk texts, dropping each chunk's overlap with its
// predecessor. The result must equal the original input exactly.
func reconstruct(chunks []core.Chunk) string {
	var b strings.Builder
	prevEnd := 0
	for _, c := range chunks {
		runes := []rune(c.Text)
		dup := prevEnd - c.Start
		if dup < 0 {
			dup = 0
		}
		b.WriteString(string(runes[dup:]))
		prevEnd = c.End
	}
	return b.String()
}

func TestSplit_LongDocument(t *testing.T) {
	// 200 sentences of exactly 60 runes each.
	sentence := strings.Repeat("word ", 11) + "end. "
	if len(sentence) != 60 {
		t.Fatalf("test sentence is %d runes, want 60", len(sentence))
	}
	text := strings.Repeat(sentence, 200)

	chunks, err := Split(42, text, DefaultConfig())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 7 {
		t.Fatalf("got %d chunks, want 7", len(chunks))
	}

	for i, c := range chunks {
		if c.DocumentId != 42 {
			t.Errorf("chunk %d DocumentId = %d, want 42", i, c.DocumentId)
		}
		if c.Index != i {
			t.Errorf("chunk %d Index = %d", i, c.Index)
		}
		if c.End-c.Start > 2000 {
			t.Errorf("chunk %d spans %d runes, max is 2000", i, c.End-c.Start)
		}
		if c.WordCount == 0 {
			t.Errorf("chunk %d has zero word count", i)
		}
		if i > 0 {
			prev := chunks[i-1]
			if c.Start != prev.End-200 {
				t.Errorf("chunk %d starts at %d, want %d (prev end %d - overlap 200)",
					i, c.Start, prev.End-200, prev.End)
			}
			// Boundary-adjusted ends still land on sentence breaks.
			if i < len(chunks)-1 && !strings.HasSuffix(chunks[i].Text, ". ") {
				t.Errorf("chunk %d does not end at a sentence boundary: %q", i, tail(c.Text))
			}
		}
	}

	if got := reconstruct(chunks); got != text {
		t.Error("de-overlapped chunks do not reconstruct the input")
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	text := "A short note about the community garden."
	chunks, err := Split(7, text, DefaultConfig())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	c := chunks[0]
	if c.Start != 0 || c.End != len([]rune(text)) {
		t.Errorf("span [%d,%d) does not cover text of %d runes", c.Start, c.End, len([]rune(text)))
	}
	if c.Text != text {
		t.Errorf("Text = %q, want original", c.Text)
	}
	if c.WordCount != 7 {
		t.Errorf("WordCount = %d, want 7", c.WordCount)
	}
	if c.StartPage != 0 || c.EndPage != 0 {
		t.Errorf("pages = %d/%d, want 0/0 without page markers", c.StartPage, c.EndPage)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	chunks, err := Split(1, "", DefaultConfig())
	if err != nil {
		t.Fatalf("empty text should not error, got %v", err)
	}
	if chunks != nil {
		t.Errorf("empty text should yield zero chunks, got %d", len(chunks))
	}
}

func TestSplit_HardSplitWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("a", 5000)
	chunks, err := Split(1, text, DefaultConfig())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	// No sentence breaks anywhere: hard cuts at 2000.
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[0].End != 2000 {
		t.Errorf("chunk 0 end = %d, want hard cut at 2000", chunks[0].End)
	}
	if got := reconstruct(chunks); got != text {
		t.Error("de-overlapped chunks do not reconstruct the input")
	}
}

func TestSplit_ParagraphBoundaryPreferred(t *testing.T) {
	// Paragraph break at 1899 sits inside the search window below the
	// 2000-rune cutoff.
	text := strings.Repeat("a", 1899) + "\n\n" + strings.Repeat("b", 1000)
	chunks, err := Split(1, text, DefaultConfig())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].End != 1901 {
		t.Errorf("chunk 0 end = %d, want 1901 (after the blank line)", chunks[0].End)
	}
	if !strings.HasSuffix(chunks[0].Text, "\n\n") {
		t.Error("chunk 0 should end with the paragraph break")
	}
	if got := reconstruct(chunks); got != text {
		t.Error("de-overlapped chunks do not reconstruct the input")
	}
}

func TestSplit_BoundariesDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreserveBoundaries = false

	sentence := strings.Repeat("word ", 11) + "end. "
	text := strings.Repeat(sentence, 200)

	chunks, err := Split(1, text, cfg)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if chunks[0].End != 2000 {
		t.Errorf("chunk 0 end = %d, want exact cut at 2000", chunks[0].End)
	}
}

func TestSplit_PageTracking(t *testing.T) {
	text := "first page text here\fsecond page text here\fthird page"
	chunks, err := Split(1, text, DefaultConfig())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].StartPage != 1 {
		t.Errorf("StartPage = %d, want 1", chunks[0].StartPage)
	}
	if chunks[0].EndPage != 3 {
		t.Errorf("EndPage = %d, want 3", chunks[0].EndPage)
	}
}

func TestSplit_PageTrackingAcrossChunks(t *testing.T) {
	cfg := Config{MaxChunkSize: 30, OverlapSize: 5, MinChunkSize: 5, PreserveBoundaries: false}
	text := strings.Repeat("a", 25) + "\f" + strings.Repeat("b", 40)

	chunks, err := Split(1, text, cfg)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	if chunks[0].StartPage != 1 {
		t.Errorf("chunk 0 StartPage = %d, want 1", chunks[0].StartPage)
	}
	last := chunks[len(chunks)-1]
	if last.EndPage != 2 {
		t.Errorf("last chunk EndPage = %d, want 2", last.EndPage)
	}
}

func TestSplit_MultiByteText(t *testing.T) {
	cfg := Config{MaxChunkSize: 10, OverlapSize: 2, MinChunkSize: 3, PreserveBoundaries: false}
	text := strings.Repeat("héllo wörld ", 5)

	chunks, err := Split(1, text, cfg)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	for i, c := range chunks {
		if c.End-c.Start > 10 {
			t.Errorf("chunk %d spans %d runes", i, c.End-c.Start)
		}
	}
	if got := reconstruct(chunks); got != text {
		t.Error("multi-byte text does not reconstruct")
	}
}

func TestSplit_InvalidUTF8(t *testing.T) {
	_, err := Split(1, "valid prefix \xff\xfe", DefaultConfig())
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("error = %v, want ErrMalformedInput", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", DefaultConfig(), true},
		{"zero max", Config{MaxChunkSize: 0, OverlapSize: 0, MinChunkSize: 0}, false},
		{"negative overlap", Config{MaxChunkSize: 100, OverlapSize: -1}, false},
		{"negative min", Config{MaxChunkSize: 100, OverlapSize: 10, MinChunkSize: -1}, false},
		{"overlap not below max", Config{MaxChunkSize: 100, OverlapSize: 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func tail(s string) string {
	if len(s) <= 20 {
		return s
	}
	return s[len(s)-20:]
}
