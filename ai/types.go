package ai

// ChunkAnalysis is the wire-level result of analyzing one chunk.
// Fields mirror the JSON contract with the capability; consumers convert
// them to domain types and attach provenance.
type ChunkAnalysis struct {
	Themes   []ExtractedTheme
	Quotes   []ExtractedQuote
	Insights []ExtractedInsight
	Keywords []ExtractedKeyword
	Summary  string
}

// ExtractedTheme is a recurring topic reported by the capability.
type ExtractedTheme struct {
	// Name is the theme label, title case, 1-4 words.
	Name string

	// Confidence is a score in [0,1]; out-of-range model output is clamped.
	Confidence float64

	// Evidence holds short supporting fragments from the chunk.
	Evidence []string
}

// ExtractedQuote is an attributed span of speech reported by the capability.
type ExtractedQuote struct {
	Text    string
	Speaker string

	// Confidence is a score in [0,1].
	Confidence float64

	// Sensitivity is one of SensitivityTiers; unknown values default to the
	// most permissive tier during conversion.
	Sensitivity string
}

// ExtractedInsight is an actionable observation reported by the capability.
type ExtractedInsight struct {
	Text string

	// Category is one of InsightCategories; items with unknown categories
	// are dropped during conversion.
	Category string

	// Importance is a score in [0,1].
	Importance float64
}

// ExtractedKeyword is a significant term with its occurrence count.
type ExtractedKeyword struct {
	Term      string
	Frequency int
}

// InsightCategories defines the valid insight classifications.
// These values are embedded in the analysis prompt.
var InsightCategories = []string{
	"gap",
	"opportunity",
	"success",
	"barrier",
}

// SensitivityTiers defines the valid quote sensitivity classifications,
// ordered from most to least shareable.
var SensitivityTiers = []string{
	"public",
	"restricted",
	"sacred",
}
