package openai

import (
	"fmt"
	"strings"

	"github.com/storyloom/distill/ai"
)

const analysisResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "themes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {
            "type": "string",
            "pattern": "^[a-z]+( [a-z]+)*$"
          },
          "confidence": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          },
          "evidence": {
            "type": "array",
            "items": {"type": "string"}
          }
        },
        "required": ["name", "confidence"],
        "additionalProperties": false
      }
    },
    "quotes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "text": {"type": "string"},
          "speaker": {"type": "string"},
          "confidence": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          },
          "sensitivity": {"type": "string"}
        },
        "required": ["text", "speaker", "confidence", "sensitivity"],
        "additionalProperties": false
      }
    },
    "insights": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "text": {"type": "string"},
          "category": {"type": "string"},
          "importance": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["text", "category", "importance"],
        "additionalProperties": false
      }
    },
    "keywords": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "term": {"type": "string"},
          "frequency": {
            "type": "integer",
            "minimum": 1
          }
        },
        "required": ["term", "frequency"],
        "additionalProperties": false
      }
    },
    "summary": {"type": "string"}
  },
  "required": ["themes", "quotes", "insights", "keywords", "summary"],
  "additionalProperties": false
}`

const analysisPromptTemplate = `You analyze excerpts from community documents: interview transcripts, meeting notes, reports, and personal stories. Extract themes, notable quotes, insights, and keywords, and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Theme names must be lowercase, 1-4 words. Confidence is 0.0 (weak signal) to 1.0 (dominant theme of the excerpt). Evidence holds short verbatim fragments supporting the theme.
- Quotes must be verbatim from the text, attributed to the speaker if one is identifiable, otherwise "". Sensitivity must match exactly one of: %s. Use "restricted" for personal hardship or identifying detail, "sacred" for cultural or ceremonial knowledge, "public" otherwise.
- Insight category must match exactly one of: %s. Importance is 0.0 to 1.0.
- Keywords are recurring meaningful terms, lowercase, with how many times each occurs in the excerpt.
- Summary is 1-2 sentences covering this excerpt only.
- Include only what the text explicitly supports. Do not hallucinate.
- If a section has no entries, return an empty array for it.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.



Example:
Input: "Maria told us the new clinic hours helped a lot. 'I can finally see a doctor without missing work,' she said. Others still struggle with the bus schedule."
Output:
{
  "themes": [
    {"name":"healthcare access","confidence":0.9,"evidence":["the new clinic hours helped a lot"]},
    {"name":"transport barriers","confidence":0.6,"evidence":["struggle with the bus schedule"]}
  ],
  "quotes": [
    {"text":"I can finally see a doctor without missing work","speaker":"Maria","confidence":0.95,"sensitivity":"public"}
  ],
  "insights": [
    {"text":"Extended clinic hours removed a work conflict for patients","category":"success","importance":0.8},
    {"text":"Bus schedules remain a barrier to reaching the clinic","category":"barrier","importance":0.7}
  ],
  "keywords": [
    {"term":"clinic","frequency":1},
    {"term":"bus","frequency":1}
  ],
  "summary": "New clinic hours improved healthcare access, though bus schedules still limit it for some."
}

Example (no extractable quotes):
Input: "attendance at the youth program doubled after we moved sessions to the weekend"
Output:
{
  "themes": [
    {"name":"youth engagement","confidence":0.85,"evidence":["attendance at the youth program doubled"]}
  ],
  "quotes": [],
  "insights": [
    {"text":"Weekend scheduling doubled youth program attendance","category":"success","importance":0.8}
  ],
  "keywords": [
    {"term":"youth program","frequency":1},
    {"term":"weekend","frequency":1}
  ],
  "summary": "Moving youth program sessions to weekends doubled attendance."
}`

const summaryPrompt = `You summarize community documents: interview transcripts, meeting notes, reports, and personal stories.

Write a single paragraph of 3-5 sentences capturing what the document is about, the main themes, and any clear outcomes. Use plain prose. Do not use bullet points, headings, or preamble such as "This document describes". Do not invent details absent from the text.`

// buildAnalysisPrompt creates the system prompt with the response schema and
// controlled vocabularies embedded.
func buildAnalysisPrompt() string {
	return fmt.Sprintf(analysisPromptTemplate,
		analysisResponseSchema,
		strings.Join(ai.SensitivityTiers, ", "),
		strings.Join(ai.InsightCategories, ", "))
}

// buildChunkMessage frames one chunk with its position so the model knows it
// is seeing an excerpt, not a whole document.
func buildChunkMessage(docCtx ai.DocumentContext, text string) string {
	var b strings.Builder
	if docCtx.Title != "" {
		fmt.Fprintf(&b, "Document: %s\n", docCtx.Title)
	}
	if docCtx.TotalChunks > 1 {
		fmt.Fprintf(&b, "Excerpt %d of %d\n", docCtx.ChunkIndex+1, docCtx.TotalChunks)
	}
	b.WriteString("\n")
	b.WriteString(text)
	return b.String()
}

// buildSummaryMessage frames the full document text for summarization.
func buildSummaryMessage(title, fullText string) string {
	if title == "" {
		return fullText
	}
	return fmt.Sprintf("Document: %s\n\n%s", title, fullText)
}
