package services

import (
	"encoding/json"
	"testing"
)

func TestExtractScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
		found    bool
	}{
		{
			name:     "Labeled uppercase score",
			text:     "SCORE: 85\nGood answer overall.",
			expected: 85,
			found:    true,
		},
		{
			name:     "Labeled lowercase score",
			text:     "Your score: 72 out of 100",
			expected: 72,
			found:    true,
		},
		{
			name:     "Fraction of hundred",
			text:     "I would rate this 64/100 overall",
			expected: 64,
			found:    true,
		},
		{
			name:     "Bare small number",
			text:     "This answer deserves a 7 for clarity",
			expected: 7,
			found:    true,
		},
		{
			name:  "No number at all",
			text:  "An excellent response with strong reasoning.",
			found: false,
		},
		{
			name:     "Label wins over earlier bare number",
			text:     "Question 3 follow-up. SCORE: 90",
			expected: 90,
			found:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, ok := extractScore(tt.text)
			if ok != tt.found {
				t.Fatalf("extractScore() found = %v, expected %v", ok, tt.found)
			}
			if ok && score != tt.expected {
				t.Errorf("extractScore() = %d, expected %d", score, tt.expected)
			}
		})
	}
}

func TestExtractNamedScore(t *testing.T) {
	text := "Content: 80\nCommunication: 65\nConfidence: 70"

	tests := []struct {
		keyword  string
		expected int
		found    bool
	}{
		{"content", 80, true},
		{"communication", 65, true},
		{"confidence", 70, true},
		{"leadership", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			score, ok := extractNamedScore(text, tt.keyword)
			if ok != tt.found {
				t.Fatalf("extractNamedScore(%q) found = %v, expected %v", tt.keyword, ok, tt.found)
			}
			if ok && score != tt.expected {
				t.Errorf("extractNamedScore(%q) = %d, expected %d", tt.keyword, score, tt.expected)
			}
		})
	}
}

func TestExtractListItems(t *testing.T) {
	text := `Overall a decent performance.

Top Strengths:
- Clear structure
- Good examples
* Confident delivery

Improvements:
1. Slow down
2) Add more data

Summary: keep practicing.`

	strengths := extractListItems(text, "strengths")
	if len(strengths) != 3 {
		t.Fatalf("expected 3 strengths, got %d: %v", len(strengths), strengths)
	}
	if strengths[0] != "Clear structure" {
		t.Errorf("first strength = %q", strengths[0])
	}
	if strengths[2] != "Confident delivery" {
		t.Errorf("third strength = %q", strengths[2])
	}

	improvements := extractListItems(text, "improvements")
	if len(improvements) != 2 {
		t.Fatalf("expected 2 improvements, got %d: %v", len(improvements), improvements)
	}
	if improvements[0] != "Slow down" {
		t.Errorf("first improvement = %q", improvements[0])
	}
}

func TestExtractListItemsPlaceholder(t *testing.T) {
	items := extractListItems("No structured sections here.", "strengths")
	if len(items) != 1 || items[0] != "See detailed feedback" {
		t.Errorf("expected placeholder item, got %v", items)
	}
}

func TestExtractListItemsCap(t *testing.T) {
	text := `Strengths:
- one
- two
- three
- four
- five
- six
- seven`

	items := extractListItems(text, "strengths")
	if len(items) != 5 {
		t.Errorf("expected list capped at 5, got %d", len(items))
	}
}

func TestExtractJSONObject(t *testing.T) {
	text := "Here is my evaluation:\n```json\n{\"overall_score\": 8.5, \"scores\": {\"content\": 7}}\n```\nHope that helps."

	raw, ok := extractJSONObject(text)
	if !ok {
		t.Fatal("expected a JSON object to be found")
	}

	var decoded struct {
		OverallScore float64 `json:"overall_score"`
		Scores       struct {
			Content float64 `json:"content"`
		} `json:"scores"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("extracted object does not decode: %v", err)
	}
	if decoded.OverallScore != 8.5 || decoded.Scores.Content != 7 {
		t.Errorf("decoded unexpected values: %+v", decoded)
	}
}

func TestExtractJSONObjectHandlesBracesInStrings(t *testing.T) {
	text := `prefix {"detailed_feedback": "nested {braces} inside", "overall_score": 6} suffix`

	raw, ok := extractJSONObject(text)
	if !ok {
		t.Fatal("expected a JSON object to be found")
	}
	if !json.Valid(raw) {
		t.Fatalf("extracted span is not valid JSON: %s", raw)
	}
}

func TestExtractJSONObjectMissing(t *testing.T) {
	if _, ok := extractJSONObject("no json here, just text"); ok {
		t.Error("expected no object in plain text")
	}
}
