package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Free-text parsing helpers shared by the generation gateway. The external
// model returns loosely formatted prose; these functions pull structured
// values out of it. All of them are pure, so a future structured-output
// model can bypass them entirely.

var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`SCORE:\s*(\d{1,3})`),
	regexp.MustCompile(`(?i)score:\s*(\d{1,3})`),
	regexp.MustCompile(`(\d{1,3})\s*/?\s*100`),
	regexp.MustCompile(`\b(\d{1,2})\b`),
}

// extractScore returns the first integer in [0,100] found in text,
// matching labeled scores before bare numbers.
func extractScore(text string) (int, bool) {
	for _, pattern := range scorePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		num, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if num >= 0 && num <= 100 {
			return num, true
		}
	}
	return 0, false
}

// extractNamedScore returns the first in-range integer following the
// earliest case-insensitive occurrence of keyword on the same line.
func extractNamedScore(text, keyword string) (int, bool) {
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword) + `.*?(\d{1,3})`)
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	num, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	if num >= 0 && num <= 100 {
		return num, true
	}
	return 0, false
}

var (
	numberedItem = regexp.MustCompile(`^\d+[\.\)]`)
	itemMarker   = regexp.MustCompile(`^[-*\d\.\)]+\s*`)
)

// sectionKeywords terminate list capture when a new major section starts.
var sectionKeywords = []string{"improvements", "feedback", "score", "summary"}

// extractListItems collects bullet or numbered lines under the first
// section heading containing any of the given keywords, capped at 5 items.
// A single placeholder item is returned when nothing is captured.
func extractListItems(text string, keywords ...string) []string {
	var items []string
	capturing := false

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)

		if containsAny(lower, keywords) {
			capturing = true
			continue
		}

		if capturing && containsAny(lower, sectionKeywords) && !containsAny(lower, keywords) {
			break
		}

		if capturing {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") || numberedItem.MatchString(trimmed) {
				item := strings.TrimSpace(itemMarker.ReplaceAllString(trimmed, ""))
				if item != "" {
					items = append(items, item)
				}
			}
		}
	}

	if len(items) == 0 {
		return []string{"See detailed feedback"}
	}
	if len(items) > 5 {
		items = items[:5]
	}
	return items
}

func containsAny(line string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(line, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// extractJSONObject returns the first balanced {...} span in text that
// parses as a JSON object.
func extractJSONObject(text string) (json.RawMessage, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			switch {
			case escaped:
				escaped = false
			case c == '\\' && inString:
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					candidate := text[start : i+1]
					if json.Valid([]byte(candidate)) {
						return json.RawMessage(candidate), true
					}
					i = len(text) // malformed span, try the next opening brace
				}
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start = start + 1 + next
	}
	return nil, false
}
