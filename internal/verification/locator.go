package verification

import (
	"strings"
	"unicode/utf8"
)

// maxValueSpan bounds how far past a field label the locator reads.
const maxValueSpan = 100

// HeuristicLocator finds field values by scanning for the field name in
// the document text and taking the trailing segment as the value. It is
// deliberately simple; callers with layout or template knowledge can
// substitute their own FieldLocator.
type HeuristicLocator struct {
	// Confidence reported for located values. Label proximity says
	// nothing about recognition quality, so this is a neutral constant
	// the verifier overrides with document confidence when zero.
	Confidence float64
}

// NewHeuristicLocator returns the default locator.
func NewHeuristicLocator() *HeuristicLocator {
	return &HeuristicLocator{}
}

// Locate searches for fieldName (case-insensitive, also matching
// underscores as spaces) and extracts the text following it, cut at the
// first line break, semicolon or comma. Returns ok=false when the field
// name never appears, so the verifier can report the field as missing
// rather than match against noise.
func (l *HeuristicLocator) Locate(documentText, fieldName string) (string, float64, bool) {
	if documentText == "" || fieldName == "" {
		return "", 0, false
	}

	lowerDoc := strings.ToLower(documentText)
	labels := []string{
		strings.ToLower(fieldName),
		strings.ToLower(strings.ReplaceAll(fieldName, "_", " ")),
	}

	for _, label := range labels {
		idx := strings.Index(lowerDoc, label)
		if idx < 0 {
			continue
		}
		value := extractValue(documentText, idx+len(label))
		if value == "" {
			continue
		}
		return value, l.Confidence, true
	}
	return "", 0, false
}

// extractValue takes up to maxValueSpan bytes after the label, then trims
// to the first line and cuts at separators, skipping a leading ":" or
// similar label punctuation.
func extractValue(text string, start int) string {
	if start >= len(text) {
		return ""
	}
	end := start + maxValueSpan
	if end > len(text) {
		end = len(text)
	}
	// Back up to a rune boundary so the span never ends mid-character.
	for end > start && end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	segment := strings.TrimSpace(text[start:end])
	segment = strings.TrimLeft(segment, ":-= \t")

	if i := strings.IndexAny(segment, "\n"); i >= 0 {
		segment = segment[:i]
	}
	for _, sep := range []string{";", ","} {
		if i := strings.Index(segment, sep); i >= 0 {
			segment = segment[:i]
		}
	}
	return strings.TrimSpace(segment)
}
