package ocr

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// language identification runs once per document on a bounded sample of
// the fused text.

const (
	// maxLanguageSampleChars bounds the text handed to the classifier.
	maxLanguageSampleChars = 500
	// fallbackLanguage is reported when the sample is too short to judge.
	fallbackLanguage = "en"
)

// LanguageDetector classifies the dominant language of extracted text.
type LanguageDetector interface {
	Detect(text string) (code string, confidence float64)
}

// TrigramDetector identifies languages from character trigram statistics.
type TrigramDetector struct{}

// NewLanguageDetector returns the default trigram-based detector.
func NewLanguageDetector() *TrigramDetector {
	return &TrigramDetector{}
}

// Detect returns an ISO 639-1 code and a confidence in [0,1]. Samples
// shorter than three characters fall back to English at 0.5.
func (d *TrigramDetector) Detect(text string) (string, float64) {
	sample := strings.TrimSpace(text)
	if runes := []rune(sample); len(runes) > maxLanguageSampleChars {
		sample = string(runes[:maxLanguageSampleChars])
	}
	if len(strings.TrimSpace(sample)) < 3 {
		return fallbackLanguage, 0.5
	}

	info := whatlanggo.Detect(sample)
	code := info.Lang.Iso6391()
	if code == "" {
		return fallbackLanguage, 0.3
	}
	return code, clampConfidence(info.Confidence)
}
