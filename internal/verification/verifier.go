/**
 * Field Verification Engine - checks user-supplied field values against
 * text recognized from the document, field by field.
 *
 * Each field is scored with four similarity metrics, classified as
 * MATCH / PARTIAL_MATCH / MISMATCH and given a blended confidence. A
 * field that cannot be located in the document is still reported, as a
 * zero-confidence mismatch, never dropped.
 */

package verification

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// MatchStatus classifies one verified field.
type MatchStatus string

const (
	StatusMatch        MatchStatus = "MATCH"
	StatusPartialMatch MatchStatus = "PARTIAL_MATCH"
	StatusMismatch     MatchStatus = "MISMATCH"
)

// SimilarityScores holds the four independent metrics, each in [0,1].
type SimilarityScores struct {
	Levenshtein  float64 `json:"levenshtein"`
	FuzzyRatio   float64 `json:"fuzzy_ratio"`
	FuzzyPartial float64 `json:"fuzzy_partial"`
	FuzzyToken   float64 `json:"fuzzy_token"`
}

// Field is the verification outcome for a single user-supplied value.
type Field struct {
	FieldName        string           `json:"field_name"`
	FieldValue       string           `json:"field_value"`
	OCRValue         string           `json:"ocr_value"`
	MatchStatus      MatchStatus      `json:"match_status"`
	Similarity       float64          `json:"similarity"`
	SimilarityScores SimilarityScores `json:"similarity_scores"`
	ExactMatch       bool             `json:"exact_match"`
	PartialMatch     bool             `json:"partial_match"`
	Confidence       float64          `json:"confidence"`
	OCRConfidence    float64          `json:"ocr_confidence"`
}

// Summary aggregates per-field outcomes for the whole request.
type Summary struct {
	TotalFields       int     `json:"total_fields"`
	Matches           int     `json:"matches"`
	PartialMatches    int     `json:"partial_matches"`
	Mismatches        int     `json:"mismatches"`
	MatchRate         float64 `json:"match_rate"`
	OverallConfidence float64 `json:"overall_confidence"`
}

// Report is the full verification result for one document.
type Report struct {
	Fields  map[string]Field `json:"verification_results"`
	Summary Summary          `json:"summary"`
}

// FieldLocator supplies the candidate document value for a field name.
// Matching heuristics live behind this interface, not in the verifier.
type FieldLocator interface {
	Locate(documentText, fieldName string) (matchedText string, localConfidence float64, ok bool)
}

// Config carries the verification thresholds and confidence weights.
// The defaults reproduce the documented scoring exactly.
type Config struct {
	// SimilarityThreshold is the best-similarity at which a field counts
	// as a full MATCH (default 0.85).
	SimilarityThreshold float64
	// PartialThreshold is the best-similarity floor for PARTIAL_MATCH
	// (default 0.6).
	PartialThreshold float64
	// ContainmentBoost is the similarity floor granted when one
	// normalized value contains the other (default 0.7).
	ContainmentBoost float64

	// Confidence blend weights (defaults 0.4 / 0.4 / 0.2).
	OCRConfidenceWeight float64
	SimilarityWeight    float64
	CompletenessWeight  float64
}

// DefaultConfig returns the documented default thresholds and weights.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.85,
		PartialThreshold:    0.6,
		ContainmentBoost:    0.7,
		OCRConfidenceWeight: 0.4,
		SimilarityWeight:    0.4,
		CompletenessWeight:  0.2,
	}
}

// Verifier checks user field maps against recognized document text.
type Verifier struct {
	cfg     Config
	locator FieldLocator
}

// NewVerifier builds a verifier; a nil locator falls back to the
// heuristic document locator.
func NewVerifier(cfg Config, locator FieldLocator) *Verifier {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if locator == nil {
		locator = NewHeuristicLocator()
	}
	return &Verifier{cfg: cfg, locator: locator}
}

// Verify checks every user field against the document text and returns
// the per-field results plus the aggregate summary. The result covers
// every input field, including those with no locatable counterpart.
func (v *Verifier) Verify(documentText string, documentConfidence float64, userFields map[string]string) *Report {
	report := &Report{Fields: make(map[string]Field, len(userFields))}

	var confSum float64
	for name, value := range userFields {
		var field Field
		matched, localConf, ok := v.locator.Locate(documentText, name)
		if !ok {
			field = v.missingField(name, value)
		} else {
			if localConf <= 0 {
				localConf = documentConfidence
			}
			field = v.VerifyField(name, value, matched, localConf)
		}

		report.Fields[name] = field
		confSum += field.Confidence
		switch field.MatchStatus {
		case StatusMatch:
			report.Summary.Matches++
		case StatusPartialMatch:
			report.Summary.PartialMatches++
		default:
			report.Summary.Mismatches++
		}
	}

	report.Summary.TotalFields = len(userFields)
	if report.Summary.TotalFields > 0 {
		report.Summary.MatchRate = float64(report.Summary.Matches) / float64(report.Summary.TotalFields)
		report.Summary.OverallConfidence = confSum / float64(report.Summary.TotalFields)
	}
	return report
}

// VerifyField scores one user value against one located document value.
func (v *Verifier) VerifyField(fieldName, userValue, ocrValue string, ocrConfidence float64) Field {
	userNorm := Normalize(userValue)
	ocrNorm := Normalize(ocrValue)

	exact := userNorm == ocrNorm

	scores := v.score(userNorm, ocrNorm)
	best := scores.Levenshtein
	for _, s := range []float64{scores.FuzzyRatio, scores.FuzzyPartial, scores.FuzzyToken} {
		if s > best {
			best = s
		}
	}

	// Containment marks a partial match and floors the similarity, which
	// covers abbreviation cases like "St" against "Street".
	partial := false
	if userNorm != "" && ocrNorm != "" &&
		(strings.Contains(ocrNorm, userNorm) || strings.Contains(userNorm, ocrNorm)) {
		partial = true
		if best < v.cfg.ContainmentBoost {
			best = v.cfg.ContainmentBoost
		}
	}

	if exact {
		best = 1.0
	}

	// Precedence: exact wins outright; containment classifies as partial
	// before the similarity threshold is consulted, so an abbreviation
	// never silently upgrades to a full match.
	var status MatchStatus
	switch {
	case exact:
		status = StatusMatch
	case partial && best >= v.cfg.PartialThreshold:
		status = StatusPartialMatch
	case best >= v.cfg.SimilarityThreshold:
		status = StatusMatch
	default:
		status = StatusMismatch
	}

	return Field{
		FieldName:        fieldName,
		FieldValue:       userValue,
		OCRValue:         ocrValue,
		MatchStatus:      status,
		Similarity:       best,
		SimilarityScores: scores,
		ExactMatch:       exact,
		PartialMatch:     partial,
		Confidence:       v.blendConfidence(ocrConfidence, best, status),
		OCRConfidence:    ocrConfidence,
	}
}

// missingField reports a field with no locatable document counterpart.
func (v *Verifier) missingField(fieldName, userValue string) Field {
	return Field{
		FieldName:   fieldName,
		FieldValue:  userValue,
		OCRValue:    "",
		MatchStatus: StatusMismatch,
		Confidence:  0,
	}
}

// score computes the four similarity metrics over normalized values.
// When either side is empty, the fuzzy metrics collapse to the
// levenshtein score so no metric reads high on vacuous input.
func (v *Verifier) score(a, b string) SimilarityScores {
	lev := levenshteinRatio(a, b)
	if a == "" || b == "" {
		return SimilarityScores{
			Levenshtein:  lev,
			FuzzyRatio:   lev,
			FuzzyPartial: lev,
			FuzzyToken:   lev,
		}
	}
	return SimilarityScores{
		Levenshtein:  lev,
		FuzzyRatio:   float64(fuzzy.TokenSetRatio(a, b)) / 100.0,
		FuzzyPartial: float64(fuzzy.PartialRatio(a, b)) / 100.0,
		FuzzyToken:   float64(fuzzy.TokenSortRatio(a, b)) / 100.0,
	}
}

// blendConfidence combines recognition confidence, similarity and the
// completeness term into one score clamped to [0,1].
func (v *Verifier) blendConfidence(ocrConfidence, similarity float64, status MatchStatus) float64 {
	completeness := 0.0
	switch status {
	case StatusMatch:
		completeness = 1.0
	case StatusPartialMatch:
		completeness = 0.5
	}

	confidence := v.cfg.OCRConfidenceWeight*ocrConfidence +
		v.cfg.SimilarityWeight*similarity +
		v.cfg.CompletenessWeight*completeness

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// levenshteinRatio is 1 - edit_distance/max(len); empty-vs-empty is 1,
// empty-vs-anything is 0.
func levenshteinRatio(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize case-folds, collapses internal whitespace runs to a single
// space and trims, so verification is insensitive to layout noise.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(text), " "))
}
