/**
 * Field Verification Tests
 *
 * Exercises the three match classifications, the blended confidence
 * arithmetic, missing-field reporting and summary aggregation.
 */

package verification

import (
	"math"
	"reflect"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestVerifyFieldExactMatch checks case/whitespace-insensitive equality and
// the blended confidence 0.4*ocr + 0.4*1.0 + 0.2*1.0.
func TestVerifyFieldExactMatch(t *testing.T) {
	v := NewVerifier(DefaultConfig(), nil)

	field := v.VerifyField("name", "John Smith", "  john   SMITH ", 0.92)

	if field.MatchStatus != StatusMatch {
		t.Fatalf("expected MATCH, got %q", field.MatchStatus)
	}
	if !field.ExactMatch {
		t.Error("expected exact_match true")
	}
	if field.Similarity != 1.0 {
		t.Errorf("exact match must report similarity 1.0, got %v", field.Similarity)
	}
	if want := 0.4*0.92 + 0.4 + 0.2; !almostEqual(field.Confidence, want) {
		t.Errorf("expected confidence %v, got %v", want, field.Confidence)
	}
	if !almostEqual(field.Confidence, 0.968) {
		t.Errorf("expected confidence 0.968, got %v", field.Confidence)
	}
}

// TestVerifyFieldContainment checks that containment classifies as
// PARTIAL_MATCH even when the best similarity clears the full-match
// threshold: an abbreviation must not upgrade to MATCH.
func TestVerifyFieldContainment(t *testing.T) {
	v := NewVerifier(DefaultConfig(), nil)

	field := v.VerifyField("name", "John", "John Smith", 0.85)

	if field.MatchStatus != StatusPartialMatch {
		t.Fatalf("expected PARTIAL_MATCH, got %q", field.MatchStatus)
	}
	if !field.PartialMatch {
		t.Error("expected partial_match true")
	}
	if field.ExactMatch {
		t.Error("expected exact_match false")
	}
	if field.Similarity < 0.7 {
		t.Errorf("containment must floor similarity at 0.7, got %v", field.Similarity)
	}
	// Completeness term is 0.5 for a partial match.
	want := 0.4*0.85 + 0.4*field.Similarity + 0.2*0.5
	if !almostEqual(field.Confidence, want) {
		t.Errorf("expected confidence %v, got %v", want, field.Confidence)
	}
}

// TestVerifyFieldShortContainedValue checks that a short value appearing
// inside a long recognized span classifies as partial, not full, match.
func TestVerifyFieldShortContainedValue(t *testing.T) {
	v := NewVerifier(DefaultConfig(), nil)

	field := v.VerifyField("address", "st", "12 northumberland st springfield county", 0.9)

	if !field.PartialMatch {
		t.Fatal("expected containment to be detected")
	}
	if field.Similarity < 0.7 {
		t.Errorf("similarity should be boosted to at least 0.7, got %v", field.Similarity)
	}
	if field.MatchStatus != StatusPartialMatch {
		t.Errorf("expected PARTIAL_MATCH, got %q", field.MatchStatus)
	}
}

func TestVerifyFieldMismatch(t *testing.T) {
	v := NewVerifier(DefaultConfig(), nil)

	field := v.VerifyField("name", "Jane Doe", "Bob Jones", 0.88)

	if field.MatchStatus != StatusMismatch {
		t.Fatalf("expected MISMATCH, got %q", field.MatchStatus)
	}
	if field.ExactMatch || field.PartialMatch {
		t.Error("mismatch must not flag exact or partial")
	}
	// High recognition confidence alone must not rescue a mismatch: the
	// completeness term is 0 and similarity stays low.
	if field.Confidence >= 0.7 {
		t.Errorf("mismatch confidence unexpectedly high: %v", field.Confidence)
	}
	if field.OCRConfidence != 0.88 {
		t.Errorf("expected recognition confidence passed through, got %v", field.OCRConfidence)
	}
}

func TestVerifyFieldHighSimilarityMatch(t *testing.T) {
	v := NewVerifier(DefaultConfig(), nil)

	// One character off in a long value: levenshtein 1-1/20 = 0.95.
	field := v.VerifyField("id", "abcdefghij1234567890", "abcdefghij1234567891", 0.9)

	if field.MatchStatus != StatusMatch {
		t.Fatalf("expected MATCH at similarity >= 0.85, got %q (similarity %v)", field.MatchStatus, field.Similarity)
	}
	if field.ExactMatch {
		t.Error("near-miss must not claim exact_match")
	}
}

func TestVerifyFieldScoresWithinUnitInterval(t *testing.T) {
	v := NewVerifier(DefaultConfig(), nil)

	cases := []struct{ user, ocr string }{
		{"John Smith", "john smith"},
		{"John", "John Smith"},
		{"", "anything"},
		{"anything", ""},
		{"", ""},
	}
	for _, tc := range cases {
		field := v.VerifyField("f", tc.user, tc.ocr, 0.9)
		scores := []float64{
			field.Similarity, field.Confidence,
			field.SimilarityScores.Levenshtein, field.SimilarityScores.FuzzyRatio,
			field.SimilarityScores.FuzzyPartial, field.SimilarityScores.FuzzyToken,
		}
		for i, s := range scores {
			if s < 0 || s > 1 {
				t.Errorf("(%q,%q) score[%d] out of range: %v", tc.user, tc.ocr, i, s)
			}
		}
	}
}

// TestVerifyMissingField checks that an unlocatable field is still present
// in the report, as a zero-confidence mismatch.
func TestVerifyMissingField(t *testing.T) {
	v := NewVerifier(DefaultConfig(), nil)

	report := v.Verify("Name: John Smith", 0.9, map[string]string{
		"name":          "John Smith",
		"serial_number": "XK-4432",
	})

	missing, ok := report.Fields["serial_number"]
	if !ok {
		t.Fatal("unlocatable field dropped from report")
	}
	if missing.MatchStatus != StatusMismatch {
		t.Errorf("expected MISMATCH for missing field, got %q", missing.MatchStatus)
	}
	if missing.Confidence != 0 || missing.Similarity != 0 {
		t.Errorf("missing field must score zero, got confidence=%v similarity=%v",
			missing.Confidence, missing.Similarity)
	}
	if missing.OCRValue != "" {
		t.Errorf("missing field must have empty ocr_value, got %q", missing.OCRValue)
	}

	if report.Summary.TotalFields != 2 {
		t.Errorf("expected total_fields 2, got %d", report.Summary.TotalFields)
	}
	if report.Summary.Matches != 1 || report.Summary.Mismatches != 1 {
		t.Errorf("expected 1 match and 1 mismatch, got %+v", report.Summary)
	}
	if !almostEqual(report.Summary.MatchRate, 0.5) {
		t.Errorf("expected match_rate 0.5, got %v", report.Summary.MatchRate)
	}
}

func TestVerifySummaryAggregation(t *testing.T) {
	v := NewVerifier(DefaultConfig(), nil)
	doc := "Name: John Smith\nDOB: 1990-01-01\nCity: Springfield"

	report := v.Verify(doc, 0.9, map[string]string{
		"name": "John Smith",
		"dob":  "1990-01-01",
		"city": "Shelbyville",
	})

	if report.Summary.TotalFields != 3 {
		t.Fatalf("expected 3 fields, got %d", report.Summary.TotalFields)
	}
	if report.Summary.Matches != 2 {
		t.Errorf("expected 2 matches, got %d", report.Summary.Matches)
	}
	if report.Summary.Mismatches != 1 {
		t.Errorf("expected 1 mismatch, got %d", report.Summary.Mismatches)
	}
	if !almostEqual(report.Summary.MatchRate, 2.0/3.0) {
		t.Errorf("expected match_rate 2/3, got %v", report.Summary.MatchRate)
	}

	var confSum float64
	for _, f := range report.Fields {
		confSum += f.Confidence
	}
	if !almostEqual(report.Summary.OverallConfidence, confSum/3) {
		t.Errorf("overall confidence should average field confidences, got %v", report.Summary.OverallConfidence)
	}
}

func TestVerifyEmptyFieldMap(t *testing.T) {
	v := NewVerifier(DefaultConfig(), nil)

	report := v.Verify("some document text", 0.9, nil)

	if len(report.Fields) != 0 {
		t.Errorf("expected no field results, got %d", len(report.Fields))
	}
	s := report.Summary
	if s.TotalFields != 0 || s.Matches != 0 || s.MatchRate != 0 || s.OverallConfidence != 0 {
		t.Errorf("expected zeroed summary, got %+v", s)
	}
}

// TestVerifyIdempotent checks that verifying the same inputs twice yields
// identical reports.
func TestVerifyIdempotent(t *testing.T) {
	v := NewVerifier(DefaultConfig(), nil)
	doc := "Name: John Smith\nDOB: 1990-01-01"
	fields := map[string]string{"name": "John Smith", "dob": "1990-01-02"}

	first := v.Verify(doc, 0.85, fields)
	second := v.Verify(doc, 0.85, fields)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("verification is not deterministic:\n first: %+v\n second: %+v", first, second)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  JOHN\t\tSMITH\n", "john smith"},
		{"already normal", "already normal"},
		{"Mixed\nLine  Breaks", "mixed line breaks"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
