package ocr

import (
	"testing"
)

func TestDictionaryContains(t *testing.T) {
	d := NewDefaultDictionary()

	tests := []struct {
		token string
		want  bool
	}{
		{"name", true},
		{"Name", true},
		{"name:", true}, // punctuation stripped before lookup
		{"ab", true},    // short tokens are never corrected
		{"x", true},
		{"zxqwv", false},
	}
	for _, tc := range tests {
		if got := d.Contains(tc.token); got != tc.want {
			t.Errorf("Contains(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestDictionaryClosest(t *testing.T) {
	d := NewDictionary([]string{"certificate", "document", "number"})

	match, sim := d.Closest("certifcate")
	if match != "certificate" {
		t.Errorf("expected certificate, got %q", match)
	}
	if sim < 0.9 {
		t.Errorf("expected similarity >= 0.9 for one dropped letter, got %v", sim)
	}

	_, sim = d.Closest("zzzzzzzz")
	if sim >= 0.5 {
		t.Errorf("expected low similarity for junk token, got %v", sim)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"same", "same", 1},
		{"abcd", "abce", 0.75},
		{"abcd", "", 0},
	}
	for _, tc := range tests {
		if got := Similarity(tc.a, tc.b); got != tc.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
