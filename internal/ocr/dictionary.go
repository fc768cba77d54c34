package ocr

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Dictionary is a read-only known-word list consulted during fusion. It is
// built once at startup and shared across all fusion calls; it is never
// mutated per request.
type Dictionary struct {
	words map[string]struct{}
	// long caches every entry of 3+ characters, the only candidates for
	// closest-match substitution.
	long []string
}

// defaultWords covers common English plus the form and identity-document
// vocabulary the verifier most often sees.
var defaultWords = []string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "i",
	"it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
	"this", "but", "his", "by", "from", "they", "we", "say", "her", "she",
	"or", "an", "will", "my", "one", "all", "would", "there", "their",
	"what", "so", "up", "out", "if", "about", "who", "get", "which", "go",
	"me", "when", "make", "can", "like", "time", "no", "just", "him", "know",
	"take", "people", "into", "year", "your", "good", "some", "could", "them",
	"see", "other", "than", "then", "now", "look", "only", "come", "its", "over",
	"think", "also", "back", "after", "use", "two", "how", "our", "work", "first",
	"well", "way", "even", "new", "want", "because", "any", "these", "give", "day",
	"most", "us", "name", "date", "birth", "address", "phone", "email", "id", "number",
	"certificate", "document", "form", "field", "value", "text", "page",
}

// NewDefaultDictionary builds the built-in known-word list.
func NewDefaultDictionary() *Dictionary {
	return NewDictionary(defaultWords)
}

// NewDictionary builds a dictionary from the given words (lower-cased).
func NewDictionary(words []string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(w)
		if _, dup := d.words[w]; dup {
			continue
		}
		d.words[w] = struct{}{}
		if len(w) >= 3 {
			d.long = append(d.long, w)
		}
	}
	return d
}

// Contains reports whether the cleaned, lower-cased token is a known word.
// Tokens of two characters or less always pass: they are too short to
// correct meaningfully.
func (d *Dictionary) Contains(token string) bool {
	clean := cleanToken(token)
	if len(clean) <= 2 {
		return true
	}
	_, ok := d.words[clean]
	return ok
}

// Closest returns the known word most similar to the token together with
// its normalized similarity. Only entries of 3+ characters are candidates.
// Iteration over the precomputed slice keeps the answer deterministic.
func (d *Dictionary) Closest(token string) (string, float64) {
	lower := strings.ToLower(token)
	best := ""
	bestSim := 0.0
	for _, w := range d.long {
		sim := Similarity(lower, w)
		if sim > bestSim {
			bestSim = sim
			best = w
		}
	}
	return best, bestSim
}

// cleanToken strips everything but letters and digits and lower-cases.
func cleanToken(token string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(token) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Similarity is the normalized Levenshtein similarity of two strings:
// 1 - distance/max(len). Two empty strings are identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
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
