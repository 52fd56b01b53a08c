package retrieval

import (
	"sort"
	"strings"
)

// Classifier is an optional stage that labels queries with document types
// and checks candidates against them. When a query clearly targets one
// document type, off-type candidates with marginal similarity are dropped.
// The engine runs without a classifier by default; the keyword table is
// deployment configuration, not code.
type Classifier interface {
	// DetectTypes returns the document types the query appears to target,
	// or nil when the query is not type-specific.
	DetectTypes(query string) []string

	// Matches reports whether a candidate belongs to any of the detected
	// types, judged by its document ID and text.
	Matches(types []string, documentID, text string) bool
}

// KeywordClassifier detects document types from a hand-authored keyword
// table (type -> trigger keywords).
type KeywordClassifier struct {
	Types map[string][]string
}

// NewKeywordClassifier creates a classifier from a keyword table. Returns
// nil for an empty table so callers can wire it unconditionally.
func NewKeywordClassifier(types map[string][]string) *KeywordClassifier {
	if len(types) == 0 {
		return nil
	}
	return &KeywordClassifier{Types: types}
}

// DetectTypes returns every type whose keywords appear in the query.
func (c *KeywordClassifier) DetectTypes(query string) []string {
	q := strings.ToLower(query)
	var detected []string
	for name, keywords := range c.Types {
		for _, kw := range keywords {
			if strings.Contains(q, kw) {
				detected = append(detected, name)
				break
			}
		}
	}
	// Map iteration order is random; keep the result stable.
	sort.Strings(detected)
	return detected
}

// Matches reports whether the type name occurs in the document ID or text.
func (c *KeywordClassifier) Matches(types []string, documentID, text string) bool {
	id := strings.ToLower(documentID)
	body := strings.ToLower(text)
	for _, t := range types {
		if strings.Contains(id, t) || strings.Contains(body, t) {
			return true
		}
	}
	return false
}

