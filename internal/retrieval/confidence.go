package retrieval

// Confidence label thresholds. The scalar itself is the top-ranked
// passage's similarity, not an average; an empty result scores 0.
const (
	highConfidence   = 0.7
	mediumConfidence = 0.4

	// FallbackThreshold is the confidence below which callers should offer
	// fallback suggestions (rephrase, escalate) instead of an answer.
	FallbackThreshold = 0.2
)

// ConfidenceLabel is the qualitative bucket callers show to users.
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "high"
	ConfidenceMedium ConfidenceLabel = "medium"
	ConfidenceLow    ConfidenceLabel = "low"
)

// confidence derives the scalar from the final ordered passage list.
func confidence(passages []Passage) float32 {
	if len(passages) == 0 {
		return 0
	}
	return passages[0].Similarity
}

// LabelConfidence buckets a confidence scalar into a qualitative label.
func LabelConfidence(score float32) ConfidenceLabel {
	switch {
	case score >= highConfidence:
		return ConfidenceHigh
	case score >= mediumConfidence:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// NeedsFallback reports whether confidence is too low to present the result
// without a fallback suggestion.
func NeedsFallback(score float32) bool {
	return score < FallbackThreshold
}
