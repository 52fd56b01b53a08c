package retrieval

import "testing"

func TestConfidence(t *testing.T) {
	if got := confidence(nil); got != 0 {
		t.Errorf("empty passages: confidence = %f", got)
	}

	passages := []Passage{
		p("a1", "d1", 0.82),
		p("a2", "d1", 0.60),
	}
	if got := confidence(passages); got != 0.82 {
		t.Errorf("confidence = %f, want top similarity 0.82", got)
	}
}

func TestLabelConfidence(t *testing.T) {
	cases := []struct {
		score float32
		want  ConfidenceLabel
	}{
		{0.95, ConfidenceHigh},
		{0.70, ConfidenceHigh}, // boundary is inclusive
		{0.69, ConfidenceMedium},
		{0.40, ConfidenceMedium},
		{0.39, ConfidenceLow},
		{0.0, ConfidenceLow},
	}
	for _, tc := range cases {
		if got := LabelConfidence(tc.score); got != tc.want {
			t.Errorf("LabelConfidence(%f) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestNeedsFallback(t *testing.T) {
	if !NeedsFallback(0.19) {
		t.Error("0.19 should require fallback")
	}
	if NeedsFallback(0.2) {
		t.Error("0.2 should not require fallback")
	}
}
