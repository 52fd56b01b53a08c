package retrieval

import (
	"reflect"
	"testing"
)

func p(id, doc string, sim float32) Passage {
	return Passage{ID: id, DocumentID: doc, Text: "text " + id, Similarity: sim}
}

func TestDominantGroup_MeanBeatsCount(t *testing.T) {
	groups := groupByDocument([]Passage{
		p("a1", "d1", 0.90),
		p("a2", "d1", 0.85),
		p("a3", "d1", 0.80),
		p("b1", "d2", 0.95),
	})
	best, ok := dominantGroup(groups)
	if !ok {
		t.Fatal("expected a dominant group")
	}
	if best.DocumentID != "d2" {
		t.Errorf("expected d2 (mean 0.95) over d1 (mean 0.85), got %q", best.DocumentID)
	}
}

func TestDominantGroup_TieBreaks(t *testing.T) {
	// Equal means: higher max wins.
	groups := groupByDocument([]Passage{
		p("a1", "alpha", 0.80),
		p("a2", "alpha", 0.80),
		p("b1", "beta", 0.90),
		p("b2", "beta", 0.70),
	})
	best, _ := dominantGroup(groups)
	if best.DocumentID != "beta" {
		t.Errorf("equal means: expected higher max to win, got %q", best.DocumentID)
	}

	// Equal mean and max: lexicographically smaller document ID wins.
	groups = groupByDocument([]Passage{
		p("z1", "zeta", 0.80),
		p("a1", "alpha", 0.80),
	})
	best, _ = dominantGroup(groups)
	if best.DocumentID != "alpha" {
		t.Errorf("full tie: expected lexicographically smaller id, got %q", best.DocumentID)
	}
}

func TestDominantGroup_Empty(t *testing.T) {
	if _, ok := dominantGroup(nil); ok {
		t.Error("empty candidate set must have no dominant group")
	}
}

func TestSelectPassages_FloorAndWindow(t *testing.T) {
	candidates := []Passage{
		p("a1", "d1", 0.95), // dominant (d1 mean 0.62 beats d2 mean 0.575)
		p("a2", "d1", 0.29), // dominant but below absolute floor
		p("b1", "d2", 0.85), // within 0.15 of 0.95
		p("b2", "d2", 0.30), // outside the window
	}
	got := selectPassages(candidates)

	want := []string{"a1", "b1"}
	if len(got) != len(want) {
		t.Fatalf("expected %d passages, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, got[i].ID)
		}
	}
}

func TestSelectPassages_DominantFirst(t *testing.T) {
	candidates := []Passage{
		p("b1", "d2", 0.94), // non-dominant, higher than some dominant members
		p("a1", "d1", 0.96),
		p("a2", "d1", 0.93),
	}
	got := selectPassages(candidates)
	if len(got) != 3 {
		t.Fatalf("expected 3 passages, got %d", len(got))
	}
	// Dominant document's passages precede others even at lower similarity.
	if got[0].DocumentID != "d1" || got[1].DocumentID != "d1" {
		t.Errorf("dominant passages must come first, got %q then %q",
			got[0].DocumentID, got[1].DocumentID)
	}
}

func TestSelectPassages_Deterministic(t *testing.T) {
	candidates := []Passage{
		p("c3", "doc", 0.80),
		p("c1", "doc", 0.80),
		p("c2", "doc", 0.80),
		p("x1", "other", 0.80),
	}
	first := selectPassages(candidates)
	for i := 0; i < 10; i++ {
		again := selectPassages(candidates)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("ranking not deterministic on run %d", i)
		}
	}
	// Equal similarities break ties by passage ID.
	if first[0].ID != "c1" || first[1].ID != "c2" || first[2].ID != "c3" {
		t.Errorf("tie-break by id broken: %q %q %q", first[0].ID, first[1].ID, first[2].ID)
	}
}
