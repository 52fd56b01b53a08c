package retrieval

import "sort"

const (
	// similarityFloor is the absolute minimum similarity a passage needs to
	// be selected at all.
	similarityFloor = 0.3

	// dominantWindow is how close a non-dominant passage must be to the
	// dominant document's top similarity to ride along.
	dominantWindow = 0.15
)

// documentGroup is an ephemeral grouping of candidates by source document,
// used only during ranking.
type documentGroup struct {
	DocumentID string
	Members    []Passage
	Mean       float32
	Max        float32
}

// groupByDocument buckets candidates by document identifier and computes the
// aggregate similarities. Groups come back sorted by document ID so ranking
// is deterministic regardless of map iteration order.
func groupByDocument(candidates []Passage) []documentGroup {
	byDoc := make(map[string][]Passage)
	for _, c := range candidates {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	ids := make([]string, 0, len(byDoc))
	for id := range byDoc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([]documentGroup, 0, len(ids))
	for _, id := range ids {
		members := byDoc[id]
		var sum, max float32
		for _, m := range members {
			sum += m.Similarity
			if m.Similarity > max {
				max = m.Similarity
			}
		}
		groups = append(groups, documentGroup{
			DocumentID: id,
			Members:    members,
			Mean:       sum / float32(len(members)),
			Max:        max,
		})
	}
	return groups
}

// dominantGroup picks the best-supported document: highest mean similarity,
// ties broken by higher max similarity, then by lexicographically smaller
// document ID. Returns false for an empty candidate set.
func dominantGroup(groups []documentGroup) (documentGroup, bool) {
	if len(groups) == 0 {
		return documentGroup{}, false
	}
	// Groups are sorted by document ID, so strict comparisons keep the
	// lexicographically smaller ID on ties.
	best := groups[0]
	for _, g := range groups[1:] {
		if g.Mean > best.Mean || (g.Mean == best.Mean && g.Max > best.Max) {
			best = g
		}
	}
	return best, true
}

// selectPassages builds the final ordered candidate list: dominant-document
// passages above the absolute floor first, then non-dominant passages within
// the dominant window, each block sorted by descending similarity. Without a
// dominant document, all passages above the floor are returned
// similarity-sorted. This trades recall for topical coherence so unrelated
// documents don't blend into one answer context.
func selectPassages(candidates []Passage) []Passage {
	dominant, ok := dominantGroup(groupByDocument(candidates))
	if !ok {
		return nil
	}

	var dominantSel, otherSel []Passage
	threshold := dominant.Max - dominantWindow
	if threshold < similarityFloor {
		threshold = similarityFloor
	}

	for _, c := range candidates {
		switch {
		case c.DocumentID == dominant.DocumentID && c.Similarity >= similarityFloor:
			dominantSel = append(dominantSel, c)
		case c.DocumentID != dominant.DocumentID && c.Similarity >= threshold:
			otherSel = append(otherSel, c)
		}
	}

	sortBySimilarity(dominantSel)
	sortBySimilarity(otherSel)
	return append(dominantSel, otherSel...)
}

// sortBySimilarity orders passages by descending similarity, breaking ties
// by passage ID so repeated ranking of the same input is byte-identical.
func sortBySimilarity(passages []Passage) {
	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].Similarity != passages[j].Similarity {
			return passages[i].Similarity > passages[j].Similarity
		}
		return passages[i].ID < passages[j].ID
	})
}
