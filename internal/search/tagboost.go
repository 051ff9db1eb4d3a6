package search

import "sort"

// applyTagBoost amplifies RRF scores for results whose lexical hit matched
// a tag, and gives a smaller conservative boost to strong lexical-only
// matches that never appeared in the semantic list. Mirrors the
// aggressive/conservative boost split from the original hybrid search:
// exact tag matches get 1.5x-2.0x the current max RRF score (so a tag
// query can dominate even a mediocre RRF rank), while tag-less lexical-only
// hits top out at 0.95x max.
//
// Each lexical hit's BM25Score, divided by maxBM25 (the largest BM25 score
// among the lexical hits), scales the boost with how strong the keyword
// match actually was, not just whether one exists.
func applyTagBoost(results []*fusedResult, maxBM25 float64) {
	if len(results) == 0 || maxBM25 <= 0 {
		return
	}

	maxRRF := 0.0
	for _, r := range results {
		if r.RRFScore > maxRRF {
			maxRRF = r.RRFScore
		}
	}
	if maxRRF == 0 {
		maxRRF = 0.1
	}

	for _, r := range results {
		if r.LexicalRank == 0 {
			continue
		}
		scoreRatio := r.BM25Score / maxBM25

		if len(r.TagsMatched) > 0 {
			boostMultiplier := 1.5 + (scoreRatio * 0.5) // 1.5..2.0
			r.RRFScore = maxRRF * boostMultiplier
			continue
		}

		if !r.InBothLists {
			boostMultiplier := scoreRatio * 0.95 // 0..0.95
			r.RRFScore = maxRRF * boostMultiplier
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].RRFScore > results[j].RRFScore
	})
}
