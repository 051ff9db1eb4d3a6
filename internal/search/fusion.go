package search

import "sort"

// fusedResult is the RRF-fused candidate before enrichment, keyed by row
// index (our row-per-chunk identity) rather than a string chunk id.
type fusedResult struct {
	RowIndex      int
	RRFScore      float64
	BM25Score     float64
	BM25BaseScore float64
	LexicalRank   int // 1-indexed, 0 if absent
	VecScore      float64
	SemanticRank  int // 1-indexed, 0 if absent
	InBothLists   bool
	TagsMatched   []string
}

// lexicalHit and semanticHit are the minimal shapes rrfFuse needs from the
// two retrieval engines, kept local so this file has no import-time
// dependency on internal/lexical or internal/store.
type lexicalHit struct {
	RowIndex    int
	Score       float64
	BaseScore   float64
	TagsMatched []string
}

type semanticHit struct {
	RowIndex int
	Score    float64
}

// rrfFuse combines lexical and semantic result lists using Reciprocal Rank
// Fusion: RRF_score(d) = Σ 1/(k + rank_i), summed over every list d appears
// in, ranks 1-indexed. A document absent from a list contributes nothing
// for that list; no rank is fabricated for it.
func rrfFuse(lexicalHits []lexicalHit, semanticHits []semanticHit, k int) []*fusedResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	if len(lexicalHits) == 0 && len(semanticHits) == 0 {
		return nil
	}

	byRow := make(map[int]*fusedResult, len(lexicalHits)+len(semanticHits))
	get := func(row int) *fusedResult {
		if r, ok := byRow[row]; ok {
			return r
		}
		r := &fusedResult{RowIndex: row}
		byRow[row] = r
		return r
	}

	for rank, h := range lexicalHits {
		r := get(h.RowIndex)
		r.BM25Score = h.Score
		r.BM25BaseScore = h.BaseScore
		r.LexicalRank = rank + 1
		r.TagsMatched = h.TagsMatched
		r.RRFScore += 1 / float64(k+rank+1)
	}
	for rank, h := range semanticHits {
		r := get(h.RowIndex)
		r.VecScore = h.Score
		r.SemanticRank = rank + 1
		r.RRFScore += 1 / float64(k+rank+1)
		if r.LexicalRank > 0 {
			r.InBothLists = true
		}
	}

	results := make([]*fusedResult, 0, len(byRow))
	for _, r := range byRow {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.RRFScore != b.RRFScore {
			return a.RRFScore > b.RRFScore
		}
		if a.InBothLists != b.InBothLists {
			return a.InBothLists
		}
		if a.BM25Score != b.BM25Score {
			return a.BM25Score > b.BM25Score
		}
		return a.RowIndex < b.RowIndex
	})

	return results
}
