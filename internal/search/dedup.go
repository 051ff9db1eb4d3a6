package search

import "sort"

// deduplicate groups results by relative path and keeps either the single
// best-scoring chunk per file ("best") or up to maxPerFile chunks ("all"),
// annotating kept results with how many chunks matched. mode == "" is a
// no-op (chunking disabled, or caller wants raw per-chunk results).
func deduplicate(results []*Result, mode string, maxPerFile int) []*Result {
	if mode == "" || len(results) == 0 {
		return results
	}
	if maxPerFile <= 0 {
		maxPerFile = 1
	}

	byPath := make(map[string][]*Result)
	var order []string
	for _, r := range results {
		if _, ok := byPath[r.RelativePath]; !ok {
			order = append(order, r.RelativePath)
		}
		byPath[r.RelativePath] = append(byPath[r.RelativePath], r)
	}

	var out []*Result
	for _, path := range order {
		chunks := byPath[path]
		if len(chunks) == 1 {
			out = append(out, chunks[0])
			continue
		}

		sort.Slice(chunks, func(i, j int) bool {
			return rankScore(chunks[i]) > rankScore(chunks[j])
		})

		switch mode {
		case "all":
			n := maxPerFile
			if n > len(chunks) {
				n = len(chunks)
			}
			for _, c := range chunks[:n] {
				c.MatchedChunks = len(chunks)
				c.IsChunkedFile = true
				out = append(out, c)
			}
		default: // "best"
			best := chunks[0]
			best.MatchedChunks = len(chunks)
			best.IsChunkedFile = true
			out = append(out, best)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return rankScore(out[i]) > rankScore(out[j])
	})
	return out
}

// rankScore picks the score field a caller would have sorted by before
// deduplication: RRF score when fusion ran, else similarity, else BM25.
func rankScore(r *Result) float64 {
	if r.RRFScore != 0 {
		return r.RRFScore
	}
	if r.SimilarityScore != 0 {
		return r.SimilarityScore
	}
	return r.BM25Score
}
