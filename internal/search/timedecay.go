package search

import (
	"math"
	"sort"
	"time"
)

// applyTimeDecay boosts similarity_score for recently modified results:
// boost = max_boost * 0.5^(days_old / half_life_days), applied
// multiplicatively: boosted = similarity_score * (1 + boost). Results are
// re-sorted by the boosted score. now is passed in rather than read from
// time.Now() so callers (and tests) get a deterministic reference point.
func applyTimeDecay(results []*Result, cfg TimeDecayConfig, now time.Time) {
	if !cfg.Enabled || len(results) == 0 {
		return
	}
	halfLife := cfg.HalfLifeDays
	if halfLife <= 0 {
		halfLife = 90
	}

	for _, r := range results {
		daysOld := int(now.Sub(r.ModifiedTime).Hours() / 24)
		if daysOld < 0 {
			daysOld = 0
		}
		decay := math.Pow(0.5, float64(daysOld)/float64(halfLife))
		boost := cfg.MaxBoost * decay

		r.DaysOld = daysOld
		r.TimeBoost = boost
		r.SimilarityScore = r.SimilarityScore * (1 + boost)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
}

// filterMaxAge drops results older than maxAgeDays. maxAgeDays <= 0 means
// no cutoff.
func filterMaxAge(results []*Result, maxAgeDays int, now time.Time) []*Result {
	if maxAgeDays <= 0 {
		return results
	}
	out := results[:0]
	for _, r := range results {
		daysOld := int(now.Sub(r.ModifiedTime).Hours() / 24)
		if daysOld <= maxAgeDays {
			out = append(out, r)
		}
	}
	return out
}
