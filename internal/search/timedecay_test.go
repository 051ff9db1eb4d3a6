package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyTimeDecay_RecentDocGetsLargerBoostThanOld(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := &Result{ModifiedTime: now, SimilarityScore: 0.5}
	old := &Result{ModifiedTime: now.AddDate(0, 0, -365), SimilarityScore: 0.5}
	results := []*Result{old, recent}

	applyTimeDecay(results, TimeDecayConfig{Enabled: true, HalfLifeDays: 90, MaxBoost: 0.2}, now)

	assert.Equal(t, recent, results[0], "recent doc should rank first after decay boost")
	assert.Greater(t, recent.SimilarityScore, old.SimilarityScore)
}

func TestApplyTimeDecay_DisabledIsNoOp(t *testing.T) {
	now := time.Now()
	r := &Result{ModifiedTime: now, SimilarityScore: 0.5}
	applyTimeDecay([]*Result{r}, TimeDecayConfig{Enabled: false}, now)
	assert.Equal(t, 0.5, r.SimilarityScore)
}

func TestApplyTimeDecay_BoostNeverExceedsMaxBoost(t *testing.T) {
	now := time.Now()
	r := &Result{ModifiedTime: now, SimilarityScore: 1.0}
	applyTimeDecay([]*Result{r}, TimeDecayConfig{Enabled: true, HalfLifeDays: 7, MaxBoost: 0.5}, now)
	assert.InDelta(t, 1.5, r.SimilarityScore, 1e-6)
}

func TestFilterMaxAge_DropsOlderThanCutoff(t *testing.T) {
	now := time.Now()
	fresh := &Result{ModifiedTime: now}
	stale := &Result{ModifiedTime: now.AddDate(0, 0, -100)}
	out := filterMaxAge([]*Result{fresh, stale}, 90, now)
	assert.Equal(t, []*Result{fresh}, out)
}

func TestFilterMaxAge_ZeroMeansNoCutoff(t *testing.T) {
	now := time.Now()
	stale := &Result{ModifiedTime: now.AddDate(-10, 0, 0)}
	out := filterMaxAge([]*Result{stale}, 0, now)
	assert.Len(t, out, 1)
}
