package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyTagBoost_ExactTagMatchExceedsMaxRRF(t *testing.T) {
	results := []*fusedResult{
		{RowIndex: 1, RRFScore: 0.3, BM25Score: 8.0, LexicalRank: 1, TagsMatched: []string{"bm25"}},
		{RowIndex: 2, RRFScore: 1.0},
	}
	applyTagBoost(results, 10.0)

	var boosted *fusedResult
	for _, r := range results {
		if r.RowIndex == 1 {
			boosted = r
		}
	}
	assert.Greater(t, boosted.RRFScore, 1.0)
	assert.Equal(t, 1, results[0].RowIndex, "tag-boosted result should now rank first")
}

func TestApplyTagBoost_LexicalOnlyNoTagGetsConservativeBoost(t *testing.T) {
	results := []*fusedResult{
		{RowIndex: 1, RRFScore: 0.1, BM25Score: 5.0, LexicalRank: 1, InBothLists: false},
	}
	applyTagBoost(results, 10.0)
	assert.LessOrEqual(t, results[0].RRFScore, 1.0*0.95)
}

func TestApplyTagBoost_SemanticOnlyResultIsUnaffected(t *testing.T) {
	results := []*fusedResult{
		{RowIndex: 1, RRFScore: 0.7, LexicalRank: 0},
	}
	applyTagBoost(results, 10.0)
	assert.Equal(t, 0.7, results[0].RRFScore)
}

func TestApplyTagBoost_ZeroMaxBM25IsNoOp(t *testing.T) {
	results := []*fusedResult{{RowIndex: 1, RRFScore: 0.5, LexicalRank: 1, TagsMatched: []string{"x"}}}
	applyTagBoost(results, 0)
	assert.Equal(t, 0.5, results[0].RRFScore)
}
