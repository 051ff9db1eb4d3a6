// Package search implements the hybrid query pipeline: RRF fusion of dense
// and lexical results, tag-match amplification, optional cross-encoder
// rerank, time decay, deduplication, and snippet extraction.
package search

import "time"

// DefaultRRFConstant is the standard RRF smoothing parameter (k=60, the
// same value used across most hybrid-search implementations).
const DefaultRRFConstant = 60

// Weights selects which retrieval lists run: a list is fetched only when
// its weight is above zero. RRF fusion itself is unweighted, so any two
// positive weights produce the same ranking.
// Semantic is the profile's hybrid_weight; Lexical is its complement.
type Weights struct {
	Semantic float64
	Lexical  float64
}

// WeightsFromHybrid derives Weights from a single 0..1 hybrid_weight knob:
// 0 is pure lexical, 1 is pure semantic.
func WeightsFromHybrid(hybridWeight float64) Weights {
	return Weights{Semantic: hybridWeight, Lexical: 1 - hybridWeight}
}

// Result is one ranked hit returned to a caller.
type Result struct {
	RowIndex     int
	RelativePath string
	Title        string
	Tags         []string
	Content      string
	CreatedDate  time.Time
	ModifiedTime time.Time
	ChunkIndex   int
	ChunkTotal   int
	IsChunk      bool

	RRFScore          float64
	SimilarityScore   float64
	BM25Score         float64
	BM25BaseScore     float64
	CrossEncoderScore float64
	SemanticRank      int
	LexicalRank       int
	InBothLists       bool
	TagsMatched       []string
	TagBoosted        bool
	TimeBoost         float64
	DaysOld           int
	TimedOut          bool
	Snippet           string

	MatchedChunks int
	IsChunkedFile bool
}

// Options configures one Pipeline.Search call.
type Options struct {
	Limit             int
	Weights           Weights
	BM25Boost         float64
	TagBoost          float64
	TimeDecay         TimeDecayConfig
	MaxAgeDays        int
	DeduplicateMode   string // "best" or "all"; "" disables deduplication
	MaxResultsPerFile int
	UseReranker       bool
	SnippetLength     int
	Deadline          time.Time // zero value means no deadline
}

// TimeDecayConfig mirrors profiles.TimeDecay without importing the
// profiles package, keeping search decoupled from profile selection.
type TimeDecayConfig struct {
	Enabled      bool
	HalfLifeDays int
	MaxBoost     float64
}
