package search

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vaultsearch/vaultsearch/internal/encoder"
	"github.com/vaultsearch/vaultsearch/internal/lexical"
	"github.com/vaultsearch/vaultsearch/internal/store"
	"github.com/vaultsearch/vaultsearch/internal/vaulterr"
)

// Pipeline runs one hybrid query end to end: fetch candidates from both
// indices, fuse, boost, rerank, decay, dedup, snippet. It reads a single
// immutable store snapshot for the whole call so concurrent writers never
// tear a result set.
type Pipeline struct {
	Vectors  *store.VectorStore
	Lexical  *lexical.Index
	Encoder  encoder.Encoder
	Reranker Reranker
}

// NewPipeline wires the stages together. reranker may be &NoOpReranker{}.
func NewPipeline(vectors *store.VectorStore, lex *lexical.Index, enc encoder.Encoder, reranker Reranker) *Pipeline {
	if reranker == nil {
		reranker = &NoOpReranker{}
	}
	return &Pipeline{Vectors: vectors, Lexical: lex, Encoder: enc, Reranker: reranker}
}

// Search runs the hybrid pipeline and returns up to opts.Limit ranked
// results. A zero opts.Deadline means no per-call deadline checking.
//
// Every call is tagged with a fresh query id, logged alongside the query
// text at entry and the result count at exit, so a slow or failed request
// can be traced through the log file by that id rather than by timestamp
// guessing.
func (p *Pipeline) Search(ctx context.Context, query string, opts Options) ([]*Result, error) {
	queryID := uuid.NewString()
	logger := slog.Default().With(slog.String("query_id", queryID))
	logger.Debug("search started", slog.String("query", query), slog.Int("limit", opts.Limit))

	results, err := p.search(ctx, query, opts)
	if err != nil {
		logger.Debug("search failed", slog.String("error", err.Error()))
		return nil, err
	}
	logger.Debug("search completed", slog.Int("results", len(results)))
	return results, nil
}

func (p *Pipeline) search(ctx context.Context, query string, opts Options) ([]*Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	fetchLimit := limit * 3

	rows, _ := p.Vectors.Snapshot()
	if opts.Weights.Semantic > 0 && len(rows) == 0 {
		return nil, &vaulterr.VaultError{Kind: vaulterr.IndexUnavailable, Message: "dense index is empty or missing"}
	}

	var queryVec []float32
	var semanticHits []semanticHit
	if opts.Weights.Semantic > 0 && len(rows) > 0 {
		vecs, err := p.Encoder.Embed(ctx, []string{query})
		if err != nil {
			return nil, err
		}
		if len(vecs) == 1 {
			queryVec = vecs[0]
			scored := store.TopK(rows, queryVec, fetchLimit)
			semanticHits = make([]semanticHit, len(scored))
			for i, s := range scored {
				semanticHits[i] = semanticHit{RowIndex: s.RowIndex, Score: float64(s.Score)}
			}
		}
	}
	if checkDeadline(ctx, opts.Deadline) != nil {
		fused := rrfFuse(nil, semanticHits, DefaultRRFConstant)
		return p.buildResults(fused, rows, query, opts, limit, true), nil
	}

	var lexicalHits []lexicalHit
	var maxBM25 float64
	if opts.Weights.Lexical > 0 && p.Lexical.Exists() {
		bm25Boost := opts.BM25Boost
		if bm25Boost <= 0 {
			bm25Boost = 1
		}
		// opts.TagBoost (not 0) activates lexical.Index.Search's own
		// substring tag-match fallback so TagsMatched is complete. Its
		// internal score multiplier reaches fusion only through the hit
		// order (the lexical ranks); the scores carried downstream are
		// h.BaseScore, not h.Score.
		hits, err := p.Lexical.Search(query, fetchLimit, opts.TagBoost)
		if err != nil {
			return nil, err
		}
		lexicalHits = make([]lexicalHit, len(hits))
		for i, h := range hits {
			baseScore := h.BaseScore * bm25Boost
			lexicalHits[i] = lexicalHit{RowIndex: h.RowIndex, Score: baseScore, BaseScore: h.BaseScore, TagsMatched: h.TagsMatched}
			if baseScore > maxBM25 {
				maxBM25 = baseScore
			}
		}
	}
	if checkDeadline(ctx, opts.Deadline) != nil {
		fused := rrfFuse(lexicalHits, semanticHits, DefaultRRFConstant)
		return p.buildResults(fused, rows, query, opts, limit, true), nil
	}

	fused := rrfFuse(lexicalHits, semanticHits, DefaultRRFConstant)
	if opts.TagBoost > 0 {
		applyTagBoost(fused, maxBM25)
	}

	// Score enrichment (spec step 6): a lexical-only candidate's
	// similarity_score would otherwise read zero forever, since it never
	// went through store.TopK. Compute its true cosine similarity against
	// the query vector from its own stored embedding instead.
	if needsEnrichment(fused) && len(rows) > 0 {
		if queryVec == nil {
			vecs, err := p.Encoder.Embed(ctx, []string{query})
			if err != nil {
				return nil, err
			}
			if len(vecs) == 1 {
				queryVec = vecs[0]
			}
		}
		if queryVec != nil {
			for _, f := range fused {
				if f.SemanticRank == 0 && f.LexicalRank > 0 && f.RowIndex >= 0 && f.RowIndex < len(rows) {
					f.VecScore = float64(store.Similarity(queryVec, rows[f.RowIndex].Vector))
				}
			}
		}
	}

	results := p.buildResults(fused, rows, query, opts, 0, false)

	if checkDeadline(ctx, opts.Deadline) != nil {
		for _, r := range results {
			r.TimedOut = true
		}
		if len(results) > limit {
			results = results[:limit]
		}
		return results, nil
	}

	if opts.UseReranker && p.Reranker != nil && p.Reranker.Available(ctx) {
		var err error
		results, err = p.rerank(ctx, query, results)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	results = filterMaxAge(results, opts.MaxAgeDays, now)
	applyTimeDecay(results, opts.TimeDecay, now)

	if opts.DeduplicateMode != "" {
		results = deduplicate(results, opts.DeduplicateMode, opts.MaxResultsPerFile)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// needsEnrichment reports whether any fused candidate is lexical-only and
// therefore still carries a zero placeholder similarity score.
func needsEnrichment(fused []*fusedResult) bool {
	for _, f := range fused {
		if f.SemanticRank == 0 && f.LexicalRank > 0 {
			return true
		}
	}
	return false
}

// buildResults converts fused RRF candidates into Results against rows. A
// limit <= 0 leaves the full fused set untruncated, used for the
// deadline-exceeded partial-ranking path where truncation happens
// separately after marking TimedOut.
func (p *Pipeline) buildResults(fused []*fusedResult, rows []store.Row, query string, opts Options, limit int, timedOut bool) []*Result {
	results := make([]*Result, 0, len(fused))
	for _, f := range fused {
		if f.RowIndex < 0 || f.RowIndex >= len(rows) {
			continue
		}
		row := rows[f.RowIndex]
		results = append(results, &Result{
			RowIndex:        f.RowIndex,
			RelativePath:    row.RelativePath,
			Title:           row.Title,
			Tags:            row.Tags,
			Content:         row.Content,
			CreatedDate:     row.CreatedDate,
			ModifiedTime:    row.ModifiedTime,
			ChunkIndex:      row.ChunkIndex,
			ChunkTotal:      row.ChunkTotal,
			IsChunk:         row.IsChunk,
			RRFScore:        f.RRFScore,
			SimilarityScore: f.VecScore,
			BM25Score:       f.BM25Score,
			BM25BaseScore:   f.BM25BaseScore,
			SemanticRank:    f.SemanticRank,
			LexicalRank:     f.LexicalRank,
			InBothLists:     f.InBothLists,
			TagsMatched:     f.TagsMatched,
			TagBoosted:      len(f.TagsMatched) > 0,
			TimedOut:        timedOut,
			Snippet:         extractSnippet(row.Content, query, opts.SnippetLength),
		})
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (p *Pipeline) rerank(ctx context.Context, query string, results []*Result) ([]*Result, error) {
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Content
	}
	scored, err := p.Reranker.Rerank(ctx, query, docs, 0)
	if err != nil {
		return results, nil // reranker failure degrades to un-reranked order, not a hard error
	}

	byIndex := make(map[int]float64, len(scored))
	for _, s := range scored {
		byIndex[s.Index] = s.Score
	}
	for i, r := range results {
		if s, ok := byIndex[i]; ok {
			r.CrossEncoderScore = s
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return rerankSortScore(results[i]) > rerankSortScore(results[j])
	})
	return results, nil
}

// rerankSortScore orders by cross-encoder score when the reranker actually
// scored this result, falling back to its pre-rerank RRF score otherwise
// (e.g. candidates beyond the reranker's top-N cutoff).
func rerankSortScore(r *Result) float64 {
	if r.CrossEncoderScore != 0 {
		return r.CrossEncoderScore
	}
	return r.RRFScore
}

func checkDeadline(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return vaulterr.Wrap(vaulterr.Deadline, err)
	}
	if deadline.IsZero() {
		return nil
	}
	if time.Now().After(deadline) {
		return vaulterr.New(vaulterr.Deadline, "search deadline exceeded", nil)
	}
	return nil
}
