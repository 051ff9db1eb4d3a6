package lexical

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/vaultsearch/vaultsearch/internal/vaulterr"
)

// indexedDoc is the bleve-facing document shape. Its single analyzer-
// tokenized "content" field carries the §3 token-stream recipe: title +
// tags(x2) + description(x2) + content, repetition deliberately raising
// term frequency for high-value signal. The row index is not a field; it
// is the bleve document ID (see Build).
type indexedDoc struct {
	Content string `json:"content"`
}

// Index is the BM25 lexical index. Build performs a full rebuild from a
// batch of Documents; this is cheap enough that incremental reindex always
// just rebuilds rather than patching postings in place (§4.5 step 6).
type Index struct {
	mu    sync.RWMutex
	bi    bleve.Index
	docs  map[string]Document // bleve doc id -> source document
}

// New constructs an empty, in-memory lexical index.
func New() (*Index, error) {
	mapping, err := buildMapping()
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Index, err)
	}
	bi, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Index, err)
	}
	return &Index{bi: bi, docs: make(map[string]Document)}, nil
}

// Build replaces the entire index contents with documents.
func (idx *Index) Build(documents []Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	mapping, err := buildMapping()
	if err != nil {
		return vaulterr.Wrap(vaulterr.Index, err)
	}
	bi, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return vaulterr.Wrap(vaulterr.Index, err)
	}

	batch := bi.NewBatch()
	docs := make(map[string]Document, len(documents))
	for _, d := range documents {
		id := strconv.Itoa(d.RowIndex)
		docs[id] = d
		if err := batch.Index(id, indexedDoc{Content: tokenStream(d)}); err != nil {
			return vaulterr.Wrap(vaulterr.Index, err)
		}
	}
	if err := bi.Batch(batch); err != nil {
		return vaulterr.Wrap(vaulterr.Index, err)
	}

	old := idx.bi
	idx.bi = bi
	idx.docs = docs
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// tokenStream builds the §3 token-stream recipe: title + tags repeated
// twice + description repeated twice + content.
func tokenStream(d Document) string {
	var b strings.Builder
	b.WriteString(d.Title)
	b.WriteString(" ")
	tags := strings.Join(d.Tags, " ")
	b.WriteString(tags)
	b.WriteString(" ")
	b.WriteString(tags)
	b.WriteString(" ")
	if d.Description != "" {
		b.WriteString(d.Description)
		b.WriteString(" ")
		b.WriteString(d.Description)
		b.WriteString(" ")
	}
	b.WriteString(d.Content)
	return b.String()
}

// Search runs a BM25 query against the content field, then applies
// tag-boost amplification (§4.4) on top of bleve's raw hit scores.
// tagBoost is the multiplier applied on a tag match; 0 disables boosting
// (the caller should pass the profile/config default, 5.0).
func (idx *Index) Search(query string, limit int, tagBoost float64) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	q := bleve.NewMatchQuery(strings.Join(tokens, " "))
	q.Analyzer = analyzerName
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"content"}

	res, err := idx.bi.Search(req)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Index, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		doc, ok := idx.docs[h.ID]
		if !ok {
			continue
		}
		rowIndex, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}

		tagsMatched := matchTags(tokens, doc.Tags)
		score := h.Score
		if len(tagsMatched) > 0 && tagBoost > 0 {
			score *= tagBoost
		} else if tagBoost > 0 {
			if substringTagMatch(tokens, doc.Tags) {
				tagsMatched = doc.Tags
				score *= tagBoost
			}
		}

		hits = append(hits, Hit{
			RowIndex:    rowIndex,
			Score:       score,
			BaseScore:   h.Score,
			TagsMatched: tagsMatched,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].RowIndex < hits[j].RowIndex
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// matchTags returns the intersection of query tokens and the document's
// lowercased tag set, preserving tag order.
func matchTags(tokens []string, tags []string) []string {
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}
	var matched []string
	for _, tag := range tags {
		if tokenSet[strings.ToLower(tag)] {
			matched = append(matched, tag)
		}
	}
	return matched
}

// substringTagMatch is the fallback when no exact tag match was found:
// either a query token is a substring of a tag, or a tag is a substring of
// a query token. Exact match always short-circuits before this is tried.
func substringTagMatch(tokens []string, tags []string) bool {
	for _, tag := range tags {
		lowerTag := strings.ToLower(tag)
		for _, t := range tokens {
			if strings.Contains(lowerTag, t) || strings.Contains(t, lowerTag) {
				return true
			}
		}
	}
	return false
}

// Exists reports whether the index currently holds any documents.
func (idx *Index) Exists() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs) > 0
}

// Close releases the underlying bleve index resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.bi == nil {
		return nil
	}
	if err := idx.bi.Close(); err != nil {
		return fmt.Errorf("close lexical index: %w", err)
	}
	return nil
}
