// Package lexical implements the BM25 keyword half of the dual index.
// Scoring is delegated to bleve (the teacher's own lexical engine
// dependency), wrapped with a whitespace-only analyzer — no stemming, no
// stopword removal — and a tag-boost post-processing pass applied on top
// of bleve's raw hit scores.
package lexical

// Document is one lexical document: one per chunk (or per whole file when
// chunking is disabled).
type Document struct {
	RowIndex    int
	Path        string
	Title       string
	Tags        []string
	Content     string
	Description string
}

// Hit is one ranked lexical result.
type Hit struct {
	RowIndex    int
	Score       float64
	BaseScore   float64
	TagsMatched []string
}
