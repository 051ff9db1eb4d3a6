// Package vault reads a directory tree of Markdown notes and produces the
// Document records the rest of the engine indexes. The vault is treated as
// read-only; the reader never writes inside it except under the engine's
// own dot-directory (handled by internal/store).
package vault

import "time"

// Document is the logical unit read from one Markdown file.
type Document struct {
	RelativePath  string
	Title         string
	RawBody       string
	CleanedBody   string
	Tags          []string
	Frontmatter   map[string]any
	CreatedDate   time.Time
	ModifiedTime  time.Time
	ContentLength int
}

// EmbeddingText is the text handed to the encoder: the frontmatter
// description, if present, prepended to the cleaned body so curated
// summaries get positional weight in the embedding.
func (d Document) EmbeddingText() string {
	desc, _ := d.Frontmatter["description"].(string)
	if desc == "" {
		return d.CleanedBody
	}
	return desc + ". " + d.CleanedBody
}
