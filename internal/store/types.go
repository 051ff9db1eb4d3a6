// Package store persists the dense-vector half of the index: the
// row-major vector array, the per-row metadata list, and the single
// index-metadata record, all co-indexed by row. Writes are atomic
// (write-then-rename) so the engine never observes a partially-written
// index after a crash mid-save.
package store

import "time"

// Row is one embedding row: a chunk's vector plus the metadata needed to
// present and re-rank it without touching the vault again.
type Row struct {
	RelativePath string
	Title        string
	Tags         []string
	Frontmatter  map[string]any
	CreatedDate  time.Time
	ModifiedTime time.Time
	ContentLen   int

	ChunkIndex int
	ChunkTotal int
	StartOffset int
	EndOffset   int
	IsChunk     bool

	Content string
	Vector  []float32
}

// FileTrackEntry is one entry of the index metadata's file_tracking map.
type FileTrackEntry struct {
	ModifiedTime time.Time
	RowStart     int
	RowEnd       int // exclusive
}

// IndexMetadata is the single record co-located with the vector store.
type IndexMetadata struct {
	VaultPath       string
	VaultName       string
	EncoderName     string
	Dimension       int
	IndexedAt       time.Time
	ChunkingEnabled bool
	ChunkSize       int
	ChunkOverlap    int
	ChunkThreshold  int
	FileTracking    map[string]FileTrackEntry
}
