package index

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/vaultsearch/vaultsearch/internal/chunk"
	"github.com/vaultsearch/vaultsearch/internal/encoder"
	"github.com/vaultsearch/vaultsearch/internal/lexical"
	"github.com/vaultsearch/vaultsearch/internal/store"
	"github.com/vaultsearch/vaultsearch/internal/vault"
	"github.com/vaultsearch/vaultsearch/internal/vaulterr"
)

// Manager owns the full ingest → chunk → embed → persist pipeline and the
// incremental reindex decision. It holds the single writer lock implicit in
// the vector/lexical index pair: callers are expected to serialize Reindex
// calls (the service layer enforces this with its own mutex).
type Manager struct {
	VaultRoot string
	StoreDir  string

	Chunking ChunkOptions

	Vectors *store.VectorStore
	Lexical *lexical.Index
	Encoder encoder.Encoder
}

// NewManager wires the pipeline stages together. Vectors, Lexical, and
// Encoder are constructed by the caller (the service layer) so that tests
// can substitute a StaticEncoder or an in-memory store.
func NewManager(vaultRoot, storeDir string, opts ChunkOptions, vectors *store.VectorStore, lex *lexical.Index, enc encoder.Encoder) *Manager {
	return &Manager{
		VaultRoot: vaultRoot,
		StoreDir:  storeDir,
		Chunking:  opts,
		Vectors:   vectors,
		Lexical:   lex,
		Encoder:   enc,
	}
}

// Reindex rebuilds or incrementally updates the index. force=true always
// does a full rebuild; force=false attempts an incremental update and falls
// back to a full rebuild when there is no previous index to diff against.
func (m *Manager) Reindex(ctx context.Context, force bool) (*Result, error) {
	if err := store.ValidateVaultSafety(m.StoreDir, m.VaultRoot, force); err != nil {
		return nil, err
	}

	reader, err := vault.NewReader(m.VaultRoot)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.VaultRead, err)
	}
	docs, err := reader.Walk()
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.VaultRead, err)
	}

	if err := m.Vectors.Load(); err != nil {
		return nil, err
	}
	existingRows, existingMeta := m.Vectors.Snapshot()

	if !force && existingMeta.FileTracking != nil {
		return m.reindexIncremental(ctx, docs, existingRows, existingMeta)
	}
	return m.reindexFull(ctx, docs)
}

func (m *Manager) reindexFull(ctx context.Context, docs []vault.Document) (*Result, error) {
	rows, err := m.embedDocuments(ctx, docs)
	if err != nil {
		return nil, err
	}

	meta := m.baseMetadata()
	meta.FileTracking = buildFileTracking(docs, rows)

	if err := m.Vectors.Save(rows, meta); err != nil {
		return nil, err
	}
	if err := m.rebuildLexical(rows); err != nil {
		return nil, err
	}

	return &Result{
		Incremental:  false,
		FilesIndexed: len(docs),
		TotalRows:    len(rows),
		TotalChunks:  len(rows),
		EncoderName:  m.Encoder.Name(),
	}, nil
}

// reindexIncremental implements the delete -> append merge: rows belonging
// to deleted or modified files are removed first, in descending row-index
// order so earlier indices stay valid; modified and new files' freshly
// embedded rows are then appended at the end. Unlike the original
// per-file (one row per file) implementation this is grounded on, chunking
// means a modified file's row count can change, so "update in place" isn't
// safe in general — delete-then-append preserves the same load-bearing
// ordering guarantee without assuming a fixed row count per file.
func (m *Manager) reindexIncremental(ctx context.Context, docs []vault.Document, existingRows []store.Row, existingMeta store.IndexMetadata) (*Result, error) {
	current := make(map[string]vault.Document, len(docs))
	for _, d := range docs {
		current[d.RelativePath] = d
	}

	var newDocs, modifiedDocs []vault.Document
	for _, d := range docs {
		tracked, ok := existingMeta.FileTracking[d.RelativePath]
		if !ok {
			newDocs = append(newDocs, d)
			continue
		}
		if !tracked.ModifiedTime.Equal(d.ModifiedTime) {
			modifiedDocs = append(modifiedDocs, d)
		}
	}

	var deletedPaths []string
	for path := range existingMeta.FileTracking {
		if _, ok := current[path]; !ok {
			deletedPaths = append(deletedPaths, path)
		}
	}

	toRemove := make(map[string]bool, len(deletedPaths)+len(modifiedDocs))
	for _, p := range deletedPaths {
		toRemove[p] = true
	}
	for _, d := range modifiedDocs {
		toRemove[d.RelativePath] = true
	}

	// STEP 1: delete, in descending row-index order.
	rows := append([]store.Row(nil), existingRows...)
	var removeIdx []int
	for i, r := range rows {
		if toRemove[r.RelativePath] {
			removeIdx = append(removeIdx, i)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(removeIdx)))
	for _, idx := range removeIdx {
		rows = append(rows[:idx], rows[idx+1:]...)
	}

	// STEP 2: append modified-then-new at the end.
	toEmbed := append(append([]vault.Document(nil), modifiedDocs...), newDocs...)
	appended, err := m.embedDocuments(ctx, toEmbed)
	if err != nil {
		return nil, err
	}
	rows = append(rows, appended...)

	meta := m.baseMetadata()
	meta.FileTracking = buildFileTracking(docs, rows)

	if err := m.Vectors.Save(rows, meta); err != nil {
		return nil, err
	}
	if err := m.rebuildLexical(rows); err != nil {
		return nil, err
	}

	return &Result{
		Incremental:   true,
		FilesIndexed:  len(newDocs) + len(modifiedDocs),
		FilesNew:      len(newDocs),
		FilesModified: len(modifiedDocs),
		FilesDeleted:  len(deletedPaths),
		TotalRows:     len(rows),
		TotalChunks:   len(rows),
		EncoderName:   m.Encoder.Name(),
	}, nil
}

// embedDocuments chunks each document, embeds every resulting chunk text in
// one encoder call, and returns the rows in document order, chunk order.
func (m *Manager) embedDocuments(ctx context.Context, docs []vault.Document) ([]store.Row, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	type pending struct {
		doc vault.Document
		c   chunk.Chunk
	}
	var all []pending
	for _, d := range docs {
		chunks, err := m.chunksFor(d)
		if err != nil {
			return nil, vaulterr.Wrap(vaulterr.Index, fmt.Errorf("chunk %s: %w", d.RelativePath, err))
		}
		for _, c := range chunks {
			all = append(all, pending{doc: d, c: c})
		}
	}

	texts := make([]string, len(all))
	for i, p := range all {
		texts[i] = embeddingTextFor(p.doc, p.c)
	}

	vectors, err := m.Encoder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(all) {
		return nil, vaulterr.New(vaulterr.Encoder, "encoder returned a different number of vectors than inputs", nil)
	}

	rows := make([]store.Row, len(all))
	for i, p := range all {
		rows[i] = store.Row{
			RelativePath: p.doc.RelativePath,
			Title:        p.doc.Title,
			Tags:         p.doc.Tags,
			Frontmatter:  p.doc.Frontmatter,
			CreatedDate:  p.doc.CreatedDate,
			ModifiedTime: p.doc.ModifiedTime,
			ContentLen:   len(p.c.Content),
			ChunkIndex:   p.c.ChunkIndex,
			ChunkTotal:   p.c.ChunkTotal,
			StartOffset:  p.c.StartOffset,
			EndOffset:    p.c.EndOffset,
			IsChunk:      p.c.IsChunk,
			Content:      p.c.Content,
			Vector:       vectors[i],
		}
	}
	return rows, nil
}

func (m *Manager) chunksFor(d vault.Document) ([]chunk.Chunk, error) {
	if !m.Chunking.Enabled {
		return []chunk.Chunk{{
			Content:     d.CleanedBody,
			ChunkIndex:  0,
			ChunkTotal:  1,
			StartOffset: 0,
			EndOffset:   len(d.CleanedBody),
			IsChunk:     false,
		}}, nil
	}
	return chunk.Split(d.CleanedBody, m.Chunking.Size, m.Chunking.Overlap, m.Chunking.Threshold)
}

// embeddingTextFor builds the text handed to the encoder for one chunk: the
// document's description-prepend rule (vault.Document.EmbeddingText)
// applied to the chunk's own slice of content rather than the whole body.
func embeddingTextFor(d vault.Document, c chunk.Chunk) string {
	desc, _ := d.Frontmatter["description"].(string)
	if desc == "" {
		return c.Content
	}
	return desc + ". " + c.Content
}

func (m *Manager) rebuildLexical(rows []store.Row) error {
	docs := make([]lexical.Document, len(rows))
	for i, r := range rows {
		desc, _ := r.Frontmatter["description"].(string)
		docs[i] = lexical.Document{
			RowIndex:    i,
			Path:        r.RelativePath,
			Title:       r.Title,
			Tags:        r.Tags,
			Content:     r.Content,
			Description: desc,
		}
	}
	return m.Lexical.Build(docs)
}

func buildFileTracking(docs []vault.Document, rows []store.Row) map[string]store.FileTrackEntry {
	modTimes := make(map[string]time.Time, len(docs))
	for _, d := range docs {
		modTimes[d.RelativePath] = d.ModifiedTime
	}

	tracking := make(map[string]store.FileTrackEntry)
	for i, r := range rows {
		entry, ok := tracking[r.RelativePath]
		if !ok {
			tracking[r.RelativePath] = store.FileTrackEntry{
				ModifiedTime: modTimes[r.RelativePath],
				RowStart:     i,
				RowEnd:       i + 1,
			}
			continue
		}
		entry.RowEnd = i + 1
		tracking[r.RelativePath] = entry
	}
	return tracking
}

func (m *Manager) baseMetadata() store.IndexMetadata {
	return store.IndexMetadata{
		VaultPath:       m.VaultRoot,
		VaultName:       filepath.Base(m.VaultRoot),
		EncoderName:     m.Encoder.Name(),
		Dimension:       m.Encoder.Dimension(),
		IndexedAt:       time.Now(),
		ChunkingEnabled: m.Chunking.Enabled,
		ChunkSize:       m.Chunking.Size,
		ChunkOverlap:    m.Chunking.Overlap,
		ChunkThreshold:  m.Chunking.Threshold,
	}
}
