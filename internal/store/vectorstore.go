package store

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vaultsearch/vaultsearch/internal/vaulterr"
)

// VectorStore holds the loaded index snapshot in memory and persists it to
// a dedicated dot-directory. Reads proceed lock-free against the currently
// loaded snapshot fields; Save atomically replaces the on-disk state and
// Load swaps in a freshly read one.
//
// There is deliberately no approximate-nearest-neighbor structure here:
// the spec's exact brute-force dot-product scan and bitwise-reproducible
// round-trip invariant rule out an ANN index (see DESIGN.md).
type VectorStore struct {
	Dir string

	mu       sync.RWMutex
	rows     []Row
	metadata IndexMetadata
}

// New creates a VectorStore rooted at dir (the engine's dot-directory,
// e.g. "<vault>/.vaultsearch").
func New(dir string) *VectorStore {
	return &VectorStore{Dir: dir}
}

const (
	vectorsFile  = "vectors.gob"
	metadataFile = "index_metadata.gob"
)

// onDiskRows is the gob-serializable payload for the per-row vector +
// metadata array. Kept separate from Row so the wire format is stable even
// if Row grows in-memory-only convenience fields later.
type onDiskRows struct {
	Rows []Row
}

// Load reads the persisted vectors, metadata, and index metadata. All
// three may be absent (first-run case), in which case Load returns without
// error and the store reports zero rows.
func (s *VectorStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rowsPath := filepath.Join(s.Dir, vectorsFile)
	if _, err := os.Stat(rowsPath); os.IsNotExist(err) {
		s.rows = nil
		s.metadata = IndexMetadata{}
		return nil
	}

	rf, err := os.Open(rowsPath)
	if err != nil {
		return vaulterr.Wrap(vaulterr.Index, err)
	}
	defer rf.Close()

	var payload onDiskRows
	if err := gob.NewDecoder(rf).Decode(&payload); err != nil {
		return vaulterr.Wrap(vaulterr.Index, fmt.Errorf("decode vectors: %w", err))
	}

	metaPath := filepath.Join(s.Dir, metadataFile)
	var meta IndexMetadata
	if mf, err := os.Open(metaPath); err == nil {
		defer mf.Close()
		if err := gob.NewDecoder(mf).Decode(&meta); err != nil {
			return vaulterr.Wrap(vaulterr.Index, fmt.Errorf("decode index metadata: %w", err))
		}
	}

	s.rows = payload.Rows
	s.metadata = meta
	return nil
}

// Save atomically replaces the persisted vectors, metadata, and index
// metadata. Precondition: none (rows and metadata are already co-indexed
// by construction — see Row).
func (s *VectorStore) Save(rows []Row, meta IndexMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return vaulterr.Wrap(vaulterr.Index, err)
	}

	if err := writeAtomic(filepath.Join(s.Dir, vectorsFile), onDiskRows{Rows: rows}); err != nil {
		return vaulterr.Wrap(vaulterr.Index, fmt.Errorf("save vectors: %w", err))
	}
	if err := writeAtomic(filepath.Join(s.Dir, metadataFile), meta); err != nil {
		return vaulterr.Wrap(vaulterr.Index, fmt.Errorf("save index metadata: %w", err))
	}

	s.rows = rows
	s.metadata = meta
	return nil
}

// writeAtomic gob-encodes v to path via a temp file + rename so a crash
// mid-write never leaves a truncated file at path.
func writeAtomic(path string, v any) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Clear removes all persisted state and empties the in-memory snapshot.
func (s *VectorStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{vectorsFile, metadataFile} {
		if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
			return vaulterr.Wrap(vaulterr.Index, err)
		}
	}
	s.rows = nil
	s.metadata = IndexMetadata{}
	return nil
}

// Snapshot returns the currently loaded rows and index metadata. Callers
// must not mutate the returned slice; it is shared with the store.
func (s *VectorStore) Snapshot() ([]Row, IndexMetadata) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows, s.metadata
}

// Dimension returns the vector dimension of the loaded index, or 0 if
// empty.
func (s *VectorStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.rows) == 0 {
		return 0
	}
	return len(s.rows[0].Vector)
}
