package encoder

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// Serialized wraps an Encoder so that every Embed call — whether issued by
// the index builder or a concurrent query — is funneled through a single
// worker, in process via a mutex and across processes via a file lock in
// the storage directory. The encoder itself need not be safe for
// concurrent model access; Serialized makes it so from the outside.
type Serialized struct {
	inner Encoder

	mu        sync.Mutex
	fileLock  *flock.Flock
	lockPath  string
}

var _ Encoder = (*Serialized)(nil)

// NewSerialized wraps inner with in-process and cross-process call
// serialization. storageDir is where the lock file (.encoder.lock) lives;
// it should be the same directory as the vector store so that a second
// vaultsearch process against the same index queues behind this one.
func NewSerialized(inner Encoder, storageDir string) *Serialized {
	lockPath := filepath.Join(storageDir, ".encoder.lock")
	return &Serialized{
		inner:    inner,
		fileLock: flock.New(lockPath),
		lockPath: lockPath,
	}
}

// Load acquires the cross-process lock for the duration of the inner
// Load call, so two processes racing to warm the same model don't both
// trigger it at once.
func (s *Serialized) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fileLock.Lock(); err != nil {
		return fmt.Errorf("acquire encoder lock: %w", err)
	}
	defer func() { _ = s.fileLock.Unlock() }()

	return s.inner.Load(ctx)
}

// Embed serializes calls to the wrapped encoder: one caller's batch
// completes before the next caller's batch begins, both within this
// process and across any other process holding the same lock file.
func (s *Serialized) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fileLock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire encoder lock: %w", err)
	}
	defer func() { _ = s.fileLock.Unlock() }()

	return s.inner.Embed(ctx, texts)
}

// Dimension delegates to the wrapped encoder.
func (s *Serialized) Dimension() int {
	return s.inner.Dimension()
}

// Name delegates to the wrapped encoder.
func (s *Serialized) Name() string {
	return s.inner.Name()
}

// Close releases the wrapped encoder; the file lock is released per-call
// and needs no explicit teardown here.
func (s *Serialized) Close() error {
	return s.inner.Close()
}
