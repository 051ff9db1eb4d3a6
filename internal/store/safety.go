package store

import (
	"os"
	"path/filepath"
	"time"

	"github.com/vaultsearch/vaultsearch/internal/vaulterr"
)

// ValidateVaultSafety enforces the vault-safety invariant: a storage
// directory must never silently absorb an index write for a vault other
// than the one it was built for.
//
//   - no index metadata yet        -> safe, first run
//   - metadata has no VaultPath    -> legacy index, migrate in place
//   - VaultPath differs from vault -> refuse unless force is set
//
// vaultPath must already be resolved to an absolute path by the caller.
func ValidateVaultSafety(dir, vaultPath string, force bool) error {
	if force {
		return nil
	}

	metaPath := filepath.Join(dir, metadataFile)
	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		return nil
	}

	s := New(dir)
	if err := s.Load(); err != nil {
		// Can't validate a metadata file we can't read; let the caller
		// proceed rather than block on a possibly-corrupt index.
		return nil
	}
	_, meta := s.Snapshot()

	if meta.VaultPath == "" {
		return migrateLegacyMetadata(s, meta, vaultPath)
	}

	if meta.VaultPath != vaultPath {
		return vaulterr.NewStorageMismatch(dir, meta.VaultPath, vaultPath)
	}
	return nil
}

// migrateLegacyMetadata stamps vault_path/vault_name onto an index written
// before this invariant existed, rather than rejecting it outright.
func migrateLegacyMetadata(s *VectorStore, meta IndexMetadata, vaultPath string) error {
	rows, _ := s.Snapshot()
	meta.VaultPath = vaultPath
	meta.VaultName = filepath.Base(vaultPath)
	if meta.IndexedAt.IsZero() {
		meta.IndexedAt = time.Now()
	}
	return s.Save(rows, meta)
}
