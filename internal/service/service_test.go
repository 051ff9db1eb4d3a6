package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultsearch/vaultsearch/internal/config"
	"github.com/vaultsearch/vaultsearch/internal/search"
)

func buildService(t *testing.T) *Service {
	t.Helper()

	vaultRoot := t.TempDir()
	storeDir := t.TempDir()

	cfg := config.NewConfig()
	cfg.Embeddings.Provider = "static"

	svc, err := New(cfg, vaultRoot, storeDir, &search.NoOpReranker{})
	require.NoError(t, err)
	require.NoError(t, svc.Open(context.Background()))
	t.Cleanup(func() { _ = svc.Close() })

	return svc
}

func TestNew_BuildsStaticEncoderWhenConfigured(t *testing.T) {
	svc := buildService(t)
	assert.Equal(t, "static-hash-256", svc.Encoder.Name())
}

func TestService_ReindexThenSearchFindsIndexedContent(t *testing.T) {
	vaultRoot := t.TempDir()
	writeNote(t, vaultRoot, "rust.md", "rust programming language ownership and borrowing")
	writeNote(t, vaultRoot, "bread.md", "sourdough bread baking recipe")

	cfg := config.NewConfig()
	cfg.Embeddings.Provider = "static"
	storeDir := t.TempDir()

	svc, err := New(cfg, vaultRoot, storeDir, &search.NoOpReranker{})
	require.NoError(t, err)
	require.NoError(t, svc.Open(context.Background()))
	t.Cleanup(func() { _ = svc.Close() })

	result, err := svc.Reindex(context.Background(), ReindexRequest{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesIndexed)

	results, err := svc.Search(context.Background(), SearchRequest{Query: "rust ownership borrowing", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "rust.md", results[0].RelativePath)
}

func TestService_StatsReflectsIndexedDocuments(t *testing.T) {
	vaultRoot := t.TempDir()
	writeNote(t, vaultRoot, "a.md", "first note content")
	writeNote(t, vaultRoot, "b.md", "second note content")

	cfg := config.NewConfig()
	cfg.Embeddings.Provider = "static"
	storeDir := t.TempDir()

	svc, err := New(cfg, vaultRoot, storeDir, &search.NoOpReranker{})
	require.NoError(t, err)
	require.NoError(t, svc.Open(context.Background()))
	t.Cleanup(func() { _ = svc.Close() })

	_, err = svc.Reindex(context.Background(), ReindexRequest{Force: true})
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DocumentCount)
	assert.Equal(t, "static-hash-256", stats.EncoderName)
}

func TestService_TryReindexReturnsBusyWhenLockHeld(t *testing.T) {
	svc := buildService(t)
	svc.reindexMu.Lock()
	defer svc.reindexMu.Unlock()

	_, err := svc.TryReindex(context.Background(), ReindexRequest{Force: true})
	assert.ErrorIs(t, err, ErrReindexBusy)
}

func TestService_SearchUnknownProfileReturnsError(t *testing.T) {
	svc := buildService(t)
	_, err := svc.Search(context.Background(), SearchRequest{Query: "anything", ProfileName: "does-not-exist"})
	assert.Error(t, err)
}

func TestService_ArchaeologyTracesIndexedTopic(t *testing.T) {
	vaultRoot := t.TempDir()
	writeNote(t, vaultRoot, "jan.md", "rust programming traits")

	cfg := config.NewConfig()
	cfg.Embeddings.Provider = "static"
	storeDir := t.TempDir()

	svc, err := New(cfg, vaultRoot, storeDir, &search.NoOpReranker{})
	require.NoError(t, err)
	require.NoError(t, svc.Open(context.Background()))
	t.Cleanup(func() { _ = svc.Close() })

	_, err = svc.Reindex(context.Background(), ReindexRequest{Force: true})
	require.NoError(t, err)

	timeline, err := svc.Archaeology(context.Background(), "rust programming traits", 0.0, false)
	require.NoError(t, err)
	assert.NotEmpty(t, timeline.Entries)
}

func writeNote(t *testing.T, vaultRoot, relPath, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(vaultRoot, relPath), []byte(content), 0o644))
}
