package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vaultsearch/vaultsearch/internal/config"
	"github.com/vaultsearch/vaultsearch/internal/output"
	"github.com/vaultsearch/vaultsearch/internal/profiles"
	"github.com/vaultsearch/vaultsearch/internal/search"
	"github.com/vaultsearch/vaultsearch/internal/service"
)

func newIndexCmd() *cobra.Command {
	var (
		force        bool
		offline      bool
		chunking     bool
		chunkSize    int
		chunkOverlap int
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the vault for searching",
		Long: `Index the vault to enable hybrid search over its contents.

This scans Markdown notes, chunks long ones, generates embeddings, and
builds both the dense vector index and the BM25 lexical index.

Use --force to rebuild from scratch; without it, index only picks up
files that are new, modified, or deleted since the last run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			vaultFlag, _ := cmd.Flags().GetString("vault")
			cfg, vaultRoot, err := loadConfig(vaultFlag, offline)
			if err != nil {
				return err
			}
			return runReindexWithOptions(ctx, cmd, cfg, vaultRoot, force, chunking, chunkSize, chunkOverlap)
		},
	}

	defaultProfile, _ := profiles.NewRegistry().Get("default")

	cmd.Flags().BoolVar(&force, "force", false, "Clear the existing index and rebuild from scratch")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the static hash encoder instead of Ollama")
	cmd.Flags().BoolVar(&chunking, "chunking", defaultProfile.ChunkingEnabled, "Split long notes into overlapping chunks")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", defaultProfile.ChunkSize, "Target chunk size in characters")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", defaultProfile.ChunkOverlap, "Overlap between consecutive chunks, in characters")

	return cmd
}

// runReindex is the shared entry point used by the smart-default root
// flow: it applies the default profile's chunking knobs.
func runReindex(ctx context.Context, cmd *cobra.Command, cfg *config.Config, vaultRoot string, force bool) error {
	p, err := profiles.NewRegistry().Get(cfg.Search.DefaultProfile)
	if err != nil {
		p, _ = profiles.NewRegistry().Get("default")
	}
	return runReindexWithOptions(ctx, cmd, cfg, vaultRoot, force, p.ChunkingEnabled, p.ChunkSize, p.ChunkOverlap)
}

func runReindexWithOptions(ctx context.Context, cmd *cobra.Command, cfg *config.Config, vaultRoot string, force, chunking bool, chunkSize, chunkOverlap int) error {
	out := output.New(cmd.OutOrStdout())

	svc, err := service.New(cfg, vaultRoot, storeDir(vaultRoot), &search.NoOpReranker{})
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	if err := svc.Open(ctx); err != nil {
		return fmt.Errorf("open index: %w", err)
	}

	out.Statusf("", "Indexing %s...", vaultRoot)
	result, err := svc.Reindex(ctx, service.ReindexRequest{
		Force:        force,
		Chunking:     chunking,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	})
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	mode := "incremental"
	if !result.Incremental {
		mode = "full"
	}
	out.Successf("Indexed %d files (%s): %d new, %d modified, %d deleted, %d rows total using %s",
		result.FilesIndexed, mode, result.FilesNew, result.FilesModified, result.FilesDeleted,
		result.TotalRows, result.EncoderName)
	return nil
}
