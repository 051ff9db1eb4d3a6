package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultsearch/vaultsearch/internal/config"
	"github.com/vaultsearch/vaultsearch/internal/output"
	"github.com/vaultsearch/vaultsearch/internal/search"
	"github.com/vaultsearch/vaultsearch/internal/service"
)

func newStatsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the index's current size and provenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultFlag, _ := cmd.Flags().GetString("vault")
			cfg, vaultRoot, err := loadConfig(vaultFlag, false)
			if err != nil {
				return err
			}
			return runStats(cmd.Context(), cmd, cfg, vaultRoot, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, cfg *config.Config, vaultRoot, format string) error {
	svc, err := service.New(cfg, vaultRoot, storeDir(vaultRoot), &search.NoOpReranker{})
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	defer func() { _ = svc.Close() }()
	if err := svc.Open(ctx); err != nil {
		return fmt.Errorf("open index: %w", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	out := output.New(cmd.OutOrStdout())
	out.Status("", fmt.Sprintf("Vault:      %s", stats.VaultPath))
	out.Status("", fmt.Sprintf("Documents:  %d", stats.DocumentCount))
	out.Status("", fmt.Sprintf("Rows:       %d (includes chunks)", stats.ChunkCount))
	out.Status("", fmt.Sprintf("Encoder:    %s (dimension %d)", stats.EncoderName, stats.Dimension))
	if !stats.IndexedAt.IsZero() {
		out.Status("", fmt.Sprintf("Indexed at: %s", stats.IndexedAt.Format("2006-01-02 15:04:05")))
	}
	return nil
}
