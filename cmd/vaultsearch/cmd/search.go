package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaultsearch/vaultsearch/internal/config"
	"github.com/vaultsearch/vaultsearch/internal/output"
	"github.com/vaultsearch/vaultsearch/internal/search"
	"github.com/vaultsearch/vaultsearch/internal/service"
)

type searchOptions struct {
	limit   int
	profile string
	format  string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed vault",
		Long: `Search the indexed vault using hybrid (BM25 + semantic) search,
fused with Reciprocal Rank Fusion and ranked by the chosen profile.

Examples:
  vaultsearch search "what did I decide about the migration"
  vaultsearch search "kubernetes networking" --profile deep
  vaultsearch search "todo" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			vaultFlag, _ := cmd.Flags().GetString("vault")
			cfg, vaultRoot, err := loadConfig(vaultFlag, false)
			if err != nil {
				return err
			}
			return runSearch(cmd.Context(), cmd, cfg, vaultRoot, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default: profile's configured max)")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "Ranking profile to use (default: the configured default profile)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, vaultRoot, query string, opts searchOptions) error {
	svc, err := service.New(cfg, vaultRoot, storeDir(vaultRoot), &search.NoOpReranker{})
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	defer func() { _ = svc.Close() }()
	if err := svc.Open(ctx); err != nil {
		return fmt.Errorf("open index: %w", err)
	}

	results, err := svc.Search(ctx, service.SearchRequest{Query: query, Limit: opts.limit, ProfileName: opts.profile})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	out := output.New(cmd.OutOrStdout())
	if len(results) == 0 {
		out.Status("", fmt.Sprintf("No results found for %q", query))
		return nil
	}

	out.Statusf("", "Found %d results for %q:", len(results), query)
	out.Newline()
	for i, r := range results {
		location := r.RelativePath
		if r.IsChunk {
			location = fmt.Sprintf("%s (chunk %d/%d)", r.RelativePath, r.ChunkIndex+1, r.ChunkTotal)
		}
		out.Statusf("", "%d. %s (rrf: %.4f, similarity: %.3f, bm25: %.3f)", i+1, location, r.RRFScore, r.SimilarityScore, r.BM25Score)
		if r.Snippet != "" {
			out.Status("", "   "+r.Snippet)
		}
		out.Newline()
	}
	return nil
}
