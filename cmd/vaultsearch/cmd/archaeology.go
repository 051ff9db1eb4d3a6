package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaultsearch/vaultsearch/internal/config"
	"github.com/vaultsearch/vaultsearch/internal/output"
	"github.com/vaultsearch/vaultsearch/internal/search"
	"github.com/vaultsearch/vaultsearch/internal/service"
)

func newArchaeologyCmd() *cobra.Command {
	var (
		threshold    float64
		excludeDaily bool
		format       string
	)

	cmd := &cobra.Command{
		Use:   "archaeology <topic>",
		Short: "Trace how a topic's presence in the vault evolved over time",
		Long: `Trace an interest through the vault's history: which months it
shows up in, how strongly (intensity), where it peaked, and which
months it went quiet (dormant periods).

Examples:
  vaultsearch archaeology "rust ownership"
  vaultsearch archaeology "project x" --exclude-daily --threshold 0.4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			vaultFlag, _ := cmd.Flags().GetString("vault")
			cfg, vaultRoot, err := loadConfig(vaultFlag, false)
			if err != nil {
				return err
			}
			return runArchaeology(cmd.Context(), cmd, cfg, vaultRoot, topic, threshold, excludeDaily, format)
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0.3, "Minimum similarity for a note to count as a match")
	cmd.Flags().BoolVar(&excludeDaily, "exclude-daily", false, "Exclude notes tagged 'daily'")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runArchaeology(ctx context.Context, cmd *cobra.Command, cfg *config.Config, vaultRoot, topic string, threshold float64, excludeDaily bool, format string) error {
	svc, err := service.New(cfg, vaultRoot, storeDir(vaultRoot), &search.NoOpReranker{})
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	defer func() { _ = svc.Close() }()
	if err := svc.Open(ctx); err != nil {
		return fmt.Errorf("open index: %w", err)
	}

	timeline, err := svc.Archaeology(ctx, topic, threshold, excludeDaily)
	if err != nil {
		return fmt.Errorf("archaeology failed: %w", err)
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(timeline)
	}

	out := output.New(cmd.OutOrStdout())
	if len(timeline.Entries) == 0 {
		out.Status("", fmt.Sprintf("No matches for %q above threshold %.2f", topic, threshold))
		return nil
	}

	months := make([]string, 0, len(timeline.IntensityByMonth))
	for m := range timeline.IntensityByMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out.Statusf("", "Timeline for %q (%d matching entries across %d months):", topic, len(timeline.Entries), len(months))
	out.Newline()
	for _, m := range months {
		out.Statusf("", "%s  activity=%d  intensity=%.2f  %s", m, timeline.ActivityByMonth[m], timeline.IntensityByMonth[m], bar(timeline.IntensityByMonth[m]))
	}
	out.Newline()

	if len(timeline.PeakPeriods) > 0 {
		out.Status("", "Peak periods:")
		for _, p := range timeline.PeakPeriods {
			out.Statusf("", "  %s (intensity %.2f)", p.Month, p.Intensity)
		}
		out.Newline()
	}

	if len(timeline.DormantPeriods) > 0 {
		out.Status("", "Dormant periods:")
		out.Status("", "  "+strings.Join(timeline.DormantPeriods, ", "))
	}

	return nil
}

// bar renders a cheap ASCII intensity bar; presentation only, not part of
// the archaeology contract itself.
func bar(intensity float64) string {
	const width = 20
	filled := int(intensity * width)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}
