// Package cmd provides the CLI commands for vaultsearch.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vaultsearch/vaultsearch/internal/config"
	"github.com/vaultsearch/vaultsearch/internal/lifecycle"
	"github.com/vaultsearch/vaultsearch/internal/logging"
	"github.com/vaultsearch/vaultsearch/internal/preflight"
	"github.com/vaultsearch/vaultsearch/internal/profiling"
	"github.com/vaultsearch/vaultsearch/pkg/version"
)

// Profiling flags, shared across the whole command tree the way the
// teacher wires its F23 profiler into every subcommand.
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the vaultsearch CLI.
func NewRootCmd() *cobra.Command {
	var offline bool
	var reindex bool
	var skipCheck bool
	var vaultFlag string

	cmd := &cobra.Command{
		Use:   "vaultsearch",
		Short: "Local-first hybrid search over a Markdown note vault",
		Long: `vaultsearch indexes a Markdown note vault and serves hybrid
(BM25 + semantic) search, profile-tuned ranking, and interest-over-time
archaeology entirely on your machine.

Just run 'vaultsearch' inside your vault to get started.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runSmartDefault(cmd.Context(), cmd, vaultFlag, offline, reindex, skipCheck)
		},
	}

	cmd.SetVersionTemplate("vaultsearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&vaultFlag, "vault", "", "Path to the vault root (default: search upward from the current directory)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the static hash encoder (skip the embedding model)")
	cmd.Flags().BoolVar(&reindex, "reindex", false, "Force reindex even if an index already exists")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip pre-flight system checks")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.vaultsearch/logs/")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newArchaeologyCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error

	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	}

	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
	}

	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return fmt.Errorf("failed to start trace: %w", err)
		}
	}

	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}
	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// resolveVaultRoot finds the vault root: an explicit --vault flag wins,
// otherwise walk upward from the current directory looking for a
// .vaultsearch.yaml/.yml project config or an existing .vaultsearch/
// store directory, falling back to the current directory itself.
func resolveVaultRoot(explicit string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", fmt.Errorf("resolve --vault path: %w", err)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine current directory: %w", err)
	}

	dir := cwd
	for {
		if fileExists(filepath.Join(dir, ".vaultsearch.yaml")) ||
			fileExists(filepath.Join(dir, ".vaultsearch.yml")) ||
			dirExists(filepath.Join(dir, ".vaultsearch")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd, nil
}

func storeDir(vaultRoot string) string {
	return filepath.Join(vaultRoot, ".vaultsearch")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// loadConfig resolves the vault root and layers config on top of it,
// applying the --offline flag as a provider override.
func loadConfig(vaultFlag string, offline bool) (*config.Config, string, error) {
	vaultRoot, err := resolveVaultRoot(vaultFlag)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(vaultRoot)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	if offline {
		cfg.Embeddings.Provider = "static"
	}
	return cfg, vaultRoot, nil
}

// runSmartDefault implements the "just works" flow: resolve the vault,
// run preflight checks, index if needed, then serve the query API over
// HTTP on the configured listen address.
func runSmartDefault(ctx context.Context, cmd *cobra.Command, vaultFlag string, offline, reindex, skipCheck bool) error {
	cfg, vaultRoot, err := loadConfig(vaultFlag, offline)
	if err != nil {
		return err
	}
	dataDir := storeDir(vaultRoot)

	if !skipCheck && preflight.NeedsCheck(dataDir) {
		checker := preflight.New(preflight.WithOffline(offline))
		results := checker.RunAll(ctx, vaultRoot)
		checker.PrintResults(results)
		if checker.HasCriticalFailures(results) {
			return fmt.Errorf("system check failed, run 'vaultsearch status' for diagnostics")
		}
		if err := preflight.MarkPassed(dataDir); err != nil {
			slog.Debug("failed to mark preflight as passed", slog.String("error", err.Error()))
		}
	}

	if cfg.Embeddings.Provider != "static" {
		if err := ensureEmbedderReady(ctx, cmd, cfg); err != nil {
			return err
		}
	}

	needsIndex := reindex || !dirExists(dataDir)
	if needsIndex {
		if err := runReindex(ctx, cmd, cfg, vaultRoot, reindex); err != nil {
			return err
		}
	}

	return runServeWithConfig(ctx, cmd, cfg, vaultRoot)
}

// ensureEmbedderReady gets Ollama running with the configured model loaded.
// When stdin is a terminal and Ollama is missing entirely, it offers an
// interactive fallback to offline mode (the static hash encoder, no
// embedding model) instead of just failing, the way the teacher's setup
// flow prompts rather than aborts.
func ensureEmbedderReady(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	mgr := lifecycle.NewOllamaManagerWithHost(cfg.Embeddings.OllamaHost)
	opts := lifecycle.DefaultEnsureOpts()
	opts.Stdout = out
	opts.Stderr = cmd.ErrOrStderr()
	opts.ProgressFunc = lifecycle.CreatePullProgressFunc(out)

	err := mgr.EnsureReady(ctx, cfg.Embeddings.Model, opts)
	if err == nil {
		return nil
	}

	var notInstalled *lifecycle.NotInstalledError
	if !errors.As(err, &notInstalled) || !lifecycle.IsTTY() {
		return fmt.Errorf("ollama not ready: %w (use --offline to skip this)", err)
	}

	choice, promptErr := lifecycle.PromptNoEmbedder(out, cmd.InOrStdin())
	if promptErr != nil {
		return fmt.Errorf("ollama not ready: %w (use --offline to skip this)", err)
	}
	switch choice {
	case lifecycle.ChoiceShowInstall:
		lifecycle.ShowInstallInstructions(out)
		return fmt.Errorf("install ollama and re-run (use --offline to skip this)")
	case lifecycle.ChoiceOfflineMode:
		cfg.Embeddings.Provider = "static"
		return nil
	default:
		return fmt.Errorf("cancelled: ollama not ready: %w", err)
	}
}
