package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/vaultsearch/vaultsearch/internal/config"
	"github.com/vaultsearch/vaultsearch/internal/httpapi"
	"github.com/vaultsearch/vaultsearch/internal/logging"
	"github.com/vaultsearch/vaultsearch/internal/output"
	"github.com/vaultsearch/vaultsearch/internal/search"
	"github.com/vaultsearch/vaultsearch/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		listenAddr string
		offline    bool
		watch      bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP query API",
		Long: `Start the HTTP query API (GET /search, GET /archaeology, GET /stats,
GET /health, POST /reindex) over the vault's existing index.

The server does not index on startup; run 'vaultsearch index' first, or
hit POST /reindex once the server is running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultFlag, _ := cmd.Flags().GetString("vault")
			cfg, vaultRoot, err := loadConfig(vaultFlag, offline)
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.Server.ListenAddr = listenAddr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = watch
			}
			if quiet {
				cleanup, err := logging.SetupQuietMode()
				if err != nil {
					return fmt.Errorf("setup quiet logging: %w", err)
				}
				defer cleanup()
			}
			return runServeWithConfig(cmd.Context(), cmd, cfg, vaultRoot)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (default: the configured server.listen_addr)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the static hash encoder instead of Ollama")
	cmd.Flags().BoolVar(&watch, "watch", false, "Watch the vault and reindex incrementally on change (default: the configured server.watch)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Log only to the rotating log file, not the console (useful when backgrounding serve)")
	return cmd
}

func runServeWithConfig(ctx context.Context, cmd *cobra.Command, cfg *config.Config, vaultRoot string) error {
	out := output.New(cmd.OutOrStdout())

	svc, err := service.New(cfg, vaultRoot, storeDir(vaultRoot), &search.NoOpReranker{})
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	defer func() { _ = svc.Close() }()
	if err := svc.Open(ctx); err != nil {
		return fmt.Errorf("open index: %w", err)
	}

	server := httpapi.NewServer(svc, nil)
	out.Successf("Serving the query API for %s on %s", vaultRoot, cfg.Server.ListenAddr)

	if cfg.Server.Watch {
		out.Status("→", "Watching the vault for changes")
		go func() {
			if err := svc.Watch(ctx, nil); err != nil {
				out.Warningf("watcher stopped: %s", err)
			}
		}()
	}

	httpServer := &http.Server{Addr: cfg.Server.ListenAddr, Handler: server.Handler()}
	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
