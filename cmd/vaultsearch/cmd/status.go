package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultsearch/vaultsearch/internal/preflight"
)

func newStatusCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Run system checks and report index health",
		Long: `Run the same pre-flight system checks used by the smart-default
flow (disk space, memory, write permissions, file descriptors, embedding
model availability) and report whether the vault has an existing index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultFlag, _ := cmd.Flags().GetString("vault")
			vaultRoot, err := resolveVaultRoot(vaultFlag)
			if err != nil {
				return err
			}

			checker := preflight.New(preflight.WithOffline(offline), preflight.WithOutput(cmd.OutOrStdout()), preflight.WithVerbose(true))
			results := checker.RunAll(cmd.Context(), vaultRoot)
			checker.PrintResults(results)

			dataDir := storeDir(vaultRoot)
			if dirExists(dataDir) {
				fmt.Fprintf(cmd.OutOrStdout(), "\nIndex store: %s\n", dataDir)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "\nNo index found at %s. Run 'vaultsearch index' to create one.\n", dataDir)
			}

			if checker.HasCriticalFailures(results) {
				return fmt.Errorf("system check failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Check readiness for the static hash encoder instead of Ollama")
	return cmd
}
