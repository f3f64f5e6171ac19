package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isaacgw/parkrun-sync/internal/metrics"
)

// newRunCmd creates the 'run' subcommand: a single sync pass, suited to
// cron-style invocation.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Performs one sync pass over all registered accounts",
		Long: `Runs the full pipeline once: sweeps stale cached pages, then for
each registered account checks the run window and completion ledger,
scrapes the runner's profile and results, and updates the matching
Strava activity.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			metrics.ObserveSyncRun("cli")
			if err := appInstance.Runner.Run(cmd.Context()); err != nil {
				return fmt.Errorf("sync pass failed: %w", err)
			}

			appInstance.Logger.Info("Sync pass finished.")
			return nil
		},
	}
}
