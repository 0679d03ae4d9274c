// File: cmd/sweep.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SC5KSystems/Auto-Form-Recovery/internal/kvstore"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/observability"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/recovery"
)

// newSweepCmd creates the `sweep` command: a one-shot eviction pass over
// the snapshot store, useful from cron when no watch session is running.
func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Deletes expired form snapshots from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			store, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			// Retention follows the stored settings so a sweep agrees with
			// the watch sessions writing to the same store.
			settings := recovery.LoadSettings(ctx, store, logger)
			sweeper := kvstore.NewSweeper(store, settings, cfg.Sweep.Interval,
				cfg.Sweep.DeleteRate, logger)

			removed, err := sweeper.SweepOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired snapshot(s)\n", removed)
			return nil
		},
	}
}
