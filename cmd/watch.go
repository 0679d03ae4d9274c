// File: cmd/watch.go
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/browser"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/kvstore"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/observability"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/recovery"
)

// newWatchCmd creates and configures the `watch` command: the live
// autosave loop over a real browser tab.
func newWatchCmd() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch <url>",
		Short: "Opens a browser tab and autosaves form input on the page",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Stop cleanly on SIGINT/SIGTERM; pending debounced saves are
			// dropped, the live page keeps the user's input.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := observability.GetLogger()
			targetURL := args[0]

			store, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			// The config is authoritative for this run; persist it so the
			// sweeper and any shared-store peers see the same settings.
			settings := cfg.Settings()
			if raw, merr := schemas.MarshalSettings(settings); merr == nil {
				if serr := store.Set(ctx, schemas.SettingsKey, raw); serr != nil {
					logger.Debug("Failed to persist settings", zap.Error(serr))
				}
			}

			watcher, err := browser.NewPageWatcher(ctx, targetURL, cfg.Monitor.PollInterval,
				viper.GetBool("headless"), logger)
			if err != nil {
				return err
			}
			defer watcher.Close()

			engine := recovery.NewEngine(store, settings, &recovery.LogNotifier{Log: logger}, logger)
			classifier := recovery.NewClassifier(settings, recovery.ClassifierThresholds{
				MaxInputs:     cfg.Recovery.Classifier.MaxInputs,
				MaxTextInputs: cfg.Recovery.Classifier.MaxTextInputs,
			}, logger)
			monitor := recovery.NewMonitor(watcher, engine, classifier, settings,
				cfg.Monitor.DebounceWindow, logger)
			sweeper := kvstore.NewSweeper(store, settings, cfg.Sweep.Interval,
				cfg.Sweep.DeleteRate, logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return watcher.Run(gctx) })
			g.Go(func() error { return monitor.Run(gctx) })
			g.Go(func() error { return sweeper.Run(gctx) })

			if err := g.Wait(); err != nil {
				return fmt.Errorf("watch failed: %w", err)
			}
			logger.Info("Watch stopped", zap.String("url", targetURL))
			return nil
		},
	}

	watchCmd.Flags().Bool("headless", false, "run the browser without a visible window")
	return watchCmd
}
