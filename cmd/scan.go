// File: cmd/scan.go
package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/SC5KSystems/Auto-Form-Recovery/internal/dom"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/observability"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/recovery"
)

// newScanCmd creates and configures the `scan` command. It parses a static
// HTML document and reports what the autosave pipeline would do with each
// form: its storage key, whether the login classifier suppresses it, and
// how many of its fields are eligible for persistence.
func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [file|url]",
		Short: "Classifies the forms in an HTML document without saving anything",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			pageURL := viper.GetString("url")

			var reader io.Reader = cmd.InOrStdin()
			switch {
			case len(args) == 1 && (strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://")):
				req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, args[0], nil)
				if err != nil {
					return fmt.Errorf("failed to build request: %w", err)
				}
				resp, err := http.DefaultClient.Do(req)
				if err != nil {
					return fmt.Errorf("failed to fetch document: %w", err)
				}
				defer resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return fmt.Errorf("failed to fetch document: unexpected status %s", resp.Status)
				}
				reader = resp.Body
				if pageURL == "" {
					pageURL = args[0]
				}
			case len(args) == 1 && args[0] != "-":
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open document: %w", err)
				}
				defer f.Close()
				reader = f
			}

			page, err := dom.Parse(reader, pageURL)
			if err != nil {
				return fmt.Errorf("failed to parse document: %w", err)
			}

			settings := cfg.Settings()
			classifier := recovery.NewClassifier(settings, recovery.ClassifierThresholds{
				MaxInputs:     cfg.Recovery.Classifier.MaxInputs,
				MaxTextInputs: cfg.Recovery.Classifier.MaxTextInputs,
			}, logger)

			forms := page.Forms()
			logger.Debug("Parsed document", zap.Int("forms", len(forms)))

			out := cmd.OutOrStdout()
			for _, form := range forms {
				key := recovery.ResolveKey(page, form)
				eligible := len(recovery.SnapshotFields(form))
				if classifier.IsLoginForm(form) {
					fmt.Fprintf(out, "%s\tlogin\tskipped\n", key)
					continue
				}
				fmt.Fprintf(out, "%s\tform\t%d eligible field(s)\n", key, eligible)
			}
			if len(forms) == 0 {
				fmt.Fprintln(out, "no forms found")
			}
			return nil
		},
	}

	scanCmd.Flags().String("url", "", "page URL used to derive form keys")
	return scanCmd
}
