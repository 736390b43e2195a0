package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfward/internal/analysis"
	"shelfward/internal/inventory"
	"shelfward/internal/logging"
	"shelfward/internal/notifications"
	"shelfward/internal/reports"
	"shelfward/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Walk the library roots and refresh the media inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *inventory.Store) error {
				progress := newScanProgress(cmd.ErrOrStderr())
				walker := scanner.NewScanner(cfg, logger, scanner.WithProgress(progress.Update))

				runner, err := analysis.NewRunnerWith(cfg, store, logger, analysis.Collaborators{Scanner: walker})
				if err != nil {
					return err
				}

				result, runErr := runner.Run(cmd.Context(), analysis.Options{Rescan: true})
				progress.Finish()
				if runErr != nil {
					return runErr
				}

				var totalBytes int64
				for _, record := range result.Records {
					totalBytes += record.SizeBytes
				}

				if len(result.Records) > 0 {
					notifier := notifications.NewService(cfg)
					if err := notifier.NotifyScanCompleted(cmd.Context(), len(result.Records), totalBytes); err != nil {
						logger.Warn("scan notification failed", logging.Error(err))
					}
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, struct {
						ScanID     string `json:"scan_id"`
						FileCount  int    `json:"file_count"`
						TotalBytes int64  `json:"total_bytes"`
					}{result.ScanID, len(result.Records), totalBytes})
				}

				out := cmd.OutOrStdout()
				if len(result.Records) == 0 {
					fmt.Fprintln(out, "No video files found under the configured library roots")
					return nil
				}
				fmt.Fprint(out, reports.RenderScanSummary(result.Records))
				fmt.Fprintf(out, "Scan %s recorded %d files\n", result.ScanID, len(result.Records))
				return nil
			})
		},
	}
}
