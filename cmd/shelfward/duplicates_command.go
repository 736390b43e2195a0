package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"shelfward/internal/analysis"
	"shelfward/internal/inventory"
	"shelfward/internal/reports"
)

func newDuplicatesCommand(ctx *commandContext) *cobra.Command {
	var rescan bool
	var writeReport bool

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Group duplicate library files and show reclaimable space",
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
				runner, err := analysis.NewRunner(cfg, store, logger)
				if err != nil {
					return err
				}
				result, runErr := runner.Run(cmd.Context(), analysis.Options{
					Duplicates: true,
					Rescan:     rescan,
				})
				if runErr != nil {
					return runErr
				}

				now := time.Now()
				report := reports.BuildDuplicateReport(result, now)

				var reportPath string
				if writeReport {
					reportPath, err = reports.Write(cfg.Paths.ReportDir, "duplicates", report, now)
					if err != nil {
						return err
					}
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}

				out := cmd.OutOrStdout()
				if report.GroupCount == 0 {
					fmt.Fprintln(out, "No duplicates found")
				} else {
					fmt.Fprint(out, reports.RenderDuplicateTable(report))
					fmt.Fprintf(out, "%d duplicate groups, %s reclaimable\n",
						report.GroupCount, humanize.IBytes(uint64(report.ReclaimableBytes)))
				}
				if reportPath != "" {
					fmt.Fprintf(out, "Report written to %s\n", reportPath)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&rescan, "rescan", false, "Walk the library again instead of reusing the stored scan")
	cmd.Flags().BoolVar(&writeReport, "report", false, "Write a JSON report to the report directory")
	return cmd
}
