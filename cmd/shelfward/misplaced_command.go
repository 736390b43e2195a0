package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shelfward/internal/analysis"
	"shelfward/internal/inventory"
	"shelfward/internal/mover"
	"shelfward/internal/reports"
)

func newMisplacedCommand(ctx *commandContext) *cobra.Command {
	var rescan bool
	var noAI bool
	var noLookup bool
	var execute bool
	var limit int
	var writeReport bool

	cmd := &cobra.Command{
		Use:   "misplaced",
		Short: "Detect files filed under the wrong library root",
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
					Misplacement: true,
					Rescan:       rescan,
					NoAI:         noAI,
					NoLookup:     noLookup,
				})
				if runErr != nil {
					return runErr
				}

				now := time.Now()
				report := reports.BuildMisplacementReport(result, now)

				var reportPath string
				if writeReport {
					reportPath, err = reports.Write(cfg.Paths.ReportDir, "misplaced", report, now)
					if err != nil {
						return err
					}
				}

				if ctx.jsonOutput() {
					outcomes := runMoves(cmd, cfg, logger, result.Findings, execute)
					return writeJSON(cmd, struct {
						reports.MisplacementReport
						Outcomes []mover.Outcome `json:"outcomes,omitempty"`
					}{report, outcomes})
				}

				out := cmd.OutOrStdout()
				if len(result.Findings) == 0 {
					fmt.Fprintln(out, "No misplaced files found")
				} else {
					fmt.Fprint(out, reports.RenderMisplacementTable(report, limit))
					if limit > 0 && len(result.Findings) > limit {
						fmt.Fprintf(out, "Showing %d of %d findings (raise --limit to see more)\n", limit, len(result.Findings))
					}
					outcomes := runMoves(cmd, cfg, logger, result.Findings, execute)
					printMoveSummary(cmd, outcomes, execute)
				}
				if reportPath != "" {
					fmt.Fprintf(out, "Report written to %s\n", reportPath)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&rescan, "rescan", false, "Walk the library again instead of reusing the stored scan")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "Skip the AI classification tier for this run")
	cmd.Flags().BoolVar(&noLookup, "no-lookup", false, "Skip the external lookup tier for this run")
	cmd.Flags().BoolVar(&execute, "execute", false, "Move files to their suggested destinations")
	cmd.Flags().IntVar(&limit, "limit", 0, "Limit the number of findings shown (0 shows all)")
	cmd.Flags().BoolVar(&writeReport, "report", false, "Write a JSON report to the report directory")
	return cmd
}
