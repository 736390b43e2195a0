package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"shelfward/internal/analysis"
	"shelfward/internal/inventory"
	"shelfward/internal/logging"
	"shelfward/internal/mover"
	"shelfward/internal/notifications"
	"shelfward/internal/reports"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var rescan bool
	var skipDuplicates bool
	var skipMisplaced bool
	var noAI bool
	var noLookup bool
	var execute bool
	var limit int
	var writeReport bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run duplicate grouping and misplacement detection in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			if skipDuplicates && skipMisplaced {
				return fmt.Errorf("nothing to do: both analyses skipped")
			}
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
					Duplicates:   !skipDuplicates,
					Misplacement: !skipMisplaced,
					Rescan:       rescan,
					NoAI:         noAI,
					NoLookup:     noLookup,
				})
				if runErr != nil {
					return runErr
				}

				now := time.Now()
				dupReport := reports.BuildDuplicateReport(result, now)
				misReport := reports.BuildMisplacementReport(result, now)

				var reportPaths []string
				if writeReport {
					if !skipDuplicates {
						path, err := reports.Write(cfg.Paths.ReportDir, "duplicates", dupReport, now)
						if err != nil {
							return err
						}
						reportPaths = append(reportPaths, path)
					}
					if !skipMisplaced {
						path, err := reports.Write(cfg.Paths.ReportDir, "misplaced", misReport, now)
						if err != nil {
							return err
						}
						reportPaths = append(reportPaths, path)
					}
				}

				notifier := notifications.NewService(cfg)
				if err := notifier.NotifyAnalysisCompleted(cmd.Context(),
					dupReport.GroupCount, len(result.Findings), dupReport.ReclaimableBytes, result.Elapsed); err != nil {
					logger.Warn("analysis notification failed", logging.Error(err))
				}

				if ctx.jsonOutput() {
					outcomes := runMoves(cmd, cfg, logger, result.Findings, execute)
					payload := struct {
						RunID         string                      `json:"run_id"`
						ScanID        string                      `json:"scan_id,omitempty"`
						Duplicates    *reports.DuplicateReport    `json:"duplicates,omitempty"`
						Misplacements *reports.MisplacementReport `json:"misplacements,omitempty"`
						Outcomes      []mover.Outcome             `json:"outcomes,omitempty"`
						ElapsedMS     int64                       `json:"elapsed_ms"`
					}{
						RunID:     result.RunID,
						ScanID:    result.ScanID,
						Outcomes:  outcomes,
						ElapsedMS: result.Elapsed.Milliseconds(),
					}
					if !skipDuplicates {
						payload.Duplicates = &dupReport
					}
					if !skipMisplaced {
						payload.Misplacements = &misReport
					}
					return writeJSON(cmd, payload)
				}

				out := cmd.OutOrStdout()
				fmt.Fprint(out, reports.RenderScanSummary(result.Records))

				if !skipDuplicates {
					if dupReport.GroupCount == 0 {
						fmt.Fprintln(out, "No duplicates found")
					} else {
						fmt.Fprint(out, reports.RenderDuplicateTable(dupReport))
						fmt.Fprintf(out, "%d duplicate groups, %s reclaimable\n",
							dupReport.GroupCount, humanize.IBytes(uint64(dupReport.ReclaimableBytes)))
					}
				}

				if !skipMisplaced {
					if len(result.Findings) == 0 {
						fmt.Fprintln(out, "No misplaced files found")
					} else {
						fmt.Fprint(out, reports.RenderMisplacementTable(misReport, limit))
						outcomes := runMoves(cmd, cfg, logger, result.Findings, execute)
						printMoveSummary(cmd, outcomes, execute)
					}
				}

				fmt.Fprintf(out, "Analysis finished in %s\n", result.Elapsed.Round(time.Millisecond))
				for _, path := range reportPaths {
					fmt.Fprintf(out, "Report written to %s\n", path)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&rescan, "rescan", false, "Walk the library again instead of reusing the stored scan")
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", false, "Skip duplicate grouping")
	cmd.Flags().BoolVar(&skipMisplaced, "skip-misplaced", false, "Skip misplacement detection")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "Skip the AI classification tier for this run")
	cmd.Flags().BoolVar(&noLookup, "no-lookup", false, "Skip the external lookup tier for this run")
	cmd.Flags().BoolVar(&execute, "execute", false, "Move misplaced files to their suggested destinations")
	cmd.Flags().IntVar(&limit, "limit", 0, "Limit the number of findings shown (0 shows all)")
	cmd.Flags().BoolVar(&writeReport, "report", false, "Write JSON reports to the report directory")
	return cmd
}
