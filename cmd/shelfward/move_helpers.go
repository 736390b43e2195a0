package main

import (
	"fmt"

	"log/slog"

	"github.com/spf13/cobra"

	"shelfward/internal/config"
	"shelfward/internal/logging"
	"shelfward/internal/misplacement"
	"shelfward/internal/mover"
	"shelfward/internal/notifications"
	"shelfward/internal/services/plex"
)

// runMoves plans or executes the move batch for findings and handles the
// post-move side effects (Plex refresh, push notification). Output stays on
// the logger so JSON mode keeps stdout clean.
func runMoves(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, findings []misplacement.Finding, execute bool) []mover.Outcome {
	if len(findings) == 0 {
		return nil
	}
	outcomes := mover.New(cfg, logger).Apply(cmd.Context(), findings, execute)
	if execute {
		finishExecutedMoves(cmd, cfg, logger, mover.Summarize(outcomes))
	}
	return outcomes
}

// printMoveSummary writes per-failure lines and a closing summary to stdout.
func printMoveSummary(cmd *cobra.Command, outcomes []mover.Outcome, execute bool) {
	if len(outcomes) == 0 {
		return
	}
	counts := mover.Summarize(outcomes)
	out := cmd.OutOrStdout()

	for _, outcome := range outcomes {
		if outcome.Status == mover.StatusFailed {
			fmt.Fprintf(out, "  move failed: %s (%s)\n", outcome.Source, outcome.Reason)
		}
	}

	if execute {
		fmt.Fprintf(out, "Moved %d files (%d failed, %d skipped)\n",
			counts[mover.StatusMoved], counts[mover.StatusFailed], counts[mover.StatusSkipped])
	} else {
		fmt.Fprintf(out, "Planned %d moves; run with --execute to apply\n", counts[mover.StatusPlanned])
	}
}

// finishExecutedMoves fires the Plex refresh and push notification that
// follow a real move batch. Both are best effort.
func finishExecutedMoves(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, counts map[mover.Status]int) {
	if counts[mover.StatusMoved] > 0 {
		plexClient := plex.NewFromConfig(cfg)
		if plexClient.Enabled() {
			if err := plexClient.Refresh(cmd.Context()); err != nil {
				logger.Warn("plex refresh failed", logging.Error(err))
			} else {
				logger.Info("plex section refresh triggered")
			}
		}
	}

	notifier := notifications.NewService(cfg)
	if err := notifier.NotifyMovesExecuted(cmd.Context(), counts[mover.StatusMoved], counts[mover.StatusFailed]); err != nil {
		logger.Warn("move notification failed", logging.Error(err))
	}
}
