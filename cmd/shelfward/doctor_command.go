package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"shelfward/internal/config"
	"shelfward/internal/inventory"
	"shelfward/internal/lookup/tmdb"
	"shelfward/internal/services/llm"
	"shelfward/internal/services/plex"
)

const probeTimeout = 10 * time.Second

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "doctor",
		Short:       "Check configuration, state, and connected services",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := isTerminal(cmd.OutOrStdout())
			failures := 0

			cfg, path, _, err := config.Load(ctx.configPathArg())
			if err != nil {
				fmt.Fprintln(stdout, renderStatusLine("Config", statusError, err.Error(), colorize))
				return fmt.Errorf("configuration is unusable; run 'shelfward config init' and edit the result")
			}
			fmt.Fprintln(stdout, renderStatusLine("Config", statusOK, path, colorize))

			roots := cfg.LibraryRoots()
			reachable := 0
			for _, root := range roots {
				info, statErr := os.Stat(root.Dir)
				switch {
				case statErr != nil:
					fmt.Fprintln(stdout, renderStatusLine("Library", statusError, fmt.Sprintf("%s missing", root.Dir), colorize))
				case !info.IsDir():
					fmt.Fprintln(stdout, renderStatusLine("Library", statusError, fmt.Sprintf("%s is not a directory", root.Dir), colorize))
				default:
					reachable++
				}
			}
			if reachable == len(roots) {
				fmt.Fprintln(stdout, renderStatusLine("Library", statusOK, fmt.Sprintf("%d roots reachable", len(roots)), colorize))
			} else {
				failures++
			}

			if err := cfg.EnsureDirectories(); err != nil {
				fmt.Fprintln(stdout, renderStatusLine("State", statusError, err.Error(), colorize))
				failures++
			} else {
				fmt.Fprintln(stdout, renderStatusLine("State", statusOK, cfg.Paths.StateDir, colorize))
			}

			if store, openErr := inventory.Open(cfg); openErr != nil {
				fmt.Fprintln(stdout, renderStatusLine("Inventory", statusError, openErr.Error(), colorize))
				failures++
			} else {
				detail := store.Path()
				if scan, _, scanErr := store.LatestScan(cmd.Context()); scanErr == nil && scan != nil {
					detail = fmt.Sprintf("%s (last scan %s, %d files)", store.Path(), scan.FinishedAt.Format("2006-01-02"), scan.FileCount)
				}
				_ = store.Close()
				fmt.Fprintln(stdout, renderStatusLine("Inventory", statusOK, detail, colorize))
			}

			if cfg.Classification.AIEnabled {
				client := llm.NewClientFromConfig(cfg)
				if probeErr := runProbe(cmd.Context(), client.HealthCheck); probeErr != nil {
					fmt.Fprintln(stdout, renderStatusLine("AI classifier", statusError, probeErr.Error(), colorize))
					failures++
				} else {
					fmt.Fprintln(stdout, renderStatusLine("AI classifier", statusOK, cfg.GetLLM().Model, colorize))
				}
			} else {
				fmt.Fprintln(stdout, renderStatusLine("AI classifier", statusInfo, "Disabled", colorize))
			}

			if cfg.Classification.LookupEnabled {
				client, buildErr := tmdb.NewFromConfig(cfg)
				if buildErr != nil {
					fmt.Fprintln(stdout, renderStatusLine("TMDB lookup", statusError, buildErr.Error(), colorize))
					failures++
				} else if probeErr := runProbe(cmd.Context(), client.HealthCheck); probeErr != nil {
					fmt.Fprintln(stdout, renderStatusLine("TMDB lookup", statusError, probeErr.Error(), colorize))
					failures++
				} else {
					fmt.Fprintln(stdout, renderStatusLine("TMDB lookup", statusOK, "Reachable", colorize))
				}
			} else {
				fmt.Fprintln(stdout, renderStatusLine("TMDB lookup", statusInfo, "Disabled", colorize))
			}

			plexClient := plex.NewFromConfig(cfg)
			if plexClient.Enabled() {
				if probeErr := runProbe(cmd.Context(), plexClient.CheckAuth); probeErr != nil {
					fmt.Fprintln(stdout, renderStatusLine("Plex", statusError, probeErr.Error(), colorize))
					failures++
				} else {
					fmt.Fprintln(stdout, renderStatusLine("Plex", statusOK, cfg.Plex.URL, colorize))
				}
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Plex", statusInfo, "Disabled", colorize))
			}

			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(stdout, renderStatusLine("Notifications", statusInfo, "Disabled (no ntfy topic)", colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Notifications", statusOK, cfg.Notifications.NtfyTopic, colorize))
			}

			if failures > 0 {
				return fmt.Errorf("%d checks failed", failures)
			}
			return nil
		},
	}
}

func runProbe(parent context.Context, probe func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, probeTimeout)
	defer cancel()
	return probe(ctx)
}
