package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"shelfward/internal/inventory"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the classification cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show classification cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *inventory.Store) error {
				stats, err := store.CacheStats(cmd.Context())
				if err != nil {
					return err
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}

				stdout := cmd.OutOrStdout()
				if stats.Entries == 0 {
					fmt.Fprintln(stdout, "Classification cache is empty")
					return nil
				}

				fmt.Fprintf(stdout, "Classification cache: %d entries\n", stats.Entries)
				printCountBreakdown(stdout, "By source", stats.BySource)
				printCountBreakdown(stdout, "By category", stats.ByCategory)
				if !stats.Oldest.IsZero() {
					fmt.Fprintf(stdout, "Oldest entry: %s\n", stats.Oldest.Format("2006-01-02 15:04:05"))
				}
				if !stats.Newest.IsZero() {
					fmt.Fprintf(stdout, "Newest entry: %s\n", stats.Newest.Format("2006-01-02 15:04:05"))
				}
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached classification verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *inventory.Store) error {
				cleared, err := store.ClearClassifications(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int64{"cleared": cleared})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached classifications\n", cleared)
				return nil
			})
		},
	}
}

func printCountBreakdown(w io.Writer, label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "%s:\n", label)
	for _, key := range keys {
		fmt.Fprintf(w, "  %s: %d\n", key, counts[key])
	}
}
