package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelfward/internal/classification"
	"shelfward/internal/destination"
	"shelfward/internal/lookup/tmdb"
	"shelfward/internal/media"
	"shelfward/internal/reports"
	"shelfward/internal/scanner"
	"shelfward/internal/services/llm"
)

type classifyVerdict struct {
	Name        string                  `json:"name"`
	ParsedTitle string                  `json:"parsed_title"`
	ParsedYear  int                     `json:"parsed_year,omitempty"`
	Episode     string                  `json:"episode,omitempty"`
	Result      classification.Result   `json:"result"`
	Candidates  []destination.Candidate `json:"candidates,omitempty"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var noAI bool
	var noLookup bool
	var showCandidates bool

	cmd := &cobra.Command{
		Use:   "classify <filename>...",
		Short: "Classify filenames through the tier chain and explain the verdict",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var ai classification.AIClient
			if !noAI && cfg.Classification.AIEnabled && strings.TrimSpace(cfg.LLM.APIKey) != "" {
				ai = llm.NewClientFromConfig(cfg)
			}
			var lookupClient classification.LookupClient
			if !noLookup && cfg.Classification.LookupEnabled && strings.TrimSpace(cfg.TMDB.APIKey) != "" {
				client, err := tmdb.NewFromConfig(cfg)
				if err != nil {
					return err
				}
				lookupClient = client
			}

			// Ad hoc names stay out of the persistent cache; the nil cache
			// keeps every invocation a fresh run through the tiers.
			classifier := classification.NewClassifier(cfg, logger, ai, lookupClient, nil)

			var scorer *destination.Scorer
			if showCandidates {
				scorer, err = destination.NewScorer(cfg, logger)
				if err != nil {
					return err
				}
			}

			verdicts := make([]classifyVerdict, 0, len(args))
			for _, name := range args {
				record := scanner.BuildRecord(name, 0, "")
				result := classifier.Classify(cmd.Context(), record)

				verdict := classifyVerdict{
					Name:        name,
					ParsedTitle: record.ParsedTitle,
					ParsedYear:  record.ParsedYear,
					Episode:     episodeLabel(record),
					Result:      result,
				}
				if scorer != nil {
					dirs := scorer.CandidateDirs(result.Category)
					verdict.Candidates = scorer.ScoreCandidates(cmd.Context(), record, result.Category, dirs)
				}
				verdicts = append(verdicts, verdict)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, verdicts)
			}
			printVerdicts(cmd, verdicts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noAI, "no-ai", false, "Skip the AI classification tier")
	cmd.Flags().BoolVar(&noLookup, "no-lookup", false, "Skip the external lookup tier")
	cmd.Flags().BoolVar(&showCandidates, "candidates", false, "Score destination directories for each verdict")
	return cmd
}

func episodeLabel(record media.Record) string {
	if !record.HasEpisode() {
		return ""
	}
	label := fmt.Sprintf("S%02dE%02d", record.ParsedSeason, record.ParsedEpisode)
	if record.EpisodeEnd > record.ParsedEpisode {
		label = fmt.Sprintf("%s-E%02d", label, record.EpisodeEnd)
	}
	return label
}

func printVerdicts(cmd *cobra.Command, verdicts []classifyVerdict) {
	out := cmd.OutOrStdout()
	for i, verdict := range verdicts {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, verdict.Name)

		parsed := fmt.Sprintf("  parsed:     %s", valueOrDash(verdict.ParsedTitle))
		if verdict.ParsedYear > 0 {
			parsed = fmt.Sprintf("%s (%d)", parsed, verdict.ParsedYear)
		}
		if verdict.Episode != "" {
			parsed = fmt.Sprintf("%s %s", parsed, verdict.Episode)
		}
		fmt.Fprintln(out, parsed)

		fmt.Fprintf(out, "  category:   %s (%.2f via %s)\n",
			verdict.Result.Category, verdict.Result.Confidence, verdict.Result.Source)
		if verdict.Result.Reasoning != "" {
			fmt.Fprintf(out, "  reasoning:  %s\n", verdict.Result.Reasoning)
		}
		if len(verdict.Candidates) > 0 {
			fmt.Fprint(out, reports.RenderCandidateTable(verdict.Candidates))
		}
	}
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
