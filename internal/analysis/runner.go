// Package analysis runs one batch pass over the configured library: scan
// the roots or reload the latest inventory snapshot, then duplicate
// grouping and misplacement detection as selected by the run options. A
// cancelled run keeps whatever finished and reports it as partial.
package analysis

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"shelfward/internal/classification"
	"shelfward/internal/config"
	"shelfward/internal/destination"
	"shelfward/internal/duplicates"
	"shelfward/internal/inventory"
	"shelfward/internal/logging"
	"shelfward/internal/lookup/tmdb"
	"shelfward/internal/media"
	"shelfward/internal/misplacement"
	"shelfward/internal/scanner"
	"shelfward/internal/services"
	"shelfward/internal/services/llm"
)

// scanRetention bounds how many historical scans the store keeps after a
// fresh walk is persisted.
const scanRetention = 10

// FileScanner produces the records a run analyzes.
type FileScanner interface {
	Scan(ctx context.Context) ([]media.Record, error)
}

// Collaborators overrides the engine dependencies a Runner builds from
// configuration. Nil fields get the config-built default, or stay nil when
// the config leaves that tier off.
type Collaborators struct {
	Scanner   FileScanner
	AI        classification.AIClient
	Lookup    classification.LookupClient
	Cache     classification.Cache
	Suggester misplacement.PathSuggester
}

// Options selects the work one run performs. The zero value scans (or
// reloads the stored scan) and runs no analyses.
type Options struct {
	Duplicates   bool
	Misplacement bool
	// Rescan walks the filesystem even when a stored scan exists.
	Rescan bool
	// NoAI and NoLookup disable a tier for this run only, leaving the
	// configuration untouched.
	NoAI     bool
	NoLookup bool
}

// Result carries everything one run produced. Classifications is positional
// over Records; entries stay nil when a cancelled run never resolved them.
type Result struct {
	RunID           string
	ScanID          string
	Records         []media.Record
	Classifications []*classification.Result
	Groups          []duplicates.Group
	Findings        []misplacement.Finding
	TierCounts      map[classification.Source]int
	Elapsed         time.Duration
	Partial         bool
}

// Runner wires the scanner, store, and analysis engines for batch runs.
// The store may be nil: every run then walks the filesystem and nothing is
// persisted or cached.
type Runner struct {
	cfg      *config.Config
	store    *inventory.Store
	scanner  FileScanner
	ai       classification.AIClient
	lookup   classification.LookupClient
	cache    classification.Cache
	grouper  *duplicates.Grouper
	detector *misplacement.Detector

	logger *slog.Logger
	// tierLogger stays unscoped; the per-run classifier applies its own
	// component field.
	tierLogger *slog.Logger
}

// NewRunner builds a runner whose collaborators all come from the
// configuration.
func NewRunner(cfg *config.Config, store *inventory.Store, logger *slog.Logger) (*Runner, error) {
	return NewRunnerWith(cfg, store, logger, Collaborators{})
}

// NewRunnerWith builds a runner, substituting any non-nil collaborator for
// its config-built default.
func NewRunnerWith(cfg *config.Config, store *inventory.Store, logger *slog.Logger, collab Collaborators) (*Runner, error) {
	grouper, err := duplicates.NewGrouper(cfg, logger)
	if err != nil {
		return nil, err
	}

	fileScanner := collab.Scanner
	if fileScanner == nil {
		fileScanner = scanner.NewScanner(cfg, logger)
	}

	ai := collab.AI
	if ai == nil && cfg.Classification.AIEnabled && strings.TrimSpace(cfg.LLM.APIKey) != "" {
		ai = llm.NewClientFromConfig(cfg)
	}

	lookupClient := collab.Lookup
	if lookupClient == nil && cfg.Classification.LookupEnabled && strings.TrimSpace(cfg.TMDB.APIKey) != "" {
		client, err := tmdb.NewFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		lookupClient = client
	}

	cache := collab.Cache
	if cache == nil && store != nil {
		cache = inventory.NewCache(store, logger)
	}

	suggester := collab.Suggester
	if suggester == nil {
		scorer, err := destination.NewScorer(cfg, logger)
		if err != nil {
			return nil, err
		}
		suggester = scorer
	}

	return &Runner{
		cfg:        cfg,
		store:      store,
		scanner:    fileScanner,
		ai:         ai,
		lookup:     lookupClient,
		cache:      cache,
		grouper:    grouper,
		detector:   misplacement.NewDetector(cfg, suggester, logger),
		logger:     logging.NewComponentLogger(logger, "analysis"),
		tierLogger: logger,
	}, nil
}

// Run executes one batch analysis. On cancellation the returned Result is
// still populated with everything that finished, Partial is set, and the
// context error comes back alongside it.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	result := &Result{
		RunID:      runID,
		TierCounts: make(map[classification.Source]int),
	}

	records, scanID, err := r.loadRecords(ctx, opts, logger)
	result.Records = records
	result.ScanID = scanID
	if err != nil {
		result.Partial = true
		result.Elapsed = time.Since(started)
		return result, err
	}

	if opts.Duplicates {
		result.Groups = r.grouper.Group(ctx, records)
	}

	if opts.Misplacement {
		classifier := r.buildClassifier(opts)
		classifications, classifyErr := classifier.ClassifyAll(ctx, records)
		result.Classifications = classifications
		for _, verdict := range classifications {
			if verdict != nil {
				result.TierCounts[verdict.Source]++
			}
		}
		result.Findings = r.detector.DetectAll(ctx, records, classifications)
		if classifyErr != nil {
			result.Partial = true
			result.Elapsed = time.Since(started)
			logger.Warn("analysis interrupted, keeping partial results",
				logging.Int("records", len(result.Records)),
				logging.Int("findings", len(result.Findings)))
			return result, classifyErr
		}
	}

	result.Elapsed = time.Since(started)
	logger.Info("analysis run complete",
		logging.Int("records", len(result.Records)),
		logging.Int("groups", len(result.Groups)),
		logging.Int("findings", len(result.Findings)),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

// loadRecords returns the records to analyze, from the stored snapshot when
// one exists and a rescan was not requested, otherwise from a fresh walk.
// A fresh walk is persisted before returning; persistence failure degrades
// to an unpersisted run rather than aborting.
func (r *Runner) loadRecords(ctx context.Context, opts Options, logger *slog.Logger) ([]media.Record, string, error) {
	if !opts.Rescan && r.store != nil {
		scan, records, err := r.store.LatestScan(ctx)
		if err != nil {
			return nil, "", err
		}
		if scan != nil {
			logger.Info("reusing stored scan",
				logging.String("scan_id", scan.ID),
				logging.Int("records", len(records)))
			return records, scan.ID, nil
		}
	}

	startedAt := time.Now().UTC()
	records, err := r.scanner.Scan(ctx)
	if err != nil {
		return records, "", err
	}
	if r.store == nil {
		return records, "", nil
	}

	scan, err := r.store.SaveScan(ctx, rootDirs(r.cfg), startedAt, records)
	if err != nil {
		logger.Warn("scan persistence failed, continuing unpersisted",
			logging.Error(err))
		return records, "", nil
	}
	if pruned, err := r.store.PruneScans(ctx, scanRetention); err != nil {
		logger.Warn("scan pruning failed", logging.Error(err))
	} else if pruned > 0 {
		logger.Debug("pruned old scans", logging.Int64("removed", pruned))
	}
	return records, scan.ID, nil
}

// buildClassifier assembles the tier cascade for one run, honoring the
// per-run tier overrides.
func (r *Runner) buildClassifier(opts Options) *classification.Classifier {
	ai := r.ai
	if opts.NoAI {
		ai = nil
	}
	lookupClient := r.lookup
	if opts.NoLookup {
		lookupClient = nil
	}
	return classification.NewClassifier(r.cfg, r.tierLogger, ai, lookupClient, r.cache)
}

func rootDirs(cfg *config.Config) []string {
	roots := cfg.LibraryRoots()
	dirs := make([]string, 0, len(roots))
	for _, root := range roots {
		dirs = append(dirs, root.Dir)
	}
	return dirs
}
