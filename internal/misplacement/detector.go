// Package misplacement flags files whose classified category disagrees
// with the library root they live under. Detection is orthogonal to
// duplicate grouping: it sees one record and one classification at a time
// and never consults group state.
package misplacement

import (
	"context"
	"fmt"
	"sort"

	"log/slog"

	"shelfward/internal/classification"
	"shelfward/internal/config"
	"shelfward/internal/logging"
	"shelfward/internal/media"
)

// Finding records one misfiled file. SuggestedPath is the destination
// directory chosen by the path suggester; empty means no candidate cleared
// the free-space floor and the file needs manual placement.
type Finding struct {
	Record            media.Record          `json:"-"`
	Path              string                `json:"path"`
	CurrentCategory   media.Category        `json:"current_category"`
	SuggestedCategory media.Category        `json:"suggested_category"`
	SuggestedPath     string                `json:"suggested_path,omitempty"`
	Confidence        float64               `json:"confidence"`
	Source            classification.Source `json:"source"`
	Reasoning         string                `json:"reasoning,omitempty"`
}

// Transition renders the category change for sorting and display.
func (f Finding) Transition() string {
	return fmt.Sprintf("%s -> %s", f.CurrentCategory, f.SuggestedCategory)
}

// PathSuggester picks the best destination directory for a record in its
// suggested category. The second return is false when no directory can
// safely hold the file.
type PathSuggester interface {
	Suggest(ctx context.Context, record media.Record, category media.Category) (string, bool)
}

// Detector compares classifications against current locations.
type Detector struct {
	cfg       *config.Config
	suggester PathSuggester
	logger    *slog.Logger
}

// NewDetector constructs a detector. A nil suggester is allowed; findings
// then carry no suggested path.
func NewDetector(cfg *config.Config, suggester PathSuggester, logger *slog.Logger) *Detector {
	detectorLogger := logger
	if detectorLogger != nil {
		detectorLogger = detectorLogger.With(logging.String("component", "misplacement"))
	}
	return &Detector{cfg: cfg, suggester: suggester, logger: detectorLogger}
}

// Detect returns a finding iff the classified category differs from the
// record's current category and the confidence clears the configured
// floor. Anything else returns nil.
func (d *Detector) Detect(ctx context.Context, record media.Record, result classification.Result) *Finding {
	if result.Category == record.CurrentCategory {
		return nil
	}
	logger := logging.WithContext(ctx, d.logger)
	if result.Confidence < d.cfg.Classification.MinConfidence {
		logger.Debug("category mismatch below confidence floor",
			logging.String(logging.FieldPath, record.Path),
			logging.String(logging.FieldCategory, string(result.Category)),
			logging.Float64(logging.FieldConfidence, result.Confidence))
		return nil
	}

	finding := &Finding{
		Record:            record,
		Path:              record.Path,
		CurrentCategory:   record.CurrentCategory,
		SuggestedCategory: result.Category,
		Confidence:        result.Confidence,
		Source:            result.Source,
		Reasoning:         result.Reasoning,
	}
	if d.suggester != nil {
		if path, ok := d.suggester.Suggest(ctx, record, result.Category); ok {
			finding.SuggestedPath = path
		} else {
			logger.Debug("no safe destination for finding",
				logging.String(logging.FieldPath, record.Path),
				logging.String(logging.FieldCategory, string(result.Category)))
		}
	}
	logger.Info("misplaced file detected",
		logging.String(logging.FieldPath, record.Path),
		logging.String("transition", finding.Transition()),
		logging.Float64(logging.FieldConfidence, finding.Confidence))
	return finding
}

// DetectAll runs Detect over parallel record and result slices, skipping
// entries whose classification is missing (an interrupted run leaves nil
// results). Findings come back ordered by confidence descending, then
// path, so reports are stable across runs.
func (d *Detector) DetectAll(ctx context.Context, records []media.Record, results []*classification.Result) []Finding {
	findings := make([]Finding, 0)
	for i, record := range records {
		if i >= len(results) || results[i] == nil {
			continue
		}
		if finding := d.Detect(ctx, record, *results[i]); finding != nil {
			findings = append(findings, *finding)
		}
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Confidence != findings[j].Confidence {
			return findings[i].Confidence > findings[j].Confidence
		}
		return findings[i].Path < findings[j].Path
	})
	return findings
}
