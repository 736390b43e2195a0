// Package mover applies misplacement findings to the filesystem. Runs are
// dry by default: every finding is validated and reported, and nothing on
// disk changes until the caller asks for execution.
package mover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"log/slog"

	"shelfward/internal/config"
	"shelfward/internal/destination"
	"shelfward/internal/fileutil"
	"shelfward/internal/logging"
	"shelfward/internal/misplacement"
)

// Status classifies the result of one move attempt.
type Status string

const (
	// StatusPlanned marks a dry-run move that passed every check.
	StatusPlanned Status = "planned"
	// StatusMoved marks an executed move.
	StatusMoved Status = "moved"
	// StatusSkipped marks a finding without a suggested destination.
	StatusSkipped Status = "skipped"
	// StatusFailed marks a move that could not proceed or did not survive.
	StatusFailed Status = "failed"
)

// Outcome records what happened to one finding.
type Outcome struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Status      Status `json:"status"`
	Reason      string `json:"reason,omitempty"`
}

// SpaceProber reports available bytes on the filesystem holding a path.
type SpaceProber interface {
	FreeBytes(path string) (uint64, error)
}

// Mover validates and executes the moves suggested by misplacement findings.
type Mover struct {
	cfg    *config.Config
	prober SpaceProber
	logger *slog.Logger
}

// New constructs a mover that probes real filesystem free space.
func New(cfg *config.Config, logger *slog.Logger) *Mover {
	return NewWithProber(cfg, destination.StatfsProber(), logger)
}

// NewWithProber constructs a mover with an explicit space prober.
func NewWithProber(cfg *config.Config, prober SpaceProber, logger *slog.Logger) *Mover {
	return &Mover{
		cfg:    cfg,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "mover"),
	}
}

// Apply processes findings in order and returns one outcome per finding
// processed. With execute false the filesystem stays untouched and passing
// findings come back as planned. A failed move never stops the batch;
// cancellation does, returning the outcomes produced so far.
func (m *Mover) Apply(ctx context.Context, findings []misplacement.Finding, execute bool) []Outcome {
	logger := logging.WithContext(ctx, m.logger)
	outcomes := make([]Outcome, 0, len(findings))
	for _, finding := range findings {
		if ctx.Err() != nil {
			logger.Warn("move batch interrupted",
				logging.Int("processed", len(outcomes)),
				logging.Int("findings", len(findings)))
			break
		}
		outcome := m.apply(finding, execute)
		switch outcome.Status {
		case StatusMoved:
			logger.Info("file moved",
				logging.String(logging.FieldPath, outcome.Source),
				logging.String("destination", outcome.Destination))
		case StatusPlanned:
			logger.Info("move planned",
				logging.String(logging.FieldPath, outcome.Source),
				logging.String("destination", outcome.Destination))
		case StatusSkipped:
			logger.Debug("finding skipped",
				logging.String(logging.FieldPath, outcome.Source),
				logging.String("reason", outcome.Reason))
		case StatusFailed:
			logger.Warn("move failed",
				logging.String(logging.FieldPath, outcome.Source),
				logging.String("reason", outcome.Reason))
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (m *Mover) apply(finding misplacement.Finding, execute bool) Outcome {
	outcome := Outcome{Source: finding.Path}

	if finding.SuggestedPath == "" {
		outcome.Status = StatusSkipped
		outcome.Reason = "no destination suggested"
		return outcome
	}

	info, err := os.Stat(finding.Path)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = fmt.Sprintf("stat source: %v", err)
		return outcome
	}

	// Free space can have drifted since the destination was scored, so the
	// check runs again here, for dry runs too.
	free, err := m.prober.FreeBytes(finding.SuggestedPath)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = fmt.Sprintf("probe destination: %v", err)
		return outcome
	}
	needed := uint64(info.Size()) + uint64(m.cfg.FreeSpaceBufferBytes())
	if free < needed {
		outcome.Status = StatusFailed
		outcome.Reason = fmt.Sprintf("insufficient space: %d bytes free, %d needed", free, needed)
		return outcome
	}

	target, err := fileutil.UniquePath(filepath.Join(finding.SuggestedPath, filepath.Base(finding.Path)))
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = fmt.Sprintf("allocate destination name: %v", err)
		return outcome
	}
	outcome.Destination = target

	if !execute {
		outcome.Status = StatusPlanned
		return outcome
	}

	if err := fileutil.MoveFile(finding.Path, target); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		return outcome
	}
	outcome.Status = StatusMoved
	return outcome
}

// Summarize counts outcomes by status.
func Summarize(outcomes []Outcome) map[Status]int {
	counts := make(map[Status]int, 4)
	for _, outcome := range outcomes {
		counts[outcome.Status]++
	}
	return counts
}
