// Package reports builds and renders the result surfaces of an analysis
// run: duplicate groups, misplacement findings, and scan summaries, as
// console tables and as timestamped JSON files under the report directory.
package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shelfward/internal/analysis"
	"shelfward/internal/duplicates"
	"shelfward/internal/misplacement"
)

// fileTimestamp names report files down to the second so a directory
// listing sorts them chronologically.
const fileTimestamp = "20060102_150405"

// DuplicateReport is the JSON surface of one duplicate analysis.
type DuplicateReport struct {
	GeneratedAt      time.Time        `json:"generated_at"`
	RunID            string           `json:"run_id,omitempty"`
	ScanID           string           `json:"scan_id,omitempty"`
	GroupCount       int              `json:"group_count"`
	ReclaimableBytes int64            `json:"reclaimable_bytes"`
	Groups           []DuplicateGroup `json:"groups"`
	Partial          bool             `json:"partial,omitempty"`
}

// DuplicateGroup flattens one group for serialization.
type DuplicateGroup struct {
	Key              string            `json:"key"`
	Keeper           string            `json:"keeper"`
	ReclaimableBytes int64             `json:"reclaimable_bytes"`
	Members          []DuplicateMember `json:"members"`
}

// DuplicateMember is one file inside a duplicate group.
type DuplicateMember struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Quality   string `json:"quality,omitempty"`
	Keeper    bool   `json:"keeper,omitempty"`
}

// MisplacementReport is the JSON surface of one misplacement analysis.
type MisplacementReport struct {
	GeneratedAt time.Time              `json:"generated_at"`
	RunID       string                 `json:"run_id,omitempty"`
	ScanID      string                 `json:"scan_id,omitempty"`
	TierCounts  map[string]int         `json:"tier_counts,omitempty"`
	Findings    []misplacement.Finding `json:"findings"`
	Partial     bool                   `json:"partial,omitempty"`
}

// BuildDuplicateReport projects a run's duplicate groups into the report
// model.
func BuildDuplicateReport(result *analysis.Result, now time.Time) DuplicateReport {
	report := DuplicateReport{
		GeneratedAt:      now.UTC(),
		RunID:            result.RunID,
		ScanID:           result.ScanID,
		GroupCount:       len(result.Groups),
		ReclaimableBytes: duplicates.TotalReclaimable(result.Groups),
		Groups:           make([]DuplicateGroup, 0, len(result.Groups)),
		Partial:          result.Partial,
	}
	for _, group := range result.Groups {
		entry := DuplicateGroup{
			Key:              group.Key,
			Keeper:           group.Keeper.Path,
			ReclaimableBytes: group.ReclaimableBytes,
			Members:          make([]DuplicateMember, 0, len(group.Members)),
		}
		for _, member := range group.Members {
			entry.Members = append(entry.Members, DuplicateMember{
				Path:      member.Path,
				SizeBytes: member.SizeBytes,
				Quality:   member.QualityLabel(),
				Keeper:    member.Path == group.Keeper.Path,
			})
		}
		report.Groups = append(report.Groups, entry)
	}
	return report
}

// BuildMisplacementReport projects a run's findings into the report model.
func BuildMisplacementReport(result *analysis.Result, now time.Time) MisplacementReport {
	report := MisplacementReport{
		GeneratedAt: now.UTC(),
		RunID:       result.RunID,
		ScanID:      result.ScanID,
		Findings:    result.Findings,
		Partial:     result.Partial,
	}
	if report.Findings == nil {
		report.Findings = []misplacement.Finding{}
	}
	if len(result.TierCounts) > 0 {
		report.TierCounts = make(map[string]int, len(result.TierCounts))
		for source, count := range result.TierCounts {
			report.TierCounts[string(source)] = count
		}
	}
	return report
}

// Write serializes payload as indented JSON under dir with a timestamped
// name like duplicates_20060102_150405.json and returns the full path.
func Write(dir, prefix string, payload any, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", prefix, now.Format(fileTimestamp)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
