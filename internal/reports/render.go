package reports

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"shelfward/internal/destination"
	"shelfward/internal/media"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	// Render omits the final newline; callers print summary lines after
	// the table, so it is restored here.
	return tw.Render() + "\n"
}

// RenderDuplicateTable renders one row per duplicate group, largest
// reclaimable savings first (the report is already ordered that way).
func RenderDuplicateTable(report DuplicateReport) string {
	rows := make([][]string, 0, len(report.Groups))
	for _, group := range report.Groups {
		rows = append(rows, []string{
			group.Key,
			fmt.Sprintf("%d", len(group.Members)),
			filepath.Base(group.Keeper),
			humanize.IBytes(uint64(group.ReclaimableBytes)),
		})
	}
	return renderTable(
		[]string{"Group", "Files", "Keeper", "Reclaimable"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight},
	)
}

// RenderMisplacementTable renders findings up to limit rows. A limit of
// zero or less renders everything. Findings without a safe destination
// show "(manual)" in the destination column.
func RenderMisplacementTable(report MisplacementReport, limit int) string {
	findings := report.Findings
	if limit > 0 && len(findings) > limit {
		findings = findings[:limit]
	}
	rows := make([][]string, 0, len(findings))
	for _, finding := range findings {
		suggested := finding.SuggestedPath
		if suggested == "" {
			suggested = "(manual)"
		}
		rows = append(rows, []string{
			finding.Path,
			finding.Transition(),
			fmt.Sprintf("%.2f", finding.Confidence),
			string(finding.Source),
			suggested,
		})
	}
	return renderTable(
		[]string{"File", "Transition", "Confidence", "Source", "Destination"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

// RenderScanSummary renders per-category file counts and sizes with a
// trailing total row. Categories absent from the records are omitted.
func RenderScanSummary(records []media.Record) string {
	type bucket struct {
		files int
		bytes int64
	}
	buckets := make(map[media.Category]*bucket)
	for _, record := range records {
		b := buckets[record.CurrentCategory]
		if b == nil {
			b = &bucket{}
			buckets[record.CurrentCategory] = b
		}
		b.files++
		b.bytes += record.SizeBytes
	}

	rows := make([][]string, 0, len(buckets)+1)
	var totalFiles int
	var totalBytes int64
	for _, category := range media.Categories() {
		b := buckets[category]
		if b == nil {
			continue
		}
		totalFiles += b.files
		totalBytes += b.bytes
		rows = append(rows, []string{
			string(category),
			fmt.Sprintf("%d", b.files),
			humanize.IBytes(uint64(b.bytes)),
		})
	}
	rows = append(rows, []string{
		"total",
		fmt.Sprintf("%d", totalFiles),
		humanize.IBytes(uint64(totalBytes)),
	})
	return renderTable(
		[]string{"Category", "Files", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	)
}

// RenderCandidateTable shows ranked destinations with each factor's
// weighted contribution.
func RenderCandidateTable(candidates []destination.Candidate) string {
	rows := make([][]string, 0, len(candidates))
	for _, candidate := range candidates {
		rows = append(rows, []string{
			candidate.Path,
			fmt.Sprintf("%.3f", candidate.Score),
			breakdownLabel(candidate.Breakdown),
		})
	}
	return renderTable(
		[]string{"Destination", "Score", "Breakdown"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
	)
}

func breakdownLabel(breakdown map[string]float64) string {
	if len(breakdown) == 0 {
		return ""
	}
	keys := make([]string, 0, len(breakdown))
	for key := range breakdown {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%.2f", key, breakdown[key]))
	}
	return strings.Join(parts, " ")
}
