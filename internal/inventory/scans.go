package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"shelfward/internal/media"
)

// Scan summarizes one persisted library walk.
type Scan struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Roots      []string
	FileCount  int
	TotalBytes int64
}

const recordColumns = "path, size_bytes, current_category, raw_name, parsed_title, parsed_year, parsed_season, parsed_episode, episode_end, episode_style, part_marker, quality_tags"

// SaveScan stores a completed scan snapshot and returns its summary. The
// records are written in one transaction so a partial snapshot is never
// visible to readers.
func (s *Store) SaveScan(ctx context.Context, roots []string, startedAt time.Time, records []media.Record) (*Scan, error) {
	ctx = ensureContext(ctx)
	scan := &Scan{
		ID:         uuid.NewString(),
		StartedAt:  startedAt.UTC(),
		FinishedAt: time.Now().UTC(),
		Roots:      append([]string(nil), roots...),
		FileCount:  len(records),
	}
	for _, record := range records {
		scan.TotalBytes += record.SizeBytes
	}

	rootsJSON, err := json.Marshal(scan.Roots)
	if err != nil {
		return nil, fmt.Errorf("marshal scan roots: %w", err)
	}

	err = retryOnBusy(ctx, func() error {
		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("begin scan tx: %w", txErr)
		}
		defer func() { _ = tx.Rollback() }()

		if _, execErr := tx.ExecContext(ctx,
			`INSERT INTO scans (id, started_at, finished_at, roots_json, file_count, total_bytes)
             VALUES (?, ?, ?, ?, ?, ?)`,
			scan.ID,
			scan.StartedAt.Format(time.RFC3339Nano),
			scan.FinishedAt.Format(time.RFC3339Nano),
			string(rootsJSON),
			scan.FileCount,
			scan.TotalBytes,
		); execErr != nil {
			return fmt.Errorf("insert scan: %w", execErr)
		}

		stmt, prepErr := tx.PrepareContext(ctx,
			`INSERT INTO media_files (scan_id, `+recordColumns+`)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if prepErr != nil {
			return fmt.Errorf("prepare file insert: %w", prepErr)
		}
		defer func() { _ = stmt.Close() }()

		for _, record := range records {
			if _, execErr := stmt.ExecContext(ctx,
				scan.ID,
				record.Path,
				record.SizeBytes,
				string(record.CurrentCategory),
				record.RawName,
				record.ParsedTitle,
				record.ParsedYear,
				record.ParsedSeason,
				record.ParsedEpisode,
				record.EpisodeEnd,
				record.EpisodeStyle,
				record.PartMarker,
				record.QualityLabel(),
			); execErr != nil {
				return fmt.Errorf("insert media file %s: %w", record.Path, execErr)
			}
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("commit scan: %w", commitErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scan, nil
}

// LatestScan loads the most recent snapshot together with its records,
// ordered by path. It returns nils without an error when no scan has been
// stored yet.
func (s *Store) LatestScan(ctx context.Context) (*Scan, []media.Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, roots_json, file_count, total_bytes
         FROM scans ORDER BY finished_at DESC, rowid DESC LIMIT 1`)
	scan, err := scanScanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load latest scan: %w", err)
	}

	records, err := s.scanRecords(ctx, scan.ID)
	if err != nil {
		return nil, nil, err
	}
	return scan, records, nil
}

// GetScan loads one snapshot by identifier. A missing identifier yields
// nils without an error.
func (s *Store) GetScan(ctx context.Context, id string) (*Scan, []media.Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, roots_json, file_count, total_bytes
         FROM scans WHERE id = ?`, id)
	scan, err := scanScanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load scan %s: %w", id, err)
	}

	records, err := s.scanRecords(ctx, scan.ID)
	if err != nil {
		return nil, nil, err
	}
	return scan, records, nil
}

// PruneScans removes all but the newest keep snapshots and reports how
// many were deleted. Media file rows go with their scan via the cascade.
func (s *Store) PruneScans(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.execWithRetry(ctx,
		`DELETE FROM scans WHERE id NOT IN (
            SELECT id FROM scans ORDER BY finished_at DESC, rowid DESC LIMIT ?
         )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune scans: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune scans rows affected: %w", err)
	}
	return deleted, nil
}

func (s *Store) scanRecords(ctx context.Context, scanID string) ([]media.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM media_files WHERE scan_id = ? ORDER BY path`, scanID)
	if err != nil {
		return nil, fmt.Errorf("load scan records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []media.Record
	for rows.Next() {
		record, scanErr := scanRecordRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan record row: %w", scanErr)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan records: %w", err)
	}
	return records, nil
}

func scanScanRow(scanner interface{ Scan(dest ...any) error }) (*Scan, error) {
	var (
		id          string
		startedRaw  string
		finishedRaw string
		rootsJSON   sql.NullString
		fileCount   int
		totalBytes  int64
	)
	if err := scanner.Scan(&id, &startedRaw, &finishedRaw, &rootsJSON, &fileCount, &totalBytes); err != nil {
		return nil, err
	}

	scan := &Scan{ID: id, FileCount: fileCount, TotalBytes: totalBytes}
	if started, err := parseTimeString(startedRaw); err == nil {
		scan.StartedAt = started
	}
	if finished, err := parseTimeString(finishedRaw); err == nil {
		scan.FinishedAt = finished
	}
	if rootsJSON.Valid && rootsJSON.String != "" {
		if err := json.Unmarshal([]byte(rootsJSON.String), &scan.Roots); err != nil {
			return nil, fmt.Errorf("unmarshal scan roots: %w", err)
		}
	}
	return scan, nil
}

func scanRecordRow(scanner interface{ Scan(dest ...any) error }) (media.Record, error) {
	var (
		path         string
		sizeBytes    int64
		category     string
		rawName      string
		parsedTitle  sql.NullString
		parsedYear   sql.NullInt64
		parsedSeason sql.NullInt64
		parsedEp     sql.NullInt64
		episodeEnd   sql.NullInt64
		episodeStyle sql.NullString
		partMarker   sql.NullString
		qualityTags  sql.NullString
	)
	if err := scanner.Scan(
		&path,
		&sizeBytes,
		&category,
		&rawName,
		&parsedTitle,
		&parsedYear,
		&parsedSeason,
		&parsedEp,
		&episodeEnd,
		&episodeStyle,
		&partMarker,
		&qualityTags,
	); err != nil {
		return media.Record{}, err
	}

	record := media.Record{
		Path:            path,
		SizeBytes:       sizeBytes,
		CurrentCategory: media.Category(category),
		RawName:         rawName,
		ParsedTitle:     parsedTitle.String,
		ParsedYear:      int(parsedYear.Int64),
		ParsedSeason:    int(parsedSeason.Int64),
		ParsedEpisode:   int(parsedEp.Int64),
		EpisodeEnd:      int(episodeEnd.Int64),
		EpisodeStyle:    episodeStyle.String,
		PartMarker:      partMarker.String,
	}
	for _, tag := range strings.Fields(qualityTags.String) {
		record.QualityTags = append(record.QualityTags, media.QualityTag(tag))
	}
	return record, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
