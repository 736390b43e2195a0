package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shelfward/internal/classification"
	"shelfward/internal/logging"
	"shelfward/internal/media"
)

// PutClassification stores a verdict for a filename, replacing any earlier
// row for the same name.
func (s *Store) PutClassification(ctx context.Context, filename string, result classification.Result) error {
	if filename == "" {
		return errors.New("classification filename is empty")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO classifications (filename, category, confidence, source, reasoning, created_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(filename) DO UPDATE SET
             category = excluded.category,
             confidence = excluded.confidence,
             source = excluded.source,
             reasoning = excluded.reasoning,
             created_at = excluded.created_at`,
		filename,
		string(result.Category),
		result.Confidence,
		string(result.Source),
		result.Reasoning,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store classification for %s: %w", filename, err)
	}
	return nil
}

// GetClassification loads the stored verdict for a filename. A missing row
// yields nil without an error.
func (s *Store) GetClassification(ctx context.Context, filename string) (*classification.Result, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT category, confidence, source, reasoning FROM classifications WHERE filename = ?`,
		filename)

	var (
		category   string
		confidence float64
		source     string
		reasoning  sql.NullString
	)
	err := row.Scan(&category, &confidence, &source, &reasoning)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load classification for %s: %w", filename, err)
	}

	return &classification.Result{
		Category:   media.Category(category),
		Confidence: confidence,
		Source:     classification.Source(source),
		Reasoning:  reasoning.String,
	}, nil
}

// CacheStats aggregates the stored classification rows.
type CacheStats struct {
	Entries    int            `json:"entries"`
	BySource   map[string]int `json:"by_source"`
	ByCategory map[string]int `json:"by_category"`
	Oldest     time.Time      `json:"oldest"`
	Newest     time.Time      `json:"newest"`
}

// CacheStats reports how many verdicts are cached and how they break down
// by source tier and category.
func (s *Store) CacheStats(ctx context.Context) (CacheStats, error) {
	ctx = ensureContext(ctx)
	stats := CacheStats{
		BySource:   make(map[string]int),
		ByCategory: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, category, created_at FROM classifications`)
	if err != nil {
		return stats, fmt.Errorf("load classification stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var source, category, createdRaw string
		if err := rows.Scan(&source, &category, &createdRaw); err != nil {
			return stats, fmt.Errorf("scan classification stats row: %w", err)
		}
		stats.Entries++
		stats.BySource[source]++
		stats.ByCategory[category]++
		if created, parseErr := parseTimeString(createdRaw); parseErr == nil {
			if stats.Oldest.IsZero() || created.Before(stats.Oldest) {
				stats.Oldest = created
			}
			if created.After(stats.Newest) {
				stats.Newest = created
			}
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate classification stats: %w", err)
	}
	return stats, nil
}

// ClearClassifications deletes every cached verdict and reports how many
// rows were removed.
func (s *Store) ClearClassifications(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM classifications`)
	if err != nil {
		return 0, fmt.Errorf("clear classifications: %w", err)
	}
	cleared, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear classifications rows affected: %w", err)
	}
	return cleared, nil
}

// Cache adapts the store to the classifier's cache tier. Storage failures
// are logged at debug and reported as misses so a broken database never
// stops a classification run.
type Cache struct {
	store  *Store
	logger *slog.Logger
}

// NewCache wraps a store for use as a classification cache.
func NewCache(store *Store, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logging.NewComponentLogger(logger, "classification-cache"),
	}
}

// Get implements classification.Cache.
func (c *Cache) Get(ctx context.Context, filename string) (*classification.Result, bool) {
	result, err := c.store.GetClassification(ctx, filename)
	if err != nil {
		logging.WithContext(ctx, c.logger).Debug("cache read failed",
			logging.String("filename", filename),
			logging.Error(err))
		return nil, false
	}
	if result == nil {
		return nil, false
	}
	return result, true
}

// Put implements classification.Cache.
func (c *Cache) Put(ctx context.Context, filename string, result classification.Result) {
	if err := c.store.PutClassification(ctx, filename, result); err != nil {
		logging.WithContext(ctx, c.logger).Debug("cache write failed",
			logging.String("filename", filename),
			logging.Error(err))
	}
}
