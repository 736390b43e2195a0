// Package scanner walks the configured library roots and builds the media
// records every analysis consumes.
package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"log/slog"

	"shelfward/internal/config"
	"shelfward/internal/logging"
	"shelfward/internal/media"
	"shelfward/internal/naming"
	"shelfward/internal/services"
)

// ProgressFunc receives the running file count and the path just recorded.
type ProgressFunc func(count int, path string)

// Option configures a Scanner.
type Option func(*Scanner)

// WithProgress installs a progress callback invoked once per recorded file.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Scanner) {
		s.progress = fn
	}
}

// Scanner walks library roots and emits one record per video file. The
// category of every record is the category of the root that contained it;
// whether that category is *correct* is the classifier's question, not the
// scanner's.
type Scanner struct {
	cfg      *config.Config
	logger   *slog.Logger
	progress ProgressFunc
}

// NewScanner constructs a scanner over the configured library roots.
func NewScanner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Scanner {
	scanLogger := logger
	if scanLogger != nil {
		scanLogger = scanLogger.With(logging.String("component", "scanner"))
	}
	s := &Scanner{cfg: cfg, logger: scanLogger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks every configured root in order and returns the records found.
// Missing or unreadable directories are logged and skipped. On cancellation
// the records collected so far are returned with the context error.
func (s *Scanner) Scan(ctx context.Context) ([]media.Record, error) {
	logger := logging.WithContext(ctx, s.logger)
	var records []media.Record
	for _, root := range s.cfg.LibraryRoots() {
		if err := s.scanRoot(ctx, root, &records); err != nil {
			return records, err
		}
	}
	logger.Info("scan complete",
		logging.Int("records", len(records)),
		logging.Int("roots", len(s.cfg.LibraryRoots())))
	return records, nil
}

func (s *Scanner) scanRoot(ctx context.Context, root config.LibraryRoot, records *[]media.Record) error {
	ctx = services.WithRoot(ctx, root.Dir)
	logger := logging.WithContext(ctx, s.logger).With(
		logging.String(logging.FieldCategory, root.Category))

	err := filepath.WalkDir(root.Dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			logger.Warn("skipping unreadable path",
				logging.String(logging.FieldPath, path),
				logging.Error(walkErr))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != root.Dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !s.cfg.IsVideoFile(name) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			logger.Warn("skipping unstatable file",
				logging.String(logging.FieldPath, path),
				logging.Error(err))
			return nil
		}
		*records = append(*records, BuildRecord(path, info.Size(), media.Category(root.Category)))
		if s.progress != nil {
			s.progress(len(*records), path)
		}
		return nil
	})
	// Root-level stat failures arrive through the callback, so the only
	// error WalkDir can surface here is a context cancellation.
	return err
}

// BuildRecord parses the base name and assembles the immutable record.
// Callers outside the walk (ad hoc classification of bare names) pass a
// zero size and empty category.
func BuildRecord(path string, size int64, category media.Category) media.Record {
	base := filepath.Base(path)
	parsed := naming.Normalize(base)
	record := media.Record{
		Path:            path,
		SizeBytes:       size,
		CurrentCategory: category,
		RawName:         base,
		ParsedTitle:     parsed.Title,
		ParsedYear:      parsed.Year,
		ParsedSeason:    parsed.Season,
		ParsedEpisode:   parsed.Episode,
		EpisodeEnd:      parsed.EpisodeEnd,
		EpisodeStyle:    parsed.EpisodeStyle,
		PartMarker:      parsed.PartMarker,
	}
	for _, tag := range parsed.QualityTags {
		record.QualityTags = append(record.QualityTags, media.QualityTag(tag))
	}
	return record
}
