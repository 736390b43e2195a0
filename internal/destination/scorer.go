package destination

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"log/slog"

	"shelfward/internal/config"
	"shelfward/internal/logging"
	"shelfward/internal/media"
	"shelfward/internal/naming"
	"shelfward/internal/textutil"
)

// Candidate is one ranked destination directory. Breakdown holds each
// factor's weighted contribution to Score so reports can show why a
// directory won.
type Candidate struct {
	Path      string             `json:"path"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// SpaceProber reports available bytes on the filesystem holding a path.
type SpaceProber interface {
	FreeBytes(path string) (uint64, error)
}

// Scorer ranks destination directories for misfiled media.
type Scorer struct {
	cfg     *config.Config
	matcher *textutil.Matcher
	prober  SpaceProber
	logger  *slog.Logger
}

// NewScorer constructs a scorer probing real filesystem free space.
func NewScorer(cfg *config.Config, logger *slog.Logger) (*Scorer, error) {
	return NewScorerWithProber(cfg, statfsProber{}, logger)
}

// NewScorerWithProber constructs a scorer with an explicit space prober.
func NewScorerWithProber(cfg *config.Config, prober SpaceProber, logger *slog.Logger) (*Scorer, error) {
	matcher, err := textutil.NewMatcher(textutil.Config{
		TokenWeight:      cfg.Matching.TokenWeight,
		EditWeight:       cfg.Matching.EditWeight,
		ShortQueryLength: cfg.Matching.ShortQueryLength,
		ShortFloor:       cfg.Matching.ShortQueryFloor,
		LongFloor:        cfg.Matching.LongQueryFloor,
	})
	if err != nil {
		return nil, fmt.Errorf("build matcher: %w", err)
	}
	scorerLogger := logger
	if scorerLogger != nil {
		scorerLogger = scorerLogger.With(logging.String("component", "destination"))
	}
	return &Scorer{cfg: cfg, matcher: matcher, prober: prober, logger: scorerLogger}, nil
}

// CandidateDirs enumerates the possible destinations for a category: each
// configured root plus its existing immediate subdirectories, so a show
// that already has a folder can be matched by name.
func (s *Scorer) CandidateDirs(category media.Category) []string {
	var dirs []string
	for _, root := range s.cfg.DirsFor(string(category)) {
		dirs = append(dirs, root)
		entries, err := os.ReadDir(root)
		if err != nil {
			if s.logger != nil {
				s.logger.Debug("candidate root unreadable",
					logging.String(logging.FieldPath, root),
					logging.Error(err))
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, filepath.Join(root, entry.Name()))
			}
		}
	}
	return dirs
}

type rankedCandidate struct {
	Candidate
	free uint64
}

// ScoreCandidates ranks candidateDirs for the record, highest score first.
// Directories whose free space cannot cover the record plus the configured
// buffer never appear in the result, whatever their other factors. Ties
// break by free space descending, then shorter path.
func (s *Scorer) ScoreCandidates(ctx context.Context, record media.Record, category media.Category, candidateDirs []string) []Candidate {
	logger := logging.WithContext(ctx, s.logger)
	margin := uint64(record.SizeBytes) + uint64(s.cfg.FreeSpaceBufferBytes())
	weights := s.cfg.Scorer
	roots := s.cfg.DirsFor(string(category))

	ranked := make([]rankedCandidate, 0, len(candidateDirs))
	for _, dir := range candidateDirs {
		free, err := s.prober.FreeBytes(dir)
		if err != nil {
			logger.Debug("free space probe failed",
				logging.String(logging.FieldPath, dir),
				logging.Error(err))
			continue
		}
		if free < margin {
			logger.Debug("candidate below free-space floor",
				logging.String(logging.FieldPath, dir),
				logging.Uint64("free_bytes", free),
				logging.Uint64("required_bytes", margin))
			continue
		}

		name := weights.NameMatchWeight * s.nameMatch(record, dir, roots)
		organization := weights.OrganizationWeight * s.organizationScore(dir)
		space := weights.FreeSpaceWeight * math.Min(1, float64(free)/float64(10*margin))
		proximity := weights.ProximityWeight * s.proximity(record.Path, dir)

		ranked = append(ranked, rankedCandidate{
			Candidate: Candidate{
				Path:  dir,
				Score: name + organization + space + proximity,
				Breakdown: map[string]float64{
					"name_match":   name,
					"organization": organization,
					"free_space":   space,
					"proximity":    proximity,
				},
			},
			free: free,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].free != ranked[j].free {
			return ranked[i].free > ranked[j].free
		}
		if len(ranked[i].Path) != len(ranked[j].Path) {
			return len(ranked[i].Path) < len(ranked[j].Path)
		}
		return ranked[i].Path < ranked[j].Path
	})

	candidates := make([]Candidate, len(ranked))
	for i, r := range ranked {
		candidates[i] = r.Candidate
	}
	return candidates
}

// Suggest returns the best destination directory for the record in the
// given category, or false when no candidate clears the free-space floor.
func (s *Scorer) Suggest(ctx context.Context, record media.Record, category media.Category) (string, bool) {
	candidates := s.ScoreCandidates(ctx, record, category, s.CandidateDirs(category))
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0].Path, true
}

// nameMatch scores how well the directory's own name matches the parsed
// title. Bare category roots have no show name to compare, so they score 0
// and win only through the other factors.
func (s *Scorer) nameMatch(record media.Record, dir string, roots []string) float64 {
	cleaned := filepath.Clean(dir)
	for _, root := range roots {
		if filepath.Clean(root) == cleaned {
			return 0
		}
	}
	if record.ParsedTitle == "" {
		return 0
	}
	folderTitle := naming.Normalize(filepath.Base(dir)).Title
	if folderTitle == "" {
		return 0
	}
	return s.matcher.Similarity(record.ParsedTitle, folderTitle)
}

// organizationScore measures how tidy a directory already is: the fraction
// of season-style or show subdirectories among its entries, with loose
// video files at the root counting against it. An empty directory is
// neutral. Non-video files (artwork, subtitles) are ignored.
func (s *Scorer) organizationScore(dir string) float64 {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	subdirs, loose := 0, 0
	for _, entry := range entries {
		switch {
		case entry.IsDir():
			subdirs++
		case s.cfg.IsVideoFile(entry.Name()):
			loose++
		}
	}
	if subdirs+loose == 0 {
		return 0.5
	}
	return float64(subdirs) / float64(subdirs+loose)
}

// proximity prefers destinations on the same volume as the record. Both
// sides resolve to the parent of their configured library root, so layouts
// like /pool1/movies and /pool1/tv count as near while a second pool does
// not.
func (s *Scorer) proximity(recordPath, dir string) float64 {
	recordBase := s.baseOf(recordPath)
	candidateBase := s.baseOf(dir)
	if recordBase == "" || candidateBase == "" {
		return 0
	}
	if recordBase == candidateBase {
		return 1
	}
	return 0
}

// baseOf finds the configured library root containing the path and returns
// that root's parent directory.
func (s *Scorer) baseOf(path string) string {
	cleaned := filepath.Clean(path)
	for _, root := range s.cfg.LibraryRoots() {
		rootClean := filepath.Clean(root.Dir)
		if cleaned == rootClean || strings.HasPrefix(cleaned, rootClean+string(filepath.Separator)) {
			return filepath.Dir(rootClean)
		}
	}
	return ""
}
