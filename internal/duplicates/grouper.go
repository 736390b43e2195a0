package duplicates

import (
	"context"
	"fmt"
	"sort"

	"log/slog"

	"shelfward/internal/config"
	"shelfward/internal/logging"
	"shelfward/internal/media"
	"shelfward/internal/textutil"
)

// Grouper partitions scanned records into duplicate groups.
type Grouper struct {
	cfg     *config.Config
	matcher *textutil.Matcher
	logger  *slog.Logger
}

// NewGrouper constructs a grouper from the matching configuration.
func NewGrouper(cfg *config.Config, logger *slog.Logger) (*Grouper, error) {
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
	groupLogger := logger
	if groupLogger != nil {
		groupLogger = groupLogger.With(logging.String("component", "grouper"))
	}
	return &Grouper{cfg: cfg, matcher: matcher, logger: groupLogger}, nil
}

type partition struct {
	key     string
	title   string
	members []media.Record
}

// Group partitions records into duplicate groups. Records below the size
// floor, records carrying a split-file part marker, and records whose names
// produced no usable title are never candidates. Output order is reclaimable
// bytes descending, then key, so identical inputs yield identical reports.
func (g *Grouper) Group(ctx context.Context, records []media.Record) []Group {
	logger := logging.WithContext(ctx, g.logger)
	minBytes := g.cfg.MinFileSizeBytes()

	candidates := make([]media.Record, 0, len(records))
	for _, record := range records {
		switch {
		case record.SizeBytes < minBytes:
			continue
		case record.PartMarker != "":
			continue
		case record.ParsedTitle == "":
			continue
		}
		candidates = append(candidates, record)
	}

	// Exact partition on canonical key, preserving first-seen order.
	keyIndex := make(map[string]int, len(candidates))
	partitions := make([]partition, 0, len(candidates))
	for _, record := range candidates {
		key := record.CanonicalKey()
		idx, ok := keyIndex[key]
		if !ok {
			idx = len(partitions)
			keyIndex[key] = idx
			partitions = append(partitions, partition{key: key, title: record.ParsedTitle})
		}
		partitions[idx].members = append(partitions[idx].members, record)
	}

	// Fuzzy merge: singleton partitions may join any other partition when
	// titles clear the threshold and metadata agrees. Transitive closure
	// comes from the union-find, not from chained pairwise drift.
	sets := newMergeSets(len(partitions))
	threshold := g.cfg.Matching.DuplicateThreshold
	for i := 0; i < len(partitions); i++ {
		for j := i + 1; j < len(partitions); j++ {
			if len(partitions[i].members) > 1 && len(partitions[j].members) > 1 {
				continue
			}
			if !compatible(partitions[i].members[0], partitions[j].members[0]) {
				continue
			}
			score := g.matcher.Similarity(partitions[i].title, partitions[j].title)
			if score < threshold {
				continue
			}
			sets.union(i, j)
			logger.Debug("merged near-duplicate keys",
				logging.String("key_a", partitions[i].key),
				logging.String("key_b", partitions[j].key),
				logging.Float64("score", score),
			)
		}
	}

	merged := make(map[int][]media.Record, len(partitions))
	order := make([]int, 0, len(partitions))
	for i := range partitions {
		root := sets.find(i)
		if _, ok := merged[root]; !ok {
			order = append(order, root)
		}
		merged[root] = append(merged[root], partitions[i].members...)
	}

	groups := make([]Group, 0, len(order))
	for _, root := range order {
		members := merged[root]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, newGroup(members))
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].ReclaimableBytes != groups[j].ReclaimableBytes {
			return groups[i].ReclaimableBytes > groups[j].ReclaimableBytes
		}
		return groups[i].Key < groups[j].Key
	})

	logger.Info("duplicate grouping complete",
		logging.Int("records", len(records)),
		logging.Int("candidates", len(candidates)),
		logging.Int("groups", len(groups)),
		logging.Int64("reclaimable_bytes", TotalReclaimable(groups)),
	)
	return groups
}

// compatible rejects merges between records whose year or season/episode
// metadata disagree. Metadata absent on either side never blocks a merge.
func compatible(a, b media.Record) bool {
	if a.ParsedYear > 0 && b.ParsedYear > 0 && a.ParsedYear != b.ParsedYear {
		return false
	}
	if a.HasEpisode() && b.HasEpisode() {
		if a.ParsedSeason != b.ParsedSeason || a.ParsedEpisode != b.ParsedEpisode || a.EpisodeEnd != b.EpisodeEnd {
			return false
		}
	}
	return true
}

// mergeSets is a small union-find over partition indices. The smallest index
// in a set is always its root, which keeps group output order stable.
type mergeSets struct {
	parent []int
}

func newMergeSets(n int) *mergeSets {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &mergeSets{parent: parent}
}

func (m *mergeSets) find(i int) int {
	for m.parent[i] != i {
		m.parent[i] = m.parent[m.parent[i]]
		i = m.parent[i]
	}
	return i
}

func (m *mergeSets) union(a, b int) {
	rootA, rootB := m.find(a), m.find(b)
	if rootA == rootB {
		return
	}
	if rootA < rootB {
		m.parent[rootB] = rootA
	} else {
		m.parent[rootA] = rootB
	}
}
