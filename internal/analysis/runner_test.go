package analysis_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"shelfward/internal/analysis"
	"shelfward/internal/classification"
	"shelfward/internal/logging"
	"shelfward/internal/media"
	"shelfward/internal/naming"
	"shelfward/internal/testsupport"
)

const mb = int64(1024 * 1024)

func rec(t *testing.T, path string, size int64, category media.Category) media.Record {
	t.Helper()
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

type stubScanner struct {
	records []media.Record
	calls   int
	hook    func()
}

func (s *stubScanner) Scan(ctx context.Context) ([]media.Record, error) {
	s.calls++
	if s.hook != nil {
		s.hook()
	}
	return s.records, ctx.Err()
}

type stubSuggester struct {
	dir string
}

func (s stubSuggester) Suggest(ctx context.Context, record media.Record, category media.Category) (string, bool) {
	return s.dir, s.dir != ""
}

type stubAI struct {
	calls    atomic.Int64
	category media.Category
}

func (s *stubAI) ClassifyBatch(ctx context.Context, names []string) ([]*classification.Result, error) {
	s.calls.Add(1)
	out := make([]*classification.Result, len(names))
	for i := range out {
		out[i] = &classification.Result{Category: s.category, Confidence: 0.9, Source: classification.SourceAI}
	}
	return out, nil
}

type stubLookup struct {
	calls    atomic.Int64
	category media.Category
}

func (s *stubLookup) Lookup(ctx context.Context, title string, kind media.Category) (*classification.Result, error) {
	s.calls.Add(1)
	return &classification.Result{Category: s.category, Confidence: 0.9, Source: classification.SourceExternal}, nil
}

// cancellingAI cancels the run context from inside the first batch call,
// simulating an interrupt arriving mid-classification.
type cancellingAI struct {
	cancel context.CancelFunc
}

func (c *cancellingAI) ClassifyBatch(ctx context.Context, names []string) ([]*classification.Result, error) {
	c.cancel()
	return nil, errors.New("interrupted")
}

func TestRunPersistsFreshScan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stub := &stubScanner{records: []media.Record{
		rec(t, "/library/movies/Heat.1995.1080p.BluRay.mkv", 4000*mb, media.CategoryMovie),
		rec(t, "/library/tv/Severance.S02E03.1080p.mkv", 2000*mb, media.CategoryTV),
	}}

	runner, err := analysis.NewRunnerWith(cfg, store, logging.NewNop(), analysis.Collaborators{Scanner: stub})
	if err != nil {
		t.Fatalf("NewRunnerWith: %v", err)
	}
	result, err := runner.Run(context.Background(), analysis.Options{Rescan: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("expected a run id")
	}
	if result.ScanID == "" {
		t.Fatal("expected the fresh scan to be persisted")
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}

	scan, records, err := store.LatestScan(context.Background())
	if err != nil {
		t.Fatalf("LatestScan: %v", err)
	}
	if scan == nil || scan.ID != result.ScanID {
		t.Fatalf("stored scan %+v does not match run scan id %s", scan, result.ScanID)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 stored records, got %d", len(records))
	}
}

func TestRunReusesStoredScan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stub := &stubScanner{records: []media.Record{
		rec(t, "/library/movies/Collateral.2004.720p.mkv", 1500*mb, media.CategoryMovie),
	}}

	runner, err := analysis.NewRunnerWith(cfg, store, logging.NewNop(), analysis.Collaborators{Scanner: stub})
	if err != nil {
		t.Fatalf("NewRunnerWith: %v", err)
	}

	// An empty store falls back to a walk even without Rescan.
	first, err := runner.Run(context.Background(), analysis.Options{})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected one walk, got %d", stub.calls)
	}

	second, err := runner.Run(context.Background(), analysis.Options{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected the stored scan to be reused, walks = %d", stub.calls)
	}
	if second.ScanID != first.ScanID {
		t.Fatalf("scan id changed on reuse: %s vs %s", second.ScanID, first.ScanID)
	}
	if len(second.Records) != len(first.Records) {
		t.Fatalf("record count changed on reuse: %d vs %d", len(second.Records), len(first.Records))
	}

	third, err := runner.Run(context.Background(), analysis.Options{Rescan: true})
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected Rescan to force a walk, walks = %d", stub.calls)
	}
	if third.ScanID == first.ScanID {
		t.Fatal("expected a new scan snapshot after Rescan")
	}
}

func TestRunDuplicateGroupingOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	keeper := rec(t, "/library/movies/Heat.1995.1080p.BluRay.mkv", 4000*mb, media.CategoryMovie)
	stub := &stubScanner{records: []media.Record{
		keeper,
		rec(t, "/library/movies/old/Heat.1995.720p.x264.mkv", 1500*mb, media.CategoryMovie),
		rec(t, "/library/movies/Collateral.2004.720p.mkv", 1500*mb, media.CategoryMovie),
	}}

	runner, err := analysis.NewRunnerWith(cfg, nil, logging.NewNop(), analysis.Collaborators{Scanner: stub})
	if err != nil {
		t.Fatalf("NewRunnerWith: %v", err)
	}
	result, err := runner.Run(context.Background(), analysis.Options{Duplicates: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("expected one duplicate group, got %d", len(result.Groups))
	}
	group := result.Groups[0]
	if group.Keeper.Path != keeper.Path {
		t.Fatalf("keeper = %s, want %s", group.Keeper.Path, keeper.Path)
	}
	if group.ReclaimableBytes != 1500*mb {
		t.Fatalf("reclaimable = %d, want %d", group.ReclaimableBytes, 1500*mb)
	}
	if result.Classifications != nil {
		t.Fatal("duplicate-only run must not classify")
	}
	if len(result.Findings) != 0 {
		t.Fatalf("duplicate-only run produced findings: %v", result.Findings)
	}
}

func TestRunMisplacementFindings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubScanner{records: []media.Record{
		rec(t, "/library/movies/Severance.S02E03.1080p.mkv", 2000*mb, media.CategoryMovie),
		rec(t, "/library/tv/Heat.1995.1080p.BluRay.mkv", 4000*mb, media.CategoryTV),
		rec(t, "/library/movies/Collateral.2004.720p.mkv", 1500*mb, media.CategoryMovie),
	}}

	runner, err := analysis.NewRunnerWith(cfg, nil, logging.NewNop(), analysis.Collaborators{
		Scanner:   stub,
		Suggester: stubSuggester{dir: "/library/tv"},
	})
	if err != nil {
		t.Fatalf("NewRunnerWith: %v", err)
	}
	result, err := runner.Run(context.Background(), analysis.Options{Misplacement: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %v", len(result.Findings), result.Findings)
	}
	episode := result.Findings[0]
	if episode.Path != "/library/movies/Severance.S02E03.1080p.mkv" {
		t.Fatalf("unexpected first finding %+v", episode)
	}
	if episode.CurrentCategory != media.CategoryMovie || episode.SuggestedCategory != media.CategoryTV {
		t.Fatalf("unexpected transition %s", episode.Transition())
	}
	if episode.SuggestedPath != "/library/tv" {
		t.Fatalf("suggested path = %q", episode.SuggestedPath)
	}

	if len(result.Classifications) != 3 {
		t.Fatalf("expected positional classifications, got %d", len(result.Classifications))
	}
	if result.TierCounts[classification.SourceRule] != 3 {
		t.Fatalf("rule tier count = %d, want 3", result.TierCounts[classification.SourceRule])
	}
}

func TestRunPersistsClassifications(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stub := &stubScanner{records: []media.Record{
		rec(t, "/library/movies/Severance.S02E03.1080p.mkv", 2000*mb, media.CategoryMovie),
	}}

	runner, err := analysis.NewRunnerWith(cfg, store, logging.NewNop(), analysis.Collaborators{
		Scanner:   stub,
		Suggester: stubSuggester{},
	})
	if err != nil {
		t.Fatalf("NewRunnerWith: %v", err)
	}
	if _, err := runner.Run(context.Background(), analysis.Options{Misplacement: true, Rescan: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	verdict, err := store.GetClassification(context.Background(), "Severance.S02E03.1080p.mkv")
	if err != nil {
		t.Fatalf("GetClassification: %v", err)
	}
	if verdict == nil {
		t.Fatal("expected the run to persist its classification")
	}
	if verdict.Category != media.CategoryTV || verdict.Source != classification.SourceRule {
		t.Fatalf("unexpected persisted verdict %+v", verdict)
	}
}

func TestRunAITierCounted(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAIEnabled())
	ai := &stubAI{category: media.CategoryTV}
	stub := &stubScanner{records: []media.Record{
		rec(t, "/library/movies/Ambiguous.Show.File.mkv", 900*mb, media.CategoryMovie),
		rec(t, "/library/movies/Another.Oddly.Named.mkv", 900*mb, media.CategoryMovie),
	}}

	runner, err := analysis.NewRunnerWith(cfg, nil, logging.NewNop(), analysis.Collaborators{
		Scanner:   stub,
		AI:        ai,
		Suggester: stubSuggester{dir: "/library/tv"},
	})
	if err != nil {
		t.Fatalf("NewRunnerWith: %v", err)
	}
	result, err := runner.Run(context.Background(), analysis.Options{Misplacement: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ai.calls.Load() == 0 {
		t.Fatal("expected the AI tier to be consulted")
	}
	if result.TierCounts[classification.SourceAI] != 2 {
		t.Fatalf("ai tier count = %d, want 2", result.TierCounts[classification.SourceAI])
	}
	if len(result.Findings) != 2 {
		t.Fatalf("expected both files flagged, got %d", len(result.Findings))
	}
}

func TestRunNoAISkipsConfiguredTier(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAIEnabled())
	ai := &stubAI{category: media.CategoryTV}
	stub := &stubScanner{records: []media.Record{
		rec(t, "/library/movies/Heat.1995.1080p.BluRay.mkv", 4000*mb, media.CategoryMovie),
	}}

	runner, err := analysis.NewRunnerWith(cfg, nil, logging.NewNop(), analysis.Collaborators{
		Scanner:   stub,
		AI:        ai,
		Suggester: stubSuggester{},
	})
	if err != nil {
		t.Fatalf("NewRunnerWith: %v", err)
	}
	result, err := runner.Run(context.Background(), analysis.Options{Misplacement: true, NoAI: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ai.calls.Load() != 0 {
		t.Fatalf("NoAI run still made %d AI calls", ai.calls.Load())
	}
	if result.TierCounts[classification.SourceRule] != 1 {
		t.Fatalf("expected the rule tier to resolve, counts = %v", result.TierCounts)
	}
}

func TestRunNoLookupSkipsConfiguredTier(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLookupEnabled())
	lookup := &stubLookup{category: media.CategoryDocumentary}
	stub := &stubScanner{records: []media.Record{
		rec(t, "/library/movies/Heat.1995.1080p.BluRay.mkv", 4000*mb, media.CategoryMovie),
	}}

	runner, err := analysis.NewRunnerWith(cfg, nil, logging.NewNop(), analysis.Collaborators{
		Scanner:   stub,
		Lookup:    lookup,
		Suggester: stubSuggester{},
	})
	if err != nil {
		t.Fatalf("NewRunnerWith: %v", err)
	}
	result, err := runner.Run(context.Background(), analysis.Options{Misplacement: true, NoLookup: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if lookup.calls.Load() != 0 {
		t.Fatalf("NoLookup run still made %d lookups", lookup.calls.Load())
	}
	if result.TierCounts[classification.SourceExternal] != 0 {
		t.Fatalf("external tier counted on a NoLookup run: %v", result.TierCounts)
	}
}

func TestRunCancelledDuringClassificationKeepsPartial(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAIEnabled())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := &stubScanner{records: []media.Record{
		rec(t, "/library/movies/Severance.S02E03.1080p.mkv", 2000*mb, media.CategoryMovie),
		rec(t, "/library/movies/Heat.1995.1080p.BluRay.mkv", 4000*mb, media.CategoryMovie),
	}}

	runner, err := analysis.NewRunnerWith(cfg, nil, logging.NewNop(), analysis.Collaborators{
		Scanner:   stub,
		AI:        &cancellingAI{cancel: cancel},
		Suggester: stubSuggester{},
	})
	if err != nil {
		t.Fatalf("NewRunnerWith: %v", err)
	}
	result, err := runner.Run(ctx, analysis.Options{Misplacement: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || !result.Partial {
		t.Fatalf("expected a partial result, got %+v", result)
	}
	if len(result.Records) != 2 {
		t.Fatalf("partial result lost the scan records: %d", len(result.Records))
	}
	if len(result.Classifications) != 2 {
		t.Fatalf("expected positional slice even when interrupted, got %d", len(result.Classifications))
	}
	if len(result.Findings) != 0 {
		t.Fatalf("unresolved records produced findings: %v", result.Findings)
	}
}

func TestRunCancelledDuringScanKeepsRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := &stubScanner{records: []media.Record{
		rec(t, "/library/movies/Heat.1995.1080p.BluRay.mkv", 4000*mb, media.CategoryMovie),
	}}
	stub.hook = cancel

	runner, err := analysis.NewRunnerWith(cfg, nil, logging.NewNop(), analysis.Collaborators{Scanner: stub})
	if err != nil {
		t.Fatalf("NewRunnerWith: %v", err)
	}
	result, err := runner.Run(ctx, analysis.Options{Duplicates: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || !result.Partial {
		t.Fatalf("expected a partial result, got %+v", result)
	}
	if len(result.Records) != 1 {
		t.Fatalf("partial scan records lost: %d", len(result.Records))
	}
	if len(result.Groups) != 0 {
		t.Fatalf("cancelled run still grouped: %v", result.Groups)
	}
}
