package classification_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"shelfward/internal/classification"
	"shelfward/internal/logging"
	"shelfward/internal/media"
	"shelfward/internal/naming"
	"shelfward/internal/testsupport"
)

type stubAI struct {
	mu       sync.Mutex
	calls    int
	inFlight int
	maxSeen  int
	delay    time.Duration
	fn       func(names []string) ([]*classification.Result, error)
}

func (s *stubAI) ClassifyBatch(_ context.Context, names []string) ([]*classification.Result, error) {
	s.mu.Lock()
	s.calls++
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	fn := s.fn
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	if fn == nil {
		return make([]*classification.Result, len(names)), nil
	}
	return fn(names)
}

func (s *stubAI) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubLookup struct {
	mu       sync.Mutex
	lastKind media.Category
	fn       func(title string, kind media.Category) (*classification.Result, error)
}

func (s *stubLookup) Lookup(_ context.Context, title string, kind media.Category) (*classification.Result, error) {
	s.mu.Lock()
	s.lastKind = kind
	fn := s.fn
	s.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(title, kind)
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]classification.Result
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]classification.Result{}}
}

func (c *memCache) Get(_ context.Context, filename string) (*classification.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if result, ok := c.entries[filename]; ok {
		return &result, true
	}
	return nil, false
}

func (c *memCache) Put(_ context.Context, filename string, result classification.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[filename] = result
}

func newRecord(t *testing.T, path string) media.Record {
	t.Helper()
	base := filepath.Base(path)
	parsed := naming.Normalize(base)
	record := media.Record{
		Path:          path,
		RawName:       base,
		ParsedTitle:   parsed.Title,
		ParsedYear:    parsed.Year,
		ParsedSeason:  parsed.Season,
		ParsedEpisode: parsed.Episode,
		EpisodeEnd:    parsed.EpisodeEnd,
		EpisodeStyle:  parsed.EpisodeStyle,
		PartMarker:    parsed.PartMarker,
	}
	for _, tag := range parsed.QualityTags {
		record.QualityTags = append(record.QualityTags, media.QualityTag(tag))
	}
	return record
}

func aiResult(category media.Category, confidence float64) *classification.Result {
	return &classification.Result{
		Category:   category,
		Confidence: confidence,
		Source:     classification.SourceAI,
	}
}

func lookupResult(category media.Category, confidence float64) *classification.Result {
	return &classification.Result{
		Category:   category,
		Confidence: confidence,
		Source:     classification.SourceExternal,
	}
}

func TestClassifyTierPrecedence(t *testing.T) {
	errUnavailable := errors.New("service unavailable")
	tests := []struct {
		name       string
		ai         *classification.Result
		aiErr      error
		lookup     *classification.Result
		lookupErr  error
		wantSource classification.Source
		wantCat    media.Category
		wantConf   float64
	}{
		{
			name:       "accepted ai wins",
			ai:         aiResult(media.CategoryDocumentary, 0.92),
			lookup:     lookupResult(media.CategoryMovie, 0.99),
			wantSource: classification.SourceAI,
			wantCat:    media.CategoryDocumentary,
			wantConf:   0.92,
		},
		{
			name:       "below floor ai falls to lookup",
			ai:         aiResult(media.CategoryTV, 0.79),
			lookup:     lookupResult(media.CategoryMovie, 0.85),
			wantSource: classification.SourceExternal,
			wantCat:    media.CategoryMovie,
			wantConf:   0.85,
		},
		{
			name:       "failed ai falls to lookup",
			aiErr:      errUnavailable,
			lookup:     lookupResult(media.CategoryMovie, 0.9),
			wantSource: classification.SourceExternal,
			wantCat:    media.CategoryMovie,
			wantConf:   0.9,
		},
		{
			name:       "below floor lookup falls to rules",
			ai:         aiResult(media.CategoryTV, 0.5),
			lookup:     lookupResult(media.CategoryTV, 0.4),
			wantSource: classification.SourceRule,
			wantCat:    media.CategoryMovie,
			wantConf:   0.95,
		},
		{
			name:       "lookup miss falls to rules",
			aiErr:      errUnavailable,
			wantSource: classification.SourceRule,
			wantCat:    media.CategoryMovie,
			wantConf:   0.95,
		},
		{
			name:       "failed lookup falls to rules",
			aiErr:      errUnavailable,
			lookupErr:  errUnavailable,
			wantSource: classification.SourceRule,
			wantCat:    media.CategoryMovie,
			wantConf:   0.95,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithAIEnabled(), testsupport.WithLookupEnabled())
			ai := &stubAI{fn: func(names []string) ([]*classification.Result, error) {
				if tt.aiErr != nil {
					return nil, tt.aiErr
				}
				return []*classification.Result{tt.ai}, nil
			}}
			lookup := &stubLookup{fn: func(string, media.Category) (*classification.Result, error) {
				return tt.lookup, tt.lookupErr
			}}
			classifier := classification.NewClassifier(cfg, logging.NewNop(), ai, lookup, nil)

			got := classifier.Classify(context.Background(), newRecord(t, "/library/movies/Heat.1995.1080p.BluRay.x264.mkv"))
			if got.Source != tt.wantSource {
				t.Errorf("source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.Category != tt.wantCat {
				t.Errorf("category = %q, want %q", got.Category, tt.wantCat)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
		})
	}
}

// Disabling a tier must be indistinguishable from that tier failing on
// every call.
func TestClassifyDisabledTierMatchesUnavailableTier(t *testing.T) {
	records := []media.Record{
		newRecord(t, "/library/movies/Heat.1995.1080p.BluRay.x264.mkv"),
		newRecord(t, "/library/tv/Severance.S02E03.1080p.mkv"),
		newRecord(t, "/library/standup/Dave.Chappelle.Sticks.and.Stones.2019.mkv"),
	}

	disabledCfg := testsupport.NewConfig(t)
	workingAI := &stubAI{fn: func(names []string) ([]*classification.Result, error) {
		results := make([]*classification.Result, len(names))
		for i := range results {
			results[i] = aiResult(media.CategoryOther, 0.99)
		}
		return results, nil
	}}
	disabled := classification.NewClassifier(disabledCfg, logging.NewNop(), workingAI, nil, nil)

	enabledCfg := testsupport.NewConfig(t, testsupport.WithAIEnabled())
	failingAI := &stubAI{fn: func([]string) ([]*classification.Result, error) {
		return nil, errors.New("timeout")
	}}
	unavailable := classification.NewClassifier(enabledCfg, logging.NewNop(), failingAI, nil, nil)

	ctx := context.Background()
	for _, record := range records {
		fromDisabled := disabled.Classify(ctx, record)
		fromUnavailable := unavailable.Classify(ctx, record)
		if !reflect.DeepEqual(fromDisabled, fromUnavailable) {
			t.Errorf("%s: disabled %+v != unavailable %+v", record.RawName, fromDisabled, fromUnavailable)
		}
	}
	if workingAI.callCount() != 0 {
		t.Errorf("disabled tier called the client %d times", workingAI.callCount())
	}
}

func TestClassifyLookupKindFollowsEpisodeParse(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLookupEnabled())
	lookup := &stubLookup{}
	classifier := classification.NewClassifier(cfg, logging.NewNop(), nil, lookup, nil)
	ctx := context.Background()

	classifier.Classify(ctx, newRecord(t, "/library/tv/Severance.S02E03.mkv"))
	if lookup.lastKind != media.CategoryTV {
		t.Errorf("episode record looked up as %q, want %q", lookup.lastKind, media.CategoryTV)
	}

	classifier.Classify(ctx, newRecord(t, "/library/movies/Heat.1995.mkv"))
	if lookup.lastKind != media.CategoryMovie {
		t.Errorf("movie record looked up as %q, want %q", lookup.lastKind, media.CategoryMovie)
	}
}

// A cached verdict is returned as-is on every later call, so classifying
// the same library twice yields identical output even if a tier would now
// answer differently.
func TestClassifyCachePreservesFirstVerdict(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAIEnabled())
	cache := newMemCache()
	ai := &stubAI{fn: func(names []string) ([]*classification.Result, error) {
		return []*classification.Result{aiResult(media.CategoryDocumentary, 0.9)}, nil
	}}
	classifier := classification.NewClassifier(cfg, logging.NewNop(), ai, nil, cache)
	ctx := context.Background()
	record := newRecord(t, "/library/movies/Blue.Planet.II.2017.1080p.mkv")

	first := classifier.Classify(ctx, record)
	if first.Source != classification.SourceAI || first.Category != media.CategoryDocumentary {
		t.Fatalf("unexpected first verdict: %+v", first)
	}

	ai.mu.Lock()
	ai.fn = func(names []string) ([]*classification.Result, error) {
		return []*classification.Result{aiResult(media.CategoryMovie, 0.99)}, nil
	}
	ai.mu.Unlock()

	second := classifier.Classify(ctx, record)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached verdict changed: first %+v, second %+v", first, second)
	}
	if ai.callCount() != 1 {
		t.Errorf("client called %d times, want 1", ai.callCount())
	}
}

// One unparseable item in an AI batch falls through to the lower tiers
// while its neighbors keep their accepted batch results.
func TestClassifyAllPartialBatchFailureStaysPositional(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAIEnabled())
	ai := &stubAI{fn: func(names []string) ([]*classification.Result, error) {
		results := make([]*classification.Result, len(names))
		for i, name := range names {
			switch name {
			case "Blue.Planet.II.2017.1080p.mkv":
				results[i] = aiResult(media.CategoryDocumentary, 0.9)
			case "Dave.Chappelle.Sticks.and.Stones.2019.mkv":
				results[i] = aiResult(media.CategoryStandup, 0.88)
			}
		}
		return results, nil
	}}
	classifier := classification.NewClassifier(cfg, logging.NewNop(), ai, nil, nil)

	records := []media.Record{
		newRecord(t, "/library/movies/Blue.Planet.II.2017.1080p.mkv"),
		newRecord(t, "/library/tv/Severance.S02E03.1080p.mkv"),
		newRecord(t, "/library/tv/Dave.Chappelle.Sticks.and.Stones.2019.mkv"),
	}
	results, err := classifier.ClassifyAll(context.Background(), records)
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if len(results) != len(records) {
		t.Fatalf("got %d results, want %d", len(results), len(records))
	}
	for i, result := range results {
		if result == nil {
			t.Fatalf("results[%d] is nil", i)
		}
	}
	if results[0].Source != classification.SourceAI || results[0].Category != media.CategoryDocumentary {
		t.Errorf("results[0] = %+v, want accepted ai documentary", results[0])
	}
	if results[1].Source != classification.SourceRule || results[1].Category != media.CategoryTV {
		t.Errorf("results[1] = %+v, want rule tv fallback", results[1])
	}
	if results[2].Source != classification.SourceAI || results[2].Category != media.CategoryStandup {
		t.Errorf("results[2] = %+v, want accepted ai standup", results[2])
	}
}

func TestClassifyAllBoundsConcurrency(t *testing.T) {
	const workers = 2
	cfg := testsupport.NewConfig(t,
		testsupport.WithAIEnabled(),
		testsupport.WithWorkers(workers),
		testsupport.WithAIBatchSize(1))
	ai := &stubAI{delay: 5 * time.Millisecond}
	classifier := classification.NewClassifier(cfg, logging.NewNop(), ai, nil, nil)

	records := make([]media.Record, 12)
	for i := range records {
		records[i] = newRecord(t, filepath.Join("/library/movies", "Film."+string(rune('A'+i))+".2020.1080p.mkv"))
	}
	if _, err := classifier.ClassifyAll(context.Background(), records); err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}

	ai.mu.Lock()
	defer ai.mu.Unlock()
	if ai.maxSeen > workers {
		t.Errorf("observed %d concurrent calls, want at most %d", ai.maxSeen, workers)
	}
	if ai.calls != len(records) {
		t.Errorf("client called %d times, want %d", ai.calls, len(records))
	}
}

// Cancellation stops new work but keeps everything already resolved.
func TestClassifyAllCancelledKeepsPartialResults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cache := newMemCache()
	cached := classification.Result{
		Category:   media.CategoryMovie,
		Confidence: 0.95,
		Source:     classification.SourceRule,
	}
	cache.Put(context.Background(), "Heat.1995.1080p.BluRay.x264.mkv", cached)
	classifier := classification.NewClassifier(cfg, logging.NewNop(), nil, nil, cache)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []media.Record{
		newRecord(t, "/library/movies/Heat.1995.1080p.BluRay.x264.mkv"),
		newRecord(t, "/library/tv/Severance.S02E03.1080p.mkv"),
	}
	results, err := classifier.ClassifyAll(ctx, records)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if results[0] == nil || !reflect.DeepEqual(*results[0], cached) {
		t.Errorf("cached record lost on cancellation: %+v", results[0])
	}
	if results[1] != nil {
		t.Errorf("unresolved record got %+v, want nil", results[1])
	}
}
