package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"shelfward/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Library roots for every category exist on disk when this returns.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Library.MovieDirs = []string{filepath.Join(base, "movies")}
	cfgVal.Library.TVDirs = []string{filepath.Join(base, "tv")}
	cfgVal.Library.DocumentaryDirs = []string{filepath.Join(base, "documentaries")}
	cfgVal.Library.StandupDirs = []string{filepath.Join(base, "standup")}
	cfgVal.Library.MinFileSizeMB = 0
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.ReportDir = filepath.Join(base, "reports")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, dirs := range [][]string{
		builder.cfg.Library.MovieDirs,
		builder.cfg.Library.TVDirs,
		builder.cfg.Library.DocumentaryDirs,
		builder.cfg.Library.StandupDirs,
		builder.cfg.Library.OtherDirs,
	} {
		for _, dir := range dirs {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				t.Fatalf("mkdir library root %s: %v", dir, err)
			}
		}
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}

	return builder.cfg
}

// WithDuplicateThreshold overrides the duplicate similarity floor.
func WithDuplicateThreshold(value float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.DuplicateThreshold = value
	}
}

// WithMinConfidence overrides the misplacement confidence floor.
func WithMinConfidence(value float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classification.MinConfidence = value
	}
}

// WithWorkers overrides the classification worker pool size.
func WithWorkers(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classification.Workers = workers
	}
}

// WithMinFileSizeMB overrides the duplicate-candidate size floor.
func WithMinFileSizeMB(mb int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.MinFileSizeMB = mb
	}
}

// WithAIEnabled turns the AI classification tier on, filling the API key so
// validation passes.
func WithAIEnabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classification.AIEnabled = true
		b.cfg.LLM.APIKey = "test-key"
	}
}

// WithLookupEnabled turns the external lookup tier on, filling the API key
// so validation passes.
func WithLookupEnabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classification.LookupEnabled = true
		b.cfg.TMDB.APIKey = "test-key"
	}
}

// WithAIBatchSize overrides how many names share one AI request.
func WithAIBatchSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classification.AIBatchSize = size
	}
}

// WithMovieDirs replaces the movie library roots. The directories are
// created on disk like the generated defaults.
func WithMovieDirs(dirs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.MovieDirs = dirs
	}
}

// WithFreeSpaceBufferGB overrides the destination free-space safety buffer.
func WithFreeSpaceBufferGB(gb int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scorer.FreeSpaceBufferGB = gb
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
