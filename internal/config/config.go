package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Library describes the media library roots the analyzer walks and the file
// filters applied while scanning.
type Library struct {
	MovieDirs       []string `toml:"movie_dirs"`
	TVDirs          []string `toml:"tv_dirs"`
	DocumentaryDirs []string `toml:"documentary_dirs"`
	StandupDirs     []string `toml:"standup_dirs"`
	OtherDirs       []string `toml:"other_dirs"`
	VideoExtensions []string `toml:"video_extensions"`
	MinFileSizeMB   int      `toml:"min_file_size_mb"`
}

// Matching contains the fuzzy-title similarity knobs shared by duplicate
// grouping and destination scoring.
type Matching struct {
	DuplicateThreshold float64 `toml:"duplicate_threshold"`
	TokenWeight        float64 `toml:"token_weight"`
	EditWeight         float64 `toml:"edit_weight"`
	ShortQueryLength   int     `toml:"short_query_length"`
	ShortQueryFloor    float64 `toml:"short_query_floor"`
	LongQueryFloor     float64 `toml:"long_query_floor"`
}

// Classification contains tier gates and acceptance floors for the
// classification cascade.
type Classification struct {
	MinConfidence          float64 `toml:"min_confidence"`
	AIEnabled              bool    `toml:"ai_enabled"`
	AIAcceptConfidence     float64 `toml:"ai_accept_confidence"`
	AIBatchSize            int     `toml:"ai_batch_size"`
	LookupEnabled          bool    `toml:"lookup_enabled"`
	LookupAcceptConfidence float64 `toml:"lookup_accept_confidence"`
	Workers                int     `toml:"workers"`
}

// Scorer contains destination ranking weights. The four weights must sum to 1.
type Scorer struct {
	NameMatchWeight    float64 `toml:"name_match_weight"`
	OrganizationWeight float64 `toml:"organization_weight"`
	FreeSpaceWeight    float64 `toml:"free_space_weight"`
	ProximityWeight    float64 `toml:"proximity_weight"`
	FreeSpaceBufferGB  int     `toml:"free_space_buffer_gb"`
}

// LLM contains connection settings for the AI classification tier.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TMDB contains configuration for The Movie Database lookup tier.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Plex contains configuration for Plex Media Server section refreshes.
type Plex struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Token   string `toml:"token"`
}

// Notifications contains configuration for ntfy push notifications. An empty
// topic disables delivery.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Paths contains state, report, and log directory configuration.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	ReportDir string `toml:"report_dir"`
	LogDir    string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Shelfward.
//
// Configuration sections by subsystem:
//   - Library: scanned roots per category, extension filter, size floor
//   - Matching: fuzzy similarity weights and length-adaptive floors
//   - Classification: tier gates, acceptance floors, worker pool size
//   - Scorer: destination ranking weights and free-space buffer
//   - LLM: AI classification tier connection settings
//   - TMDB: external lookup tier settings
//   - Plex: media server refresh integration
//   - Notifications: ntfy push notification settings
//   - Paths: state, report, and log directories
//   - Logging: log format and level
type Config struct {
	Library        Library        `toml:"library"`
	Matching       Matching       `toml:"matching"`
	Classification Classification `toml:"classification"`
	Scorer         Scorer         `toml:"scorer"`
	LLM            LLM            `toml:"llm"`
	TMDB           TMDB           `toml:"tmdb"`
	Plex           Plex           `toml:"plex"`
	Notifications  Notifications  `toml:"notifications"`
	Paths          Paths          `toml:"paths"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shelfward/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/shelfward/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shelfward.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, report, and log directories. Library
// roots are inputs and are never created here; the scanner reports missing
// roots instead.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.ReportDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogDir returns the expanded log directory.
func (c *Config) LogDir() string {
	return c.Paths.LogDir
}

// InventoryPath returns the location of the SQLite inventory database.
func (c *Config) InventoryPath() string {
	return filepath.Join(c.Paths.StateDir, "inventory.db")
}

// LockPath returns the location of the advisory lock guarding analysis runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "shelfward.lock")
}

// MinFileSizeBytes returns the duplicate-candidate size floor in bytes.
func (c *Config) MinFileSizeBytes() int64 {
	return int64(c.Library.MinFileSizeMB) * 1024 * 1024
}

// LibraryRoot pairs one configured directory with the category its contents
// are assumed to hold.
type LibraryRoot struct {
	Category string
	Dir      string
}

// LibraryRoots flattens the per-category directory lists into scan order:
// movies, tv, documentaries, standup, other.
func (c *Config) LibraryRoots() []LibraryRoot {
	var roots []LibraryRoot
	appendRoots := func(category string, dirs []string) {
		for _, dir := range dirs {
			roots = append(roots, LibraryRoot{Category: category, Dir: dir})
		}
	}
	appendRoots("movie", c.Library.MovieDirs)
	appendRoots("tv", c.Library.TVDirs)
	appendRoots("documentary", c.Library.DocumentaryDirs)
	appendRoots("standup", c.Library.StandupDirs)
	appendRoots("other", c.Library.OtherDirs)
	return roots
}

// DirsFor returns the configured roots for one category name, or nil for an
// unknown category.
func (c *Config) DirsFor(category string) []string {
	switch category {
	case "movie":
		return c.Library.MovieDirs
	case "tv":
		return c.Library.TVDirs
	case "documentary":
		return c.Library.DocumentaryDirs
	case "standup":
		return c.Library.StandupDirs
	case "other":
		return c.Library.OtherDirs
	}
	return nil
}

// IsVideoFile reports whether the name carries one of the configured video
// extensions.
func (c *Config) IsVideoFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, allowed := range c.Library.VideoExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// FreeSpaceBufferBytes returns the destination free-space safety buffer in bytes.
func (c *Config) FreeSpaceBufferBytes() int64 {
	return int64(c.Scorer.FreeSpaceBufferGB) * 1024 * 1024 * 1024
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the given path.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the resolved LLM connection settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
