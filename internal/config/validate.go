package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const weightSumTolerance = 1e-9

// Validate ensures the configuration is usable. The first violation found is
// returned; callers treat any error as fatal.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateClassification(); err != nil {
		return err
	}
	if err := c.validateScorer(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validatePlex(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLibrary() error {
	total := len(c.Library.MovieDirs) + len(c.Library.TVDirs) + len(c.Library.DocumentaryDirs) +
		len(c.Library.StandupDirs) + len(c.Library.OtherDirs)
	if total == 0 {
		return errors.New("library must configure at least one of movie_dirs, tv_dirs, documentary_dirs, standup_dirs, other_dirs")
	}
	if len(c.Library.VideoExtensions) == 0 {
		return errors.New("library.video_extensions must include at least one extension")
	}
	for _, ext := range c.Library.VideoExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("library.video_extensions entry %q must start with a dot", ext)
		}
	}
	if c.Library.MinFileSizeMB < 0 {
		return errors.New("library.min_file_size_mb must be >= 0")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.DuplicateThreshold < 0 || c.Matching.DuplicateThreshold > 1 {
		return errors.New("matching.duplicate_threshold must be between 0 and 1")
	}
	if c.Matching.TokenWeight < 0 {
		return errors.New("matching.token_weight must not be negative")
	}
	if c.Matching.EditWeight < 0 {
		return errors.New("matching.edit_weight must not be negative")
	}
	if math.Abs(c.Matching.TokenWeight+c.Matching.EditWeight-1) > weightSumTolerance {
		return errors.New("matching.token_weight and matching.edit_weight must sum to 1")
	}
	if c.Matching.ShortQueryLength < 1 {
		return errors.New("matching.short_query_length must be at least 1")
	}
	if c.Matching.ShortQueryFloor < 0 || c.Matching.ShortQueryFloor > 1 {
		return errors.New("matching.short_query_floor must be between 0 and 1")
	}
	if c.Matching.LongQueryFloor < 0 || c.Matching.LongQueryFloor > 1 {
		return errors.New("matching.long_query_floor must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateClassification() error {
	for key, value := range map[string]float64{
		"classification.min_confidence":           c.Classification.MinConfidence,
		"classification.ai_accept_confidence":     c.Classification.AIAcceptConfidence,
		"classification.lookup_accept_confidence": c.Classification.LookupAcceptConfidence,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", key)
		}
	}
	if c.Classification.Workers < 1 || c.Classification.Workers > 20 {
		return errors.New("classification.workers must be between 1 and 20")
	}
	if c.Classification.AIBatchSize < 1 || c.Classification.AIBatchSize > 50 {
		return errors.New("classification.ai_batch_size must be between 1 and 50")
	}
	return nil
}

func (c *Config) validateScorer() error {
	sum := 0.0
	for key, value := range map[string]float64{
		"scorer.name_match_weight":   c.Scorer.NameMatchWeight,
		"scorer.organization_weight": c.Scorer.OrganizationWeight,
		"scorer.free_space_weight":   c.Scorer.FreeSpaceWeight,
		"scorer.proximity_weight":    c.Scorer.ProximityWeight,
	} {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
		sum += value
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return errors.New("scorer weights must sum to 1")
	}
	if c.Scorer.FreeSpaceBufferGB < 0 {
		return errors.New("scorer.free_space_buffer_gb must be >= 0")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.Classification.AIEnabled && strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("llm.api_key must be set when classification.ai_enabled is true (or set OPENROUTER_API_KEY)")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.Classification.LookupEnabled && strings.TrimSpace(c.TMDB.APIKey) == "" {
		return errors.New("tmdb.api_key must be set when classification.lookup_enabled is true (or set TMDB_API_KEY)")
	}
	if strings.TrimSpace(c.TMDB.BaseURL) == "" {
		return errors.New("tmdb.base_url must be set")
	}
	return nil
}

func (c *Config) validatePlex() error {
	if !c.Plex.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Plex.URL) == "" {
		return errors.New("plex.url must be set when plex.enabled is true")
	}
	if strings.TrimSpace(c.Plex.Token) == "" {
		return errors.New("plex.token must be set when plex.enabled is true (or set PLEX_TOKEN)")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
