package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelfward/internal/classification"
	"shelfward/internal/config"
	"shelfward/internal/media"
	"shelfward/internal/services"
	"shelfward/internal/textutil"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	defaultTimeout = 10 * time.Second

	// maxConfidence caps lookup verdicts: a catalog hit is strong evidence
	// but never certainty, since searches match loosely on title.
	maxConfidence = 0.95

	// Popularity grades confidence between baseSignal and 1.0 of the title
	// similarity. popularityPivot is where the signal saturates.
	baseSignal      = 0.80
	popularitySpan  = 0.20
	popularityPivot = 50.0
)

type searchResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
}

type searchResponse struct {
	Page         int            `json:"page"`
	Results      []searchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

// Client queries the TMDB search API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	matcher    *textutil.Matcher
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMatcher overrides the title similarity matcher.
func WithMatcher(matcher *textutil.Matcher) Option {
	return func(c *Client) {
		if matcher != nil {
			c.matcher = matcher
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	matcher, err := textutil.NewMatcher(textutil.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("build matcher: %w", err)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		matcher:    matcher,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds the client from the application configuration,
// sharing the app-wide similarity tuning.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
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
	merged := append([]Option{WithMatcher(matcher)}, opts...)
	return New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, merged...)
}

// Lookup resolves a parsed title against the catalog. A nil result with a
// nil error means the catalog had no match for the title, which is not a
// failure. kind selects the search endpoint: tv titles search /search/tv,
// everything else searches /search/movie.
func (c *Client) Lookup(ctx context.Context, title string, kind media.Category) (*classification.Result, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	endpoint := "/search/movie"
	if kind == media.CategoryTV {
		endpoint = "/search/tv"
	}
	payload, err := c.search(ctx, endpoint, title)
	if err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}

	match, similarity := c.bestResult(title, payload.Results)
	if similarity <= 0 {
		return nil, nil
	}

	category := kind
	matchedTitle := displayTitle(match)
	reasoning := fmt.Sprintf("catalog confirmed %s: %s", category, matchedTitle)
	if category == media.CategoryMovie && strings.Contains(strings.ToLower(match.Overview), "document") {
		category = media.CategoryDocumentary
		reasoning = fmt.Sprintf("catalog identified documentary: %s", matchedTitle)
	}

	confidence := similarity * (baseSignal + popularitySpan*min(match.Popularity/popularityPivot, 1))
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return &classification.Result{
		Category:   category,
		Confidence: confidence,
		Source:     classification.SourceExternal,
		Reasoning:  reasoning,
	}, nil
}

// HealthCheck verifies the API key with a fixed search.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.search(ctx, "/search/movie", "the"); err != nil {
		return err
	}
	return nil
}

func (c *Client) search(ctx context.Context, path, query string) (*searchResponse, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "tmdb", "search",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternalService, "tmdb", "search",
			fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "tmdb", "search", "decode response", err)
	}
	return &payload, nil
}

// bestResult picks the search result most similar to the query title.
// Earlier results win ties, which preserves the catalog's own relevance
// ordering.
func (c *Client) bestResult(title string, results []searchResult) (searchResult, float64) {
	best := results[0]
	bestScore := c.matcher.Similarity(title, displayTitle(best))
	for _, candidate := range results[1:] {
		if score := c.matcher.Similarity(title, displayTitle(candidate)); score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best, bestScore
}

func displayTitle(result searchResult) string {
	if result.Title != "" {
		return result.Title
	}
	return result.Name
}
