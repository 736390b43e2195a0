// Package plex holds a minimal Plex Media Server client used to trigger
// library section rescans after files move.
package plex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shelfward/internal/config"
	"shelfward/internal/services"
)

const defaultTimeout = 10 * time.Second

// Client talks to one Plex server. A client built without a URL or token is
// disabled and turns refresh calls into noops.
type Client struct {
	baseURL    string
	token      string
	enabled    bool
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs a client for the given server URL and token.
func New(baseURL, token string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	client.enabled = client.baseURL != "" && client.token != ""
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewFromConfig builds the client from the application configuration. The
// [plex] enabled flag wins over the presence of a URL and token.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	client := New(cfg.Plex.URL, cfg.Plex.Token, opts...)
	if !cfg.Plex.Enabled {
		client.enabled = false
	}
	return client
}

// Enabled reports whether the client is configured to reach a server.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// Refresh asks the server to rescan every library section. Disabled clients
// return nil so callers can fire this unconditionally after executed moves.
func (c *Client) Refresh(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.call(ctx, http.MethodPost, "/library/sections/all/refresh", "refresh")
}

// CheckAuth verifies the server answers and accepts the configured token.
func (c *Client) CheckAuth(ctx context.Context) error {
	if !c.Enabled() {
		return services.Wrap(services.ErrConfiguration, "plex", "check auth", "server url and token required", nil)
	}
	return c.call(ctx, http.MethodGet, "/library/sections", "check auth")
}

func (c *Client) call(ctx context.Context, method, path, operation string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("plex request: new request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "plex", operation, "http error", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return services.Wrap(services.ErrExternalService, "plex", operation, "token rejected (http 401)", nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return services.Wrap(services.ErrExternalService, "plex", operation, fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	return nil
}
