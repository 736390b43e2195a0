package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shelfward/internal/classification"
	"shelfward/internal/config"
	"shelfward/internal/media"
	"shelfward/internal/services"
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 15 * time.Second
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"

	// defaultBatchConfidence stands in when the model names a category but
	// omits a usable confidence value.
	defaultBatchConfidence = 0.8
)

// Config captures the runtime settings required to talk to the model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// DefaultHTTPTimeout returns the default timeout used for model requests.
func DefaultHTTPTimeout() time.Duration {
	return defaultHTTPTimeout
}

// Client wraps an OpenRouter-compatible chat completion API.
type Client struct {
	cfg        Config
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

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// NewClientFromConfig builds the client from the application configuration.
func NewClientFromConfig(cfg *config.Config, opts ...Option) *Client {
	llmCfg := cfg.GetLLM()
	return NewClient(Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	}, opts...)
}

const classifySystemPrompt = "You classify media filenames into library categories. Respond with JSON only."

// ClassifyBatch classifies a batch of filenames in one request. The returned
// slice matches names positionally; a nil entry means the model's answer for
// that item was missing or unusable. A non-nil error means the whole batch
// failed and nothing was classified.
func (c *Client) ClassifyBatch(ctx context.Context, names []string) ([]*classification.Result, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "llm", "classify batch", "api key required", nil)
	}

	content, err := c.completeJSON(ctx, classifySystemPrompt, buildBatchPrompt(names))
	if err != nil {
		return nil, err
	}

	entries, err := decodeBatchEntries(content)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "llm", "classify batch", "parse payload", err)
	}

	results := make([]*classification.Result, len(names))
	for i := range names {
		if i < len(entries) {
			results[i] = entryResult(entries[i])
		}
	}
	return results, nil
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "llm", "health", "api key required", nil)
	}
	content, err := c.completeJSON(ctx,
		"You must respond with JSON only.",
		"Respond with {\"ok\":true}")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return services.Wrap(services.ErrExternalService, "llm", "health", "parse payload", err)
	}
	if !parsed.OK {
		return services.Wrap(services.ErrExternalService, "llm", "health", "unexpected response", nil)
	}
	return nil
}

func buildBatchPrompt(names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify each of the following %d media filenames as one of: movie, tv, documentary, standup, other.\n\n", len(names))
	b.WriteString("Files:\n")
	for i, name := range names {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	b.WriteString("\nRespond with a JSON array containing one entry per file, in the same order. ")
	b.WriteString("Each entry must have \"filename\", \"category\", and \"confidence\" (0 to 1) fields.\n\n")
	b.WriteString("Example response format:\n")
	b.WriteString(`[
  {"filename": "The.Dark.Knight.2008.1080p.BluRay.mkv", "category": "movie", "confidence": 0.97},
  {"filename": "Game.of.Thrones.S01E01.720p.HDTV.mkv", "category": "tv", "confidence": 0.95}
]`)
	return b.String()
}

type batchEntry struct {
	Filename   string  `json:"filename"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// decodeBatchEntries accepts either a bare JSON array or an object wrapping
// one, since json-mode providers sometimes refuse to emit a top-level array.
func decodeBatchEntries(content string) ([]batchEntry, error) {
	var entries []batchEntry
	arrayErr := DecodeLLMJSON(content, &entries)
	if arrayErr == nil {
		return entries, nil
	}
	var wrapped struct {
		Results []batchEntry `json:"results"`
	}
	if err := DecodeLLMJSON(content, &wrapped); err == nil && wrapped.Results != nil {
		return wrapped.Results, nil
	}
	return nil, arrayErr
}

func entryResult(entry batchEntry) *classification.Result {
	category, ok := media.ParseCategory(entry.Category)
	if !ok {
		return nil
	}
	confidence := entry.Confidence
	if confidence <= 0 {
		confidence = defaultBatchConfidence
	}
	if confidence > 1 {
		confidence = 1
	}
	return &classification.Result{
		Category:   category,
		Confidence: confidence,
		Source:     classification.SourceAI,
	}
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers mistakenly return the streaming schema (delta) even
		// when stream=false, so tolerate it as a fallback.
		Delta chatCompletionMessage `json:"delta"`
		// Legacy "text" field (completion-style responses).
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

func (c *Client) completeJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	completion, body, err := c.sendChatRequest(ctx, payload)
	if err != nil {
		return "", err
	}
	content, finishReason := extractCompletionPayload(completion)
	if content == "" {
		if len(completion.Choices) == 0 {
			return "", services.Wrap(services.ErrExternalService, "llm", "complete", "empty choices", nil)
		}
		detail := fmt.Sprintf("empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
			finishReason, extractCompletionRefusal(completion), summarizePayloadSnippet(string(body)))
		return "", services.Wrap(services.ErrExternalService, "llm", "complete", detail, nil)
	}
	return content, nil
}

func (c *Client) sendChatRequest(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, services.Wrap(services.ErrExternalService, "llm", "request",
			fmt.Sprintf("http error (timeout=%s)", c.timeoutDuration()), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, nil, services.Wrap(services.ErrExternalService, "llm", "request",
			fmt.Sprintf("read body (timeout=%s)", c.timeoutDuration()), err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		detail := fmt.Sprintf("http %d: %s", resp.StatusCode, summarizePayloadSnippet(string(body)))
		return completion, body, services.Wrap(services.ErrExternalService, "llm", "request", detail, nil)
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, services.Wrap(services.ErrExternalService, "llm", "request", "decode response", err)
	}
	if completion.Error != nil {
		detail := "api error: " + strings.TrimSpace(completion.Error.Message)
		return completion, body, services.Wrap(services.ErrExternalService, "llm", "request", detail, nil)
	}
	return completion, body, nil
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func extractCompletionPayload(completion chatCompletionResponse) (string, string) {
	var finishReason string
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if content := firstNonEmpty(
			choice.Message.Content,
			choice.Delta.Content,
			choice.Text,
		); content != "" {
			return content, finishReason
		}
	}
	return "", finishReason
}

func extractCompletionRefusal(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if refusal := firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// DecodeLLMJSON decodes JSON from a model response, handling common
// formatting quirks such as code fences and prose-wrapped payloads.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}

	sanitizedErr := json.Unmarshal([]byte(sanitized), target)
	if sanitizedErr == nil {
		return nil
	}
	return fmt.Errorf("%w (sanitized payload snippet: %s)", sanitizedErr, summarizePayloadSnippet(sanitized))
}

// sanitizeJSONPayload strips code fences and extracts the first JSON array
// or object from prose. Arrays are tried first since batch responses are
// arrays whose elements would otherwise match the object probe.
func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
