package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shelfward/internal/config"

	"github.com/dustin/go-humanize"
)

const userAgent = "shelfward/0.1.0"

// Service defines the notification surface exposed to the CLI commands.
type Service interface {
	NotifyScanCompleted(ctx context.Context, fileCount int, totalBytes int64) error
	NotifyAnalysisCompleted(ctx context.Context, groups, findings int, reclaimable int64, duration time.Duration) error
	NotifyMovesExecuted(ctx context.Context, moved, failed int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyScanCompleted(ctx context.Context, fileCount int, totalBytes int64) error {
	data := payload{
		title:   "Shelfward - Scan Complete",
		message: fmt.Sprintf("Scanned %d files (%s)", fileCount, humanize.IBytes(uint64(max(totalBytes, 0)))),
		tags:    []string{"shelfward", "scan", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisCompleted(ctx context.Context, groups, findings int, reclaimable int64, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	parts := make([]string, 0, 2)
	if groups > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicate groups (%s reclaimable)",
			groups, humanize.IBytes(uint64(max(reclaimable, 0)))))
	}
	if findings > 0 {
		parts = append(parts, fmt.Sprintf("%d misplaced files", findings))
	}
	message := "Library looks clean"
	if len(parts) > 0 {
		message = strings.Join(parts, ", ")
	}

	data := payload{
		title:   "Shelfward - Analysis Complete",
		message: fmt.Sprintf("%s (%s)", message, durationText),
		tags:    []string{"shelfward", "analysis", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMovesExecuted(ctx context.Context, moved, failed int) error {
	var title, message string
	if failed == 0 {
		title = "Shelfward - Moves Complete"
		message = fmt.Sprintf("Moved %d files into place", moved)
	} else {
		title = "Shelfward - Moves Complete (with errors)"
		message = fmt.Sprintf("Moved %d files, %d failed", moved, failed)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"shelfward", "moves", "completed"},
	}
	if failed > 0 {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Shelfward - Error",
		message:  builder.String(),
		tags:     []string{"shelfward", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Shelfward - Test",
		message:  "Notification system test",
		tags:     []string{"shelfward", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyScanCompleted(context.Context, int, int64) error { return nil }
func (noopService) NotifyAnalysisCompleted(context.Context, int, int, int64, time.Duration) error {
	return nil
}
func (noopService) NotifyMovesExecuted(context.Context, int, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error    { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }
