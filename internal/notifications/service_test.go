package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shelfward/internal/config"
	"shelfward/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyScanCompleted(context.Background(), 10, 1<<30); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop test notification to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "scan completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyScanCompleted(context.Background(), 312, 2<<30)
			},
			expectTitle:   "Shelfward - Scan Complete",
			expectMessage: "Scanned 312 files (2.0 GiB)",
			expectTags:    "shelfward,scan,completed",
		},
		{
			name: "analysis with findings",
			notify: func(svc notifications.Service) error {
				return svc.NotifyAnalysisCompleted(context.Background(), 3, 7, 2<<30, 42*time.Second)
			},
			expectTitle:   "Shelfward - Analysis Complete",
			expectMessage: "3 duplicate groups (2.0 GiB reclaimable), 7 misplaced files (42s)",
			expectTags:    "shelfward,analysis,completed",
		},
		{
			name: "analysis clean library",
			notify: func(svc notifications.Service) error {
				return svc.NotifyAnalysisCompleted(context.Background(), 0, 0, 0, 5*time.Second)
			},
			expectTitle:   "Shelfward - Analysis Complete",
			expectMessage: "Library looks clean (5s)",
			expectTags:    "shelfward,analysis,completed",
		},
		{
			name: "moves without failures",
			notify: func(svc notifications.Service) error {
				return svc.NotifyMovesExecuted(context.Background(), 4, 0)
			},
			expectTitle:   "Shelfward - Moves Complete",
			expectMessage: "Moved 4 files into place",
			expectTags:    "shelfward,moves,completed",
		},
		{
			name: "moves with failures",
			notify: func(svc notifications.Service) error {
				return svc.NotifyMovesExecuted(context.Background(), 4, 2)
			},
			expectTitle:    "Shelfward - Moves Complete (with errors)",
			expectMessage:  "Moved 4 files, 2 failed",
			expectTags:     "shelfward,moves,completed",
			expectPriority: "high",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("store locked"), "analysis")
			},
			expectTitle:    "Shelfward - Error",
			expectMessage:  "Error during analysis: store locked",
			expectTags:     "shelfward,error,alert",
			expectPriority: "high",
		},
		{
			name: "test notification",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Shelfward - Test",
			expectMessage:  "Notification system test",
			expectTags:     "shelfward,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSurfacesHTTPFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from ntfy failure")
	}
}
