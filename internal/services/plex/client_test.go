package plex_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelfward/internal/services"
	"shelfward/internal/services/plex"
	"shelfward/internal/testsupport"
)

func TestRefreshPostsAllSections(t *testing.T) {
	var method, path, token string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		token = r.Header.Get("X-Plex-Token")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := plex.New(server.URL, "secret")
	if err := client.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if method != http.MethodPost {
		t.Errorf("expected POST, got %s", method)
	}
	if path != "/library/sections/all/refresh" {
		t.Errorf("unexpected path %s", path)
	}
	if token != "secret" {
		t.Errorf("expected token header, got %q", token)
	}
}

func TestRefreshDisabledIsNoop(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	t.Cleanup(server.Close)

	// No token means disabled even with a reachable URL.
	client := plex.New(server.URL, "")
	if err := client.Refresh(context.Background()); err != nil {
		t.Fatalf("disabled refresh should be a noop: %v", err)
	}
	if calls != 0 {
		t.Fatalf("disabled client should not call the server, got %d calls", calls)
	}
}

func TestNewFromConfigHonorsEnabledFlag(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Plex.URL = "http://plex.local:32400"
	cfg.Plex.Token = "secret"
	cfg.Plex.Enabled = false

	if plex.NewFromConfig(cfg).Enabled() {
		t.Fatal("client should stay disabled when plex.enabled is false")
	}

	cfg.Plex.Enabled = true
	if !plex.NewFromConfig(cfg).Enabled() {
		t.Fatal("client should be enabled with URL, token, and flag set")
	}
}

func TestRefreshTokenRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	err := plex.New(server.URL, "stale").Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected token")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
}

func TestCheckAuthProbesSections(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	if err := plex.New(server.URL, "secret").CheckAuth(context.Background()); err != nil {
		t.Fatalf("check auth: %v", err)
	}
	if path != "/library/sections" {
		t.Errorf("unexpected probe path %s", path)
	}
}

func TestCheckAuthRequiresConfiguration(t *testing.T) {
	err := plex.New("", "").CheckAuth(context.Background())
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestCheckAuthServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	err := plex.New(server.URL, "secret").CheckAuth(context.Background())
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
}
