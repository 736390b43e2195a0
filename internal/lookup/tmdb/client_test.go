package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shelfward/internal/lookup/tmdb"
	"shelfward/internal/media"
	"shelfward/internal/services"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestLookupMovieMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "key" {
			t.Fatalf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("query") != "heat" {
			t.Fatalf("unexpected query %q", r.URL.Query().Get("query"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":949,"title":"Heat","popularity":60.5}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	result, err := client.Lookup(context.Background(), "heat", media.CategoryMovie)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a match")
	}
	if result.Category != media.CategoryMovie {
		t.Fatalf("category = %s, want movie", result.Category)
	}
	if result.Source != "external_api" {
		t.Fatalf("source = %s, want external_api", result.Source)
	}
	if result.Confidence != 0.95 {
		t.Fatalf("expected capped confidence 0.95 for an exact popular match, got %v", result.Confidence)
	}
}

func TestLookupTVUsesTVEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"name":"Severance","popularity":80}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	result, err := client.Lookup(context.Background(), "severance", media.CategoryTV)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if result == nil || result.Category != media.CategoryTV {
		t.Fatalf("expected tv match, got %#v", result)
	}
}

func TestLookupNoMatchIsNilNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[],"total_results":0}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	result, err := client.Lookup(context.Background(), "zzz nonexistent title", media.CategoryMovie)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil for no match, got %#v", result)
	}
}

func TestLookupEmptyTitleSkipsRequest(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	result, err := client.Lookup(context.Background(), "   ", media.CategoryMovie)
	if err != nil || result != nil {
		t.Fatalf("expected nil/nil for empty title, got %#v / %v", result, err)
	}
	if calls != 0 {
		t.Fatalf("expected no requests, got %d", calls)
	}
}

func TestLookupHTTPErrorWrapsExternalService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status_code":500}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = client.Lookup(context.Background(), "anything", media.CategoryMovie)
	if err == nil {
		t.Fatal("expected error when TMDB returns non-200")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
	if !strings.Contains(err.Error(), "latency=") {
		t.Fatalf("expected latency in error text, got %v", err)
	}
}

func TestLookupDocumentaryOverviewProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":7,"title":"Free Solo","overview":"A documentary about climbing El Capitan.","popularity":30}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	result, err := client.Lookup(context.Background(), "free solo", media.CategoryMovie)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if result == nil || result.Category != media.CategoryDocumentary {
		t.Fatalf("expected documentary reclassification, got %#v", result)
	}
	if !strings.Contains(result.Reasoning, "documentary") {
		t.Fatalf("expected documentary reasoning, got %q", result.Reasoning)
	}
}

func TestLookupPrefersMostSimilarTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[
            {"id":1,"title":"Heating Up","popularity":90},
            {"id":2,"title":"Heat","popularity":10}
        ]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	result, err := client.Lookup(context.Background(), "heat", media.CategoryMovie)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a match")
	}
	if !strings.Contains(result.Reasoning, "Heat") || strings.Contains(result.Reasoning, "Heating") {
		t.Fatalf("expected the exact title to win, got %q", result.Reasoning)
	}
}

func TestLookupPopularityGradesConfidence(t *testing.T) {
	cases := []struct {
		name       string
		popularity string
		want       float64
	}{
		{"unknown title floor", "0", 0.8},
		{"popular title cap", "120", 0.95},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Heat","popularity":` + tc.popularity + `}]}`))
			}))
			t.Cleanup(server.Close)

			client, err := tmdb.New("key", server.URL, "")
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			result, err := client.Lookup(context.Background(), "heat", media.CategoryMovie)
			if err != nil {
				t.Fatalf("Lookup returned error: %v", err)
			}
			if result == nil || result.Confidence != tc.want {
				t.Fatalf("expected confidence %v, got %#v", tc.want, result)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}
