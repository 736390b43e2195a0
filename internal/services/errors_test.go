package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"shelfward/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "classifier", "batch", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"classifier", "batch", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "scanner", "walk", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker for nil marker, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	if got := services.ExitCode(nil); got != 0 {
		t.Fatalf("ExitCode(nil) = %d, want 0", got)
	}

	configErr := services.Wrap(services.ErrConfiguration, "config", "load", "bad threshold", nil)
	if got := services.ExitCode(configErr); got != 2 {
		t.Fatalf("ExitCode(configuration) = %d, want 2", got)
	}

	validationErr := services.Wrap(services.ErrValidation, "mover", "plan", "missing path", nil)
	if got := services.ExitCode(validationErr); got != 2 {
		t.Fatalf("ExitCode(validation) = %d, want 2", got)
	}

	transientErr := services.Wrap(services.ErrTransient, "lookup", "search", "quota", errors.New("io"))
	if got := services.ExitCode(transientErr); got != 1 {
		t.Fatalf("ExitCode(transient) = %d, want 1", got)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id on bare context")
	}

	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithRoot(ctx, "/library/movies")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("RunIDFromContext = %q, %v", id, ok)
	}
	if root, ok := services.RootFromContext(ctx); !ok || root != "/library/movies" {
		t.Fatalf("RootFromContext = %q, %v", root, ok)
	}

	// Empty values never overwrite.
	ctx = services.WithRunID(ctx, "")
	if id, _ := services.RunIDFromContext(ctx); id != "run-123" {
		t.Fatalf("empty run id should be ignored, got %q", id)
	}
}
