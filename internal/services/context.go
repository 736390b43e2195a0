package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	rootKey  contextKey = "root"
)

// WithRunID annotates context with the analysis run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the analysis run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(runIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRoot annotates context with the library root being processed.
func WithRoot(ctx context.Context, root string) context.Context {
	if root == "" {
		return ctx
	}
	return context.WithValue(ctx, rootKey, root)
}

// RootFromContext returns the library root if present.
func RootFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(rootKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
