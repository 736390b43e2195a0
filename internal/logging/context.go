package logging

import (
	"context"
	"log/slog"

	"shelfward/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for analysis run identifiers.
	FieldRunID = "run_id"
	// FieldRoot is the standardized structured logging key for the library root being processed.
	FieldRoot = "root"
	// FieldPath is the standardized structured logging key for file paths.
	FieldPath = "path"
	// FieldCategory is the standardized structured logging key for media categories.
	FieldCategory = "category"
	// FieldTier is the standardized structured logging key for classification tiers.
	FieldTier = "tier"
	// FieldConfidence is the standardized structured logging key for classification confidence.
	FieldConfidence = "confidence"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if root, ok := services.RootFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRoot, root))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
