// Package logging constructs the shared slog logger and the attribute
// helpers used across the analysis engine.
//
// Two output formats are supported: "console" renders compact
// timestamp/level/component lines for interactive use, "json" emits one
// structured object per line for ingestion. Component loggers stamp a
// standard component attribute so console output can group by subsystem.
package logging
