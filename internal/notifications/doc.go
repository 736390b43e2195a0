// Package notifications delivers analysis events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The Service methods cover the major milestones (scan, analysis,
// executed moves, errors) so commands can emit consistent messages without
// duplicating HTTP glue.
//
// Extend this package if you need alternative transports; command code
// depends only on the Service interface.
package notifications
