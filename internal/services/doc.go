// Package services defines shared utilities consumed by the analysis
// engine and its external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform: configuration problems fail fast, external
//     service problems degrade to the next classification tier.
//   - Context helpers that stamp run identifiers and library roots for
//     logging correlation.
//
// Use these helpers when wiring new engine logic so operational behaviour
// stays uniform across components.
package services
