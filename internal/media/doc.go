// Package media defines the shared data model for library analysis.
//
// A Record is the immutable per-file unit produced by the scanner: its
// location, size, the category implied by the library root it was found
// under, and the metadata parsed from its name. Records are never mutated
// after construction; grouping and classification produce derived values
// that reference them.
//
// QualityTag values carry a fixed total order (resolution, then source,
// then codec) used when choosing which copy of a duplicate to keep.
package media
