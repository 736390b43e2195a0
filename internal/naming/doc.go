// Package naming turns raw media file and folder names into normalized
// comparison titles plus the metadata embedded in the name: release year,
// season/episode numbers, quality tags, and multi-part markers.
//
// Normalization never fails. Malformed input degrades to a best-effort
// lowercase, whitespace-collapsed title with empty metadata.
package naming
