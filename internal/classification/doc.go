// Package classification decides which library category a media file
// belongs to.
//
// Classification runs as a tier cascade: an AI tier (batched, optional), an
// external lookup tier (optional), and a rule-based tier that always
// produces an answer. Each optional tier has its own acceptance floor; a
// below-floor or failed tier result is discarded and the next tier runs.
// Collaborator errors never escape a tier boundary, so one item's failure
// cannot abort a batch.
//
// The rule tier is a declarative ordered table. Documentary and stand-up
// markers are checked before the structural TV and movie rules because
// their vocabulary overlaps: a documentary series carries season numbering
// that would otherwise classify it as TV.
package classification
