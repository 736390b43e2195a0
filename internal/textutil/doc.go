// Package textutil scores similarity between normalized media titles.
//
// Scores blend token-set overlap with a character-level edit-distance
// ratio, so both reordered words ("name show" vs "show name") and typos
// ("braking bad") stay matchable. Acceptance floors are length-adaptive:
// short queries produce noisier scores and use a lower floor.
package textutil
