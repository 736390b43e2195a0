// Package duplicates finds groups of files that refer to the same logical
// media item and picks which copy to keep.
//
// Grouping runs in two passes: an exact partition on each record's canonical
// key, then a fuzzy merge that unions partitions whose titles score at or
// above the configured similarity threshold. Year and season/episode
// metadata guard the fuzzy pass so that two different films with similar
// titles never collapse into one group. Files below the configured size
// floor and split-file parts (cd1/cd2 style markers) are never duplicate
// candidates.
//
// The keeper of each group is the member with the best quality rank, then
// the largest size, then the lexicographically smallest path, so repeated
// runs over the same inputs always elect the same keeper.
package duplicates
