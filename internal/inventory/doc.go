// Package inventory persists scan snapshots and classification verdicts in
// a SQLite database under the state directory. Each scan is stored whole,
// so reports and move planning can work from the latest snapshot without
// re-walking the library. Classification rows are keyed by raw filename and
// survive across scans; they back the classifier's cache tier.
//
// Open takes an advisory flock on the state directory so two shelfward
// processes cannot interleave writes. The lock is released by Close.
package inventory
