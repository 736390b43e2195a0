// Package destination ranks candidate directories for a file that should
// move to another library category.
//
// Each candidate is scored by four weighted factors: fuzzy title match
// against the directory name, how tidily the directory is already
// organized, available disk space, and whether the move stays near the
// file's current volume. Free space is a hard floor rather than a factor
// weight: a candidate that cannot hold the file plus a safety buffer is
// dropped outright, and when every candidate is dropped the caller gets an
// empty list, meaning the file needs manual placement.
package destination
