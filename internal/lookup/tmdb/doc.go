// Package tmdb implements the external lookup tier against The Movie
// Database v3 API.
//
// Lookup searches /search/tv or /search/movie depending on the record's
// parse, picks the result most similar to the parsed title, and grades
// confidence by similarity and catalog popularity, capped at 0.95. An
// empty result set is a nil verdict, not an error; only transport and
// decode failures are errors.
package tmdb
