// Package llm implements the AI classification tier against an
// OpenRouter-compatible chat completions endpoint.
//
// ClassifyBatch sends one request per filename batch and maps the model's
// JSON array back onto the input positionally: entry i answers names[i],
// and a nil entry means the model's answer for that item was unusable.
// The client never retries; a failed batch surfaces as an error and the
// classifier falls through to its next tier.
//
// # Configuration
//
// Requires api_key and model, optionally base_url, referer, title, and
// timeout. HealthCheck verifies the key and model with a one-token ping
// and backs the doctor command.
package llm
