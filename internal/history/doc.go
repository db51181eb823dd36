// Package history fetches historical market data over the REST API.
//
// The client walks a list of base URLs when the primary is unreachable,
// promotes the endpoint that answered, and retries retryable statuses
// (5xx, 429) with jittered exponential backoff.
package history
