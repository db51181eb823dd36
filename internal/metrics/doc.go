// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Frame routing throughput, decode failures and dispatch latency
//   - Reconnection attempts and fallback generator state
//   - Active subscription counts by kind
//   - Storage writer row counts and flush failures
//
// Collectors live on a private registry exposed through Handler, so a
// process can host several instances without name collisions.
package metrics
