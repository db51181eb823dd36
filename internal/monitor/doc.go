// Package monitor implements the Performance Monitor component.
//
// Message counts and processing latencies accumulate between samples; the
// sampling loop drains them once per interval (default 1s) to compute the
// update rate, mean latency, and a 0-100 data-quality score.
package monitor
