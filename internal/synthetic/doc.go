// Package synthetic generates simulated market events while the feed is
// unreachable.
//
// The generator ticks on a fixed cadence and synthesizes, per live
// subscription: candles from a bounded random walk, indicator values in
// name-appropriate ranges, and occasional trading signals. Output is
// tagged OriginSimulated and delivered through the same registry fan-out
// as live dispatch, so consumers keep receiving data without code changes.
//
// The walk seeds from a static reference table and resumes from the last
// live price seen per symbol.
package synthetic
