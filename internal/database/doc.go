// Package database provides connection pool management for TimescaleDB.
//
// The recorder stores streamed candles and trading signals as time-series
// rows; writes are append-only.
package database
