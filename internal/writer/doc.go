// Package writer implements batch writers for streamed data.
//
// Writers:
//   - Candle writer (TimescaleDB)
//   - Signal writer (TimescaleDB)
//
// All writers use append-only semantics (never update, only insert).
// Duplicate rows are absorbed by ON CONFLICT DO NOTHING on the natural key.
package writer
