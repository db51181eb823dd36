// Package model defines shared data types used across the market stream client.
//
// Conventions:
//   - Prices and volumes: float64, as carried by the feed's JSON numbers
//   - Timestamps: time.Time in the model; epoch milliseconds on the wire
//   - Provenance: every data value is tagged with a DataOrigin (live/simulated)
package model
