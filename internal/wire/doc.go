// Package wire defines the JSON frame formats exchanged with the market feed.
//
// Inbound frames are decoded into a closed set of variants (the Inbound
// interface) by declared type tag:
//   - market_data: one OHLCV bar for a symbol
//   - indicators: latest indicator readings, keyed by name
//   - signals: trading signal batch
//   - error: feed-reported error, connection stays open
//   - connection_established: greeting, informational
//
// Outbound frames (subscribe, unsubscribe, get_indicators, get_signals) are
// built through New* constructors so the type tag is never missing.
//
// All wire timestamps are epoch milliseconds.
package wire
