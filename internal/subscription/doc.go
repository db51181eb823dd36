// Package subscription implements the keyed table of active data interests.
//
// Three kinds are multiplexed over one transport connection:
//   - market data, keyed "SYMBOL|timeframe"
//   - indicator refreshes, keyed "indicators:SYMBOL"
//   - signal watches, keyed "signals:SYM1,SYM2"
//
// Registering an existing key replaces the prior entry. Disposal is
// synchronous: once an entry's flag flips, no further callback runs, even
// if a fan-out snapshot taken earlier still holds it.
package subscription
