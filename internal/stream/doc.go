// Package stream is the public facade of the market-data streaming client.
//
// A Client multiplexes market-data, indicator, and signal subscriptions
// over a single WebSocket connection:
//   - connections are established on demand, walking an endpoint catalog
//     of the configured primary plus well-known fallbacks
//   - abnormal transport loss triggers exponential-backoff reconnection
//     and an idempotent replay of every live subscription
//   - exhausting the retry budget degrades to a synthetic data generator
//     so registered callbacks keep receiving plausible, tagged data
//   - indicator and signal subscriptions re-request on fixed cadences,
//     owned by their disposers
//
// Subscribe methods never return errors; establishment failures surface
// through the subscription's OnError callback. Disposers are synchronous:
// once one returns, its callbacks are never invoked again.
package stream
