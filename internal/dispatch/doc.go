// Package dispatch routes decoded feed frames to subscription callbacks.
//
// The dispatcher consumes timestamped raw frames from the connection
// manager, decodes them with the wire package and fans them out through
// the subscription registry:
//   - market_data frames become candles for matching market subscriptions
//   - indicators frames become value slices for indicator subscriptions
//   - signals frames are delivered per signal to watching subscriptions
//   - error frames reach every registered error handler
//
// Frames that fail to decode or carry an unknown type are logged and
// dropped without stalling the loop. Each routed data frame feeds the
// performance monitor with its receipt-to-delivery latency.
package dispatch
