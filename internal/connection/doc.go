// Package connection implements the transport layer of the stream client.
//
// The Connection Manager:
//   - Owns at most one live WebSocket connection at a time
//   - Tries endpoint catalog candidates in order with a bounded per-attempt timeout
//   - Promotes the winning endpoint to the front of the catalog
//   - Forwards inbound frames to a stable channel that survives reconnects
//   - Reports abnormal transport losses to the reconnection controller
package connection
