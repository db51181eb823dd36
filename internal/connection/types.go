package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected       = errors.New("not connected")
	ErrStaleConnection    = errors.New("connection stale (no ping)")
	ErrAlreadyClosed      = errors.New("already closed")
	ErrAllEndpointsFailed = errors.New("all endpoints failed")
)

// TimestampedMessage wraps raw frame bytes with a receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw frame bytes from the transport
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a single WebSocket transport client.
type ClientConfig struct {
	URL          string        // Feed URL (e.g., ws://localhost:8080/ws)
	DialTimeout  time.Duration // Handshake timeout for the dial
	PingTimeout  time.Duration // Max time without ping/pong before considering connection stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		DialTimeout:  4 * time.Second,
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	PrimaryURL   string        // Configured primary endpoint, tried first
	FallbackURLs []string      // Extra fallbacks, tried before the built-in defaults
	DialTimeout  time.Duration // Per-candidate dial timeout
	PingTimeout  time.Duration // Staleness threshold for the active transport
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Inbound channel buffer size
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		DialTimeout:  4 * time.Second,
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}
