package stream

import (
	"errors"
	"time"

	"github.com/tradewatch/marketstream/internal/connection"
	"github.com/tradewatch/marketstream/internal/metrics"
	"github.com/tradewatch/marketstream/internal/monitor"
	"github.com/tradewatch/marketstream/internal/synthetic"
)

// Errors
var (
	ErrClosed = errors.New("stream client closed")
)

const (
	// DefaultIndicatorRefresh is the periodic re-request interval for
	// indicator subscriptions.
	DefaultIndicatorRefresh = 5 * time.Second

	// DefaultSignalRefresh is the periodic re-request interval for signal
	// subscriptions.
	DefaultSignalRefresh = 10 * time.Second
)

// Config assembles the streaming client.
type Config struct {
	// Connection configures the transport manager, including the primary
	// feed URL and any extra fallback endpoints.
	Connection connection.ManagerConfig

	// Reconnect configures loss recovery.
	Reconnect ReconnectConfig

	// IndicatorRefresh is the re-request cadence for indicator
	// subscriptions. Indicator values are pull-refreshed by the feed.
	IndicatorRefresh time.Duration

	// SignalRefresh is the re-request cadence for signal subscriptions.
	SignalRefresh time.Duration

	// Synthetic configures the fallback generator.
	Synthetic synthetic.Config

	// Monitor configures performance sampling.
	Monitor monitor.Config
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Connection:       connection.DefaultManagerConfig(),
		Reconnect:        DefaultReconnectConfig(),
		IndicatorRefresh: DefaultIndicatorRefresh,
		SignalRefresh:    DefaultSignalRefresh,
		Synthetic:        synthetic.DefaultConfig(),
		Monitor:          monitor.DefaultConfig(),
	}
}

// Option customizes a Client beyond its Config.
type Option func(*Client)

// WithMetrics attaches Prometheus collectors to the client's pipeline.
func WithMetrics(met *metrics.Metrics) Option {
	return func(c *Client) {
		c.met = met
	}
}
