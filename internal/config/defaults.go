package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFeedURL            = "ws://localhost:8080/ws"
	DefaultHistoryURL         = "http://localhost:8080/api"
	DefaultDialTimeout        = 4 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultFeedBufferSize     = 1000
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultMaxAttempts        = 5
	DefaultIndicatorRefresh   = 5 * time.Second
	DefaultSignalRefresh      = 10 * time.Second
	DefaultSyntheticTick      = 2 * time.Second
	DefaultVolatility         = 0.02
	DefaultSignalProbability  = 0.1
	DefaultSampleInterval     = 1 * time.Second
	DefaultStaleAfter         = 5 * time.Second
	DefaultHistoryTimeout     = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultTimeframe          = "1m"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultBatchSize          = 1000
	DefaultFlushInterval      = 1 * time.Second
	DefaultBufferSize         = 10000
	DefaultMetricsPort        = 9090
	DefaultMetricsPath        = "/metrics"
)

func (c *Config) applyDefaults() {
	// Feed defaults
	if c.Feed.URL == "" {
		c.Feed.URL = DefaultFeedURL
	}
	if c.Feed.DialTimeout == 0 {
		c.Feed.DialTimeout = DefaultDialTimeout
	}
	if c.Feed.PingTimeout == 0 {
		c.Feed.PingTimeout = DefaultPingTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultFeedBufferSize
	}

	// Reconnect defaults
	if c.Reconnect.BaseDelay == 0 {
		c.Reconnect.BaseDelay = DefaultReconnectBaseDelay
	}
	if c.Reconnect.MaxAttempts == 0 {
		c.Reconnect.MaxAttempts = DefaultMaxAttempts
	}

	// Refresh defaults
	if c.Refresh.Indicators == 0 {
		c.Refresh.Indicators = DefaultIndicatorRefresh
	}
	if c.Refresh.Signals == 0 {
		c.Refresh.Signals = DefaultSignalRefresh
	}

	// Synthetic defaults
	if c.Synthetic.TickInterval == 0 {
		c.Synthetic.TickInterval = DefaultSyntheticTick
	}
	if c.Synthetic.Volatility == 0 {
		c.Synthetic.Volatility = DefaultVolatility
	}
	if c.Synthetic.SignalProbability == 0 {
		c.Synthetic.SignalProbability = DefaultSignalProbability
	}

	// Monitor defaults
	if c.Monitor.SampleInterval == 0 {
		c.Monitor.SampleInterval = DefaultSampleInterval
	}
	if c.Monitor.StaleAfter == 0 {
		c.Monitor.StaleAfter = DefaultStaleAfter
	}

	// History defaults
	if c.History.BaseURL == "" {
		c.History.BaseURL = DefaultHistoryURL
	}
	if c.History.Timeout == 0 {
		c.History.Timeout = DefaultHistoryTimeout
	}
	if c.History.MaxRetries == 0 {
		c.History.MaxRetries = DefaultMaxRetries
	}

	// Record defaults
	if c.Record.Timeframe == "" {
		c.Record.Timeframe = DefaultTimeframe
	}

	// Database defaults
	applyDBDefaults(&c.Database.Timescale)

	// Writers defaults
	if c.Writers.BatchSize == 0 {
		c.Writers.BatchSize = DefaultBatchSize
	}
	if c.Writers.FlushInterval == 0 {
		c.Writers.FlushInterval = DefaultFlushInterval
	}
	if c.Writers.BufferSize == 0 {
		c.Writers.BufferSize = DefaultBufferSize
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
