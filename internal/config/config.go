package config

import "time"

// Config is the root configuration for the streaming tools.
type Config struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Feed      FeedConfig      `yaml:"feed"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	History   HistoryConfig   `yaml:"history"`
	Record    RecordConfig    `yaml:"record"`
	Database  DatabaseConfig  `yaml:"database"`
	Writers   WritersConfig   `yaml:"writers"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// InstanceConfig identifies this process in logs and metrics.
type InstanceConfig struct {
	ID string `yaml:"id"`
	AZ string `yaml:"az"`
}

// FeedConfig holds the WebSocket market-data feed settings.
type FeedConfig struct {
	URL          string        `yaml:"url"`
	FallbackURLs []string      `yaml:"fallback_urls"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BufferSize   int           `yaml:"buffer_size"`
}

// ReconnectConfig holds the retry schedule applied after transport loss.
type ReconnectConfig struct {
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// RefreshConfig holds the request cadence for polled data kinds.
type RefreshConfig struct {
	Indicators time.Duration `yaml:"indicators"`
	Signals    time.Duration `yaml:"signals"`
}

// SyntheticConfig holds the fallback generator settings.
type SyntheticConfig struct {
	TickInterval      time.Duration `yaml:"tick_interval"`
	Volatility        float64       `yaml:"volatility"`
	SignalProbability float64       `yaml:"signal_probability"`
}

// MonitorConfig holds performance monitor settings.
type MonitorConfig struct {
	SampleInterval time.Duration `yaml:"sample_interval"`
	StaleAfter     time.Duration `yaml:"stale_after"`
}

// HistoryConfig holds the REST API settings for historical data.
type HistoryConfig struct {
	BaseURL      string        `yaml:"base_url"`
	FallbackURLs []string      `yaml:"fallback_urls"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
}

// RecordConfig selects what the recorder subscribes to and persists.
type RecordConfig struct {
	Symbols   []string `yaml:"symbols"`
	Timeframe string   `yaml:"timeframe"`
	Signals   bool     `yaml:"signals"`
	Backfill  int      `yaml:"backfill"`
}

// DatabaseConfig holds the TimescaleDB connection for time-series data.
type DatabaseConfig struct {
	Timescale DBConfig `yaml:"timescale"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
