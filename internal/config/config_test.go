package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-recorder
  az: us-east-1a
feed:
  url: wss://feed.example.com/stream
  fallback_urls:
    - ws://localhost:8080/ws
record:
  symbols: [AAPL, MSFT]
  timeframe: 5m
database:
  timescale:
    host: localhost
    port: 5432
    name: test_ts
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-recorder" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-recorder")
	}
	if cfg.Feed.URL != "wss://feed.example.com/stream" {
		t.Errorf("Feed.URL = %q, want %q", cfg.Feed.URL, "wss://feed.example.com/stream")
	}
	if len(cfg.Feed.FallbackURLs) != 1 || cfg.Feed.FallbackURLs[0] != "ws://localhost:8080/ws" {
		t.Errorf("Feed.FallbackURLs = %v, want [ws://localhost:8080/ws]", cfg.Feed.FallbackURLs)
	}
	if len(cfg.Record.Symbols) != 2 || cfg.Record.Symbols[0] != "AAPL" {
		t.Errorf("Record.Symbols = %v, want [AAPL MSFT]", cfg.Record.Symbols)
	}
	if cfg.Record.Timeframe != "5m" {
		t.Errorf("Record.Timeframe = %q, want %q", cfg.Record.Timeframe, "5m")
	}
	if cfg.Database.Timescale.Host != "localhost" {
		t.Errorf("Database.Timescale.Host = %q, want %q", cfg.Database.Timescale.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-recorder
database:
  timescale:
    host: localhost
    name: test_ts
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Timescale.Password != "secret123" {
		t.Errorf("Database.Timescale.Password = %q, want %q", cfg.Database.Timescale.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-recorder
database:
  timescale:
    host: localhost
    name: test_ts
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Feed.URL != DefaultFeedURL {
		t.Errorf("Feed.URL = %q, want default %q", cfg.Feed.URL, DefaultFeedURL)
	}
	if cfg.Feed.DialTimeout != DefaultDialTimeout {
		t.Errorf("Feed.DialTimeout = %v, want default %v", cfg.Feed.DialTimeout, DefaultDialTimeout)
	}
	if cfg.Reconnect.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("Reconnect.MaxAttempts = %d, want default %d", cfg.Reconnect.MaxAttempts, DefaultMaxAttempts)
	}
	if cfg.Refresh.Indicators != DefaultIndicatorRefresh {
		t.Errorf("Refresh.Indicators = %v, want default %v", cfg.Refresh.Indicators, DefaultIndicatorRefresh)
	}
	if cfg.Synthetic.Volatility != DefaultVolatility {
		t.Errorf("Synthetic.Volatility = %v, want default %v", cfg.Synthetic.Volatility, DefaultVolatility)
	}
	if cfg.Database.Timescale.Port != DefaultDBPort {
		t.Errorf("Database.Timescale.Port = %d, want default %d", cfg.Database.Timescale.Port, DefaultDBPort)
	}
	if cfg.Database.Timescale.MaxConns != DefaultMaxConns {
		t.Errorf("Database.Timescale.MaxConns = %d, want default %d", cfg.Database.Timescale.MaxConns, DefaultMaxConns)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Feed.URL != DefaultFeedURL {
		t.Errorf("Feed.URL = %q, want %q", cfg.Feed.URL, DefaultFeedURL)
	}
	if cfg.Record.Timeframe != DefaultTimeframe {
		t.Errorf("Record.Timeframe = %q, want %q", cfg.Record.Timeframe, DefaultTimeframe)
	}
	if cfg.Writers.BatchSize != DefaultBatchSize {
		t.Errorf("Writers.BatchSize = %d, want %d", cfg.Writers.BatchSize, DefaultBatchSize)
	}
}

func TestValidate(t *testing.T) {
	validDB := DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2}

	valid := Config{
		Instance:  InstanceConfig{ID: "test"},
		Feed:      FeedConfig{URL: "ws://localhost:8080/ws"},
		Reconnect: ReconnectConfig{BaseDelay: time.Second, MaxAttempts: 5},
		Database:  DatabaseConfig{Timescale: validDB},
		Writers:   WritersConfig{BatchSize: 1000, FlushInterval: time.Second, BufferSize: 10000},
		Metrics:   MetricsConfig{Port: 9090},
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "feed url wrong scheme",
			mutate:  func(c *Config) { c.Feed.URL = "https://feed.example.com" },
			wantErr: `feed.url must use ws:// or wss://, got "https://feed.example.com"`,
		},
		{
			name:    "bad fallback url",
			mutate:  func(c *Config) { c.Feed.FallbackURLs = []string{"tcp://nope"} },
			wantErr: `feed.fallback_urls entry must use ws:// or wss://, got "tcp://nope"`,
		},
		{
			name:    "zero reconnect attempts",
			mutate:  func(c *Config) { c.Reconnect.MaxAttempts = 0 },
			wantErr: "reconnect.max_attempts must be >= 1",
		},
		{
			name:    "volatility out of range",
			mutate:  func(c *Config) { c.Synthetic.Volatility = 1.5 },
			wantErr: "synthetic.volatility must be between 0 and 1, got 1.5",
		},
		{
			name:    "missing db host",
			mutate:  func(c *Config) { c.Database.Timescale.Host = "" },
			wantErr: "database.timescale.host is required",
		},
		{
			name:    "missing db password",
			mutate:  func(c *Config) { c.Database.Timescale.Password = "" },
			wantErr: "database.timescale.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Database.Timescale.MaxConns = 5
				c.Database.Timescale.MinConns = 10
			},
			wantErr: "database.timescale.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Writers.BatchSize = 0 },
			wantErr: "writers.batch_size must be >= 1",
		},
		{
			name:    "metrics port out of range",
			mutate:  func(c *Config) { c.Metrics.Port = 70000 },
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
