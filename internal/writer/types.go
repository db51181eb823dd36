package writer

import (
	"time"
)

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the input queue capacity. Enqueue drops once it fills.
	BufferSize int
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     1000,
		FlushInterval: 1 * time.Second,
		BufferSize:    10000,
	}
}

// candleRow represents a row to be inserted into the candles table.
type candleRow struct {
	BarTs      int64 // Microseconds
	ReceivedAt int64 // Microseconds
	Symbol     string
	Timeframe  string
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	Origin     string
}

// signalRow represents a row to be inserted into the signals table.
type signalRow struct {
	SignalID     string
	EmittedTs    int64 // Microseconds
	ReceivedAt   int64 // Microseconds
	Symbol       string
	Action       string
	Confidence   float64
	PriceTarget  float64
	CurrentPrice float64
	Strength     string
	Reasoning    []string
	Origin       string
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Dropped   int64
	Errors    int64
	Flushes   int64
}
