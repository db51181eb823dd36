package model

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Connection & Provenance
// -----------------------------------------------------------------------------

// ConnState identifies the lifecycle state of the feed connection.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"     // no transport, no retry in progress
	StateConnecting   ConnState = "connecting"       // dial or reconnect attempt in flight
	StateConnected    ConnState = "connected"        // transport open, messages routing
	StateError        ConnState = "error"            // transport lost, retries running or exhausted
	StateFallback     ConnState = "fallback_active"  // synthetic generator feeding subscribers
)

// DataOrigin tags a value as produced by the live feed or synthesized locally.
type DataOrigin string

const (
	OriginLive      DataOrigin = "live"
	OriginSimulated DataOrigin = "simulated"
)

// -----------------------------------------------------------------------------
// Time-Series Types
// -----------------------------------------------------------------------------

// Candle is one OHLCV bar for a symbol.
type Candle struct {
	Symbol    string     // Instrument symbol (e.g., "AAPL")
	Timestamp time.Time  // Bar time
	Open      float64    // Opening price
	High      float64    // Highest price, >= max(Open, Close)
	Low       float64    // Lowest price, <= min(Open, Close)
	Close     float64    // Closing price
	Volume    float64    // Traded volume, >= 0
	Origin    DataOrigin // live or simulated
}

// Validate reports whether the bar satisfies OHLCV ordering.
func (c Candle) Validate() error {
	if c.High < c.Open || c.High < c.Close {
		return fmt.Errorf("candle %s: high %v below open/close", c.Symbol, c.High)
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("candle %s: low %v above open/close", c.Symbol, c.Low)
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle %s: negative volume %v", c.Symbol, c.Volume)
	}
	return nil
}

// IndicatorValue is a single point of a computed indicator series.
// Value is nil when the indicator has no reading at this timestamp;
// sparse series (crossover markers, band touches) are expected.
type IndicatorValue struct {
	Type      string     // Indicator name (e.g., "RSI", "SMA_20")
	Timestamp time.Time  // Point time
	Value     *float64   // nil = no reading at this timestamp
	Origin    DataOrigin // live or simulated
}

// SignalAction is the recommended action carried by a trading signal.
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// Signal is a trading recommendation emitted by the feed or synthesized locally.
type Signal struct {
	ID           string       // Unique signal ID
	Symbol       string       // Instrument symbol
	Timestamp    time.Time    // Emission time
	Action       SignalAction // BUY, SELL, or HOLD
	Confidence   float64      // Model confidence, 0.0-1.0
	PriceTarget  float64      // Suggested target price
	CurrentPrice float64      // Price at emission
	Reasoning    []string     // Human-readable rationale lines
	Strength     string       // "weak", "moderate", or "strong"
	Origin       DataOrigin   // live or simulated
}

// Validate reports whether the signal carries a known action and a
// confidence inside [0, 1].
func (s Signal) Validate() error {
	switch s.Action {
	case ActionBuy, ActionSell, ActionHold:
	default:
		return fmt.Errorf("signal %s: unknown action %q", s.ID, s.Action)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("signal %s: confidence %v outside [0,1]", s.ID, s.Confidence)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Diagnostics
// -----------------------------------------------------------------------------

// PerformanceSnapshot is a point-in-time view of feed health, recomputed once
// per monitor sampling interval.
type PerformanceSnapshot struct {
	LatencyMs        float64    // Mean processing latency over the last interval (ms)
	UpdateRatePerSec float64    // Messages per second over the last interval
	DataQuality      float64    // Composite score, 0-100
	ConnectionStatus ConnState  // Externally reported connection state
	Origin           DataOrigin // live while routing feed data, simulated in fallback
	LastUpdate       time.Time  // Time of the most recent message, zero if none yet
}

// FeedError is an error the feed reported over the data channel. The
// connection stays open when one arrives; it is fanned out to every
// registered error callback.
type FeedError struct {
	Message string
}

func (e *FeedError) Error() string {
	return "feed error: " + e.Message
}
