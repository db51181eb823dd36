package subscription

import (
	"strings"
	"sync/atomic"

	"github.com/tradewatch/marketstream/internal/model"
)

// MarketData subscribes to streamed OHLCV bars for one symbol at one
// timeframe. OnError and OnDisconnect are optional.
type MarketData struct {
	Symbol       string
	Timeframe    string
	OnData       func(model.Candle)
	OnError      func(error)
	OnDisconnect func()
}

// Key returns the registry key for this subscription.
func (s MarketData) Key() string {
	return s.Symbol + "|" + s.Timeframe
}

// Indicators subscribes to periodic indicator refreshes for one symbol.
// Names records which indicators the caller asked for; the feed returns its
// full indicator set and delivery is not filtered by name.
type Indicators struct {
	Symbol  string
	Names   []string
	OnData  func([]model.IndicatorValue)
	OnError func(error)
}

// Key returns the registry key for this subscription.
func (s Indicators) Key() string {
	return "indicators:" + s.Symbol
}

// Signals subscribes to trading signals for a set of symbols.
type Signals struct {
	Symbols  []string
	OnSignal func(model.Signal)
	OnError  func(error)
}

// Key returns the registry key for this subscription.
func (s Signals) Key() string {
	return "signals:" + strings.Join(s.Symbols, ",")
}

// MarketEntry is one live market-data registry row.
type MarketEntry struct {
	Key      string
	Sub      MarketData
	disposed atomic.Bool
}

// Disposed reports whether the entry has been disposed or replaced. No
// delivery happens after it flips.
func (e *MarketEntry) Disposed() bool { return e.disposed.Load() }

func (e *MarketEntry) dispose() { e.disposed.Store(true) }

// IndicatorEntry is one live indicator registry row.
type IndicatorEntry struct {
	Key      string
	Sub      Indicators
	disposed atomic.Bool
}

// Disposed reports whether the entry has been disposed or replaced.
func (e *IndicatorEntry) Disposed() bool { return e.disposed.Load() }

func (e *IndicatorEntry) dispose() { e.disposed.Store(true) }

// SignalEntry is one live signal registry row.
type SignalEntry struct {
	Key      string
	Sub      Signals
	symbols  map[string]struct{}
	disposed atomic.Bool
}

// Disposed reports whether the entry has been disposed or replaced.
func (e *SignalEntry) Disposed() bool { return e.disposed.Load() }

func (e *SignalEntry) dispose() { e.disposed.Store(true) }

// Watches reports whether the entry's symbol set contains symbol.
func (e *SignalEntry) Watches(symbol string) bool {
	_, ok := e.symbols[symbol]
	return ok
}
