package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frame type discriminants.
const (
	TypeMarketData            = "market_data"
	TypeIndicators            = "indicators"
	TypeSignals               = "signals"
	TypeError                 = "error"
	TypeConnectionEstablished = "connection_established"

	TypeSubscribe     = "subscribe"
	TypeUnsubscribe   = "unsubscribe"
	TypeGetIndicators = "get_indicators"
	TypeGetSignals    = "get_signals"
)

// ErrUnknownType marks a frame whose type tag is not in the inbound set.
var ErrUnknownType = errors.New("unknown frame type")

// Inbound is one decoded feed frame. The implementations form a closed set;
// the dispatcher switches over the concrete type.
type Inbound interface {
	isInbound()
}

// envelope is used for type extraction before the full parse.
type envelope struct {
	Type string `json:"type"`
}

// MarketData carries one OHLCV bar for a symbol.
type MarketData struct {
	Symbol string `json:"symbol"`
	Data   Bar    `json:"data"`
}

// Bar is the candle payload of a market_data frame.
type Bar struct {
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Indicators carries the latest indicator readings for a symbol, keyed by
// indicator name. A reading's value is null for sparse series gaps.
type Indicators struct {
	Symbol     string           `json:"symbol"`
	Indicators map[string]Point `json:"indicators"`
}

// Point is a single indicator reading.
type Point struct {
	Timestamp int64    `json:"timestamp"` // epoch milliseconds
	Value     *float64 `json:"value"`
}

// Signals carries zero or more trading signals for a symbol.
type Signals struct {
	Symbol  string   `json:"symbol"`
	Signals []Signal `json:"signals"`
}

// Signal is the wire form of a trading signal.
type Signal struct {
	ID           string   `json:"id"`
	Symbol       string   `json:"symbol"`
	Timestamp    int64    `json:"timestamp"` // epoch milliseconds
	SignalType   string   `json:"signal_type"`
	Confidence   float64  `json:"confidence"`
	PriceTarget  float64  `json:"price_target"`
	CurrentPrice float64  `json:"current_price"`
	Reasoning    []string `json:"reasoning"`
	Strength     string   `json:"strength"`
}

// ErrorFrame is an error the feed reports over the data channel. The
// connection stays open after one arrives.
type ErrorFrame struct {
	Error string `json:"error"`
}

// ConnectionEstablished is the feed's greeting frame. Informational only.
type ConnectionEstablished struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func (MarketData) isInbound()            {}
func (Indicators) isInbound()            {}
func (Signals) isInbound()               {}
func (ErrorFrame) isInbound()            {}
func (ConnectionEstablished) isInbound() {}

// Decode parses a raw frame into one of the Inbound variants. A frame whose
// type tag is outside the inbound set returns ErrUnknownType; the caller
// decides whether to log or drop.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case TypeMarketData:
		var f MarketData
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode market_data: %w", err)
		}
		return f, nil

	case TypeIndicators:
		var f Indicators
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode indicators: %w", err)
		}
		return f, nil

	case TypeSignals:
		var f Signals
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode signals: %w", err)
		}
		return f, nil

	case TypeError:
		var f ErrorFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode error frame: %w", err)
		}
		return f, nil

	case TypeConnectionEstablished:
		var f ConnectionEstablished
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode connection_established: %w", err)
		}
		return f, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}
