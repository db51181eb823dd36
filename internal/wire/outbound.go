package wire

// Subscribe asks the feed to stream market data for symbols at one timeframe.
type Subscribe struct {
	Type      string   `json:"type"`
	Symbols   []string `json:"symbols"`
	Timeframe string   `json:"timeframe"`
}

// NewSubscribe builds a subscribe frame with the type tag filled in.
func NewSubscribe(symbols []string, timeframe string) Subscribe {
	return Subscribe{Type: TypeSubscribe, Symbols: symbols, Timeframe: timeframe}
}

// Unsubscribe stops the market-data stream for the given symbols.
type Unsubscribe struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

// NewUnsubscribe builds an unsubscribe frame.
func NewUnsubscribe(symbols []string) Unsubscribe {
	return Unsubscribe{Type: TypeUnsubscribe, Symbols: symbols}
}

// GetIndicators requests a one-shot indicator refresh for a symbol.
type GetIndicators struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// NewGetIndicators builds a get_indicators frame.
func NewGetIndicators(symbol string) GetIndicators {
	return GetIndicators{Type: TypeGetIndicators, Symbol: symbol}
}

// GetSignals requests a one-shot signal refresh for a symbol.
type GetSignals struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// NewGetSignals builds a get_signals frame.
func NewGetSignals(symbol string) GetSignals {
	return GetSignals{Type: TypeGetSignals, Symbol: symbol}
}
