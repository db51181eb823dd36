package synthetic

import (
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradewatch/marketstream/internal/model"
)

// referencePrices seeds the random walk for symbols we have never seen a
// live price for. Unknown symbols start at defaultReferencePrice.
var referencePrices = map[string]float64{
	"AAPL":    185.0,
	"MSFT":    370.0,
	"GOOGL":   140.0,
	"AMZN":    175.0,
	"NVDA":    880.0,
	"TSLA":    250.0,
	"META":    480.0,
	"SPY":     500.0,
	"QQQ":     430.0,
	"BTC-USD": 43000.0,
	"ETH-USD": 2300.0,
}

const defaultReferencePrice = 100.0

// defaultIndicatorNames is synthesized when a subscription names none.
var defaultIndicatorNames = []string{"macd", "rsi", "sma_20"}

var signalReasons = map[model.SignalAction][]string{
	model.ActionBuy: {
		"momentum breakout above resistance",
		"volume surge on upward move",
		"oversold bounce setup",
		"higher lows forming on pullbacks",
	},
	model.ActionSell: {
		"bearish divergence on momentum",
		"rejection at resistance level",
		"overbought conditions persisting",
		"distribution volume increasing",
	},
	model.ActionHold: {
		"consolidating within range",
		"awaiting volume confirmation",
		"mixed signals across timeframes",
	},
}

func referencePrice(symbol string) float64 {
	if p, ok := referencePrices[symbol]; ok {
		return p
	}
	return defaultReferencePrice
}

// nextBar produces one simulated candle continuing the walk from open.
// The close stays within ±volatility of the open; high and low sit just
// beyond the open/close extremes.
func nextBar(symbol string, open, volatility float64) model.Candle {
	change := (rand.Float64()*2 - 1) * volatility
	closing := open * (1 + change)

	high := max(open, closing) * (1 + rand.Float64()*0.005)
	low := min(open, closing) * (1 - rand.Float64()*0.005)
	volume := 50000 + rand.Float64()*150000

	return model.Candle{
		Symbol:    symbol,
		Timestamp: time.Now(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closing,
		Volume:    volume,
		Origin:    model.OriginSimulated,
	}
}

// indicatorValues synthesizes one value per name, ordered by name.
func indicatorValues(symbol string, price float64, names map[string]struct{}) []model.IndicatorValue {
	ordered := make([]string, 0, len(names))
	for n := range names {
		ordered = append(ordered, n)
	}
	if len(ordered) == 0 {
		ordered = append(ordered, defaultIndicatorNames...)
	}
	sort.Strings(ordered)

	now := time.Now()
	values := make([]model.IndicatorValue, 0, len(ordered))
	for _, name := range ordered {
		v := indicatorValue(name, price)
		values = append(values, model.IndicatorValue{
			Type:      name,
			Timestamp: now,
			Value:     &v,
			Origin:    model.OriginSimulated,
		})
	}
	return values
}

// indicatorValue picks a plausible value for a named indicator.
func indicatorValue(name string, price float64) float64 {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "rsi"), strings.Contains(lower, "stoch"):
		// Oscillators live mostly mid-range.
		return 30 + rand.Float64()*40
	case strings.Contains(lower, "macd"):
		return (rand.Float64() - 0.5) * 2
	case strings.Contains(lower, "ma"), strings.Contains(lower, "vwap"):
		return price * (1 + (rand.Float64()-0.5)*0.01)
	case strings.Contains(lower, "volume"), strings.Contains(lower, "obv"):
		return 50000 + rand.Float64()*150000
	default:
		return rand.Float64() * 100
	}
}

// rollSignal emits a signal for the symbol with the given probability.
func rollSignal(symbol string, price, probability float64) (model.Signal, bool) {
	if rand.Float64() >= probability {
		return model.Signal{}, false
	}

	actions := []model.SignalAction{model.ActionBuy, model.ActionSell, model.ActionHold}
	action := actions[rand.IntN(len(actions))]
	confidence := 0.6 + rand.Float64()*0.3

	target := price
	switch action {
	case model.ActionBuy:
		target = price * (1.01 + rand.Float64()*0.04)
	case model.ActionSell:
		target = price * (0.99 - rand.Float64()*0.04)
	}

	reasons := signalReasons[action]
	reasoning := []string{reasons[rand.IntN(len(reasons))]}

	return model.Signal{
		ID:           uuid.New().String(),
		Symbol:       symbol,
		Timestamp:    time.Now(),
		Action:       action,
		Confidence:   confidence,
		PriceTarget:  target,
		CurrentPrice: price,
		Reasoning:    reasoning,
		Strength:     strength(confidence),
		Origin:       model.OriginSimulated,
	}, true
}

func strength(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "strong"
	case confidence >= 0.7:
		return "moderate"
	default:
		return "weak"
	}
}
