package dispatch

import (
	"sort"
	"time"

	"github.com/tradewatch/marketstream/internal/model"
	"github.com/tradewatch/marketstream/internal/wire"
)

// toCandle converts a market_data frame to a model candle.
func toCandle(f wire.MarketData) model.Candle {
	return model.Candle{
		Symbol:    f.Symbol,
		Timestamp: time.UnixMilli(f.Data.Timestamp),
		Open:      f.Data.Open,
		High:      f.Data.High,
		Low:       f.Data.Low,
		Close:     f.Data.Close,
		Volume:    f.Data.Volume,
		Origin:    model.OriginLive,
	}
}

// toIndicatorValues flattens the name-keyed indicator map into a slice
// ordered by indicator name. Null values pass through as nil pointers.
func toIndicatorValues(f wire.Indicators) []model.IndicatorValue {
	names := make([]string, 0, len(f.Indicators))
	for name := range f.Indicators {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]model.IndicatorValue, 0, len(names))
	for _, name := range names {
		p := f.Indicators[name]
		values = append(values, model.IndicatorValue{
			Type:      name,
			Timestamp: time.UnixMilli(p.Timestamp),
			Value:     p.Value,
			Origin:    model.OriginLive,
		})
	}
	return values
}

// toSignal converts a wire signal to a model signal.
func toSignal(s wire.Signal) model.Signal {
	return model.Signal{
		ID:           s.ID,
		Symbol:       s.Symbol,
		Timestamp:    time.UnixMilli(s.Timestamp),
		Action:       model.SignalAction(s.SignalType),
		Confidence:   s.Confidence,
		PriceTarget:  s.PriceTarget,
		CurrentPrice: s.CurrentPrice,
		Reasoning:    s.Reasoning,
		Strength:     s.Strength,
		Origin:       model.OriginLive,
	}
}
