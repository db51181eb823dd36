package history

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tradewatch/marketstream/internal/model"
	"github.com/tradewatch/marketstream/internal/wire"
)

type candlesResponse struct {
	Symbol    string     `json:"symbol"`
	Timeframe string     `json:"timeframe"`
	Candles   []wire.Bar `json:"candles"`
}

type quoteResponse struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
}

// Quote is the latest traded price for a symbol.
type Quote struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}

// Candles fetches up to limit historical bars for one symbol and
// timeframe, oldest first.
func (c *Client) Candles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("timeframe", timeframe)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp candlesResponse
	if err := c.get(ctx, "/history/candles", query, &resp); err != nil {
		return nil, fmt.Errorf("get candles %s: %w", symbol, err)
	}

	candles := make([]model.Candle, 0, len(resp.Candles))
	for _, bar := range resp.Candles {
		candles = append(candles, model.Candle{
			Symbol:    resp.Symbol,
			Timestamp: time.UnixMilli(bar.Timestamp),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
			Origin:    model.OriginLive,
		})
	}

	return candles, nil
}

// Quote fetches the latest price for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var resp quoteResponse
	if err := c.get(ctx, "/quote", query, &resp); err != nil {
		return nil, fmt.Errorf("get quote %s: %w", symbol, err)
	}

	return &Quote{
		Symbol:    resp.Symbol,
		Price:     resp.Price,
		Timestamp: time.UnixMilli(resp.Timestamp),
	}, nil
}
