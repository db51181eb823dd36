package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tradewatch/marketstream/internal/model"
)

func TestCandles(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/history/candles" {
			t.Errorf("path = %q, want /history/candles", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"symbol":    q.Get("symbol"),
			"timeframe": q.Get("timeframe"),
			"limit":     q.Get("limit"),
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol":    "AAPL",
			"timeframe": "1m",
			"candles": []map[string]interface{}{
				{
					"timestamp": 1705328200000,
					"open":      185.5,
					"high":      186.2,
					"low":       185.1,
					"close":     185.9,
					"volume":    120500.0,
				},
				{
					"timestamp": 1705328260000,
					"open":      185.9,
					"high":      186.5,
					"low":       185.7,
					"close":     186.4,
					"volume":    98200.0,
				},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	candles, err := c.Candles(context.Background(), "AAPL", "1m", 2)
	if err != nil {
		t.Fatalf("Candles() error = %v", err)
	}

	if gotQuery["symbol"] != "AAPL" {
		t.Errorf("query symbol = %q, want AAPL", gotQuery["symbol"])
	}
	if gotQuery["timeframe"] != "1m" {
		t.Errorf("query timeframe = %q, want 1m", gotQuery["timeframe"])
	}
	if gotQuery["limit"] != "2" {
		t.Errorf("query limit = %q, want 2", gotQuery["limit"])
	}

	if len(candles) != 2 {
		t.Fatalf("len(candles) = %d, want 2", len(candles))
	}

	first := candles[0]
	if first.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", first.Symbol)
	}
	if !first.Timestamp.Equal(time.UnixMilli(1705328200000)) {
		t.Errorf("Timestamp = %v, want %v", first.Timestamp, time.UnixMilli(1705328200000))
	}
	if first.Open != 185.5 || first.High != 186.2 || first.Low != 185.1 || first.Close != 185.9 {
		t.Errorf("OHLC = %v/%v/%v/%v, want 185.5/186.2/185.1/185.9",
			first.Open, first.High, first.Low, first.Close)
	}
	if first.Volume != 120500 {
		t.Errorf("Volume = %v, want 120500", first.Volume)
	}
	if first.Origin != model.OriginLive {
		t.Errorf("Origin = %q, want %q", first.Origin, model.OriginLive)
	}
	if err := first.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	if candles[1].Close != 186.4 {
		t.Errorf("second Close = %v, want 186.4", candles[1].Close)
	}
}

func TestCandlesOmitsZeroLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("limit") {
			t.Errorf("limit should be omitted when zero, got %q", r.URL.Query().Get("limit"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol":    "TSLA",
			"timeframe": "5m",
			"candles":   []map[string]interface{}{},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	candles, err := c.Candles(context.Background(), "TSLA", "5m", 0)
	if err != nil {
		t.Fatalf("Candles() error = %v", err)
	}
	if len(candles) != 0 {
		t.Errorf("len(candles) = %d, want 0", len(candles))
	}
}

func TestCandlesErrorWrapsSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "unknown symbol"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(0, time.Millisecond))
	_, err := c.Candles(context.Background(), "NOPE", "1m", 10)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("path = %q, want /quote", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "NVDA" {
			t.Errorf("query symbol = %q, want NVDA", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol":    "NVDA",
			"price":     880.25,
			"timestamp": 1705328200000,
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	quote, err := c.Quote(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if quote.Symbol != "NVDA" {
		t.Errorf("Symbol = %q, want NVDA", quote.Symbol)
	}
	if quote.Price != 880.25 {
		t.Errorf("Price = %v, want 880.25", quote.Price)
	}
	if !quote.Timestamp.Equal(time.UnixMilli(1705328200000)) {
		t.Errorf("Timestamp = %v, want %v", quote.Timestamp, time.UnixMilli(1705328200000))
	}
}
