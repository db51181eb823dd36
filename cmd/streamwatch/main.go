// streamwatch connects to the market data feed and streams parsed messages to console.
// Usage: go run ./cmd/streamwatch --symbols AAPL,TSLA --timeframe 1m
//
// Without --config it runs on built-in defaults, which expect a feed at
// ws://localhost:8080/ws. When no endpoint answers it degrades to
// simulated data, so it is also useful for exercising the pipeline offline.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tradewatch/marketstream/internal/config"
	"github.com/tradewatch/marketstream/internal/model"
	"github.com/tradewatch/marketstream/internal/stream"
	"github.com/tradewatch/marketstream/internal/subscription"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	feedURL := flag.String("url", "", "feed websocket URL (overrides config)")
	symbolsFlag := flag.String("symbols", "AAPL,TSLA", "comma-separated symbols to watch")
	timeframe := flag.String("timeframe", "1m", "candle timeframe")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadAndValidate(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *feedURL != "" {
		cfg.Feed.URL = *feedURL
	}

	symbols := splitSymbols(*symbolsFlag)
	if len(symbols) == 0 {
		logger.Error("no symbols given")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	// Create streaming client
	client := stream.New(streamConfig(cfg), logger)

	// Subscribe per symbol
	for _, symbol := range symbols {
		client.SubscribeMarketData(subscription.MarketData{
			Symbol:    symbol,
			Timeframe: *timeframe,
			OnData: func(candle model.Candle) {
				printCandle(candle, *verbose)
			},
			OnError: func(err error) {
				logger.Warn("market data error", "symbol", symbol, "error", err)
			},
			OnDisconnect: func() {
				logger.Warn("feed connection lost", "symbol", symbol)
			},
		})

		client.SubscribeIndicators(subscription.Indicators{
			Symbol: symbol,
			OnData: func(values []model.IndicatorValue) {
				printIndicators(symbol, values, *verbose)
			},
			OnError: func(err error) {
				logger.Warn("indicator error", "symbol", symbol, "error", err)
			},
		})
	}

	client.SubscribeSignals(subscription.Signals{
		Symbols: symbols,
		OnSignal: func(sig model.Signal) {
			printSignal(sig, *verbose)
		},
		OnError: func(err error) {
			logger.Warn("signal error", "error", err)
		},
	})

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := client.PerformanceMetrics()
				logger.Info("stats",
					"status", snap.ConnectionStatus,
					"origin", snap.Origin,
					"latency_ms", fmt.Sprintf("%.2f", snap.LatencyMs),
					"rate_per_sec", fmt.Sprintf("%.2f", snap.UpdateRatePerSec),
					"quality", fmt.Sprintf("%.1f", snap.DataQuality),
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop",
		"symbols", symbols,
		"timeframe", *timeframe,
		"feed_url", cfg.Feed.URL,
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")
	client.Close()
	logger.Info("shutdown complete")
}

// streamConfig assembles the client configuration from the loaded file.
func streamConfig(cfg *config.Config) stream.Config {
	sc := stream.DefaultConfig()
	sc.Connection.PrimaryURL = cfg.Feed.URL
	sc.Connection.FallbackURLs = cfg.Feed.FallbackURLs
	sc.Connection.DialTimeout = cfg.Feed.DialTimeout
	sc.Connection.PingTimeout = cfg.Feed.PingTimeout
	sc.Connection.WriteTimeout = cfg.Feed.WriteTimeout
	sc.Connection.BufferSize = cfg.Feed.BufferSize
	sc.Reconnect.BaseDelay = cfg.Reconnect.BaseDelay
	sc.Reconnect.MaxAttempts = cfg.Reconnect.MaxAttempts
	sc.IndicatorRefresh = cfg.Refresh.Indicators
	sc.SignalRefresh = cfg.Refresh.Signals
	sc.Synthetic.TickInterval = cfg.Synthetic.TickInterval
	sc.Synthetic.Volatility = cfg.Synthetic.Volatility
	sc.Synthetic.SignalProbability = cfg.Synthetic.SignalProbability
	sc.Monitor.SampleInterval = cfg.Monitor.SampleInterval
	sc.Monitor.StaleAfter = cfg.Monitor.StaleAfter
	return sc
}

func splitSymbols(s string) []string {
	var symbols []string
	for _, part := range strings.Split(s, ",") {
		if sym := strings.TrimSpace(part); sym != "" {
			symbols = append(symbols, strings.ToUpper(sym))
		}
	}
	return symbols
}

func printCandle(c model.Candle, verbose bool) {
	if verbose {
		data, _ := json.MarshalIndent(c, "", "  ")
		fmt.Printf("[CANDLE] %s\n", data)
		return
	}
	fmt.Printf("[CANDLE] symbol=%s ts=%s o=%.2f h=%.2f l=%.2f c=%.2f vol=%.0f origin=%s\n",
		c.Symbol, c.Timestamp.Format(time.RFC3339), c.Open, c.High, c.Low, c.Close, c.Volume, c.Origin)
}

func printIndicators(symbol string, values []model.IndicatorValue, verbose bool) {
	if verbose {
		data, _ := json.MarshalIndent(values, "", "  ")
		fmt.Printf("[INDICATORS] symbol=%s %s\n", symbol, data)
		return
	}
	parts := make([]string, 0, len(values))
	origin := model.OriginLive
	for _, v := range values {
		origin = v.Origin
		if v.Value == nil {
			parts = append(parts, v.Type+"=n/a")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%.2f", v.Type, *v.Value))
	}
	fmt.Printf("[INDICATORS] symbol=%s %s origin=%s\n", symbol, strings.Join(parts, " "), origin)
}

func printSignal(s model.Signal, verbose bool) {
	if verbose {
		data, _ := json.MarshalIndent(s, "", "  ")
		fmt.Printf("[SIGNAL] %s\n", data)
		return
	}
	fmt.Printf("[SIGNAL] symbol=%s action=%s confidence=%.2f target=%.2f price=%.2f strength=%s origin=%s\n",
		s.Symbol, s.Action, s.Confidence, s.PriceTarget, s.CurrentPrice, s.Strength, s.Origin)
}
