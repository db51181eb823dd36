package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradewatch/marketstream/internal/config"
	"github.com/tradewatch/marketstream/internal/database"
	"github.com/tradewatch/marketstream/internal/history"
	"github.com/tradewatch/marketstream/internal/metrics"
	"github.com/tradewatch/marketstream/internal/model"
	"github.com/tradewatch/marketstream/internal/stream"
	"github.com/tradewatch/marketstream/internal/subscription"
	"github.com/tradewatch/marketstream/internal/version"
	"github.com/tradewatch/marketstream/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/recorder.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting recorder",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if len(cfg.Record.Symbols) == 0 {
		logger.Error("no symbols configured, set record.symbols")
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"feed_url", cfg.Feed.URL,
		"symbols", cfg.Record.Symbols,
		"timeframe", cfg.Record.Timeframe,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Timescale.Host,
		"port", cfg.Database.Timescale.Port,
		"database", cfg.Database.Timescale.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database.Timescale)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	met := metrics.New()

	// Create and start writers
	writerCfg := writer.WriterConfig{
		BatchSize:     cfg.Writers.BatchSize,
		FlushInterval: cfg.Writers.FlushInterval,
		BufferSize:    cfg.Writers.BufferSize,
	}
	candleWriter := writer.NewCandleWriter(writerCfg, pool, met, logger)
	signalWriter := writer.NewSignalWriter(writerCfg, pool, met, logger)

	if err := candleWriter.Start(ctx); err != nil {
		logger.Error("failed to start candle writer", "error", err)
		os.Exit(1)
	}
	if err := signalWriter.Start(ctx); err != nil {
		logger.Error("failed to start signal writer", "error", err)
		os.Exit(1)
	}

	// Backfill recent history before the live stream starts
	if cfg.Record.Backfill > 0 {
		backfill(ctx, cfg, candleWriter, logger)
	}

	// Create streaming client
	client := stream.New(streamConfig(cfg), logger, stream.WithMetrics(met))

	// Start metrics and health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHandler(cfg, met, pool, client, candleWriter, signalWriter),
	}

	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Subscribe to the configured symbols
	for _, symbol := range cfg.Record.Symbols {
		client.SubscribeMarketData(subscription.MarketData{
			Symbol:    symbol,
			Timeframe: cfg.Record.Timeframe,
			OnData: func(candle model.Candle) {
				candleWriter.Enqueue(candle, cfg.Record.Timeframe)
			},
			OnError: func(err error) {
				logger.Warn("market data error", "symbol", symbol, "error", err)
			},
			OnDisconnect: func() {
				logger.Warn("feed connection lost", "symbol", symbol)
			},
		})
	}

	if cfg.Record.Signals {
		client.SubscribeSignals(subscription.Signals{
			Symbols: cfg.Record.Symbols,
			OnSignal: func(sig model.Signal) {
				signalWriter.Enqueue(sig)
			},
			OnError: func(err error) {
				logger.Warn("signal error", "error", err)
			},
		})
	}

	// Periodic stats
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := client.PerformanceMetrics()
				cw := candleWriter.Stats()
				sw := signalWriter.Stats()
				logger.Info("stats",
					"status", snap.ConnectionStatus,
					"origin", snap.Origin,
					"rate_per_sec", fmt.Sprintf("%.2f", snap.UpdateRatePerSec),
					"candles_inserted", cw.Inserts,
					"candles_dropped", cw.Dropped,
					"signals_inserted", sw.Inserts,
					"write_errors", cw.Errors+sw.Errors,
				)
			}
		}
	}()

	logger.Info("recorder running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop the stream first so no new rows arrive, then drain the writers.
	client.Close()
	if err := candleWriter.Stop(shutdownCtx); err != nil {
		logger.Error("candle writer stop", "error", err)
	}
	if err := signalWriter.Stop(shutdownCtx); err != nil {
		logger.Error("signal writer stop", "error", err)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("recorder stopped")
}

// backfill loads recent candles over REST so charts have history before
// the first live bar lands.
func backfill(ctx context.Context, cfg *config.Config, cw *writer.CandleWriter, logger *slog.Logger) {
	hist := history.NewClient(cfg.History.BaseURL,
		history.WithFallbackURLs(cfg.History.FallbackURLs...),
		history.WithTimeout(cfg.History.Timeout),
		history.WithRetries(cfg.History.MaxRetries, time.Second),
		history.WithLogger(logger),
	)

	for _, symbol := range cfg.Record.Symbols {
		candles, err := hist.Candles(ctx, symbol, cfg.Record.Timeframe, cfg.Record.Backfill)
		if err != nil {
			logger.Warn("backfill failed", "symbol", symbol, "error", err)
			continue
		}
		enqueued := 0
		for _, candle := range candles {
			if cw.Enqueue(candle, cfg.Record.Timeframe) {
				enqueued++
			}
		}
		logger.Info("backfill complete", "symbol", symbol, "candles", enqueued)
	}
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

// createHandler builds the HTTP handler for metrics and health checks.
func createHandler(cfg *config.Config, met *metrics.Metrics, pool *pgxpool.Pool, client *stream.Client, cw *writer.CandleWriter, sw *writer.SignalWriter) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(cfg.Metrics.Path, met.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["timescaledb"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["timescaledb"] = "connected"
		}

		// Check stream
		snap := client.PerformanceMetrics()
		health.Components["stream"] = map[string]interface{}{
			"status": string(snap.ConnectionStatus),
			"origin": string(snap.Origin),
		}
		if snap.Origin == model.OriginSimulated && health.Status == "healthy" {
			health.Status = "degraded"
		}

		// Writer throughput
		cs := cw.Stats()
		ss := sw.Stats()
		health.Components["writers"] = map[string]interface{}{
			"candles_inserted": cs.Inserts,
			"signals_inserted": ss.Inserts,
			"dropped":          cs.Dropped + ss.Dropped,
			"errors":           cs.Errors + ss.Errors,
		}

		// Set response
		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(client.PerformanceMetrics())
	})

	return mux
}
