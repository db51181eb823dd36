package stream

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tradewatch/marketstream/internal/connection"
	"github.com/tradewatch/marketstream/internal/dispatch"
	"github.com/tradewatch/marketstream/internal/metrics"
	"github.com/tradewatch/marketstream/internal/model"
	"github.com/tradewatch/marketstream/internal/monitor"
	"github.com/tradewatch/marketstream/internal/subscription"
	"github.com/tradewatch/marketstream/internal/synthetic"
	"github.com/tradewatch/marketstream/internal/wire"
)

// Client is the streaming facade: it multiplexes logical subscriptions
// over one transport connection, survives endpoint and network failures,
// and degrades to synthetic data instead of going silent. Construct one
// per process and pass it to consumers; there are no package-level
// singletons.
type Client struct {
	cfg    Config
	logger *slog.Logger
	met    *metrics.Metrics

	mgr      connection.Manager
	registry *subscription.Registry
	perf     *monitor.Monitor
	disp     dispatch.Dispatcher
	gen      *synthetic.Generator
	ctrl     *reconnector

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	closed    atomic.Bool
}

// New assembles and starts the streaming pipeline. The client dials on
// demand: the first subscribe triggers the connection.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	catalog := connection.NewEndpointCatalog(cfg.Connection.PrimaryURL, cfg.Connection.FallbackURLs...)
	c.registry = subscription.NewRegistry()
	c.perf = monitor.New(cfg.Monitor, logger)
	c.mgr = connection.NewManager(cfg.Connection, catalog, logger)
	c.gen = synthetic.New(cfg.Synthetic, c.registry, c.perf, c.met, logger)
	c.disp = dispatch.New(c.mgr.Inbound(), c.registry, c.perf, c.met, logger)
	c.ctrl = newReconnector(cfg.Reconnect, c.mgr, c.registry, c.gen, c.met, logger)

	c.ctx, c.cancel = context.WithCancel(context.Background())
	if err := c.perf.Start(c.ctx); err != nil {
		logger.Error("failed to start performance monitor", "error", err)
	}
	if err := c.disp.Start(c.ctx); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
	}
	c.ctrl.start(c.ctx)

	return c
}

// SubscribeMarketData registers a live-candle subscription and returns
// its disposer. The connection is established on demand; establishment
// failure surfaces through sub.OnError while the entry stays registered
// for synthetic fallback.
func (c *Client) SubscribeMarketData(sub subscription.MarketData) func() {
	if c.closed.Load() {
		if sub.OnError != nil {
			sub.OnError(ErrClosed)
		}
		return func() {}
	}

	// Live closes seed the synthetic walk so fallback resumes from the
	// last real price.
	if onData := sub.OnData; onData != nil {
		sub.OnData = func(candle model.Candle) {
			if candle.Origin == model.OriginLive {
				c.gen.SeedPrice(candle.Symbol, candle.Close)
			}
			onData(candle)
		}
	}

	entry := c.registry.PutMarketData(sub)
	c.updateSubGauges()
	c.logger.Debug("market data subscription added", "key", entry.Key)

	go c.establishAndSend(entry.Disposed, wire.NewSubscribe([]string{sub.Symbol}, sub.Timeframe), sub.OnError)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.registry.RemoveMarketData(entry)
			c.mgr.Send(wire.NewUnsubscribe([]string{sub.Symbol}))
			c.updateSubGauges()
			c.logger.Debug("market data subscription removed", "key", entry.Key)
		})
	}
}

// SubscribeIndicators registers an indicator subscription and returns its
// disposer. Indicator values are pull-refreshed: an initial request is
// sent, then re-requested on the configured cadence until disposal.
func (c *Client) SubscribeIndicators(sub subscription.Indicators) func() {
	if c.closed.Load() {
		if sub.OnError != nil {
			sub.OnError(ErrClosed)
		}
		return func() {}
	}

	entry := c.registry.PutIndicators(sub)
	c.updateSubGauges()
	c.logger.Debug("indicator subscription added", "key", entry.Key)

	stop := make(chan struct{})
	go func() {
		c.establishAndSend(entry.Disposed, wire.NewGetIndicators(sub.Symbol), sub.OnError)
		c.refreshLoop(stop, entry.Disposed, c.refreshInterval(c.cfg.IndicatorRefresh, DefaultIndicatorRefresh), func() {
			c.mgr.Send(wire.NewGetIndicators(sub.Symbol))
		})
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			c.registry.RemoveIndicators(entry)
			c.updateSubGauges()
			c.logger.Debug("indicator subscription removed", "key", entry.Key)
		})
	}
}

// SubscribeSignals registers a signal watch over a symbol set and returns
// its disposer. Signals are re-requested per symbol on the configured
// cadence until disposal.
func (c *Client) SubscribeSignals(sub subscription.Signals) func() {
	if c.closed.Load() {
		if sub.OnError != nil {
			sub.OnError(ErrClosed)
		}
		return func() {}
	}

	entry := c.registry.PutSignals(sub)
	c.updateSubGauges()
	c.logger.Debug("signal subscription added", "key", entry.Key)

	symbols := make([]string, len(sub.Symbols))
	copy(symbols, sub.Symbols)

	stop := make(chan struct{})
	go func() {
		c.establishAndSend(entry.Disposed, nil, sub.OnError)
		c.refreshLoop(stop, entry.Disposed, c.refreshInterval(c.cfg.SignalRefresh, DefaultSignalRefresh), func() {
			for _, sym := range symbols {
				c.mgr.Send(wire.NewGetSignals(sym))
			}
		})
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			c.registry.RemoveSignals(entry)
			c.updateSubGauges()
			c.logger.Debug("signal subscription removed", "key", entry.Key)
		})
	}
}

// PerformanceMetrics returns the latest health snapshot. During fallback
// the status reads connected and the origin reads simulated, so status
// consumers need no special casing while diagnostics stay truthful.
func (c *Client) PerformanceMetrics() model.PerformanceSnapshot {
	snap := c.perf.Snapshot()

	state := c.mgr.State()
	snap.ConnectionStatus = state
	snap.Origin = model.OriginLive
	if state == model.StateFallback {
		snap.ConnectionStatus = model.StateConnected
		snap.Origin = model.OriginSimulated
	}
	return snap
}

// IsConnected reports whether subscribers are receiving data. True while
// the synthetic fallback is active.
func (c *Client) IsConnected() bool {
	switch c.mgr.State() {
	case model.StateConnected, model.StateFallback:
		return true
	}
	return false
}

// ForceReconnect stops any active fallback, redials the catalog, and
// replays subscriptions on success.
func (c *Client) ForceReconnect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.logger.Info("forcing reconnect")
	return c.ctrl.force(ctx)
}

// Close tears down the client: transport, dispatcher, timers, generator,
// and every registered subscription. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.logger.Info("closing stream client")

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		c.cancel()
		c.ctrl.stop(stopCtx)
		if err := c.gen.Stop(stopCtx); err != nil {
			c.logger.Warn("failed to stop synthetic generator", "error", err)
		}
		if err := c.mgr.Close(); err != nil {
			c.logger.Warn("failed to close connection", "error", err)
		}
		if err := c.disp.Stop(stopCtx); err != nil {
			c.logger.Warn("failed to stop dispatcher", "error", err)
		}
		if err := c.perf.Stop(stopCtx); err != nil {
			c.logger.Warn("failed to stop performance monitor", "error", err)
		}

		c.registry.Clear()
		c.updateSubGauges()
	})
}

// refreshInterval guards configured cadences against zero values.
func (c *Client) refreshInterval(configured, fallback time.Duration) time.Duration {
	if configured <= 0 {
		return fallback
	}
	return configured
}

// updateSubGauges publishes registry sizes to the metrics gauges.
func (c *Client) updateSubGauges() {
	if c.met == nil {
		return
	}
	market, ind, sig := c.registry.All()
	c.met.ActiveSubscriptions.WithLabelValues("market").Set(float64(len(market)))
	c.met.ActiveSubscriptions.WithLabelValues("indicators").Set(float64(len(ind)))
	c.met.ActiveSubscriptions.WithLabelValues("signals").Set(float64(len(sig)))
}
