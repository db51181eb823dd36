package synthetic

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tradewatch/marketstream/internal/metrics"
	"github.com/tradewatch/marketstream/internal/model"
	"github.com/tradewatch/marketstream/internal/monitor"
	"github.com/tradewatch/marketstream/internal/subscription"
)

const (
	// DefaultTickInterval is the cadence of synthetic event generation.
	DefaultTickInterval = 2 * time.Second

	// DefaultVolatility bounds the per-tick open-to-close move.
	DefaultVolatility = 0.02

	// DefaultSignalProbability is the per-symbol chance of a signal per tick.
	DefaultSignalProbability = 0.1
)

// Config controls synthetic data generation.
type Config struct {
	// TickInterval is the delay between generation passes.
	TickInterval time.Duration

	// Volatility bounds the relative price change per candle.
	Volatility float64

	// SignalProbability is the chance of emitting a signal per watched
	// symbol per tick.
	SignalProbability float64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:      DefaultTickInterval,
		Volatility:        DefaultVolatility,
		SignalProbability: DefaultSignalProbability,
	}
}

// Generator produces simulated market events for every live subscription
// while the feed is unreachable. Output flows through the same registry
// fan-out as live dispatch, tagged with OriginSimulated.
type Generator struct {
	cfg      Config
	logger   *slog.Logger
	registry *subscription.Registry
	perf     *monitor.Monitor
	metrics  *metrics.Metrics

	mu     sync.Mutex
	prices map[string]float64
	active bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Generator. The metrics instance may be nil.
func New(cfg Config, registry *subscription.Registry, perf *monitor.Monitor, met *metrics.Metrics, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = DefaultVolatility
	}

	return &Generator{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		perf:     perf,
		metrics:  met,
		prices:   make(map[string]float64),
	}
}

// Start begins generation. Calling Start while active is a no-op.
func (g *Generator) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.active = true

	g.wg.Add(1)
	go g.tickLoop(runCtx)

	g.logger.Info("synthetic generator started",
		"tick_interval", g.cfg.TickInterval,
		"volatility", g.cfg.Volatility,
	)
	if g.metrics != nil {
		g.metrics.FallbackActive.Set(1)
	}

	return nil
}

// Stop halts generation. Calling Stop while inactive is a no-op.
func (g *Generator) Stop(ctx context.Context) error {
	g.mu.Lock()
	if !g.active {
		g.mu.Unlock()
		return nil
	}
	g.active = false
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		g.logger.Info("synthetic generator stopped")
	case <-ctx.Done():
		g.logger.Warn("synthetic generator stop timed out")
	}

	if g.metrics != nil {
		g.metrics.FallbackActive.Set(0)
	}

	return nil
}

// Active reports whether generation is running.
func (g *Generator) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// SeedPrice records the last observed live price for a symbol so the
// walk resumes from reality instead of the static table.
func (g *Generator) SeedPrice(symbol string, price float64) {
	if price <= 0 {
		return
	}
	g.mu.Lock()
	g.prices[symbol] = price
	g.mu.Unlock()
}

// tickLoop drives generation at the configured cadence.
func (g *Generator) tickLoop(ctx context.Context) {
	defer g.wg.Done()

	ticker := time.NewTicker(g.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

// tick synthesizes one pass of events for every live subscription.
func (g *Generator) tick() {
	start := time.Now()
	market, ind, sig := g.registry.All()

	// One candle per distinct symbol, regardless of how many timeframes
	// are subscribed; the fan-out reaches all of them.
	marketSymbols := make(map[string]struct{})
	for _, e := range market {
		if e.Disposed() {
			continue
		}
		marketSymbols[e.Sub.Symbol] = struct{}{}
	}

	indicatorWants := make(map[string]map[string]struct{})
	for _, e := range ind {
		if e.Disposed() {
			continue
		}
		names := indicatorWants[e.Sub.Symbol]
		if names == nil {
			names = make(map[string]struct{})
			indicatorWants[e.Sub.Symbol] = names
		}
		for _, n := range e.Sub.Names {
			names[n] = struct{}{}
		}
	}

	signalSymbols := make(map[string]struct{})
	for _, e := range sig {
		if e.Disposed() {
			continue
		}
		for _, s := range e.Sub.Symbols {
			signalSymbols[s] = struct{}{}
		}
	}

	emitted := 0

	for symbol := range marketSymbols {
		g.registry.FanOutCandle(g.nextCandle(symbol))
		emitted++
	}

	for symbol, names := range indicatorWants {
		g.registry.FanOutIndicators(symbol, g.nextIndicators(symbol, names))
		emitted++
	}

	for symbol := range signalSymbols {
		if s, ok := g.maybeSignal(symbol); ok {
			g.registry.FanOutSignal(s)
			emitted++
		}
	}

	if emitted > 0 {
		if g.perf != nil {
			latency := time.Since(start)
			for i := 0; i < emitted; i++ {
				g.perf.RecordMessage(latency)
			}
		}
		if g.metrics != nil {
			g.metrics.SyntheticFrames.Add(float64(emitted))
		}
	}
}

// price returns the current walk position for a symbol, seeding from the
// reference table on first use.
func (g *Generator) price(symbol string) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.prices[symbol]; ok {
		return p
	}
	p := referencePrice(symbol)
	g.prices[symbol] = p
	return p
}

// setPrice advances the walk position.
func (g *Generator) setPrice(symbol string, price float64) {
	g.mu.Lock()
	g.prices[symbol] = price
	g.mu.Unlock()
}

// nextCandle advances the symbol's random walk by one bar.
func (g *Generator) nextCandle(symbol string) model.Candle {
	open := g.price(symbol)
	c := nextBar(symbol, open, g.cfg.Volatility)
	g.setPrice(symbol, c.Close)
	return c
}

// nextIndicators synthesizes one value per requested indicator name.
func (g *Generator) nextIndicators(symbol string, names map[string]struct{}) []model.IndicatorValue {
	return indicatorValues(symbol, g.price(symbol), names)
}

// maybeSignal rolls the per-tick signal probability for a symbol.
func (g *Generator) maybeSignal(symbol string) (model.Signal, bool) {
	return rollSignal(symbol, g.price(symbol), g.cfg.SignalProbability)
}
