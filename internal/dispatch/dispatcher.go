package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tradewatch/marketstream/internal/connection"
	"github.com/tradewatch/marketstream/internal/metrics"
	"github.com/tradewatch/marketstream/internal/model"
	"github.com/tradewatch/marketstream/internal/monitor"
	"github.com/tradewatch/marketstream/internal/subscription"
	"github.com/tradewatch/marketstream/internal/wire"
)

// Dispatcher decodes raw frames from the connection manager and routes
// them to matching subscription callbacks.
type Dispatcher interface {
	// Start begins routing frames from the input channel.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the dispatcher.
	Stop(ctx context.Context) error

	// Stats returns current dispatch statistics.
	Stats() Stats
}

// Stats contains runtime statistics.
type Stats struct {
	FramesReceived int64
	FramesRouted   int64
	DecodeErrors   int64
	UnknownFrames  int64
}

// dispatcher is the internal implementation.
type dispatcher struct {
	logger *slog.Logger

	// Input from Connection Manager
	input <-chan connection.TimestampedMessage

	registry *subscription.Registry
	perf     *monitor.Monitor
	metrics  *metrics.Metrics

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.RWMutex
	received      int64
	routed        int64
	decodeErrors  int64
	unknownFrames int64
}

// New creates a Dispatcher reading from input. The metrics instance may
// be nil when Prometheus exposition is not wired up.
func New(input <-chan connection.TimestampedMessage, registry *subscription.Registry, perf *monitor.Monitor, met *metrics.Metrics, logger *slog.Logger) Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &dispatcher{
		logger:   logger,
		input:    input,
		registry: registry,
		perf:     perf,
		metrics:  met,
	}
}

// Start begins routing frames.
func (d *dispatcher) Start(ctx context.Context) error {
	d.ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go d.routeLoop()

	d.logger.Info("dispatcher started")

	return nil
}

// Stop gracefully shuts down the dispatcher.
func (d *dispatcher) Stop(ctx context.Context) error {
	d.logger.Info("stopping dispatcher")

	if d.cancel != nil {
		d.cancel()
	}

	// Wait for goroutine to finish
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped")
	case <-ctx.Done():
		d.logger.Warn("dispatcher stop timed out")
	}

	return nil
}

// Stats returns current statistics.
func (d *dispatcher) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return Stats{
		FramesReceived: d.received,
		FramesRouted:   d.routed,
		DecodeErrors:   d.decodeErrors,
		UnknownFrames:  d.unknownFrames,
	}
}

// routeLoop is the main routing goroutine.
func (d *dispatcher) routeLoop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case msg, ok := <-d.input:
			if !ok {
				d.logger.Info("input channel closed")
				return
			}
			d.route(msg)
		}
	}
}

// route decodes and routes a single frame.
func (d *dispatcher) route(msg connection.TimestampedMessage) {
	d.mu.Lock()
	d.received++
	d.mu.Unlock()

	frame, err := wire.Decode(msg.Data)
	if err != nil {
		if errors.Is(err, wire.ErrUnknownType) {
			d.logger.Debug("skipping frame", "error", err)
			d.mu.Lock()
			d.unknownFrames++
			d.mu.Unlock()
			if d.metrics != nil {
				d.metrics.UnknownFrames.Inc()
			}
			return
		}
		d.logger.Warn("failed to decode frame", "error", err)
		d.mu.Lock()
		d.decodeErrors++
		d.mu.Unlock()
		if d.metrics != nil {
			d.metrics.DecodeErrors.Inc()
		}
		return
	}

	switch f := frame.(type) {
	case wire.MarketData:
		d.registry.FanOutCandle(toCandle(f))
		d.recordRouted(wire.TypeMarketData, msg.ReceivedAt)

	case wire.Indicators:
		d.registry.FanOutIndicators(f.Symbol, toIndicatorValues(f))
		d.recordRouted(wire.TypeIndicators, msg.ReceivedAt)

	case wire.Signals:
		for _, s := range f.Signals {
			d.registry.FanOutSignal(toSignal(s))
		}
		d.recordRouted(wire.TypeSignals, msg.ReceivedAt)

	case wire.ErrorFrame:
		d.logger.Warn("feed reported error", "error", f.Error)
		d.registry.FanOutError(&model.FeedError{Message: f.Error})
		d.mu.Lock()
		d.routed++
		d.mu.Unlock()
		if d.metrics != nil {
			d.metrics.FramesRouted.WithLabelValues(wire.TypeError).Inc()
		}

	case wire.ConnectionEstablished:
		d.logger.Info("feed acknowledged connection", "message", f.Message)
	}
}

// recordRouted updates throughput accounting for a delivered data frame.
func (d *dispatcher) recordRouted(frameType string, receivedAt time.Time) {
	latency := time.Since(receivedAt)

	if d.perf != nil {
		d.perf.RecordMessage(latency)
	}

	d.mu.Lock()
	d.routed++
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.FramesRouted.WithLabelValues(frameType).Inc()
		d.metrics.DispatchLatency.Observe(latency.Seconds())
	}
}
