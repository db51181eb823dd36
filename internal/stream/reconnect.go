package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tradewatch/marketstream/internal/connection"
	"github.com/tradewatch/marketstream/internal/metrics"
	"github.com/tradewatch/marketstream/internal/model"
	"github.com/tradewatch/marketstream/internal/subscription"
	"github.com/tradewatch/marketstream/internal/synthetic"
	"github.com/tradewatch/marketstream/internal/wire"
)

const (
	// DefaultBaseDelay seeds the exponential backoff schedule.
	DefaultBaseDelay = time.Second

	// DefaultMaxAttempts bounds delayed reconnection attempts before the
	// synthetic fallback takes over.
	DefaultMaxAttempts = 5
)

// ReconnectConfig controls loss recovery.
type ReconnectConfig struct {
	// BaseDelay is the first retry delay; attempt n waits BaseDelay * 2^n.
	BaseDelay time.Duration

	// MaxAttempts is the retry budget per outage.
	MaxAttempts int
}

// DefaultReconnectConfig returns production defaults.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		BaseDelay:   DefaultBaseDelay,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// backoffDelay computes the wait before retry attempt (0-based).
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base * (1 << attempt)
}

// attemptResult lets concurrent callers join one in-flight connect cycle.
type attemptResult struct {
	done chan struct{}
	err  error
}

// reconnector owns every transport (re)establishment cycle: the initial
// subscribe-triggered connect, automatic recovery after abnormal loss,
// and forced reconnects. At most one cycle runs at a time; callers that
// race an in-flight cycle join it. A cycle that exhausts its retry budget
// flips the connection to fallback and starts the synthetic generator.
type reconnector struct {
	cfg      ReconnectConfig
	logger   *slog.Logger
	mgr      connection.Manager
	registry *subscription.Registry
	gen      *synthetic.Generator
	metrics  *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight *attemptResult
	closed   bool
}

func newReconnector(cfg ReconnectConfig, mgr connection.Manager, registry *subscription.Registry, gen *synthetic.Generator, met *metrics.Metrics, logger *slog.Logger) *reconnector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	return &reconnector{
		cfg:      cfg,
		logger:   logger,
		mgr:      mgr,
		registry: registry,
		gen:      gen,
		metrics:  met,
	}
}

// start begins consuming transport loss events.
func (r *reconnector) start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()
}

// stop halts loss handling and any in-flight cycle.
func (r *reconnector) stop(ctx context.Context) {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Warn("reconnector stop timed out")
	}
}

// run consumes loss events from the connection manager.
func (r *reconnector) run() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case err, ok := <-r.mgr.Losses():
			if !ok {
				return
			}
			r.logger.Warn("transport lost", "error", err)
			r.handleLoss()
		}
	}
}

// handleLoss starts a recovery cycle for an abnormal transport loss.
// OnDisconnect fires once per transition into recovery, not per attempt.
func (r *reconnector) handleLoss() {
	r.mu.Lock()
	if r.closed || r.inflight != nil {
		r.mu.Unlock()
		return
	}
	res := &attemptResult{done: make(chan struct{})}
	r.inflight = res
	r.mu.Unlock()

	r.registry.FanOutDisconnect()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.cycle(res, false)
	}()
}

// establish ensures a live connection for a subscribe call, joining any
// in-flight cycle. The returned replayed flag is true when a cycle ran:
// its success replay has already sent the caller's subscribe frame.
// Connected and fallback states both count as established.
func (r *reconnector) establish(ctx context.Context) (replayed bool, err error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false, ErrClosed
	}
	switch r.mgr.State() {
	case model.StateConnected, model.StateFallback:
		r.mu.Unlock()
		return false, nil
	}
	res := r.inflight
	if res == nil {
		res = &attemptResult{done: make(chan struct{})}
		r.inflight = res
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.cycle(res, true)
		}()
	}
	r.mu.Unlock()

	select {
	case <-res.done:
		return true, res.err
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

// force redials unconditionally, stopping the synthetic generator first.
func (r *reconnector) force(ctx context.Context) error {
	if err := r.gen.Stop(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	res := r.inflight
	if res == nil {
		res = &attemptResult{done: make(chan struct{})}
		r.inflight = res
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.cycle(res, true)
		}()
	}
	r.mu.Unlock()

	select {
	case <-res.done:
		return res.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cycle runs one full establishment cycle and publishes its outcome.
func (r *reconnector) cycle(res *attemptResult, immediateFirst bool) {
	res.err = r.attemptLoop(immediateFirst)

	r.mu.Lock()
	r.inflight = nil
	r.mu.Unlock()

	close(res.done)
}

// attemptLoop dials until success, budget exhaustion, or shutdown. Each
// attempt is a full catalog pass inside the manager.
func (r *reconnector) attemptLoop(immediateFirst bool) error {
	if immediateFirst {
		if r.metrics != nil {
			r.metrics.ReconnectAttempts.Inc()
		}
		if err := r.mgr.Connect(r.ctx); err == nil {
			r.onConnected()
			return nil
		} else if r.ctx.Err() != nil {
			return r.ctx.Err()
		} else {
			r.logger.Warn("connect failed, entering retry schedule", "error", err)
		}
	}

	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		delay := backoffDelay(r.cfg.BaseDelay, attempt)
		r.logger.Info("scheduling reconnect",
			"attempt", attempt+1,
			"max_attempts", r.cfg.MaxAttempts,
			"delay", delay,
		)

		select {
		case <-r.ctx.Done():
			return r.ctx.Err()
		case <-time.After(delay):
		}

		if r.metrics != nil {
			r.metrics.ReconnectAttempts.Inc()
		}
		if err := r.mgr.Connect(r.ctx); err != nil {
			if r.ctx.Err() != nil {
				return r.ctx.Err()
			}
			r.logger.Warn("reconnect attempt failed",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		r.onConnected()
		return nil
	}

	r.logger.Warn("retry budget exhausted, activating synthetic fallback",
		"attempts", r.cfg.MaxAttempts,
	)
	r.mgr.SetState(model.StateFallback)
	if err := r.gen.Start(r.ctx); err != nil {
		r.logger.Error("failed to start synthetic generator", "error", err)
	}

	return fmt.Errorf("reconnect: %w", connection.ErrAllEndpointsFailed)
}

// onConnected stops any active fallback and replays every live
// subscription as a fresh request frame.
func (r *reconnector) onConnected() {
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.gen.Stop(stopCtx); err != nil {
		r.logger.Warn("failed to stop synthetic generator", "error", err)
	}

	r.replay()
}

// replay re-sends each live registry entry exactly once. Replays are
// idempotent from the feed's perspective.
func (r *reconnector) replay() {
	market, ind, sig := r.registry.All()

	n := 0
	for _, e := range market {
		if e.Disposed() {
			continue
		}
		r.mgr.Send(wire.NewSubscribe([]string{e.Sub.Symbol}, e.Sub.Timeframe))
		n++
	}
	for _, e := range ind {
		if e.Disposed() {
			continue
		}
		r.mgr.Send(wire.NewGetIndicators(e.Sub.Symbol))
		n++
	}
	for _, e := range sig {
		if e.Disposed() {
			continue
		}
		for _, sym := range e.Sub.Symbols {
			r.mgr.Send(wire.NewGetSignals(sym))
		}
		n++
	}

	if n > 0 {
		r.logger.Info("replayed subscriptions", "count", n)
	}
}
