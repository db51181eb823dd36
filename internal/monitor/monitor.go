package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tradewatch/marketstream/internal/model"
)

const (
	// DefaultSampleInterval is how often the snapshot is recomputed.
	DefaultSampleInterval = 1 * time.Second

	// DefaultStaleAfter is the quiet period after which the staleness
	// penalty applies.
	DefaultStaleAfter = 5 * time.Second

	// stalenessPenalty is deducted from the quality score when no message
	// has arrived within StaleAfter.
	stalenessPenalty = 50.0
)

// Config holds Performance Monitor configuration.
type Config struct {
	SampleInterval time.Duration
	StaleAfter     time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SampleInterval: DefaultSampleInterval,
		StaleAfter:     DefaultStaleAfter,
	}
}

// Monitor tracks feed health. Dispatches record into a counter and latency
// accumulator; a sampling loop drains both once per interval and recomputes
// the published snapshot.
type Monitor struct {
	cfg    Config
	logger *slog.Logger

	// Counters drained on each sample
	mu         sync.Mutex
	count      int64
	latencySum time.Duration
	lastUpdate time.Time

	snapMu    sync.RWMutex
	snapshot  model.PerformanceSnapshot
	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Performance Monitor.
func New(cfg Config, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}

	return &Monitor{
		cfg:    cfg,
		logger: logger,
		snapshot: model.PerformanceSnapshot{
			DataQuality: 100,
		},
	}
}

// Start begins the sampling loop.
func (m *Monitor) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.startedAt = time.Now()

	m.wg.Add(1)
	go m.sampleLoop()

	return nil
}

// Stop shuts down the sampling loop.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordMessage counts one dispatched message and its processing latency.
func (m *Monitor) RecordMessage(latency time.Duration) {
	m.mu.Lock()
	m.count++
	m.latencySum += latency
	m.lastUpdate = time.Now()
	m.mu.Unlock()
}

// Snapshot returns the most recently computed snapshot. Pure getter; the
// caller stamps ConnectionStatus and Origin, which the monitor does not
// track.
func (m *Monitor) Snapshot() model.PerformanceSnapshot {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	return m.snapshot
}

// sampleLoop recomputes the snapshot once per interval.
func (m *Monitor) sampleLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

// sample drains the counters and publishes a fresh snapshot.
func (m *Monitor) sample() {
	now := time.Now()

	m.mu.Lock()
	count := m.count
	latencySum := m.latencySum
	lastUpdate := m.lastUpdate
	m.count = 0
	m.latencySum = 0
	m.mu.Unlock()

	rate := float64(count) / m.cfg.SampleInterval.Seconds()

	var latencyMs float64
	if count > 0 {
		latencyMs = latencySum.Seconds() * 1000 / float64(count)
	}

	// Before the first message, staleness is measured from monitor start.
	reference := lastUpdate
	if reference.IsZero() {
		reference = m.startedAt
	}
	stale := now.Sub(reference) > m.cfg.StaleAfter

	m.snapMu.Lock()
	m.snapshot = model.PerformanceSnapshot{
		LatencyMs:        latencyMs,
		UpdateRatePerSec: rate,
		DataQuality:      quality(latencyMs, stale),
		LastUpdate:       lastUpdate,
	}
	m.snapMu.Unlock()
}

// quality computes the composite data-quality score. Each 10ms of mean
// latency costs one point; a stale feed costs a flat 50.
func quality(latencyMs float64, stale bool) float64 {
	score := 100 - latencyMs/10
	if stale {
		score -= stalenessPenalty
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
