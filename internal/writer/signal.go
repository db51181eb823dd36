package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradewatch/marketstream/internal/metrics"
	"github.com/tradewatch/marketstream/internal/model"
)

// SignalWriter batches trading signals and writes them to the signals
// table.
type SignalWriter struct {
	cfg    WriterConfig
	logger *slog.Logger
	met    *metrics.Metrics

	input chan signalMsg

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []signalRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

type signalMsg struct {
	signal     model.Signal
	receivedAt time.Time
}

// NewSignalWriter creates a new SignalWriter. met may be nil.
func NewSignalWriter(cfg WriterConfig, db *pgxpool.Pool, met *metrics.Metrics, logger *slog.Logger) *SignalWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignalWriter{
		cfg:    cfg,
		db:     db,
		met:    met,
		logger: logger,
		input:  make(chan signalMsg, cfg.BufferSize),
		batch:  make([]signalRow, 0, cfg.BatchSize),
	}
}

// Enqueue queues a signal for persistence. It never blocks; when the
// input queue is full the signal is dropped and false is returned.
func (w *SignalWriter) Enqueue(signal model.Signal) bool {
	msg := signalMsg{signal: signal, receivedAt: time.Now()}
	select {
	case w.input <- msg:
		return true
	default:
		w.batchMu.Lock()
		w.metrics.Dropped++
		w.batchMu.Unlock()
		return false
	}
}

// Start begins consuming queued signals and writing to the database.
func (w *SignalWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("signal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer and flushes the pending batch.
func (w *SignalWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping signal writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("signal writer stopped")
	case <-ctx.Done():
		w.logger.Warn("signal writer stop timed out")
	}

	// Final flush
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *SignalWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *SignalWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case msg := <-w.input:
			w.handleMessage(msg)
		}
	}
}

func (w *SignalWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

func (w *SignalWriter) handleMessage(msg signalMsg) {
	row := w.transform(msg)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// transform converts a signal to a signalRow.
func (w *SignalWriter) transform(msg signalMsg) signalRow {
	reasoning := make([]string, len(msg.signal.Reasoning))
	copy(reasoning, msg.signal.Reasoning)

	return signalRow{
		SignalID:     msg.signal.ID,
		EmittedTs:    msg.signal.Timestamp.UnixMicro(),
		ReceivedAt:   msg.receivedAt.UnixMicro(),
		Symbol:       msg.signal.Symbol,
		Action:       string(msg.signal.Action),
		Confidence:   msg.signal.Confidence,
		PriceTarget:  msg.signal.PriceTarget,
		CurrentPrice: msg.signal.CurrentPrice,
		Strength:     msg.signal.Strength,
		Reasoning:    reasoning,
		Origin:       string(msg.signal.Origin),
	}
}

func (w *SignalWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	batch := w.batch
	w.batch = make([]signalRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("signal batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		if w.met != nil {
			w.met.WriteErrors.WithLabelValues("signals").Inc()
		}
		return
	}

	inserted := len(batch) - conflicts
	w.batchMu.Lock()
	w.metrics.Inserts += int64(inserted)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()
	if w.met != nil {
		w.met.RowsWritten.WithLabelValues("signals").Add(float64(inserted))
	}

	w.logger.Debug("flushed signals",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *SignalWriter) batchInsert(ctx context.Context, rows []signalRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO signals (signal_id, emitted_ts, received_at, symbol, action, confidence, price_target, current_price, strength, reasoning, origin)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (signal_id) DO NOTHING
		`, r.SignalID, r.EmittedTs, r.ReceivedAt, r.Symbol, r.Action, r.Confidence, r.PriceTarget, r.CurrentPrice, r.Strength, r.Reasoning, r.Origin)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
